package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gemstage/gemstage/internal/ai"
	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/jobs"
	"github.com/gemstage/gemstage/internal/projects"
	"github.com/gemstage/gemstage/internal/prompts"
	"github.com/gemstage/gemstage/internal/studio"
)

// shootTimeout bounds one full shoot including retries and backoff.
const shootTimeout = 30 * time.Minute

// decodeUpload parses a data URI and verifies the payload is a supported
// image format.
func decodeUpload(uri string) (ai.InlineImage, error) {
	_, data, err := assets.ParseDataURI(uri)
	if err != nil {
		return ai.InlineImage{}, err
	}
	mime, err := assets.ValidateUpload(data)
	if err != nil {
		return ai.InlineImage{}, err
	}
	return ai.InlineImage{MimeType: mime, Data: data}, nil
}

// uploadError maps a decode failure to 400 for malformed bodies and 415 for
// images in a format the studio does not accept.
func uploadError(w http.ResponseWriter, field string, err error) {
	status := http.StatusBadRequest
	if strings.Contains(err.Error(), "unsupported image type") {
		status = http.StatusUnsupportedMediaType
	}
	http.Error(w, field+": "+err.Error(), status)
}

type analyzeRequest struct {
	Image string `json:"image"`
}

type analyzeResponse struct {
	Analysis     *studio.Analysis `json:"analysis"`
	InputTokens  int              `json:"input_tokens"`
	OutputTokens int              `json:"output_tokens"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		http.Error(w, "image is required", http.StatusBadRequest)
		return
	}

	img, err := decodeUpload(req.Image)
	if err != nil {
		uploadError(w, "image", err)
		return
	}

	result, err := s.studio.Analyze(r.Context(), img)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Analysis:     result.Analysis,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
	})
}

type cropRequest struct {
	Image string          `json:"image"`
	Rect  assets.CropRect `json:"rect"`
}

func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request) {
	var req cropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	img, err := decodeUpload(req.Image)
	if err != nil {
		uploadError(w, "image", err)
		return
	}
	cropped, err := assets.Crop(img.Data, req.Rect)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"image": assets.ToDataURI("image/png", cropped),
	})
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, prompts.DefaultScenes)
}

type shootRequest struct {
	Title      string          `json:"title"`
	Product    string          `json:"product"`
	Model      string          `json:"model,omitempty"`
	Logo       string          `json:"logo,omitempty"`
	ItemSize   string          `json:"item_size,omitempty"`
	SceneIDs   []string        `json:"scene_ids,omitempty"`
	SceneCount int             `json:"scene_count,omitempty"`
	Analysis   json.RawMessage `json:"analysis,omitempty"`
}

func (s *Server) handleShoot(w http.ResponseWriter, r *http.Request) {
	var req shootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Product == "" {
		http.Error(w, "product image is required", http.StatusBadRequest)
		return
	}

	product, err := decodeUpload(req.Product)
	if err != nil {
		uploadError(w, "product", err)
		return
	}
	var model *ai.InlineImage
	if req.Model != "" {
		m, err := decodeUpload(req.Model)
		if err != nil {
			uploadError(w, "model", err)
			return
		}
		model = &m
	}
	logo, err := s.resolveLogo(r.Context(), req.Logo)
	if err != nil {
		uploadError(w, "logo", err)
		return
	}

	scenes, err := pickScenes(req.SceneIDs, req.SceneCount, s.cfg.SceneCount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var analysis *studio.Analysis
	if len(req.Analysis) > 0 {
		analysis = &studio.Analysis{}
		if err := json.Unmarshal(req.Analysis, analysis); err != nil {
			http.Error(w, "analysis: invalid JSON", http.StatusBadRequest)
			return
		}
	}

	states := make([]jobs.SceneState, 0, len(scenes)+1)
	for _, sc := range scenes {
		states = append(states, jobs.SceneState{
			SceneID: sc.ID,
			Label:   sc.Label,
			Status:  string(studio.StatusPending),
		})
	}
	if model != nil {
		states = append(states, jobs.SceneState{
			SceneID: "tryon",
			Label:   "Virtual try-on",
			Status:  string(studio.StatusPending),
		})
	}
	snap := s.jobs.Create(states)

	go s.runShootJob(snap.ID, shootJob{
		title:    req.Title,
		product:  product,
		model:    model,
		logo:     logo,
		itemSize: req.ItemSize,
		scenes:   scenes,
		analysis: analysis,
	})

	writeJSON(w, http.StatusAccepted, snap)
}

// resolveLogo picks the logo reference for a shoot: the one in the request
// if present, otherwise the preferred logo saved in settings.
func (s *Server) resolveLogo(ctx context.Context, uri string) (*ai.InlineImage, error) {
	if uri == "" {
		saved, err := s.settings.PreferredLogo(ctx)
		if err != nil || saved == "" {
			return nil, nil
		}
		uri = saved
	}
	img, err := decodeUpload(uri)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func pickScenes(ids []string, requested, fallback int) ([]prompts.Scene, error) {
	if len(ids) > 0 {
		scenes := make([]prompts.Scene, 0, len(ids))
		for _, id := range ids {
			sc, ok := prompts.SceneByID(id)
			if !ok {
				return nil, &sceneError{id: id}
			}
			scenes = append(scenes, sc)
		}
		return scenes, nil
	}
	count := requested
	if count == 0 {
		count = fallback
	}
	if count < 1 {
		return nil, fmt.Errorf("shoot selects no scenes")
	}
	if count > len(prompts.DefaultScenes) {
		count = len(prompts.DefaultScenes)
	}
	return prompts.DefaultScenes[:count], nil
}

type sceneError struct{ id string }

func (e *sceneError) Error() string { return "unknown scene: " + e.id }

type shootJob struct {
	title    string
	product  ai.InlineImage
	model    *ai.InlineImage
	logo     *ai.InlineImage
	itemSize string
	scenes   []prompts.Scene
	analysis *studio.Analysis
}

// runShootJob drives one shoot end to end in the background: analysis when
// the client did not supply one, the project row with pending image rows,
// the scene renders, and the optional try-on composite.
func (s *Server) runShootJob(jobID string, jb shootJob) {
	ctx, cancel := context.WithTimeout(context.Background(), shootTimeout)
	defer cancel()

	analysis := jb.analysis
	if analysis == nil {
		result, err := s.studio.Analyze(ctx, jb.product)
		if err != nil {
			s.jobs.Finish(jobID, err)
			return
		}
		analysis = result.Analysis
	}

	project, rows, err := s.saveShootProject(ctx, jb, analysis)
	if err != nil {
		s.jobs.Finish(jobID, err)
		return
	}
	s.jobs.SetProject(jobID, project.ID)

	_, err = s.studio.RunShoot(ctx, studio.ShootRequest{
		Product:  jb.product,
		Logo:     jb.logo,
		Analysis: analysis,
		SceneIDs: sceneIDs(jb.scenes),
		ItemSize: jb.itemSize,
	}, func(done, total int, scene studio.SceneResult) {
		idx := sceneIndex(jb.scenes, scene.SceneID)
		if idx < 0 {
			return
		}
		s.recordScene(ctx, jobID, idx, rows[idx], scene)
	})
	if err != nil {
		s.jobs.Finish(jobID, err)
		return
	}

	if jb.model != nil {
		idx := len(jb.scenes)
		scene := studio.SceneResult{SceneID: "tryon", Label: "Virtual try-on"}
		resp, err := s.studio.TryOn(ctx, jb.product, *jb.model, analysis)
		if err != nil {
			scene.Status = studio.StatusFailed
			scene.Err = err
		} else {
			scene.Status = studio.StatusDone
			scene.Image = resp.Image
		}
		s.recordScene(ctx, jobID, idx, rows[idx], scene)
	}

	s.jobs.Finish(jobID, nil)
}

// saveShootProject persists the uploads and a project row with one pending
// image row per scene. The rows are updated in place as renders finish.
func (s *Server) saveShootProject(ctx context.Context, jb shootJob, analysis *studio.Analysis) (*projects.Project, []*projects.GeneratedImage, error) {
	productPath, err := s.files.Save(jb.product.Data, jb.product.MimeType)
	if err != nil {
		return nil, nil, err
	}
	p := &projects.Project{
		Title:        jb.title,
		ProductImage: productPath,
		ProductMime:  jb.product.MimeType,
		ItemSize:     jb.itemSize,
	}
	if jb.model != nil {
		modelPath, err := s.files.Save(jb.model.Data, jb.model.MimeType)
		if err != nil {
			return nil, nil, err
		}
		p.ModelImage = modelPath
		p.ModelMime = jb.model.MimeType
	}
	if analysis != nil {
		raw, err := json.Marshal(analysis)
		if err != nil {
			return nil, nil, err
		}
		p.Analysis = raw
	}

	rows := make([]*projects.GeneratedImage, 0, len(jb.scenes)+1)
	for _, sc := range jb.scenes {
		rows = append(rows, &projects.GeneratedImage{
			Kind:    projects.KindScene,
			SceneID: sc.ID,
			Label:   sc.Label,
			Status:  string(studio.StatusPending),
		})
	}
	if jb.model != nil {
		rows = append(rows, &projects.GeneratedImage{
			Kind:   projects.KindTryOn,
			Label:  "Virtual try-on",
			Status: string(studio.StatusPending),
		})
	}
	for _, row := range rows {
		p.Images = append(p.Images, *row)
	}
	if err := s.projects.Save(ctx, p); err != nil {
		return nil, nil, err
	}
	// Save assigned IDs; copy them back onto the tracked rows.
	for i := range p.Images {
		rows[i].ID = p.Images[i].ID
		rows[i].ProjectID = p.Images[i].ProjectID
	}
	return p, rows, nil
}

// recordScene writes one terminal scene result to disk and the database,
// then publishes it to job watchers.
func (s *Server) recordScene(ctx context.Context, jobID string, idx int, row *projects.GeneratedImage, scene studio.SceneResult) {
	st := jobs.SceneState{
		SceneID: scene.SceneID,
		Label:   scene.Label,
		Status:  string(scene.Status),
	}
	row.Status = string(scene.Status)

	if scene.Status == studio.StatusDone {
		path, err := s.files.Save(scene.Image.Data, scene.Image.MimeType)
		if err != nil {
			scene.Status = studio.StatusFailed
			scene.Err = err
			st.Status = string(studio.StatusFailed)
			row.Status = string(studio.StatusFailed)
		} else {
			row.ImagePath = path
			row.MimeType = scene.Image.MimeType
			st.ImageID = row.ID
		}
	}
	if scene.Err != nil {
		row.Error = scene.Err.Error()
		st.Error = scene.Err.Error()
	}

	if err := s.projects.UpdateImage(ctx, row); err != nil {
		log.Printf("updating image %s: %v", row.ID, err)
	}
	s.jobs.UpdateScene(jobID, idx, st)
}

func sceneIDs(scenes []prompts.Scene) []string {
	ids := make([]string, len(scenes))
	for i, sc := range scenes {
		ids[i] = sc.ID
	}
	return ids
}

func sceneIndex(scenes []prompts.Scene, id string) int {
	for i, sc := range scenes {
		if sc.ID == id {
			return i
		}
	}
	return -1
}

type tryOnRequest struct {
	Product   string          `json:"product"`
	Model     string          `json:"model"`
	ProjectID string          `json:"project_id,omitempty"`
	Analysis  json.RawMessage `json:"analysis,omitempty"`
}

type tryOnResponse struct {
	Image   string `json:"image"`
	ImageID string `json:"image_id,omitempty"`
}

func (s *Server) handleTryOn(w http.ResponseWriter, r *http.Request) {
	var req tryOnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Product == "" || req.Model == "" {
		http.Error(w, "product and model images are required", http.StatusBadRequest)
		return
	}
	product, err := decodeUpload(req.Product)
	if err != nil {
		uploadError(w, "product", err)
		return
	}
	model, err := decodeUpload(req.Model)
	if err != nil {
		uploadError(w, "model", err)
		return
	}
	var analysis *studio.Analysis
	if len(req.Analysis) > 0 {
		analysis = &studio.Analysis{}
		if err := json.Unmarshal(req.Analysis, analysis); err != nil {
			http.Error(w, "analysis: invalid JSON", http.StatusBadRequest)
			return
		}
	}

	resp, err := s.studio.TryOn(r.Context(), product, model, analysis)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	out := tryOnResponse{Image: assets.ToDataURI(resp.Image.MimeType, resp.Image.Data)}
	if req.ProjectID != "" {
		path, err := s.files.Save(resp.Image.Data, resp.Image.MimeType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		img := &projects.GeneratedImage{
			Kind:      projects.KindTryOn,
			Label:     "Virtual try-on",
			Status:    string(studio.StatusDone),
			ImagePath: path,
			MimeType:  resp.Image.MimeType,
		}
		if err := s.projects.AddImage(r.Context(), req.ProjectID, img); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out.ImageID = img.ID
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
