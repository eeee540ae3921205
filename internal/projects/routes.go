package projects

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gemstage/gemstage/internal/ai"
	"github.com/gemstage/gemstage/internal/assets"
)

// Editor runs a prompt-driven refinement of a generated image.
type Editor interface {
	Edit(ctx context.Context, image ai.InlineImage, instruction string) (*ai.ImageResponse, error)
}

// RegisterRoutes mounts project endpoints under /api/projects.
func RegisterRoutes(r chi.Router, store *Store, files *assets.Store, editor Editor) {
	r.Route("/api/projects", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleCreate(store, files))
		r.Get("/{id}", handleGet(store))
		r.Delete("/{id}", handleDelete(store, files))
		r.Get("/{id}/uploads/{which}", handleUpload(store, files))
		r.Get("/{id}/images/{imageID}/file", handleImageFile(store, files))
		r.Post("/{id}/images/{imageID}/edit", handleEdit(store, files, editor))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		list, err := store.List(r.Context(), limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []Project{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// createRequest is the JSON body for saving a project. Uploads arrive as
// base64 data URIs, the format the browser already holds them in.
type createRequest struct {
	Title    string          `json:"title"`
	Product  string          `json:"product"`
	Model    string          `json:"model,omitempty"`
	ItemSize string          `json:"item_size,omitempty"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

func handleCreate(store *Store, files *assets.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Product == "" {
			http.Error(w, "product image is required", http.StatusBadRequest)
			return
		}

		productMime, productData, err := assets.ParseDataURI(req.Product)
		if err != nil {
			http.Error(w, "product: "+err.Error(), http.StatusBadRequest)
			return
		}
		productPath, err := files.Save(productData, productMime)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		p := &Project{
			Title:        req.Title,
			ProductImage: productPath,
			ProductMime:  productMime,
			ItemSize:     req.ItemSize,
			Analysis:     req.Analysis,
		}

		if req.Model != "" {
			modelMime, modelData, err := assets.ParseDataURI(req.Model)
			if err != nil {
				http.Error(w, "model: "+err.Error(), http.StatusBadRequest)
				return
			}
			modelPath, err := files.Save(modelData, modelMime)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			p.ModelImage = modelPath
			p.ModelMime = modelMime
		}

		if err := store.Save(r.Context(), p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleDelete(store *Store, files *assets.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paths, err := store.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		for _, path := range paths {
			_ = files.Remove(path)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleUpload(store *Store, files *assets.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var path, mime string
		switch chi.URLParam(r, "which") {
		case "product":
			path, mime = p.ProductImage, p.ProductMime
		case "model":
			path, mime = p.ModelImage, p.ModelMime
		default:
			http.Error(w, "unknown upload", http.StatusNotFound)
			return
		}
		if path == "" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		serveImage(w, files, path, mime)
	}
}

func handleImageFile(store *Store, files *assets.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := store.GetImage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "imageID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if img.Status != "done" || img.ImagePath == "" {
			http.Error(w, "image not available", http.StatusConflict)
			return
		}
		serveImage(w, files, img.ImagePath, img.MimeType)
	}
}

type editRequest struct {
	Instruction string `json:"instruction"`
}

// handleEdit renders a refinement of an existing output and stores it as a
// new generated image on the same project.
func handleEdit(store *Store, files *assets.Store, editor Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Instruction == "" {
			http.Error(w, "instruction is required", http.StatusBadRequest)
			return
		}

		projectID := chi.URLParam(r, "id")
		img, err := store.GetImage(r.Context(), projectID, chi.URLParam(r, "imageID"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if img.Status != "done" || img.ImagePath == "" {
			http.Error(w, "cannot edit a failed image", http.StatusConflict)
			return
		}

		data, err := files.Load(img.ImagePath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp, err := editor.Edit(r.Context(), ai.InlineImage{MimeType: img.MimeType, Data: data}, req.Instruction)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		path, err := files.Save(resp.Image.Data, resp.Image.MimeType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		edited := &GeneratedImage{
			Kind:      KindEdit,
			SceneID:   img.SceneID,
			Label:     img.Label,
			Status:    "done",
			ImagePath: path,
			MimeType:  resp.Image.MimeType,
		}
		if err := store.AddImage(r.Context(), projectID, edited); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, edited)
	}
}

func serveImage(w http.ResponseWriter, files *assets.Store, path, mime string) {
	data, err := files.Load(path)
	if err != nil {
		http.Error(w, "image file missing", http.StatusNotFound)
		return
	}
	if mime == "" {
		mime = assets.SniffMIME(data)
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "attachment; filename="+path)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
