package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/gemstage/gemstage/internal/ai"
	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func sampleProject() *Project {
	return &Project{
		Title:        "Gold solitaire ring",
		ProductImage: "abc.png",
		ProductMime:  "image/png",
		ItemSize:     "band width 3mm",
		Analysis:     json.RawMessage(`{"item_type":"ring"}`),
		Images: []GeneratedImage{
			{Kind: KindScene, SceneID: "marble-pedestal", Label: "Marble pedestal", Status: "done", ImagePath: "img1.png", MimeType: "image/png"},
			{Kind: KindScene, SceneID: "silk-drape", Label: "Silk drape", Status: "failed", Error: "quota exceeded"},
		},
	}
}

func TestSaveAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p := sampleProject()
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p.ID == "" {
		t.Fatal("Save should assign a project id")
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Gold solitaire ring" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.ItemSize != "band width 3mm" {
		t.Errorf("ItemSize = %q", got.ItemSize)
	}
	if string(got.Analysis) != `{"item_type":"ring"}` {
		t.Errorf("Analysis = %s", got.Analysis)
	}
	if len(got.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(got.Images))
	}
	if got.Images[0].Status != "done" || got.Images[1].Status != "failed" {
		t.Errorf("image statuses = %q, %q", got.Images[0].Status, got.Images[1].Status)
	}
	if got.Images[1].Error != "quota exceeded" {
		t.Errorf("failed image error = %q", got.Images[1].Error)
	}
	if got.ModelImage != "" {
		t.Errorf("ModelImage = %q, want empty", got.ModelImage)
	}
}

func TestImagesKeepInsertionOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sceneIDs := []string{"marble-pedestal", "silk-drape", "botanical", "mirror-reflection", "editorial-dark", "golden-hour"}
	p := &Project{ProductImage: "abc.png", ProductMime: "image/png"}
	for _, id := range sceneIDs {
		p.Images = append(p.Images, GeneratedImage{Kind: KindScene, SceneID: id, Status: "pending"})
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// All rows share one created_at second; order must still be stable.
	for i := 0; i < 10; i++ {
		got, err := store.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		for j, img := range got.Images {
			if img.SceneID != sceneIDs[j] {
				t.Fatalf("images[%d].SceneID = %q, want %q", j, img.SceneID, sceneIDs[j])
			}
		}
	}

	// Later additions land after every existing image.
	tryon := &GeneratedImage{Kind: KindTryOn, Label: "Virtual try-on", Status: "done"}
	if err := store.AddImage(ctx, p.ID, tryon); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Images[len(got.Images)-1].ID != tryon.ID {
		t.Errorf("appended image is not last")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p := sampleProject()
		p.Images = nil
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		// SQLite datetime has second precision; force distinct timestamps.
		if _, err := store.db.Exec(`UPDATE projects SET created_at = datetime('now', ?) WHERE id = ?`,
			// earliest project gets the oldest timestamp
			[]any{"-2 minutes", "-1 minutes", "+0 seconds"}[i], p.ID); err != nil {
			t.Fatalf("backdating: %v", err)
		}
	}

	list, err := store.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("list size = %d, want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].CreatedAt.Before(list[i].CreatedAt) {
			t.Errorf("list not newest-first at index %d", i)
		}
	}
}

func TestListPagination(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		p := sampleProject()
		p.Images = nil
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	page, err := store.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}

	rest, err := store.List(ctx, 10, 4)
	if err != nil {
		t.Fatalf("List offset: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("offset page size = %d, want 1", len(rest))
	}
}

func TestDeleteReturnsFilePaths(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p := sampleProject()
	p.ModelImage = "model.jpg"
	p.ModelMime = "image/jpeg"
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	paths, err := store.Delete(ctx, p.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := map[string]bool{"img1.png": true, "abc.png": true, "model.jpg": true}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for _, path := range paths {
		if !want[path] {
			t.Errorf("unexpected path %q", path)
		}
	}

	if _, err := store.GetByID(ctx, p.ID); err == nil {
		t.Error("project should be gone")
	}
	if _, err := store.Delete(ctx, p.ID); err == nil {
		t.Error("second delete should fail")
	}
}

func TestAddAndUpdateImage(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p := sampleProject()
	p.Images = nil
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	img := &GeneratedImage{Kind: KindTryOn, Status: "pending"}
	if err := store.AddImage(ctx, p.ID, img); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if img.ID == "" {
		t.Fatal("AddImage should assign an id")
	}

	img.Status = "done"
	img.ImagePath = "tryon.png"
	img.MimeType = "image/png"
	if err := store.UpdateImage(ctx, img); err != nil {
		t.Fatalf("UpdateImage: %v", err)
	}

	got, err := store.GetImage(ctx, p.ID, img.ID)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if got.Status != "done" || got.ImagePath != "tryon.png" || got.Kind != KindTryOn {
		t.Errorf("unexpected image: %+v", got)
	}

	missing := &GeneratedImage{ID: "nope", ProjectID: p.ID}
	if err := store.UpdateImage(ctx, missing); err == nil {
		t.Error("updating missing image should fail")
	}
}

// --- HTTP routes ---

type stubEditor struct {
	lastInstruction string
}

func (s *stubEditor) Edit(ctx context.Context, image ai.InlineImage, instruction string) (*ai.ImageResponse, error) {
	s.lastInstruction = instruction
	return &ai.ImageResponse{Image: ai.InlineImage{MimeType: "image/png", Data: []byte("edited")}}, nil
}

func setupServer(t *testing.T) (*httptest.Server, *Store, *assets.Store, *stubEditor) {
	t.Helper()
	store := setupStore(t)
	files, err := assets.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("assets.NewStore: %v", err)
	}
	editor := &stubEditor{}

	r := chi.NewRouter()
	RegisterRoutes(r, store, files, editor)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store, files, editor
}

func TestCreateAndFetchProjectOverHTTP(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	body, _ := json.Marshal(createRequest{
		Title:    "Pearl necklace",
		Product:  assets.ToDataURI("image/png", []byte("product-bytes")),
		ItemSize: "45cm chain",
		Analysis: json.RawMessage(`{"item_type":"necklace"}`),
	})
	resp, err := http.Post(srv.URL+"/api/projects", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created Project
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.ProductImage == "" {
		t.Fatalf("incomplete response: %+v", created)
	}

	// The saved upload should be downloadable.
	up, err := http.Get(srv.URL + "/api/projects/" + created.ID + "/uploads/product")
	if err != nil {
		t.Fatalf("GET upload: %v", err)
	}
	defer up.Body.Close()
	if up.StatusCode != http.StatusOK {
		t.Errorf("upload status = %d", up.StatusCode)
	}
}

func TestCreateRejectsMissingProduct(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	resp, err := http.Post(srv.URL+"/api/projects", "application/json", bytes.NewReader([]byte(`{"title":"x"}`)))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDeleteProjectRemovesFiles(t *testing.T) {
	srv, store, files, _ := setupServer(t)
	ctx := context.Background()

	productPath, err := files.Save([]byte("product"), "image/png")
	if err != nil {
		t.Fatalf("files.Save: %v", err)
	}
	p := &Project{ProductImage: productPath, ProductMime: "image/png"}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/projects/"+p.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	if _, err := files.Load(productPath); err == nil {
		t.Error("upload file should have been removed")
	}
}

func TestEditEndpointCreatesNewImage(t *testing.T) {
	srv, store, files, editor := setupServer(t)
	ctx := context.Background()

	renderPath, err := files.Save([]byte("original-render"), "image/png")
	if err != nil {
		t.Fatalf("files.Save: %v", err)
	}
	p := &Project{
		ProductImage: "prod.png",
		ProductMime:  "image/png",
		Images: []GeneratedImage{
			{Kind: KindScene, SceneID: "botanical", Status: "done", ImagePath: renderPath, MimeType: "image/png"},
		},
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	url := srv.URL + "/api/projects/" + p.ID + "/images/" + p.Images[0].ID + "/edit"
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(`{"instruction":"brighter lighting"}`)))
	if err != nil {
		t.Fatalf("POST edit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if editor.lastInstruction != "brighter lighting" {
		t.Errorf("editor instruction = %q", editor.lastInstruction)
	}

	var edited GeneratedImage
	if err := json.NewDecoder(resp.Body).Decode(&edited); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if edited.Kind != KindEdit || edited.Status != "done" {
		t.Errorf("unexpected edited record: %+v", edited)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Images) != 2 {
		t.Errorf("project images = %d, want original + edit", len(got.Images))
	}
}

func TestEditRejectsFailedImage(t *testing.T) {
	srv, store, _, _ := setupServer(t)
	ctx := context.Background()

	p := &Project{
		ProductImage: "prod.png",
		ProductMime:  "image/png",
		Images: []GeneratedImage{
			{Kind: KindScene, SceneID: "botanical", Status: "failed", Error: "boom"},
		},
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	url := srv.URL + "/api/projects/" + p.ID + "/images/" + p.Images[0].ID + "/edit"
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(`{"instruction":"fix"}`)))
	if err != nil {
		t.Fatalf("POST edit: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}
