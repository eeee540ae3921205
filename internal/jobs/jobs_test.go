package jobs

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func twoScenes() []SceneState {
	return []SceneState{
		{SceneID: "marble-pedestal", Label: "Marble pedestal", Status: "pending"},
		{SceneID: "silk-drape", Label: "Silk drape", Status: "pending"},
	}
}

func TestCreateAndGet(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(twoScenes())

	if snap.ID == "" {
		t.Fatal("job id missing")
	}
	if snap.State != StateRunning || snap.Total != 2 || snap.Done != 0 {
		t.Errorf("unexpected initial snapshot: %+v", snap)
	}

	got, ok := reg.Get(snap.ID)
	if !ok {
		t.Fatal("Get: not found")
	}
	if got.Scenes[1].SceneID != "silk-drape" {
		t.Errorf("scenes not preserved: %+v", got.Scenes)
	}

	if _, ok := reg.Get("missing"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestUpdateSceneAndFinish(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(twoScenes())

	reg.UpdateScene(snap.ID, 0, SceneState{SceneID: "marble-pedestal", Label: "Marble pedestal", Status: "done", ImageID: "img-1"})
	got, _ := reg.Get(snap.ID)
	if got.Done != 1 || got.Scenes[0].Status != "done" || got.Scenes[0].ImageID != "img-1" {
		t.Errorf("update not applied: %+v", got)
	}

	reg.SetProject(snap.ID, "proj-9")
	reg.Finish(snap.ID, nil)

	got, _ = reg.Get(snap.ID)
	if got.State != StateDone {
		t.Errorf("State = %q, want done", got.State)
	}
	if got.ProjectID != "proj-9" {
		t.Errorf("ProjectID = %q", got.ProjectID)
	}
}

func TestFinishWithError(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(twoScenes())
	reg.Finish(snap.ID, errors.New("provider down"))

	got, _ := reg.Get(snap.ID)
	if got.State != StateFailed || got.Error != "provider down" {
		t.Errorf("unexpected terminal snapshot: %+v", got)
	}
}

func TestSubscribeReceivesUpdatesAndCloses(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(twoScenes())

	ch, cancel := reg.Subscribe(snap.ID)
	defer cancel()

	// First snapshot arrives immediately.
	select {
	case first := <-ch:
		if first.Done != 0 {
			t.Errorf("first snapshot done = %d", first.Done)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	reg.UpdateScene(snap.ID, 0, SceneState{SceneID: "marble-pedestal", Status: "done"})
	select {
	case upd := <-ch:
		if upd.Done != 1 {
			t.Errorf("update done = %d, want 1", upd.Done)
		}
	case <-time.After(time.Second):
		t.Fatal("no update snapshot")
	}

	reg.Finish(snap.ID, nil)

	// Drain until close; the final snapshot should be terminal.
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("channel never closed after Finish")
		}
	}
}

func TestSubscribeFinishedJob(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(twoScenes())
	reg.Finish(snap.ID, nil)

	ch, cancel := reg.Subscribe(snap.ID)
	defer cancel()

	final, open := <-ch
	if !open {
		t.Fatal("expected one final snapshot")
	}
	if final.State != StateDone {
		t.Errorf("State = %q", final.State)
	}
	if _, open := <-ch; open {
		t.Error("channel should be closed after final snapshot")
	}
}

func TestFinishedJobsAreEvicted(t *testing.T) {
	r := NewRegistry()

	old := r.Create([]SceneState{{SceneID: "marble-pedestal"}})
	r.Finish(old.ID, nil)

	fresh := r.Create([]SceneState{{SceneID: "silk-drape"}})
	r.Finish(fresh.ID, nil)

	// Age the first job past retention; the next Create sweeps it.
	r.mu.Lock()
	r.jobs[old.ID].finishedAt = time.Now().Add(-2 * finishedJobTTL)
	r.mu.Unlock()

	r.Create([]SceneState{{SceneID: "botanical"}})

	if _, ok := r.Get(old.ID); ok {
		t.Error("expected aged finished job to be evicted")
	}
	if _, ok := r.Get(fresh.ID); !ok {
		t.Error("recently finished job should remain queryable")
	}
}

func TestJobHTTPEndpoint(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(twoScenes())

	r := chi.NewRouter()
	RegisterRoutes(r, reg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs/" + snap.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != snap.ID || got.Total != 2 {
		t.Errorf("unexpected body: %+v", got)
	}

	missing, err := http.Get(srv.URL + "/api/jobs/nope")
	if err != nil {
		t.Fatalf("GET missing: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", missing.StatusCode)
	}
}
