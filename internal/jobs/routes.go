package jobs

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts job endpoints under /api/jobs on the given router.
func RegisterRoutes(r chi.Router, registry *Registry) {
	r.Route("/api/jobs", func(r chi.Router) {
		r.Get("/{id}", handleGet(registry))
		r.Get("/{id}/ws", handleWatch(registry))
	})
}

func handleGet(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := registry.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	}
}

// handleWatch streams job snapshots over a websocket until the job reaches
// a terminal state or the client disconnects.
func handleWatch(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := registry.Get(id); !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("jobs: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		updates, cancel := registry.Subscribe(id)
		defer cancel()

		// Drain client reads so close frames are processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		for snap := range updates {
			if err := conn.WriteJSON(snap); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("jobs: websocket write: %v", err)
				}
				return
			}
		}

		// Channel closed: send the final state before hanging up.
		if snap, ok := registry.Get(id); ok {
			_ = conn.WriteJSON(snap)
		}
	}
}
