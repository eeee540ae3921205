package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gemstage/gemstage/internal/assets"
)

// RegisterRoutes mounts settings endpoints under /api/settings.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/logo", handleGetLogo(store))
		r.Put("/logo", handleSetLogo(store))
		r.Delete("/logo", handleDeleteLogo(store))
	})
}

type logoBody struct {
	Logo string `json:"logo"`
}

func handleGetLogo(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logo, err := store.PreferredLogo(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(logoBody{Logo: logo})
	}
}

func handleSetLogo(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body logoBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if body.Logo == "" {
			http.Error(w, "logo is required", http.StatusBadRequest)
			return
		}
		if _, _, err := assets.ParseDataURI(body.Logo); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := store.SetPreferredLogo(r.Context(), body.Logo); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeleteLogo(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), PreferredLogoKey); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
