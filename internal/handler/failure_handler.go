// internal/handler/failure_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/linkpulse-backend/internal/repository"
)

// FailureHandler exposes the operator tooling over failure archives and
// notifications. These records are immutable except through resolve,
// delete, and age-based purge.
type FailureHandler struct {
	Repo repository.FailureRepositoryInterface
}

func (h *FailureHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	severity := r.URL.Query().Get("severity")
	unresolvedOnly := r.URL.Query().Get("unresolved") == "true"

	archives, err := h.Repo.ListArchives(severity, unresolvedOnly)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"data": archives})
}

func (h *FailureHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	severity := r.URL.Query().Get("severity")
	unresolvedOnly := r.URL.Query().Get("unresolved") == "true"

	notifications, err := h.Repo.ListNotifications(severity, unresolvedOnly)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"data": notifications})
}

// ResolveArchives marks archives resolved, single or bulk.
func (h *FailureHandler) ResolveArchives(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.Repo.ResolveArchives)
}

func (h *FailureHandler) ResolveNotifications(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.Repo.ResolveNotifications)
}

func (h *FailureHandler) resolve(w http.ResponseWriter, r *http.Request, apply func(ids []int) (int64, error)) {
	var body struct {
		IDs []int `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) == 0 {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	resolved, err := apply(body.IDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"resolved": resolved})
}

func (h *FailureHandler) DeleteArchive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.Repo.DeleteArchive(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Purge deletes resolved records older than the requested age in days.
func (h *FailureHandler) Purge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OlderThanDays int `json:"older_than_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OlderThanDays < 1 {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	cutoff := time.Now().AddDate(0, 0, -body.OlderThanDays)
	purged, err := h.Repo.PurgeOlderThan(cutoff)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"purged": purged})
}
