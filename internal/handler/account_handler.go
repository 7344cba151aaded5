// internal/handler/account_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/linkpulse-backend/internal/repository"
)

type AccountHandler struct {
	Repo repository.AccountRepositoryInterface
}

// ListByTenant returns a tenant's provisioned accounts.
func (h *AccountHandler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid tenant id", http.StatusBadRequest)
		return
	}

	accounts, err := h.Repo.ListByTenant(tenantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"data": accounts})
}
