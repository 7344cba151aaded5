// internal/controller/webhook_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/linkpulse-backend/internal/errors"
	"github.com/unclebandit/linkpulse-backend/internal/model"
	"github.com/unclebandit/linkpulse-backend/internal/service"
)

type WebhookController struct {
	Fault *service.FaultService
}

// Receive handles POST /hooks/{routingKey}. Terminal failures return a
// non-2xx status so the sender's own redelivery kicks in.
func (c *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	routingKey := chi.URLParam(r, "routingKey")

	r.Body = http.MaxBytesReader(w, r.Body, model.MaxPayloadBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var payload model.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	resolved, err := c.Fault.ProcessDelivery(routingKey, raw, &payload)
	if err != nil {
		log.Println("⚠️ webhook delivery failed:", err)
		http.Error(w, err.Error(), failureStatus(err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"event_id":    resolved.Event.ID,
		"kind":        resolved.Event.Kind,
		"campaign_id": resolved.Campaign.ID,
		"contact_id":  resolved.Contact.ID,
	})
}

func failureStatus(err error) int {
	var unknownAccount *appErrors.ErrUnknownAccount
	var missingField *appErrors.ErrMissingField
	var tooLarge *appErrors.ErrPayloadTooLarge

	switch {
	case errors.As(err, &unknownAccount):
		return http.StatusNotFound
	case errors.As(err, &missingField):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
