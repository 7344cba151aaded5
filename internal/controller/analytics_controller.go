// internal/controller/analytics_controller.go
package controller

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/linkpulse-backend/internal/service"
)

// analyticsTimeout bounds read queries; aggregates fail closed rather
// than return partial numbers.
const analyticsTimeout = 15 * time.Second

type AnalyticsController struct {
	Analytics *service.AnalyticsService
}

// windowFromQuery builds the date window from start/end/tz query params.
func windowFromQuery(r *http.Request) (service.Window, error) {
	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return service.Window{}, err
		}
		loc = parsed
	}
	return service.NewWindow(r.URL.Query().Get("start"), r.URL.Query().Get("end"), loc)
}

func (c *AnalyticsController) CampaignSummary(w http.ResponseWriter, r *http.Request) {
	c.summary(w, r, c.Analytics.CampaignSummary)
}

func (c *AnalyticsController) AccountSummary(w http.ResponseWriter, r *http.Request) {
	c.summary(w, r, c.Analytics.AccountSummary)
}

func (c *AnalyticsController) TenantSummary(w http.ResponseWriter, r *http.Request) {
	c.summary(w, r, c.Analytics.TenantSummary)
}

func (c *AnalyticsController) summary(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int, service.Window) (*service.KPISummary, error)) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	window, err := windowFromQuery(r)
	if err != nil {
		http.Error(w, "invalid date window", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyticsTimeout)
	defer cancel()

	summary, err := fetch(ctx, id, window)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("summary id=%d %s", id, summary.Describe())
	json.NewEncoder(w).Encode(summary)
}

func (c *AnalyticsController) CampaignSeries(w http.ResponseWriter, r *http.Request) {
	c.series(w, r, c.Analytics.CampaignSeries)
}

func (c *AnalyticsController) AccountSeries(w http.ResponseWriter, r *http.Request) {
	c.series(w, r, c.Analytics.AccountSeries)
}

func (c *AnalyticsController) TenantSeries(w http.ResponseWriter, r *http.Request) {
	c.series(w, r, c.Analytics.TenantSeries)
}

func (c *AnalyticsController) series(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int, service.Window) ([]service.DayMetrics, error)) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	window, err := windowFromQuery(r)
	if err != nil {
		http.Error(w, "invalid date window", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyticsTimeout)
	defer cancel()

	rows, err := fetch(ctx, id, window)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"data": rows})
}

func (c *AnalyticsController) ContactStatus(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	externalID, err := strconv.ParseInt(chi.URLParam(r, "externalID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid contact id", http.StatusBadRequest)
		return
	}

	status, err := c.Analytics.ContactStatus(campaignID, externalID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_id": campaignID,
		"external_id": externalID,
		"status":      status,
	})
}
