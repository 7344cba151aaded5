// internal/service/analytics_service.go
package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/unclebandit/linkpulse-backend/internal/model"
	"github.com/unclebandit/linkpulse-backend/internal/repository"
)

// Progression statuses, the monotonic four-state ladder a contact climbs.
const (
	StatusNotInvited        = "Not Invited"
	StatusPendingConnection = "Pending Connection"
	StatusAwaitingReply     = "Awaiting Reply"
	StatusReplied           = "Replied"
)

// AnalyticsService derives KPIs and progression state from the event
// log. Read-only: it holds no locks and tolerates concurrent appends.
type AnalyticsService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	EventRepo    repository.EventRepositoryInterface
}

// KPISummary is the five-field aggregate for one scope and window.
type KPISummary struct {
	Invites        int     `json:"invites"`
	Connections    int     `json:"connections"`
	Replies        int     `json:"replies"`
	ConnectionRate float64 `json:"connection_rate"`
	ResponseRate   float64 `json:"response_rate"`
}

// DayMetrics is one calendar-day row of the time series.
type DayMetrics struct {
	Day         string `json:"day"`
	Invites     int    `json:"invites"`
	Connections int    `json:"connections"`
	Replies     int    `json:"replies"`
}

// ====================== Scopes ======================

func (s *AnalyticsService) CampaignSummary(ctx context.Context, campaignID int, w Window) (*KPISummary, error) {
	return s.summarize(ctx, []int{campaignID}, w)
}

func (s *AnalyticsService) AccountSummary(ctx context.Context, accountID int, w Window) (*KPISummary, error) {
	ids, err := s.CampaignRepo.ListIDsByAccount(accountID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, ids, w)
}

func (s *AnalyticsService) TenantSummary(ctx context.Context, tenantID int, w Window) (*KPISummary, error) {
	ids, err := s.CampaignRepo.ListIDsByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, ids, w)
}

func (s *AnalyticsService) CampaignSeries(ctx context.Context, campaignID int, w Window) ([]DayMetrics, error) {
	return s.series(ctx, []int{campaignID}, w)
}

func (s *AnalyticsService) AccountSeries(ctx context.Context, accountID int, w Window) ([]DayMetrics, error) {
	ids, err := s.CampaignRepo.ListIDsByAccount(accountID)
	if err != nil {
		return nil, err
	}
	return s.series(ctx, ids, w)
}

func (s *AnalyticsService) TenantSeries(ctx context.Context, tenantID int, w Window) ([]DayMetrics, error) {
	ids, err := s.CampaignRepo.ListIDsByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	return s.series(ctx, ids, w)
}

// ====================== Aggregates ======================

// summarize counts distinct invited and connected contacts and
// first-reply contacts inside the window, each on its own timestamp
// column. Errors fail the whole summary; no partial aggregates.
func (s *AnalyticsService) summarize(ctx context.Context, campaignIDs []int, w Window) (*KPISummary, error) {
	if len(campaignIDs) == 0 {
		return &KPISummary{}, nil
	}

	invites, err := s.EventRepo.CountInvited(ctx, campaignIDs, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	connections, err := s.EventRepo.CountConnected(ctx, campaignIDs, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	replies, err := s.EventRepo.CountFirstReplies(ctx, campaignIDs, w.Start, w.End)
	if err != nil {
		return nil, err
	}

	return &KPISummary{
		Invites:        invites,
		Connections:    connections,
		Replies:        replies,
		ConnectionRate: rate(connections, invites),
		ResponseRate:   rate(replies, connections),
	}, nil
}

// rate is a percentage rounded to one decimal, 0 on a zero denominator.
func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*1000) / 10
}

// series buckets each metric by calendar day. A closed window emits one
// row per day, zero-filling gaps; an open window emits active days only.
func (s *AnalyticsService) series(ctx context.Context, campaignIDs []int, w Window) ([]DayMetrics, error) {
	byDay := map[string]*DayMetrics{}
	touch := func(day string) *DayMetrics {
		if m, ok := byDay[day]; ok {
			return m
		}
		m := &DayMetrics{Day: day}
		byDay[day] = m
		return m
	}

	if len(campaignIDs) > 0 {
		tz := w.Timezone()

		invited, err := s.EventRepo.InvitedByDay(ctx, campaignIDs, tz, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		for _, dc := range invited {
			touch(dc.Day).Invites = dc.Count
		}

		connected, err := s.EventRepo.ConnectedByDay(ctx, campaignIDs, tz, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		for _, dc := range connected {
			touch(dc.Day).Connections = dc.Count
		}

		replied, err := s.EventRepo.FirstRepliesByDay(ctx, campaignIDs, tz, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		for _, dc := range replied {
			touch(dc.Day).Replies = dc.Count
		}
	}

	if w.Closed() {
		rows := []DayMetrics{}
		for _, day := range w.Days() {
			if m, ok := byDay[day]; ok {
				rows = append(rows, *m)
			} else {
				rows = append(rows, DayMetrics{Day: day})
			}
		}
		return rows, nil
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	rows := make([]DayMetrics, 0, len(days))
	for _, day := range days {
		rows = append(rows, *byDay[day])
	}
	return rows, nil
}

// ====================== Progression ======================

// ContactStatus derives the contact's progression label from its full
// event set. The contact is addressed by its external id, the identity
// webhook callers know.
func (s *AnalyticsService) ContactStatus(campaignID int, externalID int64) (string, error) {
	contact, err := s.ContactRepo.GetByExternalID(campaignID, externalID)
	if err != nil {
		return "", err
	}
	if contact == nil {
		return StatusNotInvited, nil
	}
	events, err := s.EventRepo.ListByContact(campaignID, contact.ID)
	if err != nil {
		return "", err
	}
	return ProgressionStatus(events), nil
}

// ProgressionStatus is a pure function of the event set. The ladder is
// monotonic: appends can only hold or raise the status, never lower it.
// Replies are recognized by kind, timestamp, or conversation-status
// label so that timestamp-less imported history still counts.
func ProgressionStatus(events []model.Event) string {
	invited, connected := false, false
	for _, e := range events {
		if e.Kind == model.EventReplyReceived || e.RepliedAt != nil || isReplyLabel(e.ConversationStatus) {
			return StatusReplied
		}
		if e.Kind == model.EventConnectionAccepted || e.ConnectedAt != nil {
			connected = true
		}
		if e.Kind == model.EventInviteSent || e.InvitedAt != nil {
			invited = true
		}
	}
	switch {
	case connected:
		return StatusAwaitingReply
	case invited:
		return StatusPendingConnection
	default:
		return StatusNotInvited
	}
}

func isReplyLabel(status string) bool {
	return strings.Contains(strings.ToLower(status), "repl")
}

// Describe renders the summary for logs and exports.
func (k *KPISummary) Describe() string {
	return fmt.Sprintf("invites=%d connections=%d replies=%d connection_rate=%.1f response_rate=%.1f",
		k.Invites, k.Connections, k.Replies, k.ConnectionRate, k.ResponseRate)
}
