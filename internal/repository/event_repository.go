package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/linkpulse-backend/internal/model"
)

// DayCount is one calendar-day bucket for a single metric.
type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD in the caller's timezone
	Count int    `json:"count"`
}

type EventRepositoryInterface interface {
	Insert(e *model.Event) error
	FindReply(campaignID, contactID int) (*model.Event, error)
	ListByContact(campaignID, contactID int) ([]model.Event, error)
	EarliestEventTime(campaignID int) (*time.Time, error)

	// Analytics reads. Each metric filters on its own timestamp column
	// only; ordinary rows populate just one of the three.
	CountInvited(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error)
	CountConnected(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error)
	CountFirstReplies(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error)
	InvitedByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]DayCount, error)
	ConnectedByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]DayCount, error)
	FirstRepliesByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]DayCount, error)
}

type EventRepository struct {
	DB *sql.DB
}

const eventColumns = `id, campaign_id, contact_id, kind, invited_at, connected_at, replied_at, conversation_status, raw_payload, created_at`

func (r *EventRepository) Insert(e *model.Event) error {
	e.CreatedAt = time.Now()
	query := `
        INSERT INTO events (campaign_id, contact_id, kind, invited_at, connected_at, replied_at, conversation_status, raw_payload, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		e.CampaignID, e.ContactID, e.Kind, e.InvitedAt, e.ConnectedAt, e.RepliedAt,
		e.ConversationStatus, e.RawPayload, e.CreatedAt,
	).Scan(&e.ID)
}

// FindReply returns an existing reply-received event for the contact, if
// any. Reply ingestion is idempotent per (campaign, contact).
func (r *EventRepository) FindReply(campaignID, contactID int) (*model.Event, error) {
	query := `
        SELECT ` + eventColumns + `
        FROM events
        WHERE campaign_id = $1 AND contact_id = $2 AND kind = $3
        ORDER BY id
        LIMIT 1
    `
	var e model.Event
	err := r.DB.QueryRow(query, campaignID, contactID, model.EventReplyReceived).Scan(
		&e.ID, &e.CampaignID, &e.ContactID, &e.Kind, &e.InvitedAt, &e.ConnectedAt,
		&e.RepliedAt, &e.ConversationStatus, &e.RawPayload, &e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) ListByContact(campaignID, contactID int) ([]model.Event, error) {
	query := `
        SELECT ` + eventColumns + `
        FROM events
        WHERE campaign_id = $1 AND contact_id = $2
        ORDER BY id
    `
	rows, err := r.DB.Query(query, campaignID, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.CampaignID, &e.ContactID, &e.Kind, &e.InvitedAt, &e.ConnectedAt,
			&e.RepliedAt, &e.ConversationStatus, &e.RawPayload, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// EarliestEventTime returns the minimum timestamp across all of a
// campaign's events, used to repair an invalid campaign start time.
func (r *EventRepository) EarliestEventTime(campaignID int) (*time.Time, error) {
	query := `
        SELECT LEAST(MIN(invited_at), MIN(connected_at), MIN(replied_at))
        FROM events
        WHERE campaign_id = $1
    `
	var earliest sql.NullTime
	if err := r.DB.QueryRow(query, campaignID).Scan(&earliest); err != nil {
		return nil, err
	}
	if !earliest.Valid {
		return nil, nil
	}
	return &earliest.Time, nil
}

// ====================== Analytics reads ======================

// windowClause appends bound conditions for one timestamp expression,
// continuing the $n numbering from argPos.
func windowClause(col string, from, to *time.Time, args []interface{}, argPos int) (string, []interface{}, int) {
	clause := ""
	if from != nil {
		clause += fmt.Sprintf(" AND %s >= $%d", col, argPos)
		args = append(args, *from)
		argPos++
	}
	if to != nil {
		clause += fmt.Sprintf(" AND %s <= $%d", col, argPos)
		args = append(args, *to)
		argPos++
	}
	return clause, args, argPos
}

func (r *EventRepository) countDistinct(ctx context.Context, col string, campaignIDs []int, from, to *time.Time) (int, error) {
	query := fmt.Sprintf(`
        SELECT COUNT(DISTINCT contact_id)
        FROM events
        WHERE campaign_id = ANY($1) AND %s IS NOT NULL`, col)
	args := []interface{}{pq.Array(campaignIDs)}
	clause, args, _ := windowClause(col, from, to, args, 2)
	query += clause

	var count int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EventRepository) CountInvited(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error) {
	return r.countDistinct(ctx, "invited_at", campaignIDs, from, to)
}

func (r *EventRepository) CountConnected(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error) {
	return r.countDistinct(ctx, "connected_at", campaignIDs, from, to)
}

// CountFirstReplies counts contacts whose first reply falls in the
// window. Repeat reply notifications never inflate the metric.
func (r *EventRepository) CountFirstReplies(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM (
            SELECT contact_id, MIN(replied_at) AS first_reply
            FROM events
            WHERE campaign_id = ANY($1) AND replied_at IS NOT NULL
            GROUP BY contact_id
        ) firsts
        WHERE 1=1`
	args := []interface{}{pq.Array(campaignIDs)}
	clause, args, _ := windowClause("first_reply", from, to, args, 2)
	query += clause

	var count int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EventRepository) InvitedByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]DayCount, error) {
	return r.bucketByDay(ctx, "invited_at", campaignIDs, tz, from, to)
}

func (r *EventRepository) ConnectedByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]DayCount, error) {
	return r.bucketByDay(ctx, "connected_at", campaignIDs, tz, from, to)
}

func (r *EventRepository) bucketByDay(ctx context.Context, col string, campaignIDs []int, tz string, from, to *time.Time) ([]DayCount, error) {
	query := fmt.Sprintf(`
        SELECT to_char(%s AT TIME ZONE $2, 'YYYY-MM-DD') AS day, COUNT(DISTINCT contact_id)
        FROM events
        WHERE campaign_id = ANY($1) AND %s IS NOT NULL`, col, col)
	args := []interface{}{pq.Array(campaignIDs), tz}
	clause, args, _ := windowClause(col, from, to, args, 3)
	query += clause + `
        GROUP BY day
        ORDER BY day`

	return r.queryDayCounts(ctx, query, args)
}

func (r *EventRepository) FirstRepliesByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]DayCount, error) {
	query := `
        SELECT to_char(first_reply AT TIME ZONE $2, 'YYYY-MM-DD') AS day, COUNT(*)
        FROM (
            SELECT contact_id, MIN(replied_at) AS first_reply
            FROM events
            WHERE campaign_id = ANY($1) AND replied_at IS NOT NULL
            GROUP BY contact_id
        ) firsts
        WHERE 1=1`
	args := []interface{}{pq.Array(campaignIDs), tz}
	clause, args, _ := windowClause("first_reply", from, to, args, 3)
	query += clause + `
        GROUP BY day
        ORDER BY day`

	return r.queryDayCounts(ctx, query, args)
}

func (r *EventRepository) queryDayCounts(ctx context.Context, query string, args []interface{}) ([]DayCount, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []DayCount{}
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

var _ EventRepositoryInterface = (*EventRepository)(nil)
