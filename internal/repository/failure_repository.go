package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/linkpulse-backend/internal/model"
)

type FailureRepositoryInterface interface {
	CreateArchive(a *model.FailureArchive) error
	CreateNotification(n *model.Notification) error
	ListArchives(severity string, unresolvedOnly bool) ([]model.FailureArchive, error)
	ListNotifications(severity string, unresolvedOnly bool) ([]model.Notification, error)
	ResolveArchives(ids []int) (int64, error)
	ResolveNotifications(ids []int) (int64, error)
	DeleteArchive(id int) error
	PurgeOlderThan(cutoff time.Time) (int64, error)
}

type FailureRepository struct {
	DB *sql.DB
}

func (r *FailureRepository) CreateArchive(a *model.FailureArchive) error {
	a.CreatedAt = time.Now()
	query := `
        INSERT INTO failure_archives
        (correlation_id, payload, error_text, retry_count, contact_external_id, instance_token, severity, resolved, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		a.CorrelationID, a.Payload, a.ErrorText, a.RetryCount,
		a.ContactExternalID, a.InstanceToken, a.Severity, a.CreatedAt,
	).Scan(&a.ID)
}

func (r *FailureRepository) CreateNotification(n *model.Notification) error {
	n.CreatedAt = time.Now()
	query := `
        INSERT INTO notifications (correlation_id, severity, message, resolved, created_at)
        VALUES ($1, $2, $3, false, $4)
        RETURNING id
    `
	return r.DB.QueryRow(query, n.CorrelationID, n.Severity, n.Message, n.CreatedAt).Scan(&n.ID)
}

func (r *FailureRepository) ListArchives(severity string, unresolvedOnly bool) ([]model.FailureArchive, error) {
	query := `
        SELECT id, correlation_id, payload, error_text, retry_count, contact_external_id, instance_token, severity, resolved, resolved_at, created_at
        FROM failure_archives WHERE 1=1`
	args := []interface{}{}
	if severity != "" {
		query += ` AND severity = $1`
		args = append(args, severity)
	}
	if unresolvedOnly {
		query += ` AND resolved = false`
	}
	query += ` ORDER BY id DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	archives := []model.FailureArchive{}
	for rows.Next() {
		var a model.FailureArchive
		if err := rows.Scan(
			&a.ID, &a.CorrelationID, &a.Payload, &a.ErrorText, &a.RetryCount,
			&a.ContactExternalID, &a.InstanceToken, &a.Severity, &a.Resolved,
			&a.ResolvedAt, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		archives = append(archives, a)
	}
	return archives, rows.Err()
}

func (r *FailureRepository) ListNotifications(severity string, unresolvedOnly bool) ([]model.Notification, error) {
	query := `
        SELECT id, correlation_id, severity, message, resolved, resolved_at, created_at
        FROM notifications WHERE 1=1`
	args := []interface{}{}
	if severity != "" {
		query += ` AND severity = $1`
		args = append(args, severity)
	}
	if unresolvedOnly {
		query += ` AND resolved = false`
	}
	query += ` ORDER BY id DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.CorrelationID, &n.Severity, &n.Message, &n.Resolved, &n.ResolvedAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *FailureRepository) ResolveArchives(ids []int) (int64, error) {
	query := `UPDATE failure_archives SET resolved=true, resolved_at=NOW() WHERE id = ANY($1) AND resolved = false`
	res, err := r.DB.Exec(query, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *FailureRepository) ResolveNotifications(ids []int) (int64, error) {
	query := `UPDATE notifications SET resolved=true, resolved_at=NOW() WHERE id = ANY($1) AND resolved = false`
	res, err := r.DB.Exec(query, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *FailureRepository) DeleteArchive(id int) error {
	_, err := r.DB.Exec(`DELETE FROM failure_archives WHERE id=$1`, id)
	return err
}

// PurgeOlderThan deletes resolved archives and notifications created
// before the cutoff. Unresolved records are kept regardless of age.
func (r *FailureRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.DB.Exec(`DELETE FROM failure_archives WHERE resolved = true AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	archived, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = r.DB.Exec(`DELETE FROM notifications WHERE resolved = true AND created_at < $1`, cutoff)
	if err != nil {
		return archived, err
	}
	notified, err := res.RowsAffected()
	if err != nil {
		return archived, err
	}
	return archived + notified, nil
}

var _ FailureRepositoryInterface = (*FailureRepository)(nil)
