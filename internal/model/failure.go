// internal/model/failure.go
package model

import "time"

// Severity levels assigned to terminal ingestion failures.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityError    = "error"
)

// FailureArchive preserves a webhook delivery that exhausted the retry
// budget: the original payload, the final error, and best-effort
// identifiers extracted from the body. Immutable except for resolve and
// age-based cleanup.
type FailureArchive struct {
	ID                int        `db:"id" json:"id"`
	CorrelationID     string     `db:"correlation_id" json:"correlation_id"`
	Payload           []byte     `db:"payload" json:"payload,omitempty"`
	ErrorText         string     `db:"error_text" json:"error_text"`
	RetryCount        int        `db:"retry_count" json:"retry_count"`
	ContactExternalID string     `db:"contact_external_id" json:"contact_external_id,omitempty"`
	InstanceToken     string     `db:"instance_token" json:"instance_token,omitempty"`
	Severity          string     `db:"severity" json:"severity"`
	Resolved          bool       `db:"resolved" json:"resolved"`
	ResolvedAt        *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// Notification is the operator-facing alert raised alongside a
// FailureArchive, linked by CorrelationID.
type Notification struct {
	ID            int        `db:"id" json:"id"`
	CorrelationID string     `db:"correlation_id" json:"correlation_id"`
	Severity      string     `db:"severity" json:"severity"`
	Message       string     `db:"message" json:"message"`
	Resolved      bool       `db:"resolved" json:"resolved"`
	ResolvedAt    *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
