// internal/model/campaign.go
package model

import "time"

// Campaign is one outreach run under an Account. InstanceToken is the
// opaque identifier the automation tool sends; KnownTokens collects
// additional tokens that resolved to the same logical campaign by
// derived name. StartedAt, once valid, is never regressed.
type Campaign struct {
	ID            int        `db:"id" json:"id"`
	AccountID     int        `db:"account_id" json:"account_id"`
	InstanceToken string     `db:"instance_token" json:"instance_token"`
	KnownTokens   []string   `db:"known_tokens" json:"known_tokens,omitempty"`
	Name          string     `db:"name" json:"name"`
	StartedAt     *time.Time `db:"started_at" json:"started_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
