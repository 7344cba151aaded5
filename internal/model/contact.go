// internal/model/contact.go
package model

import "time"

// Contact is one recipient within one campaign. Identity is the composite
// (ExternalID, CampaignID); the same person legitimately has one row per
// campaign. Fields merge on upsert, new non-empty value wins.
type Contact struct {
	ID         int       `db:"id" json:"id"`
	CampaignID int       `db:"campaign_id" json:"campaign_id"`
	ExternalID int64     `db:"external_id" json:"external_id"`
	Name       string    `db:"name" json:"name"`
	Company    string    `db:"company" json:"company"`
	Title      string    `db:"title" json:"title"`
	Email      string    `db:"email" json:"email"`
	Phone      string    `db:"phone" json:"phone"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
