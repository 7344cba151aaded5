package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/linkpulse-backend/internal/model"
)

type ContactRepositoryInterface interface {
	GetByExternalID(campaignID int, externalID int64) (*model.Contact, error)
	Insert(c *model.Contact) error
	Update(c *model.Contact) error
}

type ContactRepository struct {
	DB *sql.DB
}

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Concurrent inserts on (campaign_id, external_id) surface
// here and are retried as an update, never silently duplicated.
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

func (r *ContactRepository) GetByExternalID(campaignID int, externalID int64) (*model.Contact, error) {
	query := `
        SELECT id, campaign_id, external_id, name, company, title, email, phone, created_at, updated_at
        FROM contacts
        WHERE campaign_id = $1 AND external_id = $2
    `
	var c model.Contact
	err := r.DB.QueryRow(query, campaignID, externalID).Scan(
		&c.ID, &c.CampaignID, &c.ExternalID, &c.Name, &c.Company,
		&c.Title, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) Insert(c *model.Contact) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
        INSERT INTO contacts (campaign_id, external_id, name, company, title, email, phone, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		c.CampaignID, c.ExternalID, c.Name, c.Company, c.Title, c.Email, c.Phone,
		c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *ContactRepository) Update(c *model.Contact) error {
	c.UpdatedAt = time.Now()
	query := `
        UPDATE contacts
        SET name=$1, company=$2, title=$3, email=$4, phone=$5, updated_at=$6
        WHERE id=$7
    `
	_, err := r.DB.Exec(query, c.Name, c.Company, c.Title, c.Email, c.Phone, c.UpdatedAt, c.ID)
	return err
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
