package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/linkpulse-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	GetByToken(token string) (*model.Campaign, error)
	GetByName(accountID int, name string) (*model.Campaign, error)
	GetByID(id int) (*model.Campaign, error)
	Create(c *model.Campaign) error
	AttachToken(campaignID int, token string) error
	UpdateStartedAt(campaignID int, startedAt time.Time) error
	ListIDsByAccount(accountID int) ([]int, error)
	ListIDsByTenant(tenantID int) ([]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, account_id, instance_token, known_tokens, name, started_at, created_at`

func scanCampaign(row *sql.Row) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.AccountID, &c.InstanceToken, pq.Array(&c.KnownTokens), &c.Name, &c.StartedAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetByToken matches the primary instance token or any token previously
// merged onto the campaign.
func (r *CampaignRepository) GetByToken(token string) (*model.Campaign, error) {
	query := `
        SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE instance_token = $1 OR $1 = ANY(known_tokens)
    `
	return scanCampaign(r.DB.QueryRow(query, token))
}

// GetByName matches by (account, derived campaign name). Names are not
// unique globally, only looked up within one account.
func (r *CampaignRepository) GetByName(accountID int, name string) (*model.Campaign, error) {
	query := `
        SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE account_id = $1 AND name = $2
        ORDER BY id
        LIMIT 1
    `
	return scanCampaign(r.DB.QueryRow(query, accountID, name))
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE id = $1
    `
	return scanCampaign(r.DB.QueryRow(query, id))
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.KnownTokens == nil {
		c.KnownTokens = []string{}
	}
	query := `
        INSERT INTO campaigns (account_id, instance_token, known_tokens, name, started_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.AccountID, c.InstanceToken, pq.Array(c.KnownTokens), c.Name, c.StartedAt, c.CreatedAt).Scan(&c.ID)
}

// AttachToken records an additional instance token that resolved to this
// campaign by derived name.
func (r *CampaignRepository) AttachToken(campaignID int, token string) error {
	query := `
        UPDATE campaigns
        SET known_tokens = array_append(known_tokens, $1)
        WHERE id = $2 AND NOT ($1 = ANY(known_tokens)) AND instance_token <> $1
    `
	_, err := r.DB.Exec(query, token, campaignID)
	return err
}

func (r *CampaignRepository) UpdateStartedAt(campaignID int, startedAt time.Time) error {
	query := `UPDATE campaigns SET started_at=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, startedAt, campaignID)
	return err
}

func (r *CampaignRepository) ListIDsByAccount(accountID int) ([]int, error) {
	return r.listIDs(`SELECT id FROM campaigns WHERE account_id = $1`, accountID)
}

func (r *CampaignRepository) ListIDsByTenant(tenantID int) ([]int, error) {
	query := `
        SELECT c.id
        FROM campaigns c
        JOIN accounts a ON a.id = c.account_id
        WHERE a.tenant_id = $1
    `
	return r.listIDs(query, tenantID)
}

func (r *CampaignRepository) listIDs(query string, arg any) ([]int, error) {
	rows, err := r.DB.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
