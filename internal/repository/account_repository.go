package repository

import (
	"database/sql"

	"github.com/unclebandit/linkpulse-backend/internal/model"
)

// AccountRepositoryInterface defines methods used by services
type AccountRepositoryInterface interface {
	GetByRoutingKey(key string) (*model.Account, error)
	GetByID(id int) (*model.Account, error)
	ListByTenant(tenantID int) ([]model.Account, error)
}

// AccountRepository is the concrete implementation
type AccountRepository struct {
	DB *sql.DB
}

// GetByRoutingKey fetches the account a webhook call routes to. Accounts
// are pre-provisioned; a miss here is the caller's UnknownAccount case.
func (r *AccountRepository) GetByRoutingKey(key string) (*model.Account, error) {
	query := `
        SELECT id, tenant_id, name, routing_key, created_at
        FROM accounts
        WHERE routing_key = $1
    `
	row := r.DB.QueryRow(query, key)

	var a model.Account
	if err := row.Scan(&a.ID, &a.TenantID, &a.Name, &a.RoutingKey, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &a, nil
}

// GetByID fetches an account by ID
func (r *AccountRepository) GetByID(id int) (*model.Account, error) {
	query := `
        SELECT id, tenant_id, name, routing_key, created_at
        FROM accounts
        WHERE id = $1
    `
	var a model.Account
	err := r.DB.QueryRow(query, id).Scan(&a.ID, &a.TenantID, &a.Name, &a.RoutingKey, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListByTenant fetches all accounts owned by a tenant (used to build the
// tenant analytics scope)
func (r *AccountRepository) ListByTenant(tenantID int) ([]model.Account, error) {
	query := `
        SELECT id, tenant_id, name, routing_key, created_at
        FROM accounts
        WHERE tenant_id = $1
    `
	rows, err := r.DB.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.RoutingKey, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

var _ AccountRepositoryInterface = (*AccountRepository)(nil)
