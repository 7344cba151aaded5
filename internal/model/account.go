// internal/model/account.go
package model

import "time"

// Account is one automation seat. Webhook traffic is routed to it by
// RoutingKey, the only credential a webhook call carries. Accounts are
// provisioned by an operator; ingestion never creates them.
type Account struct {
	ID         int       `db:"id" json:"id"`
	TenantID   *int      `db:"tenant_id" json:"tenant_id,omitempty"`
	Name       string    `db:"name" json:"name"`
	RoutingKey string    `db:"routing_key" json:"routing_key"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
