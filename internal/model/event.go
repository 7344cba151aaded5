// internal/model/event.go
package model

import "time"

// EventKind is the closed set of progression facts the pipeline records.
type EventKind string

const (
	EventInviteSent         EventKind = "invite_sent"
	EventConnectionAccepted EventKind = "connection_accepted"
	EventReplyReceived      EventKind = "reply_received"
	EventUnknown            EventKind = "unknown"
)

// Event is one immutable fact about a Contact's progression. Under normal
// ingestion at most one of the three typed timestamps is populated,
// matching Kind. Rows are never updated by the pipeline; a contact's
// progression status is derived from its full Event set.
type Event struct {
	ID                 int64      `db:"id" json:"id"`
	CampaignID         int        `db:"campaign_id" json:"campaign_id"`
	ContactID          int        `db:"contact_id" json:"contact_id"`
	Kind               EventKind  `db:"kind" json:"kind"`
	InvitedAt          *time.Time `db:"invited_at" json:"invited_at,omitempty"`
	ConnectedAt        *time.Time `db:"connected_at" json:"connected_at,omitempty"`
	RepliedAt          *time.Time `db:"replied_at" json:"replied_at,omitempty"`
	ConversationStatus string     `db:"conversation_status" json:"conversation_status,omitempty"`
	RawPayload         []byte     `db:"raw_payload" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}
