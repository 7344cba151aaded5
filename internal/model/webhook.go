// internal/model/webhook.go
package model

import "time"

// MaxPayloadBytes is the inbound body ceiling. Larger deliveries are
// rejected outright and never archived with their payload.
const MaxPayloadBytes = 50_000

// WebhookPayload is the decoded body of one inbound delivery. The routing
// key travels separately in the request path.
type WebhookPayload struct {
	Hook      HookBlock      `json:"hook"`
	Contact   ContactBlock   `json:"contact"`
	Messenger MessengerBlock `json:"messenger"`
}

// HookBlock carries the automation tool's own event metadata.
type HookBlock struct {
	EventName string     `json:"event_name"`
	FiredAt   *time.Time `json:"fired_at"`
}

// ContactBlock identifies the recipient the event is about.
type ContactBlock struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Title   string `json:"title"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// MessengerBlock ties the event to a campaign run and carries the
// tool-side progression timestamps when it supplies them.
type MessengerBlock struct {
	AccountID          string     `json:"account_id"`
	CampaignInstanceID string     `json:"campaign_instance_id"`
	InvitedAt          *time.Time `json:"invited_at,omitempty"`
	ConnectedAt        *time.Time `json:"connected_at,omitempty"`
	RepliedAt          *time.Time `json:"replied_at,omitempty"`
	ConversationStatus string     `json:"conversation_status,omitempty"`
}

// FiredTime returns the hook's fired timestamp, or now if the tool did
// not send one.
func (p *WebhookPayload) FiredTime() time.Time {
	if p.Hook.FiredAt != nil && !p.Hook.FiredAt.IsZero() {
		return *p.Hook.FiredAt
	}
	return time.Now()
}
