// internal/service/resolver_service.go
package service

import (
	"log"
	"time"

	"github.com/unclebandit/linkpulse-backend/internal/broadcast"
	appErrors "github.com/unclebandit/linkpulse-backend/internal/errors"
	"github.com/unclebandit/linkpulse-backend/internal/model"
	"github.com/unclebandit/linkpulse-backend/internal/repository"
)

// ResolverService turns one decoded webhook delivery into the entity
// tuple it references, appending exactly one event (or returning the
// existing one for duplicate replies).
type ResolverService struct {
	AccountRepo  repository.AccountRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	EventRepo    repository.EventRepositoryInterface
	Broadcast    broadcast.Publisher
}

// ResolvedDelivery is the outcome of one successful resolution.
type ResolvedDelivery struct {
	Account  *model.Account  `json:"account"`
	Campaign *model.Campaign `json:"campaign"`
	Contact  *model.Contact  `json:"contact"`
	Event    *model.Event    `json:"event"`
}

func (s *ResolverService) Resolve(routingKey string, raw []byte, payload *model.WebhookPayload) (*ResolvedDelivery, error) {
	if len(raw) > model.MaxPayloadBytes {
		return nil, appErrors.NewPayloadTooLarge(len(raw), model.MaxPayloadBytes)
	}
	if payload.Contact.ID == 0 {
		return nil, appErrors.NewMissingField("contact.id")
	}
	if payload.Messenger.CampaignInstanceID == "" {
		return nil, appErrors.NewMissingField("messenger.campaign_instance_id")
	}
	if payload.Messenger.AccountID == "" {
		return nil, appErrors.NewMissingField("messenger.account_id")
	}

	account, err := s.AccountRepo.GetByRoutingKey(routingKey)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, appErrors.NewUnknownAccount(routingKey)
	}

	campaign, err := s.resolveCampaign(account, payload)
	if err != nil {
		return nil, err
	}

	contact, err := s.resolveContact(campaign, payload)
	if err != nil {
		return nil, err
	}

	event, appended, err := s.appendEvent(campaign, contact, raw, payload)
	if err != nil {
		return nil, err
	}

	if appended && s.Broadcast != nil {
		env := broadcast.Envelope{
			AccountID:  account.ID,
			CampaignID: campaign.ID,
			ContactID:  contact.ID,
			EventID:    event.ID,
			Kind:       string(event.Kind),
			OccurredAt: payload.FiredTime(),
		}
		if err := s.Broadcast.Publish(broadcast.TopicResolvedEvents, env); err != nil {
			log.Println("⚠️ failed to broadcast resolved event:", err)
		}
	}

	return &ResolvedDelivery{
		Account:  account,
		Campaign: campaign,
		Contact:  contact,
		Event:    event,
	}, nil
}

// resolveCampaign looks up by exact token, then by (account, derived
// name) with token merge, then creates. It also enforces the start-time
// policy: a valid start time is never regressed, an invalid one is
// repaired to the earliest event time (or the incoming fired time).
func (s *ResolverService) resolveCampaign(account *model.Account, payload *model.WebhookPayload) (*model.Campaign, error) {
	rawToken := payload.Messenger.CampaignInstanceID
	fired := payload.FiredTime()

	campaign, err := s.CampaignRepo.GetByToken(rawToken)
	if err != nil {
		return nil, err
	}

	if campaign == nil {
		token := ParseInstanceToken(rawToken)
		name := token.CampaignName()

		campaign, err = s.CampaignRepo.GetByName(account.ID, name)
		if err != nil {
			return nil, err
		}
		if campaign != nil {
			// Same derived name, new token: merge onto the existing run.
			if err := s.CampaignRepo.AttachToken(campaign.ID, rawToken); err != nil {
				return nil, err
			}
			campaign.KnownTokens = append(campaign.KnownTokens, rawToken)
		} else {
			campaign = &model.Campaign{
				AccountID:     account.ID,
				InstanceToken: rawToken,
				Name:          name,
				StartedAt:     &fired,
			}
			if err := s.CampaignRepo.Create(campaign); err != nil {
				return nil, err
			}
			return campaign, nil
		}
	}

	if !validStartTime(campaign.StartedAt) {
		repaired, err := s.EventRepo.EarliestEventTime(campaign.ID)
		if err != nil {
			return nil, err
		}
		if repaired == nil {
			repaired = &fired
		}
		if err := s.CampaignRepo.UpdateStartedAt(campaign.ID, *repaired); err != nil {
			return nil, err
		}
		campaign.StartedAt = repaired
	}

	return campaign, nil
}

// validStartTime guards against the zero value and epoch junk some
// imports carry.
func validStartTime(t *time.Time) bool {
	return t != nil && !t.IsZero() && t.Year() >= 2000
}

// resolveContact upserts on the composite (campaign, external id) key.
// A concurrent insert loses the race as a unique violation and is
// retried as a merge update.
func (s *ResolverService) resolveContact(campaign *model.Campaign, payload *model.WebhookPayload) (*model.Contact, error) {
	incoming := &model.Contact{
		CampaignID: campaign.ID,
		ExternalID: payload.Contact.ID,
		Name:       payload.Contact.Name,
		Company:    payload.Contact.Company,
		Title:      payload.Contact.Title,
		Email:      payload.Contact.Email,
		Phone:      payload.Contact.Phone,
	}

	existing, err := s.ContactRepo.GetByExternalID(campaign.ID, payload.Contact.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.mergeContact(existing, incoming)
	}

	if err := s.ContactRepo.Insert(incoming); err != nil {
		if repository.IsUniqueViolation(err) {
			existing, getErr := s.ContactRepo.GetByExternalID(campaign.ID, payload.Contact.ID)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return s.mergeContact(existing, incoming)
			}
		}
		return nil, err
	}
	return incoming, nil
}

// mergeContact applies the new-non-empty-value-wins rule.
func (s *ResolverService) mergeContact(existing, incoming *model.Contact) (*model.Contact, error) {
	changed := false
	merge := func(dst *string, src string) {
		if src != "" && src != *dst {
			*dst = src
			changed = true
		}
	}
	merge(&existing.Name, incoming.Name)
	merge(&existing.Company, incoming.Company)
	merge(&existing.Title, incoming.Title)
	merge(&existing.Email, incoming.Email)
	merge(&existing.Phone, incoming.Phone)

	if !changed {
		return existing, nil
	}
	if err := s.ContactRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// appendEvent records the progression fact. Reply events are idempotent
// per (campaign, contact); invite and connection events record every
// delivery and are deduplicated downstream by distinct contact. The
// second return reports whether a new row was appended.
func (s *ResolverService) appendEvent(campaign *model.Campaign, contact *model.Contact, raw []byte, payload *model.WebhookPayload) (*model.Event, bool, error) {
	kind := MapEventKind(payload.Hook.EventName)

	if kind == model.EventReplyReceived {
		existing, err := s.EventRepo.FindReply(campaign.ID, contact.ID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	event := &model.Event{
		CampaignID:         campaign.ID,
		ContactID:          contact.ID,
		Kind:               kind,
		ConversationStatus: payload.Messenger.ConversationStatus,
		RawPayload:         raw,
	}

	fired := payload.FiredTime()
	switch kind {
	case model.EventInviteSent:
		event.InvitedAt = pickTime(payload.Messenger.InvitedAt, fired)
	case model.EventConnectionAccepted:
		event.ConnectedAt = pickTime(payload.Messenger.ConnectedAt, fired)
	case model.EventReplyReceived:
		event.RepliedAt = pickTime(payload.Messenger.RepliedAt, fired)
	}

	if err := s.EventRepo.Insert(event); err != nil {
		// A concurrent delivery of the same reply wins the insert race
		// as a unique violation on the reply index; return its row.
		if kind == model.EventReplyReceived && repository.IsUniqueViolation(err) {
			existing, findErr := s.EventRepo.FindReply(campaign.ID, contact.ID)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return event, true, nil
}

func pickTime(preferred *time.Time, fallback time.Time) *time.Time {
	if preferred != nil && !preferred.IsZero() {
		return preferred
	}
	return &fallback
}
