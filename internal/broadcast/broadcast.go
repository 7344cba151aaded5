package broadcast

import (
	"log"
	"sync"
	"time"
)

// Topic the resolver publishes to after every event append.
const TopicResolvedEvents = "resolved_events"

// Envelope is the fact fanned out to live viewers after an event is
// appended. It carries ids only; consumers re-read what they need.
type Envelope struct {
	AccountID  int       `json:"account_id"`
	CampaignID int       `json:"campaign_id"`
	ContactID  int       `json:"contact_id"`
	EventID    int64     `json:"event_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is what the resolver depends on. A publish failure never
// fails ingestion; the event is already durable.
type Publisher interface {
	Publish(topic string, env Envelope) error
}

// Broker adds in-process subscription for live viewers
type Broker interface {
	Publisher
	Subscribe(topic string, handler func(env Envelope)) error
}

// InMemoryBroker fans envelopes out to in-process subscribers
type InMemoryBroker struct {
	mu       sync.Mutex
	handlers map[string][]func(env Envelope)
}

// NewInMemoryBroker creates a new broker
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		handlers: make(map[string][]func(env Envelope)),
	}
}

// Publish delivers the envelope to all subscribers. Zero subscribers is
// fine; broadcast is best-effort by contract.
func (b *InMemoryBroker) Publish(topic string, env Envelope) error {
	b.mu.Lock()
	handlers := b.handlers[topic]
	b.mu.Unlock()

	for _, handler := range handlers {
		go func(h func(env Envelope)) {
			defer func() {
				if r := recover(); r != nil {
					log.Println("⚠️ broadcast subscriber panicked:", r)
				}
			}()
			h(env)
		}(handler)
	}
	return nil
}

// Subscribe adds a handler for a topic
func (b *InMemoryBroker) Subscribe(topic string, handler func(env Envelope)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

var _ Broker = (*InMemoryBroker)(nil)
