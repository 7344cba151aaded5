package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/unclebandit/linkpulse-backend/internal/broadcast"
	"github.com/unclebandit/linkpulse-backend/internal/model"
	"github.com/unclebandit/linkpulse-backend/internal/repository"
)

// --- Mock repositories ---

type mockAccountRepo struct {
	accounts []*model.Account
}

func (m *mockAccountRepo) GetByRoutingKey(key string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.RoutingKey == key {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAccountRepo) GetByID(id int) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAccountRepo) ListByTenant(tenantID int) ([]model.Account, error) {
	out := []model.Account{}
	for _, a := range m.accounts {
		if a.TenantID != nil && *a.TenantID == tenantID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type mockCampaignRepo struct {
	campaigns []*model.Campaign
	nextID    int
}

func (m *mockCampaignRepo) GetByToken(token string) (*model.Campaign, error) {
	for _, c := range m.campaigns {
		if c.InstanceToken == token {
			return copyCampaign(c), nil
		}
		for _, t := range c.KnownTokens {
			if t == token {
				return copyCampaign(c), nil
			}
		}
	}
	return nil, nil
}

func (m *mockCampaignRepo) GetByName(accountID int, name string) (*model.Campaign, error) {
	for _, c := range m.campaigns {
		if c.AccountID == accountID && c.Name == name {
			return copyCampaign(c), nil
		}
	}
	return nil, nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	for _, c := range m.campaigns {
		if c.ID == id {
			return copyCampaign(c), nil
		}
	}
	return nil, nil
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	stored := *c
	m.campaigns = append(m.campaigns, &stored)
	return nil
}

func (m *mockCampaignRepo) AttachToken(campaignID int, token string) error {
	for _, c := range m.campaigns {
		if c.ID == campaignID {
			c.KnownTokens = append(c.KnownTokens, token)
		}
	}
	return nil
}

func (m *mockCampaignRepo) UpdateStartedAt(campaignID int, startedAt time.Time) error {
	for _, c := range m.campaigns {
		if c.ID == campaignID {
			t := startedAt
			c.StartedAt = &t
		}
	}
	return nil
}

func (m *mockCampaignRepo) ListIDsByAccount(accountID int) ([]int, error) {
	ids := []int{}
	for _, c := range m.campaigns {
		if c.AccountID == accountID {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (m *mockCampaignRepo) ListIDsByTenant(tenantID int) ([]int, error) {
	// Tests wire tenant 1 to every campaign.
	ids := []int{}
	for _, c := range m.campaigns {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func copyCampaign(c *model.Campaign) *model.Campaign {
	out := *c
	out.KnownTokens = append([]string{}, c.KnownTokens...)
	return &out
}

type mockContactRepo struct {
	contacts []*model.Contact
	nextID   int

	// Simulates losing an insert race: the first Insert fails with
	// insertErr and raceContact becomes visible, as if a concurrent
	// delivery committed it between the lookup and the insert.
	insertErr   error
	raceContact *model.Contact
}

func (m *mockContactRepo) GetByExternalID(campaignID int, externalID int64) (*model.Contact, error) {
	for _, c := range m.contacts {
		if c.CampaignID == campaignID && c.ExternalID == externalID {
			out := *c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockContactRepo) Insert(c *model.Contact) error {
	if m.insertErr != nil {
		err := m.insertErr
		m.insertErr = nil
		if m.raceContact != nil {
			m.nextID++
			m.raceContact.ID = m.nextID
			m.contacts = append(m.contacts, m.raceContact)
			m.raceContact = nil
		}
		return err
	}
	m.nextID++
	c.ID = m.nextID
	stored := *c
	m.contacts = append(m.contacts, &stored)
	return nil
}

func (m *mockContactRepo) Update(c *model.Contact) error {
	for i, existing := range m.contacts {
		if existing.ID == c.ID {
			stored := *c
			m.contacts[i] = &stored
		}
	}
	return nil
}

// mockEventRepo keeps events in memory and answers the analytics reads
// by scanning them, so the same store backs both pipelines under test.
type mockEventRepo struct {
	events []*model.Event
	nextID int64

	// Simulates losing an insert race: the first Insert fails with
	// insertErr and raceEvent becomes visible, as if a concurrent
	// delivery committed it first.
	insertErr error
	raceEvent *model.Event
}

func (m *mockEventRepo) Insert(e *model.Event) error {
	if m.insertErr != nil {
		err := m.insertErr
		m.insertErr = nil
		if m.raceEvent != nil {
			m.nextID++
			m.raceEvent.ID = m.nextID
			m.events = append(m.events, m.raceEvent)
			m.raceEvent = nil
		}
		return err
	}
	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Now()
	stored := *e
	m.events = append(m.events, &stored)
	return nil
}

func (m *mockEventRepo) FindReply(campaignID, contactID int) (*model.Event, error) {
	for _, e := range m.events {
		if e.CampaignID == campaignID && e.ContactID == contactID && e.Kind == model.EventReplyReceived {
			out := *e
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockEventRepo) ListByContact(campaignID, contactID int) ([]model.Event, error) {
	out := []model.Event{}
	for _, e := range m.events {
		if e.CampaignID == campaignID && e.ContactID == contactID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) EarliestEventTime(campaignID int) (*time.Time, error) {
	var earliest *time.Time
	consider := func(t *time.Time) {
		if t != nil && (earliest == nil || t.Before(*earliest)) {
			earliest = t
		}
	}
	for _, e := range m.events {
		if e.CampaignID == campaignID {
			consider(e.InvitedAt)
			consider(e.ConnectedAt)
			consider(e.RepliedAt)
		}
	}
	if earliest == nil {
		return nil, nil
	}
	out := *earliest
	return &out, nil
}

func inWindow(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (m *mockEventRepo) distinctContacts(campaignIDs []int, pick func(*model.Event) *time.Time, from, to *time.Time) map[int]bool {
	seen := map[int]bool{}
	for _, e := range m.events {
		if !containsID(campaignIDs, e.CampaignID) {
			continue
		}
		ts := pick(e)
		if ts != nil && inWindow(*ts, from, to) {
			seen[e.ContactID] = true
		}
	}
	return seen
}

func (m *mockEventRepo) CountInvited(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error) {
	return len(m.distinctContacts(campaignIDs, func(e *model.Event) *time.Time { return e.InvitedAt }, from, to)), nil
}

func (m *mockEventRepo) CountConnected(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error) {
	return len(m.distinctContacts(campaignIDs, func(e *model.Event) *time.Time { return e.ConnectedAt }, from, to)), nil
}

func (m *mockEventRepo) firstReplies(campaignIDs []int) map[int]time.Time {
	firsts := map[int]time.Time{}
	for _, e := range m.events {
		if !containsID(campaignIDs, e.CampaignID) || e.RepliedAt == nil {
			continue
		}
		if cur, ok := firsts[e.ContactID]; !ok || e.RepliedAt.Before(cur) {
			firsts[e.ContactID] = *e.RepliedAt
		}
	}
	return firsts
}

func (m *mockEventRepo) CountFirstReplies(ctx context.Context, campaignIDs []int, from, to *time.Time) (int, error) {
	count := 0
	for _, first := range m.firstReplies(campaignIDs) {
		if inWindow(first, from, to) {
			count++
		}
	}
	return count, nil
}

func (m *mockEventRepo) bucket(campaignIDs []int, tz string, pick func(*model.Event) *time.Time, from, to *time.Time) ([]repository.DayCount, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	byDay := map[string]map[int]bool{}
	for _, e := range m.events {
		if !containsID(campaignIDs, e.CampaignID) {
			continue
		}
		ts := pick(e)
		if ts == nil || !inWindow(*ts, from, to) {
			continue
		}
		day := ts.In(loc).Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = map[int]bool{}
		}
		byDay[day][e.ContactID] = true
	}
	return dayCounts(byDay), nil
}

func (m *mockEventRepo) InvitedByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]repository.DayCount, error) {
	return m.bucket(campaignIDs, tz, func(e *model.Event) *time.Time { return e.InvitedAt }, from, to)
}

func (m *mockEventRepo) ConnectedByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]repository.DayCount, error) {
	return m.bucket(campaignIDs, tz, func(e *model.Event) *time.Time { return e.ConnectedAt }, from, to)
}

func (m *mockEventRepo) FirstRepliesByDay(ctx context.Context, campaignIDs []int, tz string, from, to *time.Time) ([]repository.DayCount, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	byDay := map[string]map[int]bool{}
	for contactID, first := range m.firstReplies(campaignIDs) {
		if !inWindow(first, from, to) {
			continue
		}
		day := first.In(loc).Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = map[int]bool{}
		}
		byDay[day][contactID] = true
	}
	return dayCounts(byDay), nil
}

func dayCounts(byDay map[string]map[int]bool) []repository.DayCount {
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	out := []repository.DayCount{}
	for _, day := range days {
		out = append(out, repository.DayCount{Day: day, Count: len(byDay[day])})
	}
	return out
}

// mockBroadcast records published envelopes
type mockBroadcast struct {
	published []broadcast.Envelope
}

func (m *mockBroadcast) Publish(topic string, env broadcast.Envelope) error {
	m.published = append(m.published, env)
	return nil
}

// Interface conformance
var _ repository.AccountRepositoryInterface = (*mockAccountRepo)(nil)
var _ repository.CampaignRepositoryInterface = (*mockCampaignRepo)(nil)
var _ repository.ContactRepositoryInterface = (*mockContactRepo)(nil)
var _ repository.EventRepositoryInterface = (*mockEventRepo)(nil)
var _ broadcast.Publisher = (*mockBroadcast)(nil)
