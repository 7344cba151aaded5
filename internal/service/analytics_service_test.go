package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/linkpulse-backend/internal/model"
	"github.com/unclebandit/linkpulse-backend/internal/service"
)

func newAnalyticsFixture() (*service.AnalyticsService, *mockCampaignRepo, *mockContactRepo, *mockEventRepo) {
	campaigns := &mockCampaignRepo{}
	contacts := &mockContactRepo{}
	events := &mockEventRepo{}
	analytics := &service.AnalyticsService{
		CampaignRepo: campaigns,
		ContactRepo:  contacts,
		EventRepo:    events,
	}
	return analytics, campaigns, contacts, events
}

func ts(day string, hour int) *time.Time {
	d, _ := time.Parse("2006-01-02", day)
	t := d.Add(time.Duration(hour) * time.Hour)
	return &t
}

func TestCampaignSummaryRates(t *testing.T) {
	assert := assert.New(t)
	analytics, _, _, events := newAnalyticsFixture()

	// 10 invited contacts, 4 connected, 2 with a first reply.
	for i := 1; i <= 10; i++ {
		events.Insert(&model.Event{CampaignID: 1, ContactID: i, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", i)})
	}
	for i := 1; i <= 4; i++ {
		events.Insert(&model.Event{CampaignID: 1, ContactID: i, Kind: model.EventConnectionAccepted, ConnectedAt: ts("2025-10-02", i)})
	}
	for i := 1; i <= 2; i++ {
		events.Insert(&model.Event{CampaignID: 1, ContactID: i, Kind: model.EventReplyReceived, RepliedAt: ts("2025-10-03", i)})
	}

	summary, err := analytics.CampaignSummary(context.Background(), 1, service.Window{})
	assert.NoError(err)
	assert.Equal(10, summary.Invites)
	assert.Equal(4, summary.Connections)
	assert.Equal(2, summary.Replies)
	assert.Equal(40.0, summary.ConnectionRate)
	assert.Equal(50.0, summary.ResponseRate)
	assert.Equal("invites=10 connections=4 replies=2 connection_rate=40.0 response_rate=50.0", summary.Describe())
}

func TestCampaignSummaryZeroDenominators(t *testing.T) {
	assert := assert.New(t)
	analytics, _, _, _ := newAnalyticsFixture()

	summary, err := analytics.CampaignSummary(context.Background(), 1, service.Window{})
	assert.NoError(err)
	assert.Equal(0, summary.Invites)
	assert.Equal(0.0, summary.ConnectionRate)
	assert.Equal(0.0, summary.ResponseRate)
}

func TestSummaryDedupsRepeatInvitesByContact(t *testing.T) {
	assert := assert.New(t)
	analytics, _, _, events := newAnalyticsFixture()

	// The same invite delivered twice appends two events but counts one.
	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", 9)})
	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", 10)})

	summary, err := analytics.CampaignSummary(context.Background(), 1, service.Window{})
	assert.NoError(err)
	assert.Equal(1, summary.Invites)
}

func TestSummaryCountsFirstReplyOnly(t *testing.T) {
	assert := assert.New(t)
	analytics, _, _, events := newAnalyticsFixture()

	// First reply lands before the window; a repeat inside it must not
	// pull the contact back in.
	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventReplyReceived, RepliedAt: ts("2025-09-20", 9)})
	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventReplyReceived, RepliedAt: ts("2025-10-02", 9)})

	window, err := service.NewWindow("2025-10-01", "2025-10-05", time.UTC)
	assert.NoError(err)

	summary, err := analytics.CampaignSummary(context.Background(), 1, window)
	assert.NoError(err)
	assert.Equal(0, summary.Replies)
}

func TestSummaryWindowFiltersPerMetricTimestamp(t *testing.T) {
	assert := assert.New(t)
	analytics, _, _, events := newAnalyticsFixture()

	// Invite inside the window, connection outside it. Each metric
	// filters on its own timestamp column only.
	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-02", 9)})
	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventConnectionAccepted, ConnectedAt: ts("2025-10-09", 9)})

	window, err := service.NewWindow("2025-10-01", "2025-10-05", time.UTC)
	assert.NoError(err)

	summary, err := analytics.CampaignSummary(context.Background(), 1, window)
	assert.NoError(err)
	assert.Equal(1, summary.Invites)
	assert.Equal(0, summary.Connections)
}

func TestCampaignSeriesZeroFillsClosedWindow(t *testing.T) {
	assert := assert.New(t)
	analytics, _, _, events := newAnalyticsFixture()

	// Activity on day 3 of a 5-day window only.
	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-03", 9)})
	events.Insert(&model.Event{CampaignID: 1, ContactID: 2, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-03", 11)})

	window, err := service.NewWindow("2025-10-01", "2025-10-05", time.UTC)
	assert.NoError(err)

	rows, err := analytics.CampaignSeries(context.Background(), 1, window)
	assert.NoError(err)
	assert.Len(rows, 5, "one row per calendar day regardless of activity")

	zeroDays := 0
	for _, row := range rows {
		if row.Invites == 0 && row.Connections == 0 && row.Replies == 0 {
			zeroDays++
		}
	}
	assert.Equal(4, zeroDays)
	assert.Equal("2025-10-03", rows[2].Day)
	assert.Equal(2, rows[2].Invites)
}

func TestCampaignSeriesOpenWindowEmitsActiveDaysOnly(t *testing.T) {
	assert := assert.New(t)
	analytics, _, _, events := newAnalyticsFixture()

	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", 9)})
	events.Insert(&model.Event{CampaignID: 1, ContactID: 2, Kind: model.EventConnectionAccepted, ConnectedAt: ts("2025-10-07", 9)})

	window, err := service.NewWindow("2025-10-01", "", time.UTC)
	assert.NoError(err)

	rows, err := analytics.CampaignSeries(context.Background(), 1, window)
	assert.NoError(err)
	assert.Len(rows, 2)
	assert.Equal("2025-10-01", rows[0].Day)
	assert.Equal("2025-10-07", rows[1].Day)
}

func TestAccountSummaryAggregatesCampaigns(t *testing.T) {
	assert := assert.New(t)
	analytics, campaigns, _, events := newAnalyticsFixture()

	campaigns.Create(&model.Campaign{AccountID: 1, InstanceToken: "t1", Name: "A001"})
	campaigns.Create(&model.Campaign{AccountID: 1, InstanceToken: "t2", Name: "A002"})
	campaigns.Create(&model.Campaign{AccountID: 2, InstanceToken: "t3", Name: "B001"})

	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", 9)})
	events.Insert(&model.Event{CampaignID: 2, ContactID: 2, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", 9)})
	events.Insert(&model.Event{CampaignID: 3, ContactID: 3, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", 9)})

	summary, err := analytics.AccountSummary(context.Background(), 1, service.Window{})
	assert.NoError(err)
	assert.Equal(2, summary.Invites, "only the account's campaigns count")
}

func TestEmptyScopeYieldsZeroSummary(t *testing.T) {
	assert := assert.New(t)
	analytics, _, _, _ := newAnalyticsFixture()

	summary, err := analytics.AccountSummary(context.Background(), 99, service.Window{})
	assert.NoError(err)
	assert.Equal(&service.KPISummary{}, summary)
}

func TestProgressionStatusLadder(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(service.StatusNotInvited, service.ProgressionStatus(nil))

	invited := []model.Event{
		{Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", 9)},
	}
	assert.Equal(service.StatusPendingConnection, service.ProgressionStatus(invited))

	// The invite event persists; status moves forward, never back.
	connected := append(invited, model.Event{Kind: model.EventConnectionAccepted, ConnectedAt: ts("2025-10-02", 9)})
	assert.Equal(service.StatusAwaitingReply, service.ProgressionStatus(connected))

	replied := append(connected, model.Event{Kind: model.EventReplyReceived, RepliedAt: ts("2025-10-03", 9)})
	assert.Equal(service.StatusReplied, service.ProgressionStatus(replied))

	// Order independence: the reply dominates wherever it sits.
	reordered := []model.Event{replied[2], replied[0], replied[1]}
	assert.Equal(service.StatusReplied, service.ProgressionStatus(reordered))
}

func TestProgressionStatusRepliedWithoutTimestamp(t *testing.T) {
	// Imported history may carry only a conversation-status label.
	events := []model.Event{
		{Kind: model.EventUnknown, ConversationStatus: "Replied"},
	}
	assert.Equal(t, service.StatusReplied, service.ProgressionStatus(events))
}

func TestContactStatus(t *testing.T) {
	assert := assert.New(t)
	analytics, _, contacts, events := newAnalyticsFixture()

	contacts.Insert(&model.Contact{CampaignID: 1, ExternalID: 100})
	events.Insert(&model.Event{CampaignID: 1, ContactID: 1, Kind: model.EventInviteSent, InvitedAt: ts("2025-10-01", 9)})

	status, err := analytics.ContactStatus(1, 100)
	assert.NoError(err)
	assert.Equal(service.StatusPendingConnection, status)

	status, err = analytics.ContactStatus(1, 999)
	assert.NoError(err)
	assert.Equal(service.StatusNotInvited, status, "unseen contact has base status")
}
