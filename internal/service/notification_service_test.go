package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideation-portal-api/internal/models"
	"github.com/noah-isme/ideation-portal-api/pkg/jobs"
)

type mailerStub struct {
	sent []struct{ To, Subject, Body string }
	err  error
}

func (m *mailerStub) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

func newMailWorkerForTest() (*MailWorker, *mailerStub, *ideaRepoStub) {
	ideas := newIdeaRepoStub()
	ideas.ideas["idea-1"] = &models.Idea{
		ID: "idea-1", Title: "Solar kiosks", SubmitterID: "user-1",
		CampaignID: "camp-1", Status: models.IdeaStatusSubmitted,
	}
	campaigns := &campaignGetterStub{campaigns: map[string]*models.Campaign{
		"camp-1": {ID: "camp-1", Name: "Q3 Innovation"},
	}}
	users := &userFinderStub{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "alice@example.com", FullName: "Alice"},
		"user-2": {ID: "user-2", Email: "bob@example.com", FullName: "Bob"},
	}}
	mailer := &mailerStub{}
	return NewMailWorker(users, ideas, campaigns, mailer, nil), mailer, ideas
}

func TestMailWorkerDeliversSubmissionConfirmation(t *testing.T) {
	worker, mailer, _ := newMailWorkerForTest()

	err := worker.Handle(context.Background(), jobs.Job{
		ID:   "job-1",
		Type: string(NotificationSubmissionConfirmed),
		Payload: NotificationEvent{
			Kind: NotificationSubmissionConfirmed, IdeaID: "idea-1", RecipientID: "user-1",
		},
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "alice@example.com", mailer.sent[0].To)
	require.Equal(t, "Idea Submitted: Solar kiosks", mailer.sent[0].Subject)
	require.Contains(t, mailer.sent[0].Body, "Dear Alice")
	require.Contains(t, mailer.sent[0].Body, "Q3 Innovation")
}

func TestMailWorkerDeliversContributorNotice(t *testing.T) {
	worker, mailer, _ := newMailWorkerForTest()

	err := worker.Handle(context.Background(), jobs.Job{
		ID:   "job-2",
		Type: string(NotificationContributorAdded),
		Payload: NotificationEvent{
			Kind: NotificationContributorAdded, IdeaID: "idea-1", RecipientID: "user-2",
		},
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "bob@example.com", mailer.sent[0].To)
	require.Contains(t, mailer.sent[0].Subject, "added as a contributor")
}

func TestMailWorkerReturnsDeliveryErrorsForRetry(t *testing.T) {
	worker, mailer, _ := newMailWorkerForTest()
	mailer.err = context.DeadlineExceeded

	err := worker.Handle(context.Background(), jobs.Job{
		ID:   "job-3",
		Type: string(NotificationSubmissionConfirmed),
		Payload: NotificationEvent{
			Kind: NotificationSubmissionConfirmed, IdeaID: "idea-1", RecipientID: "user-1",
		},
	})
	require.Error(t, err)
}

func TestMailWorkerIgnoresMalformedPayloads(t *testing.T) {
	worker, mailer, _ := newMailWorkerForTest()

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-4", Type: "junk", Payload: 42})
	require.NoError(t, err)
	require.Empty(t, mailer.sent)
}

func TestNotificationServiceEnqueuesEvents(t *testing.T) {
	queue := &scanDispatchStub{}
	svc := NewNotificationService(queue, nil)
	idea := &models.Idea{ID: "idea-1", SubmitterID: "user-1"}

	svc.SubmissionConfirmed(idea)
	svc.ContributorAdded(idea, "user-2")

	require.Len(t, queue.jobs, 2)
	first, ok := queue.jobs[0].Payload.(NotificationEvent)
	require.True(t, ok)
	require.Equal(t, NotificationSubmissionConfirmed, first.Kind)
	require.Equal(t, "user-1", first.RecipientID)
	second := queue.jobs[1].Payload.(NotificationEvent)
	require.Equal(t, NotificationContributorAdded, second.Kind)
	require.Equal(t, "user-2", second.RecipientID)
}
