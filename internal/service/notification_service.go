package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ideation-portal-api/internal/models"
	"github.com/noah-isme/ideation-portal-api/pkg/jobs"
)

// NotificationKind identifies an outbound notification event.
type NotificationKind string

const (
	NotificationSubmissionConfirmed NotificationKind = "submission_confirmed"
	NotificationContributorAdded    NotificationKind = "contributor_added"
)

// NotificationEvent is the payload carried on the notification queue.
type NotificationEvent struct {
	Kind        NotificationKind
	IdeaID      string
	RecipientID string
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// NotificationService appends outbound notification events to a queue.
// Delivery happens in MailWorker with its own retry policy; enqueue
// failures are logged and never surfaced to the triggering operation.
type NotificationService struct {
	queue  jobDispatcher
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(queue jobDispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, logger: logger}
}

// SubmissionConfirmed enqueues a confirmation email for the submitter.
func (s *NotificationService) SubmissionConfirmed(idea *models.Idea) {
	s.enqueue(NotificationEvent{
		Kind:        NotificationSubmissionConfirmed,
		IdeaID:      idea.ID,
		RecipientID: idea.SubmitterID,
	})
}

// ContributorAdded enqueues a notification for the new contributor.
func (s *NotificationService) ContributorAdded(idea *models.Idea, userID string) {
	s.enqueue(NotificationEvent{
		Kind:        NotificationContributorAdded,
		IdeaID:      idea.ID,
		RecipientID: userID,
	})
}

func (s *NotificationService) enqueue(event NotificationEvent) {
	if s.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: string(event.Kind), Payload: event}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Sugar().Warnw("failed to enqueue notification", "kind", event.Kind, "idea_id", event.IdeaID, "error", err)
	}
}

type mailSender interface {
	Send(to, subject, body string) error
}

type notificationUserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type notificationIdeaGetter interface {
	GetByID(ctx context.Context, id string) (*models.Idea, error)
}

type notificationCampaignGetter interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
}

// MailWorker consumes notification events and delivers mail.
type MailWorker struct {
	users     notificationUserFinder
	ideas     notificationIdeaGetter
	campaigns notificationCampaignGetter
	mailer    mailSender
	logger    *zap.Logger
}

// NewMailWorker constructs a worker.
func NewMailWorker(users notificationUserFinder, ideas notificationIdeaGetter, campaigns notificationCampaignGetter, mailer mailSender, logger *zap.Logger) *MailWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailWorker{users: users, ideas: ideas, campaigns: campaigns, mailer: mailer, logger: logger}
}

// Handle processes one notification job. Errors are returned so the
// queue can retry delivery.
func (w *MailWorker) Handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(NotificationEvent)
	if !ok {
		w.logger.Sugar().Errorw("invalid notification payload", "job_id", job.ID, "type", job.Type)
		return nil
	}

	idea, err := w.ideas.GetByID(ctx, event.IdeaID)
	if err != nil {
		return fmt.Errorf("load idea %s: %w", event.IdeaID, err)
	}
	campaign, err := w.campaigns.GetByID(ctx, idea.CampaignID)
	if err != nil {
		return fmt.Errorf("load campaign %s: %w", idea.CampaignID, err)
	}
	recipient, err := w.users.FindByID(ctx, event.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient %s: %w", event.RecipientID, err)
	}

	var subject, body string
	switch event.Kind {
	case NotificationSubmissionConfirmed:
		subject = fmt.Sprintf("Idea Submitted: %s", idea.Title)
		body = fmt.Sprintf(
			"Dear %s,\n\nYour idea %q has been successfully submitted for evaluation.\n\nIdea ID: %s\nCampaign: %s\n\nYou can track the status of your idea in the dashboard.\n\nBest regards,\nIdeation Portal Team\n",
			recipient.FullName, idea.Title, idea.ID, campaign.Name)
	case NotificationContributorAdded:
		subject = fmt.Sprintf("You've been added as a contributor to: %s", idea.Title)
		body = fmt.Sprintf(
			"Dear %s,\n\nYou have been added as a contributor to the idea %q.\n\nIdea ID: %s\nCampaign: %s\n\nYou can now collaborate on this idea in the dashboard.\n\nBest regards,\nIdeation Portal Team\n",
			recipient.FullName, idea.Title, idea.ID, campaign.Name)
	default:
		w.logger.Sugar().Errorw("unknown notification kind", "job_id", job.ID, "kind", event.Kind)
		return nil
	}

	if err := w.mailer.Send(recipient.Email, subject, body); err != nil {
		return fmt.Errorf("send %s mail: %w", event.Kind, err)
	}
	w.logger.Sugar().Infow("notification delivered", "kind", event.Kind, "idea_id", idea.ID, "recipient", recipient.Email)
	return nil
}
