package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	"github.com/noah-isme/ideation-portal-api/internal/repository"
	appErrors "github.com/noah-isme/ideation-portal-api/pkg/errors"
)

const (
	maxIdeaTitleLen       = 200
	maxIdeaDescriptionLen = 2000
)

type ideaStore interface {
	CreateWithSubmitter(ctx context.Context, idea *models.Idea) (*models.Contributor, error)
	GetByID(ctx context.Context, id string) (*models.Idea, error)
	Update(ctx context.Context, idea *models.Idea) error
	SubmitFromDraft(ctx context.Context, id string, submittedAt time.Time) error
	List(ctx context.Context, filter models.IdeaFilter) ([]dto.IdeaSummary, int, error)
}

type contributorStore interface {
	Create(ctx context.Context, contributor *models.Contributor) error
	ListByIdea(ctx context.Context, ideaID string) ([]dto.ContributorDetail, error)
}

type ideaCampaignGetter interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
}

type ideaUserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type ideaDocumentLister interface {
	ListByIdea(ctx context.Context, ideaID string) ([]models.Document, error)
}

type ideaNotifier interface {
	SubmissionConfirmed(idea *models.Idea)
	ContributorAdded(idea *models.Idea, userID string)
}

// IdeaService drives the idea workflow: drafting, submission, and
// contributor management. Evaluation transitions beyond SUBMITTED are
// applied by panel tooling through the repository status primitive.
type IdeaService struct {
	ideas        ideaStore
	contributors contributorStore
	campaigns    ideaCampaignGetter
	users        ideaUserFinder
	documents    ideaDocumentLister
	notifier     ideaNotifier
	logger       *zap.Logger
}

// NewIdeaService constructs the service. notifier may be nil when
// outbound mail is disabled.
func NewIdeaService(
	ideas ideaStore,
	contributors contributorStore,
	campaigns ideaCampaignGetter,
	users ideaUserFinder,
	documents ideaDocumentLister,
	notifier ideaNotifier,
	logger *zap.Logger,
) *IdeaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdeaService{
		ideas:        ideas,
		contributors: contributors,
		campaigns:    campaigns,
		users:        users,
		documents:    documents,
		notifier:     notifier,
		logger:       logger,
	}
}

// Create drafts a new idea. The caller becomes its submitter and is
// recorded as a SUBMITTER contributor in the same transaction.
func (s *IdeaService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateIdeaRequest) (*models.Idea, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > maxIdeaTitleLen {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title must be 1-200 characters")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" || utf8.RuneCountInString(description) > maxIdeaDescriptionLen {
		return nil, appErrors.Clone(appErrors.ErrValidation, "description must be 1-2000 characters")
	}
	if !models.ValidExpectedImpact(req.ExpectedImpact) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expected_impact must be HIGH, MEDIUM or LOW")
	}

	if _, err := s.campaigns.GetByID(ctx, req.CampaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}

	idea := &models.Idea{
		Title:          title,
		Description:    description,
		ExpectedImpact: req.ExpectedImpact,
		SubmitterID:    claims.UserID,
		CampaignID:     req.CampaignID,
		Status:         models.IdeaStatusDraft,
	}
	if _, err := s.ideas.CreateWithSubmitter(ctx, idea); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an idea with this title already exists in the campaign")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create idea")
	}
	s.logger.Sugar().Infow("idea drafted", "idea_id", idea.ID, "campaign_id", idea.CampaignID, "submitter_id", idea.SubmitterID)
	return idea, nil
}

// Get returns an idea with its contributors and documents. Drafts are
// visible only to their submitter and to admins.
func (s *IdeaService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*dto.IdeaDetail, error) {
	idea, err := s.getVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	contributors, err := s.contributors.ListByIdea(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contributors")
	}
	documents, err := s.documents.ListByIdea(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return &dto.IdeaDetail{Idea: *idea, Contributors: contributors, Documents: documents}, nil
}

// Update mutates draft-only fields. Only the submitter may edit and
// only while the idea is still in DRAFT.
func (s *IdeaService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateIdeaRequest) (*models.Idea, error) {
	idea, err := s.getVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if idea.SubmitterID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the submitter can edit an idea")
	}
	if idea.Status != models.IdeaStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only draft ideas can be edited")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || utf8.RuneCountInString(title) > maxIdeaTitleLen {
			return nil, appErrors.Clone(appErrors.ErrValidation, "title must be 1-200 characters")
		}
		idea.Title = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" || utf8.RuneCountInString(description) > maxIdeaDescriptionLen {
			return nil, appErrors.Clone(appErrors.ErrValidation, "description must be 1-2000 characters")
		}
		idea.Description = description
	}
	if req.ExpectedImpact != nil {
		if !models.ValidExpectedImpact(*req.ExpectedImpact) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expected_impact must be HIGH, MEDIUM or LOW")
		}
		idea.ExpectedImpact = *req.ExpectedImpact
	}

	if err := s.ideas.Update(ctx, idea); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an idea with this title already exists in the campaign")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update idea")
	}
	return idea, nil
}

// Submit transitions the idea from DRAFT to SUBMITTED. The transition
// is a conditional update, so a concurrent double submit loses cleanly.
func (s *IdeaService) Submit(ctx context.Context, claims *models.JWTClaims, id string) (*models.Idea, error) {
	idea, err := s.getVisible(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if idea.SubmitterID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the submitter can submit an idea")
	}

	submittedAt := time.Now().UTC()
	if err := s.ideas.SubmitFromDraft(ctx, id, submittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "only draft ideas can be submitted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit idea")
	}
	idea.Status = models.IdeaStatusSubmitted
	idea.SubmittedAt = &submittedAt
	idea.UpdatedAt = submittedAt

	if s.notifier != nil {
		s.notifier.SubmissionConfirmed(idea)
	}
	s.logger.Sugar().Infow("idea submitted", "idea_id", idea.ID, "campaign_id", idea.CampaignID)
	return idea, nil
}

// AddContributor attaches another user to the idea as CONTRIBUTOR.
func (s *IdeaService) AddContributor(ctx context.Context, claims *models.JWTClaims, ideaID string, req dto.AddContributorRequest) (*models.Contributor, error) {
	idea, err := s.getVisible(ctx, claims, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.SubmitterID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the submitter can add contributors")
	}

	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	contributor := &models.Contributor{
		IdeaID: ideaID,
		UserID: req.UserID,
		Role:   models.RoleContributor,
	}
	if err := s.contributors.Create(ctx, contributor); err != nil {
		if errors.Is(err, repository.ErrContributorExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user is already a contributor")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add contributor")
	}

	if s.notifier != nil {
		s.notifier.ContributorAdded(idea, req.UserID)
	}
	s.logger.Sugar().Infow("contributor added", "idea_id", ideaID, "user_id", req.UserID)
	return contributor, nil
}

// ListContributors returns the idea's contributors.
func (s *IdeaService) ListContributors(ctx context.Context, claims *models.JWTClaims, ideaID string) ([]dto.ContributorDetail, error) {
	if _, err := s.getVisible(ctx, claims, ideaID); err != nil {
		return nil, err
	}
	contributors, err := s.contributors.ListByIdea(ctx, ideaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contributors")
	}
	return contributors, nil
}

// List returns idea summaries scoped to the caller's visibility:
// admins see everything, everyone else sees their own ideas plus
// ideas that have left DRAFT.
func (s *IdeaService) List(ctx context.Context, claims *models.JWTClaims, filter dto.IdeaFilter) ([]dto.IdeaSummary, *models.Pagination, error) {
	if filter.Status != "" && !models.ValidIdeaStatus(filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid idea status")
	}
	if filter.ExpectedImpact != "" && !models.ValidExpectedImpact(filter.ExpectedImpact) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid expected_impact")
	}

	repoFilter := models.IdeaFilter{
		Status:         filter.Status,
		ExpectedImpact: filter.ExpectedImpact,
		CampaignID:     filter.CampaignID,
		Page:           filter.Page,
		PageSize:       filter.PageSize,
	}
	if claims.Role != models.RoleAdmin {
		repoFilter.VisibleToUserID = claims.UserID
	}
	return s.list(ctx, repoFilter)
}

// MyIdeas returns the caller's own ideas regardless of status.
func (s *IdeaService) MyIdeas(ctx context.Context, claims *models.JWTClaims, page, pageSize int) ([]dto.IdeaSummary, *models.Pagination, error) {
	return s.list(ctx, models.IdeaFilter{
		SubmitterID: claims.UserID,
		Page:        page,
		PageSize:    pageSize,
	})
}

func (s *IdeaService) list(ctx context.Context, filter models.IdeaFilter) ([]dto.IdeaSummary, *models.Pagination, error) {
	records, total, err := s.ideas.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ideas")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// getVisible loads an idea and applies the draft visibility rule:
// drafts exist only for their submitter and for admins.
func (s *IdeaService) getVisible(ctx context.Context, claims *models.JWTClaims, id string) (*models.Idea, error) {
	idea, err := s.ideas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load idea")
	}
	if idea.Status == models.IdeaStatusDraft && idea.SubmitterID != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
	}
	return idea, nil
}
