package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideation-portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestIdeaRepositoryCreateWithSubmitter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdeaRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ideas")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contributors")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	idea := &models.Idea{
		Title:          "Solar charging kiosks",
		Description:    "Deploy kiosks in common areas",
		ExpectedImpact: models.ImpactHigh,
		SubmitterID:    "user-1",
		CampaignID:     "camp-1",
	}
	contributor, err := repo.CreateWithSubmitter(context.Background(), idea)
	require.NoError(t, err)
	require.Equal(t, models.IdeaStatusDraft, idea.Status)
	require.NotEmpty(t, idea.ID)
	require.Equal(t, idea.ID, contributor.IdeaID)
	require.Equal(t, "user-1", contributor.UserID)
	require.Equal(t, models.RoleSubmitter, contributor.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdeaRepositoryCreateRollsBackOnContributorFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdeaRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ideas")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contributors")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.CreateWithSubmitter(context.Background(), &models.Idea{
		Title:       "T",
		SubmitterID: "user-1",
		CampaignID:  "camp-1",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdeaRepositoryCreateDuplicateTitle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdeaRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ideas")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "ideas_title_campaign_id_key"})
	mock.ExpectRollback()

	_, err := repo.CreateWithSubmitter(context.Background(), &models.Idea{
		Title:       "T",
		SubmitterID: "user-1",
		CampaignID:  "camp-1",
	})
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdeaRepositorySubmitFromDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdeaRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ideas SET status")).
		WithArgs("idea-1", string(models.IdeaStatusSubmitted), now, string(models.IdeaStatusDraft)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SubmitFromDraft(context.Background(), "idea-1", now))

	// second submit matches no DRAFT row
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ideas SET status")).
		WithArgs("idea-1", string(models.IdeaStatusSubmitted), now, string(models.IdeaStatusDraft)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SubmitFromDraft(context.Background(), "idea-1", now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdeaRepositoryListVisibilityScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdeaRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "expected_impact", "submitter_id", "campaign_id",
		"status", "created_at", "updated_at", "submitted_at", "recognized_at",
		"contributor_count", "document_count",
	}).AddRow("idea-1", "T", "D", "HIGH", "user-2", "camp-1", "SUBMITTED", time.Now(), time.Now(), time.Now(), nil, 2, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT i.id, i.title")).
		WithArgs("user-1").
		WillReturnRows(rows)

	records, total, err := repo.List(context.Background(), models.IdeaFilter{VisibleToUserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, records, 1)
	require.Equal(t, 2, records[0].ContributorCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdeaRepositorySetStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdeaRepository(db)
	recognizedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ideas SET status = $2, recognized_at")).
		WithArgs("idea-1", string(models.IdeaStatusRecognized), recognizedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetStatus(context.Background(), "idea-1", models.IdeaStatusRecognized, &recognizedAt))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ideas SET status = $2, recognized_at")).
		WithArgs("missing", string(models.IdeaStatusUnderEvaluation), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SetStatus(context.Background(), "missing", models.IdeaStatusUnderEvaluation, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
