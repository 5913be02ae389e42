package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideation-portal-api/internal/models"
)

func TestContributorRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewContributorRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contributors")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	contributor := &models.Contributor{
		IdeaID: "idea-1",
		UserID: "user-2",
		Role:   models.RoleContributor,
	}
	require.NoError(t, repo.Create(context.Background(), contributor))
	require.NotEmpty(t, contributor.ID)
	require.False(t, contributor.AddedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewContributorRepository(db)
	// ON CONFLICT DO NOTHING swallows the insert, zero rows affected
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contributors")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.Contributor{
		IdeaID: "idea-1",
		UserID: "user-2",
		Role:   models.RoleContributor,
	})
	require.ErrorIs(t, err, ErrContributorExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContributorRepositoryListByIdea(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewContributorRepository(db)
	rows := sqlmock.NewRows([]string{"id", "idea_id", "user_id", "role", "added_at", "email", "full_name"}).
		AddRow("contrib-1", "idea-1", "user-1", "SUBMITTER", time.Now(), "a@example.com", "Alice").
		AddRow("contrib-2", "idea-1", "user-2", "CONTRIBUTOR", time.Now(), "b@example.com", "Bob")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.id, c.idea_id")).
		WithArgs("idea-1").
		WillReturnRows(rows)

	records, err := repo.ListByIdea(context.Background(), "idea-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, models.RoleSubmitter, records[0].Role)
	require.Equal(t, "Bob", records[1].FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}
