package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideation-portal-api/internal/models"
)

func TestCampaignRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO campaigns")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	campaign := &models.Campaign{
		Name:        "Q3 Innovation",
		Description: "Quarterly idea drive",
		StartDate:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), campaign))
	require.NotEmpty(t, campaign.ID)
	require.Equal(t, models.CampaignStatusPlanning, campaign.Status)
	require.False(t, campaign.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM campaigns WHERE status = $1")).
		WithArgs(models.CampaignStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{"id", "name", "description", "status", "start_date", "end_date", "created_at", "updated_at"}).
		AddRow("camp-1", "Q3 Innovation", "Quarterly idea drive", "ACTIVE",
			time.Now(), time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description")).
		WithArgs(models.CampaignStatusActive).
		WillReturnRows(rows)

	records, total, err := repo.List(context.Background(), models.CampaignFilter{Status: models.CampaignStatusActive})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, records, 1)
	require.Equal(t, "camp-1", records[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
