package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideation-portal-api/internal/models"
)

func TestDocumentRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	uploader := "user-1"
	doc := &models.Document{
		IdeaID:     "idea-1",
		FileName:   "proposal.pdf",
		FilePath:   "ideas/idea-1/f3a9.pdf",
		FileSize:   1024,
		FileType:   "pdf",
		UploadedBy: &uploader,
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	require.Equal(t, models.ScanStatusPending, doc.VirusScanStatus)

	rows := sqlmock.NewRows([]string{
		"id", "idea_id", "file_name", "file_path", "file_size", "file_type",
		"uploaded_by", "uploaded_at", "virus_scan_status", "virus_scan_result",
	}).AddRow(doc.ID, doc.IdeaID, doc.FileName, doc.FilePath, doc.FileSize, doc.FileType, uploader, time.Now(), "PENDING", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, idea_id, file_name")).
		WithArgs(doc.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.FilePath, found.FilePath)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositorySetScanVerdict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET virus_scan_status")).
		WithArgs("doc-1", string(models.ScanStatusInfected), "stream: Eicar-Signature FOUND").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetScanVerdict(context.Background(), "doc-1", models.ScanStatusInfected, "stream: Eicar-Signature FOUND"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET virus_scan_status")).
		WithArgs("missing", string(models.ScanStatusClean), "stream: OK").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SetScanVerdict(context.Background(), "missing", models.ScanStatusClean, "stream: OK")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListUploadedBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "idea_id", "file_name", "file_path", "file_size", "file_type",
		"uploaded_by", "uploaded_at", "virus_scan_status", "virus_scan_result",
	}).AddRow("doc-1", "idea-1", "old.pdf", "ideas/idea-1/a.pdf", 10, "pdf", nil, cutoff.Add(-time.Hour), "CLEAN", "stream: OK")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, idea_id, file_name")).
		WithArgs(cutoff, 100).
		WillReturnRows(rows)

	records, err := repo.ListUploadedBefore(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "doc-1", records[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
