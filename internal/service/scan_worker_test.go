package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideation-portal-api/internal/models"
	"github.com/noah-isme/ideation-portal-api/pkg/jobs"
	"github.com/noah-isme/ideation-portal-api/pkg/scanner"
	"github.com/noah-isme/ideation-portal-api/pkg/storage"
)

type scannerStub struct {
	result *scanner.Result
	err    error
	calls  int
}

func (s *scannerStub) ScanStream(ctx context.Context, r io.Reader) (*scanner.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	io.Copy(io.Discard, r) //nolint:errcheck
	return s.result, nil
}

func newScanWorkerForTest(t *testing.T, stub *scannerStub) (*ScanWorker, *docRepoStub, *storage.LocalStorage) {
	t.Helper()
	repo := newDocRepoStub()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	worker := NewScanWorker(repo, store, stub, nil, nil, nil)
	return worker, repo, store
}

func seedPendingDocument(t *testing.T, repo *docRepoStub, store *storage.LocalStorage) *models.Document {
	t.Helper()
	key := "ideas/idea-1/sample.txt"
	_, err := store.SaveStream(key, bytes.NewReader([]byte("sample content")))
	require.NoError(t, err)
	doc := &models.Document{
		ID: "doc-1", IdeaID: "idea-1", FileName: "sample.txt", FilePath: key,
		VirusScanStatus: models.ScanStatusPending, UploadedAt: time.Now().UTC(),
	}
	repo.docs[doc.ID] = doc
	return doc
}

func scanJob(documentID string) jobs.Job {
	return jobs.Job{ID: "job-1", Type: "virus_scan", Payload: documentID}
}

func TestScanWorkerRecordsCleanVerdict(t *testing.T) {
	stub := &scannerStub{result: &scanner.Result{Verdict: scanner.VerdictClean, Diagnostic: "stream: OK"}}
	worker, repo, store := newScanWorkerForTest(t, stub)
	doc := seedPendingDocument(t, repo, store)

	require.NoError(t, worker.Handle(context.Background(), scanJob(doc.ID)))
	require.Equal(t, models.ScanStatusClean, repo.docs[doc.ID].VirusScanStatus)
	require.True(t, store.Exists(doc.FilePath))
}

func TestScanWorkerQuarantinesInfectedUpload(t *testing.T) {
	stub := &scannerStub{result: &scanner.Result{Verdict: scanner.VerdictInfected, Diagnostic: "stream: Eicar-Test-Signature FOUND"}}
	worker, repo, store := newScanWorkerForTest(t, stub)
	doc := seedPendingDocument(t, repo, store)

	require.NoError(t, worker.Handle(context.Background(), scanJob(doc.ID)))
	require.Equal(t, models.ScanStatusInfected, repo.docs[doc.ID].VirusScanStatus)
	require.NotNil(t, repo.docs[doc.ID].VirusScanResult)
	require.Contains(t, *repo.docs[doc.ID].VirusScanResult, "FOUND")
	require.False(t, store.Exists(doc.FilePath))
}

func TestScanWorkerReturnsTransportErrorsForRetry(t *testing.T) {
	stub := &scannerStub{err: fmt.Errorf("dial tcp: connection refused")}
	worker, repo, store := newScanWorkerForTest(t, stub)
	doc := seedPendingDocument(t, repo, store)

	err := worker.Handle(context.Background(), scanJob(doc.ID))
	require.Error(t, err)
	require.Equal(t, models.ScanStatusPending, repo.docs[doc.ID].VirusScanStatus)
	require.True(t, store.Exists(doc.FilePath))
}

func TestScanWorkerSkipsMissingAndSettledDocuments(t *testing.T) {
	stub := &scannerStub{result: &scanner.Result{Verdict: scanner.VerdictClean}}
	worker, repo, store := newScanWorkerForTest(t, stub)

	require.NoError(t, worker.Handle(context.Background(), scanJob("doc-gone")))
	require.Zero(t, stub.calls)

	doc := seedPendingDocument(t, repo, store)
	repo.docs[doc.ID].VirusScanStatus = models.ScanStatusClean
	require.NoError(t, worker.Handle(context.Background(), scanJob(doc.ID)))
	require.Zero(t, stub.calls)
}
