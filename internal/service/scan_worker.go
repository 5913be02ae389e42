package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/ideation-portal-api/internal/models"
	"github.com/noah-isme/ideation-portal-api/pkg/jobs"
	"github.com/noah-isme/ideation-portal-api/pkg/scanner"
)

type scanVerdictStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	SetScanVerdict(ctx context.Context, id string, status models.VirusScanStatus, result string) error
}

type scanFileStorage interface {
	Open(key string) (*os.File, error)
	Delete(key string) error
}

type virusScanner interface {
	ScanStream(ctx context.Context, r io.Reader) (*scanner.Result, error)
}

// ScanWorker processes queued virus-scan jobs. Transport errors are
// returned so the queue retries with backoff; verdicts and vanished
// documents are final and never retried.
type ScanWorker struct {
	docs    scanVerdictStore
	storage scanFileStorage
	scanner virusScanner
	cache   *redis.Client
	metrics *MetricsService
	logger  *zap.Logger
}

// NewScanWorker constructs a worker. cache and metrics may be nil.
func NewScanWorker(docs scanVerdictStore, storage scanFileStorage, scanner virusScanner, cache *redis.Client, metrics *MetricsService, logger *zap.Logger) *ScanWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanWorker{docs: docs, storage: storage, scanner: scanner, cache: cache, metrics: metrics, logger: logger}
}

// Handle scans one document. The job payload is the document ID.
func (w *ScanWorker) Handle(ctx context.Context, job jobs.Job) error {
	documentID, ok := job.Payload.(string)
	if !ok || documentID == "" {
		w.logger.Sugar().Errorw("invalid scan payload", "job_id", job.ID)
		return nil
	}

	doc, err := w.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Sugar().Infow("document removed before scan", "document_id", documentID)
			return nil
		}
		return fmt.Errorf("load document %s: %w", documentID, err)
	}
	if doc.VirusScanStatus != models.ScanStatusPending {
		return nil
	}

	file, err := w.storage.Open(doc.FilePath)
	if err != nil {
		w.logger.Sugar().Warnw("stored object missing, leaving verdict pending", "document_id", doc.ID, "key", doc.FilePath)
		return nil
	}
	defer file.Close()

	result, err := w.scanner.ScanStream(ctx, file)
	if err != nil {
		return fmt.Errorf("scan document %s: %w", doc.ID, err)
	}

	switch result.Verdict {
	case scanner.VerdictInfected:
		if err := w.docs.SetScanVerdict(ctx, doc.ID, models.ScanStatusInfected, result.Diagnostic); err != nil {
			return fmt.Errorf("record infected verdict %s: %w", doc.ID, err)
		}
		if err := w.storage.Delete(doc.FilePath); err != nil && !os.IsNotExist(err) {
			w.logger.Sugar().Errorw("failed to quarantine infected file", "document_id", doc.ID, "key", doc.FilePath, "error", err)
		}
		w.metrics.RecordScanVerdict(string(models.ScanStatusInfected))
		w.logger.Sugar().Warnw("infected upload removed", "document_id", doc.ID, "diagnostic", result.Diagnostic)
	default:
		if err := w.docs.SetScanVerdict(ctx, doc.ID, models.ScanStatusClean, result.Diagnostic); err != nil {
			return fmt.Errorf("record clean verdict %s: %w", doc.ID, err)
		}
		w.metrics.RecordScanVerdict(string(models.ScanStatusClean))
		w.logger.Sugar().Infow("document scanned clean", "document_id", doc.ID)
	}

	w.invalidateStatus(ctx, doc.ID)
	return nil
}

func (w *ScanWorker) invalidateStatus(ctx context.Context, documentID string) {
	if w.cache == nil {
		return
	}
	w.cache.Del(ctx, scanStatusCacheKey(documentID))
}
