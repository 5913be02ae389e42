package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	appErrors "github.com/noah-isme/ideation-portal-api/pkg/errors"
	"github.com/noah-isme/ideation-portal-api/pkg/jobs"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// sweepBatchSize bounds how many expired rows one retention pass loads
// at a time; Sweep loops until the store is drained.
const sweepBatchSize = 100

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListByIdea(ctx context.Context, ideaID string) ([]models.Document, error)
	ListUploadedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

type documentIdeaGetter interface {
	GetByID(ctx context.Context, id string) (*models.Idea, error)
}

type documentFileStorage interface {
	SaveStream(key string, r io.Reader) (string, error)
	Open(key string) (*os.File, error)
	Exists(key string) bool
	Delete(key string) error
}

type documentSigner interface {
	Generate(documentID, key string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (documentID, key string, expiresAt time.Time, err error)
}

// scanStatusCache is the slice of the redis client the document pipeline
// uses. *redis.Client satisfies it.
type scanStatusCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// scanStatusCacheEntry is the cached scan-status payload. It carries the
// owning idea's visibility context so cache hits are authorized with the
// same draft rule as database reads.
type scanStatusCacheEntry struct {
	ID          string                 `json:"id"`
	Status      models.VirusScanStatus `json:"status"`
	Result      *string                `json:"result"`
	IdeaID      string                 `json:"idea_id"`
	SubmitterID string                 `json:"submitter_id"`
	IdeaStatus  models.IdeaStatus      `json:"idea_status"`
}

// DocumentUpload carries upload metadata and the content stream.
type DocumentUpload struct {
	FileName string
	Size     int64
	Content  io.Reader
}

// DocumentDownload bundles an open file with response metadata. The
// caller owns closing File.
type DocumentDownload struct {
	File     *os.File
	FileName string
	FileType string
	FileSize int64
}

// DocumentServiceConfig holds validation and retention parameters.
type DocumentServiceConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	RetentionWindow   time.Duration
	SweepInterval     time.Duration
	ScanStatusTTL     time.Duration
	APIPrefix         string
}

// DocumentService manages the upload pipeline: validation, storage,
// metadata, scan dispatch, signed downloads, and retention.
type DocumentService struct {
	repo    documentStore
	ideas   documentIdeaGetter
	storage documentFileStorage
	signer  documentSigner
	scans   jobDispatcher
	cache   scanStatusCache
	metrics *MetricsService
	logger  *zap.Logger
	cfg     DocumentServiceConfig
	extSet  map[string]struct{}
}

// NewDocumentService constructs the service with defaults. cache may be
// nil; scan status reads then always hit the database.
func NewDocumentService(
	repo documentStore,
	ideas documentIdeaGetter,
	storage documentFileStorage,
	signer documentSigner,
	scans jobDispatcher,
	cache *redis.Client,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg DocumentServiceConfig,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{
			"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "jpg", "jpeg", "png",
		}
	}
	if cfg.RetentionWindow <= 0 {
		cfg.RetentionWindow = 30 * 24 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.ScanStatusTTL <= 0 {
		cfg.ScanStatusTTL = 30 * time.Second
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	extSet := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		extSet[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	s := &DocumentService{
		repo:    repo,
		ideas:   ideas,
		storage: storage,
		signer:  signer,
		scans:   scans,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		extSet:  extSet,
	}
	// A typed nil client must not end up behind the interface.
	if cache != nil {
		s.cache = cache
	}
	return s
}

// Upload validates the file, persists it under an opaque storage key,
// records metadata with a PENDING verdict, and dispatches the scan job.
func (s *DocumentService) Upload(ctx context.Context, claims *models.JWTClaims, ideaID string, upload DocumentUpload) (*models.Document, error) {
	if _, err := s.visibleIdea(ctx, claims, ideaID); err != nil {
		// At upload time a missing idea is a client-fixable input error,
		// not a read of an absent resource.
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.Clone(appErrors.ErrValidation, "idea not found")
		}
		return nil, err
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(upload.FileName), "."))
	if _, allowed := s.extSet[ext]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type not allowed")
	}

	safeName := sanitizeFileName(upload.FileName)
	key := fmt.Sprintf("ideas/%s/%s.%s", ideaID, uuid.NewString(), ext)
	if _, err := s.storage.SaveStream(key, upload.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFileUpload.Code, appErrors.ErrFileUpload.Status, "failed to store uploaded file")
	}

	uploadedBy := claims.UserID
	doc := &models.Document{
		IdeaID:          ideaID,
		FileName:        safeName,
		FilePath:        key,
		FileSize:        upload.Size,
		FileType:        ext,
		UploadedBy:      &uploadedBy,
		VirusScanStatus: models.ScanStatusPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		_ = s.storage.Delete(key)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}

	if s.scans != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: "virus_scan", Payload: doc.ID}
		if err := s.scans.Enqueue(job); err != nil {
			s.logger.Sugar().Errorw("failed to enqueue virus scan", "document_id", doc.ID, "error", err)
		}
	}
	s.metrics.RecordUpload(upload.Size)
	s.logger.Sugar().Infow("document uploaded", "document_id", doc.ID, "idea_id", ideaID, "size", upload.Size)
	return doc, nil
}

// ListByIdea returns the idea's documents.
func (s *DocumentService) ListByIdea(ctx context.Context, claims *models.JWTClaims, ideaID string) ([]models.Document, error) {
	if _, err := s.visibleIdea(ctx, claims, ideaID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByIdea(ctx, ideaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// GetScanStatus reports the current scan verdict. Responses are cached
// briefly so polling clients do not hammer the database; the cached
// entry keeps the idea's submitter and status so a hit is authorized
// with the same draft rule as a database read.
func (s *DocumentService) GetScanStatus(ctx context.Context, claims *models.JWTClaims, documentID string) (*dto.ScanStatusResponse, error) {
	cacheKey := scanStatusCacheKey(documentID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached scanStatusCacheEntry
			if json.Unmarshal([]byte(raw), &cached) == nil && cached.SubmitterID != "" {
				if cached.IdeaStatus == models.IdeaStatusDraft && cached.SubmitterID != claims.UserID && claims.Role != models.RoleAdmin {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
				}
				return &dto.ScanStatusResponse{ID: cached.ID, Status: cached.Status, Result: cached.Result}, nil
			}
		}
	}

	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	idea, err := s.visibleIdea(ctx, claims, doc.IdeaID)
	if err != nil {
		return nil, err
	}

	status := &dto.ScanStatusResponse{ID: doc.ID, Status: doc.VirusScanStatus, Result: doc.VirusScanResult}
	if s.cache != nil {
		entry := scanStatusCacheEntry{
			ID:          doc.ID,
			Status:      doc.VirusScanStatus,
			Result:      doc.VirusScanResult,
			IdeaID:      doc.IdeaID,
			SubmitterID: idea.SubmitterID,
			IdeaStatus:  idea.Status,
		}
		if raw, err := json.Marshal(entry); err == nil {
			s.cache.Set(ctx, cacheKey, raw, s.cfg.ScanStatusTTL)
		}
	}
	return status, nil
}

// GetDownloadURL issues a time-limited signed link for a clean document.
func (s *DocumentService) GetDownloadURL(ctx context.Context, claims *models.JWTClaims, documentID string) (*dto.DocumentDownloadResponse, error) {
	doc, err := s.getDocument(ctx, claims, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDownloadable(doc); err != nil {
		return nil, err
	}
	token, _, err := s.signer.Generate(doc.ID, doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return &dto.DocumentDownloadResponse{
		Document:    *doc,
		DownloadURL: fmt.Sprintf("%s/documents/download?token=%s", s.cfg.APIPrefix, url.QueryEscape(token)),
	}, nil
}

// Download resolves a signed token and opens the underlying file.
func (s *DocumentService) Download(ctx context.Context, token string) (*DocumentDownload, error) {
	documentID, key, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.FilePath != key {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	if err := s.ensureDownloadable(doc); err != nil {
		return nil, err
	}
	file, err := s.storage.Open(doc.FilePath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document file is no longer available")
	}
	return &DocumentDownload{File: file, FileName: doc.FileName, FileType: doc.FileType, FileSize: doc.FileSize}, nil
}

// Sweep removes documents older than the retention window, object first
// then metadata. Per-record failures are logged and skipped so one bad
// row cannot stall the rest of the batch. Batches are drained until the
// store has no expired rows left.
func (s *DocumentService) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.RetentionWindow)

	removed := 0
	for {
		docs, err := s.repo.ListUploadedBefore(ctx, cutoff, sweepBatchSize)
		if err != nil {
			if removed > 0 {
				s.metrics.RecordSweepRemoved(removed)
			}
			return removed, fmt.Errorf("list expired documents: %w", err)
		}
		if len(docs) == 0 {
			break
		}

		progressed := false
		for _, doc := range docs {
			if err := s.storage.Delete(doc.FilePath); err != nil && !os.IsNotExist(err) {
				s.logger.Sugar().Warnw("failed to delete stored object", "document_id", doc.ID, "key", doc.FilePath, "error", err)
				continue
			}
			if err := s.repo.Delete(ctx, doc.ID); err != nil {
				s.logger.Sugar().Warnw("failed to delete document row", "document_id", doc.ID, "error", err)
				continue
			}
			s.invalidateScanStatus(ctx, doc.ID)
			removed++
			progressed = true
		}
		if len(docs) < sweepBatchSize {
			break
		}
		// Skipped rows stay in the result set; a full batch with no
		// deletions would loop on them forever.
		if !progressed {
			break
		}
	}
	if removed > 0 {
		s.metrics.RecordSweepRemoved(removed)
		s.logger.Sugar().Infow("retention sweep completed", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}

// StartRetentionSweep runs Sweep on a fixed interval until ctx is done.
func (s *DocumentService) StartRetentionSweep(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.Sugar().Errorw("retention sweep failed", "error", err)
				}
			}
		}
	}()
}

func (s *DocumentService) ensureDownloadable(doc *models.Document) error {
	switch doc.VirusScanStatus {
	case models.ScanStatusClean:
		return nil
	case models.ScanStatusInfected:
		return appErrors.ErrVirusDetected
	default:
		return appErrors.Clone(appErrors.ErrConflict, "virus scan is still in progress")
	}
}

func (s *DocumentService) getDocument(ctx context.Context, claims *models.JWTClaims, documentID string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if _, err := s.visibleIdea(ctx, claims, doc.IdeaID); err != nil {
		return nil, err
	}
	return doc, nil
}

// visibleIdea applies the draft visibility rule shared with IdeaService.
func (s *DocumentService) visibleIdea(ctx context.Context, claims *models.JWTClaims, ideaID string) (*models.Idea, error) {
	idea, err := s.ideas.GetByID(ctx, ideaID)
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

func (s *DocumentService) invalidateScanStatus(ctx context.Context, documentID string) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, scanStatusCacheKey(documentID))
}

func scanStatusCacheKey(documentID string) string {
	return "scan_status:" + documentID
}

// sanitizeFileName strips directory components and replaces anything
// outside [A-Za-z0-9._-] so the stored display name is shell safe.
func sanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	safe := unsafeFileChars.ReplaceAllString(base, "_")
	safe = strings.Trim(safe, "._")
	if safe == "" {
		safe = "upload"
	}
	return safe
}
