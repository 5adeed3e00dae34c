package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/storage"
)

type downloadStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// DownloadConfig tunes staged downloads.
type DownloadConfig struct {
	// URLPrefix is prepended to "/downloads/<token>".
	URLPrefix string
	TTL       time.Duration
}

// StagedDownload is the transient reference handed to the presentation layer.
type StagedDownload struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	Size      int       `json:"size"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DeliverFunc writes the staged file to its destination.
type DeliverFunc func(file *os.File, filename, contentType string) error

// DownloadService turns export blobs into short-lived download references and
// guarantees the backing file is released once used or expired.
type DownloadService struct {
	storage downloadStorage
	signer  *storage.SignedURLSigner
	cfg     DownloadConfig
	metrics *MetricsService
	logger  *zap.Logger

	claimMu sync.Mutex
	claimed map[string]struct{}
}

// NewDownloadService constructs a DownloadService.
func NewDownloadService(store downloadStorage, signer *storage.SignedURLSigner, cfg DownloadConfig, metrics *MetricsService, logger *zap.Logger) *DownloadService {
	if cfg.TTL <= 0 {
		cfg.TTL = signer.TTL()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadService{
		storage: store,
		signer:  signer,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		claimed: make(map[string]struct{}),
	}
}

// Stage stores blob under a fresh handle and returns a signed reference to it.
func (s *DownloadService) Stage(blob *models.Blob) (*StagedDownload, error) {
	if blob == nil {
		return nil, fmt.Errorf("stage download: nil blob")
	}
	filename := path.Base(strings.ReplaceAll(blob.Filename, "\\", "/"))
	if filename == "" || filename == "." || filename == "/" {
		filename = "download.bin"
	}

	handle := uuid.NewString()
	relPath, err := s.storage.Save(handle+"/"+filename, blob.Data)
	if err != nil {
		return nil, fmt.Errorf("stage download: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(handle, relPath)
	if err != nil {
		s.release(relPath, "stage_failed")
		return nil, fmt.Errorf("sign download: %w", err)
	}
	s.metrics.DownloadStaged()

	prefix := strings.TrimRight(s.cfg.URLPrefix, "/")
	return &StagedDownload{
		Token:     token,
		URL:       fmt.Sprintf("%s/downloads/%s", prefix, token),
		Filename:  filename,
		Size:      len(blob.Data),
		ExpiresAt: expiresAt,
	}, nil
}

// Deliver resolves token, passes the file to write and always releases it
// afterwards, whether write succeeds or not. A download can be delivered once.
func (s *DownloadService) Deliver(token string, write DeliverFunc) error {
	parsed, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			s.release(parsed.Path, "expired")
			return appErrors.Clone(appErrors.ErrNotFound, "download expired")
		}
		return appErrors.Clone(appErrors.ErrNotFound, "download not found")
	}

	if !s.claim(parsed.Handle) {
		return appErrors.Clone(appErrors.ErrNotFound, "download not found")
	}
	defer s.unclaim(parsed.Handle)

	file, err := s.storage.Open(parsed.Path)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download not found")
	}
	defer s.release(parsed.Path, "delivered")
	defer file.Close() //nolint:errcheck

	filename := path.Base(parsed.Path)
	return write(file, filename, models.ContentTypeForFilename(filename))
}

// Cleanup removes staged files that outlived the TTL.
func (s *DownloadService) Cleanup() ([]string, error) {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.TTL)
	if err != nil {
		return nil, err
	}
	for range deleted {
		s.metrics.DownloadReleased("expired")
	}
	if len(deleted) > 0 {
		s.logger.Info("expired downloads removed", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

// Run calls Cleanup every interval until ctx is done.
func (s *DownloadService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(); err != nil {
				s.logger.Warn("download cleanup failed", zap.Error(err))
			}
		}
	}
}

// claim marks handle as being delivered. Only the first caller wins; the
// claim is dropped after the file has been released.
func (s *DownloadService) claim(handle string) bool {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()
	if _, taken := s.claimed[handle]; taken {
		return false
	}
	s.claimed[handle] = struct{}{}
	return true
}

func (s *DownloadService) unclaim(handle string) {
	s.claimMu.Lock()
	delete(s.claimed, handle)
	s.claimMu.Unlock()
}

func (s *DownloadService) release(relPath, reason string) {
	if relPath == "" {
		return
	}
	if err := s.storage.Delete(relPath); err != nil {
		s.logger.Warn("release download failed", zap.String("path", relPath), zap.Error(err))
		return
	}
	s.metrics.DownloadReleased(reason)
}
