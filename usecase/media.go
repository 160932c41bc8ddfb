package usecase

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domainMedia "github.com/sharebite/sharebite-bot/domains/media"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

const (
	// maxTransferAttempts bounds the whole resolve-download-upload cycle.
	maxTransferAttempts = 3
	// maxUploadAttempts bounds the storage write inside one cycle.
	maxUploadAttempts = 2

	uploadRetryPause = time.Second
	thumbnailWidth   = 320
)

type mediaService struct {
	api         domainMedia.IFileAPI
	store       domainMedia.IObjectStorage
	maxFileSize int64

	sleep func(time.Duration)
	now   func() time.Time
}

func NewMediaService(api domainMedia.IFileAPI, store domainMedia.IObjectStorage, maxFileSize int64) domainMedia.ITransferUsecase {
	return &mediaService{
		api:         api,
		store:       store,
		maxFileSize: maxFileSize,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// TransferPhoto resolves a platform file reference and moves the bytes into
// durable storage, returning the public URL. Transient failures are retried
// with linear backoff; validation failures (oversized file) are terminal.
// Callers treat any error as "continue without an image".
func (s *mediaService) TransferPhoto(ctx context.Context, fileRef, ownerID string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxTransferAttempts; attempt++ {
		if attempt > 1 {
			s.sleep(time.Duration(attempt-1) * time.Second)
		}

		url, err := s.transferOnce(ctx, fileRef, ownerID, attempt)
		if err == nil {
			return url, nil
		}
		if pkgError.IsClientFault(err) {
			// Oversized or malformed references fail the same way forever.
			return "", err
		}

		lastErr = err
		logrus.WithFields(logrus.Fields{
			"file_ref": fileRef,
			"owner_id": ownerID,
			"attempt":  attempt,
			"error":    err,
		}).Warn("[MEDIA] transfer attempt failed")
	}

	return "", pkgError.InternalServerError(fmt.Sprintf("file transfer exhausted %d attempts: %v", maxTransferAttempts, lastErr))
}

func (s *mediaService) transferOnce(ctx context.Context, fileRef, ownerID string, attempt int) (string, error) {
	info, err := s.api.GetFile(ctx, fileRef)
	if err != nil {
		return "", err
	}

	if info.FileSize > s.maxFileSize {
		return "", pkgError.ValidationError(fmt.Sprintf(
			"file %s is %s, exceeds the %s cap",
			fileRef, humanize.Bytes(uint64(info.FileSize)), humanize.Bytes(uint64(s.maxFileSize)),
		))
	}

	data, err := s.api.DownloadFile(ctx, info.FilePath)
	if err != nil {
		return "", err
	}

	if int64(len(data)) != info.FileSize {
		logrus.WithFields(logrus.Fields{
			"file_ref": fileRef,
			"expected": humanize.Bytes(uint64(info.FileSize)),
			"actual":   humanize.Bytes(uint64(len(data))),
		}).Warn("[MEDIA] downloaded size differs from metadata")
	}

	name := s.objectName(ownerID, info.FilePath)
	contentType := http.DetectContentType(data)

	if err := s.uploadWithRetry(ctx, name, data, contentType); err != nil {
		return "", err
	}

	s.storeThumbnail(ctx, name, data)

	logrus.WithFields(logrus.Fields{
		"file_ref": fileRef,
		"owner_id": ownerID,
		"object":   name,
		"size":     humanize.Bytes(uint64(len(data))),
		"attempt":  attempt,
	}).Info("[MEDIA] transfer complete")

	return s.store.PublicURL(name), nil
}

func (s *mediaService) uploadWithRetry(ctx context.Context, name string, data []byte, contentType string) error {
	var lastErr error
	for attempt := 1; attempt <= maxUploadAttempts; attempt++ {
		if attempt > 1 {
			s.sleep(uploadRetryPause)
		}
		if lastErr = s.store.Upload(ctx, name, data, contentType); lastErr == nil {
			return nil
		}
		logrus.Warnf("[MEDIA] upload attempt %d for %s failed: %v", attempt, name, lastErr)
	}
	return lastErr
}

// storeThumbnail keeps a small rendition next to the original. Best effort:
// non-image payloads and encode failures are logged and skipped.
func (s *mediaService) storeThumbnail(ctx context.Context, name string, data []byte) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		logrus.Debugf("[MEDIA] skipping thumbnail for %s: %v", name, err)
		return
	}

	resized := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG); err != nil {
		logrus.Warnf("[MEDIA] failed to encode thumbnail for %s: %v", name, err)
		return
	}

	thumbName := strings.TrimSuffix(name, filepath.Ext(name)) + "_thumb.jpg"
	if err := s.store.Upload(ctx, thumbName, buf.Bytes(), "image/jpeg"); err != nil {
		logrus.Warnf("[MEDIA] failed to store thumbnail %s: %v", thumbName, err)
	}
}

// objectName builds a collision-resistant destination name:
// {ownerId}_{timestamp}_{random}.{ext}
func (s *mediaService) objectName(ownerID, filePath string) string {
	ext := filepath.Ext(filePath)
	if ext == "" {
		ext = ".jpg"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s%s", ownerID, s.now().UnixMilli(), random, ext)
}
