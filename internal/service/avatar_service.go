package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"

	"user-account-service/internal/repository"
)

const (
	avatarSize        = 250
	avatarJPEGQuality = 60
	maxAvatarBytes    = 10 << 20
)

var ErrImageProcessing = errors.New("failed to process image")

// AvatarStore persists a processed avatar and returns its public URL or
// relative path.
type AvatarStore interface {
	Save(ctx context.Context, fileName string, file io.Reader, size int64, contentType string) (string, error)
}

type AvatarServiceInterface interface {
	UpdateAvatar(ctx context.Context, userID uint, originalFilename string, file io.Reader) (string, error)
}

// AvatarService normalizes uploaded images to a fixed square JPEG and hands
// them to the configured store.
type AvatarService struct {
	store  AvatarStore
	repo   repository.UserRepository
	logger *slog.Logger
	strict bool
}

func NewAvatarService(store AvatarStore, repo repository.UserRepository, logger *slog.Logger, strict bool) *AvatarService {
	return &AvatarService{store: store, repo: repo, logger: logger, strict: strict}
}

func (s *AvatarService) UpdateAvatar(ctx context.Context, userID uint, originalFilename string, file io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > maxAvatarBytes {
		return "", fmt.Errorf("%w: upload exceeds %d bytes", ErrImageProcessing, maxAvatarBytes)
	}

	payload, contentType, normalized, err := s.normalize(ctx, raw)
	if err != nil {
		return "", err
	}

	fileName := avatarFileName(userID, originalFilename, normalized)
	avatarURL, err := s.store.Save(ctx, fileName, bytes.NewReader(payload), int64(len(payload)), contentType)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetAvatarURL(userID, avatarURL); err != nil {
		return "", err
	}
	return avatarURL, nil
}

// normalize decodes the upload and re-encodes it as a square JPEG. In strict
// mode a decode or encode failure aborts the update; otherwise the original
// bytes are stored unchanged and the failure is only logged.
func (s *AvatarService) normalize(ctx context.Context, raw []byte) (payload []byte, contentType string, normalized bool, err error) {
	img, procErr := imaging.Decode(bytes.NewReader(raw))
	if procErr == nil {
		resized := imaging.Resize(img, avatarSize, avatarSize, imaging.Lanczos)
		var buf bytes.Buffer
		procErr = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(avatarJPEGQuality))
		if procErr == nil {
			return buf.Bytes(), "image/jpeg", true, nil
		}
	}

	if s.strict {
		return nil, "", false, fmt.Errorf("%w: %v", ErrImageProcessing, procErr)
	}
	s.logger.WarnContext(ctx, "avatar normalization failed, storing original upload",
		"error", procErr.Error(),
	)
	return raw, "application/octet-stream", false, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// avatarFileName builds "<userID>_<original>" with unsafe characters
// stripped; normalized uploads always carry a .jpg extension.
func avatarFileName(userID uint, original string, normalized bool) string {
	base := filepath.Base(strings.TrimSpace(original))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "avatar"
	}
	base = unsafeFilenameChars.ReplaceAllString(strings.ReplaceAll(base, " ", "_"), "")
	if base == "" {
		base = "avatar"
	}
	if normalized {
		ext := filepath.Ext(base)
		base = strings.TrimSuffix(base, ext) + ".jpg"
	}
	return fmt.Sprintf("%d_%s", userID, base)
}
