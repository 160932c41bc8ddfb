package objstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sharebite/sharebite-bot/domains/media"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// LocalStorage persists blobs under a media directory served as static files
// by the REST layer. Object names are flat; nested paths are rejected so a
// crafted name cannot escape the root.
type LocalStorage struct {
	root    string
	baseURL string
}

var _ media.IObjectStorage = (*LocalStorage)(nil)

func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &LocalStorage{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	if name == "" || name != filepath.Base(name) {
		return pkgError.ValidationError(fmt.Sprintf("invalid object name: %q", name))
	}

	target := filepath.Join(s.root, name)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return pkgError.StorageError(fmt.Sprintf("failed to write object %s: %v", name, err))
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return pkgError.StorageError(fmt.Sprintf("failed to finalize object %s: %v", name, err))
	}
	return nil
}

func (s *LocalStorage) PublicURL(name string) string {
	return fmt.Sprintf("%s/media/%s", s.baseURL, name)
}
