package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"go-channel-identity/internal/model"
)

// LocalStore keeps media on disk under a single directory and serves them
// from baseURL/<publicID>. It stands in for a remote store in development.
type LocalStore struct {
	validator *PathValidator
	baseURL   string
}

func NewLocalStore(root string, baseURL string) (*LocalStore, error) {
	validator, err := NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}

	return &LocalStore{validator: validator, baseURL: baseURL}, nil
}

func (s *LocalStore) Upload(ctx context.Context, localPath string) (model.MediaRef, error) {
	if err := ctx.Err(); err != nil {
		return model.MediaRef{}, err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("open upload source: %w", err)
	}
	defer src.Close()

	publicID := uuid.NewString()
	target, err := s.validator.ResolveObject(publicID)
	if err != nil {
		return model.MediaRef{}, err
	}

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("create object: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(target)
		return model.MediaRef{}, fmt.Errorf("write object: %w", err)
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(target)
		return model.MediaRef{}, fmt.Errorf("close object: %w", err)
	}

	return model.MediaRef{URL: s.baseURL + "/" + publicID, PublicID: publicID}, nil
}

// Delete is idempotent: removing an object that is already gone succeeds.
func (s *LocalStore) Delete(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.validator.ResolveObject(publicID)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %q: %w", publicID, err)
	}

	return nil
}

// Open returns the stored object for serving. Missing objects map to
// model.ErrObjectNotFound.
func (s *LocalStore) Open(publicID string) (*os.File, error) {
	target, err := s.validator.ResolveObject(publicID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", publicID, err)
	}

	return file, nil
}
