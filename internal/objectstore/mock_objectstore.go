package objectstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"go-channel-identity/internal/model"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, localPath string) (model.MediaRef, error) {
	args := m.Called(ctx, localPath)
	return args.Get(0).(model.MediaRef), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}
