package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockEmbeddingCache struct {
	mock.Mock
}

func (m *MockEmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool) {
	args := m.Called(ctx, model, text)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]float32), args.Bool(1)
}

func (m *MockEmbeddingCache) Set(ctx context.Context, model, text string, vec []float32) {
	m.Called(ctx, model, text, vec)
}
