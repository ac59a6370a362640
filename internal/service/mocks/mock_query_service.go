package mocks

import (
	"context"

	"llamabridge/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) Retrieve(ctx context.Context, question string) ([]model.ScoredChunk, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoredChunk), args.Error(1)
}

// GenerateCall configures tokens streamed through onToken before the
// mocked error is returned.
type GenerateCall struct {
	Tokens []string
}

func (m *MockQueryService) Generate(ctx context.Context, question string, relevant []model.ScoredChunk, onToken func(token string) error) error {
	args := m.Called(ctx, question, relevant, onToken)
	if call, ok := args.Get(0).(GenerateCall); ok {
		for _, tok := range call.Tokens {
			if err := onToken(tok); err != nil {
				return err
			}
		}
		return args.Error(1)
	}
	return args.Error(1)
}
