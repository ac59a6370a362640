package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

// Generate replays the tokens configured via Tokens before returning the
// mocked error, mimicking a streamed completion.
type GeneratorCall struct {
	Tokens []string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, onToken func(token string) error) error {
	args := m.Called(ctx, prompt, onToken)
	if call, ok := args.Get(0).(GeneratorCall); ok {
		for _, tok := range call.Tokens {
			if err := onToken(tok); err != nil {
				return err
			}
		}
		return args.Error(1)
	}
	return args.Error(1)
}
