package summary

import "context"

const (
	DefaultMaxLength = 130
	DefaultMinLength = 30
)

// GenerationOptions bound the length of each generated fragment, measured in
// model tokens. DoSample false selects deterministic decoding.
type GenerationOptions struct {
	MaxLength int
	MinLength int
	DoSample  bool
}

func DefaultOptions() GenerationOptions {
	return GenerationOptions{MaxLength: DefaultMaxLength, MinLength: DefaultMinLength}
}

// Model turns one chunk of text into one summary fragment. Implementations
// must be safe for sequential reuse.
type Model interface {
	Name() string
	Summarize(ctx context.Context, text string, opts GenerationOptions) (string, error)
}

// EchoModel returns its input unchanged. It needs no model weights and is
// used offline and in tests.
type EchoModel struct{}

func (EchoModel) Name() string { return "echo" }

func (EchoModel) Summarize(ctx context.Context, text string, _ GenerationOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, text string, opts GenerationOptions) (string, error)

func (f ModelFunc) Name() string { return "func" }

func (f ModelFunc) Summarize(ctx context.Context, text string, opts GenerationOptions) (string, error) {
	return f(ctx, text, opts)
}
