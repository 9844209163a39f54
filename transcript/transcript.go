package transcript

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrNoTranscript        = errors.New("no transcript found in the requested languages")
)

// Entry is one caption line. Start and Duration are in seconds.
type Entry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type Source interface {
	Fetch(ctx context.Context, videoID string) ([]Entry, error)
}

// FetchError covers every failure that is not one of the sentinel errors.
type FetchError struct {
	VideoID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not retrieve a transcript for %s: %v", e.VideoID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// JoinText returns the caption texts joined by single spaces.
func JoinText(entries []Entry) string {
	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		texts = append(texts, entry.Text)
	}
	return strings.Join(texts, " ")
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, videoID string) ([]Entry, error)

func (f SourceFunc) Fetch(ctx context.Context, videoID string) ([]Entry, error) {
	return f(ctx, videoID)
}
