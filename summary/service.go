package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nijaru/yt-summary/chunker"
	"github.com/nijaru/yt-summary/errors"
	"github.com/sirupsen/logrus"
)

type Result struct {
	Summary   string
	Fragments []string
	ModelName string
}

type Service struct {
	model  Model
	opts   GenerationOptions
	logger *logrus.Logger
}

func NewService(model Model, opts GenerationOptions) *Service {
	if opts.MaxLength < 1 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.MinLength < 0 || opts.MinLength > opts.MaxLength {
		opts.MinLength = 0
	}
	return &Service{
		model:  model,
		opts:   opts,
		logger: logrus.StandardLogger(),
	}
}

func (s *Service) ModelName() string {
	return s.model.Name()
}

// Summarize calls the model once per chunk, in order, and joins the
// fragments with single spaces. The first failing chunk aborts the call and
// no partial summary is returned.
func (s *Service) Summarize(ctx context.Context, chunks []chunker.Chunk) (*Result, error) {
	const op = "SummaryService.Summarize"
	logger := s.logger.WithContext(ctx).WithField("model", s.model.Name())

	if len(chunks) == 0 {
		return nil, errors.InvalidInput(op, nil, "Not enough text to summarize")
	}

	start := time.Now()
	fragments := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, errors.SummarizationFailure(op, ctx.Err(),
				fmt.Sprintf("Summarization cancelled before chunk %d", chunk.Index))
		default:
		}

		logger.WithFields(logrus.Fields{
			"chunk":  chunk.Index + 1,
			"total":  len(chunks),
			"length": len(chunk.Content),
		}).Debug("Processing chunk")

		fragment, err := s.model.Summarize(ctx, chunk.Content, s.opts)
		if err != nil {
			logger.WithError(err).WithField("chunk", chunk.Index).Error("Chunk summarization failed")
			return nil, errors.SummarizationFailure(op, err,
				fmt.Sprintf("Failed to summarize chunk %d", chunk.Index))
		}
		fragments = append(fragments, strings.TrimSpace(fragment))
	}

	logger.WithFields(logrus.Fields{
		"chunks":   len(chunks),
		"duration": time.Since(start).String(),
	}).Info("Summary created")

	return &Result{
		Summary:   strings.Join(fragments, " "),
		Fragments: fragments,
		ModelName: s.model.Name(),
	}, nil
}
