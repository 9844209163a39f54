package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nijaru/yt-summary/alignment"
	"github.com/nijaru/yt-summary/chunker"
	"github.com/nijaru/yt-summary/db"
	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/summary"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/nijaru/yt-summary/utils"
	"github.com/nijaru/yt-summary/validation"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultMaxUploadSize = 5 << 20

type SourceKind string

const (
	SourceYouTube SourceKind = "youtube"
	SourceText    SourceKind = "text"
	SourceUpload  SourceKind = "upload"
)

// Request is one user submission. A non-empty Upload wins over Input.
// Refresh drops any cached summary and summarizes again.
type Request struct {
	Input      string
	Upload     []byte
	UploadName string
	Timestamps bool
	Refresh    bool
}

type Result struct {
	Source     SourceKind
	VideoID    string
	Transcript string
	Cleaned    string
	Summary    string
	Sentences  []alignment.Sentence
	Cached     bool
}

// Cache stores finished summaries. GetSummary reports a miss with a
// NotFound error.
type Cache interface {
	GetSummary(ctx context.Context, key db.Key) (string, error)
	SetSummary(ctx context.Context, key db.Key, summary string) error
	DeleteSummary(ctx context.Context, key db.Key) error
}

type Pipeline struct {
	source        transcript.Source
	chunker       *chunker.Chunker
	summarizer    *summary.Service
	cache         Cache
	maxUploadSize int64
	logger        *logrus.Logger
}

type Option func(*Pipeline)

func WithCache(cache Cache) Option {
	return func(p *Pipeline) {
		p.cache = cache
	}
}

func WithMaxUploadSize(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxUploadSize = n
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func New(source transcript.Source, c *chunker.Chunker, summarizer *summary.Service, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:        source,
		chunker:       c,
		summarizer:    summarizer,
		maxUploadSize: DefaultMaxUploadSize,
		logger:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) MaxUploadSize() int64 {
	return p.maxUploadSize
}

// Run executes one synchronous pass: resolve the input, fetch captions for
// URLs, normalize, chunk, summarize and, for videos, align timestamps.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	const op = "pipeline.Run"
	start := time.Now()

	result, entries, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	logger := p.logger.WithContext(ctx).WithFields(logrus.Fields{
		"source":   result.Source,
		"video_id": result.VideoID,
	})

	result.Cleaned = utils.NormalizeText(result.Transcript)
	if result.Cleaned == "" {
		return nil, errors.InvalidInput(op, nil, "The transcript is empty")
	}

	summaryText, cached, err := p.summarize(ctx, logger, result.Cleaned, req.Refresh)
	if err != nil {
		return nil, err
	}
	result.Summary = summaryText
	result.Cached = cached

	if req.Timestamps && result.Source == SourceYouTube {
		result.Sentences = alignment.Align(entries, result.Transcript, result.Summary)
	}

	logger.WithFields(logrus.Fields{
		"cached":   cached,
		"duration": time.Since(start).String(),
	}).Info("Pipeline completed")

	return result, nil
}

func (p *Pipeline) resolve(ctx context.Context, req Request) (*Result, []transcript.Entry, error) {
	const op = "pipeline.resolve"

	if len(req.Upload) > 0 {
		if int64(len(req.Upload)) > p.maxUploadSize {
			return nil, nil, errors.InvalidInput(op, nil, "The uploaded file is too large")
		}
		if !utf8.Valid(req.Upload) {
			return nil, nil, errors.InvalidInput(op, nil, "The uploaded file is not valid UTF-8 text")
		}
		p.logger.WithField("file", req.UploadName).Debug("Using uploaded transcript")
		return &Result{Source: SourceUpload, Transcript: string(req.Upload)}, nil, nil
	}

	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil, nil, errors.InvalidInput(op, nil, "Enter a YouTube URL or paste a transcript")
	}

	if !validation.IsYouTubeURL(input) {
		return &Result{Source: SourceText, Transcript: req.Input}, nil, nil
	}

	videoID, err := validation.VideoIDFromURL(validation.WithScheme(input))
	if err != nil {
		return nil, nil, errors.InvalidURL(op, err, "Invalid YouTube URL")
	}

	entries, err := p.source.Fetch(ctx, videoID)
	if err != nil {
		return nil, nil, transcriptError(op, err)
	}

	return &Result{
		Source:     SourceYouTube,
		VideoID:    videoID,
		Transcript: transcript.JoinText(entries),
	}, entries, nil
}

func transcriptError(op string, err error) error {
	switch {
	case pkgerrors.Is(err, transcript.ErrTranscriptsDisabled):
		return errors.TranscriptUnavailable(op, err, "Transcripts are disabled for this video.")
	case pkgerrors.Is(err, transcript.ErrNoTranscript):
		return errors.TranscriptUnavailable(op, err, "No transcript found for this video.")
	case pkgerrors.Is(err, context.Canceled), pkgerrors.Is(err, context.DeadlineExceeded):
		return errors.TranscriptUnavailable(op, err, "Fetching the transcript timed out.")
	}

	var fetchErr *transcript.FetchError
	if pkgerrors.As(err, &fetchErr) {
		return errors.TranscriptUnavailable(op, err, "Could not fetch the transcript: "+fetchErr.Err.Error())
	}
	return errors.TranscriptUnavailable(op, err, "Could not fetch the transcript: "+err.Error())
}

func (p *Pipeline) summarize(ctx context.Context, logger *logrus.Entry, cleaned string, refresh bool) (string, bool, error) {
	cfg := p.chunker.Config()
	key := db.NewKey(cleaned, p.summarizer.ModelName(), cfg.MaxLength, cfg.MinLength)

	switch {
	case p.cache == nil:
	case refresh:
		if err := p.cache.DeleteSummary(ctx, key); err != nil {
			logger.WithError(err).Warn("Failed to drop cached summary")
		}
	default:
		cachedSummary, err := p.cache.GetSummary(ctx, key)
		switch {
		case err == nil:
			logger.Info("Summary found in cache")
			return cachedSummary, true, nil
		case !errors.IsNotFound(err):
			logger.WithError(err).Warn("Failed to read summary cache")
		}
	}

	chunks := p.chunker.Chunk(cleaned)
	logger.WithField("chunks", len(chunks)).Debug("Text chunked")

	res, err := p.summarizer.Summarize(ctx, chunks)
	if err != nil {
		return "", false, err
	}

	if p.cache != nil {
		if err := p.cache.SetSummary(ctx, key, res.Summary); err != nil {
			logger.WithError(err).Warn("Failed to save summary to cache")
		}
	}

	return res.Summary, false, nil
}
