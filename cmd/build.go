package cmd

import (
	"github.com/nijaru/yt-summary/chunker"
	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/db"
	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/pipeline"
	"github.com/nijaru/yt-summary/scripts"
	"github.com/nijaru/yt-summary/summary"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/sirupsen/logrus"
)

// newModel picks the summarization backend named by cfg.Summarizer.
func newModel(cfg *config.Config) (summary.Model, error) {
	const op = "cmd.newModel"

	switch cfg.Summarizer {
	case config.SummarizerScript:
		runner, err := scripts.NewScriptRunner(scripts.Config{
			PythonPath:  cfg.PythonPath,
			ScriptsPath: cfg.ScriptsPath,
			Timeout:     cfg.SummarizeTimeout,
		})
		if err != nil {
			return nil, err
		}
		return summary.NewScriptModel(runner, cfg.ModelName), nil
	case config.SummarizerGemini:
		return summary.NewGeminiModel(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case config.SummarizerEcho:
		return summary.EchoModel{}, nil
	}
	return nil, errors.InvalidInput(op, nil, "Unknown summarizer "+cfg.Summarizer)
}

// newPipeline wires the pipeline from cfg. The returned close function
// releases the cache and is never nil.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	model, err := newModel(cfg)
	if err != nil {
		return nil, nil, err
	}

	service := summary.NewService(model, summary.GenerationOptions{
		MaxLength: cfg.SummaryMaxLength,
		MinLength: cfg.SummaryMinLength,
	})
	c := chunker.New(chunker.Config{
		MaxLength: cfg.MaxChunkLength,
		MinLength: cfg.MinChunkLength,
	})

	opts := []pipeline.Option{pipeline.WithMaxUploadSize(cfg.MaxUploadSize)}
	closeFn := func() {}

	if cfg.CacheEnabled {
		store, err := db.InitializeDB(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithCache(store))
		closeFn = func() {
			if err := store.Close(); err != nil {
				logrus.WithError(err).Error("Failed to close database")
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"summarizer": cfg.Summarizer,
		"model":      model.Name(),
		"cache":      cfg.CacheEnabled,
	}).Debug("Pipeline configured")

	return pipeline.New(transcript.NewClient(cfg.TranscriptLanguages), c, service, opts...), closeFn, nil
}
