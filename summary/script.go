package summary

import (
	"context"
	"strconv"
	"strings"

	"github.com/nijaru/yt-summary/scripts"
	"github.com/pkg/errors"
)

const DefaultModelName = "facebook/bart-large-cnn"

type scriptSummarizer interface {
	Summarize(ctx context.Context, text string, opts map[string]string) (scripts.SummaryResult, error)
}

// ScriptModel runs the Hugging Face summarization pipeline through
// summarize.py.
type ScriptModel struct {
	runner    scriptSummarizer
	modelName string
}

func NewScriptModel(runner *scripts.ScriptRunner, modelName string) *ScriptModel {
	if modelName == "" {
		modelName = DefaultModelName
	}
	return &ScriptModel{runner: runner, modelName: modelName}
}

func (m *ScriptModel) Name() string {
	return m.modelName
}

func (m *ScriptModel) Summarize(ctx context.Context, text string, opts GenerationOptions) (string, error) {
	result, err := m.runner.Summarize(ctx, text, map[string]string{
		"model":      m.modelName,
		"max_length": strconv.Itoa(opts.MaxLength),
		"min_length": strconv.Itoa(opts.MinLength),
		"do_sample":  strconv.FormatBool(opts.DoSample),
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(result.Summary)
	if summary == "" {
		return "", errors.New("model returned an empty summary")
	}
	return summary, nil
}
