package summary

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

const geminiPrompt = `Summarize the following transcript excerpt in plain English prose.
Write between %d and %d words. Do not add facts that are not in the excerpt.

Excerpt:
---
%s
---`

// GeminiModel summarizes through the Gemini API. The client is created on
// first use and shared afterwards.
type GeminiModel struct {
	apiKey string
	model  string

	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewGeminiModel(apiKey, model string) *GeminiModel {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiModel{apiKey: apiKey, model: model}
}

func (m *GeminiModel) Name() string {
	return m.model
}

func (m *GeminiModel) getClient(ctx context.Context) (*genai.Client, error) {
	m.once.Do(func() {
		if m.apiKey == "" {
			m.initErr = errors.New("gemini API key is not set")
			return
		}
		m.client, m.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  m.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if m.initErr != nil {
			m.initErr = errors.Wrap(m.initErr, "create gemini client")
			return
		}
		logrus.WithField("model", m.model).Info("Gemini client initialized")
	})
	return m.client, m.initErr
}

func (m *GeminiModel) Summarize(ctx context.Context, text string, opts GenerationOptions) (string, error) {
	client, err := m.getClient(ctx)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(opts.MaxLength * 2),
	}
	if !opts.DoSample {
		cfg.Temperature = genai.Ptr[float32](0)
	}

	prompt := fmt.Sprintf(geminiPrompt, opts.MinLength, opts.MaxLength, text)
	result, err := client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", errors.Wrap(err, "generate content")
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var sb strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
		if summary := strings.TrimSpace(sb.String()); summary != "" {
			return summary, nil
		}
	}

	return "", errors.New("empty response from Gemini")
}
