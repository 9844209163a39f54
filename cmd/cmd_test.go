package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/summary"
	"github.com/sirupsen/logrus"
)

func TestNewModel(t *testing.T) {
	cfg := config.Default()

	cfg.Summarizer = config.SummarizerEcho
	model, err := newModel(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := model.(summary.EchoModel); !ok {
		t.Errorf("expected EchoModel, got %T", model)
	}

	cfg.Summarizer = config.SummarizerGemini
	cfg.GeminiAPIKey = "key"
	model, err = newModel(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Name() != cfg.GeminiModel {
		t.Errorf("expected model %q, got %q", cfg.GeminiModel, model.Name())
	}

	cfg.Summarizer = config.SummarizerScript
	cfg.ScriptsPath = filepath.Join(t.TempDir(), "missing")
	if _, err := newModel(cfg); err == nil {
		t.Error("expected error for missing scripts directory")
	}

	cfg.Summarizer = "bogus"
	if _, err := newModel(cfg); err == nil {
		t.Error("expected error for unknown summarizer")
	}
}

func TestNewPipelineWithCache(t *testing.T) {
	cfg := config.Default()
	cfg.Summarizer = config.SummarizerEcho
	cfg.CacheEnabled = true
	cfg.DBPath = filepath.Join(t.TempDir(), "cache.db")

	p, closeFn, err := newPipeline(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	if p.MaxUploadSize() != cfg.MaxUploadSize {
		t.Errorf("expected max upload size %d, got %d", cfg.MaxUploadSize, p.MaxUploadSize())
	}
}

func TestSummarizeCommand(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SUMMARIZER", "echo")
	t.Setenv("MIN_CHUNK_LENGTH", "0")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("LOG_DIR", "")
	t.Setenv("LOG_LEVEL", "info")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	defer logrus.SetOutput(os.Stdout)
	rootCmd.SetArgs([]string{"summarize", "[Music] Pasted text. Another sentence."})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v (stderr %q)", err, errOut.String())
	}

	want := "Transcript:\nPasted text. Another sentence.\n\nSummary:\nPasted text. Another sentence.\n"
	if out.String() != want {
		t.Errorf("expected output %q, got %q", want, out.String())
	}
	if !strings.Contains(errOut.String(), "Pipeline completed") {
		t.Errorf("expected logs on stderr, got %q", errOut.String())
	}
}

func TestSummarizeCommandReportsError(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SUMMARIZER", "echo")
	t.Setenv("LOG_DIR", "")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	defer logrus.SetOutput(os.Stdout)
	rootCmd.SetArgs([]string{"summarize", "https://www.youtube.com/feed/trending"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != errSilent {
		t.Fatalf("expected errSilent, got %v", err)
	}
	if !strings.HasSuffix(errOut.String(), "Error: Invalid YouTube URL\n") {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
}
