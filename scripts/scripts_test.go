package scripts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePython writes an executable that stands in for the interpreter and a
// placeholder summarize.py next to it.
func fakePython(t *testing.T, body string) Config {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, SummarizeScript), []byte("# placeholder\n"), 0644))

	python := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(python, []byte("#!/bin/sh\n"+body+"\n"), 0755))

	return Config{PythonPath: python, ScriptsPath: dir, Timeout: 10 * time.Second}
}

func TestNewScriptRunnerValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing python", Config{ScriptsPath: dir}},
		{"missing scripts path", Config{PythonPath: "python3"}},
		{"missing directory", Config{PythonPath: "python3", ScriptsPath: filepath.Join(dir, "nope")}},
		{"missing script", Config{PythonPath: "python3", ScriptsPath: dir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScriptRunner(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSummarize(t *testing.T) {
	cfg := fakePython(t, `cat > /dev/null
echo "{\"summary\": \"short version\", \"model_name\": \"$3\"}"`)

	runner, err := NewScriptRunner(cfg)
	require.NoError(t, err)

	result, err := runner.Summarize(context.Background(), "some long text", map[string]string{
		"max_length": "130",
		"min_length": "30",
		"model":      "facebook/bart-large-cnn",
	})
	require.NoError(t, err)
	assert.Equal(t, "short version", result.Summary)
	// Sorted flags: max_length, min_length, model.
	assert.Equal(t, "--min_length=30", result.ModelName)
}

func TestSummarizeReadsStdin(t *testing.T) {
	cfg := fakePython(t, `text=$(cat)
echo "{\"summary\": \"$text\"}"`)

	runner, err := NewScriptRunner(cfg)
	require.NoError(t, err)

	result, err := runner.Summarize(context.Background(), "echoed back", nil)
	require.NoError(t, err)
	assert.Equal(t, "echoed back", result.Summary)
}

func TestSummarizeScriptReportsError(t *testing.T) {
	cfg := fakePython(t, `echo '{"error": "model not found"}'`)

	runner, err := NewScriptRunner(cfg)
	require.NoError(t, err)

	_, err = runner.Summarize(context.Background(), "text", nil)
	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr), "got %v", err)
	assert.Equal(t, "model not found", scriptErr.Message)
}

func TestSummarizeInvalidJSON(t *testing.T) {
	cfg := fakePython(t, `echo 'not json'`)

	runner, err := NewScriptRunner(cfg)
	require.NoError(t, err)

	_, err = runner.Summarize(context.Background(), "text", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse summary result")
}

func TestSummarizeNonZeroExit(t *testing.T) {
	cfg := fakePython(t, `echo "traceback" >&2
exit 1`)

	runner, err := NewScriptRunner(cfg)
	require.NoError(t, err)

	_, err = runner.Summarize(context.Background(), "text", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "traceback")
}

func TestSummarizeTimeout(t *testing.T) {
	cfg := fakePython(t, `exec sleep 5`)
	cfg.Timeout = 50 * time.Millisecond

	runner, err := NewScriptRunner(cfg)
	require.NoError(t, err)

	_, err = runner.Summarize(context.Background(), "text", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestBuildCommandArgs(t *testing.T) {
	args := buildCommandArgs("/s/summarize.py", map[string]string{
		"model":     "m",
		"do_sample": "false",
		"empty":     "",
	})
	assert.Equal(t, []string{"/s/summarize.py", "--do_sample=false", "--model=m", "--json"}, args)
}
