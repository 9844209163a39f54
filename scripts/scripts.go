package scripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const SummarizeScript = "summarize.py"

// Config holds the configuration for the ScriptRunner
type Config struct {
	PythonPath  string
	ScriptsPath string
	Timeout     time.Duration
	Environment []string
}

// SummaryResult is the JSON document printed by summarize.py
type SummaryResult struct {
	Summary   string      `json:"summary"`
	ModelName string      `json:"model_name"`
	Metadata  SummaryMeta `json:"metadata"`
	Error     string      `json:"error,omitempty"`
}

type SummaryMeta struct {
	OriginalLength int     `json:"original_length"`
	SummaryLength  int     `json:"summary_length"`
	Ratio          float64 `json:"ratio"`
}

type ScriptRunner struct {
	config Config
	logger *logrus.Logger
}

func NewScriptRunner(cfg Config) (*ScriptRunner, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &ScriptRunner{
		config: cfg,
		logger: logrus.StandardLogger(),
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.PythonPath == "" {
		return errors.New("python path is required")
	}
	if cfg.ScriptsPath == "" {
		return errors.New("scripts path is required")
	}

	if _, err := os.Stat(cfg.ScriptsPath); os.IsNotExist(err) {
		return errors.Errorf("scripts directory does not exist: %s", cfg.ScriptsPath)
	}

	path := filepath.Join(cfg.ScriptsPath, SummarizeScript)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.Errorf("required script not found: %s", path)
	}

	return nil
}

// Summarize pipes text to summarize.py on stdin and decodes its JSON result.
// A result carrying an error field is returned as a ScriptError.
func (r *ScriptRunner) Summarize(ctx context.Context, text string, opts map[string]string) (SummaryResult, error) {
	const op = "ScriptRunner.Summarize"

	var result SummaryResult

	output, err := r.runScript(ctx, SummarizeScript, opts, text)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal(output, &result); err != nil {
		r.logger.WithError(err).WithField("output", string(output)).Error("Failed to parse summary result")
		return result, newScriptError(op, SummarizeScript, err, "failed to parse summary result")
	}

	if result.Error != "" {
		return result, newScriptError(op, SummarizeScript, nil, result.Error)
	}

	return result, nil
}

func (r *ScriptRunner) runScript(ctx context.Context, scriptName string, args map[string]string, stdin string) ([]byte, error) {
	const op = "ScriptRunner.runScript"

	scriptPath := filepath.Join(r.config.ScriptsPath, scriptName)
	logger := r.logger.WithFields(logrus.Fields{
		"scriptPath": scriptPath,
		"scriptName": scriptName,
		"args":       args,
	})

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	cmdArgs := buildCommandArgs(scriptPath, args)

	logger.WithFields(logrus.Fields{
		"command": r.config.PythonPath,
		"args":    cmdArgs,
		"dir":     r.config.ScriptsPath,
	}).Debug("Executing command")

	cmd := exec.CommandContext(ctx, r.config.PythonPath, cmdArgs...)
	cmd.Env = append(os.Environ(), r.config.Environment...)
	cmd.Dir = r.config.ScriptsPath
	cmd.Stdin = strings.NewReader(stdin)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, newScriptError(op, scriptName, ctx.Err(), "script cancelled")
		}
		stderrOutput := stderr.String()
		logger.WithFields(logrus.Fields{
			"error":  err,
			"stderr": stderrOutput,
			"stdout": stdout.String(),
		}).Error("Script execution failed")
		return nil, newScriptError(op, scriptName, err, fmt.Sprintf("script execution failed (stderr: %s)", strings.TrimSpace(stderrOutput)))
	}

	logger.WithField("duration", time.Since(start).String()).Debug("Script finished")
	return stdout.Bytes(), nil
}

// buildCommandArgs sorts the named flags so the command line is stable.
func buildCommandArgs(scriptPath string, args map[string]string) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmdArgs := []string{scriptPath}
	for _, k := range keys {
		if v := args[k]; v != "" {
			cmdArgs = append(cmdArgs, fmt.Sprintf("--%s=%s", k, v))
		}
	}
	return append(cmdArgs, "--json")
}
