// Package hooks runs user-configured shell commands at wizard milestones.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/applywiz/internal/logger"
)

// ConfigFileName is the hooks file looked up in the working directory.
const ConfigFileName = ".applywiz.hooks.yml"

// LoadConfig reads the hooks file from workDir. A missing file yields nil
// without error since hooks are optional.
func LoadConfig(workDir string) (*Config, error) {
	path := filepath.Join(workDir, ConfigFileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("No hooks config found at %s", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config: %w", err)
	}
	return &cfg, nil
}

// Variables are expanded in hook commands as {{application_id}},
// {{scholarship_id}} and {{user}}.
type Variables struct {
	ApplicationID string
	ScholarshipID string
	User          string
}

// Execute runs hook through sh and returns what it printed. Command failures
// and timeouts are reported inside the output, not as errors; only
// cancellation of ctx is returned as an error.
func Execute(ctx context.Context, hook *HookConfig, workDir string, vars Variables) (string, error) {
	if hook == nil || hook.Command == "" {
		return "", nil
	}

	command := vars.expand(hook.Command)
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"APPLYWIZ_APPLICATION_ID="+vars.ApplicationID,
		"APPLYWIZ_SCHOLARSHIP_ID="+vars.ScholarshipID,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Executing hook command: %s", command)
	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		logger.Warn("Hook command timed out after %ds: %s", timeout, command)
		return fmt.Sprintf("[Hook timed out after %ds]\n%s", timeout, stdout.String()), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n[stderr]\n" + stderr.String()
	}
	if err != nil {
		logger.Warn("Hook command failed: %v", err)
		return fmt.Sprintf("[Hook command failed: %v]\n%s", err, output), nil
	}
	return output, nil
}

func (v Variables) expand(command string) string {
	return strings.NewReplacer(
		"{{application_id}}", v.ApplicationID,
		"{{scholarship_id}}", v.ScholarshipID,
		"{{user}}", v.User,
	).Replace(command)
}
