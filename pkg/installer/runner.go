package installer

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// NewExecRunner returns the command runner backed by os/exec.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

type ExecRunner struct {
	logger *slog.Logger
}

func (r *ExecRunner) Run(dir string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	r.logger.Info("running", "command", cmd.String())
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", cmd.String(), err, output)
	}
	return nil
}

func (r *ExecRunner) Output(dir string, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	r.logger.Info("running", "command", cmd.String())
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd.String(), err)
	}
	return strings.TrimSpace(string(output)), nil
}
