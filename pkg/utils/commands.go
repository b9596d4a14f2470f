package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// CommandError reports a failed external command together with the log
// its stderr was captured to
type CommandError struct {
	Command  string
	ExitCode int
	LogFile  string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d, please check the log file %s", e.Command, e.ExitCode, e.LogFile)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// CheckToolAvailable checks that an executable can be found
func CheckToolAvailable(tool string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", fmt.Errorf("%s not found or not executable: %w", tool, err)
	}
	return path, nil
}

// RunCommandWithLog runs an external command, capturing its stderr into logFile
func RunCommandWithLog(ctx context.Context, logFile string, name string, args ...string) error {
	logf, err := os.Create(logFile) // #nosec G304 - log path comes from the run layout
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", logFile, err)
	}
	defer logf.Close()

	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 - tool path is configured by the user
	cmd.Stdout = os.Stdout
	cmd.Stderr = logf

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &CommandError{Command: name, ExitCode: exitCode, LogFile: logFile, Err: err}
	}
	return nil
}
