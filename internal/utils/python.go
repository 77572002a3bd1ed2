// Package utils holds the Python runtime plumbing used by the transcript
// fetcher and the yt-dlp metadata provider.
package utils

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

const venvDir = "./venv"

var (
	pythonCommand     string
	pythonCommandOnce sync.Once
	venvMu            sync.Mutex
)

// GetPythonCommand returns the appropriate Python command for the current platform
func GetPythonCommand() string {
	pythonCommandOnce.Do(func() {
		pythonCommand = detectPythonCommand()
	})
	return pythonCommand
}

func detectPythonCommand() string {
	candidates := []string{"python3", "python"}
	if runtime.GOOS == "windows" {
		candidates = []string{"python", "python3"}
	}

	for _, cmd := range candidates {
		if isPythonCommandValid(cmd) {
			return cmd
		}
	}
	return "python3"
}

func isPythonCommandValid(cmd string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, cmd, "--version").Output()
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(output)), "Python 3.")
}

// ValidateSystemDependencies reports missing tools the video flow relies on.
// Each returned entry is a warning: the pipeline still runs without them.
func ValidateSystemDependencies() []string {
	var missing []string

	pythonCmd := GetPythonCommand()
	if !isPythonCommandValid(pythonCmd) {
		missing = append(missing, fmt.Sprintf("python 3 not found (tried: %s); transcripts via youtube-transcript-api disabled", pythonCmd))
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exec.CommandContext(ctx, pythonCmd, "-m", "pip", "--version").Run(); err != nil {
			missing = append(missing, fmt.Sprintf("pip not available with Python command: %s", pythonCmd))
		}
	}

	if _, err := exec.LookPath("yt-dlp"); err != nil {
		missing = append(missing, "yt-dlp not found; video metadata requires YOUTUBE_API_KEY")
	}
	return missing
}

// VenvPython is the interpreter path inside the project virtualenv.
func VenvPython() string {
	if runtime.GOOS == "windows" {
		return venvDir + "/Scripts/python.exe"
	}
	return venvDir + "/bin/python"
}

// EnsureVenvExists creates the virtualenv on first use.
func EnsureVenvExists() error {
	venvMu.Lock()
	defer venvMu.Unlock()

	if _, err := os.Stat(VenvPython()); err == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, GetPythonCommand(), "-m", "venv", venvDir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create virtual environment: %w", err)
	}
	return nil
}

// RunVenvScript runs an inline Python script inside the virtualenv and
// returns its combined output. env entries are added to the inherited
// environment.
func RunVenvScript(ctx context.Context, script string, args []string, env []string) ([]byte, error) {
	if err := EnsureVenvExists(); err != nil {
		return nil, fmt.Errorf("failed to ensure venv exists: %w", err)
	}

	cmd := exec.CommandContext(ctx, VenvPython(), append([]string{"-c", script}, args...)...)
	cmd.Env = append(os.Environ(), env...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("python script failed: %w", err)
	}
	return output, nil
}
