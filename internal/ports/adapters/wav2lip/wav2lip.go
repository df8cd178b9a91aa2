// Package wav2lip implements the lip-animation port by invoking the Wav2Lip
// inference script as a bounded subprocess. The invocation is opaque: any
// process error, non-zero exit, timeout, or missing output file is reported
// uniformly so the lip-sync engine can route to its fallback.
package wav2lip

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Minute

type Adapter struct {
	python     string
	script     string
	checkpoint string
	timeout    time.Duration

	// runner overrides command execution in tests.
	runner func(ctx context.Context, name string, args ...string) error
}

func New(pythonPath, scriptPath, checkpointPath string, timeout time.Duration) *Adapter {
	if pythonPath == "" {
		pythonPath = "python"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		python:     pythonPath,
		script:     scriptPath,
		checkpoint: checkpointPath,
		timeout:    timeout,
	}
}

// WithRunner sets a custom command runner (for testing).
func (a *Adapter) WithRunner(runner func(ctx context.Context, name string, args ...string) error) {
	a.runner = runner
}

// Configured reports whether both the inference script and the checkpoint
// exist on disk. A missing pair is normal path selection, not an error.
func (a *Adapter) Configured() bool {
	if a.script == "" || a.checkpoint == "" {
		return false
	}
	if _, err := os.Stat(a.script); err != nil {
		return false
	}
	if _, err := os.Stat(a.checkpoint); err != nil {
		return false
	}
	return true
}

// Animate runs Wav2Lip inference and verifies it wrote outVideo. The call is
// bounded by the adapter's timeout regardless of the parent context.
func (a *Adapter) Animate(ctx context.Context, inVideo, inAudio, outVideo string) error {
	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := []string{
		a.script,
		"--checkpoint_path", a.checkpoint,
		"--face", inVideo,
		"--audio", inAudio,
		"--outfile", outVideo,
	}
	if err := a.run(runCtx, a.python, args...); err != nil {
		return err
	}
	if _, err := os.Stat(outVideo); err != nil {
		return fmt.Errorf("wav2lip: no output written: %w", err)
	}
	return nil
}

func (a *Adapter) run(ctx context.Context, name string, args ...string) error {
	if a.runner != nil {
		if err := a.runner(ctx, name, args...); err != nil {
			return fmt.Errorf("wav2lip inference: %w", err)
		}
		return nil
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wav2lip inference: %w\n%s", err, strings.TrimSpace(string(b)))
	}
	return nil
}
