// Package coqui implements the voice-cloning port by shelling out to the
// Coqui TTS CLI with an XTTS v2 model, which performs zero-shot multilingual
// voice cloning from a short reference clip.
package coqui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const DefaultModel = "tts_models/multilingual/multi-dataset/xtts_v2"

// Reference clips shorter than this degrade cloning quality. The adapter
// does not reject them; the orchestrator logs a warning instead.
const MinReferenceSeconds = 6

type Adapter struct {
	bin   string
	model string

	// runner overrides command execution in tests.
	runner func(ctx context.Context, name string, args ...string) error
}

func New(binPath, model string) *Adapter {
	if binPath == "" {
		binPath = "tts"
	}
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{bin: binPath, model: model}
}

// WithRunner sets a custom command runner (for testing).
func (a *Adapter) WithRunner(runner func(ctx context.Context, name string, args ...string) error) {
	a.runner = runner
}

// Synthesize renders text in the voice of referenceWav and writes outWav,
// returning its absolute path.
func (a *Adapter) Synthesize(ctx context.Context, text, referenceWav, lang, outWav string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("tts: text must not be empty")
	}
	if _, err := os.Stat(referenceWav); err != nil {
		return "", fmt.Errorf("tts: reference audio: %w", err)
	}

	args := []string{
		"--text", text,
		"--model_name", a.model,
		"--speaker_wav", referenceWav,
		"--language_idx", lang,
		"--out_path", outWav,
	}
	if err := a.run(ctx, a.bin, args...); err != nil {
		return "", err
	}
	if _, err := os.Stat(outWav); err != nil {
		return "", fmt.Errorf("tts: no output written: %w", err)
	}
	return filepath.Abs(outWav)
}

func (a *Adapter) run(ctx context.Context, name string, args ...string) error {
	if a.runner != nil {
		return a.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tts failed: %w\n%s", err, strings.TrimSpace(string(b)))
	}
	return nil
}
