// Package whispercli implements the transcription port by shelling out to
// the OpenAI Whisper CLI, which writes a timestamped JSON transcript and
// auto-detects the spoken language.
package whispercli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dubalot/dubalot/internal/types"
)

const DefaultModel = "base"

// ValidModels are the Whisper model sizes the CLI accepts.
var ValidModels = []string{"tiny", "base", "small", "medium", "large"}

type Adapter struct {
	bin   string
	model string
}

func New(binPath, model string) *Adapter {
	if binPath == "" {
		binPath = "whisper"
	}
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{bin: binPath, model: model}
}

// Transcribe runs Whisper over audioPath and parses the JSON it writes into
// workDir.
func (a *Adapter) Transcribe(ctx context.Context, audioPath, workDir string) (types.Transcript, error) {
	cmd := exec.CommandContext(ctx, a.bin,
		audioPath,
		"--model", a.model,
		"--task", "transcribe",
		"--output_format", "json",
		"--output_dir", workDir,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper failed: %w\n%s", err, string(b))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jb, err := os.ReadFile(filepath.Join(workDir, base+".json"))
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}
	return Parse(jb)
}

type rawResult struct {
	Language string       `json:"language"`
	Segments []rawSegment `json:"segments"`
}

type rawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Parse converts Whisper's JSON output into a Transcript. Zero-width
// segments are dropped; the engine occasionally emits them around silence.
func Parse(data []byte) (types.Transcript, error) {
	var raw rawResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper output: %w", err)
	}

	tr := types.Transcript{Language: raw.Language}
	for _, seg := range raw.Segments {
		if seg.End <= seg.Start {
			continue
		}
		tr.Segments = append(tr.Segments, types.Segment{
			Start: dur(seg.Start),
			End:   dur(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return tr, nil
}

func dur(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
