// Package ffmpeg implements the media I/O port on top of the ffmpeg and
// ffprobe command-line tools.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dubalot/dubalot/internal/types"
	"github.com/dubalot/dubalot/internal/wavio"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudio(ctx context.Context, inVideo, outWav string, sampleRate int) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inVideo,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ReplaceAudio(ctx context.Context, inVideo, inAudio, outVideo string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inVideo,
		"-i", inAudio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outVideo,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg replace audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) Trim(ctx context.Context, in string, start, end time.Duration, out string) error {
	args := []string{
		"-y",
		"-ss", fmtSeconds(start),
	}
	if end > 0 {
		args = append(args, "-to", fmtSeconds(end))
	}
	args = append(args, "-i", in)
	if isWav(out) {
		args = append(args, "-f", "wav")
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, out)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg trim: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// LoadClip decodes an audio file into mono samples at sampleRate. Synthesis
// engines emit their own native rates, so the file is first passed through
// ffmpeg when its rate or channel layout differs.
func (a *Adapter) LoadClip(ctx context.Context, in string, sampleRate int) (types.SynthesizedClip, error) {
	clip, err := wavio.Read(in)
	if err == nil && clip.SampleRate == sampleRate {
		return clip, nil
	}

	converted := strings.TrimSuffix(in, filepath.Ext(in)) + ".norm.wav"
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "wav",
		converted,
	)
	if b, cerr := cmd.CombinedOutput(); cerr != nil {
		return types.SynthesizedClip{}, fmt.Errorf("ffmpeg resample clip: %w\n%s", cerr, string(b))
	}
	clip, err = wavio.Read(converted)
	if err != nil {
		return types.SynthesizedClip{}, err
	}
	if clip.SampleRate != sampleRate {
		return types.SynthesizedClip{}, fmt.Errorf("resampled clip %s has rate %d, want %d", converted, clip.SampleRate, sampleRate)
	}
	return clip, nil
}

// MixAudio layers speech over the attenuated background. duration=first
// keeps the result exactly as long as the speech track; normalize=0 stops
// amix from halving both inputs.
func (a *Adapter) MixAudio(ctx context.Context, speech, background string, gain float64, out string) error {
	filter := fmt.Sprintf(
		"[1:a]volume=%s[bg];[0:a][bg]amix=inputs=2:duration=first:normalize=0",
		strconv.FormatFloat(gain, 'f', 3, 64),
	)
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", speech,
		"-i", background,
		"-filter_complex", filter,
		"-ac", "1",
		"-f", "wav",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg mix audio: %w\n%s", err, string(b))
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func isWav(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}
