// Package usecase sequences the dubbing stages: reference extraction,
// transcription, per-segment translation and synthesis, timeline
// reconstruction, and lip sync. It owns the run's error policy; the caller
// owns adapter wiring and working-directory lifetime.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dubalot/dubalot/internal/domain/timeline"
	"github.com/dubalot/dubalot/internal/lipsync"
	"github.com/dubalot/dubalot/internal/ports"
	"github.com/dubalot/dubalot/internal/types"
	"github.com/dubalot/dubalot/internal/wavio"
)

var (
	// ErrFatalInput marks a missing or unreadable input video, or a failed
	// reference-audio extraction.
	ErrFatalInput = errors.New("fatal input error")
	// ErrStageUnavailable marks a required external engine that cannot run.
	ErrStageUnavailable = errors.New("stage unavailable")
	// ErrFatalOutput marks a failed final media write. No fallback exists.
	ErrFatalOutput = errors.New("fatal output error")
)

// FailurePolicy decides what a single segment's translation or synthesis
// failure does to the run.
type FailurePolicy int

const (
	// SilenceSegment records a warning and leaves the segment's slot silent.
	SilenceSegment FailurePolicy = iota
	// AbortRun fails the whole run on the first segment failure.
	AbortRun
)

// ParseFailurePolicy maps the config spelling to a policy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silence":
		return SilenceSegment, nil
	case "abort":
		return AbortRun, nil
	}
	return SilenceSegment, fmt.Errorf("unknown segment failure policy %q (want silence or abort)", s)
}

type Deps struct {
	Media      ports.MediaTool
	ASR        ports.Transcriber
	Translator ports.Translator
	Cloner     ports.VoiceCloner
	Lips       *lipsync.Engine
	Log        *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return Usecase{d: d}
}

type Input struct {
	InputVideo  string
	OutputVideo string
	// WorkDir is a per-run scratch directory on the same filesystem as the
	// output, so the finished video can be moved into place with a rename.
	WorkDir string

	TargetLanguage  string
	SampleRate      int
	Workers         int
	ReferenceWindow time.Duration
	OnSegmentError  FailurePolicy

	// KeepBackground layers the dubbed speech over the original audio at
	// BackgroundGain, preserving music and ambience.
	KeepBackground bool
	BackgroundGain float64
}

type Result struct {
	OutputPath string
	Transcript types.Transcript
	LipSync    lipsync.Result
	Events     []types.TimelineEvent
	Warnings   []types.Warning
	Silenced   int
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if _, err := os.Stat(in.InputVideo); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFatalInput, err)
	}
	if in.Workers <= 0 {
		in.Workers = 4
	}
	if in.SampleRate <= 0 {
		in.SampleRate = 24000
	}
	if in.ReferenceWindow <= 0 {
		in.ReferenceWindow = 30 * time.Second
	}

	var res Result

	total, err := u.d.Media.ProbeDuration(ctx, in.InputVideo)
	if err != nil {
		return Result{}, fmt.Errorf("%w: probe input: %v", ErrFatalInput, err)
	}

	sourceWav := filepath.Join(in.WorkDir, "source.wav")
	if err := u.d.Media.ExtractAudio(ctx, in.InputVideo, sourceWav, in.SampleRate); err != nil {
		return Result{}, fmt.Errorf("%w: extract audio: %v", ErrFatalInput, err)
	}

	referenceWav, warn, err := u.extractReference(ctx, sourceWav, total, in)
	if err != nil {
		return Result{}, err
	}
	if warn != nil {
		res.Warnings = append(res.Warnings, *warn)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tr, err := u.d.ASR.Transcribe(ctx, sourceWav, in.WorkDir)
	if err != nil {
		return Result{}, fmt.Errorf("%w: transcribe: %v", ErrStageUnavailable, err)
	}
	res.Transcript = tr
	u.d.Log.Info("transcription complete",
		"segments", len(tr.Segments), "language", tr.Language)
	if len(tr.Segments) == 0 {
		res.Warnings = append(res.Warnings, types.Warning{
			Stage: "transcribe", Segment: -1,
			Err: errors.New("no speech segments detected, output audio will be silent"),
		})
	}

	clips, warnings, err := u.dubSegments(ctx, tr, referenceWav, in)
	res.Warnings = append(res.Warnings, warnings...)
	if err != nil {
		return Result{}, err
	}
	for _, w := range warnings {
		if w.Segment >= 0 {
			res.Silenced++
		}
	}

	track, events, err := timeline.Reconstruct(tr.Slots(), clips, total, in.SampleRate)
	if err != nil {
		return Result{}, err
	}
	res.Events = events

	dubbedWav := filepath.Join(in.WorkDir, "dubbed.wav")
	if err := wavio.Write(dubbedWav, wavio.Normalize(track)); err != nil {
		return Result{}, fmt.Errorf("%w: write dubbed track: %v", ErrFatalOutput, err)
	}

	audioTrack := dubbedWav
	if in.KeepBackground {
		gain := in.BackgroundGain
		if gain <= 0 || gain > 1 {
			gain = 0.3
		}
		mixedWav := filepath.Join(in.WorkDir, "mixed.wav")
		if err := u.d.Media.MixAudio(ctx, dubbedWav, sourceWav, gain, mixedWav); err != nil {
			u.d.Log.Warn("background mix failed, using speech only", "error", err)
			res.Warnings = append(res.Warnings, types.Warning{Stage: "mix", Segment: -1, Err: err})
		} else {
			audioTrack = mixedWav
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	staged := filepath.Join(in.WorkDir, "dubbed"+outputExt(in.OutputVideo))
	syncRes, err := u.d.Lips.Sync(ctx, in.InputVideo, audioTrack, staged)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFatalOutput, err)
	}
	res.LipSync = syncRes
	if syncRes.FallbackReason != nil {
		res.Warnings = append(res.Warnings, types.Warning{
			Stage: "lipsync", Segment: -1, Err: syncRes.FallbackReason,
		})
	}

	if err := os.Rename(staged, in.OutputVideo); err != nil {
		return Result{}, fmt.Errorf("%w: move output into place: %v", ErrFatalOutput, err)
	}
	res.OutputPath = in.OutputVideo
	return res, nil
}

// extractReference trims the opening window of the source audio to anchor
// voice cloning. Short references degrade cloning quality but are accepted.
func (u Usecase) extractReference(ctx context.Context, sourceWav string, total time.Duration, in Input) (string, *types.Warning, error) {
	window := in.ReferenceWindow
	if total > 0 && total < window {
		window = total
	}
	ref := filepath.Join(in.WorkDir, "reference.wav")
	if err := u.d.Media.Trim(ctx, sourceWav, 0, window, ref); err != nil {
		return "", nil, fmt.Errorf("%w: extract reference audio: %v", ErrFatalInput, err)
	}
	if window < 6*time.Second {
		w := types.Warning{
			Stage: "reference", Segment: -1,
			Err: fmt.Errorf("reference clip is %v, cloning quality degrades below 6s", window),
		}
		return ref, &w, nil
	}
	return ref, nil, nil
}

// dubSegments translates and synthesizes every segment with a bounded worker
// pool, collecting clips into a slice aligned with transcript order.
func (u Usecase) dubSegments(ctx context.Context, tr types.Transcript, referenceWav string, in Input) ([]types.SynthesizedClip, []types.Warning, error) {
	clips := make([]types.SynthesizedClip, len(tr.Segments))
	var warnings []types.Warning

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		abortErr error
	)

	workers := in.Workers
	if workers > len(tr.Segments) && len(tr.Segments) > 0 {
		workers = len(tr.Segments)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if runCtx.Err() != nil {
					continue
				}
				clip, stage, err := u.dubSegment(runCtx, tr, idx, referenceWav, in)
				mu.Lock()
				if err != nil {
					if in.OnSegmentError == AbortRun {
						if abortErr == nil {
							abortErr = fmt.Errorf("segment %d: %s: %w", idx, stage, err)
							cancel()
						}
					} else {
						u.d.Log.Warn("segment degraded to silence",
							"segment", idx, "stage", stage, "error", err)
						warnings = append(warnings, types.Warning{Stage: stage, Segment: idx, Err: err})
					}
				} else {
					clips[idx] = clip
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i := range tr.Segments {
		select {
		case <-runCtx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if abortErr != nil {
		return nil, warnings, abortErr
	}
	if err := ctx.Err(); err != nil {
		return nil, warnings, err
	}
	return clips, warnings, nil
}

// dubSegment produces the synthesized clip for one segment. The returned
// stage names the step that failed.
func (u Usecase) dubSegment(ctx context.Context, tr types.Transcript, idx int, referenceWav string, in Input) (types.SynthesizedClip, string, error) {
	seg := tr.Segments[idx]
	if strings.TrimSpace(seg.Text) == "" {
		return types.SynthesizedClip{}, "", nil
	}

	text := seg.Text
	if !strings.EqualFold(tr.Language, in.TargetLanguage) {
		translated, err := u.d.Translator.Translate(ctx, seg.Text, tr.Language, in.TargetLanguage)
		if err != nil {
			return types.SynthesizedClip{}, "translate", err
		}
		text = translated
	}

	clipWav := filepath.Join(in.WorkDir, fmt.Sprintf("seg_%04d.wav", idx))
	path, err := u.d.Cloner.Synthesize(ctx, text, referenceWav, in.TargetLanguage, clipWav)
	if err != nil {
		return types.SynthesizedClip{}, "synthesize", err
	}

	clip, err := u.d.Media.LoadClip(ctx, path, in.SampleRate)
	if err != nil {
		return types.SynthesizedClip{}, "synthesize", err
	}
	return clip, "", nil
}

func outputExt(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return ".mp4"
}
