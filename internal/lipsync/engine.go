// Package lipsync selects between neural lip animation and plain audio
// replacement.
//
// The engine is a two-state strategy: with no animator configured it goes
// straight to the replacement fallback; with one configured it attempts a
// single bounded invocation and falls back on any failure. A missing
// checkpoint is normal path selection, never an error. Only a failure of the
// fallback itself is surfaced as an error, since no further degradation
// exists.
package lipsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dubalot/dubalot/internal/ports"
)

// Mode is the terminal state of one sync call.
type Mode int

const (
	// ModeFallback means the audio track was replaced and video frames were
	// left untouched.
	ModeFallback Mode = iota
	// ModeAnimated means the external lip-sync model produced the output.
	ModeAnimated
)

func (m Mode) String() string {
	if m == ModeAnimated {
		return "animated"
	}
	return "audio-replace"
}

// Result reports which path produced the output video. FallbackReason is set
// only when an animator was configured but its invocation failed.
type Result struct {
	Mode           Mode
	FallbackReason error
}

type Engine struct {
	animator ports.LipAnimator // nil when no checkpoint/script configured
	media    ports.MediaTool
	log      *slog.Logger
}

func NewEngine(animator ports.LipAnimator, media ports.MediaTool, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{animator: animator, media: media, log: log}
}

// Sync produces outVideo from inVideo and the reconstructed audio track.
func (e *Engine) Sync(ctx context.Context, inVideo, inAudio, outVideo string) (Result, error) {
	var reason error
	if e.animator != nil {
		if err := e.animator.Animate(ctx, inVideo, inAudio, outVideo); err == nil {
			return Result{Mode: ModeAnimated}, nil
		} else {
			e.log.Warn("lip animation failed, falling back to audio replacement", "error", err)
			reason = err
		}
	}

	if err := e.media.ReplaceAudio(ctx, inVideo, inAudio, outVideo); err != nil {
		return Result{}, fmt.Errorf("audio replacement fallback: %w", err)
	}
	return Result{Mode: ModeFallback, FallbackReason: reason}, nil
}
