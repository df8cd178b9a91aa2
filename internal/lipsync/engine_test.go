package lipsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dubalot/dubalot/internal/types"
)

type fakeAnimator struct {
	err   error
	calls int
}

func (f *fakeAnimator) Animate(ctx context.Context, inVideo, inAudio, outVideo string) error {
	f.calls++
	return f.err
}

type fakeMedia struct {
	replaceErr   error
	replaceCalls int
	lastOut      string
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, inVideo, outWav string, sampleRate int) error {
	return nil
}

func (f *fakeMedia) ReplaceAudio(ctx context.Context, inVideo, inAudio, outVideo string) error {
	f.replaceCalls++
	f.lastOut = outVideo
	return f.replaceErr
}

func (f *fakeMedia) Trim(ctx context.Context, in string, start, end time.Duration, out string) error {
	return nil
}

func (f *fakeMedia) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	return 0, nil
}

func (f *fakeMedia) LoadClip(ctx context.Context, in string, sampleRate int) (types.SynthesizedClip, error) {
	return types.SynthesizedClip{}, nil
}

func (f *fakeMedia) MixAudio(ctx context.Context, speech, background string, gain float64, out string) error {
	return nil
}

func TestSync_NoAnimatorAlwaysFallsBack(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{}
	e := NewEngine(nil, media, nil)

	for i := 0; i < 3; i++ {
		res, err := e.Sync(context.Background(), "in.mp4", "dub.wav", "out.mp4")
		if err != nil {
			t.Fatalf("sync: %v", err)
		}
		if res.Mode != ModeFallback {
			t.Fatalf("mode = %v, want fallback", res.Mode)
		}
		if res.FallbackReason != nil {
			t.Fatalf("unexpected fallback reason: %v", res.FallbackReason)
		}
	}
	if media.replaceCalls != 3 {
		t.Fatalf("replace calls = %d, want 3", media.replaceCalls)
	}
}

func TestSync_AnimatorSuccess(t *testing.T) {
	t.Parallel()

	anim := &fakeAnimator{}
	media := &fakeMedia{}
	e := NewEngine(anim, media, nil)

	res, err := e.Sync(context.Background(), "in.mp4", "dub.wav", "out.mp4")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Mode != ModeAnimated {
		t.Fatalf("mode = %v, want animated", res.Mode)
	}
	if media.replaceCalls != 0 {
		t.Fatalf("fallback invoked after successful animation")
	}
}

func TestSync_AnimatorFailureFallsBack(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
	}{
		{"non-zero exit", errors.New("wav2lip inference: exit status 1")},
		{"timeout", context.DeadlineExceeded},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			anim := &fakeAnimator{err: tc.err}
			media := &fakeMedia{}
			e := NewEngine(anim, media, nil)

			res, err := e.Sync(context.Background(), "in.mp4", "dub.wav", "out.mp4")
			if err != nil {
				t.Fatalf("sync: %v", err)
			}
			if res.Mode != ModeFallback {
				t.Fatalf("mode = %v, want fallback", res.Mode)
			}
			if !errors.Is(res.FallbackReason, tc.err) {
				t.Fatalf("fallback reason = %v, want %v", res.FallbackReason, tc.err)
			}
			// Output identical to the no-animator path: one replace call.
			if media.replaceCalls != 1 || media.lastOut != "out.mp4" {
				t.Fatalf("fallback replace not performed: %+v", media)
			}
		})
	}
}

func TestSync_FallbackFailureIsFatal(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{replaceErr: errors.New("disk full")}
	e := NewEngine(nil, media, nil)

	if _, err := e.Sync(context.Background(), "in.mp4", "dub.wav", "out.mp4"); err == nil {
		t.Fatalf("expected error when fallback itself fails")
	}
}
