package wavio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dubalot/dubalot/internal/types"
)

func TestWriteRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	track := types.Track{Samples: make([]int, 16000), SampleRate: 16000}
	for i := range track.Samples {
		track.Samples[i] = (i%100 - 50) * 100
	}

	if err := Write(path, track); err != nil {
		t.Fatalf("write: %v", err)
	}
	clip, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if clip.SampleRate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", clip.SampleRate)
	}
	if clip.Duration() != time.Second {
		t.Fatalf("duration = %v, want 1s", clip.Duration())
	}
	for i, want := range track.Samples[:200] {
		if clip.Samples[i] != want {
			t.Fatalf("sample %d = %d, want %d", i, clip.Samples[i], want)
		}
	}
}

func TestWriteClampsRange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hot.wav")
	track := types.Track{Samples: []int{1 << 20, -(1 << 20), 0, 100}, SampleRate: 8000}
	if err := Write(path, track); err != nil {
		t.Fatalf("write: %v", err)
	}
	clip, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if clip.Samples[0] != 1<<15-1 || clip.Samples[1] != -(1<<15) {
		t.Fatalf("clamp failed: %v", clip.Samples[:2])
	}
	if clip.Samples[2] != 0 || clip.Samples[3] != 100 {
		t.Fatalf("in-range samples altered: %v", clip.Samples[2:4])
	}
}

func TestFoldToMono(t *testing.T) {
	t.Parallel()

	got := foldToMono([]int{10, 20, 30, 50, -4, -8}, 2)
	want := []int{15, 40, -6}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fold[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	in := types.Track{Samples: []int{0, 1000, -500}, SampleRate: 8000}
	if got := Normalize(in); &got.Samples[0] != &in.Samples[0] {
		t.Fatalf("in-range track was copied")
	}

	hot := types.Track{Samples: []int{1 << 16, -(1 << 16), 1 << 15, 0}, SampleRate: 8000}
	got := Normalize(hot)
	const limit = 1<<15 - 1
	if got.Samples[0] != limit || got.Samples[1] != -limit {
		t.Fatalf("peak not scaled to limit: %v", got.Samples[:2])
	}
	if got.Samples[2] != limit/2 {
		t.Fatalf("mid sample = %d, want %d", got.Samples[2], limit/2)
	}
	if got.Samples[3] != 0 {
		t.Fatalf("zero sample altered: %d", got.Samples[3])
	}
	if hot.Samples[0] != 1<<16 {
		t.Fatalf("input mutated")
	}
}

func TestWriteInvalidRate(t *testing.T) {
	t.Parallel()

	err := Write(filepath.Join(t.TempDir(), "bad.wav"), types.Track{Samples: []int{1}})
	if err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}
