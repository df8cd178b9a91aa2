//go:build integration

package itest

import (
	"context"
	"math"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/dubalot/dubalot/internal/ports/adapters/ffmpeg"
)

// TestTrimWindowDuration checks that trimming a video to [start, end) yields
// a file of duration end-start. The fixture is encoded all-intra (-g 1) so
// the stream-copy cut lands on the requested frame.
func TestTrimWindowDuration(t *testing.T) {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if err := requireBinary(bin); err != nil {
			t.Skipf("%v", err)
		}
	}

	tmp := t.TempDir()
	in := filepath.Join(tmp, "input.mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "color=c=black:s=320x240:d=10",
		"-f", "lavfi",
		"-i", "sine=frequency=440:duration=10",
		"-shortest",
		"-c:v", "libx264",
		"-g", "1",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		in,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}

	media := ffmpeg.New("", "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	out := filepath.Join(tmp, "cut.mp4")
	if err := media.Trim(ctx, in, 2*time.Second, 7*time.Second, out); err != nil {
		t.Fatalf("trim: %v", err)
	}

	sec, err := probeDurationSeconds(out)
	if err != nil {
		t.Fatalf("probe trimmed video: %v", err)
	}
	if math.Abs(sec-5) > 0.2 {
		t.Fatalf("trimmed duration = %.2fs, want 5s +-0.2", sec)
	}

	// Open-ended trim runs to the end of the file.
	tail := filepath.Join(tmp, "tail.mp4")
	if err := media.Trim(ctx, in, 4*time.Second, 0, tail); err != nil {
		t.Fatalf("trim to end: %v", err)
	}
	sec, err = probeDurationSeconds(tail)
	if err != nil {
		t.Fatalf("probe tail video: %v", err)
	}
	if math.Abs(sec-6) > 0.2 {
		t.Fatalf("tail duration = %.2fs, want 6s +-0.2", sec)
	}
}
