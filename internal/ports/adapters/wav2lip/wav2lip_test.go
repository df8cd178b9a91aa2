package wav2lip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	script := writeFile(t, filepath.Join(tmp, "inference.py"))
	checkpoint := writeFile(t, filepath.Join(tmp, "wav2lip.pth"))

	cases := []struct {
		name               string
		script, checkpoint string
		want               bool
	}{
		{"both present", script, checkpoint, true},
		{"no script", "", checkpoint, false},
		{"no checkpoint", script, "", false},
		{"script missing on disk", filepath.Join(tmp, "gone.py"), checkpoint, false},
		{"checkpoint missing on disk", script, filepath.Join(tmp, "gone.pth"), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := New("", tc.script, tc.checkpoint, 0)
			if got := a.Configured(); got != tc.want {
				t.Fatalf("Configured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAnimate(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	script := writeFile(t, filepath.Join(tmp, "inference.py"))
	checkpoint := writeFile(t, filepath.Join(tmp, "wav2lip.pth"))
	out := filepath.Join(tmp, "out.mp4")

	a := New("python3", script, checkpoint, time.Minute)
	a.WithRunner(func(ctx context.Context, name string, args ...string) error {
		if name != "python3" {
			t.Errorf("name = %q, want python3", name)
		}
		if args[0] != script {
			t.Errorf("args[0] = %q, want script path", args[0])
		}
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("invocation has no deadline")
		}
		return os.WriteFile(out, []byte("mp4"), 0o644)
	})

	if err := a.Animate(context.Background(), "in.mp4", "dub.wav", out); err != nil {
		t.Fatalf("animate: %v", err)
	}
}

func TestAnimateFailures(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	script := writeFile(t, filepath.Join(tmp, "inference.py"))
	checkpoint := writeFile(t, filepath.Join(tmp, "wav2lip.pth"))

	t.Run("process error", func(t *testing.T) {
		t.Parallel()
		a := New("", script, checkpoint, time.Minute)
		a.WithRunner(func(ctx context.Context, name string, args ...string) error {
			return errors.New("exit status 1")
		})
		if err := a.Animate(context.Background(), "in.mp4", "dub.wav", filepath.Join(tmp, "never.mp4")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("no output file", func(t *testing.T) {
		t.Parallel()
		a := New("", script, checkpoint, time.Minute)
		a.WithRunner(func(ctx context.Context, name string, args ...string) error { return nil })
		if err := a.Animate(context.Background(), "in.mp4", "dub.wav", filepath.Join(tmp, "absent.mp4")); err == nil {
			t.Fatalf("expected error when output file is missing")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		a := New("", script, checkpoint, 10*time.Millisecond)
		a.WithRunner(func(ctx context.Context, name string, args ...string) error {
			<-ctx.Done()
			return ctx.Err()
		})
		if err := a.Animate(context.Background(), "in.mp4", "dub.wav", filepath.Join(tmp, "late.mp4")); err == nil {
			t.Fatalf("expected timeout error")
		}
	})
}
