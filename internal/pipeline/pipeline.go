// Package pipeline wires production adapters into the dubbing usecase and
// owns per-run working-directory lifetime.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/dubalot/dubalot/internal/lipsync"
	"github.com/dubalot/dubalot/internal/ports"
	"github.com/dubalot/dubalot/internal/ports/adapters/coqui"
	"github.com/dubalot/dubalot/internal/ports/adapters/ffmpeg"
	"github.com/dubalot/dubalot/internal/ports/adapters/gtranslate"
	"github.com/dubalot/dubalot/internal/ports/adapters/wav2lip"
	"github.com/dubalot/dubalot/internal/ports/adapters/whispercli"
	"github.com/dubalot/dubalot/internal/usecase"
)

type Config struct {
	InputVideo  string
	OutputVideo string

	TargetLanguage string
	WhisperModel   string
	TTSModel       string

	Wav2LipCheckpoint string
	Wav2LipScript     string
	LipSyncTimeout    time.Duration

	FFmpegPath  string
	FFprobePath string
	WhisperBin  string
	TTSBin      string
	PythonBin   string

	TranslateBaseURL      string
	TranslateAllowedHosts []string

	SampleRate      int
	Workers         int
	ReferenceWindow time.Duration
	OnSegmentError  string
	KeepBackground  bool
	BackgroundGain  float64

	KeepTemp bool
	Log      *slog.Logger
}

func (c Config) Validate() error {
	if c.InputVideo == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.InputVideo); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.OutputVideo == "" {
		return errors.New("output is empty")
	}
	if _, err := language.Parse(c.TargetLanguage); err != nil {
		return fmt.Errorf("target language %q: %w", c.TargetLanguage, err)
	}
	if c.WhisperModel != "" && !validWhisperModel(c.WhisperModel) {
		return fmt.Errorf("whisper model %q: want one of %v", c.WhisperModel, whispercli.ValidModels)
	}
	if (c.Wav2LipCheckpoint == "") != (c.Wav2LipScript == "") {
		return errors.New("wav2lip checkpoint and script must be configured together")
	}
	if _, err := usecase.ParseFailurePolicy(c.OnSegmentError); err != nil {
		return err
	}
	return gtranslate.ValidateBaseURL(c.TranslateBaseURL, c.TranslateAllowedHosts)
}

func Run(ctx context.Context, cfg Config) (usecase.Result, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	// adapters
	media := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	asr := whispercli.New(cfg.WhisperBin, cfg.WhisperModel)
	mt := gtranslate.New(cfg.TranslateBaseURL)
	tts := coqui.New(cfg.TTSBin, cfg.TTSModel)

	var animator ports.LipAnimator
	if cfg.Wav2LipCheckpoint != "" {
		w2l := wav2lip.New(cfg.PythonBin, cfg.Wav2LipScript, cfg.Wav2LipCheckpoint, cfg.LipSyncTimeout)
		if w2l.Configured() {
			animator = w2l
		} else {
			log.Warn("wav2lip checkpoint or script missing on disk, using audio replacement",
				"checkpoint", cfg.Wav2LipCheckpoint, "script", cfg.Wav2LipScript)
		}
	}
	engine := lipsync.NewEngine(animator, media, log)

	policy, err := usecase.ParseFailurePolicy(cfg.OnSegmentError)
	if err != nil {
		return usecase.Result{}, err
	}

	outDir := filepath.Dir(cfg.OutputVideo)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return usecase.Result{}, err
	}
	// The scratch dir lives next to the output so the finished video can be
	// renamed into place atomically, and its name is unique per run so
	// concurrent runs in one process never collide.
	workDir := filepath.Join(outDir, ".dubalot-"+uuid.NewString()[:8])
	if err := os.Mkdir(workDir, 0o755); err != nil {
		return usecase.Result{}, err
	}
	defer func() {
		if cfg.KeepTemp {
			log.Info("temporary files kept", "dir", workDir)
			return
		}
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("cleanup failed", "dir", workDir, "error", err)
		}
	}()
	log.Debug("workspace prepared", "dir", workDir)

	uc := usecase.New(usecase.Deps{
		Media:      media,
		ASR:        asr,
		Translator: mt,
		Cloner:     tts,
		Lips:       engine,
		Log:        log,
	})

	return uc.Run(ctx, usecase.Input{
		InputVideo:      cfg.InputVideo,
		OutputVideo:     cfg.OutputVideo,
		WorkDir:         workDir,
		TargetLanguage:  cfg.TargetLanguage,
		SampleRate:      cfg.SampleRate,
		Workers:         cfg.Workers,
		ReferenceWindow: cfg.ReferenceWindow,
		OnSegmentError:  policy,
		KeepBackground:  cfg.KeepBackground,
		BackgroundGain:  cfg.BackgroundGain,
	})
}

func validWhisperModel(model string) bool {
	for _, m := range whispercli.ValidModels {
		if m == model {
			return true
		}
	}
	return false
}

// ensure adapters implement ports
var _ ports.MediaTool = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*whispercli.Adapter)(nil)
var _ ports.Translator = (*gtranslate.Adapter)(nil)
var _ ports.VoiceCloner = (*coqui.Adapter)(nil)
var _ ports.LipAnimator = (*wav2lip.Adapter)(nil)
