package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/dubalot/dubalot/internal/config"
	"github.com/dubalot/dubalot/internal/logging"
	"github.com/dubalot/dubalot/internal/pipeline"
	"github.com/dubalot/dubalot/internal/ports/adapters/gtranslate"
)

func run(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	target, _ := cmd.Flags().GetString("target-language")
	whisperModel, _ := cmd.Flags().GetString("whisper-model")
	checkpoint, _ := cmd.Flags().GetString("wav2lip-checkpoint")
	script, _ := cmd.Flags().GetString("wav2lip-script")
	configPath, _ := cmd.Flags().GetString("config")
	workers, _ := cmd.Flags().GetInt("workers")
	onSegErr, _ := cmd.Flags().GetString("on-segment-error")
	keepTemp, _ := cmd.Flags().GetBool("keep-temp")
	verbose, _ := cmd.Flags().GetBool("verbose")

	log := logging.New(os.Stderr, verbose)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = cfg.Dubbing.Workers
	}
	if onSegErr == "" {
		onSegErr = cfg.Dubbing.OnSegmentError
	}
	whisperModel = resolveWhisperModel(cmd.Flags().Changed("whisper-model"), whisperModel, cfg.Models.Whisper)

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return err
	}

	pcfg := pipeline.Config{
		InputVideo:     absIn,
		OutputVideo:    absOut,
		TargetLanguage: target,
		WhisperModel:   whisperModel,
		TTSModel:       cfg.Models.TTS,

		Wav2LipCheckpoint: checkpoint,
		Wav2LipScript:     script,
		LipSyncTimeout:    time.Duration(cfg.Dubbing.LipSyncTimeoutMinutes) * time.Minute,

		FFmpegPath:  cfg.Tools.FFmpeg,
		FFprobePath: cfg.Tools.FFprobe,
		WhisperBin:  cfg.Tools.Whisper,
		TTSBin:      cfg.Tools.TTS,
		PythonBin:   cfg.Tools.Python,

		TranslateBaseURL:      getenvDefault("DUBALOT_TRANSLATE_BASE_URL", cfg.Translate.BaseURL),
		TranslateAllowedHosts: allowedHosts(cfg),

		SampleRate:      cfg.Dubbing.SampleRate,
		Workers:         workers,
		ReferenceWindow: time.Duration(cfg.Dubbing.ReferenceSeconds) * time.Second,
		OnSegmentError:  onSegErr,
		KeepBackground:  cfg.Dubbing.KeepBackground,
		BackgroundGain:  cfg.Dubbing.BackgroundGain,

		KeepTemp: keepTemp,
		Log:      log,
	}

	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("dubbing video",
		"input", absIn, "output", absOut, "target", languageName(target))

	res, err := pipeline.Run(ctx, pcfg)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), target, res)
	return nil
}

// resolveWhisperModel prefers an explicitly passed flag over the config file.
// The flag carries a non-empty default, so flag presence has to be checked
// rather than emptiness.
func resolveWhisperModel(flagSet bool, flagValue, configValue string) string {
	if flagSet || configValue == "" {
		return flagValue
	}
	return configValue
}

func allowedHosts(cfg *config.Config) []string {
	if hosts := gtranslate.ParseAllowedHosts(os.Getenv("DUBALOT_TRANSLATE_ALLOWED_HOSTS")); hosts != nil {
		return hosts
	}
	return cfg.Translate.AllowedHosts
}

// languageName renders "es" as "Spanish (es)" when the tag is known.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return fmt.Sprintf("%s (%s)", name, code)
}
