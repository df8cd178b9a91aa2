package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "dubalot",
		Short:        "Dub a video into another language, keeping the original voice",
		SilenceUsage: true,
		RunE:         run,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().StringP("input", "i", "", "Path to the source video")
	root.Flags().StringP("output", "o", "", "Path for the dubbed output video")
	root.Flags().StringP("target-language", "t", "en", "Target language BCP-47 code (e.g. en, es, fr)")
	root.Flags().String("whisper-model", "base", "Whisper model size: tiny, base, small, medium, large")
	root.Flags().String("wav2lip-checkpoint", "", "Path to a Wav2Lip checkpoint for lip animation")
	root.Flags().String("wav2lip-script", "", "Path to the Wav2Lip inference.py script")
	root.Flags().String("config", "", "Path to a dubalot.toml configuration file")
	root.Flags().Int("workers", 0, "Concurrent segment workers (0 uses the config value)")
	root.Flags().String("on-segment-error", "", "Per-segment failure policy: silence or abort")
	root.Flags().Bool("keep-temp", false, "Keep the temporary working directory")
	root.Flags().BoolP("verbose", "v", false, "Enable debug logging")

	_ = root.MarkFlagRequired("input")
	_ = root.MarkFlagRequired("output")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
