package ports

import (
	"context"
	"time"

	"github.com/dubalot/dubalot/internal/types"
)

// MediaTool is the container-level media plumbing every other component
// depends on. All operations work on files and are implemented atop a
// general-purpose media tool (ffmpeg).
type MediaTool interface {
	// ExtractAudio writes the audio track of inVideo as a mono WAV at the
	// given sample rate.
	ExtractAudio(ctx context.Context, inVideo, outWav string, sampleRate int) error
	// ReplaceAudio writes a copy of inVideo whose audio track is replaced by
	// inAudio. Video frames are stream-copied untouched.
	ReplaceAudio(ctx context.Context, inVideo, inAudio, outVideo string) error
	// Trim writes the [start, end) range of in to out. A zero end means
	// "until the end of the file".
	Trim(ctx context.Context, in string, start, end time.Duration, out string) error
	// ProbeDuration returns the container duration of in.
	ProbeDuration(ctx context.Context, in string) (time.Duration, error)
	// LoadClip decodes an audio file into mono samples at the given rate,
	// resampling if the file was produced at a different one.
	LoadClip(ctx context.Context, in string, sampleRate int) (types.SynthesizedClip, error)
	// MixAudio layers speech over background attenuated by gain (0..1] and
	// writes a mono track the length of the speech input.
	MixAudio(ctx context.Context, speech, background string, gain float64, out string) error
}

// Transcriber wraps an external speech-to-text engine.
type Transcriber interface {
	// Transcribe produces a time-coded transcript of the audio file,
	// auto-detecting the spoken language.
	Transcribe(ctx context.Context, audioPath, workDir string) (types.Transcript, error)
}

// Translator wraps an external text-translation engine. Treated as a remote
// call, subject to latency and transient failure.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// VoiceCloner wraps a zero-shot voice-synthesis engine. The reference clip
// anchors the cloned voice identity; the returned path points at the
// synthesized waveform file.
type VoiceCloner interface {
	Synthesize(ctx context.Context, text, referenceWav, lang, outWav string) (string, error)
}

// LipAnimator wraps an external neural lip-sync process. Animate must write
// outVideo on success; implementations verify the file exists before
// returning nil.
type LipAnimator interface {
	Animate(ctx context.Context, inVideo, inAudio, outVideo string) error
}
