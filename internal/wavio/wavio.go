// Package wavio reads and writes mono PCM WAV files for the reconstruction
// stage. Decoding folds multi-channel input down to mono; encoding always
// emits 16-bit mono.
package wavio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dubalot/dubalot/internal/types"
)

const bitDepth = 16

// Read decodes a WAV file into mono samples at the file's own sample rate.
func Read(path string) (types.SynthesizedClip, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.SynthesizedClip{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return types.SynthesizedClip{}, fmt.Errorf("decode wav %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return types.SynthesizedClip{}, fmt.Errorf("decode wav %s: missing format", path)
	}

	samples := buf.Data
	if ch := buf.Format.NumChannels; ch > 1 {
		samples = foldToMono(samples, ch)
	}
	return types.SynthesizedClip{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// Write encodes the track as a 16-bit mono WAV file. Samples outside the
// 16-bit range are clamped rather than wrapped.
func Write(path string, track types.Track) error {
	if track.SampleRate <= 0 {
		return fmt.Errorf("encode wav %s: invalid sample rate %d", path, track.SampleRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, track.SampleRate, bitDepth, 1, 1)
	data := make([]int, len(track.Samples))
	for i, s := range track.Samples {
		data[i] = clamp16(s)
	}
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: track.SampleRate},
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize wav %s: %w", path, err)
	}
	return f.Close()
}

// Normalize scales the track down when its peak exceeds the 16-bit range, so
// encoding clamps nothing audible. In-range tracks are returned unchanged.
func Normalize(track types.Track) types.Track {
	const limit = 1<<15 - 1
	peak := 0
	for _, s := range track.Samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak <= limit {
		return track
	}
	scaled := make([]int, len(track.Samples))
	for i, s := range track.Samples {
		scaled[i] = s * limit / peak
	}
	return types.Track{Samples: scaled, SampleRate: track.SampleRate}
}

func foldToMono(samples []int, channels int) []int {
	out := make([]int, 0, len(samples)/channels)
	for i := 0; i+channels <= len(samples); i += channels {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += samples[i+c]
		}
		out = append(out, sum/channels)
	}
	return out
}

func clamp16(s int) int {
	const limit = 1<<15 - 1
	if s > limit {
		return limit
	}
	if s < -limit-1 {
		return -limit - 1
	}
	return s
}
