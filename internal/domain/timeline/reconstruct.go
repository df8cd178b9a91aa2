// Package timeline composites variable-duration synthesized clips into a
// single continuous audio track aligned to the original segment timing.
//
// Placement policy for clips longer than their slot: the clip overruns into
// the trailing silence after its slot and is hard-trimmed only where it would
// collide with the next slot's start (or the end of the track). Short clips
// are padded with trailing silence, keeping speech onset aligned to the slot
// start. Time-stretching is deliberately not performed; it trades audible
// artifacts for an alignment gain the overrun budget usually provides anyway.
package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/dubalot/dubalot/internal/types"
)

var (
	// ErrMisalignedInput reports a slot/clip count mismatch. This is a
	// pipeline bug, not a runtime condition.
	ErrMisalignedInput = errors.New("timeline: slot and clip counts differ")
	// ErrNonMonotonicSlots reports slots that are not ascending and
	// non-overlapping.
	ErrNonMonotonicSlots = errors.New("timeline: slots not ascending and non-overlapping")
	// ErrSampleRateMismatch reports a clip decoded at a rate other than the
	// track rate. Adapters resample on load, so hitting this is a bug.
	ErrSampleRateMismatch = errors.New("timeline: clip sample rate differs from track rate")
)

// Reconstruct places each clip into its slot and returns a continuous mono
// track spanning max(last slot end, total), with silence filling every gap.
// Slots and clips must be index-aligned and in transcript order.
func Reconstruct(slots []types.Slot, clips []types.SynthesizedClip, total time.Duration, sampleRate int) (types.Track, []types.TimelineEvent, error) {
	if len(slots) != len(clips) {
		return types.Track{}, nil, fmt.Errorf("%w: %d slots, %d clips", ErrMisalignedInput, len(slots), len(clips))
	}
	if sampleRate <= 0 {
		return types.Track{}, nil, fmt.Errorf("timeline: invalid sample rate %d", sampleRate)
	}
	if err := validateSlots(slots); err != nil {
		return types.Track{}, nil, err
	}

	trackEnd := total
	if n := len(slots); n > 0 && slots[n-1].End > trackEnd {
		trackEnd = slots[n-1].End
	}
	buf := make([]int, samplesAt(trackEnd, sampleRate))

	events := make([]types.TimelineEvent, 0, len(slots))
	for i, slot := range slots {
		clip := clips[i]
		if clip.Silent() {
			// Silenced segment: the slot stays empty.
			events = append(events, types.TimelineEvent{
				Slot:      slot,
				Placement: types.PlacementPad,
				Start:     slot.Start,
				End:       slot.Start,
			})
			continue
		}
		if clip.SampleRate != sampleRate {
			return types.Track{}, nil, fmt.Errorf("%w: clip %d has %d Hz, track has %d Hz",
				ErrSampleRateMismatch, i, clip.SampleRate, sampleRate)
		}

		start := samplesAt(slot.Start, sampleRate)
		limit := len(buf)
		if i+1 < len(slots) {
			limit = samplesAt(slots[i+1].Start, sampleRate)
		}
		n := len(clip.Samples)
		if start+n > limit {
			n = limit - start
		}
		if n > 0 {
			copy(buf[start:start+n], clip.Samples[:n])
		}

		placement := types.PlacementPad
		if clip.Duration() > slot.Width() {
			placement = types.PlacementTrim
		}
		events = append(events, types.TimelineEvent{
			Slot:      slot,
			Placement: placement,
			Start:     slot.Start,
			End:       slot.Start + durationOf(n, sampleRate),
		})
	}

	return types.Track{Samples: buf, SampleRate: sampleRate}, events, nil
}

func validateSlots(slots []types.Slot) error {
	for i, s := range slots {
		if s.Start < 0 || s.End <= s.Start {
			return fmt.Errorf("%w: slot %d [%v, %v)", ErrNonMonotonicSlots, i, s.Start, s.End)
		}
		if i > 0 && s.Start < slots[i-1].End {
			return fmt.Errorf("%w: slot %d starts at %v before slot %d ends at %v",
				ErrNonMonotonicSlots, i, s.Start, i-1, slots[i-1].End)
		}
	}
	return nil
}

func samplesAt(t time.Duration, rate int) int {
	return int(int64(t) * int64(rate) / int64(time.Second))
}

func durationOf(n, rate int) time.Duration {
	return time.Duration(int64(n) * int64(time.Second) / int64(rate))
}
