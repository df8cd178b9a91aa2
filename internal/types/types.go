package types

import (
	"fmt"
	"time"
)

// Segment is a time-bounded span of transcribed speech.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Transcript is the ordered output of speech recognition for one video.
// Language is the auto-detected source language shared by all segments.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Slot is the target time range a dubbed segment must occupy in the output
// timeline. It always equals the originating segment's boundaries.
type Slot struct {
	Start time.Duration
	End   time.Duration
}

func (s Slot) Width() time.Duration { return s.End - s.Start }

// Slots returns the timing slots of the transcript, in segment order.
func (t Transcript) Slots() []Slot {
	out := make([]Slot, len(t.Segments))
	for i, seg := range t.Segments {
		out[i] = Slot{Start: seg.Start, End: seg.End}
	}
	return out
}

// TranslatedSegment is a segment whose text has been mapped to the target
// language. The slot is unchanged from the source segment.
type TranslatedSegment struct {
	Slot     Slot
	Text     string
	Language string
}

// SynthesizedClip holds decoded mono samples produced by voice synthesis for
// one translated segment. A nil Samples slice denotes a silenced segment
// (translation or synthesis failed and the run policy chose degradation).
type SynthesizedClip struct {
	Samples    []int
	SampleRate int
}

// Duration is the natural length of the clip, which is not guaranteed to
// match its slot width.
func (c SynthesizedClip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Silent reports whether the clip carries no audio.
func (c SynthesizedClip) Silent() bool { return len(c.Samples) == 0 }

// Placement describes how a clip was reconciled with its slot.
type Placement int

const (
	// PlacementPad fills the remainder of the slot with trailing silence.
	PlacementPad Placement = iota
	// PlacementTrim lets a long clip overrun into trailing silence and
	// hard-cuts it where it would collide with the next slot.
	PlacementTrim
	// PlacementStretch time-stretches a clip to fit its slot. Declared for
	// completeness; the current reconstructor never selects it.
	PlacementStretch
)

func (p Placement) String() string {
	switch p {
	case PlacementPad:
		return "pad"
	case PlacementTrim:
		return "trim"
	case PlacementStretch:
		return "stretch"
	}
	return "unknown"
}

// TimelineEvent records the reconciled placement of one clip. Start and End
// are the bounds of the audio actually written, which may extend past
// Slot.End when the trim policy allowed an overrun.
type TimelineEvent struct {
	Slot      Slot
	Placement Placement
	Start     time.Duration
	End       time.Duration
}

// Track is a single continuous mono audio buffer spanning the full output
// duration.
type Track struct {
	Samples    []int
	SampleRate int
}

func (t Track) Duration() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(t.Samples)) * time.Second / time.Duration(t.SampleRate)
}

// Warning is a non-fatal degradation recorded during a run, such as a
// silenced segment or a lip-sync fallback.
type Warning struct {
	Stage   string
	Segment int // -1 when not segment-scoped
	Err     error
}

func (w Warning) String() string {
	if w.Segment < 0 {
		return fmt.Sprintf("%s: %v", w.Stage, w.Err)
	}
	return fmt.Sprintf("%s: segment %d: %v", w.Stage, w.Segment, w.Err)
}
