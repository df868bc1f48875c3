// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package adapter bridges a compiled schedule.Schedule to
// zikichombo.org/sound's driver-boundary abstraction. The engine itself
// is callback/push-driven (one Eval per host block), while
// zikichombo.org/sound models a pull-based sound.Source/sound.Sink pair.
// Source adapts the former to the latter, which is also what makes a
// Schedule a convenient fixed-rate sample source in render loops and
// tests without hand-rolling a driver.
package adapter

import (
	"io"

	"zikichombo.org/sound/freq"

	"github.com/signalgraph/core/schedule"
)

// Source renders a Schedule one block at a time and exposes the result
// as a zikichombo.org/sound.Source: Receive fills a channel-major
// (deinterleaved) buffer, matching the convention zikichombo.org/sound
// implementations use.
type Source struct {
	sched      *schedule.Schedule
	sampleRate float64
	channels   int
	frames     int
	interleave []float32
	closed     bool
}

// NewSource wraps sched as a sound.Source. frames must equal the block
// size sched was compiled with (schedule.Options.Frames); Receive
// always renders exactly that many frames per call, regardless of how
// much capacity the caller's buffer has beyond it.
func NewSource(sched *schedule.Schedule, sampleRate float64, channels, frames int) *Source {
	return &Source{
		sched:      sched,
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		interleave: make([]float32, frames*channels),
	}
}

// SampleRate implements sound.Source/sound.Form.
func (s *Source) SampleRate() freq.T { return freq.T(s.sampleRate) }

// Channels implements sound.Source/sound.Form.
func (s *Source) Channels() int { return s.channels }

// Receive renders one schedule block into dst, which must have capacity
// for at least Channels()*frames float64s (frames as given to NewSource)
// in channel-major layout (dst[c*frames+f]). It returns the number of frames written, always
// s.frames until Close, after which it returns io.EOF.
func (s *Source) Receive(dst []float64) (int, error) {
	if s.closed {
		return 0, io.EOF
	}
	need := s.channels * s.frames
	if len(dst) < need {
		return 0, io.ErrShortBuffer
	}

	s.sched.Eval(schedule.PlaybackContext{
		Frames:       s.frames,
		SampleRate:   s.sampleRate,
		Channels:     s.channels,
		OutputRegion: s.interleave,
	})

	for c := 0; c < s.channels; c++ {
		for f := 0; f < s.frames; f++ {
			dst[c*s.frames+f] = float64(s.interleave[f*s.channels+c])
		}
	}
	return s.frames, nil
}

// Close implements sound.Source. A Source has no underlying resource to
// release; Close only flips Receive into reporting io.EOF, matching the
// "closed sources return EOF" contract the rest of zikichombo.org/sound
// relies on.
func (s *Source) Close() error {
	s.closed = true
	return nil
}
