// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package cmdqueue

import "sync/atomic"

// DecodedAudio is the immutable payload a loader produces: planar
// (channel-major) float32 samples ready for a sample player to read
// directly, with no further conversion on the audio thread.
type DecodedAudio struct {
	Samples    [][]float32
	SampleRate float64
	Channels   int
	Frames     int
}

// AudioHandle is a reference-counted, atomically shared handle to a
// DecodedAudio. The controller thread creates handles (refs=1);
// LoadFile commands pass a Retain()'d copy to the audio thread, which
// never frees anything itself: Release merely decrements the counter
// and, on reaching zero, posts itself to a Reclaimer for an off-audio
// thread to drop the last Go-level reference.
type AudioHandle struct {
	data *DecodedAudio
	refs atomic.Int32
}

// NewAudioHandle wraps data with an initial reference count of one.
func NewAudioHandle(data *DecodedAudio) *AudioHandle {
	h := &AudioHandle{data: data}
	h.refs.Store(1)
	return h
}

// Retain increments the reference count and returns the handle for
// chaining, mirroring the controller-side clone used before a handle is
// posted through the command queue.
func (h *AudioHandle) Retain() *AudioHandle {
	h.refs.Add(1)
	return h
}

// Audio returns the underlying decoded audio. Safe to call from the
// audio thread: the data is immutable after construction.
func (h *AudioHandle) Audio() *DecodedAudio { return h.data }

// release decrements the reference count and reports whether it reached
// zero (the caller's responsibility to stop using the handle either
// way). It never allocates or frees.
func (h *AudioHandle) release() bool {
	return h.refs.Add(-1) == 0
}
