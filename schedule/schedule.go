// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package schedule

import (
	"github.com/signalgraph/core/buffer"
	"github.com/signalgraph/core/graph"
)

// entry is one step of a compiled Schedule: either a user node's process
// function bound to its connected ports, or a synthetic bridge that
// copies one buffer into another: a producer's output into a Delay
// buffer, or a (possibly delayed) signal into a downstream Sum buffer's
// scratch (node is the zero NodeHandle for bridges, which never need to be addressed
// by name). ctx is built once at compile time and reused every block, so
// Eval hands each process function a context without allocating.
type entry struct {
	node    graph.NodeHandle
	process ProcessFunc
	inputs  []portBinding
	outputs []portBinding
	ctx     ProcessContext
}

// Schedule is an immutable, allocation-free execution plan compiled by
// Compile. It is safe to hand to the audio thread: Eval performs no
// allocation, locking, or logging.
type Schedule struct {
	entries     []entry
	buffers     []buffer.Buffer
	accumulated map[graph.NodeHandle]int
}

// Accumulated returns the total latency (in frames) the compiler
// computed for node, for diagnostic/UI use. It is not consulted by Eval.
func (s *Schedule) Accumulated(node graph.NodeHandle) (int, bool) {
	v, ok := s.accumulated[node]
	return v, ok
}

// Eval runs one audio callback's worth of work: every entry in
// compiled order, folding/shifting buffers between them, and finally
// copying the root's first output into playback.OutputRegion.
func (s *Schedule) Eval(playback PlaybackContext) {
	for _, b := range s.buffers {
		if sum, ok := b.(*buffer.Sum); ok {
			sum.ResetAccumulator()
		}
	}

	n := len(s.entries)
	if n == 0 {
		zeroRegion(playback.OutputRegion)
		return
	}

	for i := 0; i < n; i++ {
		e := &s.entries[i]
		e.ctx.SampleRate = playback.SampleRate
		e.ctx.Frames = playback.Frames
		if e.process != nil {
			e.process(&e.ctx)
		}
		prepareEntryBuffers(s.buffers, e)
	}

	last := &s.entries[n-1]
	if len(last.outputs) == 0 {
		zeroRegion(playback.OutputRegion)
		return
	}
	rootBuf := s.buffers[last.outputs[0].Buf]
	copyToInterleaved(rootBuf, playback)
}

// prepareEntryBuffers calls Prepare on every buffer this entry produced
// (its outputs only). A buffer is written by exactly one entry per block,
// except a Sum buffer, which several producer/bridge entries fold into
// in turn, each immediately after its own write. Preparing on write thus
// advances each buffer exactly once, in write order. Buffers an entry
// only reads (its inputs) were already prepared by whichever earlier
// entry produced them; preparing them again here would double-shift a
// Delay buffer's ring or double-fold a Sum buffer's accumulator.
func prepareEntryBuffers(buffers []buffer.Buffer, e *entry) {
	for _, b := range e.outputs {
		buffers[b.Buf].Prepare()
	}
}

func copyToInterleaved(root buffer.Buffer, playback PlaybackContext) {
	cfg := root.Channels()
	frames := playback.Frames
	channels := playback.Channels
	common := cfg.Count()
	if channels < common {
		common = channels
	}
	for c := 0; c < common; c++ {
		src, err := root.Read(c)
		if err != nil {
			continue
		}
		n := frames
		if len(src) < n {
			n = len(src)
		}
		for f := 0; f < n; f++ {
			playback.OutputRegion[f*channels+c] = src[f]
		}
		for f := n; f < frames; f++ {
			playback.OutputRegion[f*channels+c] = 0
		}
	}
	for c := common; c < channels; c++ {
		for f := 0; f < frames; f++ {
			playback.OutputRegion[f*channels+c] = 0
		}
	}
}

func zeroRegion(region []float32) {
	for i := range region {
		region[i] = 0
	}
}
