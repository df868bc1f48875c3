// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package buffer implements the four multi-channel sample containers
// (Simple, Ref, Sum, Delay) the scheduler assigns to ports. All four share
// one contract so a schedule entry can read/write a port without knowing
// whether storage is owned, borrowed, summed, or delayed.
package buffer

import "github.com/signalgraph/core/chconfig"

// Buffer is the capability set every variant implements. frames() is
// constant for the buffer's lifetime; Prepare is invoked exactly once per
// block, between a buffer's use as an output and its use as an input.
type Buffer interface {
	// Channels returns the buffer's channel configuration.
	Channels() chconfig.Config

	// Frames returns the number of frames per block. Constant for the
	// buffer's lifetime.
	Frames() int

	// Read returns a read-only view of channel c for the current block.
	Read(c int) ([]float32, error)

	// Write returns a writable view of channel c for the current block.
	Write(c int) ([]float32, error)

	// Clear zeros the caller-visible scratch region. Sum/Delay history
	// beyond the scratch (the accumulator, the delay line) survives.
	Clear()

	// Prepare runs the variant's between-block transition: a no-op for
	// Simple/Ref, fold-and-zero for Sum, ring-swap for Delay.
	Prepare()
}

func sized(cfg chconfig.Config, frames int) []float32 {
	return make([]float32, cfg.Count()*frames)
}

func channelSlice(mem []float32, cfg chconfig.Config, frames, c int) ([]float32, error) {
	if err := cfg.CheckChannel(c); err != nil {
		return nil, err
	}
	start := c * frames
	return mem[start : start+frames : start+frames], nil
}

func zero(mem []float32) {
	for i := range mem {
		mem[i] = 0
	}
}
