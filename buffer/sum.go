// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package buffer

import "github.com/signalgraph/core/chconfig"

// Sum owns a scratch region (what producers write into) and an
// accumulator invisible to callers. Prepare adds scratch into the
// accumulator and zeros scratch; Read returns the accumulator, so
// downstream nodes see the mix of every producer that wrote this block.
type Sum struct {
	cfg     chconfig.Config
	frames  int
	scratch []float32
	acc     []float32
}

var _ Buffer = (*Sum)(nil)

// NewSum allocates a Sum buffer for cfg over the given block size.
func NewSum(cfg chconfig.Config, frames int) *Sum {
	return &Sum{
		cfg:     cfg,
		frames:  frames,
		scratch: sized(cfg, frames),
		acc:     sized(cfg, frames),
	}
}

func (b *Sum) Channels() chconfig.Config { return b.cfg }
func (b *Sum) Frames() int               { return b.frames }

// Read returns the accumulator: the running sum of everything written and
// prepared into this buffer so far.
func (b *Sum) Read(c int) ([]float32, error) {
	return channelSlice(b.acc, b.cfg, b.frames, c)
}

// Write returns the scratch region a single producer writes its
// contribution into.
func (b *Sum) Write(c int) ([]float32, error) {
	return channelSlice(b.scratch, b.cfg, b.frames, c)
}

// Clear zeros scratch only; the accumulation is preserved.
func (b *Sum) Clear() { zero(b.scratch) }

// Prepare folds scratch into the accumulator, then zeros scratch.
func (b *Sum) Prepare() {
	for i := range b.acc {
		b.acc[i] += b.scratch[i]
		b.scratch[i] = 0
	}
}

// ResetAccumulator zeros the accumulator itself. It is deliberately kept
// off the Buffer interface: Clear() must preserve cumulative state (the
// buffer round-trip invariant), but a schedule still needs a way to
// start each callback with a clean accumulator rather than summing
// forever across blocks. Only the executor calls this, once per Sum
// buffer at the start of Eval.
func (b *Sum) ResetAccumulator() { zero(b.acc) }
