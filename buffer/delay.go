// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package buffer

import "github.com/signalgraph/core/chconfig"

// DefaultDelayCapacity is the per-channel delay-line capacity used unless
// overridden with WithCapacity. It must stay a power of two >= 4096 per
// the buffer contract; 1<<16 gives headroom for multi-block compensation
// without costing much memory per delayed port.
const DefaultDelayCapacity = 1 << 16

// Delay owns a scratch region plus a per-channel circular delay line.
// Prepare swaps scratch with the delay line's contents at the current
// head: it writes this block's samples into the line shifted by delay
// frames, and reads back what was written delay frames ago.
type Delay struct {
	cfg      chconfig.Config
	frames   int
	delay    int
	capacity int
	scratch  []float32 // channels x frames
	line     []float32 // channels x capacity
	head     int
}

var _ Buffer = (*Delay)(nil)

// Option configures a Delay buffer at construction time.
type Option func(*delayOpts)

type delayOpts struct {
	capacity int
}

// WithCapacity overrides DefaultDelayCapacity. Tests use this to keep the
// delay line small; production callers normally accept the default.
func WithCapacity(capacity int) Option {
	return func(o *delayOpts) { o.capacity = capacity }
}

// NewDelay allocates a Delay buffer for cfg/frames with the given delay in
// [0, capacity). Exceeding the capacity is a configuration error, surfaced
// here rather than deferred to the scheduler, so a caller who bypasses the
// scheduler still gets the same failure mode.
func NewDelay(cfg chconfig.Config, frames, delay int, opts ...Option) (*Delay, error) {
	o := delayOpts{capacity: DefaultDelayCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if delay < 0 || delay >= o.capacity {
		return nil, &DelayTooLargeError{Delay: delay, Capacity: o.capacity}
	}
	return &Delay{
		cfg:      cfg,
		frames:   frames,
		delay:    delay,
		capacity: o.capacity,
		scratch:  sized(cfg, frames),
		line:     make([]float32, cfg.Count()*o.capacity),
	}, nil
}

func (b *Delay) Channels() chconfig.Config { return b.cfg }
func (b *Delay) Frames() int               { return b.frames }
func (b *Delay) Delay() int                { return b.delay }

func (b *Delay) Read(c int) ([]float32, error) {
	return channelSlice(b.scratch, b.cfg, b.frames, c)
}

func (b *Delay) Write(c int) ([]float32, error) {
	return channelSlice(b.scratch, b.cfg, b.frames, c)
}

// Clear zeros the scratch region only; the delay line's history, which is
// not caller-visible, survives.
func (b *Delay) Clear() { zero(b.scratch) }

// Prepare shifts this block's writes into the delay line and reads back
// what was written delay frames ago. Each frame is written into the line
// before the read: that makes delay 0 the identity and keeps
// delay < frames causally correct within a single block.
func (b *Delay) Prepare() {
	nC := b.cfg.Count()
	cap := b.capacity
	for c := 0; c < nC; c++ {
		scratch := b.scratch[c*b.frames : (c+1)*b.frames]
		line := b.line[c*cap : (c+1)*cap]
		for n := 0; n < b.frames; n++ {
			readIdx := (b.head + n) % cap
			writeIdx := (b.head + n + b.delay) % cap
			line[writeIdx] = scratch[n]
			scratch[n] = line[readIdx]
		}
	}
	b.head = (b.head + b.frames) % cap
}
