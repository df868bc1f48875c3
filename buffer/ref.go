// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package buffer

import "github.com/signalgraph/core/chconfig"

// Ref borrows an external region of at least channels*frames samples.
// Prepare is a no-op; construction fails with StorageRequiredError if the
// region is too small.
type Ref struct {
	cfg    chconfig.Config
	frames int
	mem    []float32
}

var _ Buffer = (*Ref)(nil)

// NewRef wraps mem as a Ref buffer for cfg/frames. mem must have length
// >= cfg.Count()*frames.
func NewRef(cfg chconfig.Config, frames int, mem []float32) (*Ref, error) {
	want := cfg.Count() * frames
	if len(mem) < want {
		return nil, &StorageRequiredError{Want: want, Got: len(mem)}
	}
	return &Ref{cfg: cfg, frames: frames, mem: mem}, nil
}

func (b *Ref) Channels() chconfig.Config { return b.cfg }
func (b *Ref) Frames() int               { return b.frames }

func (b *Ref) Read(c int) ([]float32, error) {
	return channelSlice(b.mem, b.cfg, b.frames, c)
}

func (b *Ref) Write(c int) ([]float32, error) {
	return channelSlice(b.mem, b.cfg, b.frames, c)
}

func (b *Ref) Clear() { zero(b.mem[:b.cfg.Count()*b.frames]) }

func (b *Ref) Prepare() {}
