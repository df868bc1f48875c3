// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package buffer

import "github.com/signalgraph/core/chconfig"

// Simple owns channels x frames samples outright. Prepare is a no-op;
// Read/Write alias the same storage (write-then-read is the identity).
type Simple struct {
	cfg    chconfig.Config
	frames int
	mem    []float32
}

var _ Buffer = (*Simple)(nil)

// NewSimple allocates a Simple buffer for cfg over the given block size.
func NewSimple(cfg chconfig.Config, frames int) *Simple {
	return &Simple{cfg: cfg, frames: frames, mem: sized(cfg, frames)}
}

func (b *Simple) Channels() chconfig.Config { return b.cfg }
func (b *Simple) Frames() int               { return b.frames }

func (b *Simple) Read(c int) ([]float32, error) {
	return channelSlice(b.mem, b.cfg, b.frames, c)
}

func (b *Simple) Write(c int) ([]float32, error) {
	return channelSlice(b.mem, b.cfg, b.frames, c)
}

func (b *Simple) Clear() { zero(b.mem) }

func (b *Simple) Prepare() {}
