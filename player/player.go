// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package player implements the sample player reference node: a graph
// node that owns a loaded audio file and writes it to a connected
// output port, driven entirely by commands arriving over a
// cmdqueue.Queue. Process is the only method this package calls from
// the audio thread, and it never logs, locks, or allocates, so it is
// safe to wire directly as a schedule.ProcessFunc.
package player

import (
	"math"

	"github.com/signalgraph/core/buffer"
	"github.com/signalgraph/core/cmdqueue"
	"github.com/signalgraph/core/schedule"
)

// State is the player's transport state.
type State int

const (
	Stopped State = iota
	Playing
)

// maxChannels bounds the active-channel mask.
const maxChannels = 32

// Player is a single sample-player node's audio-thread state. The zero
// value is not usable; construct with New.
type Player struct {
	queue     *cmdqueue.Queue
	reclaimer *cmdqueue.Reclaimer

	audio    *cmdqueue.AudioHandle
	state    State
	playhead int
	active   uint32
}

// New creates a Player draining queue and releasing superseded audio
// handles through reclaimer. All channels start active.
func New(queue *cmdqueue.Queue, reclaimer *cmdqueue.Reclaimer) *Player {
	return &Player{queue: queue, reclaimer: reclaimer, active: 0xffffffff}
}

// State reports the player's current transport state. Controller-side
// diagnostic use only; the audio thread is the sole writer.
func (p *Player) State() State { return p.state }

// Playhead reports the current read position in frames.
func (p *Player) Playhead() int { return p.playhead }

// ActiveChannels returns the current per-channel activity mask, bit i
// set meaning output channel i is active. Exposed as a read-only query
// so a controller can display or restore channel-mute state across a
// LoadFile.
func (p *Player) ActiveChannels() uint32 { return p.active }

// Process drains every command queued since the previous block, then
// writes at most ctx.Frames frames of the loaded file to the node's
// "out" port, one channel at a time, skipping channels the activity
// mask has deactivated or the file does not have. It is a
// schedule.ProcessFunc.
func (p *Player) Process(ctx *schedule.ProcessContext) {
	p.queue.Drain(p.apply)

	out := ctx.GetOutput("out")
	if out == nil {
		return
	}

	if p.state != Playing || p.audio == nil {
		zeroAll(out)
		return
	}

	data := p.audio.Audio()
	if p.playhead >= data.Frames {
		p.state = Stopped
		zeroAll(out)
		return
	}

	n := data.Frames - p.playhead
	if n > ctx.Frames {
		n = ctx.Frames
	}

	channels := out.Channels().Count()
	for ch := 0; ch < channels; ch++ {
		w, err := out.Write(ch)
		if err != nil {
			continue
		}
		if ch >= maxChannels || p.active&(1<<uint(ch)) == 0 || ch >= data.Channels {
			zero(w)
			continue
		}
		copy(w[:n], data.Samples[ch][p.playhead:p.playhead+n])
		zero(w[n:])
	}
	p.playhead += n
}

// apply executes one controller command. Called only from Process, on
// the audio thread.
func (p *Player) apply(cmd cmdqueue.Command) {
	switch cmd.Kind {
	case cmdqueue.LoadFileCmd:
		old := p.audio
		p.audio = cmd.Audio
		p.playhead = 0
		p.state = Stopped
		p.reclaimer.Release(old)
	case cmdqueue.PlayCmd:
		if p.audio != nil {
			p.state = Playing
		}
	case cmdqueue.StopCmd:
		p.state = Stopped
	case cmdqueue.SeekCmd:
		if p.audio == nil {
			return
		}
		data := p.audio.Audio()
		frame := int(math.Round(cmd.Seconds * data.SampleRate))
		if frame < 0 {
			frame = 0
		}
		if frame > data.Frames {
			frame = data.Frames
		}
		p.playhead = frame
	case cmdqueue.ScrubCmd:
		// Reserved: scrub playback (variable-rate, possibly reversed
		// read-out for a UI waveform drag) is not implemented. A future
		// scrub would replace the plain playhead advance above with a
		// rate-controlled one driven by cmd.Seconds per block.
	case cmdqueue.SetActiveCmd:
		if cmd.Channel < 0 || cmd.Channel >= maxChannels {
			return
		}
		bit := uint32(1) << uint(cmd.Channel)
		if cmd.Active {
			p.active |= bit
		} else {
			p.active &^= bit
		}
	}
}

func zero(s []float32) {
	for i := range s {
		s[i] = 0
	}
}

// zeroAll silences every channel of out: the stopped/unloaded/finished
// states still owe the graph a defined (silent) output.
func zeroAll(out buffer.Buffer) {
	channels := out.Channels().Count()
	for ch := 0; ch < channels; ch++ {
		w, err := out.Write(ch)
		if err != nil {
			continue
		}
		zero(w)
	}
}
