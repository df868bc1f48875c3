// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package schedule

import (
	"github.com/signalgraph/core/buffer"
	"github.com/signalgraph/core/graph"
)

// PlaybackContext is the per-callback information the executor threads
// through to a Schedule's Eval. OutputRegion is the host's interleaved
// write target; sized Frames*Channels, interleaved so that frame f of
// channel c sits at index f*Channels+c.
type PlaybackContext struct {
	Frames       int
	SampleRate   float64
	Channels     int
	OutputRegion []float32
}

// portBinding pairs a port with the index of the buffer bound to it in
// the owning Schedule's flat buffer list.
type portBinding struct {
	Port graph.PortHandle
	Buf  int
}

// ProcessContext is handed to a node's process function once per entry,
// per callback. It must not be retained past the call.
type ProcessContext struct {
	buffers []buffer.Buffer
	inputs  []portBinding
	outputs []portBinding

	SampleRate float64
	Frames     int
}

func portHandleOf(name string) graph.PortHandle {
	return graph.HashPortName(name)
}

// GetInput returns a read-only view of the named input port's buffer, or
// nil if that port is disconnected. The returned Buffer is only valid
// for the duration of this call's entry.
func (c *ProcessContext) GetInput(name string) buffer.Buffer {
	port := portHandleOf(name)
	for _, b := range c.inputs {
		if b.Port == port {
			return c.buffers[b.Buf]
		}
	}
	return nil
}

// GetOutput returns a writable view of the named output port's buffer,
// or nil if that port is disconnected. A process function that leaves a
// connected output unwritten violates the node authoring contract.
func (c *ProcessContext) GetOutput(name string) buffer.Buffer {
	port := portHandleOf(name)
	for _, b := range c.outputs {
		if b.Port == port {
			return c.buffers[b.Buf]
		}
	}
	return nil
}

// ProcessFunc is the per-block work a node performs. It must not
// allocate and must fill every connected output; it is free to ignore
// disconnected ports.
type ProcessFunc func(ctx *ProcessContext)

// ProcessFactory builds a ProcessFunc for a node at compile time. The
// returned closure may carry per-node state (e.g. the sample player's
// playhead); Compile calls the factory exactly once per emitted node.
type ProcessFactory func(graph.NodeHandle) ProcessFunc

// NewSingleOutputContext builds a ProcessContext exposing buf as the
// single output port named "out" and no inputs, for unit-testing a
// node's ProcessFunc in isolation from a compiled Schedule.
func NewSingleOutputContext(buf buffer.Buffer, frames int) *ProcessContext {
	return &ProcessContext{
		buffers: []buffer.Buffer{buf},
		outputs: []portBinding{{Port: portHandleOf("out"), Buf: 0}},
		Frames:  frames,
	}
}
