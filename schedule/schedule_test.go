// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package schedule

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/signalgraph/core/graph"
	"github.com/stretchr/testify/require"
)

const testFrames = 256

func buildNode(t *testing.T, g *graph.Graph, name string, inputs, outputs []string) (graph.NodeHandle, map[string]graph.PortHandle) {
	t.Helper()
	n, err := g.AddNode(name)
	require.NoError(t, err)
	ports := map[string]graph.PortHandle{}
	for _, in := range inputs {
		p, err := g.AddPort(graph.Input, n, in)
		require.NoError(t, err)
		ports[in] = p
	}
	for _, out := range outputs {
		p, err := g.AddPort(graph.Output, n, out)
		require.NoError(t, err)
		ports[out] = p
	}
	return n, ports
}

func constantWriter(v float32) ProcessFunc {
	return func(ctx *ProcessContext) {
		out := ctx.GetOutput("out")
		if out == nil {
			return
		}
		w, err := out.Write(0)
		if err != nil {
			return
		}
		for i := range w {
			w[i] = v
		}
	}
}

func passthrough() ProcessFunc {
	return func(ctx *ProcessContext) {
		in := ctx.GetInput("in")
		out := ctx.GetOutput("out")
		if in == nil || out == nil {
			return
		}
		r, err := in.Read(0)
		if err != nil {
			return
		}
		w, err := out.Write(0)
		if err != nil {
			return
		}
		copy(w, r)
	}
}

// shiftBy models a node whose internal processing genuinely introduces
// `delay` frames of latency on its own output, the way a lookahead or
// block-transform node would. It is used to validate E3, where the
// compiler's compensation must be added on top of real latency already
// present in a producer's output.
func shiftBy(delay int) ProcessFunc {
	return func(ctx *ProcessContext) {
		in := ctx.GetInput("in")
		out := ctx.GetOutput("out")
		if in == nil || out == nil {
			return
		}
		r, err := in.Read(0)
		if err != nil {
			return
		}
		w, err := out.Write(0)
		if err != nil {
			return
		}
		for i := range w {
			w[i] = 0
		}
		for n := delay; n < len(w) && n-delay < len(r); n++ {
			w[n] = r[n-delay]
		}
	}
}

func TestE1Passthrough(t *testing.T) {
	g := graph.New()
	src, srcP := buildNode(t, g, "src", nil, []string{"out"})
	id, idP := buildNode(t, g, "id", []string{"in"}, []string{"out"})
	require.NoError(t, g.Connect(graph.Endpoint{Node: src, Port: srcP["out"]}, graph.Endpoint{Node: id, Port: idP["in"]}))

	factory := func(n graph.NodeHandle) ProcessFunc {
		if n == src {
			return constantWriter(0.5)
		}
		return passthrough()
	}

	sched, err := Compile(g, id, ConstLatency(0), factory, Options{Frames: testFrames, Logger: zerolog.Nop()})
	require.NoError(t, err)

	out := make([]float32, testFrames)
	sched.Eval(PlaybackContext{Frames: testFrames, SampleRate: 48000, Channels: 1, OutputRegion: out})
	for _, v := range out {
		require.Equal(t, float32(0.5), v)
	}
}

func TestE2Sum(t *testing.T) {
	g := graph.New()
	s1, s1p := buildNode(t, g, "s1", nil, []string{"out"})
	s2, s2p := buildNode(t, g, "s2", nil, []string{"out"})
	s3, s3p := buildNode(t, g, "s3", nil, []string{"out"})
	mix, mixP := buildNode(t, g, "mix", []string{"in"}, []string{"out"})

	require.NoError(t, g.Connect(graph.Endpoint{Node: s1, Port: s1p["out"]}, graph.Endpoint{Node: mix, Port: mixP["in"]}))
	require.NoError(t, g.Connect(graph.Endpoint{Node: s2, Port: s2p["out"]}, graph.Endpoint{Node: mix, Port: mixP["in"]}))
	require.NoError(t, g.Connect(graph.Endpoint{Node: s3, Port: s3p["out"]}, graph.Endpoint{Node: mix, Port: mixP["in"]}))

	factory := func(n graph.NodeHandle) ProcessFunc {
		switch n {
		case s1, s2, s3:
			return constantWriter(0.25)
		default:
			return passthrough()
		}
	}

	sched, err := Compile(g, mix, ConstLatency(0), factory, Options{Frames: testFrames, Logger: zerolog.Nop()})
	require.NoError(t, err)

	out := make([]float32, testFrames)
	sched.Eval(PlaybackContext{Frames: testFrames, SampleRate: 48000, Channels: 1, OutputRegion: out})
	for _, v := range out {
		require.InDelta(t, 0.75, v, 1e-6)
	}
}

func TestE3DelayAlignment(t *testing.T) {
	const latA = 128
	g := graph.New()
	src, srcP := buildNode(t, g, "source", nil, []string{"out"})
	a, aP := buildNode(t, g, "a", []string{"in"}, []string{"out"})
	b, bP := buildNode(t, g, "b", []string{"in"}, []string{"out"})
	c, cP := buildNode(t, g, "c", []string{"in"}, []string{"out"})

	require.NoError(t, g.Connect(graph.Endpoint{Node: src, Port: srcP["out"]}, graph.Endpoint{Node: a, Port: aP["in"]}))
	require.NoError(t, g.Connect(graph.Endpoint{Node: src, Port: srcP["out"]}, graph.Endpoint{Node: b, Port: bP["in"]}))
	require.NoError(t, g.Connect(graph.Endpoint{Node: a, Port: aP["out"]}, graph.Endpoint{Node: c, Port: cP["in"]}))
	require.NoError(t, g.Connect(graph.Endpoint{Node: b, Port: bP["out"]}, graph.Endpoint{Node: c, Port: cP["in"]}))

	factory := func(n graph.NodeHandle) ProcessFunc {
		switch n {
		case src:
			return func(ctx *ProcessContext) {
				out := ctx.GetOutput("out")
				w, err := out.Write(0)
				require.NoError(t, err)
				for i := range w {
					w[i] = 0
				}
				w[0] = 1
			}
		case a:
			return shiftBy(latA)
		case b:
			return passthrough()
		default:
			return passthrough()
		}
	}

	latency := TableLatency(map[graph.NodeHandle]int{a: latA, b: 0})
	sched, err := Compile(g, c, latency, factory, Options{Frames: testFrames, Logger: zerolog.Nop()})
	require.NoError(t, err)

	out := make([]float32, testFrames)
	sched.Eval(PlaybackContext{Frames: testFrames, SampleRate: 48000, Channels: 1, OutputRegion: out})

	for n, v := range out {
		if n == latA {
			require.InDelta(t, 2.0, v, 1e-6)
		} else {
			require.InDelta(t, 0.0, v, 1e-6)
		}
	}
}

func TestCompileRootMissing(t *testing.T) {
	g := graph.New()
	_, err := Compile(g, graph.NodeHandle(0x1234), ConstLatency(0), func(graph.NodeHandle) ProcessFunc { return nil }, Options{Frames: testFrames})
	require.Error(t, err)
	var rootErr *RootNotFoundError
	require.ErrorAs(t, err, &rootErr)
}

func TestCompileRootHasNoOutput(t *testing.T) {
	g := graph.New()
	n, err := g.AddNode("sink")
	require.NoError(t, err)
	_, err = g.AddPort(graph.Input, n, "in")
	require.NoError(t, err)

	_, err = Compile(g, n, ConstLatency(0), func(graph.NodeHandle) ProcessFunc { return passthrough() }, Options{Frames: testFrames})
	require.Error(t, err)
	var noOutErr *RootHasNoOutputError
	require.ErrorAs(t, err, &noOutErr)
}

func TestDeterministicSchedules(t *testing.T) {
	// Two schedules compiled from identically built graphs must produce
	// bit-identical output for the same input, block after block.
	build := func() (*Schedule, error) {
		g := graph.New()
		src, srcP := buildNode(t, g, "source", nil, []string{"out"})
		a, aP := buildNode(t, g, "a", []string{"in"}, []string{"out"})
		b, bP := buildNode(t, g, "b", []string{"in"}, []string{"out"})
		c, cP := buildNode(t, g, "c", []string{"in"}, []string{"out"})

		require.NoError(t, g.Connect(graph.Endpoint{Node: src, Port: srcP["out"]}, graph.Endpoint{Node: a, Port: aP["in"]}))
		require.NoError(t, g.Connect(graph.Endpoint{Node: src, Port: srcP["out"]}, graph.Endpoint{Node: b, Port: bP["in"]}))
		require.NoError(t, g.Connect(graph.Endpoint{Node: a, Port: aP["out"]}, graph.Endpoint{Node: c, Port: cP["in"]}))
		require.NoError(t, g.Connect(graph.Endpoint{Node: b, Port: bP["out"]}, graph.Endpoint{Node: c, Port: cP["in"]}))

		phase := 0
		factory := func(n graph.NodeHandle) ProcessFunc {
			switch n {
			case src:
				return func(ctx *ProcessContext) {
					out := ctx.GetOutput("out")
					w, err := out.Write(0)
					require.NoError(t, err)
					for i := range w {
						w[i] = float32((phase+i)%7) * 0.125
					}
					phase += len(w)
				}
			case a:
				return shiftBy(32)
			default:
				return passthrough()
			}
		}
		latency := TableLatency(map[graph.NodeHandle]int{a: 32})
		return Compile(g, c, latency, factory, Options{Frames: testFrames, Logger: zerolog.Nop()})
	}

	s1, err := build()
	require.NoError(t, err)
	s2, err := build()
	require.NoError(t, err)

	out1 := make([]float32, testFrames)
	out2 := make([]float32, testFrames)
	for block := 0; block < 4; block++ {
		s1.Eval(PlaybackContext{Frames: testFrames, SampleRate: 48000, Channels: 1, OutputRegion: out1})
		s2.Eval(PlaybackContext{Frames: testFrames, SampleRate: 48000, Channels: 1, OutputRegion: out2})
		require.Equal(t, out1, out2, "block %d diverged", block)
	}
}

func TestAccumulatedLatencyReported(t *testing.T) {
	g := graph.New()
	src, srcP := buildNode(t, g, "src", nil, []string{"out"})
	fx, fxP := buildNode(t, g, "fx", []string{"in"}, []string{"out"})
	require.NoError(t, g.Connect(graph.Endpoint{Node: src, Port: srcP["out"]}, graph.Endpoint{Node: fx, Port: fxP["in"]}))

	latency := TableLatency(map[graph.NodeHandle]int{src: 10, fx: 5})
	sched, err := Compile(g, fx, latency, func(graph.NodeHandle) ProcessFunc { return passthrough() }, Options{Frames: testFrames, Logger: zerolog.Nop()})
	require.NoError(t, err)

	acc, ok := sched.Accumulated(src)
	require.True(t, ok)
	require.Equal(t, 10, acc)
	acc, ok = sched.Accumulated(fx)
	require.True(t, ok)
	require.Equal(t, 15, acc)
}

func TestDisconnectedSubgraphNotEmitted(t *testing.T) {
	g := graph.New()
	src, srcP := buildNode(t, g, "src", nil, []string{"out"})
	sink, sinkP := buildNode(t, g, "sink", []string{"in"}, []string{"out"})
	require.NoError(t, g.Connect(graph.Endpoint{Node: src, Port: srcP["out"]}, graph.Endpoint{Node: sink, Port: sinkP["in"]}))

	// An island node the root cannot reach must never run.
	island, _ := buildNode(t, g, "island", nil, []string{"out"})
	ran := false
	factory := func(n graph.NodeHandle) ProcessFunc {
		if n == island {
			return func(*ProcessContext) { ran = true }
		}
		if n == src {
			return constantWriter(1)
		}
		return passthrough()
	}

	sched, err := Compile(g, sink, ConstLatency(0), factory, Options{Frames: testFrames, Logger: zerolog.Nop()})
	require.NoError(t, err)

	out := make([]float32, testFrames)
	sched.Eval(PlaybackContext{Frames: testFrames, SampleRate: 48000, Channels: 1, OutputRegion: out})
	require.False(t, ran)
}
