// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package schedule

import (
	"github.com/rs/zerolog"
	"github.com/signalgraph/core/buffer"
	"github.com/signalgraph/core/chconfig"
	"github.com/signalgraph/core/graph"
)

// Options configures Compile.
type Options struct {
	// Frames is the fixed block size every buffer in the schedule is sized
	// for; it must match the driver's callback block size.
	Frames int
	// Logger receives compile-time warnings (skipped dangling
	// dependencies). Never touched again once Compile returns; the
	// resulting Schedule carries no logger, since the executor runs on
	// the audio thread.
	Logger zerolog.Logger
}

type portKey struct {
	Node graph.NodeHandle
	Port graph.PortHandle
}

type edgeComp struct {
	SrcNode graph.NodeHandle
	SrcPort graph.PortHandle
	DstNode graph.NodeHandle
	DstPort graph.PortHandle
	Delta   int
}

// bridgeSpec is a synthetic copy inserted between a producer's canonical
// output buffer and a buffer some consumer actually reads: a Delay
// buffer (non-zero compensation) or a Sum buffer's scratch (fan-in).
// Only dstIdx is exposed as a portBinding on the emitted entry: dstIdx
// is what this entry is responsible for advancing with Prepare; srcIdx
// is read directly from the schedule's buffer list inside the closure
// and must already have been prepared by whatever entry owns it.
type bridgeSpec struct {
	afterNode graph.NodeHandle
	srcIdx    int
	dstIdx    int
	channels  int
}

// Compile walks g from root and produces an immutable Schedule. latency
// reports each node's inherent processing delay in frames; process
// builds the per-node ProcessFunc. Compile never mutates g.
func Compile(g *graph.Graph, root graph.NodeHandle, latency LatencyFunc, process ProcessFactory, opts Options) (*Schedule, error) {
	order, accumulated, comps, err := walk(g, root, latency, opts.Logger)
	if err != nil {
		return nil, err
	}

	frames := opts.Frames
	var buffers []buffer.Buffer
	var bridges []bridgeSpec

	// producerBuf holds, per output port, the single Simple buffer its
	// node's process function actually writes into. An edge reads from
	// here directly when it needs the raw, zero-delay signal (the common
	// single-consumer case: no copy), or via a bridge into a dedicated
	// Delay/Sum buffer when it needs compensation or is folding into a
	// fan-in. This keeps a port with two differently-delayed consumers
	// from corrupting either one: each gets its own buffer, fed from
	// the same source, instead of racing to reuse one.
	producerBuf := make(map[portKey]int)
	// delayBufs dedupes identical (port, delta) compensation requirements
	// so two consumers needing the same delay share one Delay buffer.
	delayBufs := make(map[portKey]map[int]int)
	inputBuf := make(map[portKey]int)
	outputBuf := make(map[portKey]int)

	findDelta := func(e graph.InEdge, dst graph.NodeHandle) int {
		for _, c := range comps {
			if c.SrcNode == e.SrcNode && c.SrcPort == e.SrcPort && c.DstNode == dst && c.DstPort == e.DstPort {
				return c.Delta
			}
		}
		return 0
	}

	sourceBuf := func(srcKey portKey, cfg chconfig.Config) int {
		if idx, ok := producerBuf[srcKey]; ok {
			return idx
		}
		idx := len(buffers)
		buffers = append(buffers, buffer.NewSimple(cfg, frames))
		producerBuf[srcKey] = idx
		outputBuf[srcKey] = idx
		return idx
	}

	// delayedBuf returns the buffer carrying srcKey's signal delayed by
	// delta frames (the producer's canonical buffer itself when delta is
	// zero), creating the Delay buffer and its feeding bridge on first use.
	delayedBuf := func(srcKey portKey, delta int, afterNode graph.NodeHandle, cfg chconfig.Config) (int, error) {
		src := sourceBuf(srcKey, cfg)
		if delta == 0 {
			return src, nil
		}
		byDelta, ok := delayBufs[srcKey]
		if !ok {
			byDelta = make(map[int]int)
			delayBufs[srcKey] = byDelta
		}
		if idx, ok := byDelta[delta]; ok {
			return idx, nil
		}
		db, derr := buffer.NewDelay(cfg, frames, delta, buffer.WithCapacity(buffer.DefaultDelayCapacity))
		if derr != nil {
			return 0, &DelayTooLargeError{Edge: graph.Endpoint{Node: srcKey.Node, Port: srcKey.Port}, Delay: delta, Max: buffer.DefaultDelayCapacity}
		}
		idx := len(buffers)
		buffers = append(buffers, db)
		byDelta[delta] = idx
		bridges = append(bridges, bridgeSpec{afterNode: afterNode, srcIdx: src, dstIdx: idx, channels: cfg.Count()})
		return idx, nil
	}

	for _, n := range order {
		inputs, ierr := g.Inputs(n)
		if ierr != nil {
			continue
		}
		inEdges, eerr := g.InEdges(n)
		if eerr != nil {
			continue
		}
		for _, in := range inputs {
			var group []graph.InEdge
			for _, e := range inEdges {
				if e.DstPort == in.ID {
					group = append(group, e)
				}
			}
			if len(group) == 0 {
				continue
			}
			sumNeeded := len(group) >= 2
			var sumIdx int
			if sumNeeded {
				sumIdx = len(buffers)
				buffers = append(buffers, buffer.NewSum(in.Port.Config, frames))
			}
			for _, e := range group {
				delta := findDelta(e, n)
				srcKey := portKey{e.SrcNode, e.SrcPort}
				feedIdx, ferr := delayedBuf(srcKey, delta, e.SrcNode, in.Port.Config)
				if ferr != nil {
					return nil, ferr
				}
				if sumNeeded {
					bridges = append(bridges, bridgeSpec{afterNode: e.SrcNode, srcIdx: feedIdx, dstIdx: sumIdx, channels: in.Port.Config.Count()})
				} else {
					inputBuf[portKey{n, in.ID}] = feedIdx
				}
			}
			if sumNeeded {
				inputBuf[portKey{n, in.ID}] = sumIdx
			}
		}
	}

	rootOutputs, rerr := g.Outputs(root)
	if rerr != nil {
		return nil, rerr
	}
	if len(rootOutputs) == 0 {
		return nil, &RootHasNoOutputError{Root: root}
	}
	sourceBuf(portKey{root, rootOutputs[0].ID}, rootOutputs[0].Port.Config)

	var entries []entry
	for _, n := range order {
		ins, _ := g.Inputs(n)
		outs, _ := g.Outputs(n)
		var inBindings, outBindings []portBinding
		for _, p := range ins {
			if idx, ok := inputBuf[portKey{n, p.ID}]; ok {
				inBindings = append(inBindings, portBinding{Port: p.ID, Buf: idx})
			}
		}
		for _, p := range outs {
			if idx, ok := outputBuf[portKey{n, p.ID}]; ok {
				outBindings = append(outBindings, portBinding{Port: p.ID, Buf: idx})
			}
		}
		entries = append(entries, entry{
			node:    n,
			process: process(n),
			inputs:  inBindings,
			outputs: outBindings,
		})
		for _, br := range bridges {
			if br.afterNode != n {
				continue
			}
			entries = append(entries, entry{
				process: bridgeProcess(br.srcIdx, br.dstIdx, br.channels),
				outputs: []portBinding{{Buf: br.dstIdx}},
			})
		}
	}
	for i := range entries {
		entries[i].ctx = ProcessContext{
			buffers: buffers,
			inputs:  entries[i].inputs,
			outputs: entries[i].outputs,
		}
	}

	accumulatedOut := make(map[graph.NodeHandle]int, len(accumulated))
	for k, v := range accumulated {
		accumulatedOut[k] = v
	}

	return &Schedule{entries: entries, buffers: buffers, accumulated: accumulatedOut}, nil
}

func bridgeProcess(srcIdx, dstIdx int, channels int) ProcessFunc {
	return func(ctx *ProcessContext) {
		for ch := 0; ch < channels; ch++ {
			src, err := ctx.buffers[srcIdx].Read(ch)
			if err != nil {
				continue
			}
			dst, err := ctx.buffers[dstIdx].Write(ch)
			if err != nil {
				continue
			}
			copy(dst, src)
		}
	}
}

type stackFrame struct {
	node    graph.NodeHandle
	latency int
}

func walk(g *graph.Graph, root graph.NodeHandle, latency LatencyFunc, log zerolog.Logger) (order []graph.NodeHandle, accumulated map[graph.NodeHandle]int, comps []edgeComp, err error) {
	if !g.NodeExists(root) {
		return nil, nil, nil, &RootNotFoundError{Root: root}
	}
	accumulated = make(map[graph.NodeHandle]int)
	stack := []stackFrame{{node: root, latency: 0}}

outer:
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node, lat := top.node, top.latency

		inEdges, ierr := g.InEdges(node)
		if ierr != nil {
			log.Warn().Msgf("schedule: node %v vanished mid-walk, skipping", node)
			continue
		}
		for _, e := range inEdges {
			if !g.NodeExists(e.SrcNode) {
				log.Warn().Msgf("schedule: dependency %v of %v missing, skipping", e.SrcNode, node)
				continue
			}
			if l, ok := accumulated[e.SrcNode]; ok {
				if l > lat {
					lat = l
				}
			} else {
				stack = append(stack, stackFrame{node: node, latency: lat})
				stack = append(stack, stackFrame{node: e.SrcNode, latency: 0})
				continue outer
			}
		}

		order = append(order, node)
		for _, e := range inEdges {
			if !g.NodeExists(e.SrcNode) {
				continue
			}
			srcAcc := accumulated[e.SrcNode]
			delta := lat - srcAcc
			if delta != 0 {
				comps = append(comps, edgeComp{SrcNode: e.SrcNode, SrcPort: e.SrcPort, DstNode: node, DstPort: e.DstPort, Delta: delta})
			}
		}
		accumulated[node] = lat + latency(node)
	}
	return order, accumulated, comps, nil
}
