// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package schedule

import "github.com/signalgraph/core/graph"

// LatencyFunc reports the inherent processing latency of a node, in
// frames. It must be pure and non-negative; the compiler calls it at
// most once per node during latency propagation.
type LatencyFunc func(graph.NodeHandle) int

// ConstLatency returns a LatencyFunc reporting the same latency for
// every node, useful for graphs built entirely from zero-latency
// processing nodes (gains, mixers, the sample player).
func ConstLatency(frames int) LatencyFunc {
	return func(graph.NodeHandle) int { return frames }
}

// TableLatency returns a LatencyFunc backed by a per-node lookup table,
// defaulting to 0 for nodes absent from the table.
func TableLatency(table map[graph.NodeHandle]int) LatencyFunc {
	return func(n graph.NodeHandle) int { return table[n] }
}
