// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package schedule

import (
	"fmt"

	"github.com/signalgraph/core/graph"
)

// DelayTooLargeError reports a compensation requirement that exceeds the
// compiled schedule's delay-buffer capacity. This is always a compile-time
// failure; the executor never discovers it at run time.
type DelayTooLargeError struct {
	Edge  graph.Endpoint
	Delay int
	Max   int
}

func (e *DelayTooLargeError) Error() string {
	return fmt.Sprintf("schedule: compensation of %d frames at %v exceeds D_max=%d", e.Delay, e.Edge, e.Max)
}

// RootNotFoundError reports a Compile call naming a node absent from the graph.
type RootNotFoundError struct{ Root graph.NodeHandle }

func (e *RootNotFoundError) Error() string {
	return fmt.Sprintf("schedule: root node %v does not exist", e.Root)
}

// RootHasNoOutputError reports a root node with no output ports at all,
// leaving the executor nothing to copy into the driver's output region.
type RootHasNoOutputError struct{ Root graph.NodeHandle }

func (e *RootHasNoOutputError) Error() string {
	return fmt.Sprintf("schedule: root node %v has no output ports", e.Root)
}
