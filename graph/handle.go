// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package graph

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// NodeHandle is a stable 64-bit identity for a node, derived by hashing
// its name. Two nodes created with the same name hash to the same
// handle, which is why add_node on a colliding name fails rather than
// silently aliasing.
type NodeHandle uint64

func (h NodeHandle) String() string { return fmt.Sprintf("node#%x", uint64(h)) }

// PortHandle is a stable 64-bit identity for a port, derived by hashing
// its name. Port handles are unique within (node, direction) but may
// collide across different nodes or directions without consequence,
// since lookups are always scoped to a node's input or output list.
type PortHandle uint64

func (h PortHandle) String() string { return fmt.Sprintf("port#%x", uint64(h)) }

// Endpoint names a port on a node: (NodeHandle, PortHandle).
type Endpoint struct {
	Node NodeHandle
	Port PortHandle
}

func (e Endpoint) String() string { return fmt.Sprintf("%v.%v", e.Node, e.Port) }

func hashNode(name string) NodeHandle { return NodeHandle(xxhash.Sum64String(name)) }
func hashPort(name string) PortHandle { return PortHandle(xxhash.Sum64String(name)) }

// HashPortName derives the stable PortHandle for a port name. Node
// authors use this (indirectly, via ProcessContext.GetInput/GetOutput)
// to resolve a port by the same name they gave AddPort.
func HashPortName(name string) PortHandle { return hashPort(name) }

// Direction is which side of a node a port sits on.
type Direction int

const (
	// Input ports receive data.
	Input Direction = iota
	// Output ports source data.
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}
