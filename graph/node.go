// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package graph

import "github.com/signalgraph/core/chconfig"

// Port is a named, typed connection endpoint on a node.
type Port struct {
	Name   string
	Config chconfig.Config
}

// PortEntry pairs a port's handle with its data, preserving insertion
// order the way a node's input/output list does.
type PortEntry struct {
	ID   PortHandle
	Port Port
}

// InEdge records one incoming connection: the source endpoint and which
// of this node's input ports it lands on.
type InEdge struct {
	SrcNode NodeHandle
	SrcPort PortHandle
	DstPort PortHandle
}

// OutEdge records one outgoing connection: the destination endpoint and
// which of this node's output ports produced it.
type OutEdge struct {
	DstNode NodeHandle
	DstPort PortHandle
	SrcPort PortHandle
}

type node struct {
	id       NodeHandle
	name     string
	inputs   []PortEntry
	outputs  []PortEntry
	inEdges  []InEdge
	outEdges []OutEdge
}

func (n *node) ports(dir Direction) *[]PortEntry {
	if dir == Input {
		return &n.inputs
	}
	return &n.outputs
}

func findPort(entries []PortEntry, id PortHandle) (Port, int) {
	for i, e := range entries {
		if e.ID == id {
			return e.Port, i
		}
	}
	return Port{}, -1
}
