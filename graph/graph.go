// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package graph implements the directed acyclic signal graph: nodes and
// ports with stable hashed identities, and the incremental edit
// operations (add/delete/connect/configure) that keep it invariant-clean
// after every call. The graph is owned exclusively by the controller
// thread; the audio thread never touches it (see the scheduler/executor
// packages for what runs there instead).
package graph

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/signalgraph/core/chconfig"
)

// Graph maps node identities to nodes. The zero value is not usable; use
// New. Graph is not safe for concurrent use; it lives on a single
// controller thread.
type Graph struct {
	nodes    map[NodeHandle]*node
	log      zerolog.Logger
	warnings []string
}

// New creates an empty graph. A nop logger is used unless WithLogger is
// supplied.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes: make(map[NodeHandle]*node),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Option configures a Graph at construction time.
type Option func(*Graph)

// WithLogger attaches a controller-side logger. Never call this from
// audio-thread code; package schedule's executor holds no logger at all.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Graph) { g.log = l }
}

func (g *Graph) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	g.warnings = append(g.warnings, msg)
	g.log.Warn().Msg(msg)
}

// Warnings drains and returns every warning accumulated since the last
// call (pruned dangling edges, missing mirror endpoints). Each warning is
// also written to the graph's logger (a nop logger unless WithLogger was
// given) at the moment it is recorded; the controller decides whether to
// surface or discard the drained list.
func (g *Graph) Warnings() []string {
	w := g.warnings
	g.warnings = nil
	return w
}

func checkName(name string) error {
	if len(name) > MaxNameLen {
		return &StringCapacityError{Name: name}
	}
	return nil
}

// AddNode creates a node named name and returns its handle. Fails with
// NodeAlreadyExistsError if a node with that name (or, vanishingly
// rarely, a hash-colliding different name) already exists.
func (g *Graph) AddNode(name string) (NodeHandle, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	id := hashNode(name)
	if _, exists := g.nodes[id]; exists {
		return 0, &NodeAlreadyExistsError{Name: name}
	}
	g.nodes[id] = &node{id: id, name: name}
	return id, nil
}

// DelNode removes a node and prunes every edge incident to it, on both
// sides. A remote endpoint that is already missing is tolerated: the
// graph cannot observe a dangling edge by invariant, so this only
// happens if the graph was already mutated through this same call
// (mirror sweep), and is logged as a warning rather than failing.
func (g *Graph) DelNode(h NodeHandle) error {
	n, ok := g.nodes[h]
	if !ok {
		return &NodeDoesNotExistError{Node: h}
	}
	for _, e := range n.inEdges {
		if src, ok := g.nodes[e.SrcNode]; ok {
			src.outEdges = removeOutEdge(src.outEdges, h, e.DstPort, e.SrcPort)
		} else {
			g.warnf("del_node %v: source node %v for pruned edge already missing", h, e.SrcNode)
		}
	}
	for _, e := range n.outEdges {
		if dst, ok := g.nodes[e.DstNode]; ok {
			dst.inEdges = removeInEdge(dst.inEdges, h, e.SrcPort, e.DstPort)
		} else {
			g.warnf("del_node %v: destination node %v for pruned edge already missing", h, e.DstNode)
		}
	}
	delete(g.nodes, h)
	return nil
}

// AddPort adds a port named name, in direction dir, to node. Default
// channel configuration is Mono.
func (g *Graph) AddPort(dir Direction, nodeH NodeHandle, name string) (PortHandle, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	n, ok := g.nodes[nodeH]
	if !ok {
		return 0, &NodeDoesNotExistError{Node: nodeH}
	}
	id := hashPort(name)
	ports := n.ports(dir)
	if _, idx := findPort(*ports, id); idx >= 0 {
		return 0, &PortAlreadyExistsError{Name: name}
	}
	*ports = append(*ports, PortEntry{ID: id, Port: Port{Name: name, Config: chconfig.Mono()}})
	return id, nil
}

// DelPort removes a port and prunes every edge touching it.
func (g *Graph) DelPort(dir Direction, nodeH NodeHandle, portH PortHandle) error {
	n, ok := g.nodes[nodeH]
	if !ok {
		return &NodeDoesNotExistError{Node: nodeH}
	}
	ports := n.ports(dir)
	_, idx := findPort(*ports, portH)
	if idx < 0 {
		return &PortDoesNotExistError{Port: portH}
	}
	*ports = append((*ports)[:idx], (*ports)[idx+1:]...)
	g.pruneEdgesOnPort(nodeH, n, dir, portH)
	return nil
}

// ConfigurePort sets a port's channel configuration, unconditionally
// disconnecting every edge touching it. Edges are typed by
// configuration, so a reconfigure cannot silently coerce an existing
// connection.
func (g *Graph) ConfigurePort(dir Direction, nodeH NodeHandle, portH PortHandle, cfg chconfig.Config) error {
	n, ok := g.nodes[nodeH]
	if !ok {
		return &NodeDoesNotExistError{Node: nodeH}
	}
	ports := n.ports(dir)
	_, idx := findPort(*ports, portH)
	if idx < 0 {
		return &PortDoesNotExistError{Port: portH}
	}
	(*ports)[idx].Port.Config = cfg
	g.pruneEdgesOnPort(nodeH, n, dir, portH)
	return nil
}

func (g *Graph) pruneEdgesOnPort(nodeH NodeHandle, n *node, dir Direction, portH PortHandle) {
	if dir == Input {
		var kept []InEdge
		for _, e := range n.inEdges {
			if e.DstPort != portH {
				kept = append(kept, e)
				continue
			}
			if src, ok := g.nodes[e.SrcNode]; ok {
				src.outEdges = removeOutEdge(src.outEdges, nodeH, portH, e.SrcPort)
			} else {
				g.warnf("prune %v.%v: source node %v already missing", nodeH, portH, e.SrcNode)
			}
		}
		n.inEdges = kept
	} else {
		var kept []OutEdge
		for _, e := range n.outEdges {
			if e.SrcPort != portH {
				kept = append(kept, e)
				continue
			}
			if dst, ok := g.nodes[e.DstNode]; ok {
				dst.inEdges = removeInEdge(dst.inEdges, nodeH, portH, e.DstPort)
			} else {
				g.warnf("prune %v.%v: destination node %v already missing", nodeH, portH, e.DstNode)
			}
		}
		n.outEdges = kept
	}
}

func removeOutEdge(edges []OutEdge, dstNode NodeHandle, dstPort, srcPort PortHandle) []OutEdge {
	for i, e := range edges {
		if e.DstNode == dstNode && e.DstPort == dstPort && e.SrcPort == srcPort {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

func removeInEdge(edges []InEdge, srcNode NodeHandle, srcPort, dstPort PortHandle) []InEdge {
	for i, e := range edges {
		if e.SrcNode == srcNode && e.SrcPort == srcPort && e.DstPort == dstPort {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

// Connect links src (an output port) to dst (an input port). It fails
// with InvalidConnectionError on a self-loop or a connection that would
// introduce a cycle, PortConfigError on mismatched channel
// configurations, and ConnectionAlreadyExistsError if the edge already
// exists.
func (g *Graph) Connect(src, dst Endpoint) error {
	if src.Node == dst.Node {
		return &InvalidConnectionError{Src: src, Dst: dst}
	}
	srcNode, ok := g.nodes[src.Node]
	if !ok {
		return &NodeDoesNotExistError{Node: src.Node}
	}
	dstNode, ok := g.nodes[dst.Node]
	if !ok {
		return &NodeDoesNotExistError{Node: dst.Node}
	}
	srcPort, idx := findPort(srcNode.outputs, src.Port)
	if idx < 0 {
		return &PortDoesNotExistError{Port: src.Port}
	}
	dstPort, idx := findPort(dstNode.inputs, dst.Port)
	if idx < 0 {
		return &PortDoesNotExistError{Port: dst.Port}
	}
	if !srcPort.Config.Equal(dstPort.Config) {
		return &PortConfigError{Src: src, Dst: dst}
	}
	for _, e := range dstNode.inEdges {
		if e.SrcNode == src.Node && e.SrcPort == src.Port && e.DstPort == dst.Port {
			return &ConnectionAlreadyExistsError{Src: src, Dst: dst}
		}
	}
	if g.reaches(src.Node, dst.Node) {
		return &InvalidConnectionError{Src: src, Dst: dst}
	}
	dstNode.inEdges = append(dstNode.inEdges, InEdge{SrcNode: src.Node, SrcPort: src.Port, DstPort: dst.Port})
	srcNode.outEdges = append(srcNode.outEdges, OutEdge{DstNode: dst.Node, DstPort: dst.Port, SrcPort: src.Port})
	return nil
}

// reaches reports whether target is reachable from start by walking
// incoming edges transitively (i.e. target is an ancestor of start).
// Connecting start -> ??? where target is start's would-be downstream
// node is invalid exactly when target already feeds start.
func (g *Graph) reaches(start, target NodeHandle) bool {
	seen := make(map[NodeHandle]bool)
	var walk func(n NodeHandle) bool
	walk = func(n NodeHandle) bool {
		if n == target {
			return true
		}
		if seen[n] {
			return false
		}
		seen[n] = true
		cur, ok := g.nodes[n]
		if !ok {
			return false
		}
		for _, e := range cur.inEdges {
			if walk(e.SrcNode) {
				return true
			}
		}
		return false
	}
	return walk(start)
}

// Disconnect removes an existing edge.
func (g *Graph) Disconnect(src, dst Endpoint) error {
	srcNode, ok := g.nodes[src.Node]
	if !ok {
		return &NodeDoesNotExistError{Node: src.Node}
	}
	dstNode, ok := g.nodes[dst.Node]
	if !ok {
		return &NodeDoesNotExistError{Node: dst.Node}
	}
	found := false
	var kept []InEdge
	for _, e := range dstNode.inEdges {
		if e.SrcNode == src.Node && e.SrcPort == src.Port && e.DstPort == dst.Port {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return &ConnectionDoesNotExistError{Src: src, Dst: dst}
	}
	dstNode.inEdges = kept
	srcNode.outEdges = removeOutEdge(srcNode.outEdges, dst.Node, dst.Port, src.Port)
	return nil
}

// NodeName returns the name a node was created with.
func (g *Graph) NodeName(h NodeHandle) (string, error) {
	n, ok := g.nodes[h]
	if !ok {
		return "", &NodeDoesNotExistError{Node: h}
	}
	return n.name, nil
}

// PortName returns the name a port was created with.
func (g *Graph) PortName(dir Direction, nodeH NodeHandle, portH PortHandle) (string, error) {
	n, ok := g.nodes[nodeH]
	if !ok {
		return "", &NodeDoesNotExistError{Node: nodeH}
	}
	port, idx := findPort(*n.ports(dir), portH)
	if idx < 0 {
		return "", &PortDoesNotExistError{Port: portH}
	}
	return port.Name, nil
}

// ListInputs returns a node's input ports in insertion order.
func (g *Graph) ListInputs(h NodeHandle) ([]PortHandle, error) {
	n, ok := g.nodes[h]
	if !ok {
		return nil, &NodeDoesNotExistError{Node: h}
	}
	return portHandles(n.inputs), nil
}

// ListOutputs returns a node's output ports in insertion order.
func (g *Graph) ListOutputs(h NodeHandle) ([]PortHandle, error) {
	n, ok := g.nodes[h]
	if !ok {
		return nil, &NodeDoesNotExistError{Node: h}
	}
	return portHandles(n.outputs), nil
}

func portHandles(entries []PortEntry) []PortHandle {
	out := make([]PortHandle, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// --- accessors used by package schedule to compile a Schedule ---

// NodeExists reports whether h names a node currently in the graph.
func (g *Graph) NodeExists(h NodeHandle) bool {
	_, ok := g.nodes[h]
	return ok
}

// InEdges returns a node's recorded incoming edges in insertion order.
func (g *Graph) InEdges(h NodeHandle) ([]InEdge, error) {
	n, ok := g.nodes[h]
	if !ok {
		return nil, &NodeDoesNotExistError{Node: h}
	}
	return n.inEdges, nil
}

// Inputs returns a node's input ports (handle + data) in insertion order.
func (g *Graph) Inputs(h NodeHandle) ([]PortEntry, error) {
	n, ok := g.nodes[h]
	if !ok {
		return nil, &NodeDoesNotExistError{Node: h}
	}
	return n.inputs, nil
}

// Outputs returns a node's output ports (handle + data) in insertion order.
func (g *Graph) Outputs(h NodeHandle) ([]PortEntry, error) {
	n, ok := g.nodes[h]
	if !ok {
		return nil, &NodeDoesNotExistError{Node: h}
	}
	return n.outputs, nil
}

// PortConfig looks up a port's channel configuration.
func (g *Graph) PortConfig(dir Direction, nodeH NodeHandle, portH PortHandle) (chconfig.Config, error) {
	n, ok := g.nodes[nodeH]
	if !ok {
		return chconfig.Config{}, &NodeDoesNotExistError{Node: nodeH}
	}
	port, idx := findPort(*n.ports(dir), portH)
	if idx < 0 {
		return chconfig.Config{}, &PortDoesNotExistError{Port: portH}
	}
	return port.Config, nil
}
