package graph

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-additive/dsp/effect"
	"github.com/cwbudde/algo-additive/dsp/partial"
)

// Graph is a compiled effect graph. It owns its node runtimes and their
// state for the life of the session; evaluation is strictly sequential in
// block-index order because node state is threaded block-to-block. A Graph
// must not be shared between concurrent evaluations.
type Graph struct {
	ctx      effect.Context
	nodes    map[string]*nodeRecord
	incoming map[string][]edge
	order    []string
	latency  int

	// Per-block routing table: node id -> output set per port.
	outputs map[string][]*partial.Set

	next        uint64
	slowestNode string
	slowestDur  time.Duration
}

// Context returns the effect context nodes were configured with.
func (g *Graph) Context() effect.Context {
	return g.ctx
}

// Order returns a copy of the cached topological evaluation order,
// including the reserved input and output nodes. The order is stable: the
// same nodes and edges always compile to the same order.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Latency returns the maximum accumulated declared latency, in blocks,
// along any path from the input to the output node.
func (g *Graph) Latency() int {
	return g.latency
}

// SlowestNode identifies the node that consumed the most wall time during
// the most recent Evaluate call, for real-time budget attribution.
func (g *Graph) SlowestNode() (string, time.Duration) {
	return g.slowestNode, g.slowestDur
}

// NodeRuntime returns the runtime for the given node ID, or nil. Callers
// must not invoke Process on it; the accessor exists for inspecting
// node-specific state such as collision counters.
func (g *Graph) NodeRuntime(id string) effect.Runtime {
	n := g.nodes[id]
	if n == nil {
		return nil
	}
	return n.runtime
}

// Evaluate routes the source partial set through the graph for one block
// and returns the set arriving at the output node.
//
// It must be called exactly once per block index, starting at 0 and
// increasing by 1; anything else is a precondition violation that returns
// ErrBlockOrder without touching node state. A node failure aborts the
// block with the node identified in the error; the block index is still
// consumed, since upstream node state has already advanced.
func (g *Graph) Evaluate(source *partial.Set, blockIndex uint64) (*partial.Set, error) {
	if blockIndex != g.next {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBlockOrder, blockIndex, g.next)
	}
	g.next++

	if source == nil {
		source = partial.NewSet()
	}

	g.outputs[InputID] = g.outputs[InputID][:0]
	g.outputs[InputID] = append(g.outputs[InputID], source)

	g.slowestNode = ""
	g.slowestDur = 0

	for _, id := range g.order {
		if id == InputID {
			continue
		}

		inputs := g.gatherInputs(id)

		if id == OutputID {
			return g.mergeOutput(inputs)
		}

		node := g.nodes[id]

		if node.bypassed {
			g.outputs[id] = append(g.outputs[id][:0], firstOrEmpty(inputs))
			continue
		}

		start := time.Now()
		outs, err := node.runtime.Process(inputs, blockIndex)
		elapsed := time.Since(start)

		if elapsed > g.slowestDur {
			g.slowestDur = elapsed
			g.slowestNode = id
		}

		if err != nil {
			return nil, fmt.Errorf("graph: node %q: %w", id, err)
		}

		g.outputs[id] = append(g.outputs[id][:0], outs...)
	}

	// No edge reaches the output node.
	return partial.NewSet(), nil
}

// gatherInputs collects one set per incoming edge, in (port, insertion)
// order. A producer port that emitted nothing this block contributes an
// empty set, so consumers always see fully available inputs regardless of
// upstream latency.
func (g *Graph) gatherInputs(id string) []*partial.Set {
	edges := g.incoming[id]
	if len(edges) == 0 {
		return nil
	}

	inputs := make([]*partial.Set, len(edges))
	for i, e := range edges {
		ports := g.outputs[e.From]
		if e.FromPort < len(ports) && ports[e.FromPort] != nil {
			inputs[i] = ports[e.FromPort]
		} else {
			inputs[i] = partial.NewSet()
		}
	}

	return inputs
}

// mergeOutput combines whatever arrives at the output node. A single
// producer passes through; multiple producers are merged with collisions
// treated as errors, since the output node has no configurable policy.
func (g *Graph) mergeOutput(inputs []*partial.Set) (*partial.Set, error) {
	switch len(inputs) {
	case 0:
		return partial.NewSet(), nil
	case 1:
		return inputs[0], nil
	}

	merged := partial.NewSet()
	for _, in := range inputs {
		var err error
		in.Each(func(p partial.Partial) {
			if err != nil {
				return
			}
			err = merged.Add(p)
		})
		if err != nil {
			return nil, fmt.Errorf("graph: output node: %w (connect producers through a mix node)", err)
		}
	}

	return merged, nil
}

func firstOrEmpty(inputs []*partial.Set) *partial.Set {
	if len(inputs) == 0 || inputs[0] == nil {
		return partial.NewSet()
	}
	return inputs[0]
}

// pathLatency computes the longest accumulated node latency over all paths,
// walking the cached topological order.
func (g *Graph) pathLatency(outgoing map[string][]edge) int {
	acc := make(map[string]int, len(g.order))

	for _, id := range g.order {
		nodeLatency := 0
		if n := g.nodes[id]; n != nil && n.runtime != nil {
			nodeLatency = n.runtime.Latency()
		}

		through := acc[id] + nodeLatency
		for _, e := range outgoing[id] {
			if through > acc[e.To] {
				acc[e.To] = through
			}
		}
	}

	return acc[OutputID]
}
