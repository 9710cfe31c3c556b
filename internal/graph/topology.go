// Package graph holds the operator graph: a DAG of nodes and tensor edges,
// and the shape-inference engine that walks it in topological order.
package graph

import (
	"fmt"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// Node is one operator invocation in the graph.
type Node struct {
	Op   *op.Operator
	Name string
}

// Edge carries a named tensor slot. The tensor is absent until produced by
// inference or supplied as a global input.
type Edge struct {
	Tensor *tensor.Tensor
	Name   string
}

// Builder accumulates nodes and edges and produces a Graph in a stable
// topological order. It is the construction surface an external parser
// targets.
type Builder struct {
	edges     []Edge
	edgeIndex map[string]int

	nodes []builderNode

	globalInputs  []string
	globalOutputs []string
}

type builderNode struct {
	name    string
	op      *op.Operator
	inputs  []string
	outputs []string
}

// NewBuilder returns an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{edgeIndex: make(map[string]int)}
}

// Edge declares a named edge, optionally carrying an initial tensor.
// Redeclaring a name overwrites its tensor.
func (b *Builder) Edge(name string, t *tensor.Tensor) *Builder {
	if i, ok := b.edgeIndex[name]; ok {
		b.edges[i].Tensor = t
		return b
	}
	b.edgeIndex[name] = len(b.edges)
	b.edges = append(b.edges, Edge{Tensor: t, Name: name})
	return b
}

// Node adds an operator node reading the named input edges and producing the
// named output edges. Undeclared edge names are created on the fly.
func (b *Builder) Node(name string, operator *op.Operator, inputs, outputs []string) *Builder {
	for _, e := range inputs {
		b.ensureEdge(e)
	}
	for _, e := range outputs {
		b.ensureEdge(e)
	}
	b.nodes = append(b.nodes, builderNode{name: name, op: operator, inputs: inputs, outputs: outputs})
	return b
}

// GlobalInputs declares the graph's input edges, in order.
func (b *Builder) GlobalInputs(names ...string) *Builder {
	b.globalInputs = names
	return b
}

// GlobalOutputs declares the graph's output edges, in order.
func (b *Builder) GlobalOutputs(names ...string) *Builder {
	b.globalOutputs = names
	return b
}

func (b *Builder) ensureEdge(name string) {
	if _, ok := b.edgeIndex[name]; !ok {
		b.edgeIndex[name] = len(b.edges)
		b.edges = append(b.edges, Edge{Name: name})
	}
}

// Build checks the topology, computes the traversal order and returns the
// graph with dimension variables canonicalized by name.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{
		nodes:       make([]Node, len(b.nodes)),
		edges:       b.edges,
		nodeInputs:  make([][]int, len(b.nodes)),
		nodeOutputs: make([][]int, len(b.nodes)),
	}

	producer := make(map[int]int, len(b.edges)) // edge index -> node index
	for ni, n := range b.nodes {
		g.nodes[ni] = Node{Op: n.op, Name: n.name}
		for _, e := range n.inputs {
			g.nodeInputs[ni] = append(g.nodeInputs[ni], b.edgeIndex[e])
		}
		for _, e := range n.outputs {
			ei := b.edgeIndex[e]
			if prev, ok := producer[ei]; ok {
				return nil, fmt.Errorf("graph: edge %q produced by both %q and %q",
					e, b.nodes[prev].name, n.name)
			}
			producer[ei] = ni
			g.nodeOutputs[ni] = append(g.nodeOutputs[ni], ei)
		}
	}

	for _, name := range b.globalInputs {
		i, ok := b.edgeIndex[name]
		if !ok {
			return nil, fmt.Errorf("graph: unknown global input %q", name)
		}
		g.globalInputs = append(g.globalInputs, i)
	}
	for _, name := range b.globalOutputs {
		i, ok := b.edgeIndex[name]
		if !ok {
			return nil, fmt.Errorf("graph: unknown global output %q", name)
		}
		g.globalOutputs = append(g.globalOutputs, i)
	}

	order, err := topoSort(len(b.nodes), g.nodeInputs, producer)
	if err != nil {
		return nil, err
	}
	g.order = order

	g.collectVariables()
	return g, nil
}

// topoSort returns node indices in a stable topological order: among ready
// nodes, insertion order wins.
func topoSort(n int, nodeInputs [][]int, producer map[int]int) ([]int, error) {
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for ni := 0; ni < n; ni++ {
		for _, ei := range nodeInputs[ni] {
			if pi, ok := producer[ei]; ok {
				indegree[ni]++
				dependents[pi] = append(dependents[pi], ni)
			}
		}
	}

	var queue []int
	for ni := 0; ni < n; ni++ {
		if indegree[ni] == 0 {
			queue = append(queue, ni)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		ni := queue[0]
		queue = queue[1:]
		order = append(order, ni)
		for _, di := range dependents[ni] {
			indegree[di]--
			if indegree[di] == 0 {
				queue = append(queue, di)
			}
		}
	}
	if len(order) != n {
		return nil, fmt.Errorf("graph: cycle detected")
	}
	return order, nil
}
