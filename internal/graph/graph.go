package graph

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/emirpasic/gods/v2/sets/treeset"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// Graph is a built operator graph plus the canonical dimension-variable map.
// A graph exclusively owns its edges and variables; concurrent use of
// distinct graphs is safe.
type Graph struct {
	nodes       []Node
	edges       []Edge
	nodeInputs  [][]int
	nodeOutputs [][]int

	globalInputs  []int
	globalOutputs []int
	order         []int

	variables map[string]*tensor.DimVariable
}

// collectVariables unifies dimension variables by name: the first variable
// seen under a name becomes canonical and later dims are rewritten to it.
func (g *Graph) collectVariables() {
	g.variables = make(map[string]*tensor.DimVariable)
	for i := range g.edges {
		t := g.edges[i].Tensor
		if t == nil {
			continue
		}
		for _, d := range t.Shape.Clone() {
			v := d.Variable()
			if v == nil {
				continue
			}
			if canonical, ok := g.variables[v.Name]; ok {
				if canonical != v {
					t.ReplaceVariable(v, canonical)
				}
			} else {
				g.variables[v.Name] = v
			}
		}
	}
}

// Nodes returns the node count.
func (g *Graph) Nodes() int { return len(g.nodes) }

// Node returns the i-th node.
func (g *Graph) Node(i int) *Node { return &g.nodes[i] }

// Edges returns the edge count.
func (g *Graph) Edges() int { return len(g.edges) }

// Edge returns the i-th edge.
func (g *Graph) Edge(i int) *Edge { return &g.edges[i] }

// GlobalInputsCount returns the number of declared global inputs.
func (g *Graph) GlobalInputsCount() int { return len(g.globalInputs) }

// GlobalInput returns the edge behind the i-th global input.
func (g *Graph) GlobalInput(i int) *Edge { return &g.edges[g.globalInputs[i]] }

// GlobalOutputsCount returns the number of declared global outputs.
func (g *Graph) GlobalOutputsCount() int { return len(g.globalOutputs) }

// GlobalOutput returns the edge behind the i-th global output.
func (g *Graph) GlobalOutput(i int) *Edge { return &g.edges[g.globalOutputs[i]] }

// Variable returns the canonical variable registered under name.
func (g *Graph) Variable(name string) (*tensor.DimVariable, bool) {
	v, ok := g.variables[name]
	return v, ok
}

// Substitute binds the named dimension variable to a concrete value.
// Reports false when the graph has no variable with that name.
func (g *Graph) Substitute(name string, value int64) bool {
	v, ok := g.variables[name]
	if !ok {
		return false
	}
	v.Bind(value)
	return true
}

// SetInput unifies the i-th global input with a concrete tensor. Ranks must
// match and every dimension must reconcile; on any mismatch it reports false
// and leaves the graph unchanged. On success the edge takes the supplied
// tensor's element type and data, and variable dimensions bind to the
// supplied concrete values.
func (g *Graph) SetInput(i int, t *tensor.Tensor) bool {
	if i < 0 || i >= len(g.globalInputs) {
		return false
	}
	current := &g.edges[g.globalInputs[i]]
	if current.Tensor == nil {
		current.Tensor = t
		return true
	}

	declared := current.Tensor.Shape
	supplied := t.Shape
	if supplied.Rank() != declared.Rank() {
		return false
	}

	// Validate every dimension before binding anything.
	type binding struct {
		v     *tensor.DimVariable
		value int64
	}
	var bindings []binding
	for j := range declared {
		d0, d1 := declared[j], supplied[j]
		if v := d0.Variable(); v != nil {
			if v1 := d1.Variable(); v1 != nil && v1.Name != v.Name {
				return false
			}
			if value, ok := d1.Value(); ok {
				if bound, has := d0.Value(); has && bound != value {
					return false
				}
				bindings = append(bindings, binding{v: v, value: value})
			}
			continue
		}
		v0, _ := d0.Value()
		v1, ok := d1.Value()
		if !ok || v0 != v1 {
			return false
		}
	}

	for _, b := range bindings {
		b.v.Bind(b.value)
	}
	current.Tensor.DataType = t.DataType
	current.Tensor.SetData(t.Data())
	return true
}

// FillEdgeInfo walks the graph in topological order, invoking each node's
// inference routine and assigning output tensors to edges. Unknown-variable
// failures are accumulated and returned as a name set; any other inference
// error aborts and is returned. An empty set means every edge is resolved.
func (g *Graph) FillEdgeInfo() (map[string]struct{}, error) {
	unknownVariables := make(map[string]struct{})
	klog.V(1).Info("edge inference start")
	startTime := time.Now()

	for _, nodeIdx := range g.order {
		inputs := make([]*tensor.Tensor, 0, len(g.nodeInputs[nodeIdx]))
		missing := false
		for _, ei := range g.nodeInputs[nodeIdx] {
			if g.edges[ei].Tensor == nil {
				missing = true
				break
			}
			inputs = append(inputs, g.edges[ei].Tensor)
		}
		if missing {
			// Legitimate only while upstream shapes are unresolved.
			continue
		}

		node := &g.nodes[nodeIdx]
		outputs := g.nodeOutputs[nodeIdx]
		inferred, err := node.Op.Infer(inputs)
		if err != nil {
			if uv, ok := op.AsUnknownVariable(err); ok {
				unknownVariables[uv.Name] = struct{}{}
				klog.V(1).Infof("nodes[%d] = %s(%s), inference failed: %v",
					nodeIdx, node.Name, node.Op.OpType.Name(), err)
				continue
			}
			return nil, errors.Wrapf(err, "nodes[%d] = %s(%s)",
				nodeIdx, node.Name, node.Op.OpType.Name())
		}
		if len(inferred) < len(outputs) {
			return nil, errors.Wrapf(op.ErrOutOfRange,
				"nodes[%d] = %s(%s): %d outputs inferred, %d declared",
				nodeIdx, node.Name, node.Op.OpType.Name(), len(inferred), len(outputs))
		}
		var shapes strings.Builder
		for oi, ei := range outputs {
			g.edges[ei].Tensor = inferred[oi]
			shapes.WriteString(inferred[oi].Shape.Format())
			shapes.WriteByte(' ')
		}
		klog.V(1).Infof("nodes[%d] = %s(%s), outputs = ( %s)",
			nodeIdx, node.Name, node.Op.OpType.Name(), shapes.String())
	}
	klog.V(1).Infof("inference cost time: %s", time.Since(startTime))

	if len(unknownVariables) == 0 {
		g.logSummary()
	}
	return unknownVariables, nil
}

// logSummary classifies output-producing nodes once every variable is bound:
// a node is dynamic when some output carries no data, and a front node when
// it is dynamic with fully constant inputs.
func (g *Graph) logSummary() {
	dynamicNodes := treeset.New[string]()
	frontNodes := treeset.New[string]()

	klog.Info("compute on device:")
	i := 0
	for _, nodeIdx := range g.order {
		dynamic := false
		for _, ei := range g.nodeOutputs[nodeIdx] {
			if t := g.edges[ei].Tensor; t != nil && !t.HasData() {
				dynamic = true
				break
			}
		}
		if !dynamic {
			continue
		}
		node := &g.nodes[nodeIdx]
		klog.Infof("%8d. %s", i, node.Name)
		i++
		dynamicNodes.Add(node.Op.OpType.Name())

		allConstant := true
		for _, ei := range g.nodeInputs[nodeIdx] {
			if t := g.edges[ei].Tensor; t == nil || !t.HasData() {
				allConstant = false
				break
			}
		}
		if allConstant {
			frontNodes.Add(node.Op.OpType.Name())
		}
	}

	klog.Info("types:")
	i = 0
	for _, name := range dynamicNodes.Values() {
		if frontNodes.Contains(name) {
			klog.Infof("%8d.*%s", i, name)
		} else {
			klog.Infof("%8d. %s", i, name)
		}
		i++
	}

	var foldedBytes uint64
	for ei := range g.edges {
		if t := g.edges[ei].Tensor; t != nil && t.HasData() {
			foldedBytes += uint64(len(t.Data()))
		}
	}
	klog.Infof("constant data: %s", humanize.IBytes(foldedBytes))

	klog.Info("outputs:")
	for oi, ei := range g.globalOutputs {
		edge := &g.edges[ei]
		if edge.Tensor != nil {
			klog.Infof("    outputs[%2d] = %s with %s", oi, edge.Name, edge.Tensor.Shape.Format())
		} else {
			klog.Infof("    outputs[%2d] = %s unresolved", oi, edge.Name)
		}
	}
}
