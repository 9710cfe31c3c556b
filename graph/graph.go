// Copyright 2025 The Loom Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph is the public API for building operator graphs and running
// symbolic shape inference over them.
//
// Example:
//
//	b := graph.NewBuilder()
//	b.Edge("x", tensor.New(tensor.F32, tensor.Shape{tensor.DimVar("N")}))
//	b.Node("relu", op.NewOperator(op.MustParse("onnx::Relu"), nil),
//	    []string{"x"}, []string{"y"})
//	b.GlobalInputs("x")
//	b.GlobalOutputs("y")
//	g, err := b.Build()
//	unknown, err := g.FillEdgeInfo()
package graph

import (
	"github.com/loom-ml/loom/internal/graph"
)

// Graph is a built operator graph plus its canonical variable map.
type Graph = graph.Graph

// Node is one operator invocation.
type Node = graph.Node

// Edge carries a named tensor slot.
type Edge = graph.Edge

// Builder accumulates nodes and edges and produces a Graph.
type Builder = graph.Builder

// NewBuilder returns an empty graph builder.
func NewBuilder() *Builder { return graph.NewBuilder() }
