package onnx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loom-ml/loom/internal/op"
	"github.com/loom-ml/loom/internal/tensor"
)

// inferEinsum resolves the output shape of an einsum equation, including
// ellipsis broadcasting. The contraction itself is a runtime kernel.
func inferEinsum(o *op.Operator, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	attr, err := o.Attribute("equation")
	if err != nil {
		return nil, err
	}
	equation, err := attr.String()
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: Einsum needs inputs", op.ErrShapeMismatch)
	}
	dt := inputs[0].DataType
	for _, in := range inputs[1:] {
		if in.DataType != dt {
			return nil, fmt.Errorf("%w: mixed Einsum input types", op.ErrTypeUnsupported)
		}
	}

	equation = strings.ReplaceAll(equation, " ", "")
	lhs, rhs, hasArrow := strings.Cut(equation, "->")
	terms := strings.Split(lhs, ",")
	if len(terms) != len(inputs) {
		return nil, fmt.Errorf("%w: %d terms for %d inputs", op.ErrShapeMismatch, len(terms), len(inputs))
	}

	letterDims := make(map[rune]tensor.DimExpr)
	letterCount := make(map[rune]int)
	var ellipsisShapes []tensor.Shape

	for ti, term := range terms {
		in := inputs[ti]
		letters, ellipsis, err := splitTerm(term)
		if err != nil {
			return nil, err
		}
		fixed := len(letters)
		if !ellipsis && fixed != in.Rank() {
			return nil, fmt.Errorf("%w: term %q for rank %d", op.ErrShapeMismatch, term, in.Rank())
		}
		if ellipsis {
			if fixed > in.Rank() {
				return nil, fmt.Errorf("%w: term %q for rank %d", op.ErrShapeMismatch, term, in.Rank())
			}
			ellipsisShapes = append(ellipsisShapes, in.Shape[:in.Rank()-fixed].Clone())
		}
		base := in.Rank() - fixed
		for li, letter := range letters {
			dim := in.Shape[base+li]
			letterCount[letter]++
			if prev, ok := letterDims[letter]; ok {
				if err := unifyEinsumDim(letter, prev, dim, letterDims); err != nil {
					return nil, err
				}
			} else {
				letterDims[letter] = dim
			}
		}
	}

	var ellipsisShape tensor.Shape
	if len(ellipsisShapes) > 0 {
		if ellipsisShape, err = multidirBroadcast(ellipsisShapes...); err != nil {
			return nil, err
		}
	}

	var output tensor.Shape
	if hasArrow {
		letters, ellipsis, err := splitTerm(rhs)
		if err != nil {
			return nil, err
		}
		if ellipsis {
			output = append(output, ellipsisShape...)
		}
		for _, letter := range letters {
			dim, ok := letterDims[letter]
			if !ok {
				return nil, fmt.Errorf("%w: output letter %c not bound", op.ErrShapeMismatch, letter)
			}
			output = append(output, dim)
		}
	} else {
		// Implied output: ellipsis, then once-used letters alphabetically.
		output = append(output, ellipsisShape...)
		var once []rune
		for letter, count := range letterCount {
			if count == 1 {
				once = append(once, letter)
			}
		}
		sort.Slice(once, func(i, j int) bool { return once[i] < once[j] })
		for _, letter := range once {
			output = append(output, letterDims[letter])
		}
	}
	return []*tensor.Tensor{tensor.New(dt, output)}, nil
}

// splitTerm separates an einsum term into its letters and whether it starts
// with an ellipsis.
func splitTerm(term string) ([]rune, bool, error) {
	ellipsis := false
	if strings.HasPrefix(term, "...") {
		ellipsis = true
		term = term[3:]
	}
	if strings.Contains(term, ".") {
		return nil, false, fmt.Errorf("%w: malformed einsum term", op.ErrShapeMismatch)
	}
	var letters []rune
	for _, r := range term {
		if r < 'a' || r > 'z' {
			return nil, false, fmt.Errorf("%w: einsum subscript %q", op.ErrShapeMismatch, r)
		}
		letters = append(letters, r)
	}
	return letters, ellipsis, nil
}

// unifyEinsumDim reconciles two occurrences of one subscript letter.
func unifyEinsumDim(letter rune, a, b tensor.DimExpr, dims map[rune]tensor.DimExpr) error {
	if a.Equal(b) {
		return nil
	}
	va, okA := a.Value()
	vb, okB := b.Value()
	if !okA {
		return &op.UnknownVariableError{Name: a.Variable().Name}
	}
	if !okB {
		return &op.UnknownVariableError{Name: b.Variable().Name}
	}
	if va == vb {
		return nil
	}
	return fmt.Errorf("%w: einsum letter %c binds %d and %d", op.ErrShapeMismatch, letter, va, vb)
}
