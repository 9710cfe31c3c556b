// Package op defines the polymorphic operator model: tagged attribute
// values, the process-wide operator registry with interned integer ids, and
// the Operator record dispatched during shape inference.
package op

import (
	"bytes"
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// AttributeKind tags the variant held by an Attribute.
type AttributeKind uint8

// Attribute kinds.
const (
	KindInt AttributeKind = iota
	KindInts
	KindFloat
	KindFloats
	KindString
	KindStrings
	KindTensor
	KindTensors
)

// ErrAttributeType reports a typed accessor applied to the wrong variant.
type ErrAttributeType struct {
	Want, Got AttributeKind
}

func (e *ErrAttributeType) Error() string {
	return fmt.Sprintf("op: attribute holds kind %d, accessed as %d", e.Got, e.Want)
}

// Attribute is a tagged union over the eight ONNX attribute payload kinds.
type Attribute struct {
	kind    AttributeKind
	i       int64
	ints    []int64
	f       float64
	floats  []float64
	s       string
	strings []string
	t       *tensor.Tensor
	tensors []*tensor.Tensor
}

// Constructors, one per kind.

func AttrInt(v int64) Attribute { return Attribute{kind: KindInt, i: v} }

func AttrInts(v []int64) Attribute { return Attribute{kind: KindInts, ints: v} }

func AttrFloat(v float64) Attribute { return Attribute{kind: KindFloat, f: v} }

func AttrFloats(v []float64) Attribute { return Attribute{kind: KindFloats, floats: v} }

func AttrString(v string) Attribute { return Attribute{kind: KindString, s: v} }

func AttrStrings(v []string) Attribute { return Attribute{kind: KindStrings, strings: v} }

func AttrTensor(v *tensor.Tensor) Attribute { return Attribute{kind: KindTensor, t: v} }

func AttrTensors(v []*tensor.Tensor) Attribute { return Attribute{kind: KindTensors, tensors: v} }

// Kind returns the variant tag.
func (a Attribute) Kind() AttributeKind { return a.kind }

// Int returns the Int payload.
func (a Attribute) Int() (int64, error) {
	if a.kind != KindInt {
		return 0, &ErrAttributeType{Want: KindInt, Got: a.kind}
	}
	return a.i, nil
}

// Ints returns the IntList payload.
func (a Attribute) Ints() ([]int64, error) {
	if a.kind != KindInts {
		return nil, &ErrAttributeType{Want: KindInts, Got: a.kind}
	}
	return a.ints, nil
}

// Float returns the Float payload.
func (a Attribute) Float() (float64, error) {
	if a.kind != KindFloat {
		return 0, &ErrAttributeType{Want: KindFloat, Got: a.kind}
	}
	return a.f, nil
}

// Floats returns the FloatList payload.
func (a Attribute) Floats() ([]float64, error) {
	if a.kind != KindFloats {
		return nil, &ErrAttributeType{Want: KindFloats, Got: a.kind}
	}
	return a.floats, nil
}

// String returns the String payload.
func (a Attribute) String() (string, error) {
	if a.kind != KindString {
		return "", &ErrAttributeType{Want: KindString, Got: a.kind}
	}
	return a.s, nil
}

// Strings returns the StringList payload.
func (a Attribute) Strings() ([]string, error) {
	if a.kind != KindStrings {
		return nil, &ErrAttributeType{Want: KindStrings, Got: a.kind}
	}
	return a.strings, nil
}

// Tensor returns the Tensor payload.
func (a Attribute) Tensor() (*tensor.Tensor, error) {
	if a.kind != KindTensor {
		return nil, &ErrAttributeType{Want: KindTensor, Got: a.kind}
	}
	return a.t, nil
}

// Tensors returns the TensorList payload.
func (a Attribute) Tensors() ([]*tensor.Tensor, error) {
	if a.kind != KindTensors {
		return nil, &ErrAttributeType{Want: KindTensors, Got: a.kind}
	}
	return a.tensors, nil
}

// Equal compares structurally; attributes of different kinds are never equal.
func (a Attribute) Equal(b Attribute) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInt:
		return a.i == b.i
	case KindInts:
		return int64sEqual(a.ints, b.ints)
	case KindFloat:
		return a.f == b.f
	case KindFloats:
		return float64sEqual(a.floats, b.floats)
	case KindString:
		return a.s == b.s
	case KindStrings:
		return stringsEqual(a.strings, b.strings)
	case KindTensor:
		return tensorEqual(a.t, b.t)
	case KindTensors:
		if len(a.tensors) != len(b.tensors) {
			return false
		}
		for i := range a.tensors {
			if !tensorEqual(a.tensors[i], b.tensors[i]) {
				return false
			}
		}
		return true
	default:
		panic("op: unreachable attribute kind")
	}
}

func int64sEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func float64sEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tensorEqual(a, b *tensor.Tensor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.DataType == b.DataType &&
		a.Shape.Equal(b.Shape) &&
		bytes.Equal(a.Data(), b.Data())
}
