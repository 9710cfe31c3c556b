package op

import (
	"fmt"

	"github.com/loom-ml/loom/internal/kernel"
	"github.com/loom-ml/loom/internal/tensor"
)

// Operator is an operator kind plus its attribute bindings.
type Operator struct {
	OpType     OpType
	Attributes map[string]Attribute
}

// NewOperator builds an operator for an interned kind.
func NewOperator(t OpType, attrs map[string]Attribute) *Operator {
	if attrs == nil {
		attrs = map[string]Attribute{}
	}
	return &Operator{OpType: t, Attributes: attrs}
}

// Equal reports whether both operators have the same kind and structurally
// equal attributes.
func (o *Operator) Equal(rhs *Operator) bool {
	if o.OpType != rhs.OpType || len(o.Attributes) != len(rhs.Attributes) {
		return false
	}
	for name, a := range o.Attributes {
		b, ok := rhs.Attributes[name]
		if !ok || !a.Equal(b) {
			return false
		}
	}
	return true
}

// Attribute returns a required attribute.
func (o *Operator) Attribute(name string) (Attribute, error) {
	a, ok := o.Attributes[name]
	if !ok {
		return Attribute{}, fmt.Errorf("%w: %q on %s", ErrAttributeMissing, name, o.OpType.Name())
	}
	return a, nil
}

// AttributeOr returns an attribute or the given default when absent.
func (o *Operator) AttributeOr(name string, def Attribute) Attribute {
	if a, ok := o.Attributes[name]; ok {
		return a
	}
	return def
}

// Infer dispatches to the registered inference routine of the operator kind.
func (o *Operator) Infer(inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	return lookup(o.OpType).infer(o, inputs)
}

// CandidateKernels returns the kernel-candidate collector for a target.
func (o *Operator) CandidateKernels(target kernel.Target) kernel.Collector {
	e := lookup(o.OpType)
	if e.collectors == nil {
		return kernel.None()
	}
	return e.collectors(o, target)
}
