package tensor

import "fmt"

// Tensor is the record carried by a graph edge: an element type, a symbolic
// shape, an optional owned byte buffer, and the set of dimension variables
// the shape depends on. Tensors never outlive the graph that owns their
// variables.
type Tensor struct {
	DataType DataType
	Shape    Shape

	data []byte
	deps map[*DimVariable]struct{}
}

// New creates a data-less tensor and collects its shape's variable
// dependencies.
func New(dt DataType, shape Shape) *Tensor {
	t := &Tensor{DataType: dt, Shape: shape}
	t.collectDeps()
	return t
}

// NewData creates a tensor owning the given buffer. Every dimension must be
// resolvable and the buffer length must match BytesSize exactly.
func NewData(dt DataType, shape Shape, data []byte) (*Tensor, error) {
	t := New(dt, shape)
	want, err := t.BytesSize()
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != want {
		return nil, fmt.Errorf("tensor: buffer is %d bytes, shape %s of %s needs %d",
			len(data), shape.Format(), dt, want)
	}
	t.data = data
	return t, nil
}

func (t *Tensor) collectDeps() {
	t.deps = nil
	for _, d := range t.Shape {
		if v := d.Variable(); v != nil {
			if t.deps == nil {
				t.deps = make(map[*DimVariable]struct{})
			}
			t.deps[v] = struct{}{}
		}
	}
}

// DepVariables returns the set of variables the shape references.
func (t *Tensor) DepVariables() map[*DimVariable]struct{} { return t.deps }

// ReplaceVariable rewrites every dimension referencing old to reference
// canonical instead. Used by the graph when unifying variables by name.
func (t *Tensor) ReplaceVariable(old, canonical *DimVariable) {
	if _, ok := t.deps[old]; !ok {
		return
	}
	for i, d := range t.Shape {
		if d.Variable() == old {
			t.Shape[i] = DimOfVar(canonical)
		}
	}
	delete(t.deps, old)
	if t.deps == nil {
		t.deps = make(map[*DimVariable]struct{})
	}
	t.deps[canonical] = struct{}{}
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return t.Shape.Rank() }

// HasData reports whether the tensor owns a buffer.
func (t *Tensor) HasData() bool { return t.data != nil }

// Data returns the owned buffer, nil when absent.
func (t *Tensor) Data() []byte { return t.data }

// SetData attaches an externally built buffer without size re-validation.
// Callers are expected to have sized it with BytesSize.
func (t *Tensor) SetData(data []byte) { t.data = data }

// ElementsSize returns the number of elements; it fails while any dimension
// is still symbolic.
func (t *Tensor) ElementsSize() (int64, error) {
	n, ok := t.Shape.Elements()
	if !ok {
		return 0, fmt.Errorf("tensor: shape %s is not concrete", t.Shape.Format())
	}
	return n, nil
}

// BytesSize returns ElementsSize times the element width.
func (t *Tensor) BytesSize() (int64, error) {
	n, err := t.ElementsSize()
	if err != nil {
		return 0, err
	}
	return n * int64(t.DataType.Size()), nil
}

// Malloc allocates and attaches a zeroed buffer sized BytesSize.
func (t *Tensor) Malloc() ([]byte, error) {
	n, err := t.BytesSize()
	if err != nil {
		return nil, err
	}
	t.data = make([]byte, n)
	return t.data, nil
}

// Free releases the buffer.
func (t *Tensor) Free() { t.data = nil }
