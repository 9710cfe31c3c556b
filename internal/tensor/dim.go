package tensor

import "fmt"

// DimVariable is a named dimension slot owned by the graph that created it.
// Its value may be bound later, by substitution or by matching an input
// tensor. Two variables are the same dimension only if they are the same
// object; names are unified per graph, not globally.
type DimVariable struct {
	Name  string
	Value *int64
}

// NewDimVariable creates an unbound variable.
func NewDimVariable(name string) *DimVariable {
	return &DimVariable{Name: name}
}

// Bind sets the variable's concrete value.
func (v *DimVariable) Bind(value int64) {
	v.Value = &value
}

// HasValue reports whether the variable is bound.
func (v *DimVariable) HasValue() bool {
	return v.Value != nil
}

// DimExpr is one dimension of a shape: either a signed constant or a
// reference to a DimVariable.
type DimExpr struct {
	value    int64
	variable *DimVariable
}

// DimOf returns a constant dimension.
func DimOf(value int64) DimExpr {
	return DimExpr{value: value}
}

// DimVar returns a dimension referencing a fresh variable with the given name.
func DimVar(name string) DimExpr {
	return DimExpr{variable: NewDimVariable(name)}
}

// DimOfVar returns a dimension referencing an existing variable.
func DimOfVar(v *DimVariable) DimExpr {
	return DimExpr{variable: v}
}

// IsValue reports whether the dimension is a constant.
func (d DimExpr) IsValue() bool { return d.variable == nil }

// IsVariable reports whether the dimension references a variable.
func (d DimExpr) IsVariable() bool { return d.variable != nil }

// HasValue reports whether the dimension resolves to a concrete value:
// it is a constant, or a variable that has been bound.
func (d DimExpr) HasValue() bool {
	return d.variable == nil || d.variable.HasValue()
}

// Value returns the resolved value. The second result is false when the
// dimension is an unbound variable.
func (d DimExpr) Value() (int64, bool) {
	if d.variable == nil {
		return d.value, true
	}
	if d.variable.Value != nil {
		return *d.variable.Value, true
	}
	return 0, false
}

// Variable returns the referenced variable, or nil for constants.
func (d DimExpr) Variable() *DimVariable { return d.variable }

// Equal compares two dimensions. Constants compare by value, variables by
// identity; a constant equals a variable only when the variable is bound to
// the same value.
func (d DimExpr) Equal(other DimExpr) bool {
	switch {
	case d.variable == nil && other.variable == nil:
		return d.value == other.value
	case d.variable != nil && other.variable != nil:
		return d.variable == other.variable
	default:
		a, okA := d.Value()
		b, okB := other.Value()
		return okA && okB && a == b
	}
}

// String renders the dimension: constants as their value, variables as
// "name" or "name=value" once bound.
func (d DimExpr) String() string {
	if d.variable == nil {
		return fmt.Sprintf("%d", d.value)
	}
	if d.variable.Value != nil {
		return fmt.Sprintf("%s=%d", d.variable.Name, *d.variable.Value)
	}
	return d.variable.Name
}
