// Package tensor provides the symbolic tensor core of the Loom graph compiler:
// element types, dimension expressions, shapes and the tensor edge record.
package tensor

// DataType represents the element type of a tensor.
//
// The numeric values of the first twelve kinds are the persisted wire codes
// (ONNX TensorProto.DataType). Code 8 (string) is not a tensor element type
// here; the complex kinds and BF16 have no external numeric code.
type DataType uint8

// Supported element types.
const (
	F32        DataType = 1
	U8         DataType = 2
	I8         DataType = 3
	U16        DataType = 4
	I16        DataType = 5
	I32        DataType = 6
	I64        DataType = 7
	Bool       DataType = 9
	FP16       DataType = 10
	F64        DataType = 11
	U32        DataType = 12
	U64        DataType = 13
	Complex64  DataType = 14
	Complex128 DataType = 15
	BF16       DataType = 16
)

// ParseDataType maps a wire code in 1..13 to its DataType.
// Code 8 and everything outside the range report false.
func ParseDataType(code uint8) (DataType, bool) {
	switch code {
	case 1, 2, 3, 4, 5, 6, 7, 9, 10, 11, 12, 13:
		return DataType(code), true
	default:
		return 0, false
	}
}

// Size returns the byte width of one element.
func (dt DataType) Size() int {
	switch dt {
	case U8, I8, Bool:
		return 1
	case U16, I16, FP16, BF16:
		return 2
	case F32, U32, I32:
		return 4
	case F64, U64, I64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		panic("tensor: unknown data type")
	}
}

// String returns the canonical name of the data type.
func (dt DataType) String() string {
	switch dt {
	case F32:
		return "F32"
	case U8:
		return "U8"
	case I8:
		return "I8"
	case U16:
		return "U16"
	case I16:
		return "I16"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case Bool:
		return "Bool"
	case FP16:
		return "FP16"
	case F64:
		return "F64"
	case U32:
		return "U32"
	case U64:
		return "U64"
	case Complex64:
		return "Complex64"
	case Complex128:
		return "Complex128"
	case BF16:
		return "BF16"
	default:
		return "Unknown"
	}
}

// IsIeee754 reports whether dt is an IEEE 754 binary float type.
func (dt DataType) IsIeee754() bool {
	return dt == F32 || dt == FP16 || dt == F64
}

// IsFloat reports whether dt is any float type, including BF16.
func (dt DataType) IsFloat() bool {
	return dt == F32 || dt == FP16 || dt == F64 || dt == BF16
}

// IsSigned reports whether dt carries a sign.
func (dt DataType) IsSigned() bool {
	switch dt {
	case F32, I32, I64, FP16, F64, BF16:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether dt supports ordinary arithmetic.
// Bool and the complex kinds do not.
func (dt DataType) IsNumeric() bool {
	switch dt {
	case F32, U8, I8, U16, I16, I32, I64, FP16, F64, U32, U64, BF16:
		return true
	default:
		return false
	}
}

// IsBool reports whether dt is the boolean type.
func (dt DataType) IsBool() bool {
	return dt == Bool
}
