package tensor

import (
	"encoding/binary"
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Scalar access for constant folding. Elements are addressed by index, the
// buffer layout is row-major little-endian.

// ReadFloat reads element i of a float-typed buffer as float64.
// Reports false for non-float element types.
func ReadFloat(dt DataType, b []byte, i int64) (float64, bool) {
	switch dt {
	case F32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))), true
	case F64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:])), true
	case FP16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(b[i*2:])).Float32()), true
	case BF16:
		return float64(bfloat16.ToFloat32(bfloat16.BF16(binary.LittleEndian.Uint16(b[i*2:])))), true
	default:
		return 0, false
	}
}

// WriteFloat stores v into element i of a float-typed buffer.
func WriteFloat(dt DataType, b []byte, i int64, v float64) bool {
	switch dt {
	case F32:
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(v)))
	case F64:
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	case FP16:
		binary.LittleEndian.PutUint16(b[i*2:], float16.Fromfloat32(float32(v)).Bits())
	case BF16:
		binary.LittleEndian.PutUint16(b[i*2:], uint16(bfloat16.FromFloat32(float32(v))))
	default:
		return false
	}
	return true
}

// ReadInt reads element i of a signed-integer buffer.
func ReadInt(dt DataType, b []byte, i int64) (int64, bool) {
	switch dt {
	case I8:
		return int64(int8(b[i])), true
	case I16:
		return int64(int16(binary.LittleEndian.Uint16(b[i*2:]))), true
	case I32:
		return int64(int32(binary.LittleEndian.Uint32(b[i*4:]))), true
	case I64:
		return int64(binary.LittleEndian.Uint64(b[i*8:])), true
	default:
		return 0, false
	}
}

// WriteInt stores v (truncating) into element i of a signed-integer buffer.
func WriteInt(dt DataType, b []byte, i int64, v int64) bool {
	switch dt {
	case I8:
		b[i] = byte(int8(v))
	case I16:
		binary.LittleEndian.PutUint16(b[i*2:], uint16(int16(v)))
	case I32:
		binary.LittleEndian.PutUint32(b[i*4:], uint32(int32(v)))
	case I64:
		binary.LittleEndian.PutUint64(b[i*8:], uint64(v))
	default:
		return false
	}
	return true
}

// ReadUint reads element i of an unsigned-integer buffer.
func ReadUint(dt DataType, b []byte, i int64) (uint64, bool) {
	switch dt {
	case U8:
		return uint64(b[i]), true
	case U16:
		return uint64(binary.LittleEndian.Uint16(b[i*2:])), true
	case U32:
		return uint64(binary.LittleEndian.Uint32(b[i*4:])), true
	case U64:
		return binary.LittleEndian.Uint64(b[i*8:]), true
	default:
		return 0, false
	}
}

// WriteUint stores v (truncating) into element i of an unsigned-integer buffer.
func WriteUint(dt DataType, b []byte, i int64, v uint64) bool {
	switch dt {
	case U8:
		b[i] = byte(v)
	case U16:
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	case U32:
		binary.LittleEndian.PutUint32(b[i*4:], uint32(v))
	case U64:
		binary.LittleEndian.PutUint64(b[i*8:], v)
	default:
		return false
	}
	return true
}

// ReadBool reads element i of a Bool buffer.
func ReadBool(b []byte, i int64) bool { return b[i] != 0 }

// WriteBool stores v into element i of a Bool buffer.
func WriteBool(b []byte, i int64, v bool) {
	if v {
		b[i] = 1
	} else {
		b[i] = 0
	}
}

// ReadScalar reads element i of any numeric or boolean buffer, widened to
// float64. Used where exact integer semantics do not matter (Cast, fills).
func ReadScalar(dt DataType, b []byte, i int64) (float64, bool) {
	if v, ok := ReadFloat(dt, b, i); ok {
		return v, true
	}
	if v, ok := ReadInt(dt, b, i); ok {
		return float64(v), true
	}
	if v, ok := ReadUint(dt, b, i); ok {
		return float64(v), true
	}
	if dt == Bool {
		if ReadBool(b, i) {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// WriteScalar stores v into element i of any numeric or boolean buffer,
// truncating toward zero for integral types.
func WriteScalar(dt DataType, b []byte, i int64, v float64) bool {
	if WriteFloat(dt, b, i, v) {
		return true
	}
	if WriteInt(dt, b, i, int64(v)) {
		return true
	}
	if WriteUint(dt, b, i, uint64(int64(v))) {
		return true
	}
	if dt == Bool {
		WriteBool(b, i, v != 0)
		return true
	}
	return false
}
