// Package tensor provides the minimal tensor substrate for the fused
// softmax kernels: shapes, element types, and flat raw buffers.
package tensor

// Float is the constraint for kernel element and accumulation types.
type Float interface {
	~float32 | ~float64
}

// DataType represents runtime type information for raw tensors.
type DataType int

// Supported data types. Uint8 is the mask element type (one byte per
// key position, 0 = pass through, 1 = suppress).
const (
	Float32 DataType = iota
	Float64
	Uint8
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}
