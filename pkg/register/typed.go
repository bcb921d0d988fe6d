package register

import (
	"encoding/binary"
	"math"
)

// NewEmpty returns the "register not present" / no-value variant.
func NewEmpty() Value { return Value{Tag: TagEmpty} }

// NewString returns a string-tagged value.
func NewString(s string) Value {
	return Value{Tag: TagString, Length: len(s), Element: []byte(s)}
}

// NewUnstructured returns an unstructured-byte-array-tagged value.
func NewUnstructured(b []byte) Value {
	return Value{Tag: TagUnstructured, Length: len(b), Element: append([]byte(nil), b...)}
}

// NewBits returns a bit-array-tagged value, packed LSB-first within
// each byte per the DSDL bit-array convention.
func NewBits(bits []bool) Value {
	buf := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			buf[i/8] |= 1 << uint(i%8)
		}
	}
	return Value{Tag: TagBit, Length: len(bits), Element: buf}
}

// Bits unpacks v's element bytes into a bool slice, LSB-first.
func (v Value) Bits() []bool {
	out := make([]bool, v.Length)
	for i := range out {
		byteIdx, bitIdx := i/8, uint(i%8)
		if byteIdx >= len(v.Element) {
			break
		}
		out[i] = v.Element[byteIdx]&(1<<bitIdx) != 0
	}
	return out
}

// NewUint8s returns a uint8-array-tagged value.
func NewUint8s(v []uint8) Value {
	return Value{Tag: TagUint8, Length: len(v), Element: append([]byte(nil), v...)}
}

// NewUint8 returns a single-element uint8-tagged value.
func NewUint8(v uint8) Value { return NewUint8s([]uint8{v}) }

// NewInt8s returns an int8-array-tagged value.
func NewInt8s(v []int8) Value {
	buf := make([]byte, len(v))
	for i, e := range v {
		buf[i] = byte(e)
	}
	return Value{Tag: TagInt8, Length: len(v), Element: buf}
}

// NewInt8 returns a single-element int8-tagged value.
func NewInt8(v int8) Value { return NewInt8s([]int8{v}) }

// NewUint16 returns a single-element uint16-tagged value.
func NewUint16(v uint16) Value { return NewUint16s([]uint16{v}) }

// NewUint16s returns a uint16-array-tagged value with little-endian
// element encoding.
func NewUint16s(v []uint16) Value {
	buf := make([]byte, 2*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint16(buf[2*i:], e)
	}
	return Value{Tag: TagUint16, Length: len(v), Element: buf}
}

// NewInt16 returns a single-element int16-tagged value.
func NewInt16(v int16) Value { return NewInt16s([]int16{v}) }

// NewInt16s returns an int16-array-tagged value with little-endian
// element encoding.
func NewInt16s(v []int16) Value {
	buf := make([]byte, 2*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(e))
	}
	return Value{Tag: TagInt16, Length: len(v), Element: buf}
}

// NewUint32 returns a single-element uint32-tagged value.
func NewUint32(v uint32) Value { return NewUint32s([]uint32{v}) }

// NewUint32s returns a uint32-array-tagged value with little-endian
// element encoding.
func NewUint32s(v []uint32) Value {
	buf := make([]byte, 4*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], e)
	}
	return Value{Tag: TagUint32, Length: len(v), Element: buf}
}

// NewInt32 returns a single-element int32-tagged value.
func NewInt32(v int32) Value { return NewInt32s([]int32{v}) }

// NewInt32s returns an int32-array-tagged value with little-endian
// element encoding.
func NewInt32s(v []int32) Value {
	buf := make([]byte, 4*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(e))
	}
	return Value{Tag: TagInt32, Length: len(v), Element: buf}
}

// NewUint64 returns a single-element uint64-tagged value.
func NewUint64(v uint64) Value { return NewUint64s([]uint64{v}) }

// NewUint64s returns a uint64-array-tagged value with little-endian
// element encoding.
func NewUint64s(v []uint64) Value {
	buf := make([]byte, 8*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], e)
	}
	return Value{Tag: TagUint64, Length: len(v), Element: buf}
}

// NewInt64 returns a single-element int64-tagged value.
func NewInt64(v int64) Value { return NewInt64s([]int64{v}) }

// NewInt64s returns an int64-array-tagged value with little-endian
// element encoding.
func NewInt64s(v []int64) Value {
	buf := make([]byte, 8*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(e))
	}
	return Value{Tag: TagInt64, Length: len(v), Element: buf}
}

// NewFloat32 returns a single-element float32-tagged value.
func NewFloat32(v float32) Value { return NewFloat32s([]float32{v}) }

// NewFloat32s returns a float32-array-tagged value with little-endian
// IEEE-754 element encoding.
func NewFloat32s(v []float32) Value {
	buf := make([]byte, 4*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(e))
	}
	return Value{Tag: TagFloat32, Length: len(v), Element: buf}
}

// NewFloat64 returns a single-element float64-tagged value.
func NewFloat64(v float64) Value { return NewFloat64s([]float64{v}) }

// NewFloat64s returns a float64-array-tagged value with little-endian
// IEEE-754 element encoding.
func NewFloat64s(v []float64) Value {
	buf := make([]byte, 8*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(e))
	}
	return Value{Tag: TagFloat64, Length: len(v), Element: buf}
}

// NewFloat16 returns a single-element float16 (IEEE-754 binary16)
// tagged value, rounded from a float32 input.
func NewFloat16(v float32) Value { return NewFloat16s([]float32{v}) }

// NewFloat16s returns a float16-array-tagged value, each element
// rounded from the corresponding float32 input.
func NewFloat16s(v []float32) Value {
	buf := make([]byte, 2*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint16(buf[2*i:], float32ToFloat16(e))
	}
	return Value{Tag: TagFloat16, Length: len(v), Element: buf}
}

// float32ToFloat16 rounds a float32 to the nearest IEEE-754 binary16
// bit pattern (round-to-nearest-even is not implemented; ties round
// toward the larger mantissa, which is adequate for register values
// that are themselves sampled sensor readings, not exact constants).
func float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xFF) - 127 + 15
	mant := bits & 0x7FFFFF

	// Add half of the 13 dropped mantissa bits before truncating; a
	// carry out of the mantissa moves the value to the next exponent.
	mant += 0x1000
	if mant&0x800000 != 0 {
		mant = 0
		exp++
	}

	switch {
	case exp <= 0:
		return sign // flushes subnormals and zero to signed zero
	case exp >= 0x1F:
		return sign | 0x7C00 // overflow to infinity
	default:
		return sign | uint16(exp)<<10 | uint16(mant>>13)
	}
}

// float16ToFloat32 widens an IEEE-754 binary16 bit pattern to float32.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h & 0x3FF)

	switch {
	case exp == 0:
		return math.Float32frombits(sign) // zero (subnormals flushed)
	case exp == 0x1F:
		bits := sign | 0x7F800000
		if mant != 0 {
			bits |= 1 << 22 // NaN
		}
		return math.Float32frombits(bits)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | mant<<13)
	}
}

// Uint16s decodes v's element bytes as a little-endian uint16 array. It
// does not check v.Tag; callers should do so first (or use
// Value.Validate plus an explicit tag comparison).
func (v Value) Uint16s() []uint16 {
	out := make([]uint16, v.Length)
	for i := range out {
		if (i+1)*2 > len(v.Element) {
			break
		}
		out[i] = binary.LittleEndian.Uint16(v.Element[2*i:])
	}
	return out
}

// Uint32s decodes v's element bytes as a little-endian uint32 array.
func (v Value) Uint32s() []uint32 {
	out := make([]uint32, v.Length)
	for i := range out {
		if (i+1)*4 > len(v.Element) {
			break
		}
		out[i] = binary.LittleEndian.Uint32(v.Element[4*i:])
	}
	return out
}

// Uint8s decodes v's element bytes as a uint8 array.
func (v Value) Uint8s() []uint8 {
	n := v.Length
	if n > len(v.Element) {
		n = len(v.Element)
	}
	return append([]byte(nil), v.Element[:n]...)
}

// Uint8 decodes v's first element as a scalar uint8. It returns 0 if
// v carries no elements.
func (v Value) Uint8() uint8 {
	if len(v.Element) == 0 {
		return 0
	}
	return v.Element[0]
}

// Uint16 decodes v's first element as a scalar uint16. It returns 0 if
// v carries fewer than 2 element bytes.
func (v Value) Uint16() uint16 {
	if len(v.Element) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(v.Element)
}

// Uint32 decodes v's first element as a scalar uint32. It returns 0 if
// v carries fewer than 4 element bytes.
func (v Value) Uint32() uint32 {
	if len(v.Element) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(v.Element)
}

// String decodes v's element bytes as a UTF-8 string, valid for
// TagString and TagUnstructured.
func (v Value) String() string {
	return string(v.Element)
}

// Int8s decodes v's element bytes as an int8 array.
func (v Value) Int8s() []int8 {
	n := v.Length
	if n > len(v.Element) {
		n = len(v.Element)
	}
	out := make([]int8, n)
	for i := range out {
		out[i] = int8(v.Element[i])
	}
	return out
}

// Int8 decodes v's first element as a scalar int8.
func (v Value) Int8() int8 {
	if len(v.Element) == 0 {
		return 0
	}
	return int8(v.Element[0])
}

// Int16s decodes v's element bytes as a little-endian int16 array.
func (v Value) Int16s() []int16 {
	out := make([]int16, v.Length)
	for i := range out {
		if (i+1)*2 > len(v.Element) {
			break
		}
		out[i] = int16(binary.LittleEndian.Uint16(v.Element[2*i:]))
	}
	return out
}

// Int16 decodes v's first element as a scalar int16.
func (v Value) Int16() int16 {
	if len(v.Element) < 2 {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(v.Element))
}

// Int32s decodes v's element bytes as a little-endian int32 array.
func (v Value) Int32s() []int32 {
	out := make([]int32, v.Length)
	for i := range out {
		if (i+1)*4 > len(v.Element) {
			break
		}
		out[i] = int32(binary.LittleEndian.Uint32(v.Element[4*i:]))
	}
	return out
}

// Int32 decodes v's first element as a scalar int32.
func (v Value) Int32() int32 {
	if len(v.Element) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(v.Element))
}

// Uint64s decodes v's element bytes as a little-endian uint64 array.
func (v Value) Uint64s() []uint64 {
	out := make([]uint64, v.Length)
	for i := range out {
		if (i+1)*8 > len(v.Element) {
			break
		}
		out[i] = binary.LittleEndian.Uint64(v.Element[8*i:])
	}
	return out
}

// Uint64 decodes v's first element as a scalar uint64.
func (v Value) Uint64() uint64 {
	if len(v.Element) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(v.Element)
}

// Int64s decodes v's element bytes as a little-endian int64 array.
func (v Value) Int64s() []int64 {
	out := make([]int64, v.Length)
	for i := range out {
		if (i+1)*8 > len(v.Element) {
			break
		}
		out[i] = int64(binary.LittleEndian.Uint64(v.Element[8*i:]))
	}
	return out
}

// Int64 decodes v's first element as a scalar int64.
func (v Value) Int64() int64 {
	if len(v.Element) < 8 {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(v.Element))
}

// Float32s decodes v's element bytes as a little-endian IEEE-754
// float32 array.
func (v Value) Float32s() []float32 {
	out := make([]float32, v.Length)
	for i := range out {
		if (i+1)*4 > len(v.Element) {
			break
		}
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(v.Element[4*i:]))
	}
	return out
}

// Float32 decodes v's first element as a scalar float32.
func (v Value) Float32() float32 {
	if len(v.Element) < 4 {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(v.Element))
}

// Float64s decodes v's element bytes as a little-endian IEEE-754
// float64 array.
func (v Value) Float64s() []float64 {
	out := make([]float64, v.Length)
	for i := range out {
		if (i+1)*8 > len(v.Element) {
			break
		}
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(v.Element[8*i:]))
	}
	return out
}

// Float64 decodes v's first element as a scalar float64.
func (v Value) Float64() float64 {
	if len(v.Element) < 8 {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.Element))
}

// Float16s decodes v's element bytes as a little-endian IEEE-754
// binary16 array, widened to float32.
func (v Value) Float16s() []float32 {
	out := make([]float32, v.Length)
	for i := range out {
		if (i+1)*2 > len(v.Element) {
			break
		}
		out[i] = float16ToFloat32(binary.LittleEndian.Uint16(v.Element[2*i:]))
	}
	return out
}

// Float16 decodes v's first element as a scalar binary16 value,
// widened to float32.
func (v Value) Float16() float32 {
	if len(v.Element) < 2 {
		return 0
	}
	return float16ToFloat32(binary.LittleEndian.Uint16(v.Element))
}
