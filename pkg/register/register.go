// Package register implements the wire codec for Cyphal register
// values: a 15-variant tagged union with a type-specific length prefix
// width, as used by the Register.Access and Register.List services.
package register

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Tag identifies a register value's variant. Codes are fixed by the
// wire protocol and must not be renumbered.
type Tag uint8

const (
	TagEmpty Tag = iota
	TagString
	TagUnstructured
	TagBit
	TagInt64
	TagInt32
	TagInt16
	TagInt8
	TagUint64
	TagUint32
	TagUint16
	TagUint8
	TagFloat64
	TagFloat32
	TagFloat16
)

// MaxNameLength is the largest register name the wire format allows.
const MaxNameLength = 50

// MaxRequestPayload bounds an encoded Register.Access request.
const MaxRequestPayload = 310

var (
	ErrNameTooLong  = errors.New("register: name exceeds 50 bytes")
	ErrValueTooLong = errors.New("register: value exceeds its variant's maximum element count")
	ErrUnknownTag   = errors.New("register: tag out of range")
	ErrTruncated    = errors.New("register: payload too short to decode")
)

type tagInfo struct {
	elementBits int
	lengthBytes int
	maxElements int
}

var tagTable = map[Tag]tagInfo{
	TagString:       {8, 2, 256},
	TagUnstructured: {8, 2, 256},
	TagInt8:         {8, 2, 256},
	TagUint8:        {8, 2, 256},
	TagBit:          {1, 2, 2048},
	TagInt16:        {16, 1, 128},
	TagUint16:       {16, 1, 128},
	TagFloat16:      {16, 1, 128},
	TagInt32:        {32, 1, 64},
	TagUint32:       {32, 1, 64},
	TagFloat32:      {32, 1, 64},
	TagInt64:        {64, 1, 32},
	TagUint64:       {64, 1, 32},
	TagFloat64:      {64, 1, 32},
}

// Value is a decoded register value: the variant tag, the element
// count, and the raw little-endian wire bytes backing it.
type Value struct {
	Tag     Tag
	Length  int
	Element []byte
}

// byteLength returns the number of raw bytes Length elements of tag
// occupy on the wire.
func byteLength(tag Tag, length int) int {
	info := tagTable[tag]
	if info.elementBits == 1 {
		return (length + 7) / 8
	}
	return length * info.elementBits / 8
}

// Validate checks v against its variant's maximum element count.
func (v Value) Validate() error {
	if v.Tag == TagEmpty {
		return nil
	}
	info, ok := tagTable[v.Tag]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTag, v.Tag)
	}
	if v.Length > info.maxElements {
		return ErrValueTooLong
	}
	return nil
}

// EncodeRequest builds a Register.Access request payload: name length,
// name, tag, and (for non-empty tags) a type-specific length prefix
// followed by the raw element bytes.
func EncodeRequest(name string, value Value) ([]byte, error) {
	if len(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if err := value.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 2+len(name)+4+len(value.Element))
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	buf = append(buf, byte(value.Tag))

	if value.Tag != TagEmpty {
		info := tagTable[value.Tag]
		switch info.lengthBytes {
		case 1:
			buf = append(buf, byte(value.Length))
		case 2:
			var lb [2]byte
			binary.LittleEndian.PutUint16(lb[:], uint16(value.Length))
			buf = append(buf, lb[:]...)
		}
		want := byteLength(value.Tag, value.Length)
		if want > len(value.Element) {
			return nil, fmt.Errorf("register: element buffer shorter than declared length")
		}
		buf = append(buf, value.Element[:want]...)
	}

	if len(buf) > MaxRequestPayload {
		return nil, fmt.Errorf("register: encoded request %d bytes exceeds maximum %d", len(buf), MaxRequestPayload)
	}
	return buf, nil
}

// headerLength is the number of leading payload bytes a
// Register.Access response carries before the value tag: an embedded
// timestamp and boolean "mutable/persistent" flags the core does not
// interpret.
const headerLength = 8

// DecodeResponse parses a Register.Access response payload into a
// Value. A tag of TagEmpty means "register not present" and is left
// for the caller to interpret as not-found.
func DecodeResponse(payload []byte) (Value, error) {
	if len(payload) < headerLength+1 {
		return Value{}, ErrTruncated
	}
	tag := Tag(payload[headerLength])
	if tag == TagEmpty {
		return Value{Tag: TagEmpty}, nil
	}
	info, ok := tagTable[tag]
	if !ok {
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}

	lenOffset := headerLength + 1
	if len(payload) < lenOffset+info.lengthBytes {
		return Value{}, ErrTruncated
	}

	var length int
	switch info.lengthBytes {
	case 1:
		length = int(payload[lenOffset])
	case 2:
		length = int(binary.LittleEndian.Uint16(payload[lenOffset : lenOffset+2]))
	}
	if length > info.maxElements {
		return Value{}, ErrValueTooLong
	}

	dataOffset := lenOffset + info.lengthBytes
	want := byteLength(tag, length)
	if want > 256 {
		want = 256
	}
	available := len(payload) - dataOffset
	if available < 0 {
		available = 0
	}
	n := want
	if n > available {
		n = available
	}
	element := make([]byte, n)
	copy(element, payload[dataOffset:dataOffset+n])

	return Value{Tag: tag, Length: length, Element: element}, nil
}
