package register

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequestNameBoundary(t *testing.T) {
	name50 := strings.Repeat("a", 50)
	_, err := EncodeRequest(name50, NewEmpty())
	require.NoError(t, err)

	name51 := strings.Repeat("a", 51)
	_, err = EncodeRequest(name51, NewEmpty())
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestUint16ValueLengthBoundary(t *testing.T) {
	maxElems := make([]uint16, 128)
	v := NewUint16s(maxElems)
	assert.NoError(t, v.Validate())

	tooMany := make([]uint16, 129)
	v2 := NewUint16s(tooMany)
	assert.ErrorIs(t, v2.Validate(), ErrValueTooLong)
}

func TestEncodeDecodeRoundTripUint16(t *testing.T) {
	elems := []uint16{100, 200, 300, 400, 500, 600}
	v := NewUint16s(elems)
	req, err := EncodeRequest("input", v)
	require.NoError(t, err)

	// Simulate a response payload: 8 bytes of ignored header, then the
	// same tag/length/value layout.
	resp := make([]byte, 8)
	resp = append(resp, req[1+len("input"):]...)

	decoded, err := DecodeResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, TagUint16, decoded.Tag)
	assert.Equal(t, 6, decoded.Length)
	assert.Equal(t, elems, decoded.Uint16s())
}

func TestDecodeResponseEmptyTagMeansNotPresent(t *testing.T) {
	payload := make([]byte, 9) // 8-byte header + tag byte (0 = empty)
	v, err := DecodeResponse(payload)
	require.NoError(t, err)
	assert.Equal(t, TagEmpty, v.Tag)
}

func TestDecodeResponseRejectsOversizedLength(t *testing.T) {
	payload := make([]byte, 8)
	payload = append(payload, byte(TagUint16), 0xFF, 0x00) // length = 255 > max 128
	_, err := DecodeResponse(payload)
	assert.ErrorIs(t, err, ErrValueTooLong)
}

func TestDecodeResponseTruncatedHeader(t *testing.T) {
	_, err := DecodeResponse([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncated)
}

// simulateResponse wraps an encoded Register.Access request's tag and
// value bytes in an 8-byte ignored header, the way a node's response
// carries them.
func simulateResponse(t *testing.T, name string, v Value) []byte {
	t.Helper()
	req, err := EncodeRequest(name, v)
	require.NoError(t, err)
	resp := make([]byte, 8)
	return append(resp, req[1+len(name):]...)
}

func TestEncodeDecodeRoundTripAllVariants(t *testing.T) {
	cases := []struct {
		name string
		in   Value
	}{
		{"empty", NewEmpty()},
		{"string", NewString("probe")},
		{"unstructured", NewUnstructured([]byte{0xDE, 0xAD, 0xBE, 0xEF})},
		{"bit", NewBits([]bool{true, false, true, true, false})},
		{"int64", NewInt64(-123456789012345)},
		{"int32", NewInt32(-12345)},
		{"int16", NewInt16(-1234)},
		{"int8", NewInt8(-12)},
		{"uint64", NewUint64(123456789012345)},
		{"uint32", NewUint32s([]uint32{1, 2, 3})},
		{"uint16", NewUint16s([]uint16{100, 200, 300})},
		{"uint8", NewUint8s([]uint8{1, 2, 3})},
		{"float64", NewFloat64(3.14159265358979)},
		{"float32", NewFloat32(2.71828)},
		{"float16", NewFloat16(1.5)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := simulateResponse(t, "reg", tc.in)
			decoded, err := DecodeResponse(resp)
			require.NoError(t, err)
			assert.Equal(t, tc.in.Tag, decoded.Tag)
			assert.Equal(t, tc.in.Length, decoded.Length)
			assert.Equal(t, tc.in.Element, decoded.Element)
		})
	}
}

func TestBitsRoundTrip(t *testing.T) {
	bits := []bool{true, false, false, true, true, false, true, false, true}
	v := NewBits(bits)
	assert.Equal(t, bits, v.Bits())
}

func TestFloat16RoundTrip(t *testing.T) {
	v := NewFloat16(100.5)
	assert.InDelta(t, 100.5, v.Float16(), 0.01)
}

func TestMaxElementBoundaryPerTag(t *testing.T) {
	// bit: max 2048 elements succeeds, one more fails.
	assert.NoError(t, NewBits(make([]bool, 2048)).Validate())
	assert.ErrorIs(t, NewBits(make([]bool, 2049)).Validate(), ErrValueTooLong)

	// uint8/int8/string/unstructured: max 256 elements.
	assert.NoError(t, NewUint8s(make([]uint8, 256)).Validate())
	assert.ErrorIs(t, NewUint8s(make([]uint8, 257)).Validate(), ErrValueTooLong)

	// int64/uint64/float64: max 32 elements.
	assert.NoError(t, NewUint64s(make([]uint64, 32)).Validate())
	assert.ErrorIs(t, NewUint64s(make([]uint64, 33)).Validate(), ErrValueTooLong)
}
