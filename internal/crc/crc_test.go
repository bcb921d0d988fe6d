package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Canonical CRC-16/CCITT-FALSE check value for the ASCII string "123456789".
func TestOfCheckValue(t *testing.T) {
	assert.EqualValues(t, 0x29B1, Of([]byte("123456789")))
}

func TestAddIncremental(t *testing.T) {
	crc := InitialCRC16
	for _, b := range []byte("123456789") {
		crc.Add(b)
	}
	assert.EqualValues(t, 0x29B1, crc)
}

func TestBytes(t *testing.T) {
	crc := Of([]byte("123456789"))
	assert.Equal(t, [2]byte{0x29, 0xB1}, crc.Bytes())
}
