// Package crc implements the CRC-16/CCITT-FALSE checksum used to guard
// multi-frame Cyphal/CAN transfers.
package crc

// CRC16 is a running CRC-16/CCITT-FALSE accumulator (poly 0x1021, init
// 0xFFFF, no reflection, no final xor) — the checksum Cyphal/CAN appends
// to every multi-frame transfer payload.
type CRC16 uint16

// InitialCRC16 is the accumulator's starting value.
const InitialCRC16 CRC16 = 0xFFFF

// Add folds a single byte into the running checksum.
func (c *CRC16) Add(b byte) {
	crc := *c
	crc ^= CRC16(b) << 8
	for i := 0; i < 8; i++ {
		if crc&0x8000 != 0 {
			crc = (crc << 1) ^ 0x1021
		} else {
			crc <<= 1
		}
	}
	*c = crc
}

// AddBytes folds a byte slice into the running checksum.
func (c *CRC16) AddBytes(buf []byte) {
	for _, b := range buf {
		c.Add(b)
	}
}

// Of computes the CRC-16/CCITT-FALSE of buf in one call.
func Of(buf []byte) CRC16 {
	crc := InitialCRC16
	crc.AddBytes(buf)
	return crc
}

// Bytes returns the checksum as its two wire bytes, big-endian, as
// Cyphal/CAN appends it to a transfer's final frame.
func (c CRC16) Bytes() [2]byte {
	return [2]byte{byte(c >> 8), byte(c)}
}
