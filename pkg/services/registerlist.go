package services

import "encoding/binary"

// RegisterListBufferLength is the caller-facing buffer size a decoded
// Register.List response name is zero-padded into.
const RegisterListBufferLength = 51

// EncodeRegisterListRequest returns the 2-byte little-endian register
// index request payload.
func EncodeRegisterListRequest(index uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, index)
	return buf
}

// DecodeRegisterListResponse parses a Register.List response into a
// name, zero-padded to RegisterListBufferLength bytes. An empty name
// marks the end of the node's register namespace.
func DecodeRegisterListResponse(payload []byte) (name string, end bool) {
	if len(payload) == 0 {
		return "", true
	}
	nameLen := int(payload[0])
	if nameLen > len(payload)-1 {
		nameLen = len(payload) - 1
	}
	if nameLen > RegisterListBufferLength {
		nameLen = RegisterListBufferLength
	}
	name = string(payload[1 : 1+nameLen])
	return name, name == ""
}
