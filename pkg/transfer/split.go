package transfer

import "github.com/widgetlords/libwlmio/internal/crc"

// maxFramePayload is the largest chunk of transfer payload a single
// CAN-FD frame can carry once its trailing tail byte is accounted for.
const maxFramePayload = 63

// Split breaks payload into the sequence of CAN-FD data frames that
// carry it as one transfer, tagging each with the given transfer ID.
// Transfers that fit in one frame carry no CRC; longer transfers have a
// CRC-16 of payload appended before splitting, per the Cyphal/CAN tail
// byte convention.
func Split(payload []byte, transferID uint8) [][]byte {
	if len(payload) <= maxFramePayload {
		frame := make([]byte, len(payload)+1)
		copy(frame, payload)
		frame[len(frame)-1] = makeTail(true, true, true, transferID)
		return [][]byte{frame}
	}

	sum := crc.Of(payload)
	crcBytes := sum.Bytes()
	extended := make([]byte, 0, len(payload)+2)
	extended = append(extended, payload...)
	extended = append(extended, crcBytes[0], crcBytes[1])

	var frames [][]byte
	toggle := true
	for offset := 0; offset < len(extended); offset += maxFramePayload {
		end := offset + maxFramePayload
		if end > len(extended) {
			end = len(extended)
		}
		chunk := extended[offset:end]
		frame := make([]byte, len(chunk)+1)
		copy(frame, chunk)
		isFirst := offset == 0
		isLast := end == len(extended)
		frame[len(frame)-1] = makeTail(isFirst, isLast, toggle, transferID)
		frames = append(frames, frame)
		toggle = !toggle
	}
	return frames
}
