package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameIDRoundTripRequest(t *testing.T) {
	id := FrameID{Priority: PriorityNominal, Kind: KindRequest, PortID: 384, SourceNode: 10, DestNode: 42}
	raw, err := Encode(id)
	require.NoError(t, err)
	assert.Equal(t, id, Decode(raw))
}

func TestFrameIDRoundTripMessage(t *testing.T) {
	id := FrameID{Priority: 2, Kind: KindMessage, PortID: 7509, SourceNode: 5}
	raw, err := Encode(id)
	require.NoError(t, err)
	got := Decode(raw)
	assert.Equal(t, id.Priority, got.Priority)
	assert.Equal(t, id.Kind, got.Kind)
	assert.Equal(t, id.PortID, got.PortID)
	assert.Equal(t, id.SourceNode, got.SourceNode)
}

func TestEncodeRejectsOutOfRangeSubjectID(t *testing.T) {
	_, err := Encode(FrameID{Kind: KindMessage, PortID: maxSubjectID + 1})
	assert.Error(t, err)
}

func TestFingerprintPacksFields(t *testing.T) {
	fp := Fingerprint(42, 7, 384)
	assert.Equal(t, uint32(42)<<14|uint32(7)<<9|uint32(384), fp)
}

func TestNextTransferIDAdvancesModulo32(t *testing.T) {
	m := NewManager(nil, 1)
	for i := 0; i < 70; i++ {
		assert.Equal(t, uint8(i%32), m.NextTransferID(9, 384))
	}
	// Counters are per (remote node, port) pair: a different pair
	// starts from zero regardless of the first pair's progress.
	assert.Equal(t, uint8(0), m.NextTransferID(10, 384))
	assert.Equal(t, uint8(0), m.NextTransferID(9, 385))
}

func TestSplitSingleFrame(t *testing.T) {
	payload := []byte{1, 2, 3}
	frames := Split(payload, 9)
	require.Len(t, frames, 1)
	assert.Equal(t, append(append([]byte{}, payload...), makeTail(true, true, true, 9)), frames[0])
}

func TestSplitAndReassembleMultiFrame(t *testing.T) {
	payload := make([]byte, 140)
	for i := range payload {
		payload[i] = byte(i)
	}
	frames := Split(payload, 3)
	require.Greater(t, len(frames), 1)

	sub := NewSubscription(384, KindResponse, 267)
	var got []byte
	for _, f := range frames {
		p, tid, ok := sub.Accept(9, f)
		if ok {
			got = p
			assert.Equal(t, uint8(3), tid)
		}
	}
	assert.Equal(t, payload, got)
}

func TestSubscriptionRejectsBadCRC(t *testing.T) {
	payload := make([]byte, 100)
	frames := Split(payload, 1)
	// Corrupt a payload byte in the first frame; the CRC carried by the
	// final frame no longer matches.
	frames[0][0] ^= 0xFF

	sub := NewSubscription(384, KindResponse, 267)
	var completed bool
	for _, f := range frames {
		_, _, ok := sub.Accept(9, f)
		if ok {
			completed = true
		}
	}
	assert.False(t, completed)
}

func TestReassembleMaxExtentMultiFrame(t *testing.T) {
	// A payload exactly as large as the extent must reassemble; the two
	// trailing CRC bytes do not count against it.
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i * 3)
	}
	frames := Split(payload, 7)
	require.Greater(t, len(frames), 1)

	sub := NewSubscription(430, KindResponse, 100)
	var got []byte
	for _, f := range frames {
		if p, _, ok := sub.Accept(4, f); ok {
			got = p
		}
	}
	assert.Equal(t, payload, got)
}

func TestSubscriptionEnforcesExtent(t *testing.T) {
	sub := NewSubscription(7509, KindMessage, 4)
	_, _, ok := sub.Accept(5, []byte{1, 2, 3, 4, 5, makeTail(true, true, true, 0)})
	assert.False(t, ok)
}
