package transfer

// Transfer is one logical protocol message, possibly split across
// several CAN-FD frames, correlated end-to-end by a 5-bit transfer ID.
type Transfer struct {
	Kind          Kind
	Priority      Priority
	PortID        uint16
	RemoteNode    uint8
	TransferID    uint8
	Payload       []byte
	TimestampUsec uint64 // kernel receive time, zero for outgoing
}

// Fingerprint packs the tuple used to correlate a response to its
// originating request into a 21-bit key: remote_node(7) |
// transfer_id(5) | port_id(9).
func Fingerprint(remoteNode, transferID uint8, portID uint16) uint32 {
	return uint32(remoteNode&0x7F)<<14 | uint32(transferID&0x1F)<<9 | uint32(portID&0x1FF)
}

// Fingerprint returns this transfer's correlation key, valid for
// request/response transfers (remote node is the peer node ID on both
// sides of the exchange).
func (t Transfer) Fingerprint() uint32 {
	return Fingerprint(t.RemoteNode, t.TransferID, t.PortID)
}
