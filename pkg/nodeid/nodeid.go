// Package nodeid defines the node-ID discovery contract: a platform
// capability that yields the 7-bit node identifier the engine uses for
// the lifetime of the process. The GPIO-backed implementation
// (pkg/nodeid/gpiochip) and the fixed-value implementation
// (pkg/nodeid/static) both satisfy it.
package nodeid

// Source produces the host's node ID, read once at initialization.
type Source interface {
	// NodeID returns a value in 0..127.
	NodeID() (uint8, error)
}
