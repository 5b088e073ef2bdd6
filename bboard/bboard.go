// Package bboard declares the bulletin-board collaborator contract: an
// authenticated broadcast abstraction every party publishes to and reads
// from during a mix-net session (spec section 1 lists this transport as out
// of scope, referenced only by interface). Concrete, runnable broadcast
// implementations live in bboard/local.
package bboard

import "context"

// Board is a per-session authenticated broadcast channel. Published values
// are immutable once written and are visible to every party under the same
// (party, tag) key. Tags published by a given party are observed by readers
// in the order they were published (spec section 5 ordering guarantee).
type Board interface {
	// Publish makes data available under (party, tag) for this session.
	// Publishing the same (party, tag) twice is an error: publication is
	// write-once.
	Publish(party int, tag string, data []byte) error

	// WaitFor blocks until party has published a value for tag, or ctx is
	// done. It has no intrinsic timeout beyond what ctx supplies, matching
	// spec section 5: a mix-net session tolerates non-participation by
	// treating a missing or malformed output as a rejected proof rather than
	// by timing WaitFor out itself.
	WaitFor(ctx context.Context, party int, tag string) ([]byte, error)

	// TryGet returns the value published by party under tag if already
	// available, without blocking.
	TryGet(party int, tag string) (data []byte, ok bool)
}
