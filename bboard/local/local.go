// Package local implements an in-process bboard.Board, sufficient for
// running an entire mix-net session within a single test or example binary
// (spec section 1 scopes the real transport out: this is a supplement, not
// a Byzantine-broadcast solution).
package local

import (
	"context"
	"fmt"
	"sync"
)

type key struct {
	party int
	tag   string
}

// Board is a goroutine-safe, in-memory bboard.Board. Each (party, tag) slot
// is written at most once; readers blocked in WaitFor are woken the moment
// the slot is filled.
type Board struct {
	mu   sync.Mutex
	data map[key][]byte
	wait map[key]chan struct{}
}

// New returns an empty Board.
func New() *Board {
	return &Board{
		data: make(map[key][]byte),
		wait: make(map[key]chan struct{}),
	}
}

func (b *Board) waitChan(k key) chan struct{} {
	if ch, ok := b.wait[k]; ok {
		return ch
	}
	ch := make(chan struct{})
	b.wait[k] = ch
	return ch
}

// Publish implements bboard.Board.
func (b *Board) Publish(party int, tag string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := key{party, tag}
	if _, exists := b.data[k]; exists {
		return fmt.Errorf("bboard: party %d already published tag %q", party, tag)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.data[k] = cp
	ch := b.waitChan(k)
	close(ch)
	return nil
}

// TryGet implements bboard.Board.
func (b *Board) TryGet(party int, tag string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[key{party, tag}]
	return d, ok
}

// WaitFor implements bboard.Board.
func (b *Board) WaitFor(ctx context.Context, party int, tag string) ([]byte, error) {
	k := key{party, tag}
	b.mu.Lock()
	if d, ok := b.data[k]; ok {
		b.mu.Unlock()
		return d, nil
	}
	ch := b.waitChan(k)
	b.mu.Unlock()

	select {
	case <-ch:
		b.mu.Lock()
		d := b.data[k]
		b.mu.Unlock()
		return d, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("bboard: waiting for party %d tag %q: %w", party, tag, ctx.Err())
	}
}
