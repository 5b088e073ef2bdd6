package parray

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// ActiveSet is a mutable bitmap over party indices {1,...,k}, used to track
// which parties are taking part in a mix-net session (spec section 3). It
// must contain at least t members for any protocol operation to proceed.
type ActiveSet struct {
	k      int
	active map[int]bool
}

// NewActiveSet returns an ActiveSet over {1,...,k} with every party active.
func NewActiveSet(k int) *ActiveSet {
	active := make(map[int]bool, k)
	for i := 1; i <= k; i++ {
		active[i] = true
	}
	return &ActiveSet{k: k, active: active}
}

// Deactivate marks party l as inactive.
func (s *ActiveSet) Deactivate(l int) error {
	if l < 1 || l > s.k {
		return fmt.Errorf("parray: party index %d out of range [1,%d]", l, s.k)
	}
	s.active[l] = false
	return nil
}

// Reactivate marks party l as active again.
func (s *ActiveSet) Reactivate(l int) error {
	if l < 1 || l > s.k {
		return fmt.Errorf("parray: party index %d out of range [1,%d]", l, s.k)
	}
	s.active[l] = true
	return nil
}

// IsActive reports whether party l is currently active.
func (s *ActiveSet) IsActive(l int) bool {
	return s.active[l]
}

// Members returns the sorted list of active party indices.
func (s *ActiveSet) Members() []int {
	out := maps.Keys(s.active)
	sort.Ints(out)
	filtered := out[:0]
	for _, l := range out {
		if s.active[l] {
			filtered = append(filtered, l)
		}
	}
	return append([]int(nil), filtered...)
}

// Size returns the number of active members.
func (s *ActiveSet) Size() int {
	return len(s.Members())
}

// MeetsThreshold reports whether at least t parties are active.
func (s *ActiveSet) MeetsThreshold(t int) bool {
	return s.Size() >= t
}
