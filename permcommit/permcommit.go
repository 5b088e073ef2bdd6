// Package permcommit implements permutation commitments (spec 4.G): a
// dealer commits to a secret permutation pi of size n by publishing
// u_i = g^{r_{pi^-1(i)}} . h_{pi^-1(i)} against a vector of independent
// generators h, then proves knowledge of (pi, r) with a PoSC (shuffleproof
// package). It also implements shrinking a precomputed, wide commitment
// down to the width actually needed by one mixing run, and the trivial
// fallback a verifier substitutes for a rejected proof.
//
// Grounded on the teacher's polyexp.PolyInExp construction pattern (a
// public vector of group elements built from private ring-element
// exponents) generalized from a single polynomial to a permuted family.
package permcommit

import (
	"fmt"
	"io"

	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
)

// Commitment is the public output of a permutation-commitment dealer: the
// vector u (spec 4.G).
type Commitment struct {
	U []group.Element
}

// Witness is the dealer's private state: the permutation (given as its
// inverse, invPerm[i] = pi^-1(i)) and the randomizers r used to build U.
type Witness struct {
	InvPerm []int
	R       []group.RingElement
}

// New builds a permutation commitment for permutation pi (given as
// invPerm = pi^-1) over generator vector h, sampling randomizers r from
// src (crypto/rand.Reader semantics are the caller's responsibility, as
// elsewhere in this module src must not be nil in production use).
func New(grp group.Group, g group.Element, h []group.Element, invPerm []int, src io.Reader) (Commitment, Witness, error) {
	n := len(h)
	if len(invPerm) != n {
		return Commitment{}, Witness{}, protoerr.NewProtocolError("permcommit", fmt.Sprintf("invPerm length %d does not match generator count %d", len(invPerm), n))
	}
	if !isPermutation(invPerm) {
		return Commitment{}, Witness{}, protoerr.NewProtocolError("permcommit", "invPerm is not a permutation of 0..n-1")
	}
	ring := grp.Ring()
	r := make([]group.RingElement, n)
	u := make([]group.Element, n)
	for i, j := range invPerm {
		ri, err := ring.Random(src)
		if err != nil {
			return Commitment{}, Witness{}, fmt.Errorf("permcommit: sampling randomizer %d: %w", i, err)
		}
		r[i] = ri
		u[i] = g.Exp(ri).Mul(h[j])
	}
	return Commitment{U: u}, Witness{InvPerm: invPerm, R: r}, nil
}

// Trivial returns the fallback commitment a verifier substitutes when a
// PoSC/CCPoS/PoS proof is rejected: u equal to the generator vector itself,
// i.e. the commitment to the identity permutation with zero randomizers
// (spec 4.H: "on reject the verifier replaces the prover's permutation
// commitment with a trivial one equal to the generator vector").
func Trivial(h []group.Element) Commitment {
	u := make([]group.Element, len(h))
	copy(u, h)
	return Commitment{U: u}
}

// Shrink restricts a precomputed, width-n commitment (and its matching
// generator vector) down to the n' positions marked by keepList, in order
// (spec 4.G's shrinking step). keepList must have length n and exactly n'
// ones; any other shape is a dishonest keepList and the caller must
// trivialize the instance instead of calling Shrink.
func Shrink(h []group.Element, c Commitment, keepList []bool) (shrunkH, shrunkU []group.Element, err error) {
	n := len(h)
	if len(c.U) != n || len(keepList) != n {
		return nil, nil, protoerr.NewProtocolError("permcommit", "shrink: length mismatch between generators, commitment and keepList")
	}
	for i, keep := range keepList {
		if keep {
			shrunkH = append(shrunkH, h[i])
			shrunkU = append(shrunkU, c.U[i])
		}
	}
	return shrunkH, shrunkU, nil
}

// ValidKeepList reports whether keepList has the expected length n and
// exactly nPrime ones; a failing keepList must be treated as a dealer
// fault and the instance trivialized (spec 4.G).
func ValidKeepList(keepList []bool, n, nPrime int) bool {
	if len(keepList) != n {
		return false
	}
	count := 0
	for _, keep := range keepList {
		if keep {
			count++
		}
	}
	return count == nPrime
}

func isPermutation(invPerm []int) bool {
	seen := make([]bool, len(invPerm))
	for _, j := range invPerm {
		if j < 0 || j >= len(invPerm) || seen[j] {
			return false
		}
		seen[j] = true
	}
	return true
}
