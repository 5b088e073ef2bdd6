// Package vss implements Pedersen verifiable secret sharing (spec component
// 4.D), its orchestrated complaint/refutation round and on-disk state
// machine (4.E), and the sequential composition running each of the first t
// parties as dealer in turn (4.F). The construction is grounded on the
// dealer/complaint/justification protocol shape used throughout the
// retrieval pack's (t,n) VSS implementations, generalized to an arbitrary
// ring-group homomorphism rather than a single fixed elliptic curve.
package vss

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/polyexp"
)

// State is the lifecycle of one Pedersen VSS instance, per spec 4.D's state
// machine: Initial -> SharingComputed (dealer) or VerificationPossible
// (receiver) -> SecretRecovered.
type State int

const (
	StateInitial State = iota
	StateSharingComputed
	StateVerificationPossible
	StateSecretRecovered
	StateTrivialized
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateSharingComputed:
		return "SHARING_COMPUTED"
	case StateVerificationPossible:
		return "VERIFICATION_POSSIBLE"
	case StateSecretRecovered:
		return "SECRET_RECOVERED"
	case StateTrivialized:
		return "TRIVIAL"
	default:
		return "UNKNOWN"
	}
}

// Label uniquely names one VSS instance: the dealer index within a
// (sid, auxsid) session scope. It is mixed into every labeled encryption of
// a share so ciphertexts cannot be replayed across instances (spec 4.D).
type Label struct {
	Sid, Auxsid string
	Dealer      int
}

// Bytes returns the canonical byte-tree encoding of the label, used both as
// an AEAD label and as part of the Fiat-Shamir transcript when this VSS
// instance's public data is challenged.
func (l Label) Bytes() []byte {
	t := bytetree.Node(
		bytetree.LeafString(l.Sid),
		bytetree.LeafString(l.Auxsid),
		bytetree.LeafInt(l.Dealer),
	)
	return bytetree.Encode(t)
}

// PedersenShare is one receiver's share of a dealer's secret: a value share
// s and a randomizer share r such that phi(s, r) = commitments.Eval(j) for
// receiver index j, together with the dealer's public Pedersen commitments
// to its sharing polynomials. A trivialized share has s = r = 0 and
// commitments identically 1 (spec 4.D trivialization).
type PedersenShare struct {
	ValueShare  group.RingElement
	RandomShare group.RingElement
	Commitments polyexp.PolyInExp
	Trivial     bool
}

// Trivialize returns the canonical trivial share for the given Pedersen
// homomorphism's group: value and random shares are the ring's zero, and
// the commitment polynomial is the constant identity polynomial.
func Trivialize(grp group.Group) PedersenShare {
	r := grp.Ring()
	return PedersenShare{
		ValueShare:  r.Zero(),
		RandomShare: r.Zero(),
		Commitments: polyexp.New(grp, []group.Element{grp.Identity()}),
		Trivial:     true,
	}
}

// Verify checks phi(s,r) = commitments.Eval(j) for receiver index j (as a
// ring element), returning nil if and only if the share is consistent with
// the published commitments.
func (s PedersenShare) Verify(phi group.PedersenHomomorphism, j group.RingElement) error {
	lhs := phi.EvalPedersen(s.ValueShare, s.RandomShare)
	rhs := s.Commitments.Eval(j)
	if !lhs.Equal(rhs) {
		return fmt.Errorf("vss: share fails phi(s,r) = poly.eval(j) check")
	}
	return nil
}

// shamirPoly samples a degree t-1 polynomial over R with constant term secret.
func shamirPoly(ring group.Ring, t int, secret group.RingElement, src io.Reader) ([]group.RingElement, error) {
	if src == nil {
		src = rand.Reader
	}
	coeffs := make([]group.RingElement, t)
	coeffs[0] = secret
	for i := 1; i < t; i++ {
		c, err := ring.Random(src)
		if err != nil {
			return nil, fmt.Errorf("vss: sampling polynomial coefficient %d: %w", i, err)
		}
		coeffs[i] = c
	}
	return coeffs, nil
}

func evalRingPoly(ring group.Ring, coeffs []group.RingElement, at group.RingElement) group.RingElement {
	acc := ring.Zero()
	pow := ring.One()
	for i, c := range coeffs {
		acc = acc.Add(c.Mul(pow))
		if i != len(coeffs)-1 {
			pow = pow.Mul(at)
		}
	}
	return acc
}
