package vss

import (
	"fmt"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

// Sequential runs t independent basic VSS instances, one per dealer in
// 1..t, and collapses them into a single (k,t)-sharing of the sum of the t
// dealt secrets (spec 4.F, "Pedersen-sequential"). Every party ends up
// holding a value share and random share of the aggregate secret, and the
// aggregate public commitment polynomial, without any party having learned
// the aggregate secret itself unless it colludes with all t dealers.
type Sequential struct {
	Grp  group.Group
	T    int
	K    int
	Self int

	sessions []*Session
}

// NewSequential wires one Session per dealer index 1..t. sessionFor must
// return the appropriately configured dealer or receiver Session for dealer
// index d (built via NewDealerSession when d == self, NewReceiverSession
// otherwise); callers retain control over per-dealer secrets and keys.
func NewSequential(grp group.Group, t, k, self int, sessionFor func(dealer int) (*Session, error)) (*Sequential, error) {
	sessions := make([]*Session, t)
	for d := 1; d <= t; d++ {
		s, err := sessionFor(d)
		if err != nil {
			return nil, fmt.Errorf("vss: sequential: dealer %d: %w", d, err)
		}
		sessions[d-1] = s
	}
	return &Sequential{Grp: grp, T: t, K: k, Self: self, sessions: sessions}, nil
}

// Sessions returns the per-dealer sessions in dealer-index order, for
// drivers that need to call Deal/ReceiveAndVerify/Justify/Trivialize on
// each individually.
func (sq *Sequential) Sessions() []*Session {
	return sq.sessions
}

// Collapse combines t per-dealer shares (one PedersenShare per dealer,
// ordered 1..t, trivial for any dealer that failed) into the aggregate
// share for this party, and the t per-dealer commitment polynomials into
// the aggregate public commitment polynomial, via polyexp.PolyInExp.Mul
// (spec 4.F collapse: addition of the underlying ring polynomials).
func Collapse(grp group.Group, perDealer []PedersenShare) (PedersenShare, error) {
	if len(perDealer) == 0 {
		return PedersenShare{}, fmt.Errorf("vss: collapse requires at least one dealer share")
	}
	ring := grp.Ring()
	valueSum := ring.Zero()
	randomSum := ring.Zero()
	commitments := perDealer[0].Commitments
	for i, sh := range perDealer {
		valueSum = valueSum.Add(sh.ValueShare)
		randomSum = randomSum.Add(sh.RandomShare)
		if i == 0 {
			commitments = sh.Commitments
			continue
		}
		commitments = commitments.Mul(sh.Commitments)
	}
	return PedersenShare{ValueShare: valueSum, RandomShare: randomSum, Commitments: commitments}, nil
}

// ConstantElementProduct returns prod_l Commitments_l.Eval(0), the jointly
// generated public group element (spec 4.E constantElementProduct).
// Distributed ElGamal key generation (spec 4.F) reads the aggregate public
// key off of exactly this value when phi is the plain exponentiation
// homomorphism g^x.
func ConstantElementProduct(grp group.Group, perDealer []PedersenShare) (group.Element, error) {
	if len(perDealer) == 0 {
		return nil, fmt.Errorf("vss: constant element product requires at least one dealer share")
	}
	zero := grp.Ring().Zero()
	acc := perDealer[0].Commitments.Eval(zero)
	for _, sh := range perDealer[1:] {
		acc = acc.Mul(sh.Commitments.Eval(zero))
	}
	return acc, nil
}
