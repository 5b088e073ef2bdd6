// Package shuffleproof implements the three Σ-protocols spec 4.H/4.I/4.J
// name: PoSC (proof of a shuffle of commitments, Terelius-Wikström), CCPoS
// (commitment-consistent proof of a shuffle, Wikström) and the monolithic
// PoS. All three share the same 4-move shape: a batch-vector challenge e
// derived from the challenger, a prover commitment, an integer challenge v,
// and a linear reply — grounded on the dedis/kyber PairShuffle verifiable
// shuffle (other_examples, Neff's "Verifiable Mixing of ElGamal Pairs"),
// the one complete, working proof-of-shuffle algorithm in the retrieval
// pack, generalized from its fixed 6-round ElGamal-pair structure to the
// single-combined-equation shape spec.md describes.
//
// That linear equation alone only proves knowledge of some representation
// of prod(u_i^e_i) in the bases (g, h_1..h_n); it does not bind the
// extracted coefficients to a permutation of e. Permutation-binding is
// established separately, by permBinding in this file: a product argument
// (prod(u_i) =?= g^R . prod(h_i), a Schnorr proof of knowledge of R =
// sum(r_i)) composed with a Cramer-Damgård-Schoenmakers 1-of-n disjunction
// per u_i proving u_i = g^{r_i}.h_j for exactly one hidden j, generalizing
// the same commit/challenge/reply shape this package already uses for its
// combined equations to the standard OR-composition of Schnorr proofs. The
// disjunction forces every u_i to select exactly one h_j (ruling out a
// dishonest commitment that spreads its mass over several generators or
// skips one); the product argument then forces the selections to cover
// every h_j exactly once (under the discrete-log independence of h_1..h_n,
// since their selection counts lie in 0..n and q is chosen far larger than
// n). One-to-one coverage of n generators by n one-hot selections is
// exactly a permutation. See DESIGN.md for the accompanying proof sketch
// and the O(n^2) cost this trades for a fully rigorous construction.
package shuffleproof

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
)

// batchVector derives e in F^n from the challenger, seeded by transcript.
func batchVector(ch *challenger.Challenger, ring group.Ring, transcript []byte, n int) ([]group.RingElement, error) {
	seed := ch.BatchingSeed(transcript, challenger.MinSeedBytes)
	return challenger.BatchVector(seed, n, ch.BatchBits(), ring)
}

// permuteChallenge computes e'_i = e[invPerm[i]], the batch vector permuted
// by the prover's secret π (spec 4.H step 2's "inverse-permuted e'").
func permuteChallenge(e []group.RingElement, invPerm []int) []group.RingElement {
	out := make([]group.RingElement, len(e))
	for i, j := range invPerm {
		out[i] = e[j]
	}
	return out
}

func sampleVector(ring group.Ring, n int, src io.Reader) ([]group.RingElement, error) {
	out := make([]group.RingElement, n)
	for i := range out {
		v, err := ring.Random(src)
		if err != nil {
			return nil, fmt.Errorf("shuffleproof: sampling randomizer %d: %w", i, err)
		}
		out[i] = v
	}
	return out
}

func sumRing(ring group.Ring, xs []group.RingElement) group.RingElement {
	acc := ring.Zero()
	for _, x := range xs {
		acc = acc.Add(x)
	}
	return acc
}

func innerProduct(ring group.Ring, a, b []group.RingElement) group.RingElement {
	acc := ring.Zero()
	for i := range a {
		acc = acc.Add(a[i].Mul(b[i]))
	}
	return acc
}

func productExp(identity group.Element, bases []group.Element, exps []group.RingElement) group.Element {
	acc := identity
	for i, b := range bases {
		acc = acc.Mul(b.Exp(exps[i]))
	}
	return acc
}

func randReader(src io.Reader) io.Reader {
	if src == nil {
		return rand.Reader
	}
	return src
}

func checkLengths(component string, n int, lens ...int) error {
	for _, l := range lens {
		if l != n {
			return protoerr.NewProtocolError(component, fmt.Sprintf("vector length mismatch: want %d, got %d", n, l))
		}
	}
	return nil
}

// product returns the plain product of elements with every exponent fixed
// at 1 (productExp with an all-ones exponent vector).
func product(identity group.Element, elements []group.Element) group.Element {
	acc := identity
	for _, x := range elements {
		acc = acc.Mul(x)
	}
	return acc
}

// PermBindingCommitment is the prover's first message in the shared
// permutation-binding sub-argument composed into PoSC and CCPoS: a Schnorr
// commitment for the product argument plus, for every (i, j), a CDS
// OR-proof commitment that u_i selects h_j (see package doc).
type PermBindingCommitment struct {
	ProdCommit group.Element
	Or         []group.Element // flattened n*n, row i at [i*n : i*n+n]
}

// PermBindingReply is the prover's final message: the product argument's
// reply plus every branch's (sub-challenge, response) pair. Unlike a plain
// Schnorr reply, the OR-proof's false-branch sub-challenges are themselves
// part of the transcript the verifier checks, not re-derived.
type PermBindingReply struct {
	ProdReply   group.RingElement
	OrChallenge []group.RingElement // flattened n*n
	OrReply     []group.RingElement // flattened n*n
}

// permBindingState is the prover's secret state carried from the commit
// step to the reply step, once the shared integer challenge v is known.
type permBindingState struct {
	n      int
	betaR  group.RingElement
	r      []group.RingElement
	invPerm []int
	k      []group.RingElement   // true-branch Schnorr nonce, per i
	c      []group.RingElement   // flattened n*n; false branches pre-filled, true branch filled at reply time
	z      []group.RingElement   // flattened n*n; false branches pre-filled, true branch filled at reply time
}

// commitPermBinding runs the commit step of the permutation-binding
// sub-argument: R = sum(r_i) for the product argument, and a CDS
// disjunction commitment per u_i (spec 4.G's u_i = g^{r_i}.h_{invPerm(i)}).
func commitPermBinding(grp group.Group, g group.Element, h, u []group.Element, r []group.RingElement, invPerm []int, src io.Reader) (PermBindingCommitment, *permBindingState, error) {
	n := len(h)
	ring := grp.Ring()
	betaR, err := ring.Random(src)
	if err != nil {
		return PermBindingCommitment{}, nil, fmt.Errorf("shuffleproof: sampling product-argument nonce: %w", err)
	}

	or := make([]group.Element, n*n)
	c := make([]group.RingElement, n*n)
	z := make([]group.RingElement, n*n)
	k := make([]group.RingElement, n)
	for i := 0; i < n; i++ {
		jStar := invPerm[i]
		ki, err := ring.Random(src)
		if err != nil {
			return PermBindingCommitment{}, nil, fmt.Errorf("shuffleproof: sampling OR-proof nonce %d: %w", i, err)
		}
		k[i] = ki
		for j := 0; j < n; j++ {
			idx := i*n + j
			if j == jStar {
				or[idx] = g.Exp(ki)
				continue
			}
			cij, err := ring.Random(src)
			if err != nil {
				return PermBindingCommitment{}, nil, fmt.Errorf("shuffleproof: sampling OR-proof sub-challenge: %w", err)
			}
			zij, err := ring.Random(src)
			if err != nil {
				return PermBindingCommitment{}, nil, fmt.Errorf("shuffleproof: sampling OR-proof response: %w", err)
			}
			c[idx], z[idx] = cij, zij
			yij := u[i].Mul(h[j].Inv())
			or[idx] = g.Exp(zij).Mul(yij.Exp(cij.Neg()))
		}
	}

	commit := PermBindingCommitment{ProdCommit: g.Exp(betaR), Or: or}
	state := &permBindingState{n: n, betaR: betaR, r: r, invPerm: invPerm, k: k, c: c, z: z}
	return commit, state, nil
}

// replyPermBinding runs the reply step once the shared integer challenge v
// has been derived from the full transcript (including this sub-argument's
// commitment). The true branch's sub-challenge is fixed so that every
// branch's sub-challenges sum to v, binding the disjunction to v.
func replyPermBinding(ring group.Ring, st *permBindingState, v group.RingElement) PermBindingReply {
	n := st.n
	R := sumRing(ring, st.r)
	for i := 0; i < n; i++ {
		jStar := st.invPerm[i]
		sum := ring.Zero()
		for j := 0; j < n; j++ {
			if j == jStar {
				continue
			}
			sum = sum.Add(st.c[i*n+j])
		}
		cStar := v.Sub(sum)
		st.c[i*n+jStar] = cStar
		st.z[i*n+jStar] = st.k[i].Add(cStar.Mul(st.r[i]))
	}
	return PermBindingReply{
		ProdReply:   st.betaR.Add(v.Mul(R)),
		OrChallenge: st.c,
		OrReply:     st.z,
	}
}

// verifyPermBinding checks the product argument and every OR-proof branch,
// per package doc: together they force invPerm's implicit selection to be a
// bijection.
func verifyPermBinding(grp group.Group, g group.Element, h, u []group.Element, commit PermBindingCommitment, reply PermBindingReply, v group.RingElement) error {
	n := len(h)
	if err := checkLengths("shuffleproof", n*n, len(commit.Or), len(reply.OrChallenge), len(reply.OrReply)); err != nil {
		return err
	}
	ring := grp.Ring()

	prodTarget := product(grp.Identity(), u).Mul(product(grp.Identity(), h).Inv())
	prodLhs := g.Exp(reply.ProdReply)
	prodRhs := commit.ProdCommit.Mul(prodTarget.Exp(v))
	if !prodLhs.Equal(prodRhs) {
		return protoerr.NewProofRejected("shuffleproof", 0, "permutation-binding product argument failed")
	}

	for i := 0; i < n; i++ {
		sum := ring.Zero()
		for j := 0; j < n; j++ {
			idx := i*n + j
			sum = sum.Add(reply.OrChallenge[idx])
			yij := u[i].Mul(h[j].Inv())
			lhs := g.Exp(reply.OrReply[idx])
			rhs := commit.Or[idx].Mul(yij.Exp(reply.OrChallenge[idx]))
			if !lhs.Equal(rhs) {
				return protoerr.NewProofRejected("shuffleproof", i, "permutation-binding OR-proof branch failed")
			}
		}
		if !sum.Equal(v) {
			return protoerr.NewProofRejected("shuffleproof", i, "permutation-binding OR-proof sub-challenges do not sum to v")
		}
	}
	return nil
}

// ByteTree implements bytetree.Encoder for PermBindingCommitment.
func (c PermBindingCommitment) ByteTree() bytetree.Tree {
	children := make([]bytetree.Tree, 0, len(c.Or)+1)
	children = append(children, bytetree.Leaf(c.ProdCommit.Bytes()))
	for _, x := range c.Or {
		children = append(children, bytetree.Leaf(x.Bytes()))
	}
	return bytetree.Node(children...)
}

// ByteTree implements bytetree.Encoder for PermBindingReply.
func (r PermBindingReply) ByteTree() bytetree.Tree {
	children := make([]bytetree.Tree, 0, len(r.OrChallenge)+len(r.OrReply)+1)
	children = append(children, bytetree.Leaf(r.ProdReply.Bytes()))
	for _, x := range r.OrChallenge {
		children = append(children, bytetree.Leaf(x.Bytes()))
	}
	for _, x := range r.OrReply {
		children = append(children, bytetree.Leaf(x.Bytes()))
	}
	return bytetree.Node(children...)
}

// permBindingCommitmentFromTree decodes a PermBindingCommitment for a
// known n, the inverse of PermBindingCommitment.ByteTree.
func permBindingCommitmentFromTree(t bytetree.Tree, grp group.Group, n int) (PermBindingCommitment, error) {
	if t.IsLeaf() || len(t.Children) != n*n+1 {
		return PermBindingCommitment{}, protoerr.NewInputFormatError("shuffleproof", "malformed permutation-binding commitment")
	}
	prodCommit, err := grp.FromBytes(t.Children[0].Data)
	if err != nil {
		return PermBindingCommitment{}, err
	}
	or := make([]group.Element, n*n)
	for i := range or {
		x, err := grp.FromBytes(t.Children[i+1].Data)
		if err != nil {
			return PermBindingCommitment{}, err
		}
		or[i] = x
	}
	return PermBindingCommitment{ProdCommit: prodCommit, Or: or}, nil
}

// permBindingReplyFromTree decodes a PermBindingReply for a known n, the
// inverse of PermBindingReply.ByteTree.
func permBindingReplyFromTree(t bytetree.Tree, grp group.Group, n int) (PermBindingReply, error) {
	if t.IsLeaf() || len(t.Children) != 2*n*n+1 {
		return PermBindingReply{}, protoerr.NewInputFormatError("shuffleproof", "malformed permutation-binding reply")
	}
	ring := grp.Ring()
	prodReply, err := ring.FromBytes(t.Children[0].Data)
	if err != nil {
		return PermBindingReply{}, err
	}
	orChallenge := make([]group.RingElement, n*n)
	for i := range orChallenge {
		x, err := ring.FromBytes(t.Children[i+1].Data)
		if err != nil {
			return PermBindingReply{}, err
		}
		orChallenge[i] = x
	}
	orReply := make([]group.RingElement, n*n)
	for i := range orReply {
		x, err := ring.FromBytes(t.Children[i+1+n*n].Data)
		if err != nil {
			return PermBindingReply{}, err
		}
		orReply[i] = x
	}
	return PermBindingReply{ProdReply: prodReply, OrChallenge: orChallenge, OrReply: orReply}, nil
}
