package shuffleproof

import (
	"io"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
)

// PoSCommitment is the monolithic PoS's first message (spec 4.J): unlike
// PoSC/CCPoS it carries the permutation commitment u itself, since PoS is
// used precisely when no permutation commitment was pre-published.
type PoSCommitment struct {
	U     []group.Element
	Inner CCPoSCommitment
}

// PoSReply is the monolithic PoS's reply; it reuses CCPoSReply's shape
// verbatim, since once u is folded into the transcript the two remaining
// verification equations are exactly PoSC's A-equation and CCPoS's
// B-equation (spec 4.J: "A single-step Σ-protocol proving shuffle
// correctness without a pre-committed permutation").
type PoSReply = CCPoSReply

// ProvePoS proves shuffle correctness end to end, without a pre-published
// permutation commitment: it builds u = g^r . h_{pi^-1(.)} internally, then
// runs the combined PoSC+CCPoS argument over it (spec 4.J).
func ProvePoS(grp group.Group, ch *challenger.Challenger, g, pk group.Element, h, w, wPrime []group.Element, r, s []group.RingElement, invPerm []int, src io.Reader) (PoSCommitment, PoSReply, error) {
	n := len(h)
	if err := checkLengths("shuffleproof", n, len(w), len(wPrime), len(r), len(s), len(invPerm)); err != nil {
		return PoSCommitment{}, PoSReply{}, err
	}
	u := buildPermutationCommitment(grp, g, h, r, invPerm)
	commit, reply, err := ProveCCPoS(grp, ch, g, pk, h, u, w, wPrime, r, s, invPerm, src)
	if err != nil {
		return PoSCommitment{}, PoSReply{}, err
	}
	return PoSCommitment{U: u, Inner: commit}, reply, nil
}

// VerifyPoS re-derives u's role from the published commitment and checks
// the combined verification equations (spec 4.J).
func VerifyPoS(grp group.Group, ch *challenger.Challenger, g, pk group.Element, h, w, wPrime []group.Element, commit PoSCommitment, reply PoSReply) error {
	if err := checkLengths("shuffleproof", len(h), len(commit.U), len(w), len(wPrime)); err != nil {
		return err
	}
	return VerifyCCPoS(grp, ch, g, pk, h, commit.U, w, wPrime, commit.Inner, reply)
}

// buildPermutationCommitment computes u_i = g^{r_i} * h_{pi^-1(i)} (spec
// 4.G), used internally by PoS since it has no pre-published u to rely on.
func buildPermutationCommitment(grp group.Group, g group.Element, h []group.Element, r []group.RingElement, invPerm []int) []group.Element {
	u := make([]group.Element, len(h))
	for i, j := range invPerm {
		u[i] = g.Exp(r[i]).Mul(h[j])
	}
	return u
}

// ByteTree implements bytetree.Encoder for PoSCommitment.
func (c PoSCommitment) ByteTree() bytetree.Tree {
	children := make([]bytetree.Tree, 0, len(c.U)+1)
	for _, x := range c.U {
		children = append(children, bytetree.Leaf(x.Bytes()))
	}
	children = append(children, c.Inner.ByteTree())
	return bytetree.Node(children...)
}

// PoSCommitmentFromTree decodes a PoSCommitment for a known n, the inverse
// of PoSCommitment.ByteTree.
func PoSCommitmentFromTree(t bytetree.Tree, grp group.Group, n int) (PoSCommitment, error) {
	if t.IsLeaf() || len(t.Children) != n+1 {
		return PoSCommitment{}, protoerr.NewInputFormatError("shuffleproof", "malformed PoS commitment")
	}
	u := make([]group.Element, n)
	for i := 0; i < n; i++ {
		x, err := grp.FromBytes(t.Children[i].Data)
		if err != nil {
			return PoSCommitment{}, err
		}
		u[i] = x
	}
	inner, err := CCPoSCommitmentFromTree(t.Children[n], grp, n)
	if err != nil {
		return PoSCommitment{}, err
	}
	return PoSCommitment{U: u, Inner: inner}, nil
}
