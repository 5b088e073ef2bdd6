package shuffleproof

import (
	"io"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"

	"github.com/tuneinsight-mixnet/mixnet/challenger"
)

// PoSCCommitment is the prover's first message: a Pedersen-style commitment
// to the blinding vector alpha used to mask the permuted batch challenge
// e' = e o pi (spec 4.H step 2), together with the permutation-binding
// sub-argument's commitment (package doc).
type PoSCCommitment struct {
	HCommit   group.Element // prod_i h_i^alpha_i
	RhoCommit group.Element // g^alphaRho
	Bind      PermBindingCommitment
}

// PoSCReply is the prover's final message (spec 4.H step 4), together with
// the permutation-binding sub-argument's reply.
type PoSCReply struct {
	Coeffs   []group.RingElement // reply_i = alpha_i + v*e'_i
	RhoReply group.RingElement   // alphaRho + v*rho, rho = <r,e>
	Bind     PermBindingReply
}

// ProvePoSC proves knowledge of (pi, r) such that u_i = g^{r_i} * h_{pi^-1(i)}
// for every i, given the dealer's permutation pi (as invPerm = pi^-1) and
// randomizers r. The linear equation alone only proves a representation of
// prod(u_i^e_i); Bind is what actually establishes that representation
// follows a permutation of e (package doc).
func ProvePoSC(grp group.Group, ch *challenger.Challenger, g group.Element, h, u []group.Element, r []group.RingElement, invPerm []int, src io.Reader) (PoSCCommitment, PoSCReply, error) {
	n := len(h)
	if err := checkLengths("shuffleproof", n, len(u), len(r), len(invPerm)); err != nil {
		return PoSCCommitment{}, PoSCReply{}, err
	}
	src = randReader(src)
	ring := grp.Ring()

	e, err := batchVector(ch, ring, transcriptPoSC(g, h, u), n)
	if err != nil {
		return PoSCCommitment{}, PoSCReply{}, err
	}
	eprime := permuteChallenge(e, invPerm)
	rho := innerProduct(ring, r, e)

	alpha, err := sampleVector(ring, n, src)
	if err != nil {
		return PoSCCommitment{}, PoSCReply{}, err
	}
	alphaRho, err := ring.Random(src)
	if err != nil {
		return PoSCCommitment{}, PoSCReply{}, err
	}
	bindCommit, bindState, err := commitPermBinding(grp, g, h, u, r, invPerm, src)
	if err != nil {
		return PoSCCommitment{}, PoSCReply{}, err
	}

	commit := PoSCCommitment{
		HCommit:   productExp(grp.Identity(), h, alpha),
		RhoCommit: g.Exp(alphaRho),
		Bind:      bindCommit,
	}

	v := ch.IntegerChallenge(transcriptPoSCChallenge(g, h, u, commit))
	vRing := ring.FromBigInt(v)

	coeffs := make([]group.RingElement, n)
	for i := range coeffs {
		coeffs[i] = alpha[i].Add(vRing.Mul(eprime[i]))
	}
	reply := PoSCReply{
		Coeffs:   coeffs,
		RhoReply: alphaRho.Add(vRing.Mul(rho)),
		Bind:     replyPermBinding(ring, bindState, vRing),
	}
	return commit, reply, nil
}

// VerifyPoSC checks g^RhoReply * prod_i h_i^Coeffs_i =?= RhoCommit * HCommit
// * A^v, where A = prod_i u_i^e_i and v is the re-derived integer challenge
// (spec 4.H step 4's linear verification equation, collapsed to one), and
// separately checks the permutation-binding sub-argument against the same
// v, u and h (package doc). Both must hold for the proof to be accepted.
func VerifyPoSC(grp group.Group, ch *challenger.Challenger, g group.Element, h, u []group.Element, commit PoSCCommitment, reply PoSCReply) error {
	n := len(h)
	if err := checkLengths("shuffleproof", n, len(u), len(reply.Coeffs)); err != nil {
		return err
	}
	ring := grp.Ring()
	e, err := batchVector(ch, ring, transcriptPoSC(g, h, u), n)
	if err != nil {
		return err
	}
	a := productExp(grp.Identity(), u, e)

	v := ch.IntegerChallenge(transcriptPoSCChallenge(g, h, u, commit))
	vRing := ring.FromBigInt(v)

	lhs := g.Exp(reply.RhoReply).Mul(productExp(grp.Identity(), h, reply.Coeffs))
	rhs := commit.RhoCommit.Mul(commit.HCommit).Mul(a.Exp(vRing))
	if !lhs.Equal(rhs) {
		return protoerr.NewProofRejected("shuffleproof", 0, "PoSC verification equation failed")
	}
	if err := verifyPermBinding(grp, g, h, u, commit.Bind, reply.Bind, vRing); err != nil {
		return err
	}
	return nil
}

func transcriptPoSC(g group.Element, h, u []group.Element) []byte {
	var buf []byte
	buf = append(buf, g.Bytes()...)
	for _, x := range h {
		buf = append(buf, x.Bytes()...)
	}
	for _, x := range u {
		buf = append(buf, x.Bytes()...)
	}
	return buf
}

func transcriptPoSCChallenge(g group.Element, h, u []group.Element, commit PoSCCommitment) []byte {
	buf := transcriptPoSC(g, h, u)
	buf = append(buf, commit.HCommit.Bytes()...)
	buf = append(buf, commit.RhoCommit.Bytes()...)
	buf = append(buf, commit.Bind.ProdCommit.Bytes()...)
	for _, x := range commit.Bind.Or {
		buf = append(buf, x.Bytes()...)
	}
	return buf
}

// ByteTree implements bytetree.Encoder for PoSCCommitment.
func (c PoSCCommitment) ByteTree() bytetree.Tree {
	return bytetree.Node(bytetree.Leaf(c.HCommit.Bytes()), bytetree.Leaf(c.RhoCommit.Bytes()), c.Bind.ByteTree())
}

// ByteTree implements bytetree.Encoder for PoSCReply.
func (r PoSCReply) ByteTree() bytetree.Tree {
	children := make([]bytetree.Tree, 0, len(r.Coeffs)+2)
	for _, c := range r.Coeffs {
		children = append(children, bytetree.Leaf(c.Bytes()))
	}
	children = append(children, bytetree.Leaf(r.RhoReply.Bytes()), r.Bind.ByteTree())
	return bytetree.Node(children...)
}

// PoSCCommitmentFromTree decodes a PoSCCommitment for a known n, the
// inverse of PoSCCommitment.ByteTree.
func PoSCCommitmentFromTree(t bytetree.Tree, grp group.Group, n int) (PoSCCommitment, error) {
	if t.IsLeaf() || len(t.Children) != 3 {
		return PoSCCommitment{}, protoerr.NewInputFormatError("shuffleproof", "malformed PoSC commitment")
	}
	hc, err := grp.FromBytes(t.Children[0].Data)
	if err != nil {
		return PoSCCommitment{}, err
	}
	rc, err := grp.FromBytes(t.Children[1].Data)
	if err != nil {
		return PoSCCommitment{}, err
	}
	bind, err := permBindingCommitmentFromTree(t.Children[2], grp, n)
	if err != nil {
		return PoSCCommitment{}, err
	}
	return PoSCCommitment{HCommit: hc, RhoCommit: rc, Bind: bind}, nil
}

// PoSCReplyFromTree decodes a PoSCReply for a known n, the inverse of
// PoSCReply.ByteTree.
func PoSCReplyFromTree(t bytetree.Tree, grp group.Group, n int) (PoSCReply, error) {
	if t.IsLeaf() || len(t.Children) != n+2 {
		return PoSCReply{}, protoerr.NewInputFormatError("shuffleproof", "malformed PoSC reply")
	}
	ring := grp.Ring()
	coeffs := make([]group.RingElement, n)
	for i := 0; i < n; i++ {
		c, err := ring.FromBytes(t.Children[i].Data)
		if err != nil {
			return PoSCReply{}, err
		}
		coeffs[i] = c
	}
	rho, err := ring.FromBytes(t.Children[n].Data)
	if err != nil {
		return PoSCReply{}, err
	}
	bind, err := permBindingReplyFromTree(t.Children[n+1], grp, n)
	if err != nil {
		return PoSCReply{}, err
	}
	return PoSCReply{Coeffs: coeffs, RhoReply: rho, Bind: bind}, nil
}
