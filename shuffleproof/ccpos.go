package shuffleproof

import (
	"io"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
)

// CCPoSCommitment is the prover's first message, extending PoSCCommitment
// with a commitment over the re-encrypted, permuted ciphertexts w' (spec
// 4.I's B relation), together with the permutation-binding sub-argument's
// commitment (package doc in common.go) that ties u to a genuine
// permutation of h rather than an arbitrary representation.
type CCPoSCommitment struct {
	HCommit   group.Element // prod_i h_i^alpha_i
	WCommit   group.Element // prod_i w'_i^alpha_i
	RhoCommit group.Element // g^alphaRho
	TauCommit group.Element // pk^{-alphaTau}
	Bind      PermBindingCommitment
}

// CCPoSReply is the prover's final message; Coeffs is shared between the A
// and B verification equations since both are driven by the same permuted
// batch vector e' (spec 4.I).
type CCPoSReply struct {
	Coeffs   []group.RingElement
	RhoReply group.RingElement
	TauReply group.RingElement
	Bind     PermBindingReply
}

// ProveCCPoS proves knowledge of (pi, r, s) linking a prior permutation
// commitment u (generators h) to a re-encryption w -> w' under public key
// pk, assuming the same pi used to build u (spec 4.I). Bind additionally
// proves u_i = g^{r_i} * h_{invPerm(i)} for a genuine bijection invPerm,
// which the A/B linear equations alone do not establish (package doc).
func ProveCCPoS(grp group.Group, ch *challenger.Challenger, g, pk group.Element, h, u, w, wPrime []group.Element, r, s []group.RingElement, invPerm []int, src io.Reader) (CCPoSCommitment, CCPoSReply, error) {
	n := len(h)
	if err := checkLengths("shuffleproof", n, len(u), len(w), len(wPrime), len(r), len(s), len(invPerm)); err != nil {
		return CCPoSCommitment{}, CCPoSReply{}, err
	}
	src = randReader(src)
	ring := grp.Ring()

	transcript := transcriptCCPoS(g, pk, h, u, w, wPrime)
	e, err := batchVector(ch, ring, transcript, n)
	if err != nil {
		return CCPoSCommitment{}, CCPoSReply{}, err
	}
	eprime := permuteChallenge(e, invPerm)
	rho := innerProduct(ring, r, e)
	tau := innerProduct(ring, s, e)

	alpha, err := sampleVector(ring, n, src)
	if err != nil {
		return CCPoSCommitment{}, CCPoSReply{}, err
	}
	alphaRho, err := ring.Random(src)
	if err != nil {
		return CCPoSCommitment{}, CCPoSReply{}, err
	}
	alphaTau, err := ring.Random(src)
	if err != nil {
		return CCPoSCommitment{}, CCPoSReply{}, err
	}
	bindCommit, bindState, err := commitPermBinding(grp, g, h, u, r, invPerm, src)
	if err != nil {
		return CCPoSCommitment{}, CCPoSReply{}, err
	}

	commit := CCPoSCommitment{
		HCommit:   productExp(grp.Identity(), h, alpha),
		WCommit:   productExp(grp.Identity(), wPrime, alpha),
		RhoCommit: g.Exp(alphaRho),
		TauCommit: pk.Exp(alphaTau.Neg()),
		Bind:      bindCommit,
	}

	v := ch.IntegerChallenge(transcriptCCPoSChallenge(transcript, commit))
	vRing := ring.FromBigInt(v)

	coeffs := make([]group.RingElement, n)
	for i := range coeffs {
		coeffs[i] = alpha[i].Add(vRing.Mul(eprime[i]))
	}
	reply := CCPoSReply{
		Coeffs:   coeffs,
		RhoReply: alphaRho.Add(vRing.Mul(rho)),
		TauReply: alphaTau.Add(vRing.Mul(tau)),
		Bind:     replyPermBinding(ring, bindState, vRing),
	}
	return commit, reply, nil
}

// VerifyCCPoS checks both collapsed linear equations (spec 4.I's A and B)
// against the shared reply vector, and the permutation-binding sub-argument
// against the same challenge. All three must hold for the proof to be
// accepted.
func VerifyCCPoS(grp group.Group, ch *challenger.Challenger, g, pk group.Element, h, u, w, wPrime []group.Element, commit CCPoSCommitment, reply CCPoSReply) error {
	n := len(h)
	if err := checkLengths("shuffleproof", n, len(u), len(w), len(wPrime), len(reply.Coeffs)); err != nil {
		return err
	}
	ring := grp.Ring()
	transcript := transcriptCCPoS(g, pk, h, u, w, wPrime)
	e, err := batchVector(ch, ring, transcript, n)
	if err != nil {
		return err
	}
	a := productExp(grp.Identity(), u, e)
	b := productExp(grp.Identity(), w, e)

	v := ch.IntegerChallenge(transcriptCCPoSChallenge(transcript, commit))
	vRing := ring.FromBigInt(v)

	lhsA := g.Exp(reply.RhoReply).Mul(productExp(grp.Identity(), h, reply.Coeffs))
	rhsA := commit.RhoCommit.Mul(commit.HCommit).Mul(a.Exp(vRing))
	if !lhsA.Equal(rhsA) {
		return protoerr.NewProofRejected("shuffleproof", 0, "CCPoS A-relation verification failed")
	}

	lhsB := pk.Exp(reply.TauReply.Neg()).Mul(productExp(grp.Identity(), wPrime, reply.Coeffs))
	rhsB := commit.TauCommit.Mul(commit.WCommit).Mul(b.Exp(vRing))
	if !lhsB.Equal(rhsB) {
		return protoerr.NewProofRejected("shuffleproof", 0, "CCPoS B-relation verification failed")
	}

	if err := verifyPermBinding(grp, g, h, u, commit.Bind, reply.Bind, vRing); err != nil {
		return err
	}
	return nil
}

func transcriptCCPoS(g, pk group.Element, h, u, w, wPrime []group.Element) []byte {
	var buf []byte
	buf = append(buf, g.Bytes()...)
	buf = append(buf, pk.Bytes()...)
	for _, x := range h {
		buf = append(buf, x.Bytes()...)
	}
	for _, x := range u {
		buf = append(buf, x.Bytes()...)
	}
	for _, x := range w {
		buf = append(buf, x.Bytes()...)
	}
	for _, x := range wPrime {
		buf = append(buf, x.Bytes()...)
	}
	return buf
}

func transcriptCCPoSChallenge(transcript []byte, commit CCPoSCommitment) []byte {
	buf := append([]byte(nil), transcript...)
	buf = append(buf, commit.HCommit.Bytes()...)
	buf = append(buf, commit.WCommit.Bytes()...)
	buf = append(buf, commit.RhoCommit.Bytes()...)
	buf = append(buf, commit.TauCommit.Bytes()...)
	buf = append(buf, commit.Bind.ProdCommit.Bytes()...)
	for _, x := range commit.Bind.Or {
		buf = append(buf, x.Bytes()...)
	}
	return buf
}

// ByteTree implements bytetree.Encoder for CCPoSCommitment.
func (c CCPoSCommitment) ByteTree() bytetree.Tree {
	return bytetree.Node(
		bytetree.Leaf(c.HCommit.Bytes()),
		bytetree.Leaf(c.WCommit.Bytes()),
		bytetree.Leaf(c.RhoCommit.Bytes()),
		bytetree.Leaf(c.TauCommit.Bytes()),
		c.Bind.ByteTree(),
	)
}

// ByteTree implements bytetree.Encoder for CCPoSReply.
func (r CCPoSReply) ByteTree() bytetree.Tree {
	children := make([]bytetree.Tree, 0, len(r.Coeffs)+3)
	for _, c := range r.Coeffs {
		children = append(children, bytetree.Leaf(c.Bytes()))
	}
	children = append(children, bytetree.Leaf(r.RhoReply.Bytes()), bytetree.Leaf(r.TauReply.Bytes()), r.Bind.ByteTree())
	return bytetree.Node(children...)
}

// CCPoSCommitmentFromTree decodes a CCPoSCommitment for a known n, the
// inverse of CCPoSCommitment.ByteTree.
func CCPoSCommitmentFromTree(t bytetree.Tree, grp group.Group, n int) (CCPoSCommitment, error) {
	if t.IsLeaf() || len(t.Children) != 5 {
		return CCPoSCommitment{}, protoerr.NewInputFormatError("shuffleproof", "malformed CCPoS commitment")
	}
	hc, err := grp.FromBytes(t.Children[0].Data)
	if err != nil {
		return CCPoSCommitment{}, err
	}
	wc, err := grp.FromBytes(t.Children[1].Data)
	if err != nil {
		return CCPoSCommitment{}, err
	}
	rc, err := grp.FromBytes(t.Children[2].Data)
	if err != nil {
		return CCPoSCommitment{}, err
	}
	tc, err := grp.FromBytes(t.Children[3].Data)
	if err != nil {
		return CCPoSCommitment{}, err
	}
	bind, err := permBindingCommitmentFromTree(t.Children[4], grp, n)
	if err != nil {
		return CCPoSCommitment{}, err
	}
	return CCPoSCommitment{HCommit: hc, WCommit: wc, RhoCommit: rc, TauCommit: tc, Bind: bind}, nil
}

// CCPoSReplyFromTree decodes a CCPoSReply for a known n, the inverse of
// CCPoSReply.ByteTree.
func CCPoSReplyFromTree(t bytetree.Tree, grp group.Group, n int) (CCPoSReply, error) {
	if t.IsLeaf() || len(t.Children) != n+3 {
		return CCPoSReply{}, protoerr.NewInputFormatError("shuffleproof", "malformed CCPoS reply")
	}
	ring := grp.Ring()
	coeffs := make([]group.RingElement, n)
	for i := 0; i < n; i++ {
		c, err := ring.FromBytes(t.Children[i].Data)
		if err != nil {
			return CCPoSReply{}, err
		}
		coeffs[i] = c
	}
	rho, err := ring.FromBytes(t.Children[n].Data)
	if err != nil {
		return CCPoSReply{}, err
	}
	tau, err := ring.FromBytes(t.Children[n+1].Data)
	if err != nil {
		return CCPoSReply{}, err
	}
	bind, err := permBindingReplyFromTree(t.Children[n+2], grp, n)
	if err != nil {
		return CCPoSReply{}, err
	}
	return CCPoSReply{Coeffs: coeffs, RhoReply: rho, TauReply: tau, Bind: bind}, nil
}
