// Package shuffle drives one mix-net shuffle round across activeThreshold
// parties over a bulletin board (spec 4.K): each active party either acts
// as prover (re-encrypting and permuting its input, publishing output plus
// a shuffle proof) or as verifier (checking the previous prover's output),
// with a pre-computation path that front-loads permutation commitments and
// reencryption factors before the real ciphertext batch is known.
//
// Grounded on vss/session.go's board-driven Session shape: the same party
// index, same State field, same WaitFor/Publish tag convention, applied
// here to a cascading (rather than additive) composition across parties.
package shuffle

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tuneinsight-mixnet/mixnet/bboard"
	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/dkg"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/igs"
	"github.com/tuneinsight-mixnet/mixnet/parray"
	"github.com/tuneinsight-mixnet/mixnet/permcommit"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
	"github.com/tuneinsight-mixnet/mixnet/shuffleproof"

	"github.com/tuneinsight-mixnet/mixnet/challenger"
)

// Board tags a shuffling party publishes under. Exported so a driver
// assembling a proof directory after a live session can read the same
// artifacts back off the board without re-deriving the wire format.
const (
	TagCommitment = "shuffle-commitment"
	TagOutput     = "shuffle-output"
	TagProof      = "shuffle-proof"
	TagPoSCProof  = "shuffle-posc-proof"
)

const (
	tagCommitment = TagCommitment
	tagOutput     = TagOutput
	tagProof      = TagProof
	tagPoSCProof  = TagPoSCProof
)

// Precomputed holds one party's pre-computed shuffle material, built before
// the real ciphertext batch is known (spec 4.K precomp(width, maxciph)). H
// is shared across every party in a session: since igs.Source is
// deterministic given the same label, every party derives the identical
// generator vector independently, with no need to publish it.
type Precomputed struct {
	H                []group.Element // maxciph independent generators, shared
	RaisedExponent   group.RingElement
	RaisedGenerators []group.Element // H[i]^RaisedExponent, verifier-only optimization state
	Perm             parray.Permutation
	Commitment       permcommit.Commitment
	Witness          permcommit.Witness
	ReencExponents   []group.RingElement // s, local prover only
}

// Precompute builds one party's pre-computation: maxciph independent
// generators from gen, a random permutation and its commitment, the
// verifier-side raised generators, and fresh reencryption exponents (spec
// 4.K precomp steps 1-4).
func Precompute(grp group.Group, gen igs.Source, g group.Element, label []byte, maxciph, rho int, src io.Reader) (Precomputed, error) {
	if src == nil {
		src = rand.Reader
	}
	h, err := gen.Generators(grp, label, maxciph)
	if err != nil {
		return Precomputed{}, fmt.Errorf("shuffle: precomp: deriving generators: %w", err)
	}
	ring := grp.Ring()
	raisedExponent, err := ring.Random(src)
	if err != nil {
		return Precomputed{}, fmt.Errorf("shuffle: precomp: sampling raised exponent: %w", err)
	}
	raisedGenerators := make([]group.Element, maxciph)
	for i, hi := range h {
		raisedGenerators[i] = hi.Exp(raisedExponent)
	}
	pi, err := parray.Random(maxciph, rho, src)
	if err != nil {
		return Precomputed{}, fmt.Errorf("shuffle: precomp: sampling permutation: %w", err)
	}
	commitment, witness, err := permcommit.New(grp, g, h, pi.Inv().Perm, src)
	if err != nil {
		return Precomputed{}, fmt.Errorf("shuffle: precomp: building permutation commitment: %w", err)
	}
	s := make([]group.RingElement, maxciph)
	for i := range s {
		si, err := ring.Random(src)
		if err != nil {
			return Precomputed{}, fmt.Errorf("shuffle: precomp: sampling reencryption exponent %d: %w", i, err)
		}
		s[i] = si
	}
	return Precomputed{
		H: h, RaisedExponent: raisedExponent, RaisedGenerators: raisedGenerators,
		Perm: pi, Commitment: commitment, Witness: witness, ReencExponents: s,
	}, nil
}

// Shrink restricts a Precomputed instance of width maxciph down to the n
// positions named by keepList (spec 4.K online step 1: "Shrink all
// pre-computed arrays to length n using the dealer's keepList, verifying
// well-formedness").
func (p Precomputed) Shrink(keepList []bool, n int) (Precomputed, error) {
	if !permcommit.ValidKeepList(keepList, len(p.H), n) {
		return Precomputed{}, protoerr.NewProtocolError("shuffle", "dishonest keepList: wrong length or count")
	}
	shrunkH, shrunkU, err := permcommit.Shrink(p.H, p.Commitment, keepList)
	if err != nil {
		return Precomputed{}, err
	}
	shrunkRaised, _, err := permcommit.Shrink(p.RaisedGenerators, permcommit.Commitment{U: p.RaisedGenerators}, keepList)
	if err != nil {
		return Precomputed{}, err
	}
	out := Precomputed{
		H: shrunkH, RaisedExponent: p.RaisedExponent, RaisedGenerators: shrunkRaised,
		Commitment: permcommit.Commitment{U: shrunkU},
	}
	if p.Witness.R == nil {
		return out, nil
	}
	pi, err := p.Perm.Shrink(n)
	if err != nil {
		return Precomputed{}, fmt.Errorf("shuffle: shrinking permutation: %w", err)
	}
	r := make([]group.RingElement, 0, n)
	s := make([]group.RingElement, 0, n)
	for i, keep := range keepList {
		if keep {
			r = append(r, p.Witness.R[i])
			s = append(s, p.ReencExponents[i])
		}
	}
	out.Perm = pi
	out.Witness = permcommit.Witness{InvPerm: pi.Inv().Perm, R: r}
	out.ReencExponents = s
	return out, nil
}

// Session drives one active party's role in a single shuffle round over a
// bulletin board (spec 4.K).
type Session struct {
	Grp             group.Group
	Ch              *challenger.Challenger
	G, Pk           group.Element
	Board           bboard.Board
	Self            int
	ActiveThreshold int
	Threshold       int
}

// Result is the outcome of one party's step in the sequential shuffle.
type Result struct {
	Output   []dkg.Ciphertext
	Verified bool
}

// Round runs the full sequential shuffle of spec 4.K for this party's
// process: for the local party (Self), it re-encrypts and permutes input
// and proves CCPoS against its shrunk precomputation; for every other
// active party, it waits for that party's permutation commitment, output
// and proof, and verifies them against the shared generator vector h,
// carrying the verified output forward or falling back to the previous
// output on rejection or malformed input. It returns the final output list
// and the count of parties whose proof verified.
func (s *Session) Round(ctx context.Context, input []dkg.Ciphertext, h []group.Element, local *Precomputed, src io.Reader) ([]dkg.Ciphertext, int, error) {
	if len(input) == 0 {
		return nil, 0, protoerr.NewInputFormatError("shuffle", "no valid ciphertexts")
	}
	if src == nil {
		src = rand.Reader
	}
	current := input
	verifiedCount := 0
	for l := 1; l <= s.ActiveThreshold; l++ {
		var res Result
		var err error
		if l == s.Self {
			res, err = s.prove(current, h, local, src)
		} else {
			res, err = s.verify(ctx, l, current, h)
		}
		if err != nil {
			return nil, 0, err
		}
		current = res.Output
		if res.Verified {
			verifiedCount++
		}
	}
	if verifiedCount < s.Threshold {
		return nil, verifiedCount, protoerr.NewProtocolError("shuffle", fmt.Sprintf("insufficient valid proofs: need %d, got %d", s.Threshold, verifiedCount))
	}
	return current, verifiedCount, nil
}

// RoundFresh runs the spec 4.K sequential shuffle using the monolithic PoS
// Σ-protocol (spec 4.J) instead of CCPoS: used when no pre-computation was
// performed, so no party has a previously published permutation
// commitment to assume. Each active party samples its own permutation and
// generator vector on the fly from gen/label (shared deterministically
// across parties, as in the pre-computed path) rather than reading one
// from a shrunk Precomputed instance.
func (s *Session) RoundFresh(ctx context.Context, input []dkg.Ciphertext, gen igs.Source, label []byte, rho int, src io.Reader) ([]dkg.Ciphertext, int, error) {
	if len(input) == 0 {
		return nil, 0, protoerr.NewInputFormatError("shuffle", "no valid ciphertexts")
	}
	if src == nil {
		src = rand.Reader
	}
	n := len(input)
	h, err := gen.Generators(s.Grp, label, n)
	if err != nil {
		return nil, 0, fmt.Errorf("shuffle: fresh round: deriving generators: %w", err)
	}
	current := input
	verifiedCount := 0
	for l := 1; l <= s.ActiveThreshold; l++ {
		var res Result
		if l == s.Self {
			res, err = s.proveFresh(current, h, rho, src)
		} else {
			res, err = s.verifyFresh(ctx, l, current, h)
		}
		if err != nil {
			return nil, 0, err
		}
		current = res.Output
		if res.Verified {
			verifiedCount++
		}
	}
	if verifiedCount < s.Threshold {
		return nil, verifiedCount, protoerr.NewProtocolError("shuffle", fmt.Sprintf("insufficient valid proofs: need %d, got %d", s.Threshold, verifiedCount))
	}
	return current, verifiedCount, nil
}

func (s *Session) proveFresh(input []dkg.Ciphertext, h []group.Element, rho int, src io.Reader) (Result, error) {
	n := len(input)
	ring := s.Grp.Ring()
	pi, err := parray.Random(n, rho, src)
	if err != nil {
		return Result{}, fmt.Errorf("shuffle: fresh round: sampling permutation: %w", err)
	}
	invPerm := pi.Inv().Perm
	r := make([]group.RingElement, n)
	reenc := make([]group.RingElement, n)
	for i := range r {
		ri, err := ring.Random(src)
		if err != nil {
			return Result{}, fmt.Errorf("shuffle: fresh round: sampling randomizer %d: %w", i, err)
		}
		r[i] = ri
		si, err := ring.Random(src)
		if err != nil {
			return Result{}, fmt.Errorf("shuffle: fresh round: sampling reencryption %d: %w", i, err)
		}
		reenc[i] = si
	}
	w := make([]group.Element, n)
	for i, c := range input {
		w[i] = c.U
	}
	output := make([]dkg.Ciphertext, n)
	wPrime := make([]group.Element, n)
	for i, j := range invPerm {
		output[i] = dkg.Ciphertext{
			U: input[j].U.Mul(s.G.Exp(reenc[i])),
			V: input[j].V.Mul(s.Pk.Exp(reenc[i])),
		}
		wPrime[i] = output[i].U
	}

	commit, reply, err := shuffleproof.ProvePoS(s.Grp, s.Ch, s.G, s.Pk, h, w, wPrime, r, reenc, invPerm, src)
	if err != nil {
		return Result{}, fmt.Errorf("shuffle: proving PoS: %w", err)
	}
	if err := s.Board.Publish(s.Self, tagOutput, encodeCiphertexts(output)); err != nil {
		return Result{}, fmt.Errorf("shuffle: publishing output: %w", err)
	}
	tree := bytetree.Node(commit.ByteTree(), reply.ByteTree())
	if err := s.Board.Publish(s.Self, tagProof, bytetree.Encode(tree)); err != nil {
		return Result{}, fmt.Errorf("shuffle: publishing proof: %w", err)
	}
	return Result{Output: output, Verified: true}, nil
}

func (s *Session) verifyFresh(ctx context.Context, party int, input []dkg.Ciphertext, h []group.Element) (Result, error) {
	fallback := Result{Output: input, Verified: false}

	outBytes, err := s.Board.WaitFor(ctx, party, tagOutput)
	if err != nil {
		return fallback, nil
	}
	output, err := decodeCiphertexts(outBytes, s.Grp)
	if err != nil || len(output) != len(input) {
		return fallback, nil
	}
	proofBytes, err := s.Board.WaitFor(ctx, party, tagProof)
	if err != nil {
		return fallback, nil
	}
	commit, reply, err := decodePoSProof(proofBytes, s.Grp, len(input))
	if err != nil {
		return fallback, nil
	}
	w := make([]group.Element, len(input))
	for i, c := range input {
		w[i] = c.U
	}
	wPrime := make([]group.Element, len(output))
	for i, c := range output {
		wPrime[i] = c.U
	}
	if verr := shuffleproof.VerifyPoS(s.Grp, s.Ch, s.G, s.Pk, h, w, wPrime, commit, reply); verr != nil {
		return fallback, nil
	}
	return Result{Output: output, Verified: true}, nil
}

func (s *Session) prove(input []dkg.Ciphertext, h []group.Element, local *Precomputed, src io.Reader) (Result, error) {
	if local == nil || local.Witness.R == nil {
		return Result{}, protoerr.NewProtocolError("shuffle", "local party has no precomputed witness to prove with")
	}
	n := len(input)
	w := make([]group.Element, n)
	for i, c := range input {
		w[i] = c.U
	}
	invPerm := local.Witness.InvPerm
	output := make([]dkg.Ciphertext, n)
	wPrime := make([]group.Element, n)
	for i, j := range invPerm {
		output[i] = dkg.Ciphertext{
			U: input[j].U.Mul(s.G.Exp(local.ReencExponents[i])),
			V: input[j].V.Mul(s.Pk.Exp(local.ReencExponents[i])),
		}
		wPrime[i] = output[i].U
	}

	commit, reply, err := shuffleproof.ProveCCPoS(s.Grp, s.Ch, s.G, s.Pk, h, local.Commitment.U, w, wPrime, local.Witness.R, local.ReencExponents, invPerm, src)
	if err != nil {
		return Result{}, fmt.Errorf("shuffle: proving CCPoS: %w", err)
	}
	poscCommit, poscReply, err := shuffleproof.ProvePoSC(s.Grp, s.Ch, s.G, h, local.Commitment.U, local.Witness.R, invPerm, src)
	if err != nil {
		return Result{}, fmt.Errorf("shuffle: proving PoSC: %w", err)
	}

	if err := s.Board.Publish(s.Self, tagCommitment, encodeElements(local.Commitment.U)); err != nil {
		return Result{}, fmt.Errorf("shuffle: publishing permutation commitment: %w", err)
	}
	if err := s.Board.Publish(s.Self, tagOutput, encodeCiphertexts(output)); err != nil {
		return Result{}, fmt.Errorf("shuffle: publishing output: %w", err)
	}
	tree := bytetree.Node(commit.ByteTree(), reply.ByteTree())
	if err := s.Board.Publish(s.Self, tagProof, bytetree.Encode(tree)); err != nil {
		return Result{}, fmt.Errorf("shuffle: publishing proof: %w", err)
	}
	poscTree := bytetree.Node(poscCommit.ByteTree(), poscReply.ByteTree())
	if err := s.Board.Publish(s.Self, tagPoSCProof, bytetree.Encode(poscTree)); err != nil {
		return Result{}, fmt.Errorf("shuffle: publishing PoSC proof: %w", err)
	}
	return Result{Output: output, Verified: true}, nil
}

// verify never returns a non-nil error for a malformed or missing
// contribution: per spec 4.K, that case is locally recovered by carrying
// the previous input forward and recording a failed proof, not by aborting
// the session.
func (s *Session) verify(ctx context.Context, party int, input []dkg.Ciphertext, h []group.Element) (Result, error) {
	fallback := Result{Output: input, Verified: false}

	commitBytes, err := s.Board.WaitFor(ctx, party, tagCommitment)
	if err != nil {
		return fallback, nil
	}
	u, err := decodeElements(commitBytes, s.Grp)
	if err != nil || len(u) != len(input) {
		return fallback, nil
	}

	outBytes, err := s.Board.WaitFor(ctx, party, tagOutput)
	if err != nil {
		return fallback, nil
	}
	output, err := decodeCiphertexts(outBytes, s.Grp)
	if err != nil || len(output) != len(input) {
		return fallback, nil
	}

	proofBytes, err := s.Board.WaitFor(ctx, party, tagProof)
	if err != nil {
		return fallback, nil
	}
	commit, reply, err := decodeCCPoSProof(proofBytes, s.Grp, len(input))
	if err != nil {
		return fallback, nil
	}

	poscProofBytes, err := s.Board.WaitFor(ctx, party, tagPoSCProof)
	if err != nil {
		return fallback, nil
	}
	poscCommit, poscReply, err := decodePoSCProof(poscProofBytes, s.Grp, len(input))
	if err != nil {
		return fallback, nil
	}

	w := make([]group.Element, len(input))
	for i, c := range input {
		w[i] = c.U
	}
	wPrime := make([]group.Element, len(output))
	for i, c := range output {
		wPrime[i] = c.U
	}
	if verr := shuffleproof.VerifyPoSC(s.Grp, s.Ch, s.G, h, u, poscCommit, poscReply); verr != nil {
		return fallback, nil
	}
	if verr := shuffleproof.VerifyCCPoS(s.Grp, s.Ch, s.G, s.Pk, h, u, w, wPrime, commit, reply); verr != nil {
		return fallback, nil
	}
	return Result{Output: output, Verified: true}, nil
}

func encodeElements(xs []group.Element) []byte {
	children := make([]bytetree.Tree, len(xs))
	for i, x := range xs {
		children[i] = bytetree.Leaf(x.Bytes())
	}
	return bytetree.Encode(bytetree.Node(children...))
}

func decodeElements(b []byte, grp group.Group) ([]group.Element, error) {
	tree, err := bytetree.Decode(b)
	if err != nil {
		return nil, err
	}
	out := make([]group.Element, len(tree.Children))
	for i, c := range tree.Children {
		x, err := grp.FromBytes(c.Data)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func encodeCiphertexts(cs []dkg.Ciphertext) []byte {
	children := make([]bytetree.Tree, len(cs))
	for i, c := range cs {
		children[i] = bytetree.Node(bytetree.Leaf(c.U.Bytes()), bytetree.Leaf(c.V.Bytes()))
	}
	return bytetree.Encode(bytetree.Node(children...))
}

func decodeCiphertexts(b []byte, grp group.Group) ([]dkg.Ciphertext, error) {
	tree, err := bytetree.Decode(b)
	if err != nil {
		return nil, err
	}
	out := make([]dkg.Ciphertext, len(tree.Children))
	for i, c := range tree.Children {
		if c.IsLeaf() || len(c.Children) != 2 {
			return nil, protoerr.NewInputFormatError("shuffle", "malformed ciphertext")
		}
		u, err := grp.FromBytes(c.Children[0].Data)
		if err != nil {
			return nil, err
		}
		v, err := grp.FromBytes(c.Children[1].Data)
		if err != nil {
			return nil, err
		}
		out[i] = dkg.Ciphertext{U: u, V: v}
	}
	return out, nil
}

func decodeCCPoSProof(b []byte, grp group.Group, n int) (shuffleproof.CCPoSCommitment, shuffleproof.CCPoSReply, error) {
	tree, err := bytetree.Decode(b)
	if err != nil {
		return shuffleproof.CCPoSCommitment{}, shuffleproof.CCPoSReply{}, err
	}
	if tree.IsLeaf() || len(tree.Children) != 2 {
		return shuffleproof.CCPoSCommitment{}, shuffleproof.CCPoSReply{}, protoerr.NewInputFormatError("shuffle", "malformed shuffle proof")
	}
	commit, err := shuffleproof.CCPoSCommitmentFromTree(tree.Children[0], grp, n)
	if err != nil {
		return shuffleproof.CCPoSCommitment{}, shuffleproof.CCPoSReply{}, err
	}
	reply, err := shuffleproof.CCPoSReplyFromTree(tree.Children[1], grp, n)
	if err != nil {
		return shuffleproof.CCPoSCommitment{}, shuffleproof.CCPoSReply{}, err
	}
	return commit, reply, nil
}

func decodePoSCProof(b []byte, grp group.Group, n int) (shuffleproof.PoSCCommitment, shuffleproof.PoSCReply, error) {
	tree, err := bytetree.Decode(b)
	if err != nil {
		return shuffleproof.PoSCCommitment{}, shuffleproof.PoSCReply{}, err
	}
	if tree.IsLeaf() || len(tree.Children) != 2 {
		return shuffleproof.PoSCCommitment{}, shuffleproof.PoSCReply{}, protoerr.NewInputFormatError("shuffle", "malformed PoSC proof")
	}
	commit, err := shuffleproof.PoSCCommitmentFromTree(tree.Children[0], grp, n)
	if err != nil {
		return shuffleproof.PoSCCommitment{}, shuffleproof.PoSCReply{}, err
	}
	reply, err := shuffleproof.PoSCReplyFromTree(tree.Children[1], grp, n)
	if err != nil {
		return shuffleproof.PoSCCommitment{}, shuffleproof.PoSCReply{}, err
	}
	return commit, reply, nil
}

func decodePoSProof(b []byte, grp group.Group, n int) (shuffleproof.PoSCommitment, shuffleproof.PoSReply, error) {
	tree, err := bytetree.Decode(b)
	if err != nil {
		return shuffleproof.PoSCommitment{}, shuffleproof.PoSReply{}, err
	}
	if tree.IsLeaf() || len(tree.Children) != 2 {
		return shuffleproof.PoSCommitment{}, shuffleproof.PoSReply{}, protoerr.NewInputFormatError("shuffle", "malformed PoS proof")
	}
	commit, err := shuffleproof.PoSCommitmentFromTree(tree.Children[0], grp, n)
	if err != nil {
		return shuffleproof.PoSCommitment{}, shuffleproof.PoSReply{}, err
	}
	reply, err := shuffleproof.CCPoSReplyFromTree(tree.Children[1], grp, n)
	if err != nil {
		return shuffleproof.PoSCommitment{}, shuffleproof.PoSReply{}, err
	}
	return commit, reply, nil
}
