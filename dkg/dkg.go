// Package dkg implements distributed ElGamal key generation and threshold
// decryption built on a collapsed Pedersen-sequential VSS instance (spec
// 4.F): the threshold key pair (g, y) is derived from vss.ConstantElementProduct,
// and threshold decryption combines per-party decryption factors with a
// Fiat-Shamir correct-decryption (CR) proof of equal discrete logs.
package dkg

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/lagrange"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
	"github.com/tuneinsight-mixnet/mixnet/vss"
)

// PublicKey is the jointly generated threshold ElGamal public key
// y = prod_l y_l, together with the generator g it is defined relative to.
type PublicKey struct {
	Grp group.Group
	Y   group.Element
}

// Ciphertext is an ElGamal ciphertext (u, v) = (g^r, m * y^r).
type Ciphertext struct {
	U, V group.Element
}

// KeyGen derives the joint public key from t collapsed dealer commitment
// polynomials (spec 4.F: "Builds a threshold ElGamal key (g,y) where
// y = prod_l y_l"), and returns this party's secret-key share (its share of
// the combined Pedersen-sequential secret) together with the per-party
// public key shares y_l = PolyInExp.eval(l), needed during threshold
// decryption's CR proof.
func KeyGen(grp group.Group, perDealer []vss.PedersenShare, t int) (PublicKey, group.RingElement, map[int]group.Element, error) {
	y, err := vss.ConstantElementProduct(grp, perDealer)
	if err != nil {
		return PublicKey{}, nil, nil, fmt.Errorf("dkg: keygen: %w", err)
	}
	aggregate, err := vss.Collapse(grp, perDealer)
	if err != nil {
		return PublicKey{}, nil, nil, fmt.Errorf("dkg: keygen: %w", err)
	}
	yShares := make(map[int]group.Element, t)
	for l := 1; l <= t; l++ {
		yShares[l] = aggregate.Commitments.Eval(grp.Ring().FromUint64(uint64(l)))
	}
	return PublicKey{Grp: grp, Y: y}, aggregate.ValueShare, yShares, nil
}

// Encrypt produces a fresh ElGamal encryption of m under pk, using
// randomness r drawn from src (crypto/rand.Reader if nil).
func Encrypt(pk PublicKey, m group.Element, src io.Reader) (Ciphertext, error) {
	if src == nil {
		src = rand.Reader
	}
	r, err := pk.Grp.Ring().Random(src)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("dkg: encrypt: sampling randomness: %w", err)
	}
	u := pk.Grp.Generator().Exp(r)
	v := m.Mul(pk.Y.Exp(r))
	return Ciphertext{U: u, V: v}, nil
}

// DecryptionFactors computes df_l[i] = u_i^{x_l} for this party's secret
// share x_l over the given ciphertext list (spec 4.F step 1).
func DecryptionFactors(secretShare group.RingElement, ciphertexts []Ciphertext) []group.Element {
	df := make([]group.Element, len(ciphertexts))
	for i, c := range ciphertexts {
		df[i] = c.U.Exp(secretShare)
	}
	return df
}

// CRProof is the batched Σ-proof of equal discrete logs
// log_g(y_l) = log_{u_i}(df_l[i]) for every i, reduced to one verification
// equation via the challenger's batching vector e (spec 4.F step 2).
type CRProof struct {
	Commitment group.Element // g^w, where w is the prover's random nonce
	DFCommit   group.Element // (prod_i u_i^{e_i})^w
	Reply      group.RingElement
}

// ProveCR produces the CR proof that secretShare is consistent with yl
// (= g^secretShare) and every df[i] = ciphertexts[i].U^secretShare, under the
// challenger's batching vector and integer challenge.
func ProveCR(grp group.Group, ch *challenger.Challenger, yl group.Element, ciphertexts []Ciphertext, df []group.Element, secretShare group.RingElement, src io.Reader) (CRProof, error) {
	if src == nil {
		src = rand.Reader
	}
	if len(ciphertexts) != len(df) {
		return CRProof{}, protoerr.NewProtocolError("dkg", "ciphertext/decryption-factor length mismatch")
	}
	ring := grp.Ring()
	e, err := batchVector(ch, ring, transcriptCR(yl, ciphertexts, df), len(df))
	if err != nil {
		return CRProof{}, err
	}
	uBatched := batchedU(ciphertexts, e)

	w, err := ring.Random(src)
	if err != nil {
		return CRProof{}, fmt.Errorf("dkg: prove CR: sampling nonce: %w", err)
	}
	commit := grp.Generator().Exp(w)
	dfCommit := uBatched.Exp(w)

	v := ch.IntegerChallenge(transcriptCRChallenge(yl, ciphertexts, df, commit, dfCommit))
	cChallenge := ring.FromBigInt(v)
	reply := w.Add(cChallenge.Mul(secretShare))
	return CRProof{Commitment: commit, DFCommit: dfCommit, Reply: reply}, nil
}

// VerifyCR checks a CR proof: g^reply =?= commitment * yl^v and
// uBatched^reply =?= dfCommit * dfBatched^v, where dfBatched is the
// e-weighted product of df and v is the re-derived integer challenge.
func VerifyCR(grp group.Group, ch *challenger.Challenger, yl group.Element, ciphertexts []Ciphertext, df []group.Element, proof CRProof) error {
	if len(ciphertexts) != len(df) {
		return protoerr.NewProtocolError("dkg", "ciphertext/decryption-factor length mismatch")
	}
	ring := grp.Ring()
	e, err := batchVector(ch, ring, transcriptCR(yl, ciphertexts, df), len(df))
	if err != nil {
		return err
	}
	uBatched := batchedU(ciphertexts, e)
	dfBatched := batchedElements(grp, df, e)

	v := ch.IntegerChallenge(transcriptCRChallenge(yl, ciphertexts, df, proof.Commitment, proof.DFCommit))
	cChallenge := ring.FromBigInt(v)

	lhs1 := grp.Generator().Exp(proof.Reply)
	rhs1 := proof.Commitment.Mul(yl.Exp(cChallenge))
	if !lhs1.Equal(rhs1) {
		return protoerr.NewProofRejected("dkg", 0, "CR proof fails g^reply check")
	}
	lhs2 := uBatched.Exp(proof.Reply)
	rhs2 := proof.DFCommit.Mul(dfBatched.Exp(cChallenge))
	if !lhs2.Equal(rhs2) {
		return protoerr.NewProofRejected("dkg", 0, "CR proof fails u^reply check")
	}
	return nil
}

// ThresholdDecrypt combines decryption factors from a threshold-size subset
// of parties whose CR proof verified (spec 4.F steps 3-5): correct records,
// per party, whether its proof verified (built as a map so a party's
// correctness is recorded exactly once regardless of how many times it is
// observed, resolving the spec's ambiguous double-write). If fewer than t
// parties verify, it returns a protoerr ProtocolError reporting insufficient
// honest parties.
func ThresholdDecrypt(grp group.Group, t int, ciphertexts []Ciphertext, dfByParty map[int][]group.Element, correct map[int]bool) ([]group.Element, error) {
	verified := make([]int, 0, len(correct))
	for l, ok := range correct {
		if ok {
			verified = append(verified, l)
		}
	}
	if len(verified) < t {
		return nil, protoerr.NewProtocolError("dkg", fmt.Sprintf("insufficient honest parties: need %d correct decryption factors, have %d", t, len(verified)))
	}
	subset := verified[:t]
	ring := grp.Ring()
	lambdas, err := lagrange.CoefficientsAtZero(ring, subset)
	if err != nil {
		return nil, fmt.Errorf("dkg: threshold decrypt: %w", err)
	}

	plaintexts := make([]group.Element, len(ciphertexts))
	for i, c := range ciphertexts {
		dCombined := grp.Identity()
		for _, l := range subset {
			dCombined = dCombined.Mul(dfByParty[l][i].Exp(lambdas[l]))
		}
		plaintexts[i] = c.V.Mul(dCombined.Inv())
	}
	return plaintexts, nil
}

func batchedU(ciphertexts []Ciphertext, e []group.RingElement) group.Element {
	acc := ciphertexts[0].U.Exp(e[0])
	for i := 1; i < len(ciphertexts); i++ {
		acc = acc.Mul(ciphertexts[i].U.Exp(e[i]))
	}
	return acc
}

func batchedElements(grp group.Group, xs []group.Element, e []group.RingElement) group.Element {
	acc := xs[0].Exp(e[0])
	for i := 1; i < len(xs); i++ {
		acc = acc.Mul(xs[i].Exp(e[i]))
	}
	return acc
}

func transcriptCR(yl group.Element, ciphertexts []Ciphertext, df []group.Element) []byte {
	var buf []byte
	buf = append(buf, yl.Bytes()...)
	for _, c := range ciphertexts {
		buf = append(buf, c.U.Bytes()...)
		buf = append(buf, c.V.Bytes()...)
	}
	for _, d := range df {
		buf = append(buf, d.Bytes()...)
	}
	return buf
}

func transcriptCRChallenge(yl group.Element, ciphertexts []Ciphertext, df []group.Element, commit, dfCommit group.Element) []byte {
	buf := transcriptCR(yl, ciphertexts, df)
	buf = append(buf, commit.Bytes()...)
	buf = append(buf, dfCommit.Bytes()...)
	return buf
}

func batchVector(ch *challenger.Challenger, ring group.Ring, transcript []byte, n int) ([]group.RingElement, error) {
	seed := ch.BatchingSeed(transcript, challenger.MinSeedBytes)
	return challenger.BatchVector(seed, n, ch.BatchBits(), ring)
}
