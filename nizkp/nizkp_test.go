package nizkp

import (
	"context"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight-mixnet/mixnet/bboard/local"
	"github.com/tuneinsight-mixnet/mixnet/dkg"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/group/modp"
	"github.com/tuneinsight-mixnet/mixnet/igs"
	"github.com/tuneinsight-mixnet/mixnet/mixnet"
	"github.com/tuneinsight-mixnet/mixnet/params"
	"github.com/tuneinsight-mixnet/mixnet/shuffle"
	"github.com/tuneinsight-mixnet/mixnet/vss"
)

// buildSingleMixingSession runs a real, single-party (k=1,t=1) key
// generation, fresh-path shuffle and threshold decryption, and assembles
// the resulting SessionProofs exactly as cmd/mixnetd's driver would by
// reading the shuffle session's own published board artifacts back.
func buildSingleMixingSession(t *testing.T, sid string) (params.GlobalParams, SessionProofs) {
	t.Helper()
	grp, err := modp.NewGroup(big.NewInt(167), big.NewInt(83), big.NewInt(4))
	require.NoError(t, err)
	ring := grp.Ring()

	lit := params.GlobalParamsLiteral{
		K: 1, T: 1, Group: grp,
		StatDistBits: 40, ChallengeBits: 128, BatchBits: 128,
		Sid: sid, Auxsid: "nz",
	}
	gp, err := params.NewGlobalParams(lit)
	require.NoError(t, err)
	ch, err := gp.NewChallenger()
	require.NoError(t, err)

	rk, err := vss.NewReceiverKey(grp, rand.Reader)
	require.NoError(t, err)
	pks := map[int]group.Element{1: rk.Pub}
	sks := map[int]group.RingElement{1: rk.Private}

	hx, err := ring.Random(rand.Reader)
	require.NoError(t, err)
	phi := group.PedersenGenHomomorphism{G: grp, H: grp.Generator().Exp(hx)}

	vssBoard := local.New()
	secret, err := ring.Random(rand.Reader)
	require.NoError(t, err)
	label := vss.Label{Sid: sid, Auxsid: "nz", Dealer: 1}
	dealerSess, err := vss.NewDealerSession(grp, phi, phi.H, 1, 1, 1, label, vssBoard, sks[1], pks, secret, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, dealerSess.Deal(rand.Reader))
	share, err := dealerSess.ReceiveAndVerify(context.Background())
	require.NoError(t, err)

	pub, secretShare, yShares, err := dkg.KeyGen(grp, []vss.PedersenShare{share}, 1)
	require.NoError(t, err)
	aggregate, err := vss.Collapse(grp, []vss.PedersenShare{share})
	require.NoError(t, err)

	g := grp.Generator()
	n := 2
	plaintexts := make([]group.Element, n)
	input := make([]dkg.Ciphertext, n)
	for i := range plaintexts {
		plaintexts[i] = g.Exp(ring.FromUint64(uint64(200 + i)))
		ct, err := dkg.Encrypt(pub, plaintexts[i], rand.Reader)
		require.NoError(t, err)
		input[i] = ct
	}

	shuffleBoard := local.New()
	sess := &shuffle.Session{Grp: grp, Ch: ch, G: g, Pk: pub.Y, Board: shuffleBoard, Self: 1, ActiveThreshold: 1, Threshold: 1}
	shuffleLabel := []byte(gp.Sid() + "|" + gp.Auxsid())
	output, verified, err := sess.RoundFresh(context.Background(), input, igs.HashSource{}, shuffleLabel, 40, rand.Reader)
	require.NoError(t, err)
	require.Equal(t, 1, verified)

	outBytes, ok := shuffleBoard.TryGet(1, shuffle.TagOutput)
	require.True(t, ok)
	partyCiphertexts, err := CiphertextsFromBytes(outBytes, grp)
	require.NoError(t, err)

	proofBytes, ok := shuffleBoard.TryGet(1, shuffle.TagProof)
	require.True(t, ok)
	posCommit, posReply, err := PoSProofFromBytes(proofBytes, grp, n)
	require.NoError(t, err)

	df := dkg.DecryptionFactors(secretShare, output)
	crProof, err := dkg.ProveCR(grp, ch, yShares[1], output, df, secretShare, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, dkg.VerifyCR(grp, ch, yShares[1], output, df, crProof))

	decrypted, err := dkg.ThresholdDecrypt(grp, 1, output, map[int][]group.Element{1: df}, map[int]bool{1: true})
	require.NoError(t, err)

	sp := SessionProofs{
		Version: params.Version, Auxsid: gp.Auxsid(), Type: mixnet.TypeMixing, Width: n,
		Input: input, Shuffled: output, Plaintexts: decrypted,
		PublicKey: pub, Commitments: aggregate.Commitments,
		ActiveThreshold: 1,
		Parties: map[int]PartyProof{
			1: {
				Ciphertexts: partyCiphertexts,
				PoSCommit:   &posCommit, PoSReply: &posReply,
				DecFactors: df, DFProof: &crProof,
			},
		},
		CorrectIndices: []bool{false, true},
	}
	return gp, sp
}

func TestWriteReadRoundTrip(t *testing.T) {
	gp, sp := buildSingleMixingSession(t, "wr")
	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))

	decoded, err := Read(dir, gp.Group())
	require.NoError(t, err)
	require.Equal(t, sp.Version, decoded.Version)
	require.Equal(t, sp.Auxsid, decoded.Auxsid)
	require.Equal(t, sp.Type, decoded.Type)
	require.Equal(t, sp.Width, decoded.Width)
	require.Equal(t, sp.ActiveThreshold, decoded.ActiveThreshold)
	require.Len(t, decoded.Parties, 1)
	require.True(t, decoded.PublicKey.Y.Equal(sp.PublicKey.Y))
	for i := range sp.Plaintexts {
		require.True(t, sp.Plaintexts[i].Equal(decoded.Plaintexts[i]))
	}
}

func TestVerifyEndToEndMixing(t *testing.T) {
	gp, sp := buildSingleMixingSession(t, "verify")
	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))

	err := Verify(dir.Path, gp, igs.HashSource{}, Options{Sub: SubMix, Auxsid: gp.Auxsid(), Width: sp.Width})
	require.NoError(t, err)
}

func TestVerifyRejectsWrongDeclaredType(t *testing.T) {
	gp, sp := buildSingleMixingSession(t, "wrongtype")
	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))

	err := Verify(dir.Path, gp, igs.HashSource{}, Options{Sub: SubDecrypt, Auxsid: gp.Auxsid()})
	require.Error(t, err)
}

func TestVerifyRejectsAuxsidMismatch(t *testing.T) {
	gp, sp := buildSingleMixingSession(t, "auxmismatch")
	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))

	err := Verify(dir.Path, gp, igs.HashSource{}, Options{Sub: SubMix, Auxsid: "wrong-aux"})
	require.Error(t, err)
}

func TestVerifyRejectsTamperedPlaintext(t *testing.T) {
	gp, sp := buildSingleMixingSession(t, "tamperedpt")
	tampered := append([]group.Element(nil), sp.Plaintexts...)
	tampered[0] = tampered[0].Mul(gp.Group().Generator())
	sp.Plaintexts = tampered

	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))

	err := Verify(dir.Path, gp, igs.HashSource{}, Options{Sub: SubMix, Auxsid: gp.Auxsid()})
	require.Error(t, err)
}

func TestVerifySloppyAcceptsAnyDeclaredType(t *testing.T) {
	gp, sp := buildSingleMixingSession(t, "sloppy")
	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))

	err := Verify(dir.Path, gp, igs.HashSource{}, Options{Sub: SubSloppy, Auxsid: gp.Auxsid()})
	require.NoError(t, err)
}

func TestVerifyNoDecSkipsDecryptionCheck(t *testing.T) {
	gp, sp := buildSingleMixingSession(t, "nodec")
	tampered := append([]group.Element(nil), sp.Plaintexts...)
	tampered[0] = tampered[0].Mul(gp.Group().Generator())
	sp.Plaintexts = tampered

	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))

	err := Verify(dir.Path, gp, igs.HashSource{}, Options{Sub: SubMix, Auxsid: gp.Auxsid(), NoDec: true})
	require.NoError(t, err)
}

func TestVerifyNoPoSRejectsShuffleCheck(t *testing.T) {
	gp, sp := buildSingleMixingSession(t, "nopos")
	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))

	// Disabling the only proof class this directory carries (PoS, the
	// fresh-path proof) must drop the verified count below threshold.
	err := Verify(dir.Path, gp, igs.HashSource{}, Options{Sub: SubMix, Auxsid: gp.Auxsid(), NoPoS: true})
	require.Error(t, err)
}

func TestWriteCreatesExpectedFiles(t *testing.T) {
	_, sp := buildSingleMixingSession(t, "files")
	dir := Open(t.TempDir())
	require.NoError(t, Write(dir, sp))
	require.True(t, dir.exists("version"))
	require.True(t, dir.exists("auxsid"))
	require.True(t, dir.exists("type"))
	require.True(t, dir.exists("proofs/FullPublicKey.bt"))
	require.True(t, dir.exists("proofs/PoSCommitment01.bt"))
	require.True(t, dir.exists("proofs/CorrectIndices.bt"))
}
