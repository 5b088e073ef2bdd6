package mixnet

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
	"github.com/tuneinsight-mixnet/mixnet/params"
)

func testGroup(t *testing.T) *modp.Group {
	grp, err := modp.NewGroup(big.NewInt(167), big.NewInt(83), big.NewInt(4))
	require.NoError(t, err)
	return grp
}

func testParams(t *testing.T, grp group.Group, sid string) params.GlobalParams {
	t.Helper()
	lit := params.GlobalParamsLiteral{
		K: 1, T: 1, Group: grp,
		StatDistBits: 40, ChallengeBits: 128, BatchBits: 128,
		Sid: sid, Auxsid: "mx",
	}
	gp, err := params.NewGlobalParams(lit)
	require.NoError(t, err)
	return gp
}

func testInput(t *testing.T, grp group.Group, n int) []dkg.Ciphertext {
	t.Helper()
	g := grp.Generator()
	ring := grp.Ring()
	out := make([]dkg.Ciphertext, n)
	for i := range out {
		x, err := ring.Random(rand.Reader)
		require.NoError(t, err)
		out[i] = dkg.Ciphertext{U: g.Exp(x), V: g.Exp(x).Mul(g)}
	}
	return out
}

func TestStateStringer(t *testing.T) {
	require.Equal(t, "INIT", StateInit.String())
	require.Equal(t, "PRECOMPUTED", StatePrecomputed.String())
	require.Equal(t, "SHUFFLED", StateShuffled.String())
	require.Equal(t, "MIXED", StateMixed.String())
	require.Equal(t, "DECRYPTED", StateDecrypted.String())
	require.Equal(t, "UNKNOWN", State(99).String())
}

func TestFreshSessionStartsAtInit(t *testing.T) {
	grp := testGroup(t)
	gp := testParams(t, grp, "init")
	s := NewSession(gp, local.New(), 1)
	require.Equal(t, StateInit, s.State())
	require.Nil(t, s.LastOutput())
}

func TestPrecompThenShuffleThenMixThenDelete(t *testing.T) {
	grp := testGroup(t)
	gp := testParams(t, grp, "full")
	board := local.New()
	s := NewSession(gp, board, 1)

	g := grp.Generator()
	ring := grp.Ring()
	x, err := ring.Random(rand.Reader)
	require.NoError(t, err)
	pk := g.Exp(x)

	require.NoError(t, s.Precomp(igs.HashSource{}, g, 4, 40, rand.Reader))
	require.Equal(t, StatePrecomputed, s.State())

	input := testInput(t, grp, 3)
	ch, err := gp.NewChallenger()
	require.NoError(t, err)
	keepList := []bool{true, true, true, false}
	manifest, err := s.Shuffle(context.Background(), ch, igs.HashSource{}, g, pk, 1, input, keepList, rand.Reader)
	require.NoError(t, err)
	require.Equal(t, StateShuffled, s.State())
	require.Equal(t, TypeShuffling, manifest.Type)
	require.Len(t, manifest.Intermediate, 3)
	require.Equal(t, manifest.Intermediate, s.LastOutput())

	plaintexts := []group.Element{g, g, g}
	decManifest, err := s.Decrypt(manifest.Intermediate, plaintexts)
	require.NoError(t, err)
	require.Equal(t, StateMixed, s.State())
	require.Equal(t, TypeMixing, decManifest.Type)

	require.NoError(t, s.Delete())
	require.Equal(t, StateInit, s.State())
	require.Nil(t, s.LastOutput())
}

func TestShuffleWithoutPrecompUsesFreshPath(t *testing.T) {
	grp := testGroup(t)
	gp := testParams(t, grp, "fresh")
	board := local.New()
	s := NewSession(gp, board, 1)

	g := grp.Generator()
	ring := grp.Ring()
	x, err := ring.Random(rand.Reader)
	require.NoError(t, err)
	pk := g.Exp(x)
	input := testInput(t, grp, 2)
	ch, err := gp.NewChallenger()
	require.NoError(t, err)

	manifest, err := s.Shuffle(context.Background(), ch, igs.HashSource{}, g, pk, 1, input, nil, rand.Reader)
	require.NoError(t, err)
	require.Equal(t, StateShuffled, s.State())
	require.Len(t, manifest.Intermediate, 2)
}

func TestShuffleRejectsEmptyBatch(t *testing.T) {
	grp := testGroup(t)
	gp := testParams(t, grp, "emptybatch")
	board := local.New()
	s := NewSession(gp, board, 1)
	g := grp.Generator()
	ring := grp.Ring()
	x, err := ring.Random(rand.Reader)
	require.NoError(t, err)
	pk := g.Exp(x)
	ch, err := gp.NewChallenger()
	require.NoError(t, err)

	_, err = s.Shuffle(context.Background(), ch, igs.HashSource{}, g, pk, 1, nil, nil, rand.Reader)
	require.Error(t, err)
	require.Equal(t, StateInit, s.State())
}

func TestPrecompRejectedOutsideInit(t *testing.T) {
	grp := testGroup(t)
	gp := testParams(t, grp, "badprecomp")
	s := NewSession(gp, local.New(), 1)
	g := grp.Generator()
	require.NoError(t, s.Precomp(igs.HashSource{}, g, 2, 40, rand.Reader))
	require.Error(t, s.Precomp(igs.HashSource{}, g, 2, 40, rand.Reader))
}

func TestDeleteRejectedFromPrecomputed(t *testing.T) {
	grp := testGroup(t)
	gp := testParams(t, grp, "baddelete")
	s := NewSession(gp, local.New(), 1)
	g := grp.Generator()
	require.NoError(t, s.Precomp(igs.HashSource{}, g, 2, 40, rand.Reader))
	require.Error(t, s.Delete())
}

func TestDecryptFromInitProducesDecryptionManifest(t *testing.T) {
	grp := testGroup(t)
	gp := testParams(t, grp, "decinit")
	s := NewSession(gp, local.New(), 1)
	input := testInput(t, grp, 2)
	plaintexts := []group.Element{grp.Generator(), grp.Generator()}
	manifest, err := s.Decrypt(input, plaintexts)
	require.NoError(t, err)
	require.Equal(t, StateDecrypted, s.State())
	require.Equal(t, TypeDecryption, manifest.Type)
}

func TestDecryptRejectedFromMixed(t *testing.T) {
	grp := testGroup(t)
	gp := testParams(t, grp, "baddecrypt")
	board := local.New()
	s := NewSession(gp, board, 1)
	g := grp.Generator()
	ring := grp.Ring()
	x, err := ring.Random(rand.Reader)
	require.NoError(t, err)
	pk := g.Exp(x)
	input := testInput(t, grp, 1)
	ch, err := gp.NewChallenger()
	require.NoError(t, err)
	_, err = s.Shuffle(context.Background(), ch, igs.HashSource{}, g, pk, 1, input, nil, rand.Reader)
	require.NoError(t, err)
	_, err = s.Decrypt(input, nil)
	require.NoError(t, err) // SHUFFLED -> MIXED is valid

	// but a second decrypt from MIXED is not.
	_, err = s.Decrypt(input, nil)
	require.Error(t, err)
}

func TestManifestByteTreeRoundTrip(t *testing.T) {
	grp := testGroup(t)
	g := grp.Generator()
	input := testInput(t, grp, 2)
	manifest := Manifest{
		Version: 1, Sid: "s", Auxsid: "a", Type: TypeMixing, Width: 2,
		Input: input, Intermediate: input, Plaintexts: []group.Element{g, g},
	}
	tree := manifest.ByteTree()
	decoded, err := ManifestFromByteTree(tree, grp)
	require.NoError(t, err)
	require.Equal(t, manifest.Version, decoded.Version)
	require.Equal(t, manifest.Sid, decoded.Sid)
	require.Equal(t, manifest.Auxsid, decoded.Auxsid)
	require.Equal(t, manifest.Type, decoded.Type)
	require.Equal(t, manifest.Width, decoded.Width)
	require.Len(t, decoded.Input, 2)
	for i := range manifest.Input {
		require.True(t, manifest.Input[i].U.Equal(decoded.Input[i].U))
		require.True(t, manifest.Input[i].V.Equal(decoded.Input[i].V))
	}
	for i := range manifest.Plaintexts {
		require.True(t, manifest.Plaintexts[i].Equal(decoded.Plaintexts[i]))
	}
}
