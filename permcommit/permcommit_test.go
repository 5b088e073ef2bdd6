package permcommit

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/group/modp"
)

func testGroup(t *testing.T) *modp.Group {
	grp, err := modp.NewGroup(big.NewInt(167), big.NewInt(83), big.NewInt(4))
	require.NoError(t, err)
	return grp
}

func testGenerators(t *testing.T, grp *modp.Group, n int) []group.Element {
	t.Helper()
	ring := grp.Ring()
	h := make([]group.Element, n)
	for i := range h {
		x, err := ring.Random(rand.Reader)
		require.NoError(t, err)
		h[i] = grp.Generator().Exp(x)
	}
	return h
}

func TestNewRejectsBadPermutation(t *testing.T) {
	grp := testGroup(t)
	h := testGenerators(t, grp, 3)
	_, _, err := New(grp, grp.Generator(), h, []int{0, 0, 2}, rand.Reader)
	require.Error(t, err)
}

func TestNewRejectsLengthMismatch(t *testing.T) {
	grp := testGroup(t)
	h := testGenerators(t, grp, 3)
	_, _, err := New(grp, grp.Generator(), h, []int{0, 1}, rand.Reader)
	require.Error(t, err)
}

func TestCommitmentRecoverableFromWitness(t *testing.T) {
	grp := testGroup(t)
	g := grp.Generator()
	h := testGenerators(t, grp, 4)
	invPerm := []int{2, 0, 3, 1}

	c, w, err := New(grp, g, h, invPerm, rand.Reader)
	require.NoError(t, err)
	require.Len(t, c.U, 4)

	for i, j := range w.InvPerm {
		want := g.Exp(w.R[i]).Mul(h[j])
		require.True(t, c.U[i].Equal(want))
	}
}

func TestTrivialEqualsGeneratorVector(t *testing.T) {
	grp := testGroup(t)
	h := testGenerators(t, grp, 3)
	c := Trivial(h)
	for i := range h {
		require.True(t, c.U[i].Equal(h[i]))
	}
}

func TestShrinkKeepsMarkedPositionsInOrder(t *testing.T) {
	grp := testGroup(t)
	g := grp.Generator()
	h := testGenerators(t, grp, 5)
	invPerm := []int{4, 3, 2, 1, 0}
	c, _, err := New(grp, g, h, invPerm, rand.Reader)
	require.NoError(t, err)

	keepList := []bool{true, false, true, false, true}
	shrunkH, shrunkU, err := Shrink(h, c, keepList)
	require.NoError(t, err)
	require.Len(t, shrunkH, 3)
	require.Len(t, shrunkU, 3)
	require.True(t, shrunkH[0].Equal(h[0]))
	require.True(t, shrunkH[1].Equal(h[2]))
	require.True(t, shrunkH[2].Equal(h[4]))
	require.True(t, shrunkU[0].Equal(c.U[0]))
	require.True(t, shrunkU[1].Equal(c.U[2]))
	require.True(t, shrunkU[2].Equal(c.U[4]))
}

func TestShrinkRejectsLengthMismatch(t *testing.T) {
	grp := testGroup(t)
	h := testGenerators(t, grp, 3)
	c := Trivial(h)
	_, _, err := Shrink(h, c, []bool{true, false})
	require.Error(t, err)
}

func TestValidKeepList(t *testing.T) {
	require.True(t, ValidKeepList([]bool{true, false, true}, 3, 2))
	require.False(t, ValidKeepList([]bool{true, false}, 3, 2))
	require.False(t, ValidKeepList([]bool{true, false, true}, 3, 1))
}
