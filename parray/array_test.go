package parray

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

func testElements(t *testing.T, grp *modp.Group, n int) []group.Element {
	t.Helper()
	ring := grp.Ring()
	out := make([]group.Element, n)
	for i := range out {
		x, err := ring.Random(rand.Reader)
		require.NoError(t, err)
		out[i] = grp.Generator().Exp(x)
	}
	return out
}

func TestPermute(t *testing.T) {
	grp := testGroup(t)
	els := testElements(t, grp, 4)
	arr := NewElementArray(els)
	pi := Permutation{Perm: []int{2, 0, 3, 1}}
	out, err := arr.Permute(pi)
	require.NoError(t, err)
	for i := range out.Elements {
		require.True(t, out.Elements[i].Equal(els[pi.Map(i)]))
	}
}

func TestPermuteRejectsSizeMismatch(t *testing.T) {
	grp := testGroup(t)
	arr := NewElementArray(testElements(t, grp, 3))
	_, err := arr.Permute(Identity(4))
	require.Error(t, err)
}

func TestMul(t *testing.T) {
	grp := testGroup(t)
	a := NewElementArray(testElements(t, grp, 3))
	b := NewElementArray(testElements(t, grp, 3))
	out, err := a.Mul(b)
	require.NoError(t, err)
	for i := range out.Elements {
		require.True(t, out.Elements[i].Equal(a.Elements[i].Mul(b.Elements[i])))
	}
}

func TestMulRejectsSizeMismatch(t *testing.T) {
	grp := testGroup(t)
	a := NewElementArray(testElements(t, grp, 3))
	b := NewElementArray(testElements(t, grp, 2))
	_, err := a.Mul(b)
	require.Error(t, err)
}

func TestExpProd(t *testing.T) {
	grp := testGroup(t)
	ring := grp.Ring()
	els := testElements(t, grp, 5)
	arr := NewElementArray(els)
	exps := make([]group.RingElement, 5)
	for i := range exps {
		exps[i] = ring.FromUint64(uint64(i + 1))
	}
	got, err := arr.ExpProd(exps)
	require.NoError(t, err)

	want := els[0].Mul(els[0].Inv())
	for i, e := range els {
		want = want.Mul(e.Exp(exps[i]))
	}
	require.True(t, got.Equal(want))
}

func TestExpProdRejectsSizeMismatch(t *testing.T) {
	grp := testGroup(t)
	arr := NewElementArray(testElements(t, grp, 3))
	_, err := arr.ExpProd(nil)
	require.Error(t, err)
}

func TestExpProdRejectsEmpty(t *testing.T) {
	arr := NewElementArray(nil)
	_, err := arr.ExpProd(nil)
	require.Error(t, err)
}

func TestExpByVector(t *testing.T) {
	grp := testGroup(t)
	ring := grp.Ring()
	els := testElements(t, grp, 3)
	arr := NewElementArray(els)
	exps := []group.RingElement{ring.FromUint64(2), ring.FromUint64(3), ring.FromUint64(5)}
	out, err := arr.ExpByVector(exps)
	require.NoError(t, err)
	for i := range out.Elements {
		require.True(t, out.Elements[i].Equal(els[i].Exp(exps[i])))
	}
}

func TestExpByScalar(t *testing.T) {
	grp := testGroup(t)
	ring := grp.Ring()
	els := testElements(t, grp, 3)
	arr := NewElementArray(els)
	x := ring.FromUint64(7)
	out := arr.ExpByScalar(x)
	for i := range out.Elements {
		require.True(t, out.Elements[i].Equal(els[i].Exp(x)))
	}
}

func TestExtract(t *testing.T) {
	grp := testGroup(t)
	els := testElements(t, grp, 5)
	arr := NewElementArray(els)
	keep := []bool{true, false, true, false, true}
	out, err := arr.Extract(keep)
	require.NoError(t, err)
	require.Len(t, out.Elements, 3)
	require.True(t, out.Elements[0].Equal(els[0]))
	require.True(t, out.Elements[1].Equal(els[2]))
	require.True(t, out.Elements[2].Equal(els[4]))
}

func TestExtractRejectsMaskMismatch(t *testing.T) {
	grp := testGroup(t)
	arr := NewElementArray(testElements(t, grp, 3))
	_, err := arr.Extract([]bool{true, false})
	require.Error(t, err)
}

func TestCopyOfRange(t *testing.T) {
	grp := testGroup(t)
	els := testElements(t, grp, 5)
	arr := NewElementArray(els)
	out, err := arr.CopyOfRange(1, 4)
	require.NoError(t, err)
	require.Len(t, out.Elements, 3)
	for i := range out.Elements {
		require.True(t, out.Elements[i].Equal(els[i+1]))
	}
	// independent allocation: mutating the copy's backing slice must not
	// alias the original.
	out.Elements[0] = els[0]
	require.True(t, arr.Elements[1].Equal(els[1]))
}

func TestCopyOfRangeRejectsInvalidRange(t *testing.T) {
	grp := testGroup(t)
	arr := NewElementArray(testElements(t, grp, 3))
	_, err := arr.CopyOfRange(-1, 2)
	require.Error(t, err)
	_, err = arr.CopyOfRange(2, 1)
	require.Error(t, err)
	_, err = arr.CopyOfRange(0, 4)
	require.Error(t, err)
}

func TestCountSet(t *testing.T) {
	require.Equal(t, 3, CountSet([]bool{true, false, true, true, false}))
	require.Equal(t, 0, CountSet(nil))
}
