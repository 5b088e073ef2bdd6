package modp

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

// demo parameters matching the protocol's test vector group: p = 2q+1,
// q = 83, g of order 83.
func testGroup(t *testing.T) *Group {
	p := big.NewInt(167)
	q := big.NewInt(83)
	g := big.NewInt(4)
	grp, err := NewGroup(p, q, g)
	require.NoError(t, err)
	return grp
}

func TestGeneratorHasOrderQ(t *testing.T) {
	grp := testGroup(t)
	gen := grp.Generator()
	acc := grp.Identity()
	for i := 0; i < 82; i++ {
		acc = acc.Mul(gen)
		require.Falsef(t, acc.Equal(grp.Identity()), "generator has order dividing %d", i+1)
	}
	acc = acc.Mul(gen)
	require.True(t, acc.Equal(grp.Identity()), "generator should have order exactly q")
}

func TestExpAndMul(t *testing.T) {
	grp := testGroup(t)
	ring := grp.Ring()
	gen := grp.Generator()

	x := ring.FromUint64(5)
	y := ring.FromUint64(7)
	xy := x.Add(y)

	lhs := gen.Exp(xy)
	rhs := gen.Exp(x).Mul(gen.Exp(y))
	require.True(t, lhs.Equal(rhs))
}

func TestInv(t *testing.T) {
	grp := testGroup(t)
	gen := grp.Generator()
	inv := gen.Inv()
	require.True(t, gen.Mul(inv).Equal(grp.Identity()))
}

func TestElementBytesRoundTrip(t *testing.T) {
	grp := testGroup(t)
	gen := grp.Generator()
	b := gen.Bytes()
	require.Len(t, b, grp.ByteLen())

	back, err := grp.FromBytes(b)
	require.NoError(t, err)
	require.True(t, gen.Equal(back))
}

func TestFromBytesRejectsUnreduced(t *testing.T) {
	grp := testGroup(t)
	oversized := make([]byte, grp.ByteLen())
	oversized[0] = 0xff
	_, err := grp.FromBytes(oversized)
	require.Error(t, err)
}

func TestRingArithmetic(t *testing.T) {
	grp := testGroup(t)
	ring := grp.Ring()

	a := ring.FromUint64(10)
	b := ring.FromUint64(90) // 10 + 90 = 100 = 17 mod 83
	sum := a.Add(b)
	require.True(t, sum.Equal(ring.FromUint64(17)))

	neg := a.Neg()
	require.True(t, a.Add(neg).IsZero())

	inv, err := a.Inv()
	require.NoError(t, err)
	one := a.Mul(inv)
	require.True(t, one.Equal(ring.One()))
}

func TestRingZeroHasNoInverse(t *testing.T) {
	grp := testGroup(t)
	_, err := grp.Ring().Zero().Inv()
	require.Error(t, err)
}

func TestRingRandomIsReduced(t *testing.T) {
	grp := testGroup(t)
	ring := grp.Ring()
	for i := 0; i < 20; i++ {
		r, err := ring.Random(rand.Reader)
		require.NoError(t, err)
		require.True(t, r.BigInt().Cmp(ring.Order()) < 0)
		require.True(t, r.BigInt().Sign() >= 0)
	}
}

func TestGroupRegistryConstructsSameGroup(t *testing.T) {
	grp, err := group.Default.Build(group.Descriptor{
		Algorithm: "modp",
		Params: map[string]string{
			"p": "a7",
			"q": "53",
			"g": "4",
		},
	})
	require.NoError(t, err)
	require.True(t, grp.Generator().Equal(testGroup(t).Generator()))
}

func TestNewGroupRejectsNilParameter(t *testing.T) {
	_, err := NewGroup(nil, big.NewInt(83), big.NewInt(4))
	require.Error(t, err)
}
