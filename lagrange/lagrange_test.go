package lagrange

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/group/modp"
)

func testRing(t *testing.T) group.Ring {
	grp, err := modp.NewGroup(big.NewInt(167), big.NewInt(83), big.NewInt(4))
	require.NoError(t, err)
	return grp.Ring()
}

// evalAt evaluates the polynomial with the given coefficients (ascending
// degree) at x, over ring.
func evalAt(ring group.Ring, coeffs []group.RingElement, x group.RingElement) group.RingElement {
	acc := ring.Zero()
	xPow := ring.One()
	for _, c := range coeffs {
		acc = acc.Add(c.Mul(xPow))
		xPow = xPow.Mul(x)
	}
	return acc
}

func TestCoefficientsAtZeroRecoversSecret(t *testing.T) {
	ring := testRing(t)
	// degree-1 polynomial f(x) = secret + 7x, recoverable from any 2 points.
	secret := ring.FromUint64(11)
	coeffs := []group.RingElement{secret, ring.FromUint64(7)}

	points := []int{1, 2}
	shares := make(map[int]group.RingElement, len(points))
	for _, i := range points {
		shares[i] = evalAt(ring, coeffs, ring.FromUint64(uint64(i)))
	}

	lambdas, err := CoefficientsAtZero(ring, points)
	require.NoError(t, err)
	recovered, err := Interpolate(ring, lambdas, shares)
	require.NoError(t, err)
	require.True(t, recovered.Equal(secret))
}

func TestCoefficientsAtArbitraryPoint(t *testing.T) {
	ring := testRing(t)
	coeffs := []group.RingElement{ring.FromUint64(3), ring.FromUint64(5)}
	points := []int{1, 3}
	shares := make(map[int]group.RingElement, len(points))
	for _, i := range points {
		shares[i] = evalAt(ring, coeffs, ring.FromUint64(uint64(i)))
	}

	at := ring.FromUint64(9)
	lambdas, err := CoefficientsAt(ring, points, at)
	require.NoError(t, err)
	recovered, err := Interpolate(ring, lambdas, shares)
	require.NoError(t, err)
	require.True(t, recovered.Equal(evalAt(ring, coeffs, at)))
}

func TestCoefficientsAtRejectsDuplicatePoints(t *testing.T) {
	ring := testRing(t)
	_, err := CoefficientsAtZero(ring, []int{1, 1})
	require.Error(t, err)
}

func TestInterpolateRejectsMissingValue(t *testing.T) {
	ring := testRing(t)
	lambdas, err := CoefficientsAtZero(ring, []int{1, 2})
	require.NoError(t, err)
	_, err = Interpolate(ring, lambdas, map[int]group.RingElement{1: ring.FromUint64(1)})
	require.Error(t, err)
}

func TestThreeOfThreeRecovery(t *testing.T) {
	ring := testRing(t)
	secret := ring.FromUint64(42)
	coeffs := []group.RingElement{secret, ring.FromUint64(2), ring.FromUint64(9)}
	points := []int{1, 2, 3}
	shares := make(map[int]group.RingElement, len(points))
	for _, i := range points {
		shares[i] = evalAt(ring, coeffs, ring.FromUint64(uint64(i)))
	}
	lambdas, err := CoefficientsAtZero(ring, points)
	require.NoError(t, err)
	recovered, err := Interpolate(ring, lambdas, shares)
	require.NoError(t, err)
	require.True(t, recovered.Equal(secret))
}
