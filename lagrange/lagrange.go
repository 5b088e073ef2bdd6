// Package lagrange computes Lagrange interpolation coefficients over a
// group.Ring, shared by Pedersen VSS secret recovery (spec 4.D) and
// distributed ElGamal threshold decryption (spec 4.F), both of which
// combine t-out-of-k shares evaluated at party indices into a value at a
// fixed evaluation point (0, both for secret recovery and for combining
// decryption factors).
package lagrange

import (
	"fmt"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

// CoefficientsAt returns, for each index in points, the Lagrange basis
// coefficient lambda_i such that sum_i lambda_i * f(points[i]) = f(at) for
// any polynomial f of degree < len(points), evaluated over ring.
func CoefficientsAt(ring group.Ring, points []int, at group.RingElement) (map[int]group.RingElement, error) {
	coeffs := make(map[int]group.RingElement, len(points))
	for a, i := range points {
		xi := ring.FromUint64(uint64(i))
		num := ring.One()
		den := ring.One()
		for b, j := range points {
			if b == a {
				continue
			}
			xj := ring.FromUint64(uint64(j))
			num = num.Mul(at.Sub(xj))
			den = den.Mul(xi.Sub(xj))
		}
		denInv, err := den.Inv()
		if err != nil {
			return nil, fmt.Errorf("lagrange: duplicate interpolation point %d: %w", i, err)
		}
		coeffs[i] = num.Mul(denInv)
	}
	return coeffs, nil
}

// CoefficientsAtZero is CoefficientsAt specialized to at = 0, the case used
// by secret recovery.
func CoefficientsAtZero(ring group.Ring, points []int) (map[int]group.RingElement, error) {
	return CoefficientsAt(ring, points, ring.Zero())
}

// Interpolate combines per-index ring values using the given coefficients:
// sum_i coeffs[i] * values[i].
func Interpolate(ring group.Ring, coeffs map[int]group.RingElement, values map[int]group.RingElement) (group.RingElement, error) {
	acc := ring.Zero()
	for i, c := range coeffs {
		v, ok := values[i]
		if !ok {
			return nil, fmt.Errorf("lagrange: missing value for index %d", i)
		}
		acc = acc.Add(c.Mul(v))
	}
	return acc, nil
}
