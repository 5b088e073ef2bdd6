// Package parray implements the two array-shaped carriers the protocol
// engine operates over: ElementArray, a finite ordered sequence of group
// elements, and Permutation, a bijection over {0,...,n-1}. Both are
// referenced abstractly by spec section 3; this package gives them the one
// concrete representation the rest of the engine programs against.
package parray

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/ALTree/bigfloat"
)

// Permutation is a bijection over {0, ..., n-1}, stored as the image array:
// Perm[i] = pi(i).
type Permutation struct {
	Perm []int
}

// Identity returns the identity permutation of size n.
func Identity(n int) Permutation {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return Permutation{Perm: p}
}

// Len returns n.
func (p Permutation) Len() int { return len(p.Perm) }

// Map returns pi(i).
func (p Permutation) Map(i int) int { return p.Perm[i] }

// Inv returns the inverse permutation pi^-1.
func (p Permutation) Inv() Permutation {
	inv := make([]int, len(p.Perm))
	for i, v := range p.Perm {
		inv[v] = i
	}
	return Permutation{Perm: inv}
}

// Shrink restricts pi to the first m preimages {0,...,m-1} and re-derives a
// permutation of {0,...,m-1} by rank: the relative order of
// pi(0),...,pi(m-1) among themselves. This is used when a pre-computed
// permutation commitment of size n must be shrunk to the real batch size
// m < n (spec 4.G).
func (p Permutation) Shrink(m int) (Permutation, error) {
	if m < 0 || m > len(p.Perm) {
		return Permutation{}, fmt.Errorf("parray: shrink size %d out of range [0,%d]", m, len(p.Perm))
	}
	images := append([]int(nil), p.Perm[:m]...)
	rank := make([]int, m)
	for i := range rank {
		rank[i] = i
	}
	// sort `rank` by the value images[rank[i]], ascending, to compute each
	// element's position in sorted order (insertion sort: m is always a
	// small batch-shrink size in practice).
	for i := 1; i < m; i++ {
		j := i
		for j > 0 && images[rank[j-1]] > images[rank[j]] {
			rank[j-1], rank[j] = rank[j], rank[j-1]
			j--
		}
	}
	out := make([]int, m)
	for pos, idx := range rank {
		out[idx] = pos
	}
	return Permutation{Perm: out}, nil
}

// StatDistBits returns the number of extra random bits per Fisher-Yates draw
// needed so that sampling a uniform index in [0, n) by reducing a
// (bits(n)+extra)-bit draw modulo n has statistical distance at most 2^-rho
// from the uniform distribution, computed at arbitrary precision via
// bigfloat since n and rho can both be large in practice.
func StatDistBits(n int, rho int) int {
	if n <= 1 {
		return rho
	}
	logN := bigfloat.Log2(new(big.Float).SetPrec(128).SetInt64(int64(n)))
	ceilLogN, _ := new(big.Float).SetPrec(128).Add(logN, big.NewFloat(0.999999999)).Int64()
	return int(ceilLogN) + rho
}

// Random samples a permutation of size n uniformly up to statistical
// distance 2^-rho, reading randomness from src (crypto/rand.Reader if nil).
// It uses Fisher-Yates with each swap index drawn via rejection-free modular
// reduction of a (bitLen(i+1) + StatDistBits(n, rho))-bit value, per spec section 3's
// Permutation contract.
func Random(n int, rho int, src io.Reader) (Permutation, error) {
	if src == nil {
		src = rand.Reader
	}
	p := Identity(n)
	extraBits := StatDistBits(n, rho)
	for i := n - 1; i > 0; i-- {
		remain := big.NewInt(int64(i + 1))
		bound := new(big.Int).Lsh(big.NewInt(1), uint(bitLen(i+1)+extraBits))
		raw, err := rand.Int(src, bound)
		if err != nil {
			return Permutation{}, fmt.Errorf("parray: sampling permutation: %w", err)
		}
		j := new(big.Int).Mod(raw, remain).Int64()
		p.Perm[i], p.Perm[j] = p.Perm[j], p.Perm[i]
	}
	return p, nil
}

func bitLen(n int) int {
	b := 0
	for n > 0 {
		b++
		n >>= 1
	}
	return b
}
