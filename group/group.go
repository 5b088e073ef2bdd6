// Package group declares the abstract contracts for the cryptographic
// carriers the mix-net protocol engine is built over: a prime-order group G,
// its associated exponent ring R = Z/qZ, and a homomorphism phi: R -> G (or
// a two-argument Pedersen homomorphism phi(x,r) = g^x * h^r).
//
// Big-integer arithmetic and the concrete group/field implementation are
// deliberately kept out of the protocol packages (vss, dkg, permcommit,
// shuffleproof, shuffle, mixnet, ...): they depend only on the interfaces
// below. Concrete carriers live in the group/modp and group/bn254
// subpackages and are selected through the Registry.
package group

import (
	"io"
	"math/big"
)

// RingElement is an element of the exponent ring R associated with a Group.
// For a prime-order group, R is the field Z/qZ.
type RingElement interface {
	Add(other RingElement) RingElement
	Sub(other RingElement) RingElement
	Mul(other RingElement) RingElement
	Neg() RingElement
	Inv() (RingElement, error)
	Equal(other RingElement) bool
	IsZero() bool
	BigInt() *big.Int
	Bytes() []byte
	Copy() RingElement
}

// Ring is the exponent ring R = Z/qZ of a Group of order q.
type Ring interface {
	// Zero returns the additive identity 0.
	Zero() RingElement
	// One returns the multiplicative identity 1.
	One() RingElement
	// Random draws a uniform element of R, reading randomness from src.
	Random(src io.Reader) (RingElement, error)
	// FromBigInt reduces x modulo the ring's order and returns the result.
	FromBigInt(x *big.Int) RingElement
	// FromUint64 embeds a small non-negative integer into R.
	FromUint64(x uint64) RingElement
	// FromBytes decodes a canonical encoding produced by RingElement.Bytes.
	FromBytes(b []byte) (RingElement, error)
	// Order returns q, the order of the associated group.
	Order() *big.Int
	// ByteLen is the canonical encoding length of a RingElement.
	ByteLen() int
}

// Element is a member of a prime-order Group.
type Element interface {
	Equal(other Element) bool
	Mul(other Element) Element
	// Exp returns the receiver raised to the power of the ring element x.
	Exp(x RingElement) Element
	Inv() Element
	Bytes() []byte
	Copy() Element
}

// Group is a cyclic group of known prime order q with a fixed generator g.
// Elements support multiplication and exponentiation by elements of the
// associated Ring.
type Group interface {
	Identity() Element
	Generator() Element
	Ring() Ring
	FromBytes(b []byte) (Element, error)
	ByteLen() int
	// Name is a stable algorithm identifier (e.g. "modp-a7" for p = 167, "bn254-g1")
	// used by the Registry and recorded in GlobalParams.
	Name() string
}

// Homomorphism is phi: R -> G. The canonical instance is phi(x) = g^x.
type Homomorphism interface {
	Eval(x RingElement) Element
}

// PedersenHomomorphism is the two-argument phi(x, r) = g^x * h^r used by
// Pedersen VSS and permutation commitments, viewed as a homomorphism on
// R x R with h held fixed.
type PedersenHomomorphism interface {
	Homomorphism
	EvalPedersen(x, r RingElement) Element
}

// ExpHomomorphism is the default phi(x) = g^x homomorphism built from a
// Group's fixed generator.
type ExpHomomorphism struct {
	G Group
}

// Eval implements Homomorphism.
func (h ExpHomomorphism) Eval(x RingElement) Element {
	return h.G.Generator().Exp(x)
}

// PedersenGenHomomorphism is phi(x, r) = g^x * h^r for a fixed blinding
// generator h.
type PedersenGenHomomorphism struct {
	G Group
	H Element
}

// Eval implements Homomorphism by evaluating phi(x, 0).
func (h PedersenGenHomomorphism) Eval(x RingElement) Element {
	return h.G.Generator().Exp(x)
}

// EvalPedersen implements PedersenHomomorphism.
func (h PedersenGenHomomorphism) EvalPedersen(x, r RingElement) Element {
	return h.G.Generator().Exp(x).Mul(h.H.Exp(r))
}
