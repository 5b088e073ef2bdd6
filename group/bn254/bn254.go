// Package bn254 implements the group package's Group and Ring contracts
// over the G1 subgroup of the BN254 pairing-friendly curve, using
// github.com/consensys/gnark-crypto. It is a production-grade alternative
// carrier to group/modp, wired in because the retrieval pack's gnark-based
// repositories (nume-crypto-gnark, vocdoni-davinci-node) build their
// Pedersen/ElGamal-style commitments on exactly this curve and field.
//
// Only the group structure is used here (scalar multiplication and point
// addition in G1); none of gnark's pairing or circuit machinery is needed by
// this mix-net engine.
package bn254

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

func init() {
	group.Default.Register("bn254-g1", func(map[string]string) (group.Group, error) {
		return NewGroup(), nil
	})
}

// Group is the BN254 G1 group of prime order r (fr.Modulus()).
type Group struct {
	gen     bn254.G1Affine
	byteLen int
}

// NewGroup returns the BN254 G1 group with its standard generator.
func NewGroup() *Group {
	_, _, g1, _ := bn254.Generators()
	return &Group{gen: g1, byteLen: 32}
}

// Identity implements group.Group.
func (grp *Group) Identity() group.Element {
	var p bn254.G1Affine
	p.X.SetZero()
	p.Y.SetZero()
	return &Element{p: p}
}

// Generator implements group.Group.
func (grp *Group) Generator() group.Element {
	return &Element{p: grp.gen}
}

// Ring implements group.Group.
func (grp *Group) Ring() group.Ring {
	return &Ring{}
}

// FromBytes implements group.Group, decoding a compressed G1 point.
func (grp *Group) FromBytes(b []byte) (group.Element, error) {
	if len(b) != grp.byteLen {
		return nil, fmt.Errorf("bn254: compressed point has wrong length %d", len(b))
	}
	var p bn254.G1Affine
	var buf [32]byte
	copy(buf[:], b)
	if _, err := p.SetBytes(buf[:]); err != nil {
		return nil, fmt.Errorf("bn254: decoding point: %w", err)
	}
	return &Element{p: p}, nil
}

// ByteLen implements group.Group.
func (grp *Group) ByteLen() int { return grp.byteLen }

// Name implements group.Group.
func (grp *Group) Name() string { return "bn254-g1" }

// Element is a BN254 G1 affine point.
type Element struct {
	p bn254.G1Affine
}

// Equal implements group.Element.
func (e *Element) Equal(other group.Element) bool {
	o, ok := other.(*Element)
	return ok && e.p.Equal(&o.p)
}

// Mul implements group.Element as point addition (the group operation).
func (e *Element) Mul(other group.Element) group.Element {
	o := other.(*Element)
	var jac, oj, res bn254.G1Jac
	jac.FromAffine(&e.p)
	oj.FromAffine(&o.p)
	res.Set(&jac).AddAssign(&oj)
	var out bn254.G1Affine
	out.FromJacobian(&res)
	return &Element{p: out}
}

// Exp implements group.Element as scalar multiplication.
func (e *Element) Exp(x group.RingElement) group.Element {
	xr := x.(*RingElement)
	var out bn254.G1Affine
	out.ScalarMultiplication(&e.p, xr.v.BigInt(new(big.Int)))
	return &Element{p: out}
}

// Inv implements group.Element as point negation.
func (e *Element) Inv() group.Element {
	var out bn254.G1Affine
	out.Neg(&e.p)
	return &Element{p: out}
}

// Bytes implements group.Element using compressed point encoding.
func (e *Element) Bytes() []byte {
	b := e.p.Bytes()
	return b[:]
}

// Copy implements group.Element.
func (e *Element) Copy() group.Element {
	return &Element{p: e.p}
}

// Ring is the scalar field Fr of BN254.
type Ring struct{}

// Zero implements group.Ring.
func (r *Ring) Zero() group.RingElement {
	var v fr.Element
	v.SetZero()
	return &RingElement{v: v}
}

// One implements group.Ring.
func (r *Ring) One() group.RingElement {
	var v fr.Element
	v.SetOne()
	return &RingElement{v: v}
}

// Random implements group.Ring.
func (r *Ring) Random(src io.Reader) (group.RingElement, error) {
	if src == nil {
		src = rand.Reader
	}
	x, err := rand.Int(src, fr.Modulus())
	if err != nil {
		return nil, fmt.Errorf("bn254: sampling scalar: %w", err)
	}
	var v fr.Element
	v.SetBigInt(x)
	return &RingElement{v: v}, nil
}

// FromBigInt implements group.Ring.
func (r *Ring) FromBigInt(x *big.Int) group.RingElement {
	var v fr.Element
	v.SetBigInt(x)
	return &RingElement{v: v}
}

// FromUint64 implements group.Ring.
func (r *Ring) FromUint64(x uint64) group.RingElement {
	var v fr.Element
	v.SetUint64(x)
	return &RingElement{v: v}
}

// FromBytes implements group.Ring.
func (r *Ring) FromBytes(b []byte) (group.RingElement, error) {
	var v fr.Element
	v.SetBytes(b)
	return &RingElement{v: v}, nil
}

// Order implements group.Ring.
func (r *Ring) Order() *big.Int {
	m := fr.Modulus()
	return new(big.Int).Set(m)
}

// ByteLen implements group.Ring.
func (r *Ring) ByteLen() int { return fr.Bytes }

// RingElement is a BN254 scalar field element.
type RingElement struct {
	v fr.Element
}

// Add implements group.RingElement.
func (e *RingElement) Add(other group.RingElement) group.RingElement {
	o := other.(*RingElement)
	var out fr.Element
	out.Add(&e.v, &o.v)
	return &RingElement{v: out}
}

// Sub implements group.RingElement.
func (e *RingElement) Sub(other group.RingElement) group.RingElement {
	o := other.(*RingElement)
	var out fr.Element
	out.Sub(&e.v, &o.v)
	return &RingElement{v: out}
}

// Mul implements group.RingElement.
func (e *RingElement) Mul(other group.RingElement) group.RingElement {
	o := other.(*RingElement)
	var out fr.Element
	out.Mul(&e.v, &o.v)
	return &RingElement{v: out}
}

// Neg implements group.RingElement.
func (e *RingElement) Neg() group.RingElement {
	var out fr.Element
	out.Neg(&e.v)
	return &RingElement{v: out}
}

// Inv implements group.RingElement.
func (e *RingElement) Inv() (group.RingElement, error) {
	if e.v.IsZero() {
		return nil, fmt.Errorf("bn254: inverse of zero scalar")
	}
	var out fr.Element
	out.Inverse(&e.v)
	return &RingElement{v: out}, nil
}

// Equal implements group.RingElement.
func (e *RingElement) Equal(other group.RingElement) bool {
	o, ok := other.(*RingElement)
	return ok && e.v.Equal(&o.v)
}

// IsZero implements group.RingElement.
func (e *RingElement) IsZero() bool { return e.v.IsZero() }

// BigInt implements group.RingElement.
func (e *RingElement) BigInt() *big.Int {
	return e.v.BigInt(new(big.Int))
}

// Bytes implements group.RingElement.
func (e *RingElement) Bytes() []byte {
	b := e.v.Bytes()
	return b[:]
}

// Copy implements group.RingElement.
func (e *RingElement) Copy() group.RingElement {
	return &RingElement{v: e.v}
}
