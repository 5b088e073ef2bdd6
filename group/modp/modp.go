// Package modp implements the group package's Group and Ring contracts over
// the order-q subgroup of (Z/pZ)* for a safe prime p = 2q+1. It is the
// default concrete carrier used by the protocol test vectors in spec section
// 8 (k=3, t=2, q=83) and is grounded on the Diffie-Hellman/ElGamal key
// parameter style used throughout the retrieval pack's discrete-log code
// (modulus p, generator g, order q, with big.Int exponent arithmetic).
//
// This implementation favors protocol-engine correctness over side-channel
// hardening: it is not constant-time. A hardened carrier belongs behind the
// same group.Group interface as a separate implementation; it is out of
// scope for the protocol engine itself.
package modp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

func init() {
	group.Default.Register("modp", func(params map[string]string) (group.Group, error) {
		p, ok := new(big.Int).SetString(params["p"], 16)
		if !ok {
			return nil, fmt.Errorf("modp: invalid p")
		}
		q, ok := new(big.Int).SetString(params["q"], 16)
		if !ok {
			return nil, fmt.Errorf("modp: invalid q")
		}
		g, ok := new(big.Int).SetString(params["g"], 16)
		if !ok {
			return nil, fmt.Errorf("modp: invalid g")
		}
		return NewGroup(p, q, g)
	})
}

// Group is the order-q subgroup of (Z/pZ)* generated by g, where p = 2q+1.
type Group struct {
	p, q, g *big.Int
	byteLen int
}

// NewGroup constructs a Group. It does not itself verify primality of p, q
// or that g generates the order-q subgroup: those checks belong to
// parameter-generation tooling, out of scope for this engine (spec section 1
// delegates group/element construction to an external collaborator).
func NewGroup(p, q, g *big.Int) (*Group, error) {
	if p == nil || q == nil || g == nil {
		return nil, fmt.Errorf("modp: nil parameter")
	}
	if p.Sign() <= 0 || q.Sign() <= 0 {
		return nil, fmt.Errorf("modp: non-positive modulus")
	}
	return &Group{p: new(big.Int).Set(p), q: new(big.Int).Set(q), g: new(big.Int).Set(g), byteLen: (p.BitLen() + 7) / 8}, nil
}

// Identity implements group.Group.
func (grp *Group) Identity() group.Element {
	return &Element{v: big.NewInt(1), g: grp}
}

// Generator implements group.Group.
func (grp *Group) Generator() group.Element {
	return &Element{v: new(big.Int).Set(grp.g), g: grp}
}

// Ring implements group.Group.
func (grp *Group) Ring() group.Ring {
	return &Ring{q: grp.q, byteLen: (grp.q.BitLen()+7)/8 + 1}
}

// FromBytes implements group.Group.
func (grp *Group) FromBytes(b []byte) (group.Element, error) {
	if len(b) != grp.byteLen {
		return nil, fmt.Errorf("modp: element has wrong length %d, want %d", len(b), grp.byteLen)
	}
	v := new(big.Int).SetBytes(b)
	if v.Cmp(grp.p) >= 0 {
		return nil, fmt.Errorf("modp: element not reduced mod p")
	}
	return &Element{v: v, g: grp}, nil
}

// ByteLen implements group.Group.
func (grp *Group) ByteLen() int { return grp.byteLen }

// Name implements group.Group.
func (grp *Group) Name() string {
	s := hex.EncodeToString(grp.p.Bytes())
	if len(s) > 8 {
		s = s[:8]
	}
	return "modp-" + s
}

// P, Q, Gen expose the raw parameters for interoperability with callers that
// need to construct further modp groups (e.g. the independent generator
// derivation collaborator).
func (grp *Group) P() *big.Int { return new(big.Int).Set(grp.p) }
func (grp *Group) Q() *big.Int { return new(big.Int).Set(grp.q) }
func (grp *Group) Gen() *big.Int { return new(big.Int).Set(grp.g) }

// Element is a member of the order-q subgroup, represented as its residue
// mod p in [0, p).
type Element struct {
	v *big.Int
	g *Group
}

// Equal implements group.Element.
func (e *Element) Equal(other group.Element) bool {
	o, ok := other.(*Element)
	return ok && e.v.Cmp(o.v) == 0
}

// Mul implements group.Element.
func (e *Element) Mul(other group.Element) group.Element {
	o := other.(*Element)
	v := new(big.Int).Mul(e.v, o.v)
	v.Mod(v, e.g.p)
	return &Element{v: v, g: e.g}
}

// Exp implements group.Element.
func (e *Element) Exp(x group.RingElement) group.Element {
	xr := x.(*RingElement)
	v := new(big.Int).Exp(e.v, xr.v, e.g.p)
	return &Element{v: v, g: e.g}
}

// Inv implements group.Element.
func (e *Element) Inv() group.Element {
	v := new(big.Int).ModInverse(e.v, e.g.p)
	return &Element{v: v, g: e.g}
}

// Bytes implements group.Element, encoding as a fixed-length big-endian
// residue mod p.
func (e *Element) Bytes() []byte {
	out := make([]byte, e.g.byteLen)
	b := e.v.Bytes()
	copy(out[len(out)-len(b):], b)
	return out
}

// Copy implements group.Element.
func (e *Element) Copy() group.Element {
	return &Element{v: new(big.Int).Set(e.v), g: e.g}
}

// BigInt exposes the raw residue for use by collaborators (e.g. encoding a
// message as a group element for ElGamal).
func (e *Element) BigInt() *big.Int { return new(big.Int).Set(e.v) }

// Ring is the exponent ring Z/qZ.
type Ring struct {
	q       *big.Int
	byteLen int
}

// Zero implements group.Ring.
func (r *Ring) Zero() group.RingElement { return &RingElement{v: big.NewInt(0), r: r} }

// One implements group.Ring.
func (r *Ring) One() group.RingElement { return &RingElement{v: big.NewInt(1), r: r} }

// Random implements group.Ring.
func (r *Ring) Random(src io.Reader) (group.RingElement, error) {
	if src == nil {
		src = rand.Reader
	}
	v, err := rand.Int(src, r.q)
	if err != nil {
		return nil, fmt.Errorf("modp: sampling ring element: %w", err)
	}
	return &RingElement{v: v, r: r}, nil
}

// FromBigInt implements group.Ring.
func (r *Ring) FromBigInt(x *big.Int) group.RingElement {
	v := new(big.Int).Mod(x, r.q)
	return &RingElement{v: v, r: r}
}

// FromUint64 implements group.Ring.
func (r *Ring) FromUint64(x uint64) group.RingElement {
	return r.FromBigInt(new(big.Int).SetUint64(x))
}

// FromBytes implements group.Ring.
func (r *Ring) FromBytes(b []byte) (group.RingElement, error) {
	v := new(big.Int).SetBytes(b)
	if v.Cmp(r.q) >= 0 {
		return nil, fmt.Errorf("modp: ring element not reduced mod q")
	}
	return &RingElement{v: v, r: r}, nil
}

// Order implements group.Ring.
func (r *Ring) Order() *big.Int { return new(big.Int).Set(r.q) }

// ByteLen implements group.Ring.
func (r *Ring) ByteLen() int { return r.byteLen }

// RingElement is an element of Z/qZ.
type RingElement struct {
	v *big.Int
	r *Ring
}

// Add implements group.RingElement.
func (e *RingElement) Add(other group.RingElement) group.RingElement {
	o := other.(*RingElement)
	v := new(big.Int).Add(e.v, o.v)
	v.Mod(v, e.r.q)
	return &RingElement{v: v, r: e.r}
}

// Sub implements group.RingElement.
func (e *RingElement) Sub(other group.RingElement) group.RingElement {
	o := other.(*RingElement)
	v := new(big.Int).Sub(e.v, o.v)
	v.Mod(v, e.r.q)
	return &RingElement{v: v, r: e.r}
}

// Mul implements group.RingElement.
func (e *RingElement) Mul(other group.RingElement) group.RingElement {
	o := other.(*RingElement)
	v := new(big.Int).Mul(e.v, o.v)
	v.Mod(v, e.r.q)
	return &RingElement{v: v, r: e.r}
}

// Neg implements group.RingElement.
func (e *RingElement) Neg() group.RingElement {
	v := new(big.Int).Neg(e.v)
	v.Mod(v, e.r.q)
	return &RingElement{v: v, r: e.r}
}

// Inv implements group.RingElement.
func (e *RingElement) Inv() (group.RingElement, error) {
	if e.v.Sign() == 0 {
		return nil, fmt.Errorf("modp: inverse of zero ring element")
	}
	v := new(big.Int).ModInverse(e.v, e.r.q)
	if v == nil {
		return nil, fmt.Errorf("modp: element not invertible mod q")
	}
	return &RingElement{v: v, r: e.r}, nil
}

// Equal implements group.RingElement.
func (e *RingElement) Equal(other group.RingElement) bool {
	o, ok := other.(*RingElement)
	return ok && e.v.Cmp(o.v) == 0
}

// IsZero implements group.RingElement.
func (e *RingElement) IsZero() bool { return e.v.Sign() == 0 }

// BigInt implements group.RingElement.
func (e *RingElement) BigInt() *big.Int { return new(big.Int).Set(e.v) }

// Bytes implements group.RingElement.
func (e *RingElement) Bytes() []byte {
	out := make([]byte, e.r.byteLen)
	b := e.v.Bytes()
	copy(out[len(out)-len(b):], b)
	return out
}

// Copy implements group.RingElement.
func (e *RingElement) Copy() group.RingElement {
	return &RingElement{v: new(big.Int).Set(e.v), r: e.r}
}
