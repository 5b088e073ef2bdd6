// Package polyexp implements polynomials-in-the-exponent (spec component
// 4.C): given a homomorphism phi: R -> G and a polynomial p(X) = sum c_i X^i
// over the exponent ring R, PolyInExp(p) is the coefficient-wise image
// (phi(c_i))_i. Pedersen VSS publishes exactly this object as the dealer's
// public checking data, and distributed ElGamal key generation evaluates it
// at 0 to obtain the jointly generated public key.
package polyexp

import (
	"fmt"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/group"
)

// PolyInExp is a polynomial whose coefficients are group elements, obtained
// as the image of a ring polynomial under a fixed homomorphism. Its
// canonical form trims trailing elements equal to the group identity, so the
// degree of a PolyInExp is unambiguous given its coefficient slice.
type PolyInExp struct {
	Coeffs []group.Element
	Grp    group.Group
}

// New canonicalizes coeffs (trimming trailing identity elements, but always
// keeping at least the constant term) and returns the resulting PolyInExp.
func New(grp group.Group, coeffs []group.Element) PolyInExp {
	id := grp.Identity()
	last := len(coeffs) - 1
	for last > 0 && coeffs[last].Equal(id) {
		last--
	}
	return PolyInExp{Coeffs: append([]group.Element(nil), coeffs[:last+1]...), Grp: grp}
}

// FromRingPoly applies phi coefficient-wise to a Shamir polynomial's ring
// coefficients and canonicalizes the result.
func FromRingPoly(coeffs []group.RingElement, phi group.Homomorphism, grp group.Group) PolyInExp {
	out := make([]group.Element, len(coeffs))
	for i, c := range coeffs {
		out[i] = phi.Eval(c)
	}
	return New(grp, out)
}

// Degree returns the canonical degree of the polynomial.
func (p PolyInExp) Degree() int {
	return len(p.Coeffs) - 1
}

// Eval computes p(x) = prod_i c_i^(x^i) in G.
func (p PolyInExp) Eval(x group.RingElement) group.Element {
	ring := p.Grp.Ring()
	acc := p.Grp.Identity()
	xPow := ring.One()
	for i, c := range p.Coeffs {
		acc = acc.Mul(c.Exp(xPow))
		if i != len(p.Coeffs)-1 {
			xPow = xPow.Mul(x)
		}
	}
	return acc
}

// Mul returns the coefficient-wise group product of p and other, padded with
// identity coefficients up to the longer operand's length and then
// re-canonicalized. Since phi(a)*phi(b) = phi(a+b), this corresponds to
// adding the two underlying ring polynomials: it is exactly the operation
// used to aggregate several dealers' public polynomials-in-exponent into one
// (e.g. Pedersen-sequential's collapse, spec 4.E/4.F).
func (p PolyInExp) Mul(other PolyInExp) PolyInExp {
	n := len(p.Coeffs)
	if len(other.Coeffs) > n {
		n = len(other.Coeffs)
	}
	id := p.Grp.Identity()
	out := make([]group.Element, n)
	for i := 0; i < n; i++ {
		a, b := id, id
		if i < len(p.Coeffs) {
			a = p.Coeffs[i]
		}
		if i < len(other.Coeffs) {
			b = other.Coeffs[i]
		}
		out[i] = a.Mul(b)
	}
	return New(p.Grp, out)
}

// Factors splits a PolyInExp defined over a group.ProductGroup coefficient-
// wise into one PolyInExp per direct factor (one level, as returned by
// group.ProductGroup.Factors). It returns an error when p is not over a
// product group.
func (p PolyInExp) Factors() ([]PolyInExp, error) {
	prod, ok := asProductGroup(p.Grp)
	if !ok {
		return nil, fmt.Errorf("polyexp: Factors called on a non-product group %q", p.Grp.Name())
	}
	factors := prod.Factors()
	out := make([]PolyInExp, len(factors))
	for fi, fg := range factors {
		coeffs := make([]group.Element, len(p.Coeffs))
		for ci, c := range p.Coeffs {
			pe, ok := c.(interface{ Project(int) group.Element })
			if !ok {
				return nil, fmt.Errorf("polyexp: coefficient %d is not a product element", ci)
			}
			coeffs[ci] = pe.Project(fi)
		}
		out[fi] = New(fg, coeffs)
	}
	return out, nil
}

// productGroup is the minimal interface this package needs from
// group.ProductGroup, kept local to avoid an import cycle on the concrete
// type's unexported fields.
type productGroup interface {
	Factors() []group.Group
}

func asProductGroup(g group.Group) (productGroup, bool) {
	pg, ok := g.(productGroup)
	return pg, ok
}

// ByteTree implements bytetree.Encoder: the canonical encoding of a
// PolyInExp is an inner node of its coefficients' own byte-tree leaves, in
// ascending degree order.
func (p PolyInExp) ByteTree() bytetree.Tree {
	children := make([]bytetree.Tree, len(p.Coeffs))
	for i, c := range p.Coeffs {
		children[i] = bytetree.Leaf(c.Bytes())
	}
	return bytetree.Node(children...)
}

// FromByteTree decodes a PolyInExp previously produced by ByteTree, against
// the given group.
func FromByteTree(t bytetree.Tree, grp group.Group) (PolyInExp, error) {
	if t.IsLeaf() {
		return PolyInExp{}, fmt.Errorf("polyexp: expected inner node, got leaf")
	}
	coeffs := make([]group.Element, len(t.Children))
	for i, c := range t.Children {
		if !c.IsLeaf() {
			return PolyInExp{}, fmt.Errorf("polyexp: coefficient %d is not a leaf", i)
		}
		el, err := grp.FromBytes(c.Data)
		if err != nil {
			return PolyInExp{}, fmt.Errorf("polyexp: coefficient %d: %w", i, err)
		}
		coeffs[i] = el
	}
	return New(grp, coeffs), nil
}
