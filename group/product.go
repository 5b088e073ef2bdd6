package group

import "fmt"

// ProductGroup models the recursive sum type Group = Prime(p) | Product([Group])
// called for in the design notes: a direct product G_1 x ... x G_n of
// (possibly themselves composite) factor groups. Its elements are fixed
// length vectors of one element per factor.
type ProductGroup struct {
	factors []Group
}

// NewProductGroup builds the direct product of the given factors, in order.
func NewProductGroup(factors ...Group) *ProductGroup {
	fs := make([]Group, len(factors))
	copy(fs, factors)
	return &ProductGroup{factors: fs}
}

// Factors returns a copy of the direct factors of the product group, in
// order (nil for a nil receiver). Factors that are themselves product groups
// are returned as they are, not flattened.
func (p *ProductGroup) Factors() []Group {
	if p == nil {
		return nil
	}
	out := make([]Group, len(p.factors))
	copy(out, p.factors)
	return out
}

// ProductElement is an element of a ProductGroup: one Element per factor.
type ProductElement struct {
	Components []Element
}

// Project returns the i-th component of a product element.
func (e ProductElement) Project(i int) Element {
	return e.Components[i]
}

// Identity implements Group.
func (p *ProductGroup) Identity() Element {
	comps := make([]Element, len(p.factors))
	for i, f := range p.factors {
		comps[i] = f.Identity()
	}
	return ProductElement{Components: comps}
}

// Generator implements Group.
func (p *ProductGroup) Generator() Element {
	comps := make([]Element, len(p.factors))
	for i, f := range p.factors {
		comps[i] = f.Generator()
	}
	return ProductElement{Components: comps}
}

// Ring implements Group. It panics if the factor rings are not pairwise
// identical, since the product construction used by this engine always
// shares a single ring of scalars across factors (one Shamir/Pedersen
// exponent space for the whole product).
func (p *ProductGroup) Ring() Ring {
	if len(p.factors) == 0 {
		return nil
	}
	r := p.factors[0].Ring()
	for _, f := range p.factors[1:] {
		if f.Ring().Order().Cmp(r.Order()) != 0 {
			panic("group: product group factors have mismatched ring order")
		}
	}
	return r
}

// FromBytes implements Group by decoding a plain concatenation of
// per-factor encodings, each exactly that factor's ByteLen() bytes long.
func (p *ProductGroup) FromBytes(b []byte) (Element, error) {
	comps := make([]Element, len(p.factors))
	off := 0
	for i, f := range p.factors {
		n := f.ByteLen()
		if off+n > len(b) {
			return nil, fmt.Errorf("group: product element truncated at factor %d", i)
		}
		el, err := f.FromBytes(b[off : off+n])
		if err != nil {
			return nil, fmt.Errorf("group: product element factor %d: %w", i, err)
		}
		comps[i] = el
		off += n
	}
	return ProductElement{Components: comps}, nil
}

// ByteLen implements Group.
func (p *ProductGroup) ByteLen() int {
	n := 0
	for _, f := range p.factors {
		n += f.ByteLen()
	}
	return n
}

// Name implements Group.
func (p *ProductGroup) Name() string {
	return "product"
}

// Equal reports whether two product elements are componentwise equal.
func (e ProductElement) Equal(other Element) bool {
	o, ok := other.(ProductElement)
	if !ok || len(o.Components) != len(e.Components) {
		return false
	}
	for i := range e.Components {
		if !e.Components[i].Equal(o.Components[i]) {
			return false
		}
	}
	return true
}

// Mul multiplies two product elements componentwise.
func (e ProductElement) Mul(other Element) Element {
	o := other.(ProductElement)
	comps := make([]Element, len(e.Components))
	for i := range e.Components {
		comps[i] = e.Components[i].Mul(o.Components[i])
	}
	return ProductElement{Components: comps}
}

// Exp raises every component to the same ring exponent x.
func (e ProductElement) Exp(x RingElement) Element {
	comps := make([]Element, len(e.Components))
	for i := range e.Components {
		comps[i] = e.Components[i].Exp(x)
	}
	return ProductElement{Components: comps}
}

// Inv inverts every component.
func (e ProductElement) Inv() Element {
	comps := make([]Element, len(e.Components))
	for i := range e.Components {
		comps[i] = e.Components[i].Inv()
	}
	return ProductElement{Components: comps}
}

// Bytes concatenates the canonical encodings of every component.
func (e ProductElement) Bytes() []byte {
	var out []byte
	for _, c := range e.Components {
		out = append(out, c.Bytes()...)
	}
	return out
}

// Copy deep-copies every component.
func (e ProductElement) Copy() Element {
	comps := make([]Element, len(e.Components))
	for i, c := range e.Components {
		comps[i] = c.Copy()
	}
	return ProductElement{Components: comps}
}
