package vss

import (
	"fmt"
	"io"

	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/lagrange"
	"github.com/tuneinsight-mixnet/mixnet/polyexp"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
)

// Dealer runs the dealer side of one basic Pedersen VSS instance (spec 4.D):
// it samples the secret sharing polynomial f (constant term = secret) and an
// independent randomizing polynomial g, both of degree t-1, and publishes
// the Pedersen commitments C_i = g^f_i * h^g_i as a polyexp.PolyInExp.
type Dealer struct {
	Label       Label
	Grp         group.Group
	H           group.Element
	T           int
	f, g        []group.RingElement
	Commitments polyexp.PolyInExp
	State       State
}

// NewDealer samples f, g and computes the public commitments, moving the
// instance to SHARING_COMPUTED.
func NewDealer(grp group.Group, h group.Element, label Label, t int, secret group.RingElement, src io.Reader) (*Dealer, error) {
	if t < 1 {
		return nil, fmt.Errorf("vss: threshold must be >= 1")
	}
	ring := grp.Ring()
	f, err := shamirPoly(ring, t, secret, src)
	if err != nil {
		return nil, err
	}
	g, err := shamirPoly(ring, t, ring.Zero(), src)
	if err != nil {
		return nil, err
	}
	coeffs := make([]group.Element, t)
	for i := 0; i < t; i++ {
		coeffs[i] = grp.Generator().Exp(f[i]).Mul(h.Exp(g[i]))
	}
	return &Dealer{
		Label: label, Grp: grp, H: h, T: t,
		f: f, g: g,
		Commitments: polyexp.New(grp, coeffs),
		State:       StateSharingComputed,
	}, nil
}

// ShareFor evaluates the dealer's sharing polynomials at receiver index j.
func (d *Dealer) ShareFor(j int) (valueShare, randomShare group.RingElement) {
	ring := d.Grp.Ring()
	at := ring.FromUint64(uint64(j))
	return evalRingPoly(ring, d.f, at), evalRingPoly(ring, d.g, at)
}

// EncryptShareFor produces the labeled, DH-encrypted deal for receiver j.
func (d *Dealer) EncryptShareFor(recipientPub group.Element, j int, src io.Reader) (EncryptedShare, error) {
	vs, rs := d.ShareFor(j)
	return EncryptShare(d.Grp, recipientPub, d.Label.Bytes(), vs, rs, src)
}

// Receive decrypts and verifies the dealer's encrypted share for receiver
// index j, moving to VERIFICATION_POSSIBLE on success. A decode failure or
// failed verification should be treated by the caller as a complaint (spec
// 4.D Receive).
func Receive(grp group.Group, phi group.PedersenHomomorphism, label Label, j int, commitments polyexp.PolyInExp, enc EncryptedShare, sk group.RingElement) (PedersenShare, error) {
	vs, rs, err := DecryptShare(grp, sk, label.Bytes(), enc)
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: receive: %w", err)
	}
	share := PedersenShare{ValueShare: vs, RandomShare: rs, Commitments: commitments}
	at := grp.Ring().FromUint64(uint64(j))
	if err := share.Verify(phi, at); err != nil {
		return PedersenShare{}, fmt.Errorf("vss: receive: %w", err)
	}
	return share, nil
}

// Recover combines t valid value shares (already individually verified by
// the caller) via Lagrange interpolation at 0 to recover the dealt secret.
func Recover(ring group.Ring, shares map[int]group.RingElement, t int) (group.RingElement, error) {
	if len(shares) < t {
		return nil, protoerr.NewProtocolError("vss", fmt.Sprintf("recover needs >= %d verified shares, got %d", t, len(shares)))
	}
	points := make([]int, 0, t)
	for i := range shares {
		points = append(points, i)
		if len(points) == t {
			break
		}
	}
	coeffs, err := lagrange.CoefficientsAtZero(ring, points)
	if err != nil {
		return nil, fmt.Errorf("vss: recover: %w", err)
	}
	return lagrange.Interpolate(ring, coeffs, shares)
}
