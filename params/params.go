// Package params defines GlobalParams (spec section 3): the immutable,
// session-wide configuration every other package is built against. It is
// constructed once, before any protocol step, from a plain-data
// GlobalParamsLiteral via a validating constructor — exactly the
// ParametersLiteral -> Parameters pattern the teacher codebase uses for its
// own rlwe.Parameters.
package params

import (
	"fmt"
	"regexp"

	"github.com/google/go-cmp/cmp"

	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/group"
)

// Version is the ASCII package version recorded in every proof directory
// and mixed into the Fiat-Shamir prefix.
const Version = "1.0"

// Concrete PRG and hash descriptors this module ships: ChaCha20 (seeded via
// HKDF-SHA256 over a challenger-derived seed) and BLAKE3.
const (
	PRGChaCha20 = "chacha20"
	HashBLAKE3  = "blake3"
)

var sidPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// GlobalParamsLiteral is the plain-data configuration a deployment supplies;
// NewGlobalParams validates it and freezes it into a GlobalParams.
type GlobalParamsLiteral struct {
	K, T           int
	Group          group.Group
	StatDistBits   int // rho
	ChallengeBits  int // n_v
	BatchBits      int // n_e
	PRGDescriptor  string
	HashDescriptor string
	Sid, Auxsid    string
}

// GlobalParams is the immutable, validated session configuration shared by
// every protocol package. It is safely copyable by value and never mutated
// after construction.
type GlobalParams struct {
	k, t           int
	grp            group.Group
	phi            group.Homomorphism
	statDistBits   int
	challengeBits  int
	batchBits      int
	prgDescriptor  string
	hashDescriptor string
	sid, auxsid    string
}

// NewGlobalParams validates lit and constructs the frozen GlobalParams,
// using phi(x) = g^x as the default homomorphism (Pedersen VSS supplies its
// own two-argument homomorphism separately, see package vss).
func NewGlobalParams(lit GlobalParamsLiteral) (GlobalParams, error) {
	if lit.T < 1 || lit.T > lit.K {
		return GlobalParams{}, fmt.Errorf("params: threshold t=%d must satisfy 1<=t<=k=%d", lit.T, lit.K)
	}
	if lit.StatDistBits <= 0 {
		return GlobalParams{}, fmt.Errorf("params: rho must be positive")
	}
	if lit.ChallengeBits <= 0 {
		return GlobalParams{}, fmt.Errorf("params: n_v must be positive")
	}
	if lit.BatchBits <= 0 {
		return GlobalParams{}, fmt.Errorf("params: n_e must be positive")
	}
	if !sidPattern.MatchString(lit.Sid) {
		return GlobalParams{}, fmt.Errorf("params: sid %q must match [A-Za-z0-9]+", lit.Sid)
	}
	if !sidPattern.MatchString(lit.Auxsid) {
		return GlobalParams{}, fmt.Errorf("params: auxsid %q must match [A-Za-z0-9]+", lit.Auxsid)
	}
	if lit.Group == nil {
		return GlobalParams{}, fmt.Errorf("params: group must not be nil")
	}
	prg := lit.PRGDescriptor
	if prg == "" {
		prg = PRGChaCha20
	}
	h := lit.HashDescriptor
	if h == "" {
		h = HashBLAKE3
	}
	return GlobalParams{
		k: lit.K, t: lit.T,
		grp:            lit.Group,
		phi:            group.ExpHomomorphism{G: lit.Group},
		statDistBits:   lit.StatDistBits,
		challengeBits:  lit.ChallengeBits,
		batchBits:      lit.BatchBits,
		prgDescriptor:  prg,
		hashDescriptor: h,
		sid:            lit.Sid,
		auxsid:         lit.Auxsid,
	}, nil
}

func (p GlobalParams) K() int                        { return p.k }
func (p GlobalParams) T() int                         { return p.t }
func (p GlobalParams) Group() group.Group             { return p.grp }
func (p GlobalParams) Phi() group.Homomorphism        { return p.phi }
func (p GlobalParams) StatDistBits() int              { return p.statDistBits }
func (p GlobalParams) ChallengeBits() int             { return p.challengeBits }
func (p GlobalParams) BatchBits() int                 { return p.batchBits }
func (p GlobalParams) PRGDescriptor() string          { return p.prgDescriptor }
func (p GlobalParams) HashDescriptor() string         { return p.hashDescriptor }
func (p GlobalParams) Sid() string                    { return p.sid }
func (p GlobalParams) Auxsid() string                 { return p.auxsid }

// descriptor is the exported, comparable projection of GlobalParams used by
// Equal. The group itself is compared separately via its order, since
// group.Group implementations are not required to be comparable values.
type descriptor struct {
	K, T                        int
	StatDistBits, ChallengeBits int
	BatchBits                   int
	PRGDescriptor, HashDescriptor string
	Sid, Auxsid                 string
	GroupOrderHex               string
}

func (p GlobalParams) descriptor() descriptor {
	return descriptor{
		K: p.k, T: p.t,
		StatDistBits: p.statDistBits, ChallengeBits: p.challengeBits, BatchBits: p.batchBits,
		PRGDescriptor: p.prgDescriptor, HashDescriptor: p.hashDescriptor,
		Sid: p.sid, Auxsid: p.auxsid,
		GroupOrderHex: p.grp.Ring().Order().Text(16),
	}
}

// Equal reports whether p and other describe the same session: every
// protocol-relevant scalar and the group order agree. Parties exchange a
// Manifest (spec section 7) before trusting it; this is how a receiver
// checks the sender ran under the same GlobalParams it did, following the
// teacher's cmp.Equal-based Equals pattern on its own Parameters type.
func (p GlobalParams) Equal(other GlobalParams) bool {
	return cmp.Equal(p.descriptor(), other.descriptor())
}

// NewChallenger builds the session's Fiat-Shamir Challenger from this
// GlobalParams, per spec section 6's "byte-tree challenger global prefix".
func (p GlobalParams) NewChallenger() (*challenger.Challenger, error) {
	return challenger.New(challenger.PrefixParams{
		Version:        Version,
		Sid:            p.sid,
		Auxsid:         p.auxsid,
		StatDistBits:   p.statDistBits,
		ChallengeBits:  p.challengeBits,
		BatchBits:      p.batchBits,
		PRGDescriptor:  p.prgDescriptor,
		GroupOrderHex:  p.grp.Ring().Order().Text(16),
		HashDescriptor: p.hashDescriptor,
	})
}
