// Package challenger implements the Fiat-Shamir random oracle (spec
// component 4.B): given a hash descriptor H and a fixed per-session prefix
// derived from the session's GlobalParams, it exposes Challenge, which turns
// a transcript of byte-tree-encoded public values into either a PRG batching
// seed or an integer challenge. Every challenge in every Sigma-protocol in
// this module (PoSC, CCPoS, PoS, the correct-decryption proof) is produced
// through this type, so that two verifiers fed bit-identical proof
// directories derive bit-identical challenges (spec testable property 6).
package challenger

import (
	"fmt"
	"math/big"

	"github.com/zeebo/blake3"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
)

// PrefixParams are the public, session-wide values hashed once to produce
// the fixed prefix mixed into every subsequent challenge. They correspond
// exactly to the fields spec section 6 lists for the "byte-tree challenger
// global prefix": version, sid.auxsid, rho, n_v, n_e, PRG, G_q, H.
type PrefixParams struct {
	Version        string
	Sid, Auxsid    string
	StatDistBits   int // rho, expressed as a statistical-distance bit bound
	ChallengeBits  int // n_v
	BatchBits      int // n_e
	PRGDescriptor  string
	GroupOrderHex  string // G_q: the group order, hex-encoded
	HashDescriptor string // H
}

// Challenger is a stateless (beyond its fixed prefix) random oracle scoped to
// one mix-net session.
type Challenger struct {
	prefix []byte
	nv     int
	ne     int
}

// New derives the session-wide prefix from p and returns a Challenger ready
// to answer Challenge calls.
func New(p PrefixParams) (*Challenger, error) {
	if p.ChallengeBits <= 0 || p.BatchBits <= 0 {
		return nil, fmt.Errorf("challenger: n_v and n_e must be positive")
	}
	prefixTree := bytetree.Node(
		bytetree.LeafString(p.Version),
		bytetree.LeafString(p.Sid+"."+p.Auxsid),
		bytetree.LeafInt(p.StatDistBits),
		bytetree.LeafInt(p.ChallengeBits),
		bytetree.LeafInt(p.BatchBits),
		bytetree.LeafString(p.PRGDescriptor),
		bytetree.LeafString(p.GroupOrderHex),
		bytetree.LeafString(p.HashDescriptor),
	)
	h := blake3.Sum256(bytetree.Encode(prefixTree))
	return &Challenger{prefix: h[:], nv: p.ChallengeBits, ne: p.BatchBits}, nil
}

// digest computes H(prefix || transcriptBytes) and returns outBits worth of
// pseudorandom output (rounded up to bytes), via blake3's XOF mode.
func (c *Challenger) digest(transcriptBytes []byte, outBits int) []byte {
	outLen := (outBits + 7) / 8
	hasher := blake3.New()
	hasher.Write(c.prefix)
	hasher.Write(transcriptBytes)
	out := make([]byte, outLen)
	_, _ = hasher.Digest().Read(out)
	maskTopBits(out, outBits)
	return out
}

// maskTopBits zeroes the bits of b beyond the low outBits bits, so that b
// interpreted big-endian lies in [0, 2^outBits).
func maskTopBits(b []byte, outBits int) {
	fullBytes := outBits / 8
	rem := outBits % 8
	if rem == 0 {
		return
	}
	// b is big-endian; the bits to mask are the top (8-rem) bits of byte
	// len(b)-fullBytes-1, the highest byte that still holds output bits.
	idx := len(b) - fullBytes - 1
	if idx < 0 {
		return
	}
	mask := byte(1<<rem) - 1
	b[idx] &= mask
}

// IntegerChallenge returns a nonnegative integer challenge v in
// [0, 2^n_v), re-deriving it from the hash of the fixed prefix and
// transcriptBytes, which must contain every public value of the
// Sigma-protocol up to this point, in protocol order.
func (c *Challenger) IntegerChallenge(transcriptBytes []byte) *big.Int {
	out := c.digest(transcriptBytes, c.nv)
	return new(big.Int).SetBytes(out)
}

// BatchingSeed returns the PRG seed bytes for the batching-vector use of the
// oracle: outBits = 8 * minSeedBytes, where minSeedBytes is the PRG's
// minimum key size.
func (c *Challenger) BatchingSeed(transcriptBytes []byte, minSeedBytes int) []byte {
	return c.digest(transcriptBytes, 8*minSeedBytes)
}

// ChallengeBits returns n_v.
func (c *Challenger) ChallengeBits() int { return c.nv }

// BatchBits returns n_e.
func (c *Challenger) BatchBits() int { return c.ne }
