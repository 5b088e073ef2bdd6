// Package igs defines the independent-generator-set collaborator contract
// (spec section 1: "Independent generator derivation, specified only by its
// input/output contract") together with one concrete, deterministic
// implementation suitable for a single-process deployment or tests. Real
// deployments may swap in any implementation satisfying Source, exactly as
// the bboard package treats the bulletin board as an injected collaborator.
package igs

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

// Source derives n generators of grp, independent of the fixed generator g
// and of each other from the point of view of any party not holding their
// discrete logs, named by a domain-separating label (spec 4.K precomp step
// 1: "Generate maxciph independent generators").
type Source interface {
	Generators(grp group.Group, label []byte, n int) ([]group.Element, error)
}

// HashSource implements Source by expanding label through HKDF-SHA256 into
// a stream of ring-element exponents and raising the group's fixed
// generator to each: h_i = g^{H(label, i)}. The exponents are a public
// function of label, so anyone who knows label can compute log_g(h_i) and
// the discrete logs relating the h_i to each other: the generators are
// deterministic but not independent in the discrete-log sense.
type HashSource struct{}

// Generators implements Source.
func (HashSource) Generators(grp group.Group, label []byte, n int) ([]group.Element, error) {
	ring := grp.Ring()
	kdf := hkdf.New(sha256.New, label, nil, []byte("mixnet-independent-generators"))
	out := make([]group.Element, n)
	buf := make([]byte, ring.ByteLen())
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(kdf, buf); err != nil {
			return nil, fmt.Errorf("igs: expanding generator %d: %w", i, err)
		}
		x := ring.FromBigInt(new(big.Int).SetBytes(buf))
		out[i] = grp.Generator().Exp(x)
	}
	return out, nil
}
