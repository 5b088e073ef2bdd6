package challenger

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"

	"github.com/tuneinsight-mixnet/mixnet/group"
)

// MinSeedBytes is the minimum key size required to seed the concrete PRG
// instantiation (ChaCha20) used by BatchVector, per GlobalParams.PRG.
const MinSeedBytes = chacha20.KeySize

// BatchVector derives a PRG from seed (as returned by Challenger.BatchingSeed)
// and uses it to produce n ring elements, each uniform over [0, 2^neBits),
// as required for the batching vector e used by PoSC/CCPoS/PoS (spec 4.B use
// 1). The PRG is ChaCha20 keyed via HKDF-SHA256 over seed, the concrete PRG
// descriptor recorded as GlobalParams.PRGDescriptor = "chacha20".
func BatchVector(seed []byte, n int, neBits int, ring group.Ring) ([]group.RingElement, error) {
	if neBits <= 0 || neBits > 256 {
		return nil, fmt.Errorf("challenger: invalid n_e %d", neBits)
	}
	key := make([]byte, chacha20.KeySize)
	kdf := hkdf.New(sha256.New, seed, nil, []byte("mixnet-batch-vector"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("challenger: deriving PRG key: %w", err)
	}
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(key, nonce[:])
	if err != nil {
		return nil, fmt.Errorf("challenger: initializing PRG: %w", err)
	}

	byteLen := (neBits + 7) / 8
	out := make([]group.RingElement, n)
	buf := make([]byte, byteLen)
	zero := make([]byte, byteLen)
	for i := 0; i < n; i++ {
		cipher.XORKeyStream(buf, zero)
		maskTopBits(buf, neBits)
		out[i] = ring.FromBigInt(new(big.Int).SetBytes(buf))
	}
	return out, nil
}
