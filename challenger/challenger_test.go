package challenger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight-mixnet/mixnet/group/modp"
)

func testPrefix() PrefixParams {
	return PrefixParams{
		Version: "1.0", Sid: "s", Auxsid: "a",
		StatDistBits: 40, ChallengeBits: 128, BatchBits: 128,
		PRGDescriptor: "chacha20", GroupOrderHex: "53", HashDescriptor: "blake3",
	}
}

func TestNewRejectsNonPositiveBits(t *testing.T) {
	p := testPrefix()
	p.ChallengeBits = 0
	_, err := New(p)
	require.Error(t, err)

	p = testPrefix()
	p.BatchBits = 0
	_, err = New(p)
	require.Error(t, err)
}

func TestIntegerChallengeDeterministic(t *testing.T) {
	ch, err := New(testPrefix())
	require.NoError(t, err)
	transcript := []byte("same transcript")
	a := ch.IntegerChallenge(transcript)
	b := ch.IntegerChallenge(transcript)
	require.Equal(t, 0, a.Cmp(b))
}

func TestIntegerChallengeVariesByTranscript(t *testing.T) {
	ch, err := New(testPrefix())
	require.NoError(t, err)
	a := ch.IntegerChallenge([]byte("one"))
	b := ch.IntegerChallenge([]byte("two"))
	require.NotEqual(t, 0, a.Cmp(b))
}

func TestIntegerChallengeBounded(t *testing.T) {
	ch, err := New(testPrefix())
	require.NoError(t, err)
	v := ch.IntegerChallenge([]byte("x"))
	require.True(t, v.Sign() >= 0)
	bound := new(big.Int).Lsh(big.NewInt(1), uint(ch.ChallengeBits()))
	require.Equal(t, -1, v.Cmp(bound))
}

func TestDifferentPrefixGivesDifferentChallenge(t *testing.T) {
	ch1, err := New(testPrefix())
	require.NoError(t, err)
	p2 := testPrefix()
	p2.Sid = "other"
	ch2, err := New(p2)
	require.NoError(t, err)

	transcript := []byte("x")
	require.NotEqual(t, 0, ch1.IntegerChallenge(transcript).Cmp(ch2.IntegerChallenge(transcript)))
}

func TestBatchingSeedLength(t *testing.T) {
	ch, err := New(testPrefix())
	require.NoError(t, err)
	seed := ch.BatchingSeed([]byte("transcript"), MinSeedBytes)
	require.Len(t, seed, MinSeedBytes)
}

func TestChallengeBitsAndBatchBitsAccessors(t *testing.T) {
	ch, err := New(testPrefix())
	require.NoError(t, err)
	require.Equal(t, 128, ch.ChallengeBits())
	require.Equal(t, 128, ch.BatchBits())
}

func TestBatchVectorDeterministicAndBounded(t *testing.T) {
	ch, err := New(testPrefix())
	require.NoError(t, err)
	seed := ch.BatchingSeed([]byte("transcript"), MinSeedBytes)

	grp, err := modp.NewGroup(big.NewInt(167), big.NewInt(83), big.NewInt(4))
	require.NoError(t, err)
	ring := grp.Ring()

	v1, err := BatchVector(seed, 5, 16, ring)
	require.NoError(t, err)
	v2, err := BatchVector(seed, 5, 16, ring)
	require.NoError(t, err)
	require.Len(t, v1, 5)
	bound := new(big.Int).Lsh(big.NewInt(1), 16)
	for i := range v1 {
		require.True(t, v1[i].Equal(v2[i]))
		require.Equal(t, -1, v1[i].BigInt().Cmp(bound))
	}
}

func TestBatchVectorRejectsBadBits(t *testing.T) {
	grp, err := modp.NewGroup(big.NewInt(167), big.NewInt(83), big.NewInt(4))
	require.NoError(t, err)
	_, err = BatchVector([]byte("seed"), 3, 0, grp.Ring())
	require.Error(t, err)
	_, err = BatchVector([]byte("seed"), 3, 300, grp.Ring())
	require.Error(t, err)
}
