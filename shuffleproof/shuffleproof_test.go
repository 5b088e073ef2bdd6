package shuffleproof

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/group/modp"
	"github.com/tuneinsight-mixnet/mixnet/params"
)

func testFixture(t *testing.T) (*modp.Group, *challenger.Challenger, group.Element, group.Element) {
	t.Helper()
	grp, err := modp.NewGroup(big.NewInt(167), big.NewInt(83), big.NewInt(4))
	require.NoError(t, err)
	lit := params.GlobalParamsLiteral{
		K: 3, T: 2, Group: grp,
		StatDistBits: 40, ChallengeBits: 128, BatchBits: 128,
		Sid: "test", Auxsid: "fixture",
	}
	gp, err := params.NewGlobalParams(lit)
	require.NoError(t, err)
	ch, err := gp.NewChallenger()
	require.NoError(t, err)

	g := grp.Generator()
	ring := grp.Ring()
	skX, err := ring.Random(rand.Reader)
	require.NoError(t, err)
	pk := g.Exp(skX)
	return grp, ch, g, pk
}

func testGenerators(t *testing.T, grp *modp.Group, n int) []group.Element {
	t.Helper()
	ring := grp.Ring()
	h := make([]group.Element, n)
	for i := range h {
		x, err := ring.Random(rand.Reader)
		require.NoError(t, err)
		h[i] = grp.Generator().Exp(x)
	}
	return h
}

// buildShuffle constructs a permuted, re-randomized re-encryption w -> w'
// along with its permutation commitment u (over generators h) and the
// randomizers r, s, matching exactly how the shuffle package's prove()
// builds its CCPoS/PoS witness: u_i = g^r_i * h_{invPerm[i]],
// w'_i = w_{invPerm[i]} * g^s_i.
func buildShuffle(t *testing.T, grp *modp.Group, g group.Element, h []group.Element, n int, invPerm []int) (u, w, wPrime []group.Element, r, s []group.RingElement) {
	t.Helper()
	ring := grp.Ring()
	w = make([]group.Element, n)
	for i := range w {
		x, err := ring.Random(rand.Reader)
		require.NoError(t, err)
		w[i] = g.Exp(x)
	}
	r = make([]group.RingElement, n)
	s = make([]group.RingElement, n)
	for i := range r {
		ri, err := ring.Random(rand.Reader)
		require.NoError(t, err)
		r[i] = ri
		si, err := ring.Random(rand.Reader)
		require.NoError(t, err)
		s[i] = si
	}
	u = make([]group.Element, n)
	wPrime = make([]group.Element, n)
	for i, j := range invPerm {
		u[i] = g.Exp(r[i]).Mul(h[j])
		wPrime[i] = w[j].Mul(g.Exp(s[i]))
	}
	return
}

func TestPoSCRoundTrip(t *testing.T) {
	grp, ch, g, _ := testFixture(t)
	n := 4
	h := testGenerators(t, grp, n)
	invPerm := []int{2, 0, 3, 1}
	u, _, _, r, _ := buildShuffle(t, grp, g, h, n, invPerm)

	commit, reply, err := ProvePoSC(grp, ch, g, h, u, r, invPerm, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, VerifyPoSC(grp, ch, g, h, u, commit, reply))
}

func TestPoSCRejectsTamperedCommitment(t *testing.T) {
	grp, ch, g, _ := testFixture(t)
	n := 3
	h := testGenerators(t, grp, n)
	invPerm := []int{1, 2, 0}
	u, _, _, r, _ := buildShuffle(t, grp, g, h, n, invPerm)

	commit, reply, err := ProvePoSC(grp, ch, g, h, u, r, invPerm, rand.Reader)
	require.NoError(t, err)

	wrongU := make([]group.Element, n)
	copy(wrongU, u)
	wrongU[0] = wrongU[0].Mul(g)
	require.Error(t, VerifyPoSC(grp, ch, g, h, wrongU, commit, reply))
}

func TestCCPoSRoundTrip(t *testing.T) {
	grp, ch, g, pk := testFixture(t)
	n := 4
	h := testGenerators(t, grp, n)
	invPerm := []int{2, 0, 3, 1}
	u, w, wPrime, r, s := buildShuffle(t, grp, g, h, n, invPerm)

	commit, reply, err := ProveCCPoS(grp, ch, g, pk, h, u, w, wPrime, r, s, invPerm, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, VerifyCCPoS(grp, ch, g, pk, h, u, w, wPrime, commit, reply))
}

func TestCCPoSRejectsWrongPermutationClaim(t *testing.T) {
	grp, ch, g, pk := testFixture(t)
	n := 3
	h := testGenerators(t, grp, n)
	invPerm := []int{1, 2, 0}
	u, w, wPrime, r, s := buildShuffle(t, grp, g, h, n, invPerm)

	commit, reply, err := ProveCCPoS(grp, ch, g, pk, h, u, w, wPrime, r, s, invPerm, rand.Reader)
	require.NoError(t, err)

	wrongWPrime := make([]group.Element, n)
	copy(wrongWPrime, wPrime)
	wrongWPrime[0], wrongWPrime[1] = wrongWPrime[1], wrongWPrime[0]
	require.Error(t, VerifyCCPoS(grp, ch, g, pk, h, u, w, wrongWPrime, commit, reply))
}

func TestPoSRoundTrip(t *testing.T) {
	grp, ch, g, pk := testFixture(t)
	n := 4
	h := testGenerators(t, grp, n)
	invPerm := []int{3, 1, 0, 2}
	_, w, wPrime, r, s := buildShuffle(t, grp, g, h, n, invPerm)

	commit, reply, err := ProvePoS(grp, ch, g, pk, h, w, wPrime, r, s, invPerm, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, VerifyPoS(grp, ch, g, pk, h, w, wPrime, commit, reply))
}

func TestPoSRejectsForeignProof(t *testing.T) {
	grp, ch, g, pk := testFixture(t)
	n := 3
	h := testGenerators(t, grp, n)
	invPerm := []int{2, 0, 1}
	_, w, wPrime, r, s := buildShuffle(t, grp, g, h, n, invPerm)
	commit, reply, err := ProvePoS(grp, ch, g, pk, h, w, wPrime, r, s, invPerm, rand.Reader)
	require.NoError(t, err)

	otherInvPerm := []int{1, 2, 0}
	_, otherW, otherWPrime, _, _ := buildShuffle(t, grp, g, h, n, otherInvPerm)
	require.Error(t, VerifyPoS(grp, ch, g, pk, h, otherW, otherWPrime, commit, reply))
}

// TestCCPoSRejectsNonPermutationCommitment checks that the permutation-
// binding sub-argument, not just the combined linear equation, gates
// acceptance: invPerm here maps two rows onto h_0 and none onto h_2, so u is
// a genuine opening of a non-permutation multiset. The linear equation alone
// (A = g^<r,e'> . prod h_i^e'_i) holds for any claimed opening regardless of
// whether invPerm is a bijection; only the product/OR-proof argument can
// catch this.
func TestCCPoSRejectsNonPermutationCommitment(t *testing.T) {
	grp, ch, g, pk := testFixture(t)
	n := 3
	h := testGenerators(t, grp, n)
	invPerm := []int{0, 0, 1} // not a permutation: h_0 used twice, h_2 unused
	u, w, wPrime, r, s := buildShuffle(t, grp, g, h, n, invPerm)

	commit, reply, err := ProveCCPoS(grp, ch, g, pk, h, u, w, wPrime, r, s, invPerm, rand.Reader)
	require.NoError(t, err)
	require.Error(t, VerifyCCPoS(grp, ch, g, pk, h, u, w, wPrime, commit, reply))
}

// TestPoSCRejectsNonPermutationCommitment is PoSC's analogue of
// TestCCPoSRejectsNonPermutationCommitment.
func TestPoSCRejectsNonPermutationCommitment(t *testing.T) {
	grp, ch, g, _ := testFixture(t)
	n := 3
	h := testGenerators(t, grp, n)
	invPerm := []int{2, 2, 0} // not a permutation: h_2 used twice, h_1 unused
	u, _, _, r, _ := buildShuffle(t, grp, g, h, n, invPerm)

	commit, reply, err := ProvePoSC(grp, ch, g, h, u, r, invPerm, rand.Reader)
	require.NoError(t, err)
	require.Error(t, VerifyPoSC(grp, ch, g, h, u, commit, reply))
}

func TestLengthMismatchRejected(t *testing.T) {
	grp, ch, g, pk := testFixture(t)
	n := 3
	h := testGenerators(t, grp, n)
	invPerm := []int{0, 1, 2}
	u, w, wPrime, r, s := buildShuffle(t, grp, g, h, n, invPerm)

	_, _, err := ProveCCPoS(grp, ch, g, pk, h, u, w, wPrime[:2], r, s, invPerm, rand.Reader)
	require.Error(t, err)
}
