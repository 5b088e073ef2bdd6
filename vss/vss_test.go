package vss

import (
	"context"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight-mixnet/mixnet/bboard/local"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/group/modp"
)

// k=3, t=2, q=83: the protocol's own documented test vector group.
func testGroup(t *testing.T) *modp.Group {
	grp, err := modp.NewGroup(big.NewInt(167), big.NewInt(83), big.NewInt(4))
	require.NoError(t, err)
	return grp
}

func testPhi(t *testing.T, grp group.Group) group.PedersenGenHomomorphism {
	t.Helper()
	ring := grp.Ring()
	x, err := ring.Random(rand.Reader)
	require.NoError(t, err)
	return group.PedersenGenHomomorphism{G: grp, H: grp.Generator().Exp(x)}
}

func testChannelKeys(t *testing.T, grp group.Group, k int) (map[int]group.Element, map[int]group.RingElement) {
	t.Helper()
	pks := make(map[int]group.Element, k)
	sks := make(map[int]group.RingElement, k)
	for i := 1; i <= k; i++ {
		rk, err := NewReceiverKey(grp, rand.Reader)
		require.NoError(t, err)
		pks[i] = rk.Pub
		sks[i] = rk.Private
	}
	return pks, sks
}

func TestDealHappyPath(t *testing.T) {
	grp := testGroup(t)
	phi := testPhi(t, grp)
	k, tt := 3, 2
	pks, sks := testChannelKeys(t, grp, k)
	board := local.New()

	secret, err := grp.Ring().Random(rand.Reader)
	require.NoError(t, err)
	label := Label{Sid: "s", Auxsid: "a", Dealer: 1}

	dealerSess, err := NewDealerSession(grp, phi, phi.H, k, tt, 1, label, board, sks[1], pks, secret, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, dealerSess.Deal(rand.Reader))

	shares := make(map[int]PedersenShare)
	for j := 1; j <= k; j++ {
		var sess *Session
		if j == 1 {
			sess = dealerSess
		} else {
			sess = NewReceiverSession(grp, phi, k, tt, j, 1, label, board, sks[j], pks)
		}
		share, err := sess.ReceiveAndVerify(context.Background())
		require.NoError(t, err)
		shares[j] = share
	}

	ring := grp.Ring()
	valueShares := make(map[int]group.RingElement, k)
	for j, sh := range shares {
		valueShares[j] = sh.ValueShare
	}
	recovered, err := Recover(ring, valueShares, tt)
	require.NoError(t, err)
	require.True(t, recovered.Equal(secret))
}

func TestReceiveRejectsTamperedCommitment(t *testing.T) {
	grp := testGroup(t)
	phi := testPhi(t, grp)
	k, tt := 3, 2
	pks, sks := testChannelKeys(t, grp, k)
	board := local.New()

	secret, err := grp.Ring().Random(rand.Reader)
	require.NoError(t, err)
	label := Label{Sid: "s", Auxsid: "a", Dealer: 1}

	dealerSess, err := NewDealerSession(grp, phi, phi.H, k, tt, 1, label, board, sks[1], pks, secret, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, dealerSess.Deal(rand.Reader))

	// Party 2 receives correctly, but a fresh receiver with a different
	// label (wrong AEAD associated data) should fail the authenticated
	// decryption / verification check.
	wrongLabel := Label{Sid: "s", Auxsid: "different", Dealer: 1}
	sess2 := NewReceiverSession(grp, phi, k, tt, 2, 1, wrongLabel, board, sks[2], pks)
	_, err = sess2.ReceiveAndVerify(context.Background())
	require.Error(t, err)
}

func TestJustifyAfterComplaint(t *testing.T) {
	grp := testGroup(t)
	phi := testPhi(t, grp)
	k, tt := 3, 2
	pks, sks := testChannelKeys(t, grp, k)
	board := local.New()

	secret, err := grp.Ring().Random(rand.Reader)
	require.NoError(t, err)
	label := Label{Sid: "s", Auxsid: "justify", Dealer: 1}

	dealerSess, err := NewDealerSession(grp, phi, phi.H, k, tt, 1, label, board, sks[1], pks, secret, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, dealerSess.Deal(rand.Reader))

	require.NoError(t, dealerSess.Justify(3))
	receiverSess := NewReceiverSession(grp, phi, k, tt, 3, 1, label, board, sks[3], pks)
	share, err := receiverSess.VerifyJustification(context.Background(), 3, dealerSess.dealer.Commitments)
	require.NoError(t, err)
	require.False(t, share.Trivial)
}

func TestTrivialize(t *testing.T) {
	grp := testGroup(t)
	phi := testPhi(t, grp)
	tr := Trivialize(grp)
	require.True(t, tr.Trivial)
	require.True(t, tr.ValueShare.IsZero())
	require.True(t, tr.RandomShare.IsZero())
	at := grp.Ring().FromUint64(5)
	require.NoError(t, tr.Verify(phi, at))
}

func TestSequentialComposition(t *testing.T) {
	grp := testGroup(t)
	phi := testPhi(t, grp)
	k, tt := 3, 2
	pks, sks := testChannelKeys(t, grp, k)
	board := local.New()

	perDealerByParty := make(map[int][]PedersenShare, k)
	for dealer := 1; dealer <= tt; dealer++ {
		secret, err := grp.Ring().Random(rand.Reader)
		require.NoError(t, err)
		label := Label{Sid: "seq", Auxsid: "a", Dealer: dealer}
		dealerSess, err := NewDealerSession(grp, phi, phi.H, k, tt, dealer, label, board, sks[dealer], pks, secret, rand.Reader)
		require.NoError(t, err)
		require.NoError(t, dealerSess.Deal(rand.Reader))

		for j := 1; j <= k; j++ {
			var sess *Session
			if j == dealer {
				sess = dealerSess
			} else {
				sess = NewReceiverSession(grp, phi, k, tt, j, dealer, label, board, sks[j], pks)
			}
			share, err := sess.ReceiveAndVerify(context.Background())
			require.NoError(t, err)
			perDealerByParty[j] = append(perDealerByParty[j], share)
		}
	}

	aggregates := make(map[int]PedersenShare, k)
	for j := 1; j <= k; j++ {
		agg, err := Collapse(grp, perDealerByParty[j])
		require.NoError(t, err)
		aggregates[j] = agg
	}

	ring := grp.Ring()
	valueShares := make(map[int]group.RingElement, k)
	for j, agg := range aggregates {
		valueShares[j] = agg.ValueShare
		at := ring.FromUint64(uint64(j))
		require.NoError(t, agg.Verify(phi, at))
	}
	_, err := Recover(ring, valueShares, tt)
	require.NoError(t, err)
}
