package vss

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tuneinsight-mixnet/mixnet/bboard"
	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/polyexp"
)

const (
	tagCommitments = "vss-commitments"
	tagShare       = "vss-share"
	tagComplaint   = "vss-complaint"
	tagJustify     = "vss-justify"
)

// Session orchestrates one dealer's basic VSS instance (component D) through
// the complaint/justification round and, on dealer failure, trivialization
// (spec 4.E). It drives a bboard.Board rather than talking to peers
// directly, so the same code runs a dealer or a receiver depending on
// whether DealerIndex equals the local party index.
type Session struct {
	Label       Label
	Grp         group.Group
	Phi         group.PedersenHomomorphism
	K           int // number of receivers
	T           int // threshold
	Self        int // this party's index, 1..K
	DealerIndex int
	Board       bboard.Board
	ReceiverSk  group.RingElement
	ReceiverPks map[int]group.Element // all parties' DH public keys, including Self

	dealer *Dealer
	State  State
}

// NewDealerSession constructs a session where this party is the dealer.
func NewDealerSession(grp group.Group, phi group.PedersenHomomorphism, h group.Element, k, t, self int, label Label, board bboard.Board, sk group.RingElement, pks map[int]group.Element, secret group.RingElement, src io.Reader) (*Session, error) {
	d, err := NewDealer(grp, h, label, t, secret, src)
	if err != nil {
		return nil, err
	}
	return &Session{
		Label: label, Grp: grp, Phi: phi, K: k, T: t, Self: self, DealerIndex: self,
		Board: board, ReceiverSk: sk, ReceiverPks: pks,
		dealer: d, State: StateSharingComputed,
	}, nil
}

// NewReceiverSession constructs a session where this party merely receives
// from DealerIndex.
func NewReceiverSession(grp group.Group, phi group.PedersenHomomorphism, k, t, self, dealerIndex int, label Label, board bboard.Board, sk group.RingElement, pks map[int]group.Element) *Session {
	return &Session{
		Label: label, Grp: grp, Phi: phi, K: k, T: t, Self: self, DealerIndex: dealerIndex,
		Board: board, ReceiverSk: sk, ReceiverPks: pks,
		State: StateInitial,
	}
}

// Deal publishes the dealer's commitments and every receiver's encrypted
// share when Self == DealerIndex. It is a no-op for receiver sessions.
func (s *Session) Deal(src io.Reader) error {
	if s.Self != s.DealerIndex {
		return nil
	}
	if src == nil {
		src = rand.Reader
	}
	ct := s.dealer.Commitments.ByteTree()
	if err := s.Board.Publish(s.DealerIndex, tagCommitments, bytetree.Encode(ct)); err != nil {
		return fmt.Errorf("vss: publishing commitments: %w", err)
	}
	for j := 1; j <= s.K; j++ {
		pk, ok := s.ReceiverPks[j]
		if !ok {
			return fmt.Errorf("vss: missing receiver key for party %d", j)
		}
		enc, err := s.dealer.EncryptShareFor(pk, j, src)
		if err != nil {
			return fmt.Errorf("vss: encrypting share for party %d: %w", j, err)
		}
		if err := s.Board.Publish(s.DealerIndex, shareTag(j), encodeEncryptedShare(enc)); err != nil {
			return fmt.Errorf("vss: publishing share for party %d: %w", j, err)
		}
	}
	s.State = StateSharingComputed
	return nil
}

func shareTag(j int) string { return fmt.Sprintf("%s-%d", tagShare, j) }
func justifyTag(j int) string { return fmt.Sprintf("%s-%d", tagJustify, j) }

// ReceiveAndVerify fetches the dealer's commitments and this party's share,
// decrypts and verifies it, and returns the resulting PedersenShare. On
// verification failure it publishes a complaint on the board and returns the
// verification error; the caller is expected to follow up with the
// complaint/justification protocol via Justify/Trivialize.
func (s *Session) ReceiveAndVerify(ctx context.Context) (PedersenShare, error) {
	ctBytes, err := s.Board.WaitFor(ctx, s.DealerIndex, tagCommitments)
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: waiting for commitments: %w", err)
	}
	tree, err := bytetree.Decode(ctBytes)
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: decoding commitments: %w", err)
	}
	commitments, err := polyexp.FromByteTree(tree, s.Grp)
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: decoding commitments: %w", err)
	}

	shareBytes, err := s.Board.WaitFor(ctx, s.DealerIndex, shareTag(s.Self))
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: waiting for share: %w", err)
	}
	enc, err := decodeEncryptedShare(shareBytes, s.Grp)
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: decoding share: %w", err)
	}

	share, err := Receive(s.Grp, s.Phi, s.Label, s.Self, commitments, enc, s.ReceiverSk)
	if err != nil {
		if pubErr := s.Board.Publish(s.Self, tagComplaint, s.Label.Bytes()); pubErr != nil {
			return PedersenShare{}, fmt.Errorf("vss: %w (and publishing complaint failed: %v)", err, pubErr)
		}
		s.State = StateInitial
		return PedersenShare{}, err
	}
	s.State = StateVerificationPossible
	return share, nil
}

// Justify lets the dealer respond to a complaint from party j by publishing
// the plaintext share in the clear; every other party can then redo the
// phi(s,r) = commitments.Eval(j) check themselves.
func (s *Session) Justify(j int) error {
	if s.Self != s.DealerIndex {
		return fmt.Errorf("vss: only the dealer can justify")
	}
	vs, rs := s.dealer.ShareFor(j)
	payload := bytetree.Encode(bytetree.Node(bytetree.Leaf(vs.Bytes()), bytetree.Leaf(rs.Bytes())))
	return s.Board.Publish(s.DealerIndex, justifyTag(j), payload)
}

// VerifyJustification decodes a dealer's justification for party j and
// checks it against the published commitments, returning the now-trusted
// share on success.
func (s *Session) VerifyJustification(ctx context.Context, j int, commitments polyexp.PolyInExp) (PedersenShare, error) {
	raw, err := s.Board.WaitFor(ctx, s.DealerIndex, justifyTag(j))
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: waiting for justification: %w", err)
	}
	tree, err := bytetree.Decode(raw)
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: decoding justification: %w", err)
	}
	if tree.IsLeaf() || len(tree.Children) != 2 {
		return PedersenShare{}, fmt.Errorf("vss: malformed justification")
	}
	ring := s.Grp.Ring()
	vs, err := ring.FromBytes(tree.Children[0].Data)
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: decoding justification value share: %w", err)
	}
	rs, err := ring.FromBytes(tree.Children[1].Data)
	if err != nil {
		return PedersenShare{}, fmt.Errorf("vss: decoding justification random share: %w", err)
	}
	share := PedersenShare{ValueShare: vs, RandomShare: rs, Commitments: commitments}
	at := ring.FromUint64(uint64(j))
	if err := share.Verify(s.Phi, at); err != nil {
		return PedersenShare{}, fmt.Errorf("vss: justification fails verification: %w", err)
	}
	return share, nil
}

// Trivialize abandons this dealer's instance and substitutes the canonical
// trivial share, used when a dealer fails to justify a valid complaint
// (spec 4.D/4.E).
func (s *Session) Trivialize() PedersenShare {
	s.State = StateTrivialized
	return Trivialize(s.Grp)
}

func encodeEncryptedShare(enc EncryptedShare) []byte {
	t := bytetree.Node(
		bytetree.Leaf(enc.Ephemeral.Bytes()),
		bytetree.Leaf(enc.Nonce),
		bytetree.Leaf(enc.Ciphertext),
	)
	return bytetree.Encode(t)
}

func decodeEncryptedShare(b []byte, grp group.Group) (EncryptedShare, error) {
	t, err := bytetree.Decode(b)
	if err != nil {
		return EncryptedShare{}, err
	}
	if t.IsLeaf() || len(t.Children) != 3 {
		return EncryptedShare{}, fmt.Errorf("vss: malformed encrypted share")
	}
	eph, err := grp.FromBytes(t.Children[0].Data)
	if err != nil {
		return EncryptedShare{}, fmt.Errorf("vss: decoding ephemeral key: %w", err)
	}
	return EncryptedShare{
		Ephemeral:  eph,
		Nonce:      t.Children[1].Data,
		Ciphertext: t.Children[2].Data,
	}, nil
}
