// Package mixnet implements the per-(sid, auxsid) session state machine
// and proof-directory manifest (spec 4.L): INIT can move to PRECOMPUTED or
// SHUFFLED or DECRYPTED; PRECOMPUTED can only move forward to SHUFFLED;
// SHUFFLED can move to MIXED; MIXED, DECRYPTED and SHUFFLED can be deleted
// back to a fresh INIT' session. Every terminal transition writes a
// Manifest recording what happened, for the independent verifier in
// nizkp to re-check later.
package mixnet

import (
	"context"
	"io"

	"github.com/tuneinsight-mixnet/mixnet/bboard"
	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/dkg"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/igs"
	"github.com/tuneinsight-mixnet/mixnet/params"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
	"github.com/tuneinsight-mixnet/mixnet/shuffle"
)

// State is one node of the spec 4.L state machine.
type State int

const (
	StateInit State = iota
	StatePrecomputed
	StateShuffled
	StateMixed
	StateDecrypted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StatePrecomputed:
		return "PRECOMPUTED"
	case StateShuffled:
		return "SHUFFLED"
	case StateMixed:
		return "MIXED"
	case StateDecrypted:
		return "DECRYPTED"
	default:
		return "UNKNOWN"
	}
}

// ManifestType is the terminal-state tag spec 4.L names: "one of {mixing,
// shuffling, decryption}".
type ManifestType string

const (
	TypeMixing     ManifestType = "mixing"
	TypeShuffling  ManifestType = "shuffling"
	TypeDecryption ManifestType = "decryption"
)

// Manifest is written at every terminal transition, recording everything an
// independent verifier needs to re-check the session without re-running it
// (spec 4.L: "version, sid, auxsid, type, width, input ciphertexts,
// intermediate artifacts, and plaintexts if applicable").
type Manifest struct {
	Version      int
	Sid, Auxsid  string
	Type         ManifestType
	Width        int
	Input        []dkg.Ciphertext
	Intermediate []dkg.Ciphertext // the shuffle's final output, if any
	Plaintexts   []group.Element  // only set for mixing/decryption manifests
}

// Session drives one party's view of a mix-net session identified by
// (sid, auxsid), enforcing the spec 4.L transition graph. PRECOMPUTED can
// only be followed by SHUFFLED: pre-computation without a subsequent
// shuffle is invalid and Delete refuses to run from that state.
type Session struct {
	Params params.GlobalParams
	Board  bboard.Board
	Self   int

	state    State
	precomp  *shuffle.Precomputed
	sharedH  []group.Element
	lastOut  []dkg.Ciphertext
}

// NewSession constructs a fresh INIT session.
func NewSession(p params.GlobalParams, board bboard.Board, self int) *Session {
	return &Session{Params: p, Board: board, Self: self, state: StateInit}
}

// State returns the session's current node in the spec 4.L graph.
func (s *Session) State() State { return s.state }

// LastOutput returns the output of the most recent Shuffle call, or nil if
// none has run since the session was created or last deleted.
func (s *Session) LastOutput() []dkg.Ciphertext { return s.lastOut }

// Precomp runs the shuffle pre-computation path and moves INIT to
// PRECOMPUTED (spec 4.K precomp, 4.L INIT--precomp-->PRECOMPUTED).
func (s *Session) Precomp(gen igs.Source, g group.Element, maxciph, rho int, src io.Reader) error {
	if s.state != StateInit {
		return protoerr.NewProtocolError("mixnet", "precomp is only valid from INIT")
	}
	label := []byte(s.Params.Sid() + "|" + s.Params.Auxsid())
	pc, err := shuffle.Precompute(s.Params.Group(), gen, g, label, maxciph, rho, src)
	if err != nil {
		return err
	}
	s.sharedH = pc.H
	s.precomp = &pc
	s.state = StatePrecomputed
	return nil
}

// Shuffle runs one sequential shuffle round over the bulletin board (spec
// 4.K), moving INIT or PRECOMPUTED to SHUFFLED. If the session was
// precomputed, the pre-computed arrays are shrunk to the real batch width
// first (spec 4.K online step 1) and parties run CCPoS against the shrunk
// permutation commitment; otherwise every party derives a fresh
// permutation and generator vector for this exact batch and runs the
// monolithic PoS instead (spec 4.J), via shuffle.Session.RoundFresh.
func (s *Session) Shuffle(ctx context.Context, ch *challenger.Challenger, gen igs.Source, g, pk group.Element, threshold int, input []dkg.Ciphertext, keepList []bool, src io.Reader) (Manifest, error) {
	if s.state != StateInit && s.state != StatePrecomputed {
		return Manifest{}, protoerr.NewProtocolError("mixnet", "shuffle is only valid from INIT or PRECOMPUTED")
	}
	if len(input) == 0 {
		return Manifest{}, protoerr.NewInputFormatError("mixnet", "no valid ciphertexts")
	}
	n := len(input)
	session := &shuffle.Session{
		Grp: s.Params.Group(), Ch: ch, G: g, Pk: pk, Board: s.Board,
		Self: s.Self, ActiveThreshold: s.Params.K(), Threshold: threshold,
	}
	var output []dkg.Ciphertext
	var err error
	if s.precomp != nil {
		shrunk, shrinkErr := s.precomp.Shrink(keepList, n)
		if shrinkErr != nil {
			return Manifest{}, shrinkErr
		}
		output, _, err = session.Round(ctx, input, shrunk.H, &shrunk, src)
	} else {
		label := []byte(s.Params.Sid() + "|" + s.Params.Auxsid())
		output, _, err = session.RoundFresh(ctx, input, gen, label, s.Params.StatDistBits(), src)
	}
	if err != nil {
		return Manifest{}, err
	}
	s.lastOut = output
	s.state = StateShuffled
	return Manifest{
		Version: 1, Sid: s.Params.Sid(), Auxsid: s.Params.Auxsid(),
		Type: TypeShuffling, Width: n, Input: input, Intermediate: output,
	}, nil
}

// Decrypt runs threshold decryption (spec 4.F) over either the shuffled
// output (SHUFFLED -> MIXED, type mixing) or the raw input (INIT ->
// DECRYPTED, type decryption).
func (s *Session) Decrypt(ciphertexts []dkg.Ciphertext, plaintexts []group.Element) (Manifest, error) {
	switch s.state {
	case StateShuffled:
		s.state = StateMixed
		return Manifest{
			Version: 1, Sid: s.Params.Sid(), Auxsid: s.Params.Auxsid(),
			Type: TypeMixing, Width: len(ciphertexts), Input: ciphertexts, Plaintexts: plaintexts,
		}, nil
	case StateInit:
		s.state = StateDecrypted
		return Manifest{
			Version: 1, Sid: s.Params.Sid(), Auxsid: s.Params.Auxsid(),
			Type: TypeDecryption, Width: len(ciphertexts), Input: ciphertexts, Plaintexts: plaintexts,
		}, nil
	default:
		return Manifest{}, protoerr.NewProtocolError("mixnet", "decrypt is only valid from INIT or SHUFFLED")
	}
}

// Delete ends the session, returning it to a fresh INIT'. Pre-computation
// without a subsequent shuffle is invalid (spec 4.L), so Delete refuses to
// run from PRECOMPUTED.
func (s *Session) Delete() error {
	switch s.state {
	case StateShuffled, StateMixed, StateDecrypted:
		s.state = StateInit
		s.precomp = nil
		s.sharedH = nil
		s.lastOut = nil
		return nil
	default:
		return protoerr.NewProtocolError("mixnet", "delete is only valid from SHUFFLED, MIXED or DECRYPTED")
	}
}
