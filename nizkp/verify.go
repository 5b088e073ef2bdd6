package nizkp

import (
	"fmt"

	"github.com/tuneinsight-mixnet/mixnet/challenger"
	"github.com/tuneinsight-mixnet/mixnet/dkg"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/igs"
	"github.com/tuneinsight-mixnet/mixnet/mixnet"
	"github.com/tuneinsight-mixnet/mixnet/params"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
	"github.com/tuneinsight-mixnet/mixnet/shuffleproof"
)

// Subcommand is one of the verifier CLI's four entry points (spec 6): mix,
// shuffle and decrypt each require the matching manifest type; sloppy
// accepts whichever of the three the directory declares.
type Subcommand string

const (
	SubMix     Subcommand = "mix"
	SubShuffle Subcommand = "shuffle"
	SubDecrypt Subcommand = "decrypt"
	SubSloppy  Subcommand = "sloppy"
)

// Options mirrors the verifier CLI's design-critical flag surface: -auxsid
// and -width assert the directory's declared values (empty/zero skips the
// check); -noposc/-noccpos/-nopos/-nodec each disable one class of check.
type Options struct {
	Sub     Subcommand
	Auxsid  string
	Width   int
	NoPoSC  bool
	NoCCPoS bool
	NoPoS   bool
	NoDec   bool
}

// Verify re-checks a proof directory at path against p and gen, without
// talking to any party. It returns nil iff every check the subcommand and
// flags enable succeeds (spec 6: "exit code 0 iff every enabled check
// succeeds").
func Verify(path string, p params.GlobalParams, gen igs.Source, opts Options) error {
	grp := p.Group()
	sp, err := Read(Open(path), grp)
	if err != nil {
		return err
	}
	if err := checkDeclaration(sp, opts); err != nil {
		return err
	}
	ch, err := p.NewChallenger()
	if err != nil {
		return err
	}
	if sp.Type == mixnet.TypeShuffling || sp.Type == mixnet.TypeMixing {
		verified, m, err := verifyShuffleChain(sp, p, ch, gen, opts)
		if err != nil {
			return err
		}
		if verified < p.T() {
			return protoerr.NewProofRejected("nizkp", 0, fmt.Sprintf("only %d of %d required shuffle proofs verified", verified, p.T()))
		}
		if err := requireCiphertextsEqual(m, sp.Shuffled); err != nil {
			return err
		}
	}
	if sp.Type == mixnet.TypeDecryption || sp.Type == mixnet.TypeMixing {
		if !opts.NoDec {
			if err := verifyDecryption(sp, p, ch); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkDeclaration(sp SessionProofs, opts Options) error {
	switch opts.Sub {
	case SubMix:
		if sp.Type != mixnet.TypeMixing {
			return protoerr.NewInputFormatError("nizkp", fmt.Sprintf("mix expects type mixing, directory declares %q", sp.Type))
		}
	case SubShuffle:
		if sp.Type != mixnet.TypeShuffling {
			return protoerr.NewInputFormatError("nizkp", fmt.Sprintf("shuffle expects type shuffling, directory declares %q", sp.Type))
		}
	case SubDecrypt:
		if sp.Type != mixnet.TypeDecryption {
			return protoerr.NewInputFormatError("nizkp", fmt.Sprintf("decrypt expects type decryption, directory declares %q", sp.Type))
		}
	case SubSloppy:
		switch sp.Type {
		case mixnet.TypeMixing, mixnet.TypeShuffling, mixnet.TypeDecryption:
		default:
			return protoerr.NewInputFormatError("nizkp", fmt.Sprintf("unrecognized type %q", sp.Type))
		}
	default:
		return protoerr.NewInputFormatError("nizkp", fmt.Sprintf("unrecognized subcommand %q", opts.Sub))
	}
	if opts.Auxsid != "" && opts.Auxsid != sp.Auxsid {
		return protoerr.NewInputFormatError("nizkp", fmt.Sprintf("auxsid mismatch: expected %q, directory declares %q", opts.Auxsid, sp.Auxsid))
	}
	if opts.Width != 0 && opts.Width != sp.Width {
		return protoerr.NewInputFormatError("nizkp", fmt.Sprintf("width mismatch: expected %d, directory declares %d", opts.Width, sp.Width))
	}
	return nil
}

// verifyShuffleChain replays the per-party shuffle chain L_0 -> L_1 -> ... ,
// re-deriving each stage's independent generator vector the same way every
// shuffling party does (same label, same deterministic source), and
// verifies the CCPoS or PoS proof that stage published. It returns the
// number of stages that verified and the chain's final ciphertext list.
func verifyShuffleChain(sp SessionProofs, p params.GlobalParams, ch *challenger.Challenger, gen igs.Source, opts Options) (int, []dkg.Ciphertext, error) {
	grp := p.Group()
	g := grp.Generator()
	pk := sp.PublicKey.Y
	label := []byte(p.Sid() + "|" + p.Auxsid())

	current := sp.Input
	verified := 0
	for l := 1; l <= sp.ActiveThreshold; l++ {
		party, ok := sp.Parties[l]
		if !ok {
			continue
		}
		var next []dkg.Ciphertext
		if l < sp.ActiveThreshold || sp.Type == mixnet.TypeMixing {
			next = party.Ciphertexts
		} else {
			next = sp.Shuffled
		}
		if next == nil || len(next) != len(current) {
			continue
		}
		h, err := gen.Generators(grp, label, len(current))
		if err != nil {
			return verified, current, fmt.Errorf("nizkp: deriving generators for party %d: %w", l, err)
		}
		w := ciphertextUs(current)
		wPrime := ciphertextUs(next)

		ok2 := false
		switch {
		case party.CCPoSCommit != nil && party.CCPoSReply != nil:
			if party.PermComm != nil {
				ok2 = true
				if !opts.NoCCPoS {
					if verr := shuffleproof.VerifyCCPoS(grp, ch, g, pk, h, party.PermComm, w, wPrime, *party.CCPoSCommit, *party.CCPoSReply); verr != nil {
						ok2 = false
					}
				}
				if ok2 && !opts.NoPoSC && party.PoSCCommit != nil && party.PoSCReply != nil {
					if verr := shuffleproof.VerifyPoSC(grp, ch, g, h, party.PermComm, *party.PoSCCommit, *party.PoSCReply); verr != nil {
						ok2 = false
					}
				}
			}
		case party.PoSCommit != nil && party.PoSReply != nil:
			if !opts.NoPoS {
				if verr := shuffleproof.VerifyPoS(grp, ch, g, pk, h, w, wPrime, *party.PoSCommit, *party.PoSReply); verr == nil {
					ok2 = true
				}
			}
		}
		if ok2 {
			verified++
		}
		current = next
	}
	return verified, current, nil
}

// verifyDecryption re-checks every party's CR (correct-decryption) proof
// and, for parties the CorrectIndices mask marks correct, combines their
// decryption factors and checks the result against the recorded
// plaintexts.
func verifyDecryption(sp SessionProofs, p params.GlobalParams, ch *challenger.Challenger) error {
	grp := p.Group()
	ciphertexts := sp.Input
	if sp.Type == mixnet.TypeMixing {
		ciphertexts = sp.Shuffled
	}
	dfByParty := make(map[int][]group.Element)
	correct := make(map[int]bool)
	for l := 1; l <= p.K(); l++ {
		party, ok := sp.Parties[l]
		if !ok || party.DecFactors == nil || party.DFProof == nil {
			continue
		}
		yl := sp.Commitments.Eval(grp.Ring().FromUint64(uint64(l)))
		if verr := dkg.VerifyCR(grp, ch, yl, ciphertexts, party.DecFactors, *party.DFProof); verr != nil {
			continue
		}
		if l < len(sp.CorrectIndices) && sp.CorrectIndices[l] {
			dfByParty[l] = party.DecFactors
			correct[l] = true
		}
	}
	plaintexts, err := dkg.ThresholdDecrypt(grp, p.T(), ciphertexts, dfByParty, correct)
	if err != nil {
		return err
	}
	return requireElementsEqual(plaintexts, sp.Plaintexts)
}

func ciphertextUs(cs []dkg.Ciphertext) []group.Element {
	out := make([]group.Element, len(cs))
	for i, c := range cs {
		out[i] = c.U
	}
	return out
}

func requireCiphertextsEqual(a, b []dkg.Ciphertext) error {
	if len(a) != len(b) {
		return protoerr.NewProofRejected("nizkp", 0, "final shuffle output length mismatch")
	}
	for i := range a {
		if !a[i].U.Equal(b[i].U) || !a[i].V.Equal(b[i].V) {
			return protoerr.NewProofRejected("nizkp", 0, "final shuffle output does not match ShuffledCiphertexts.bt")
		}
	}
	return nil
}

func requireElementsEqual(a, b []group.Element) error {
	if len(a) != len(b) {
		return protoerr.NewProofRejected("nizkp", 0, "decrypted plaintext count mismatch")
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return protoerr.NewProofRejected("nizkp", 0, "decrypted plaintext does not match Plaintexts.bt")
		}
	}
	return nil
}
