package nizkp

import (
	"fmt"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/dkg"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/mixnet"
	"github.com/tuneinsight-mixnet/mixnet/polyexp"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
	"github.com/tuneinsight-mixnet/mixnet/shuffleproof"
)

// PartyProof is every artifact one shuffling/decrypting party publishes to
// the proof directory (spec 6's `proofs/*<LL>.bt` family). Exactly one of
// the committed (PermComm/KeepList/CCPoS) or fresh (PoS) proof pairs is
// populated, depending on whether the session used pre-computation.
type PartyProof struct {
	PermComm    []group.Element
	KeepList    []bool
	PoSCCommit  *shuffleproof.PoSCCommitment
	PoSCReply   *shuffleproof.PoSCReply
	CCPoSCommit *shuffleproof.CCPoSCommitment
	CCPoSReply  *shuffleproof.CCPoSReply
	PoSCommit   *shuffleproof.PoSCommitment
	PoSReply    *shuffleproof.PoSReply
	Ciphertexts []dkg.Ciphertext // L_l, this party's output list
	DecFactors  []group.Element
	DFProof     *dkg.CRProof
}

// SessionProofs is the full, in-memory mirror of one proof directory (spec
// 6 layout).
type SessionProofs struct {
	Version         string
	Auxsid          string
	Type            mixnet.ManifestType
	Width           int
	Input           []dkg.Ciphertext
	Shuffled        []dkg.Ciphertext
	Plaintexts      []group.Element
	PublicKey       dkg.PublicKey
	Commitments     polyexp.PolyInExp
	MaxCiph         int // 0 if pre-computation was not used
	ActiveThreshold int
	Parties         map[int]PartyProof
	CorrectIndices  []bool // length k+1, index 0 unused
}

// Write serializes sp into d's on-disk layout.
func Write(d *Directory, sp SessionProofs) error {
	if err := d.Create(); err != nil {
		return err
	}
	if err := d.writeString("version", sp.Version); err != nil {
		return err
	}
	if err := d.writeString("auxsid", sp.Auxsid); err != nil {
		return err
	}
	if err := d.writeString("type", string(sp.Type)); err != nil {
		return err
	}
	if err := d.writeInt("width", sp.Width); err != nil {
		return err
	}
	if err := d.writeTree("Ciphertexts.bt", ciphertextsTree(sp.Input)); err != nil {
		return err
	}
	if sp.Type == mixnet.TypeShuffling || sp.Type == mixnet.TypeMixing {
		if err := d.writeTree("ShuffledCiphertexts.bt", ciphertextsTree(sp.Shuffled)); err != nil {
			return err
		}
	}
	if sp.Type == mixnet.TypeDecryption || sp.Type == mixnet.TypeMixing {
		if err := d.writeTree("Plaintexts.bt", elementsTree(sp.Plaintexts)); err != nil {
			return err
		}
	}
	if err := d.writeTree("proofs/FullPublicKey.bt", bytetree.Leaf(sp.PublicKey.Y.Bytes())); err != nil {
		return err
	}
	if err := d.writeTree("proofs/PolynomialInExponent.bt", sp.Commitments.ByteTree()); err != nil {
		return err
	}
	if sp.MaxCiph > 0 {
		if err := d.writeInt("proofs/maxciph", sp.MaxCiph); err != nil {
			return err
		}
	}
	if err := d.writeInt("proofs/activethreshold", sp.ActiveThreshold); err != nil {
		return err
	}
	for l, p := range sp.Parties {
		if err := writeParty(d, l, p); err != nil {
			return err
		}
	}
	if err := d.writeTree("proofs/CorrectIndices.bt", boolsTree(sp.CorrectIndices)); err != nil {
		return err
	}
	return nil
}

func writeParty(d *Directory, l int, p PartyProof) error {
	if p.PermComm != nil {
		if err := d.writeTree(partyFile("PermComm", l), elementsTree(p.PermComm)); err != nil {
			return err
		}
	}
	if p.KeepList != nil {
		if err := d.writeTree(partyFile("KeepList", l), boolsTree(p.KeepList)); err != nil {
			return err
		}
	}
	if p.Ciphertexts != nil {
		if err := d.writeTree(partyFile("Ciphertexts", l), ciphertextsTree(p.Ciphertexts)); err != nil {
			return err
		}
	}
	if p.PoSCCommit != nil {
		if err := d.writeTree(partyFile("PoSCCommitment", l), p.PoSCCommit.ByteTree()); err != nil {
			return err
		}
		if err := d.writeTree(partyFile("PoSCReply", l), p.PoSCReply.ByteTree()); err != nil {
			return err
		}
	}
	if p.CCPoSCommit != nil {
		if err := d.writeTree(partyFile("CCPoSCommitment", l), p.CCPoSCommit.ByteTree()); err != nil {
			return err
		}
		if err := d.writeTree(partyFile("CCPoSReply", l), p.CCPoSReply.ByteTree()); err != nil {
			return err
		}
	}
	if p.PoSCommit != nil {
		if err := d.writeTree(partyFile("PoSCommitment", l), p.PoSCommit.ByteTree()); err != nil {
			return err
		}
		if err := d.writeTree(partyFile("PoSReply", l), p.PoSReply.ByteTree()); err != nil {
			return err
		}
	}
	if p.DecFactors != nil {
		if err := d.writeTree(partyFile("DecFactors", l), elementsTree(p.DecFactors)); err != nil {
			return err
		}
	}
	if p.DFProof != nil {
		if err := d.writeTree(partyFile("DFCommitment", l), bytetree.Node(
			bytetree.Leaf(p.DFProof.Commitment.Bytes()), bytetree.Leaf(p.DFProof.DFCommit.Bytes()))); err != nil {
			return err
		}
		if err := d.writeTree(partyFile("DFReply", l), bytetree.Leaf(p.DFProof.Reply.Bytes())); err != nil {
			return err
		}
	}
	return nil
}

// Read deserializes a proof directory against grp.
func Read(d *Directory, grp group.Group) (SessionProofs, error) {
	var sp SessionProofs
	var err error
	if sp.Version, err = d.readString("version"); err != nil {
		return sp, err
	}
	if sp.Auxsid, err = d.readString("auxsid"); err != nil {
		return sp, err
	}
	typeStr, err := d.readString("type")
	if err != nil {
		return sp, err
	}
	sp.Type = mixnet.ManifestType(typeStr)
	if sp.Width, err = d.readInt("width"); err != nil {
		return sp, err
	}
	inputTree, err := d.readTree("Ciphertexts.bt")
	if err != nil {
		return sp, err
	}
	if sp.Input, err = ciphertextsFromTree(inputTree, grp); err != nil {
		return sp, err
	}
	if sp.Type == mixnet.TypeShuffling || sp.Type == mixnet.TypeMixing {
		shuffledTree, err := d.readTree("ShuffledCiphertexts.bt")
		if err != nil {
			return sp, err
		}
		if sp.Shuffled, err = ciphertextsFromTree(shuffledTree, grp); err != nil {
			return sp, err
		}
	}
	if sp.Type == mixnet.TypeDecryption || sp.Type == mixnet.TypeMixing {
		ptTree, err := d.readTree("Plaintexts.bt")
		if err != nil {
			return sp, err
		}
		if sp.Plaintexts, err = elementsFromTree(ptTree, grp); err != nil {
			return sp, err
		}
	}
	pkTree, err := d.readTree("proofs/FullPublicKey.bt")
	if err != nil {
		return sp, err
	}
	y, err := grp.FromBytes(pkTree.Data)
	if err != nil {
		return sp, fmt.Errorf("nizkp: decoding FullPublicKey: %w", err)
	}
	sp.PublicKey = dkg.PublicKey{Grp: grp, Y: y}

	polyTree, err := d.readTree("proofs/PolynomialInExponent.bt")
	if err != nil {
		return sp, err
	}
	if sp.Commitments, err = polyexp.FromByteTree(polyTree, grp); err != nil {
		return sp, err
	}
	if d.exists("proofs/maxciph") {
		if sp.MaxCiph, err = d.readInt("proofs/maxciph"); err != nil {
			return sp, err
		}
	}
	if sp.ActiveThreshold, err = d.readInt("proofs/activethreshold"); err != nil {
		return sp, err
	}
	sp.Parties = make(map[int]PartyProof, sp.ActiveThreshold)
	for l := 1; l <= sp.ActiveThreshold; l++ {
		p, err := readParty(d, l, grp, sp.Width)
		if err != nil {
			return sp, err
		}
		sp.Parties[l] = p
	}
	correctTree, err := d.readTree("proofs/CorrectIndices.bt")
	if err != nil {
		return sp, err
	}
	if sp.CorrectIndices, err = boolsFromTree(correctTree); err != nil {
		return sp, err
	}
	return sp, nil
}

func readParty(d *Directory, l int, grp group.Group, n int) (PartyProof, error) {
	var p PartyProof
	if d.exists(partyFile("PermComm", l)) {
		t, err := d.readTree(partyFile("PermComm", l))
		if err != nil {
			return p, err
		}
		if p.PermComm, err = elementsFromTree(t, grp); err != nil {
			return p, err
		}
	}
	if d.exists(partyFile("KeepList", l)) {
		t, err := d.readTree(partyFile("KeepList", l))
		if err != nil {
			return p, err
		}
		if p.KeepList, err = boolsFromTree(t); err != nil {
			return p, err
		}
	}
	if d.exists(partyFile("Ciphertexts", l)) {
		t, err := d.readTree(partyFile("Ciphertexts", l))
		if err != nil {
			return p, err
		}
		if p.Ciphertexts, err = ciphertextsFromTree(t, grp); err != nil {
			return p, err
		}
	}
	if d.exists(partyFile("PoSCCommitment", l)) {
		ct, err := d.readTree(partyFile("PoSCCommitment", l))
		if err != nil {
			return p, err
		}
		rt, err := d.readTree(partyFile("PoSCReply", l))
		if err != nil {
			return p, err
		}
		commit, err := shuffleproof.PoSCCommitmentFromTree(ct, grp, n)
		if err != nil {
			return p, err
		}
		reply, err := shuffleproof.PoSCReplyFromTree(rt, grp, n)
		if err != nil {
			return p, err
		}
		p.PoSCCommit, p.PoSCReply = &commit, &reply
	}
	if d.exists(partyFile("CCPoSCommitment", l)) {
		ct, err := d.readTree(partyFile("CCPoSCommitment", l))
		if err != nil {
			return p, err
		}
		rt, err := d.readTree(partyFile("CCPoSReply", l))
		if err != nil {
			return p, err
		}
		commit, err := shuffleproof.CCPoSCommitmentFromTree(ct, grp, n)
		if err != nil {
			return p, err
		}
		reply, err := shuffleproof.CCPoSReplyFromTree(rt, grp, n)
		if err != nil {
			return p, err
		}
		p.CCPoSCommit, p.CCPoSReply = &commit, &reply
	}
	if d.exists(partyFile("PoSCommitment", l)) {
		ct, err := d.readTree(partyFile("PoSCommitment", l))
		if err != nil {
			return p, err
		}
		rt, err := d.readTree(partyFile("PoSReply", l))
		if err != nil {
			return p, err
		}
		commit, err := shuffleproof.PoSCommitmentFromTree(ct, grp, n)
		if err != nil {
			return p, err
		}
		reply, err := shuffleproof.CCPoSReplyFromTree(rt, grp, n)
		if err != nil {
			return p, err
		}
		p.PoSCommit, p.PoSReply = &commit, &reply
	}
	if d.exists(partyFile("DecFactors", l)) {
		t, err := d.readTree(partyFile("DecFactors", l))
		if err != nil {
			return p, err
		}
		if p.DecFactors, err = elementsFromTree(t, grp); err != nil {
			return p, err
		}
	}
	if d.exists(partyFile("DFCommitment", l)) {
		ct, err := d.readTree(partyFile("DFCommitment", l))
		if err != nil {
			return p, err
		}
		if ct.IsLeaf() || len(ct.Children) != 2 {
			return p, protoerr.NewInputFormatError("nizkp", "malformed DFCommitment")
		}
		commit, err := grp.FromBytes(ct.Children[0].Data)
		if err != nil {
			return p, err
		}
		dfCommit, err := grp.FromBytes(ct.Children[1].Data)
		if err != nil {
			return p, err
		}
		rt, err := d.readTree(partyFile("DFReply", l))
		if err != nil {
			return p, err
		}
		reply, err := grp.Ring().FromBytes(rt.Data)
		if err != nil {
			return p, err
		}
		p.DFProof = &dkg.CRProof{Commitment: commit, DFCommit: dfCommit, Reply: reply}
	}
	return p, nil
}

func ciphertextsTree(cs []dkg.Ciphertext) bytetree.Tree {
	children := make([]bytetree.Tree, len(cs))
	for i, c := range cs {
		children[i] = bytetree.Node(bytetree.Leaf(c.U.Bytes()), bytetree.Leaf(c.V.Bytes()))
	}
	return bytetree.Node(children...)
}

func ciphertextsFromTree(t bytetree.Tree, grp group.Group) ([]dkg.Ciphertext, error) {
	out := make([]dkg.Ciphertext, len(t.Children))
	for i, c := range t.Children {
		if c.IsLeaf() || len(c.Children) != 2 {
			return nil, protoerr.NewInputFormatError("nizkp", "malformed ciphertext")
		}
		u, err := grp.FromBytes(c.Children[0].Data)
		if err != nil {
			return nil, err
		}
		v, err := grp.FromBytes(c.Children[1].Data)
		if err != nil {
			return nil, err
		}
		out[i] = dkg.Ciphertext{U: u, V: v}
	}
	return out, nil
}

func elementsTree(es []group.Element) bytetree.Tree {
	children := make([]bytetree.Tree, len(es))
	for i, e := range es {
		children[i] = bytetree.Leaf(e.Bytes())
	}
	return bytetree.Node(children...)
}

func elementsFromTree(t bytetree.Tree, grp group.Group) ([]group.Element, error) {
	out := make([]group.Element, len(t.Children))
	for i, c := range t.Children {
		x, err := grp.FromBytes(c.Data)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func boolsTree(bs []bool) bytetree.Tree {
	data := make([]byte, len(bs))
	for i, b := range bs {
		if b {
			data[i] = 1
		}
	}
	return bytetree.Leaf(data)
}

func boolsFromTree(t bytetree.Tree) ([]bool, error) {
	if !t.IsLeaf() {
		return nil, protoerr.NewInputFormatError("nizkp", "malformed boolean mask")
	}
	out := make([]bool, len(t.Data))
	for i, b := range t.Data {
		out[i] = b != 0
	}
	return out, nil
}

// ElementsFromBytes decodes a bytetree-encoded group element list, the wire
// shape shuffle.Session publishes a party's permutation commitment in.
func ElementsFromBytes(raw []byte, grp group.Group) ([]group.Element, error) {
	t, err := bytetree.Decode(raw)
	if err != nil {
		return nil, err
	}
	return elementsFromTree(t, grp)
}

// CiphertextsFromBytes decodes a bytetree-encoded ciphertext list, the wire
// shape shuffle.Session publishes a party's shuffle output in.
func CiphertextsFromBytes(raw []byte, grp group.Group) ([]dkg.Ciphertext, error) {
	t, err := bytetree.Decode(raw)
	if err != nil {
		return nil, err
	}
	return ciphertextsFromTree(t, grp)
}

// PoSCProofFromBytes decodes a bytetree-encoded (commitment, reply) pair,
// the wire shape shuffle.Session publishes a standalone permutation-commitment
// shuffle proof in (the pre-computation path's PoSC, spec 4.H).
func PoSCProofFromBytes(raw []byte, grp group.Group, n int) (shuffleproof.PoSCCommitment, shuffleproof.PoSCReply, error) {
	t, err := bytetree.Decode(raw)
	if err != nil {
		return shuffleproof.PoSCCommitment{}, shuffleproof.PoSCReply{}, err
	}
	if t.IsLeaf() || len(t.Children) != 2 {
		return shuffleproof.PoSCCommitment{}, shuffleproof.PoSCReply{}, protoerr.NewInputFormatError("nizkp", "malformed PoSC proof")
	}
	commit, err := shuffleproof.PoSCCommitmentFromTree(t.Children[0], grp, n)
	if err != nil {
		return shuffleproof.PoSCCommitment{}, shuffleproof.PoSCReply{}, err
	}
	reply, err := shuffleproof.PoSCReplyFromTree(t.Children[1], grp, n)
	if err != nil {
		return shuffleproof.PoSCCommitment{}, shuffleproof.PoSCReply{}, err
	}
	return commit, reply, nil
}

// CCPoSProofFromBytes decodes a bytetree-encoded (commitment, reply) pair,
// the wire shape shuffle.Session publishes a committed-path shuffle proof
// in.
func CCPoSProofFromBytes(raw []byte, grp group.Group, n int) (shuffleproof.CCPoSCommitment, shuffleproof.CCPoSReply, error) {
	t, err := bytetree.Decode(raw)
	if err != nil {
		return shuffleproof.CCPoSCommitment{}, shuffleproof.CCPoSReply{}, err
	}
	if t.IsLeaf() || len(t.Children) != 2 {
		return shuffleproof.CCPoSCommitment{}, shuffleproof.CCPoSReply{}, protoerr.NewInputFormatError("nizkp", "malformed CCPoS proof")
	}
	commit, err := shuffleproof.CCPoSCommitmentFromTree(t.Children[0], grp, n)
	if err != nil {
		return shuffleproof.CCPoSCommitment{}, shuffleproof.CCPoSReply{}, err
	}
	reply, err := shuffleproof.CCPoSReplyFromTree(t.Children[1], grp, n)
	if err != nil {
		return shuffleproof.CCPoSCommitment{}, shuffleproof.CCPoSReply{}, err
	}
	return commit, reply, nil
}

// PoSProofFromBytes decodes a bytetree-encoded (commitment, reply) pair, the
// wire shape shuffle.Session publishes a fresh-path shuffle proof in.
func PoSProofFromBytes(raw []byte, grp group.Group, n int) (shuffleproof.PoSCommitment, shuffleproof.PoSReply, error) {
	t, err := bytetree.Decode(raw)
	if err != nil {
		return shuffleproof.PoSCommitment{}, shuffleproof.PoSReply{}, err
	}
	if t.IsLeaf() || len(t.Children) != 2 {
		return shuffleproof.PoSCommitment{}, shuffleproof.PoSReply{}, protoerr.NewInputFormatError("nizkp", "malformed PoS proof")
	}
	commit, err := shuffleproof.PoSCommitmentFromTree(t.Children[0], grp, n)
	if err != nil {
		return shuffleproof.PoSCommitment{}, shuffleproof.PoSReply{}, err
	}
	reply, err := shuffleproof.CCPoSReplyFromTree(t.Children[1], grp, n)
	if err != nil {
		return shuffleproof.PoSCommitment{}, shuffleproof.PoSReply{}, err
	}
	return commit, reply, nil
}
