package mixnet

import (
	"encoding/binary"
	"fmt"

	"github.com/tuneinsight-mixnet/mixnet/bytetree"
	"github.com/tuneinsight-mixnet/mixnet/dkg"
	"github.com/tuneinsight-mixnet/mixnet/group"
	"github.com/tuneinsight-mixnet/mixnet/protoerr"
)

// ByteTree encodes the manifest the way every other protocol artifact in
// this module is encoded (spec 4.L: "writes a proof-directory manifest"),
// so nizkp's independent verifier reads it with the same decoder it uses
// for every other byte-tree file.
func (m Manifest) ByteTree() bytetree.Tree {
	ciphertexts := func(cs []dkg.Ciphertext) bytetree.Tree {
		children := make([]bytetree.Tree, len(cs))
		for i, c := range cs {
			children[i] = bytetree.Node(bytetree.Leaf(c.U.Bytes()), bytetree.Leaf(c.V.Bytes()))
		}
		return bytetree.Node(children...)
	}
	elements := func(es []group.Element) bytetree.Tree {
		children := make([]bytetree.Tree, len(es))
		for i, e := range es {
			children[i] = bytetree.Leaf(e.Bytes())
		}
		return bytetree.Node(children...)
	}
	return bytetree.Node(
		bytetree.Leaf(uint64Bytes(uint64(m.Version))),
		bytetree.Leaf([]byte(m.Sid)),
		bytetree.Leaf([]byte(m.Auxsid)),
		bytetree.Leaf([]byte(m.Type)),
		bytetree.Leaf(uint64Bytes(uint64(m.Width))),
		ciphertexts(m.Input),
		ciphertexts(m.Intermediate),
		elements(m.Plaintexts),
	)
}

// ManifestFromByteTree decodes a Manifest written by ByteTree, resolving
// group elements against grp.
func ManifestFromByteTree(t bytetree.Tree, grp group.Group) (Manifest, error) {
	if t.IsLeaf() || len(t.Children) != 8 {
		return Manifest{}, protoerr.NewInputFormatError("mixnet", "malformed manifest")
	}
	input, err := decodeCiphertexts(t.Children[5], grp)
	if err != nil {
		return Manifest{}, fmt.Errorf("mixnet: decoding manifest input: %w", err)
	}
	intermediate, err := decodeCiphertexts(t.Children[6], grp)
	if err != nil {
		return Manifest{}, fmt.Errorf("mixnet: decoding manifest intermediate: %w", err)
	}
	plaintexts, err := decodeElements(t.Children[7], grp)
	if err != nil {
		return Manifest{}, fmt.Errorf("mixnet: decoding manifest plaintexts: %w", err)
	}
	return Manifest{
		Version:      int(uint64FromBytes(t.Children[0].Data)),
		Sid:          string(t.Children[1].Data),
		Auxsid:       string(t.Children[2].Data),
		Type:         ManifestType(t.Children[3].Data),
		Width:        int(uint64FromBytes(t.Children[4].Data)),
		Input:        input,
		Intermediate: intermediate,
		Plaintexts:   plaintexts,
	}, nil
}

func decodeCiphertexts(t bytetree.Tree, grp group.Group) ([]dkg.Ciphertext, error) {
	if t.IsLeaf() {
		return nil, protoerr.NewInputFormatError("mixnet", "malformed ciphertext list")
	}
	out := make([]dkg.Ciphertext, len(t.Children))
	for i, c := range t.Children {
		if c.IsLeaf() || len(c.Children) != 2 {
			return nil, protoerr.NewInputFormatError("mixnet", "malformed ciphertext")
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

func decodeElements(t bytetree.Tree, grp group.Group) ([]group.Element, error) {
	if t.IsLeaf() {
		return nil, protoerr.NewInputFormatError("mixnet", "malformed element list")
	}
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

func uint64Bytes(x uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, x)
	return b
}

func uint64FromBytes(b []byte) uint64 {
	var buf [8]byte
	copy(buf[8-len(b):], b)
	return binary.BigEndian.Uint64(buf[:])
}
