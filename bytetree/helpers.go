package bytetree

import "encoding/binary"

// LeafString encodes an ASCII/UTF-8 string as a leaf.
func LeafString(s string) Tree {
	return Leaf([]byte(s))
}

// LeafUint64 encodes an unsigned integer as an 8-byte big-endian leaf.
func LeafUint64(v uint64) Tree {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return Leaf(b[:])
}

// LeafInt encodes a non-negative int the same way as LeafUint64.
func LeafInt(v int) Tree {
	return LeafUint64(uint64(v))
}

// LeafBool encodes a boolean as a single-byte leaf (1 for true, 0 for false).
func LeafBool(v bool) Tree {
	if v {
		return Leaf([]byte{1})
	}
	return Leaf([]byte{0})
}

// AsString decodes a leaf produced by LeafString.
func (t Tree) AsString() (string, bool) {
	if !t.IsLeaf() {
		return "", false
	}
	return string(t.Data), true
}

// AsUint64 decodes a leaf produced by LeafUint64.
func (t Tree) AsUint64() (uint64, bool) {
	if !t.IsLeaf() || len(t.Data) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(t.Data), true
}

// AsBool decodes a leaf produced by LeafBool.
func (t Tree) AsBool() (bool, bool) {
	if !t.IsLeaf() || len(t.Data) != 1 {
		return false, false
	}
	return t.Data[0] != 0, true
}

// ElementsOf encodes a slice of byte-tree encodable values as an inner node.
func ElementsOf[T Encoder](xs []T) Tree {
	children := make([]Tree, len(xs))
	for i, x := range xs {
		children[i] = x.ByteTree()
	}
	return Node(children...)
}
