// Package bytetree implements the canonical, length-prefixed byte-tree
// encoding used to serialize every protocol object in this module (spec
// component 4.A). A byte-tree is either a leaf (a length-prefixed byte
// string) or an inner node (a length-prefixed sequence of child byte-trees).
// Every cryptographic object has exactly one canonical encoding; encoding and
// decoding form a bijection on the object's semantic value, independent of
// construction order. All Fiat-Shamir hashing, PRG seeding, and on-disk
// proof-directory artifacts are built on top of this codec.
package bytetree

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	tagLeaf = byte(0)
	tagNode = byte(1)
)

// Tree is a byte-tree value: either a Leaf (Children == nil) or an inner
// Node (Data == nil, Children holds the ordered child trees).
type Tree struct {
	Data     []byte
	Children []Tree
}

// Leaf constructs a leaf byte-tree wrapping b. The slice is not copied; callers
// must not mutate it after passing it in.
func Leaf(b []byte) Tree {
	return Tree{Data: b}
}

// Node constructs an inner byte-tree from an ordered list of children.
func Node(children ...Tree) Tree {
	if children == nil {
		children = []Tree{}
	}
	return Tree{Children: children}
}

// IsLeaf reports whether t is a leaf.
func (t Tree) IsLeaf() bool {
	return t.Children == nil
}

// Encoder is implemented by every protocol object that has a canonical
// byte-tree representation.
type Encoder interface {
	ByteTree() Tree
}

// Encode returns the canonical wire encoding of t: a 1-byte tag (0 for leaf,
// 1 for node), a 4-byte big-endian length (byte length for a leaf, child
// count for a node), followed by the payload.
func Encode(t Tree) []byte {
	var buf []byte
	buf = appendTree(buf, t)
	return buf
}

func appendTree(buf []byte, t Tree) []byte {
	if t.IsLeaf() {
		buf = append(buf, tagLeaf)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(t.Data)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, t.Data...)
		return buf
	}
	buf = append(buf, tagNode)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(t.Children)))
	buf = append(buf, lenBuf[:]...)
	for _, c := range t.Children {
		buf = appendTree(buf, c)
	}
	return buf
}

// Decode parses the canonical encoding produced by Encode. decode(encode(x))
// reproduces x exactly: the returned Tree equals the input Tree by
// structural comparison.
func Decode(b []byte) (Tree, error) {
	t, rest, err := decodeTree(b)
	if err != nil {
		return Tree{}, err
	}
	if len(rest) != 0 {
		return Tree{}, fmt.Errorf("bytetree: %d trailing bytes after decode", len(rest))
	}
	return t, nil
}

func decodeTree(b []byte) (Tree, []byte, error) {
	if len(b) < 5 {
		return Tree{}, nil, fmt.Errorf("bytetree: truncated header")
	}
	tag := b[0]
	n := binary.BigEndian.Uint32(b[1:5])
	rest := b[5:]
	switch tag {
	case tagLeaf:
		if uint64(len(rest)) < uint64(n) {
			return Tree{}, nil, fmt.Errorf("bytetree: leaf truncated")
		}
		data := make([]byte, n)
		copy(data, rest[:n])
		return Tree{Data: data}, rest[n:], nil
	case tagNode:
		children := make([]Tree, 0, n)
		for i := uint32(0); i < n; i++ {
			var c Tree
			var err error
			c, rest, err = decodeTree(rest)
			if err != nil {
				return Tree{}, nil, fmt.Errorf("bytetree: child %d: %w", i, err)
			}
			children = append(children, c)
		}
		return Tree{Children: children}, rest, nil
	default:
		return Tree{}, nil, fmt.Errorf("bytetree: unknown tag %d", tag)
	}
}

// WriteTo writes the canonical encoding of t to w and returns the number of
// bytes written.
func WriteTo(w io.Writer, t Tree) (int64, error) {
	b := Encode(t)
	n, err := w.Write(b)
	return int64(n), err
}

// ReadFrom reads the canonical encoding of exactly one byte-tree from r.
func ReadFrom(r io.Reader) (Tree, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Tree{}, fmt.Errorf("bytetree: reading: %w", err)
	}
	return Decode(b)
}

// Equal reports whether two byte-trees are structurally and semantically
// identical.
func Equal(a, b Tree) bool {
	if a.IsLeaf() != b.IsLeaf() {
		return false
	}
	if a.IsLeaf() {
		if len(a.Data) != len(b.Data) {
			return false
		}
		for i := range a.Data {
			if a.Data[i] != b.Data[i] {
				return false
			}
		}
		return true
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
