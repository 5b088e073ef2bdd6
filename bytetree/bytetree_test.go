package bytetree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeafRoundTrip(t *testing.T) {
	tree := Leaf([]byte("hello"))
	decoded, err := Decode(Encode(tree))
	require.NoError(t, err)
	require.True(t, Equal(tree, decoded))
}

func TestNodeRoundTrip(t *testing.T) {
	tree := Node(Leaf([]byte("a")), Leaf([]byte("bb")), Node(Leaf([]byte("c"))))
	decoded, err := Decode(Encode(tree))
	require.NoError(t, err)
	require.True(t, Equal(tree, decoded))
}

func TestEmptyLeaf(t *testing.T) {
	tree := Leaf(nil)
	decoded, err := Decode(Encode(tree))
	require.NoError(t, err)
	require.True(t, decoded.IsLeaf())
	require.Empty(t, decoded.Data)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	tree := Node(Leaf([]byte("x")), Leaf([]byte("y")))
	enc := Encode(tree)
	_, err := Decode(enc[:len(enc)-1])
	require.Error(t, err)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	tree := Leaf([]byte("x"))
	enc := append(Encode(tree), 0xff)
	_, err := Decode(enc)
	require.Error(t, err)
}

func TestWriteToReadFrom(t *testing.T) {
	tree := Node(Leaf([]byte("p")), Leaf([]byte("q")))
	var buf bytes.Buffer
	_, err := WriteTo(&buf, tree)
	require.NoError(t, err)

	decoded, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.True(t, Equal(tree, decoded))
}

func TestLeafHelpers(t *testing.T) {
	s := LeafString("hi")
	str, ok := s.AsString()
	require.True(t, ok)
	require.Equal(t, "hi", str)

	u := LeafUint64(42)
	v, ok := u.AsUint64()
	require.True(t, ok)
	require.Equal(t, uint64(42), v)

	b := LeafBool(true)
	bv, ok := b.AsBool()
	require.True(t, ok)
	require.True(t, bv)
}

func TestEqualDistinguishesLeafVsNode(t *testing.T) {
	require.False(t, Equal(Leaf([]byte("x")), Node()))
}

func TestEqualDistinguishesContent(t *testing.T) {
	require.False(t, Equal(Leaf([]byte("x")), Leaf([]byte("y"))))
	require.False(t, Equal(Node(Leaf([]byte("x"))), Node(Leaf([]byte("x")), Leaf([]byte("y")))))
}
