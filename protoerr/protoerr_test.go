package protoerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInputFormatError(t *testing.T) {
	var err error = NewInputFormatError("nizkp", "truncated byte-tree")
	require.Contains(t, err.Error(), "nizkp")
	require.Contains(t, err.Error(), "truncated byte-tree")
	var target *InputFormatError
	require.True(t, errors.As(err, &target))
}

func TestProtocolError(t *testing.T) {
	var err error = NewProtocolError("dkg", "fewer than t correct decryption factors")
	require.Contains(t, err.Error(), "dkg")
	require.Contains(t, err.Error(), "fewer than t correct decryption factors")
	var target *ProtocolError
	require.True(t, errors.As(err, &target))
}

func TestProofRejected(t *testing.T) {
	var err error = NewProofRejected("shuffle", 3, "CCPoS verification failed")
	require.Contains(t, err.Error(), "shuffle")
	require.Contains(t, err.Error(), "3")
	require.Contains(t, err.Error(), "CCPoS verification failed")
	var target *ProofRejected
	require.True(t, errors.As(err, &target))
	require.Equal(t, 3, target.Party)
}

func TestExternalProofFailure(t *testing.T) {
	var err error = NewExternalProofFailure("blake3", "digest read failed")
	require.Contains(t, err.Error(), "blake3")
	require.Contains(t, err.Error(), "digest read failed")
	var target *ExternalProofFailure
	require.True(t, errors.As(err, &target))
}

func TestOperatorAbort(t *testing.T) {
	var err error = NewOperatorAbort("missing --force flag")
	require.Contains(t, err.Error(), "missing --force flag")
	var target *OperatorAbort
	require.True(t, errors.As(err, &target))
}
