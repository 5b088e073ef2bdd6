package parray

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewActiveSetAllActive(t *testing.T) {
	s := NewActiveSet(3)
	require.Equal(t, []int{1, 2, 3}, s.Members())
	require.Equal(t, 3, s.Size())
	require.True(t, s.IsActive(1))
}

func TestDeactivateReactivate(t *testing.T) {
	s := NewActiveSet(3)
	require.NoError(t, s.Deactivate(2))
	require.False(t, s.IsActive(2))
	require.Equal(t, []int{1, 3}, s.Members())
	require.Equal(t, 2, s.Size())

	require.NoError(t, s.Reactivate(2))
	require.True(t, s.IsActive(2))
	require.Equal(t, []int{1, 2, 3}, s.Members())
}

func TestDeactivateRejectsOutOfRange(t *testing.T) {
	s := NewActiveSet(3)
	require.Error(t, s.Deactivate(0))
	require.Error(t, s.Deactivate(4))
}

func TestReactivateRejectsOutOfRange(t *testing.T) {
	s := NewActiveSet(3)
	require.Error(t, s.Reactivate(0))
	require.Error(t, s.Reactivate(4))
}

func TestMeetsThreshold(t *testing.T) {
	s := NewActiveSet(3)
	require.True(t, s.MeetsThreshold(2))
	require.NoError(t, s.Deactivate(1))
	require.NoError(t, s.Deactivate(2))
	require.False(t, s.MeetsThreshold(2))
	require.True(t, s.MeetsThreshold(1))
}
