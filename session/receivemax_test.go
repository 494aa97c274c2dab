package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReceiveMaxDefaultsTo65535(t *testing.T) {
	r := NewReceiveMax(0)
	require.Equal(t, uint16(65535), r.Limit())
}

func TestReceiveMaxReserveAndRelease(t *testing.T) {
	r := NewReceiveMax(2)
	require.NoError(t, r.Reserve())
	require.NoError(t, r.Reserve())
	require.Error(t, r.Reserve())

	r.Release()
	require.NoError(t, r.Reserve())
}

func TestReceiveMaxReleaseBelowZeroIsNoop(t *testing.T) {
	r := NewReceiveMax(5)
	r.Release()
	require.Equal(t, uint16(0), r.Outstanding())
}
