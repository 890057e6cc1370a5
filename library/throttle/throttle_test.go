package throttle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{TotalPerHour: 1, EachPerHour: 1})
	require.Error(t, err)

	_, err = New(Config{TotalPerHour: 60, TotalBurst: 10, EachPerHour: 5, EachBurst: 3})
	require.NoError(t, err)
}

func TestAllow(t *testing.T) {
	th, err := New(Config{TotalPerHour: 1, TotalBurst: 4, EachPerHour: 1, EachBurst: 2})
	require.NoError(t, err)

	require.True(t, th.Allow("10.0.0.1"))
	require.True(t, th.Allow("10.0.0.1"))
	require.False(t, th.Allow("10.0.0.1"), "per key burst used up")

	require.True(t, th.Allow("10.0.0.2"))
	require.True(t, th.Allow("10.0.0.2"))
	require.False(t, th.Allow("10.0.0.3"), "total burst used up")
}
