package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindIndex(t *testing.T) {
	require.Equal(t, 1, FindIndex([]string{"blinky", "pinky", "pinky"}, "pinky"))
	require.Equal(t, -1, FindIndex([]string{"blinky"}, "clyde"))
	require.Equal(t, -1, FindIndex(nil, 3))
}

func TestCount(t *testing.T) {
	alive := func(b bool) bool { return b }
	require.Equal(t, 2, Count([]bool{true, false, true}, alive))
	require.Zero(t, Count(nil, alive))
}
