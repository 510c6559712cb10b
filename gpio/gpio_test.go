package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSim(t *testing.T) {
	p, err := New(Config{Type: "sim"})
	require.NoError(t, err)
	assert.IsType(t, &Sim{}, p)

	_, err = New(Config{Type: "bitbang"})
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	assert.True(t, matches(EdgeBoth, true))
	assert.True(t, matches(EdgeBoth, false))
	assert.True(t, matches(EdgeRising, true))
	assert.False(t, matches(EdgeRising, false))
	assert.True(t, matches(EdgeFalling, false))
	assert.False(t, matches(EdgeFalling, true))
	assert.False(t, matches(EdgeNone, true))
}

func TestUnionEdge(t *testing.T) {
	assert.Equal(t, EdgeRising, unionEdge(EdgeNone, EdgeRising))
	assert.Equal(t, EdgeFalling, unionEdge(EdgeFalling, EdgeNone))
	assert.Equal(t, EdgeRising, unionEdge(EdgeRising, EdgeRising))
	assert.Equal(t, EdgeBoth, unionEdge(EdgeRising, EdgeFalling))
	assert.Equal(t, EdgeBoth, unionEdge(EdgeBoth, EdgeFalling))
}

func TestSimPullSetsIdleLevel(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.Configure(1, Input, PullUp))
	require.NoError(t, s.Configure(2, Input, PullDown))
	require.NoError(t, s.Configure(3, Input, PullNone))

	for pin, want := range map[int]bool{1: true, 2: false, 3: false} {
		got, err := s.Read(pin)
		require.NoError(t, err)
		assert.Equal(t, want, got, "pin %d", pin)
	}
}

func TestSimErrors(t *testing.T) {
	s := NewSim()
	assert.ErrorIs(t, s.Configure(-1, Input, PullUp), ErrInvalidPin)

	_, err := s.Read(4)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, s.Watch(4, EdgeBoth, func() {}), ErrNotConfigured)
	assert.ErrorIs(t, s.Drive(4, true), ErrNotConfigured)

	require.NoError(t, s.Configure(4, Input, PullUp))
	assert.Error(t, s.Set(4, false), "Set on an input")

	boom := errors.New("boom")
	s.FailReads(4, boom)
	_, err = s.Read(4)
	assert.ErrorIs(t, err, boom)
	s.FailReads(4, nil)
	_, err = s.Read(4)
	assert.NoError(t, err)
}

func TestSimWatchFiresOnMatchingEdges(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.Configure(7, Input, PullUp))

	var rising, falling, both int
	require.NoError(t, s.Watch(7, EdgeRising, func() { rising++ }))
	require.NoError(t, s.Watch(7, EdgeFalling, func() { falling++ }))
	require.NoError(t, s.Watch(7, EdgeBoth, func() { both++ }))

	require.NoError(t, s.Drive(7, true)) // no change, no edge
	require.NoError(t, s.Drive(7, false))
	require.NoError(t, s.Drive(7, true))
	require.NoError(t, s.Drive(7, false))

	assert.Equal(t, 1, rising)
	assert.Equal(t, 2, falling)
	assert.Equal(t, 3, both)
}

func TestSimHandlerMayReadPort(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.Configure(1, Input, PullDown))
	require.NoError(t, s.Configure(2, Input, PullDown))

	var seen []bool
	require.NoError(t, s.Watch(1, EdgeBoth, func() {
		v, err := s.Read(1)
		require.NoError(t, err)
		seen = append(seen, v)
	}))
	require.NoError(t, s.DrivePair(1, true, 2, true))
	assert.Equal(t, []bool{true}, seen)
	assert.True(t, s.Level(2))
}

func TestSimOutput(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.Configure(9, Output, PullNone))
	require.NoError(t, s.Set(9, true))
	assert.True(t, s.Level(9))

	require.NoError(t, s.Close())
	assert.Error(t, s.Configure(10, Input, PullNone))
}
