//go:build linux

package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiocdev"
)

// These tests exercise the bookkeeping around lines; no chip is opened.

func TestCdevEventDispatch(t *testing.T) {
	c, err := NewCdev("", 0)
	require.NoError(t, err)
	assert.Equal(t, "gpiochip0", c.chip)

	var rising, falling int
	c.watchers[5] = []simWatch{
		{edge: EdgeRising, handler: func() { rising++ }},
		{edge: EdgeFalling, handler: func() { falling++ }},
	}
	c.handleEvent(gpiocdev.LineEvent{Offset: 5, Type: gpiocdev.LineEventRisingEdge})
	c.handleEvent(gpiocdev.LineEvent{Offset: 5, Type: gpiocdev.LineEventRisingEdge})
	c.handleEvent(gpiocdev.LineEvent{Offset: 5, Type: gpiocdev.LineEventFallingEdge})
	c.handleEvent(gpiocdev.LineEvent{Offset: 6, Type: gpiocdev.LineEventFallingEdge})
	assert.Equal(t, 2, rising)
	assert.Equal(t, 1, falling)
}

func TestCdevCloseReleasesState(t *testing.T) {
	c, err := NewCdev("gpiochip1", 0)
	require.NoError(t, err)

	fired := 0
	c.lines[5] = &cdevLine{dir: Input}
	c.watchers[5] = []simWatch{{edge: EdgeBoth, handler: func() { fired++ }}}

	// Handlers that read the port during Close must not block on it.
	done := make(chan struct{})
	c.mu.Lock()
	go func() {
		defer close(done)
		c.handleEvent(gpiocdev.LineEvent{Offset: 5, Type: gpiocdev.LineEventRisingEdge})
	}()
	<-done
	c.mu.Unlock()
	assert.Equal(t, 1, fired)

	require.NoError(t, c.Close())
	assert.Empty(t, c.lines)

	_, err = c.Read(5)
	assert.ErrorIs(t, err, ErrNotConfigured)
	c.handleEvent(gpiocdev.LineEvent{Offset: 5, Type: gpiocdev.LineEventFallingEdge})
	assert.Equal(t, 1, fired)
}
