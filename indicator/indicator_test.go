package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/gpio"
)

func intPtr(v int) *int { return &v }

func TestNewNoop(t *testing.T) {
	ind, err := New(Config{}, gpio.NewSim())
	require.NoError(t, err)
	assert.IsType(t, &Noop{}, ind)
	assert.NoError(t, ind.Release())
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "laser", TimingPin: intPtr(23)}, gpio.NewSim())
	assert.Error(t, err)
}

func TestPinIndicator(t *testing.T) {
	sim := gpio.NewSim()
	ind, err := New(Config{Driver: "port", TimingPin: intPtr(23), LinkPin: intPtr(24)}, sim)
	require.NoError(t, err)

	ind.ConnectionLost()
	assert.False(t, sim.Level(23))
	assert.False(t, sim.Level(24))

	ind.Idle()
	assert.False(t, sim.Level(23))
	assert.True(t, sim.Level(24))

	ind.Timing()
	assert.True(t, sim.Level(23))
	assert.True(t, sim.Level(24))

	ind.ConnectionLost()
	assert.True(t, sim.Level(23))
	assert.False(t, sim.Level(24))

	require.NoError(t, ind.Release())
	assert.False(t, sim.Level(23))
}

type recorder struct {
	calls []string
}

func (r *recorder) Idle()           { r.calls = append(r.calls, "idle") }
func (r *recorder) Timing()         { r.calls = append(r.calls, "timing") }
func (r *recorder) ConnectionLost() { r.calls = append(r.calls, "lost") }
func (r *recorder) Shutdown()       { r.calls = append(r.calls, "shutdown") }
func (r *recorder) Release() error  { r.calls = append(r.calls, "release"); return nil }

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := &Multi{indicators: []Indicator{a, b}}
	m.Idle()
	m.Timing()
	m.ConnectionLost()
	m.Shutdown()
	require.NoError(t, m.Release())

	want := []string{"idle", "timing", "lost", "shutdown", "release"}
	assert.Equal(t, want, a.calls)
	assert.Equal(t, want, b.calls)
}
