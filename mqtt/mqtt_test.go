package mqtt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClient(t *testing.T) {
	connected := false
	c, err := New(Config{}, "bench-1", Handlers{OnConnect: func() { connected = true }})
	require.NoError(t, err)
	assert.False(t, c.IsEnabled())

	require.NoError(t, c.Connect())
	assert.True(t, connected)

	// Publishing and disconnecting are no-ops without a broker.
	c.PublishKnob(2)
	c.PublishTimer(true, "0h 5m")
	c.Ping()
	c.Disconnect()
}

func TestTopics(t *testing.T) {
	c, err := New(Config{}, "bench-1", Handlers{})
	require.NoError(t, err)
	assert.Equal(t, "worktimer/status/node/bench-1/knob", c.StatusTopic("knob"))
	assert.Equal(t, "worktimer/control/node/bench-1/command", c.CommandTopic())
}

func TestDispatchSplitsLines(t *testing.T) {
	var got []string
	c, err := New(Config{}, "bench-1", Handlers{OnCommand: func(line string) { got = append(got, line) }})
	require.NoError(t, err)

	c.dispatch([]byte("turn cw 2\n\n  press \r\nrelease"))
	assert.Equal(t, []string{"turn cw 2", "press", "release"}, got)
}

func TestEnabledClientBuildsWithoutConnecting(t *testing.T) {
	c, err := New(Config{Host: "localhost"}, "bench-1", Handlers{})
	require.NoError(t, err)
	assert.True(t, c.IsEnabled())
}

func TestBuildTLSConfigMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := New(Config{Host: "broker", CACert: filepath.Join(dir, "ca.pem")}, "bench-1", Handlers{})
	assert.Error(t, err)

	_, err = buildTLSConfig(Config{
		ClientCert: filepath.Join(dir, "cert.pem"),
		ClientKey:  filepath.Join(dir, "key.pem"),
	})
	assert.Error(t, err)
}
