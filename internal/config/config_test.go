package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, 9600, cfg.BaudRate)
	assert.Equal(t, 3, cfg.MaxTries)
	require.NoError(t, cfg.Validate())
}

func TestLoadNonexistentReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Device, cfg.Device)
}

func TestLoadValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	toml := `
device = "/dev/ttyACM0"
baud_rate = 9600
retry_interval_ms = 2500
max_tries = 5
poll_interval_ms = 50
queue_capacity = 512
dictionary_path = "/etc/stenod/dict.json"

[logging]
level = "debug"
format = "json"
output = "stdout"
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Device)
	assert.Equal(t, 5, cfg.MaxTries)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not valid = [toml"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = ""
	cfg.MaxTries = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs, 3)
}

func TestValidateRejectsUnknownProtocol(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Protocol = "bogus"

	err := cfg.Validate()
	require.Error(t, err)
	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs, 1)
	assert.Equal(t, "protocol", verrs[0].Field)
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Device = "/dev/ttyOther"
	assert.NotEqual(t, cfg.Device, clone.Device)
}
