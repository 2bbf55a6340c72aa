package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, 9600, cfg.Baud)
	assert.Equal(t, "1111111111111111", cfg.DlmsPassword)
	assert.Equal(t, uint8(0x41), cfg.ClientSAP)
	assert.Equal(t, uint8(0x03), cfg.ServerSAP)
	assert.Equal(t, 256, cfg.MaxFrameSize)
	assert.Equal(t, 60, cfg.Collect.ReadIntervalS)
	assert.Equal(t, 5, cfg.Collect.MaxConsecutiveErrors)
	assert.False(t, cfg.MQTT.Enabled)

	s := cfg.SessionSettings()
	assert.Equal(t, 2*time.Second, s.CommandTimeout)
	assert.Equal(t, 500*time.Millisecond, s.DTRWakeDelay)
	assert.Equal(t, []byte("1111111111111111"), s.Password)

	ser := cfg.SerialSettings()
	assert.Equal(t, 9600, ser.BaudRate)
}

func TestFileOverrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "meterlink.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
device: /dev/ttyAMA1
baud: 19200
dlms_password: "0000000011111111"
command_timeout_ms: 750
collect:
  read_interval_s: 300
mqtt:
  enabled: true
  host: broker.example.net
`), 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA1", cfg.Device)
	assert.Equal(t, 19200, cfg.Baud)
	assert.Equal(t, 300, cfg.Collect.ReadIntervalS)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "broker.example.net", cfg.MQTT.Host)
	assert.Equal(t, 750*time.Millisecond, cfg.SessionSettings().CommandTimeout)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("METERLINK_BAUD", "4800")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4800, cfg.Baud)
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("dlms_password: short\n"), 0o644))
	_, err := Load(file)
	assert.Error(t, err)

	file2 := filepath.Join(dir, "bad2.yaml")
	require.NoError(t, os.WriteFile(file2, []byte("max_frame_size: 64\n"), 0o644))
	_, err = Load(file2)
	assert.Error(t, err)
}
