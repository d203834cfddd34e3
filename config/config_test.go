package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fmreceiver/radio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receiver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	s := Default()
	s.normalize()
	require.NoError(t, s.Validate())

	cfg := s.DriverConfig(func(string, ...interface{}) {})
	assert.Equal(t, radio.ModeFM, cfg.Mode)
	// the driver starts on the default frequency of the mode
	assert.Zero(t, cfg.Frequency)
	assert.False(t, cfg.Muted)
	assert.Equal(t, uint8(radio.ANALOG_AUDIO), cfg.AudioMode)
	assert.True(t, cfg.RDS)
	assert.Nil(t, cfg.ReadySignal)
	assert.Nil(t, cfg.Patch)
	assert.Equal(t, 40*time.Millisecond, s.RDSPollInterval())
	assert.Equal(t, time.Millisecond, s.InterruptInterval())

	// zero durations are left for the driver defaults
	require.NoError(t, cfg.Validate())
	assert.Equal(t, radio.DefaultMaxWait, cfg.MaxWait)
}

func TestLoad(t *testing.T) {
	path := writeSettings(t, `
receiver:
  bus: 1
  address: 0x11
  interruptPin: "31"
  mode: SSB
  sideband: lsb
  frequency: 7074
  volume: 50
  muted: true
  patchFile: /etc/si4735/ssb_patch.h
  audioMode: digital2
  debug: true
  timing:
    maxWaitMs: 800
    pollIntervalUs: 500
    seekMaxWaitMs: 15000
display:
  enabled: false
logging:
  file: /var/log/fmreceiver.log
  maxSize: 5
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ssb", s.Receiver.Mode)
	assert.False(t, s.Display.Enabled)
	assert.Equal(t, 3, s.Logging.MaxBackups)
	assert.Len(t, s.I2COptions(), 2)

	cfg := s.DriverConfig(func(string, ...interface{}) {})
	assert.Equal(t, radio.ModeSSB, cfg.Mode)
	assert.Equal(t, radio.LSB, cfg.Sideband)
	assert.Equal(t, uint16(7074), cfg.Frequency)
	assert.Equal(t, uint8(50), cfg.Volume)
	assert.True(t, cfg.Muted)
	assert.Equal(t, uint8(radio.DIGITAL_AUDIO2), cfg.AudioMode)
	assert.Equal(t, radio.FilePatch("/etc/si4735/ssb_patch.h"), cfg.Patch)
	assert.NotNil(t, cfg.ReadySignal)
	assert.True(t, cfg.DebugMode)
	assert.NotNil(t, cfg.DebugLog)
	assert.Equal(t, 800*time.Millisecond, cfg.MaxWait)
	assert.Equal(t, 500*time.Microsecond, cfg.PollInterval)
	assert.Equal(t, 15*time.Second, cfg.SeekMaxWait)
	require.NoError(t, cfg.Validate())
}

func TestLoadModeOnly(t *testing.T) {
	s, err := Load(writeSettings(t, "receiver:\n  mode: am\n"))
	require.NoError(t, err)

	cfg := s.DriverConfig(func(string, ...interface{}) {})
	assert.Equal(t, radio.ModeAM, cfg.Mode)
	assert.Zero(t, cfg.Frequency)
	require.NoError(t, cfg.Validate())
	assert.Zero(t, cfg.Frequency)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeSettings(t, "receiver: [nope"))
	assert.Error(t, err)

	_, err = Load(writeSettings(t, `
receiver:
  mode: wb
  sideband: dsb
  audioMode: loud
  volume: 70
  address: 0x42
  timing:
    rdsPollMs: -1
    maxWaitMs: -5
logging:
  console: false
`))
	require.Error(t, err)
	for _, msg := range []string{
		`receiver.mode "wb"`,
		`receiver.sideband "dsb"`,
		`receiver.audioMode "loud"`,
		"receiver.volume 70",
		"receiver.address 0x42",
		"rdsPollMs must be positive",
		"timing.maxWaitMs cannot be negative",
		"logging needs a file or the console",
	} {
		assert.Contains(t, err.Error(), msg)
	}

	_, err = Load(writeSettings(t, "receiver:\n  mode: ssb\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), radio.ErrPatchRequired.Error())

	_, err = Load(writeSettings(t, "receiver:\n  frequency: 9553\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receiver.frequency 9553")
}

func TestLoggingOutput(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "receiver.log")
	out := LoggingSettings{File: file, MaxSize: 1}.Output()

	_, err := out.Write([]byte("tuned to 103.90 MHz\n"))
	require.NoError(t, err)
	require.NoError(t, out.Close())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "tuned to 103.90 MHz\n", string(content))

	console := LoggingSettings{}.Output()
	assert.NoError(t, console.Close())
}
