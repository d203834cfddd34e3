package radio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPatch is two chunks, each starting like the real patch lines do.
var testPatch = BytesPatch{
	0x15, 0x00, 0x0F, 0xE0, 0xF2, 0x73, 0x76, 0x2F,
	0x16, 0x50, 0x8F, 0x32, 0x7D, 0xDA, 0x0A, 0x1E,
}

func TestLoadPatch(t *testing.T) {
	d, chip := newStartedDriver(t, testConfig())

	require.NoError(t, d.LoadPatch(testPatch))
	assert.Equal(t, []byte(testPatch), chip.patch)
	assert.True(t, d.PatchLoaded())
	assert.Equal(t, ModeAM, d.Mode())
	assert.Equal(t, uint16(810), d.CurrentFrequency())
	assert.Equal(t, uint8(POWER_UP_AM), chip.function)
	assert.Equal(t, 1, chip.sent(CMD_POWER_DOWN))
	// library query and patched power up
	assert.Equal(t, 3, chip.sent(CMD_POWER_UP))
}

func TestLoadPatchInvalid(t *testing.T) {
	d, chip := newStartedDriver(t, testConfig())

	assert.ErrorIs(t, d.LoadPatch(BytesPatch{}), ErrInvalidPatch)
	assert.ErrorIs(t, d.LoadPatch(testPatch[:7]), ErrInvalidPatch)
	assert.Error(t, d.LoadPatch(FilePatch(filepath.Join(t.TempDir(), "missing.h"))))

	assert.False(t, d.PatchLoaded())
	assert.Equal(t, ModeFM, d.Mode())
	assert.Zero(t, chip.sent(CMD_POWER_DOWN))
}

func TestSetSSB(t *testing.T) {
	adaptor, chip := NewI2cTestAdaptor()
	d, err := NewSi4735Driver(adaptor, testConfig())
	require.NoError(t, err)
	require.NoError(t, d.Start())

	assert.ErrorIs(t, d.SetSSB(USB), ErrPatchRequired)
	assert.Equal(t, ModeFM, d.Mode())

	require.NoError(t, d.LoadPatch(testPatch))
	require.NoError(t, d.SetSSB(USB))

	// AM to SSB keeps the patch, no power cycle
	assert.Equal(t, 1, chip.sent(CMD_POWER_DOWN))
	st := d.State()
	assert.Equal(t, ModeSSB, st.Mode)
	assert.Equal(t, USB, st.Sideband)
	assert.Equal(t, SSBBand, st.Band)
	assert.Equal(t, uint16(7100), st.Frequency)
	assert.Equal(t, uint16(0x9F11), chip.props[PROP_SSB_MODE])
	assert.True(t, bytes.Contains(adaptor.written, []byte{CMD_AM_TUNE_FREQ, 0x80, 0x1B, 0xBC}))

	require.NoError(t, d.SetSSB(LSB))
	assert.Equal(t, LSB, d.State().Sideband)
	assert.True(t, bytes.Contains(adaptor.written, []byte{CMD_AM_TUNE_FREQ, 0x40, 0x1B, 0xBC}))
	assert.Error(t, d.SetSSB(Sideband(3)))

	_, err = d.SeekUp()
	assert.ErrorIs(t, err, ErrWrongMode)

	sq, err := d.QuerySignalQuality()
	require.NoError(t, err)
	assert.Equal(t, uint8(30), sq.RSSI)
}

func TestSetSSBTimeoutKeepsSideband(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeSSB
	cfg.Patch = testPatch
	d, chip := newStartedDriver(t, cfg)
	require.Equal(t, USB, d.State().Sideband)

	chip.silent = true
	assert.ErrorIs(t, d.SetSSB(LSB), ErrTimeout)
	st := d.State()
	assert.Equal(t, USB, st.Sideband)
	assert.Equal(t, uint16(7100), st.Frequency)

	chip.silent = false
	require.NoError(t, d.SetSSB(LSB))
	assert.Equal(t, LSB, d.State().Sideband)
}

func TestSSBReloadsPatchAfterPowerCycle(t *testing.T) {
	d, chip := newStartedDriver(t, testConfig())
	require.NoError(t, d.LoadPatch(testPatch))
	require.NoError(t, d.SetSSB(USB))

	require.NoError(t, d.SetFM())
	assert.False(t, d.PatchLoaded())
	assert.Equal(t, uint8(POWER_UP_FM), chip.function)

	require.NoError(t, d.SetSSB(USB))
	assert.True(t, d.PatchLoaded())
	assert.Equal(t, ModeSSB, d.Mode())
	assert.Len(t, chip.patch, 2*len(testPatch))
}

func TestStartInSSB(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeSSB
	cfg.Sideband = LSB
	cfg.Frequency = 14200
	cfg.Patch = testPatch
	d, chip := newStartedDriver(t, cfg)

	st := d.State()
	assert.Equal(t, ModeSSB, st.Mode)
	assert.Equal(t, LSB, st.Sideband)
	assert.Equal(t, uint16(14200), st.Frequency)
	assert.True(t, st.PatchLoaded)
	assert.Equal(t, []byte(testPatch), chip.patch)
}

func TestSSBProperties(t *testing.T) {
	d, chip := newStartedDriver(t, testConfig())
	require.NoError(t, d.LoadPatch(testPatch))
	require.NoError(t, d.SetSSB(USB))

	require.NoError(t, d.SetSSBBfo(-100))
	assert.Equal(t, uint16(0xFF9C), chip.props[PROP_SSB_BFO])

	require.NoError(t, d.SetSSBAudioBandwidth(3))
	assert.Equal(t, uint16(0x9F13), chip.props[PROP_SSB_MODE])
	require.NoError(t, d.SetSSBDspAfc(true))
	assert.Equal(t, uint16(0x1F13), chip.props[PROP_SSB_MODE])
	require.NoError(t, d.SetSSBAutomaticVolumeControl(false))
	assert.Equal(t, uint16(0x0F13), chip.props[PROP_SSB_MODE])
	require.NoError(t, d.SetSSBAvcDivider(0))
	require.NoError(t, d.SetSSBSidebandCutoffFilter(0))
	require.NoError(t, d.SetSSBSoftMuteOnSNR(true))
	assert.Equal(t, uint16(0x2003), chip.props[PROP_SSB_MODE])
	assert.Equal(t, SSBConfig{AudioBandwidth: 3, SoftMuteOnSNR: true}, d.SSBConfig())

	require.NoError(t, d.SetSSBConfig(DefaultSSBConfig))
	assert.Equal(t, uint16(0x9F11), chip.props[PROP_SSB_MODE])
	assert.Equal(t, DefaultSSBConfig, d.SSBConfig())

	require.NoError(t, d.SetSSBSoftMuteMaxAttenuation(6))
	assert.Equal(t, uint16(6), chip.props[PROP_SSB_SOFT_MUTE_MAX_ATTENUATION])
	require.NoError(t, d.SetAvcAmMaxGain(38))
	assert.Equal(t, uint16(38*340), chip.props[PROP_AM_AUTOMATIC_VOLUME_CONTROL_MAX_GAIN])

	assert.ErrorIs(t, d.SetBandwidth(1, false), ErrWrongMode)
}

func TestFilePatch(t *testing.T) {
	dir := t.TempDir()

	header := filepath.Join(dir, "patch_init.h")
	content := "const uint8_t ssb_patch_content[] PROGMEM = {\n" +
		"    0x15, 0x00, 0x0F, 0xE0, 0xF2, 0x73, 0x76, 0x2F,\n" +
		"    0x16, 0x50, 0x8F, 0x32, 0x7D, 0xDA, 0x0A, 0x1E};\n"
	require.NoError(t, os.WriteFile(header, []byte(content), 0o644))

	blob, err := FilePatch(header).Patch()
	require.NoError(t, err)
	assert.Equal(t, []byte(testPatch), blob)

	raw := filepath.Join(dir, "patch.bin")
	require.NoError(t, os.WriteFile(raw, testPatch, 0o644))
	blob, err = FilePatch(raw).Patch()
	require.NoError(t, err)
	assert.Equal(t, []byte(testPatch), blob)

	d, chip := newStartedDriver(t, testConfig())
	require.NoError(t, d.LoadPatch(FilePatch(header)))
	assert.Equal(t, []byte(testPatch), chip.patch)
}
