package radio

import (
	"fmt"
	"time"
)

// SSBConfig is the content of the SSB_MODE property.
type SSBConfig struct {
	// AudioBandwidth: 0 = 1.2 kHz, 1 = 2.2 kHz, 2 = 3 kHz, 3 = 4 kHz,
	// 4 = 500 Hz, 5 = 1 kHz.
	AudioBandwidth uint8
	// SidebandCutoffFilter: 0 = band pass, 1 = low pass.
	SidebandCutoffFilter uint8
	AVCDivider           uint8
	AVCEnabled           bool
	// SoftMuteOnSNR selects SNR instead of RSSI to drive the soft mute.
	SoftMuteOnSNR bool
	DisableAFC    bool
}

// DefaultSSBConfig is 2.2 kHz, low pass cutoff filter, AVC on with
// divider 15 and the DSP AFC off.
var DefaultSSBConfig = SSBConfig{
	AudioBandwidth:       1,
	SidebandCutoffFilter: 1,
	AVCDivider:           15,
	AVCEnabled:           true,
	DisableAFC:           true,
}

func (c SSBConfig) values() Values {
	return Values{
		"AUDIOBW":     c.AudioBandwidth,
		"SBCUTFLT":    c.SidebandCutoffFilter,
		"AVC_DIVIDER": c.AVCDivider,
		"AVCEN":       boolBit(c.AVCEnabled),
		"SMUTESEL":    boolBit(c.SoftMuteOnSNR),
		"DSP_AFCDIS":  boolBit(c.DisableAFC),
	}
}

// DigitalFormat is the content of the DIGITAL_OUTPUT_FORMAT property.
type DigitalFormat struct {
	// Size: 0 = 16 bit, 1 = 20 bit, 2 = 24 bit, 3 = 8 bit.
	Size uint8
	Mono bool
	// Mode: 0 = I2S, 6 = left justified, 8 = MSB at second DCLK, 12 = MSB at first DCLK.
	Mode        uint8
	FallingEdge bool
}

// BlendThreshold selects one of the FM stereo/mono blend thresholds.
type BlendThreshold int

//goland:noinspection GoUnusedConst
const (
	BlendStereo BlendThreshold = iota
	BlendMono
	BlendRSSIStereo
	BlendRSSIMono
	BlendSNRStereo
	BlendSNRMono
	BlendMultipathStereo
	BlendMultipathMono
)

var blendProperties = map[BlendThreshold]uint16{
	BlendStereo:          PROP_FM_BLEND_STEREO_THRESHOLD,
	BlendMono:            PROP_FM_BLEND_MONO_THRESHOLD,
	BlendRSSIStereo:      PROP_FM_BLEND_RSSI_STEREO_THRESHOLD,
	BlendRSSIMono:        PROP_FM_BLEND_RSSI_MONO_THRESHOLD,
	BlendSNRStereo:       PROP_FM_BLEND_SNR_STEREO_THRESHOLD,
	BlendSNRMono:         PROP_FM_BLEND_SNR_MONO_THRESHOLD,
	BlendMultipathStereo: PROP_FM_BLEND_MULTIPATH_STEREO_THRESHOLD,
	BlendMultipathMono:   PROP_FM_BLEND_MULTIPATH_MONO_THRESHOLD,
}

// RSSI blend thresholds, 127 forces mono.
const (
	blendRSSIStereoDefault = 49
	blendRSSIMonoDefault   = 30
	blendForceMono         = 127
)

// Set chip property over I2C.
func (s *Si4735Driver) setProperty(property uint16, value uint16) error {
	if s.debugMode {
		s.debugLog("Set Prop 0x%x = 0x%x (%d)\n", property, value, value)
	}
	if err := s.hs.send(setPropertyCommand(property, value)); err != nil {
		return fmt.Errorf("property 0x%04x: %w", property, err)
	}
	time.Sleep(propertyDelay)
	return nil
}

func (s *Si4735Driver) setBitProperty(property uint16, v Values) error {
	value, err := PackProperty(property, v)
	if err != nil {
		return err
	}
	return s.setProperty(property, value)
}

func (s *Si4735Driver) requireMode(op string, modes ...Mode) error {
	if !s.powered {
		return ErrNotPoweredUp
	}
	for _, m := range modes {
		if s.mode == m {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrWrongMode, op, s.mode)
}

// SetProperty writes a raw property value. Nothing is checked beyond the
// 16-bit width.
func (s *Si4735Driver) SetProperty(property, value uint16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	return s.setProperty(property, value)
}

// GetProperty reads a raw property value.
func (s *Si4735Driver) GetProperty(property uint16) (uint16, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return 0, ErrNotPoweredUp
	}
	ph, pl := split16(property)
	cmd, err := Encode(CMD_GET_PROPERTY, Values{"PROPH": ph, "PROPL": pl})
	if err != nil {
		return 0, err
	}
	v, err := s.query(cmd)
	if err != nil {
		return 0, err
	}
	return join16(v["VALH"], v["VALL"]), nil
}

// SetVolume sets the output volume. Values above 63 are clamped.
func (s *Si4735Driver) SetVolume(volume uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	return s.setVolume(volume)
}

func (s *Si4735Driver) setVolume(volume uint8) error {
	if volume > MAX_VOLUME {
		volume = MAX_VOLUME
	}
	if err := s.setProperty(PROP_RX_VOLUME, uint16(volume)); err != nil {
		return err
	}
	s.volume = volume
	return nil
}

// VolumeUp raises the volume by one, stopping at 63.
func (s *Si4735Driver) VolumeUp() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	if s.volume >= MAX_VOLUME {
		return s.setVolume(MAX_VOLUME)
	}
	return s.setVolume(s.volume + 1)
}

// VolumeDown lowers the volume by one, stopping at 0.
func (s *Si4735Driver) VolumeDown() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	if s.volume == 0 {
		return s.setVolume(0)
	}
	return s.setVolume(s.volume - 1)
}

// Volume is the last volume written.
func (s *Si4735Driver) Volume() uint8 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.volume
}

// SetAudioMute mutes or unmutes both audio outputs.
func (s *Si4735Driver) SetAudioMute(mute bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	value := uint16(0)
	if mute {
		value = hardMuteBoth
	}
	return s.setProperty(PROP_RX_HARD_MUTE, value)
}

// SetBandwidth selects the AM channel filter: 0 = 6 kHz, 1 = 4 kHz,
// 2 = 3 kHz, 3 = 2 kHz, 4 = 1 kHz, 5 = 1.8 kHz, 6 = 2.5 kHz. Other codes
// are reserved and sent as they are. powerLineFilter enables the 50/60 Hz
// noise filter.
func (s *Si4735Driver) SetBandwidth(filter uint8, powerLineFilter bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("bandwidth", ModeAM); err != nil {
		return err
	}
	return s.setBitProperty(PROP_AM_CHANNEL_FILTER, Values{
		"AMCHFLT": filter,
		"AMPLFLT": boolBit(powerLineFilter),
	})
}

// SetSSBConfig writes the whole SSB_MODE property.
func (s *Si4735Driver) SetSSBConfig(cfg SSBConfig) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("SSB config", ModeSSB); err != nil {
		return err
	}
	s.ssb = cfg
	return s.pushSSBConfig()
}

// SSBConfig returns the last SSB_MODE written.
func (s *Si4735Driver) SSBConfig() SSBConfig {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.ssb
}

func (s *Si4735Driver) pushSSBConfig() error {
	return s.setBitProperty(PROP_SSB_MODE, s.ssb.values())
}

func (s *Si4735Driver) updateSSBConfig(update func(c *SSBConfig)) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("SSB config", ModeSSB); err != nil {
		return err
	}
	update(&s.ssb)
	return s.pushSSBConfig()
}

// SetSSBAudioBandwidth changes only the SSB audio bandwidth.
func (s *Si4735Driver) SetSSBAudioBandwidth(bw uint8) error {
	return s.updateSSBConfig(func(c *SSBConfig) { c.AudioBandwidth = bw })
}

// SetSSBSidebandCutoffFilter changes only the sideband cutoff filter.
func (s *Si4735Driver) SetSSBSidebandCutoffFilter(filter uint8) error {
	return s.updateSSBConfig(func(c *SSBConfig) { c.SidebandCutoffFilter = filter })
}

// SetSSBAvcDivider changes only the AVC divider.
func (s *Si4735Driver) SetSSBAvcDivider(divider uint8) error {
	return s.updateSSBConfig(func(c *SSBConfig) { c.AVCDivider = divider })
}

// SetSSBAutomaticVolumeControl turns the SSB AVC on or off.
func (s *Si4735Driver) SetSSBAutomaticVolumeControl(on bool) error {
	return s.updateSSBConfig(func(c *SSBConfig) { c.AVCEnabled = on })
}

// SetSSBSoftMuteOnSNR selects SNR (true) or RSSI (false) for the soft mute.
func (s *Si4735Driver) SetSSBSoftMuteOnSNR(snr bool) error {
	return s.updateSSBConfig(func(c *SSBConfig) { c.SoftMuteOnSNR = snr })
}

// SetSSBDspAfc turns the DSP AFC on or off.
func (s *Si4735Driver) SetSSBDspAfc(on bool) error {
	return s.updateSSBConfig(func(c *SSBConfig) { c.DisableAFC = !on })
}

// SetSSBBfo sets the beat frequency offset in Hz.
func (s *Si4735Driver) SetSSBBfo(offset int16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("BFO", ModeSSB); err != nil {
		return err
	}
	return s.setProperty(PROP_SSB_BFO, uint16(offset))
}

// SetAMSoftMuteMaxAttenuation sets the AM soft mute attenuation in dB, 0 disables it.
func (s *Si4735Driver) SetAMSoftMuteMaxAttenuation(db uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("soft mute", ModeAM); err != nil {
		return err
	}
	return s.setProperty(PROP_AM_SOFT_MUTE_MAX_ATTENUATION, uint16(db))
}

// SetSSBSoftMuteMaxAttenuation sets the SSB soft mute attenuation in dB, 0 disables it.
func (s *Si4735Driver) SetSSBSoftMuteMaxAttenuation(db uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("soft mute", ModeSSB); err != nil {
		return err
	}
	return s.setProperty(PROP_SSB_SOFT_MUTE_MAX_ATTENUATION, uint16(db))
}

// SetAvcAmMaxGain sets the AM automatic volume control maximum gain,
// clamped to 12..90 dB.
func (s *Si4735Driver) SetAvcAmMaxGain(gain uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("AVC gain", ModeAM, ModeSSB); err != nil {
		return err
	}
	if gain < 12 {
		gain = 12
	} else if gain > 90 {
		gain = 90
	}
	return s.setProperty(PROP_AM_AUTOMATIC_VOLUME_CONTROL_MAX_GAIN, uint16(gain)*340)
}

// SetFMBlendThreshold sets one of the stereo/mono blend thresholds.
func (s *Si4735Driver) SetFMBlendThreshold(kind BlendThreshold, value uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	prop, ok := blendProperties[kind]
	if !ok {
		return fmt.Errorf("unknown blend threshold %d", kind)
	}
	if err := s.requireMode("blend threshold", ModeFM); err != nil {
		return err
	}
	return s.setProperty(prop, uint16(value))
}

// SetFMStereo allows stereo (default thresholds) or forces mono.
func (s *Si4735Driver) SetFMStereo(on bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("stereo", ModeFM); err != nil {
		return err
	}
	stereo, mono := uint16(blendRSSIStereoDefault), uint16(blendRSSIMonoDefault)
	if !on {
		stereo, mono = blendForceMono, blendForceMono
	}
	if err := s.setProperty(PROP_FM_BLEND_RSSI_STEREO_THRESHOLD, stereo); err != nil {
		return err
	}
	return s.setProperty(PROP_FM_BLEND_RSSI_MONO_THRESHOLD, mono)
}

// SetFMDeemphasis sets the de-emphasis: 1 = 50 µs (Europe), 2 = 75 µs (USA).
func (s *Si4735Driver) SetFMDeemphasis(value uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("de-emphasis", ModeFM); err != nil {
		return err
	}
	return s.setProperty(PROP_FM_DEEMPHASIS, uint16(value))
}

// SetDigitalOutputFormat configures the digital audio output. The chip
// must have been powered up with a digital OPMODE.
func (s *Si4735Driver) SetDigitalOutputFormat(f DigitalFormat) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	return s.setBitProperty(PROP_DIGITAL_OUTPUT_FORMAT, Values{
		"OSIZE": f.Size,
		"OMONO": boolBit(f.Mono),
		"OMODE": f.Mode,
		"OFALL": boolBit(f.FallingEdge),
	})
}

// SetDigitalOutputSampleRate sets the digital output rate in Hz, 0 turns it off.
func (s *Si4735Driver) SetDigitalOutputSampleRate(hz uint16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	return s.setProperty(PROP_DIGITAL_OUTPUT_SAMPLE_RATE, hz)
}

// SetSeekAMLimits sets the AM seek band, in kHz.
func (s *Si4735Driver) SetSeekAMLimits(bottom, top uint16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("seek limits", ModeAM); err != nil {
		return err
	}
	return s.setSeekAMLimits(bottom, top)
}

func (s *Si4735Driver) setSeekAMLimits(bottom, top uint16) error {
	if err := s.setProperty(PROP_AM_SEEK_BAND_BOTTOM, bottom); err != nil {
		return err
	}
	return s.setProperty(PROP_AM_SEEK_BAND_TOP, top)
}

func (s *Si4735Driver) setSeekFMLimits(bottom, top uint16) error {
	if err := s.setProperty(PROP_FM_SEEK_BAND_BOTTOM, bottom); err != nil {
		return err
	}
	return s.setProperty(PROP_FM_SEEK_BAND_TOP, top)
}

// SetSeekAMSpacing sets the AM seek spacing in kHz (1, 5, 9 or 10).
func (s *Si4735Driver) SetSeekAMSpacing(spacing uint16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("seek spacing", ModeAM); err != nil {
		return err
	}
	return s.setProperty(PROP_AM_SEEK_FREQ_SPACING, spacing)
}

// SetSeekSNRThreshold sets the minimum SNR, in dB, of a valid AM channel.
func (s *Si4735Driver) SetSeekSNRThreshold(db uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("seek threshold", ModeAM); err != nil {
		return err
	}
	return s.setProperty(PROP_AM_SEEK_SNR_THRESHOLD, uint16(db))
}

// SetSeekRSSIThreshold sets the minimum RSSI, in dBµV, of a valid AM channel.
func (s *Si4735Driver) SetSeekRSSIThreshold(dbuv uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("seek threshold", ModeAM); err != nil {
		return err
	}
	return s.setProperty(PROP_AM_SEEK_RSSI_THRESHOLD, uint16(dbuv))
}
