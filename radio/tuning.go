package radio

import (
	"fmt"
	"time"
)

// SeekDirection of a seek.
type SeekDirection int

//goland:noinspection GoUnusedConst
const (
	SeekDown SeekDirection = iota
	SeekUp
)

// SeekResult is where a seek stopped.
type SeekResult struct {
	Frequency uint16
	Valid     bool
	// BandLimit is set when the seek hit the band edge without finding a
	// station. It is not an error.
	BandLimit bool
	AFCRail   bool
}

func powerUpFunction(m Mode) uint8 {
	if m == ModeFM {
		return POWER_UP_FM
	}
	return POWER_UP_AM
}

// TuneOptions are applied to every tune. They are reset to automatic on a
// mode change since the capacitor range depends on the mode.
type TuneOptions struct {
	// AntennaCap is the tuning capacitor in steps of 250 fF, 0 picks it
	// automatically. FM accepts up to 191, AM and SSB up to 6143.
	AntennaCap uint16

	// Fast trades tuning accuracy for speed.
	Fast bool

	// Freeze keeps the FM metrics of the previous station until the tune
	// completes. FM only.
	Freeze bool
}

func tuneOpcodes(m Mode) (tune, status byte) {
	if m == ModeFM {
		return CMD_FM_TUNE_FREQ, CMD_FM_TUNE_STATUS
	}
	return CMD_AM_TUNE_FREQ, CMD_AM_TUNE_STATUS
}

func (s *Si4735Driver) validFrequency(mode Mode, freq uint16) error {
	if freq == 0 {
		return fmt.Errorf("%w: 0", ErrInvalidFrequency)
	}
	if mode == ModeFM && freq%5 != 0 {
		return fmt.Errorf("%w: FM frequency %d is not a multiple of 50 kHz", ErrInvalidFrequency, freq)
	}
	return nil
}

// SetFM switches to FM with the default band.
func (s *Si4735Driver) SetFM() error {
	return s.SetMode(ModeFM, nil)
}

// SetAM switches to AM (MW/SW) with the default band.
func (s *Si4735Driver) SetAM() error {
	return s.SetMode(ModeAM, nil)
}

// SetSSB switches to SSB on the given sideband. The firmware patch is
// downloaded first if it is not resident. Already in SSB, only the
// sideband changes.
func (s *Si4735Driver) SetSSB(sideband Sideband) error {
	if sideband != LSB && sideband != USB {
		return fmt.Errorf("unknown sideband %d", sideband)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.hs == nil {
		return ErrNotPoweredUp
	}
	if s.powered && s.mode == ModeSSB {
		if err := s.tune(ModeSSB, sideband, s.frequency); err != nil {
			return err
		}
		s.sideband = sideband
		return nil
	}
	return s.setMode(ModeSSB, sideband, SSBBand)
}

// SetMode switches the receiver to the mode and band. A nil band selects
// the default one. Switching between FM and AM/SSB power cycles the chip,
// which also drops a loaded patch. The volume is restored, RDS is reset
// and the receiver tunes to band.Initial.
func (s *Si4735Driver) SetMode(mode Mode, band *Band) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.hs == nil {
		return ErrNotPoweredUp
	}

	b := defaultBand(mode)
	if band != nil {
		b = *band
	}
	sideband := s.sideband
	if mode == ModeSSB && sideband == 0 {
		sideband = USB
	}
	return s.setMode(mode, sideband, b)
}

func (s *Si4735Driver) setMode(mode Mode, sideband Sideband, band Band) error {
	if band.Step == 0 || band.Bottom > band.Top {
		return fmt.Errorf("%w: band %d..%d step %d", ErrInvalidFrequency, band.Bottom, band.Top, band.Step)
	}
	if mode == ModeFM && (band.Step%5 != 0 || band.Bottom%5 != 0 || band.Top%5 != 0) {
		return fmt.Errorf("%w: FM band %d..%d step %d is off the 50 kHz grid", ErrInvalidFrequency, band.Bottom, band.Top, band.Step)
	}
	if err := s.validFrequency(mode, band.Initial); err != nil {
		return err
	}

	// AM and SSB share the patched firmware, no power cycle between them.
	sameFirmware := s.mode == mode || (s.patchLoaded && s.mode != ModeFM && mode != ModeFM)
	switch {
	case mode == ModeSSB && !s.patchLoaded:
		if s.patch == nil {
			return ErrPatchRequired
		}
		if err := s.loadPatch(s.patch); err != nil {
			return err
		}
	case !s.powered:
		if err := s.powerUp(powerUpFunction(mode)); err != nil {
			return err
		}
		s.enterFunction(mode)
	case !sameFirmware:
		if err := s.powerDown(); err != nil {
			return err
		}
		if err := s.powerUp(powerUpFunction(mode)); err != nil {
			return err
		}
		s.enterFunction(mode)
	}

	if s.debugMode {
		s.debugLog("Mode %s, band %d..%d step %d\n", mode, band.Bottom, band.Top, band.Step)
	}
	if mode != ModeSSB {
		sideband = 0
	}

	if err := s.setVolume(s.volume); err != nil {
		return err
	}

	switch mode {
	case ModeFM:
		if err := s.setSeekFMLimits(band.Bottom, band.Top); err != nil {
			return err
		}
		if err := s.setProperty(PROP_FM_SEEK_FREQ_SPACING, band.Step); err != nil {
			return err
		}
	case ModeAM:
		if err := s.setSeekAMLimits(band.Bottom, band.Top); err != nil {
			return err
		}
		if err := s.setProperty(PROP_AM_SEEK_FREQ_SPACING, band.Step); err != nil {
			return err
		}
	case ModeSSB:
		if err := s.pushSSBConfig(); err != nil {
			return err
		}
	}

	s.resetRDS()
	if s.mode != mode {
		s.tuneOpts = TuneOptions{}
	}
	if err := s.tune(mode, sideband, band.Initial); err != nil {
		return err
	}
	s.mode = mode
	s.band = band
	s.sideband = sideband
	return nil
}

// enterFunction records a chip powered up in the mode. Nothing is tuned
// yet, so the frequency and band of the previous mode are dropped.
func (s *Si4735Driver) enterFunction(mode Mode) {
	s.mode = mode
	s.band = Band{}
	s.frequency = 0
	s.lastTune = TuneStatus{}
	s.signal = SignalQuality{}
	s.tuneOpts = TuneOptions{}
}

// TuneTo tunes to the frequency, in 10 kHz units for FM and kHz for AM
// and SSB. The frequency is not clamped to the band. The current
// frequency is updated from the chip once the tune completed.
func (s *Si4735Driver) TuneTo(freq uint16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.tuneTo(freq)
}

func (s *Si4735Driver) tuneTo(freq uint16) error {
	return s.tune(s.mode, s.sideband, freq)
}

// tune tunes the chip, already powered in the function of mode. Only the
// frequency is updated, from the chip, once the tune completed.
func (s *Si4735Driver) tune(mode Mode, sideband Sideband, freq uint16) error {
	if !s.powered {
		return ErrNotPoweredUp
	}
	if err := s.validFrequency(mode, freq); err != nil {
		return err
	}

	hi, lo := split16(freq)
	opcode, _ := tuneOpcodes(mode)
	args := Values{"FREQH": hi, "FREQL": lo, "FAST": boolBit(s.tuneOpts.Fast)}
	if mode == ModeFM {
		args["FREEZE"] = boolBit(s.tuneOpts.Freeze)
		args["ANTCAP"] = uint8(s.tuneOpts.AntennaCap)
	} else {
		args["ANTCAPH"], args["ANTCAPL"] = split16(s.tuneOpts.AntennaCap)
	}
	if mode == ModeSSB {
		args["USBLSB"] = uint8(sideband)
	}
	cmd, err := Encode(opcode, args)
	if err != nil {
		return err
	}

	if s.debugMode {
		s.debugLog("Tuning into %d (%s)\n", freq, mode)
	}
	if err = s.hs.send(cmd); err != nil {
		return err
	}
	time.Sleep(s.tuneDelay)

	if err = s.waitTuneComplete(s.maxWait); err != nil {
		return err
	}
	ts, err := s.queryTuneStatus(mode, true)
	if err != nil {
		return err
	}
	s.frequency = ts.Frequency
	s.resetRDS()
	return nil
}

// SetTuneOptions sets the antenna capacitor and the tuning flags used from
// the next tune on.
func (s *Si4735Driver) SetTuneOptions(opts TuneOptions) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	limit := uint16(maxAntennaCapAM)
	if s.mode == ModeFM {
		limit = maxAntennaCapFM
	} else if opts.Freeze {
		return fmt.Errorf("%w: freeze in %s", ErrWrongMode, s.mode)
	}
	if opts.AntennaCap > limit {
		return fmt.Errorf("antenna capacitor %d is above %d in %s", opts.AntennaCap, limit, s.mode)
	}
	s.tuneOpts = opts
	return nil
}

// waitTuneComplete polls the interrupt status until STC is set.
func (s *Si4735Driver) waitTuneComplete(limit time.Duration) error {
	deadline := time.Now().Add(limit)
	for {
		resp, err := s.hs.exchange(Command{Opcode: CMD_GET_INT_STATUS}, 1)
		if err != nil {
			return err
		}
		if decodeStatus(resp[0]).TuneComplete {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: tune not complete after %s", ErrTimeout, limit)
		}
		time.Sleep(stcPollInterval)
	}
}

// queryTuneStatus reads the result of the last tune or seek. With intack
// the STC interrupt is cleared.
func (s *Si4735Driver) queryTuneStatus(mode Mode, intack bool) (TuneStatus, error) {
	_, opcode := tuneOpcodes(mode)
	cmd, err := Encode(opcode, Values{"INTACK": boolBit(intack)})
	if err != nil {
		return TuneStatus{}, err
	}
	v, err := s.query(cmd)
	if err != nil {
		return TuneStatus{}, err
	}
	ts := newTuneStatus(opcode, v)
	s.lastTune = ts
	if s.debugMode {
		s.debugLog("Curr freq: %d valid: %v RSSI: %d dBuV SNR: %d dB\n", ts.Frequency, ts.Valid, ts.RSSI, ts.SNR)
	}
	return ts, nil
}

// Seek looks for the next valid station in the direction. With wrap the
// seek continues from the other band edge, otherwise it stops at the edge
// and reports BandLimit. Seek is not available in SSB.
func (s *Si4735Driver) Seek(dir SeekDirection, wrap bool) (SeekResult, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return SeekResult{}, ErrNotPoweredUp
	}

	opcode := byte(CMD_FM_SEEK_START)
	switch s.mode {
	case ModeAM:
		opcode = CMD_AM_SEEK_START
	case ModeSSB:
		return SeekResult{}, fmt.Errorf("%w: seek in %s", ErrWrongMode, s.mode)
	}

	cmd, err := Encode(opcode, Values{
		"SEEKUP": boolBit(dir == SeekUp),
		"WRAP":   boolBit(wrap),
	})
	if err != nil {
		return SeekResult{}, err
	}
	if err = s.hs.send(cmd); err != nil {
		return SeekResult{}, err
	}
	time.Sleep(s.tuneDelay)

	if err = s.waitTuneComplete(s.seekMaxWait); err != nil {
		return SeekResult{}, err
	}
	ts, err := s.queryTuneStatus(s.mode, true)
	if err != nil {
		return SeekResult{}, err
	}
	s.frequency = ts.Frequency
	s.resetRDS()

	return SeekResult{
		Frequency: ts.Frequency,
		Valid:     ts.Valid,
		BandLimit: ts.BandLimit,
		AFCRail:   ts.AFCRail,
	}, nil
}

// SeekUp seeks up, wrapping at the band edge.
func (s *Si4735Driver) SeekUp() (SeekResult, error) {
	return s.Seek(SeekUp, true)
}

// SeekDown seeks down, wrapping at the band edge.
func (s *Si4735Driver) SeekDown() (SeekResult, error) {
	return s.Seek(SeekDown, true)
}

// StepUp tunes one step up. Past the top of the band it goes to the bottom.
func (s *Si4735Driver) StepUp() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	next := s.frequency + s.band.Step
	if s.frequency >= s.band.Top || next > s.band.Top {
		next = s.band.Bottom
	}
	return s.tuneTo(next)
}

// StepDown tunes one step down. Past the bottom of the band it goes to
// the top.
func (s *Si4735Driver) StepDown() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	next := s.band.Top
	if s.frequency > s.band.Bottom && s.frequency-s.band.Bottom >= s.band.Step {
		next = s.frequency - s.band.Step
	}
	return s.tuneTo(next)
}

// SetFrequencyStep changes the step used by StepUp and StepDown.
func (s *Si4735Driver) SetFrequencyStep(step uint16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if step == 0 || (s.mode == ModeFM && step%5 != 0) {
		return fmt.Errorf("%w: step %d", ErrInvalidFrequency, step)
	}
	s.band.Step = step
	return nil
}

// CurrentFrequency is the frequency read back after the last tune or seek.
func (s *Si4735Driver) CurrentFrequency() uint16 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.frequency
}

// Mode is the current receiver mode.
func (s *Si4735Driver) Mode() Mode {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.mode
}

// Band is the current band.
func (s *Si4735Driver) Band() Band {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.band
}

// QueryStatus reads the tune status without acknowledging STC.
func (s *Si4735Driver) QueryStatus() (TuneStatus, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return TuneStatus{}, ErrNotPoweredUp
	}
	return s.queryTuneStatus(s.mode, false)
}

// QueryFrequency reads the current frequency from the chip.
func (s *Si4735Driver) QueryFrequency() (uint16, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return 0, ErrNotPoweredUp
	}
	ts, err := s.queryTuneStatus(s.mode, false)
	if err != nil {
		return 0, err
	}
	s.frequency = ts.Frequency
	return ts.Frequency, nil
}

// QuerySignalQuality reads RSSI, SNR and the other signal metrics. The
// previous snapshot is replaced as a whole.
func (s *Si4735Driver) QuerySignalQuality() (SignalQuality, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return SignalQuality{}, ErrNotPoweredUp
	}
	opcode := byte(CMD_AM_RSQ_STATUS)
	if s.mode == ModeFM {
		opcode = CMD_FM_RSQ_STATUS
	}
	cmd, err := Encode(opcode, Values{})
	if err != nil {
		return SignalQuality{}, err
	}
	v, err := s.query(cmd)
	if err != nil {
		return SignalQuality{}, err
	}
	s.signal = newSignalQuality(v)
	return s.signal, nil
}

// QueryAGC reads the AGC state and gain index.
func (s *Si4735Driver) QueryAGC() (AGCStatus, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return AGCStatus{}, ErrNotPoweredUp
	}
	opcode := byte(CMD_AM_AGC_STATUS)
	if s.mode == ModeFM {
		opcode = CMD_FM_AGC_STATUS
	}
	v, err := s.query(Command{Opcode: opcode})
	if err != nil {
		return AGCStatus{}, err
	}
	return newAGCStatus(v), nil
}

// SetAGC enables the AGC or, when disabled, forces the gain index
// (0 is minimum attenuation).
func (s *Si4735Driver) SetAGC(enabled bool, index uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return ErrNotPoweredUp
	}
	opcode := byte(CMD_AM_AGC_OVERRIDE)
	if s.mode == ModeFM {
		opcode = CMD_FM_AGC_OVERRIDE
	}
	cmd, err := Encode(opcode, Values{"AGCDIS": boolBit(!enabled), "AGCIDX": index})
	if err != nil {
		return err
	}
	return s.hs.send(cmd)
}

// QueryLibraryID asks the chip which patch library it accepts. The chip
// is power cycled for that and put back in the current mode afterwards.
func (s *Si4735Driver) QueryLibraryID() (LibraryID, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.hs == nil {
		return LibraryID{}, ErrNotPoweredUp
	}
	wasPowered := s.powered

	id, err := s.queryLibraryID()
	if err != nil {
		return LibraryID{}, err
	}
	if err = s.powerDown(); err != nil {
		return id, err
	}
	if !wasPowered {
		return id, nil
	}

	band := s.band
	band.Initial = s.frequency
	if band.Step == 0 || band.Initial == 0 {
		band = defaultBand(s.mode)
	}
	return id, s.setMode(s.mode, s.sideband, band)
}

// queryLibraryID leaves the chip waiting for a POWER_UP.
func (s *Si4735Driver) queryLibraryID() (LibraryID, error) {
	if s.powered {
		if err := s.powerDown(); err != nil {
			return LibraryID{}, err
		}
	}

	resp, err := s.hs.exchange(s.powerUpCommand(POWER_UP_QUERY, false), libraryIDLayout.Size)
	if err != nil {
		return LibraryID{}, err
	}
	v, err := libraryIDLayout.Unpack(resp)
	if err != nil {
		return LibraryID{}, err
	}
	id := newLibraryID(v)
	if s.debugMode {
		s.debugLog("Library ID %d, part Si47%02d rev %c\n", id.LibraryID, id.PartNumber, id.ChipRevision)
	}
	return id, nil
}
