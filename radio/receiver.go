// Package radio implements a gobot driver for the Silicon Labs Si4735
// AM/FM/SW/SSB receiver. The SSB mode needs a firmware patch that is
// downloaded into the chip RAM, see LoadPatch.
//
// The main implementation is under the Si4735Driver and it requires
// some additional configuration via the Si4735Config structure.
//
// The command set, properties and timings follow the programming guide:
// https://www.silabs.com/documents/public/application-notes/AN332.pdf
// https://www.silabs.com/documents/public/data-sheets/Si4730-31-34-35-D60.pdf
package radio

import (
	"fmt"
	"sync"
	"time"

	"fmreceiver/rds"

	"github.com/hashicorp/go-multierror"
	gords "github.com/mschoch/go-rds"
	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/gpio"
	"gobot.io/x/gobot/drivers/i2c"
)

// Mode is the receiver function.
type Mode int

//goland:noinspection GoUnusedConst
const (
	ModeFM Mode = iota
	ModeAM
	ModeSSB
)

func (m Mode) String() string {
	switch m {
	case ModeFM:
		return "FM"
	case ModeAM:
		return "AM"
	case ModeSSB:
		return "SSB"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Sideband selects the SSB demodulation.
type Sideband uint8

//goland:noinspection GoUnusedConst
const (
	LSB Sideband = 1
	USB Sideband = 2
)

func (s Sideband) String() string {
	switch s {
	case LSB:
		return "LSB"
	case USB:
		return "USB"
	default:
		return "none"
	}
}

// Band is the frequency range used by a mode. FM frequencies are in 10 kHz
// units, AM and SSB in kHz.
type Band struct {
	Bottom  uint16
	Top     uint16
	Initial uint16
	Step    uint16
}

func (b Band) contains(freq uint16) bool {
	return freq >= b.Bottom && freq <= b.Top
}

// Default bands.
var (
	FMBand  = Band{Bottom: 8750, Top: 10800, Initial: 10390, Step: 10}
	AMBand  = Band{Bottom: 520, Top: 1710, Initial: 810, Step: 10}
	SSBBand = Band{Bottom: 1800, Top: 30000, Initial: 7100, Step: 1}
)

func defaultBand(m Mode) Band {
	switch m {
	case ModeAM:
		return AMBand
	case ModeSSB:
		return SSBBand
	default:
		return FMBand
	}
}

// State is a copy of what the driver knows about the receiver.
type State struct {
	Powered     bool
	Mode        Mode
	Sideband    Sideband
	Band        Band
	Frequency   uint16
	Volume      uint8
	PatchLoaded bool
	LastTune    TuneStatus
	Signal      SignalQuality
}

// FormatFrequency renders a frequency in the unit of the mode, like
// "103.90 MHz" for FM or "7100 kHz" for AM and SSB.
func FormatFrequency(m Mode, freq uint16) string {
	if m == ModeFM {
		return fmt.Sprintf("%d.%02d MHz", freq/100, freq%100)
	}
	return fmt.Sprintf("%d kHz", freq)
}

// Si4735Driver holds the implementation to talk to the
// Silicon Labs Si4735 receiver.
//
//goland:noinspection GoUnnecessarilyExportedIdentifiers
type Si4735Driver struct {
	resetPin string

	conn         i2c.Connection
	i2cConnector i2c.Connector
	i2c.Config

	hs    *handshake
	ready *ReadySignal

	debugMode bool
	debugLog  func(format string, v ...interface{})
	log       func(format string, v ...interface{})

	name          string
	audioMode     uint8
	externalClock bool
	powerUpDelay  time.Duration
	tuneDelay     time.Duration
	pollInterval  time.Duration
	maxWait       time.Duration
	seekMaxWait   time.Duration
	startMode     Mode
	startSideband Sideband
	startFreq     uint16
	startVolume   uint8
	startMuted    bool
	rdsOnStart    bool

	// mtx serializes the public operations, each of them may issue
	// several commands.
	mtx         sync.Mutex
	powered     bool
	mode        Mode
	sideband    Sideband
	band        Band
	frequency   uint16
	volume      uint8
	patch       PatchSource
	patchLoaded bool
	ssb         SSBConfig
	lastTune    TuneStatus
	signal      SignalQuality
	firmware    FirmwareInfo
	tuneOpts    TuneOptions

	rds    *rds.Assembler
	rawRDS *gords.RDSInfo
}

// Name of our device.
func (s *Si4735Driver) Name() string {
	return s.name
}

// SetName set the name of our device.
func (s *Si4735Driver) SetName(name string) {
	s.name = name
}

// Start connects to the receiver, resets it and powers it up in the
// configured mode.
func (s *Si4735Driver) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	bus := s.GetBusOrDefault(s.i2cConnector.GetDefaultBus())
	addr := s.GetAddressOrDefault(Address)
	var err error
	s.conn, err = s.i2cConnector.GetConnection(addr, bus)
	if err != nil {
		return err
	}
	s.hs = &handshake{
		bus:          s.conn,
		ready:        s.ready,
		pollInterval: s.pollInterval,
		maxWait:      s.maxWait,
		debugMode:    s.debugMode,
		debugLog:     s.debugLog,
	}

	if err = s.reset(); err != nil {
		return err
	}

	band := defaultBand(s.startMode)
	if s.startFreq != 0 {
		band.Initial = s.startFreq
	}
	s.volume = s.startVolume
	if err = s.setMode(s.startMode, s.startSideband, band); err != nil {
		return err
	}

	if s.firmware, err = s.getRev(); err != nil {
		return err
	}
	if s.debugMode {
		s.debugLog("Found %s\n", s.firmware)
	}

	if s.startMuted {
		if err = s.setProperty(PROP_RX_HARD_MUTE, hardMuteBoth); err != nil {
			return err
		}
	}
	if s.startMode == ModeFM && s.rdsOnStart {
		return s.rdsInit()
	}
	return nil
}

// Halt powers the receiver down and holds it in reset. The receiver state
// goes back to the defaults.
func (s *Si4735Driver) Halt() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var result *multierror.Error
	if s.powered {
		result = multierror.Append(result, s.powerDown())
	}
	if dw, ok := s.i2cConnector.(gpio.DigitalWriter); ok && s.resetPin != "" {
		result = multierror.Append(result, dw.DigitalWrite(s.resetPin, low))
	}
	s.clearState()
	return result.ErrorOrNil()
}

func (s *Si4735Driver) clearState() {
	s.powered = false
	s.patchLoaded = false
	s.enterFunction(s.startMode)
	s.sideband = 0
	s.volume = s.startVolume
	s.ssb = DefaultSSBConfig
	s.resetRDS()
}

// Connection retrieves the i2c connection to the device.
func (s *Si4735Driver) Connection() gobot.Connection {
	return s.i2cConnector.(gobot.Connection)
}

// State returns a copy of the receiver state.
func (s *Si4735Driver) State() State {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return State{
		Powered:     s.powered,
		Mode:        s.mode,
		Sideband:    s.sideband,
		Band:        s.band,
		Frequency:   s.frequency,
		Volume:      s.volume,
		PatchLoaded: s.patchLoaded,
		LastTune:    s.lastTune,
		Signal:      s.signal,
	}
}

// FirmwareInfo reads the part number and firmware revision using CMD_GET_REV.
func (s *Si4735Driver) FirmwareInfo() (FirmwareInfo, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.powered {
		return FirmwareInfo{}, ErrNotPoweredUp
	}
	info, err := s.getRev()
	if err != nil {
		return FirmwareInfo{}, err
	}
	s.firmware = info
	return info, nil
}

// Resets the registers to default settings.
func (s *Si4735Driver) reset() (err error) {
	if s.resetPin == "" {
		return nil
	}
	dw, ok := s.i2cConnector.(gpio.DigitalWriter)
	if !ok {
		return fmt.Errorf("i2c connector does not have a digital writter capability")
	}

	if err = dw.DigitalWrite(s.resetPin, low); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)

	if err = dw.DigitalWrite(s.resetPin, high); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)

	s.powered = false
	s.patchLoaded = false
	return nil
}

func (s *Si4735Driver) powerUpCommand(fn uint8, patch bool) Command {
	cmd, _ := Encode(CMD_POWER_UP, Values{
		"FUNC":    fn,
		"XOSCEN":  boolBit(!s.externalClock),
		"PATCH":   boolBit(patch),
		"GPO2OEN": boolBit(s.ready != nil),
		"CTSIEN":  boolBit(s.ready != nil),
		"OPMODE":  s.audioMode,
	})
	return cmd
}

// Sends the power up command for the function and waits for the
// oscillator to settle.
func (s *Si4735Driver) powerUp(fn uint8) error {
	if s.debugMode {
		s.debugLog("Power up, function %d\n", fn)
	}
	if err := s.hs.send(s.powerUpCommand(fn, false)); err != nil {
		return err
	}
	time.Sleep(s.powerUpDelay)
	s.powered = true
	return nil
}

// Turn off the device. A loaded patch is lost.
func (s *Si4735Driver) powerDown() error {
	if err := s.hs.send(Command{Opcode: CMD_POWER_DOWN}); err != nil {
		return err
	}
	s.powered = false
	s.patchLoaded = false
	return nil
}

// Get the hardware revision code from the device using CMD_GET_REV.
func (s *Si4735Driver) getRev() (FirmwareInfo, error) {
	v, err := s.query(Command{Opcode: CMD_GET_REV})
	if err != nil {
		return FirmwareInfo{}, err
	}
	return newFirmwareInfo(v), nil
}

// query sends the command and decodes the full response.
func (s *Si4735Driver) query(cmd Command) (Values, error) {
	size, err := ResponseSize(cmd.Opcode)
	if err != nil {
		return nil, err
	}
	resp, err := s.hs.exchange(cmd, size)
	if err != nil {
		return nil, err
	}
	return DecodeResponse(cmd.Opcode, resp)
}

// Si4735Config holds the additional configuration needed for Si4735Driver.
type Si4735Config struct {
	// ResetPin is the pin wired to RST. Empty skips the reset.
	ResetPin string

	// ReadySignal, if set, is notified by whatever watches the INT pin
	// (GPO2). The driver then enables the CTS interrupt and waits on the
	// signal instead of polling.
	ReadySignal *ReadySignal

	// AudioMode is the POWER_UP OPMODE, ANALOG_AUDIO by default.
	AudioMode     uint8
	ExternalClock bool

	Mode     Mode
	Sideband Sideband

	// Frequency zero starts on the default frequency of the mode.
	Frequency uint16

	// Volume zero is replaced by DEFAULT_VOLUME. Use Muted to start
	// silent.
	Volume uint8
	Muted  bool
	RDS    bool

	// Patch is used to enter SSB mode. It is downloaded again after
	// every power cycle.
	Patch PatchSource

	PowerUpDelay time.Duration
	TuneDelay    time.Duration
	PollInterval time.Duration
	MaxWait      time.Duration
	SeekMaxWait  time.Duration

	DebugMode bool
	DebugLog  func(format string, v ...interface{})
	Log       func(format string, v ...interface{})
}

// Validate ensures that our Si4735Driver configuration is valid.
// Zero durations and volume are replaced by the defaults.
//
//goland:noinspection GoUnnecessarilyExportedIdentifiers
func (c *Si4735Config) Validate() error {
	if c.Log == nil {
		panic("logging function cannot be nil. Use something like log.Printf or an empty function instead")
	}
	if c.DebugMode && c.DebugLog == nil {
		panic("cannot use debugging mode without configuring a DebugLog function, e.g. log.Printf")
	}

	if c.AudioMode == 0 {
		c.AudioMode = ANALOG_AUDIO
	}
	if c.PowerUpDelay == 0 {
		c.PowerUpDelay = DefaultPowerUpDelay
	}
	if c.TuneDelay == 0 {
		c.TuneDelay = DefaultTuneDelay
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.SeekMaxWait == 0 {
		c.SeekMaxWait = DefaultSeekMaxWait
	}
	if c.Volume == 0 {
		c.Volume = DEFAULT_VOLUME
	}

	var result *multierror.Error
	switch c.AudioMode {
	case ANALOG_AUDIO, DIGITAL_AUDIO1, DIGITAL_AUDIO2, DIGITAL_AUDIO3:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown audio mode 0x%02x", c.AudioMode))
	}
	if c.MaxWait < c.PollInterval {
		result = multierror.Append(result, fmt.Errorf("max wait %s is shorter than the poll interval %s", c.MaxWait, c.PollInterval))
	}
	if c.Volume > MAX_VOLUME {
		c.Log("Volume %d > %d. Adjusting to maximum.\n", c.Volume, MAX_VOLUME)
		c.Volume = MAX_VOLUME
	}

	switch c.Mode {
	case ModeFM:
		if c.Frequency%5 != 0 {
			result = multierror.Append(result, fmt.Errorf("%w: FM frequency %d is not on the 50 kHz grid", ErrInvalidFrequency, c.Frequency))
		}
	case ModeAM:
	case ModeSSB:
		if c.Patch == nil {
			result = multierror.Append(result, ErrPatchRequired)
		}
		if c.Sideband != LSB && c.Sideband != USB {
			c.Log("Sideband not set, defaulting to %s\n", USB)
			c.Sideband = USB
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown mode %d", c.Mode))
	}

	if c.Frequency != 0 && !defaultBand(c.Mode).contains(c.Frequency) {
		c.Log("Frequency %d outside of the default %s band\n", c.Frequency, c.Mode)
	}

	return result.ErrorOrNil()
}

// NewSi4735Driver creates a new GoBot driver for the receiver.
func NewSi4735Driver(connector i2c.Connector, cfg Si4735Config, options ...func(i2c.Config)) (*Si4735Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Si4735Driver{
		name:         gobot.DefaultName("Si4735Driver"),
		i2cConnector: connector,
		Config:       i2c.NewConfig(),

		resetPin:      cfg.ResetPin,
		ready:         cfg.ReadySignal,
		audioMode:     cfg.AudioMode,
		externalClock: cfg.ExternalClock,
		powerUpDelay:  cfg.PowerUpDelay,
		tuneDelay:     cfg.TuneDelay,
		pollInterval:  cfg.PollInterval,
		maxWait:       cfg.MaxWait,
		seekMaxWait:   cfg.SeekMaxWait,
		startMode:     cfg.Mode,
		startSideband: cfg.Sideband,
		startFreq:     cfg.Frequency,
		startVolume:   cfg.Volume,
		startMuted:    cfg.Muted,
		rdsOnStart:    cfg.RDS,
		patch:         cfg.Patch,
		debugMode:     cfg.DebugMode,
		log:           cfg.Log,
		debugLog:      cfg.DebugLog,

		mode:   cfg.Mode,
		volume: cfg.Volume,
		ssb:    DefaultSSBConfig,
		rds:    rds.NewAssembler(),
	}
	if cfg.DebugMode {
		res.rawRDS = gords.NewRDSInfo()
	}

	for _, option := range options {
		option(res)
	}

	return res, nil
}
