// Package config reads the receiver settings file and turns it into the
// driver configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fmreceiver/radio"

	"github.com/hashicorp/go-multierror"
	"gobot.io/x/gobot/drivers/i2c"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"
)

// Settings is the content of the settings file.
type Settings struct {
	Receiver ReceiverSettings `yaml:"receiver"`
	Display  DisplaySettings  `yaml:"display"`
	Logging  LoggingSettings  `yaml:"logging"`
}

// ReceiverSettings describes how the Si4735 is wired and how it starts.
type ReceiverSettings struct {
	Bus          int    `yaml:"bus"`
	Address      int    `yaml:"address"`
	ResetPin     string `yaml:"resetPin"`
	InterruptPin string `yaml:"interruptPin"`

	Mode      string `yaml:"mode"`     // fm, am or ssb
	Sideband  string `yaml:"sideband"` // usb or lsb
	Frequency uint16 `yaml:"frequency"`
	Volume    uint8  `yaml:"volume"`
	Muted     bool   `yaml:"muted"`
	RDS       bool   `yaml:"rds"`
	PatchFile string `yaml:"patchFile"`

	AudioMode     string `yaml:"audioMode"` // analog, digital1, digital2 or digital3
	ExternalClock bool   `yaml:"externalClock"`

	Timing TimingSettings `yaml:"timing"`
	Debug  bool           `yaml:"debug"`
}

// TimingSettings overrides the driver timing defaults. Zero keeps the default.
type TimingSettings struct {
	PowerUpDelayMs int `yaml:"powerUpDelayMs"`
	TuneDelayMs    int `yaml:"tuneDelayMs"`
	PollIntervalUs int `yaml:"pollIntervalUs"`
	MaxWaitMs      int `yaml:"maxWaitMs"`
	SeekMaxWaitMs  int `yaml:"seekMaxWaitMs"`
	RDSPollMs      int `yaml:"rdsPollMs"`
	InterruptUs    int `yaml:"interruptUs"` // interrupt pin sampling period
}

// DisplaySettings configures the LCD.
type DisplaySettings struct {
	Enabled bool `yaml:"enabled"`
	Address int  `yaml:"address"`
	Bus     int  `yaml:"bus"`
}

// LoggingSettings configures the rotating log file.
type LoggingSettings struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"maxSize"` // megabytes
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"` // days
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
}

var modes = map[string]radio.Mode{
	"fm":  radio.ModeFM,
	"am":  radio.ModeAM,
	"ssb": radio.ModeSSB,
}

var sidebands = map[string]radio.Sideband{
	"usb": radio.USB,
	"lsb": radio.LSB,
}

var audioModes = map[string]uint8{
	"analog":   radio.ANALOG_AUDIO,
	"digital1": radio.DIGITAL_AUDIO1,
	"digital2": radio.DIGITAL_AUDIO2,
	"digital3": radio.DIGITAL_AUDIO3,
}

// Default returns the settings used for everything the file leaves out.
func Default() *Settings {
	return &Settings{
		Receiver: ReceiverSettings{
			Address:   radio.Address,
			ResetPin:  "29",
			Mode:      "fm",
			Sideband:  "usb",
			Volume:    radio.DEFAULT_VOLUME,
			RDS:       true,
			AudioMode: "analog",
			Timing: TimingSettings{
				RDSPollMs:   40,
				InterruptUs: 1000,
			},
		},
		Display: DisplaySettings{
			Enabled: true,
			Address: 0x27,
		},
		Logging: LoggingSettings{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Console:    true,
		},
	}
}

// Load reads the settings file over the defaults and validates the result.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err = yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	s.normalize()

	if err = s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) normalize() {
	r := &s.Receiver
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	r.Sideband = strings.ToLower(strings.TrimSpace(r.Sideband))
	r.AudioMode = strings.ToLower(strings.TrimSpace(r.AudioMode))
}

// Validate reports every problem of the settings at once.
func (s *Settings) Validate() error {
	var result *multierror.Error
	r := s.Receiver

	mode, ok := modes[r.Mode]
	if !ok {
		result = multierror.Append(result, fmt.Errorf("receiver.mode %q is not one of fm, am, ssb", r.Mode))
	}
	if _, ok := sidebands[r.Sideband]; !ok {
		result = multierror.Append(result, fmt.Errorf("receiver.sideband %q is not one of usb, lsb", r.Sideband))
	}
	if _, ok := audioModes[r.AudioMode]; !ok {
		result = multierror.Append(result, fmt.Errorf("receiver.audioMode %q is unknown", r.AudioMode))
	}
	if mode == radio.ModeSSB && r.PatchFile == "" {
		result = multierror.Append(result, fmt.Errorf("receiver.patchFile: %w", radio.ErrPatchRequired))
	}
	if mode == radio.ModeFM && r.Frequency%5 != 0 {
		result = multierror.Append(result, fmt.Errorf("receiver.frequency %d: %w", r.Frequency, radio.ErrInvalidFrequency))
	}
	if r.Volume > radio.MAX_VOLUME {
		result = multierror.Append(result, fmt.Errorf("receiver.volume %d is above %d", r.Volume, radio.MAX_VOLUME))
	}
	if r.Address != radio.Address && r.Address != radio.AlternativeAddress {
		result = multierror.Append(result, fmt.Errorf("receiver.address 0x%02x is not 0x%02x or 0x%02x",
			r.Address, radio.Address, radio.AlternativeAddress))
	}

	t := r.Timing
	for name, v := range map[string]int{
		"powerUpDelayMs": t.PowerUpDelayMs,
		"tuneDelayMs":    t.TuneDelayMs,
		"pollIntervalUs": t.PollIntervalUs,
		"maxWaitMs":      t.MaxWaitMs,
		"seekMaxWaitMs":  t.SeekMaxWaitMs,
		"interruptUs":    t.InterruptUs,
	} {
		if v < 0 {
			result = multierror.Append(result, fmt.Errorf("receiver.timing.%s cannot be negative", name))
		}
	}
	if t.RDSPollMs <= 0 {
		result = multierror.Append(result, fmt.Errorf("receiver.timing.rdsPollMs must be positive"))
	}

	if s.Logging.MaxSize < 0 || s.Logging.MaxBackups < 0 || s.Logging.MaxAge < 0 {
		result = multierror.Append(result, fmt.Errorf("logging limits cannot be negative"))
	}
	if s.Logging.File == "" && !s.Logging.Console {
		result = multierror.Append(result, fmt.Errorf("logging needs a file or the console"))
	}

	return result.ErrorOrNil()
}

// DriverConfig builds the driver configuration. A ReadySignal is created
// when an interrupt pin is wired; whoever watches the pin must notify it.
func (s *Settings) DriverConfig(logf func(format string, v ...interface{})) radio.Si4735Config {
	r := s.Receiver
	t := r.Timing

	cfg := radio.Si4735Config{
		ResetPin:      r.ResetPin,
		AudioMode:     audioModes[r.AudioMode],
		ExternalClock: r.ExternalClock,
		Mode:          modes[r.Mode],
		Sideband:      sidebands[r.Sideband],
		Frequency:     r.Frequency,
		Volume:        r.Volume,
		Muted:         r.Muted,
		RDS:           r.RDS,
		PowerUpDelay:  time.Duration(t.PowerUpDelayMs) * time.Millisecond,
		TuneDelay:     time.Duration(t.TuneDelayMs) * time.Millisecond,
		PollInterval:  time.Duration(t.PollIntervalUs) * time.Microsecond,
		MaxWait:       time.Duration(t.MaxWaitMs) * time.Millisecond,
		SeekMaxWait:   time.Duration(t.SeekMaxWaitMs) * time.Millisecond,
		DebugMode:     r.Debug,
		Log:           logf,
	}
	if r.Debug {
		cfg.DebugLog = logf
	}
	if r.InterruptPin != "" {
		cfg.ReadySignal = radio.NewReadySignal()
	}
	if r.PatchFile != "" {
		cfg.Patch = radio.FilePatch(r.PatchFile)
	}
	return cfg
}

// I2COptions returns the bus and address options of the receiver.
func (s *Settings) I2COptions() []func(i2c.Config) {
	return busOptions(s.Receiver.Bus, s.Receiver.Address)
}

// DisplayOptions returns the bus and address options of the LCD.
func (s *Settings) DisplayOptions() []func(i2c.Config) {
	return busOptions(s.Display.Bus, s.Display.Address)
}

func busOptions(bus, address int) []func(i2c.Config) {
	var options []func(i2c.Config)
	if bus != 0 {
		options = append(options, i2c.WithBus(bus))
	}
	if address != 0 {
		options = append(options, i2c.WithAddress(address))
	}
	return options
}

// RDSPollInterval is the period of the RDS FIFO poll.
func (s *Settings) RDSPollInterval() time.Duration {
	return time.Duration(s.Receiver.Timing.RDSPollMs) * time.Millisecond
}

// InterruptInterval is the sampling period of the interrupt pin.
func (s *Settings) InterruptInterval() time.Duration {
	return time.Duration(s.Receiver.Timing.InterruptUs) * time.Microsecond
}

type multiCloser struct {
	io.Writer
	closers []io.Closer
}

func (m multiCloser) Close() error {
	var result *multierror.Error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Output opens the log destination: the rotating file, the console or
// both.
func (l LoggingSettings) Output() io.WriteCloser {
	var writers []io.Writer
	var closers []io.Closer

	if l.File != "" {
		file := &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.MaxSize,
			MaxBackups: l.MaxBackups,
			MaxAge:     l.MaxAge,
			Compress:   l.Compress,
		}
		writers = append(writers, file)
		closers = append(closers, file)
	}
	if l.Console || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}
	return multiCloser{Writer: io.MultiWriter(writers...), closers: closers}
}
