package radio

import "time"

const (
	low  = 0x0
	high = 0x1
)

// Misc constants.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers,GoSnakeCaseUsage
const (
	// Address is the device address if SEN is high.
	Address = 0x63

	// AlternativeAddress is the device address if SEN is low.
	AlternativeAddress = 0x11

	// DEFAULT_VOLUME is the volume restored after every power up.
	DEFAULT_VOLUME = 32

	// MAX_VOLUME is the highest value RX_VOLUME accepts.
	MAX_VOLUME = 63
)

// hardMuteBoth mutes the left and right channels in RX_HARD_MUTE.
const hardMuteBoth = 3

// Antenna tuning capacitor limits, in 250 fF steps.
const (
	maxAntennaCapFM = 191
	maxAntennaCapAM = 6143
)

// Timing defaults. All of them can be overridden through Si4735Config.
const (
	// DefaultPowerUpDelay is the settle time after a POWER_UP command.
	// Some crystals need up to 500 ms.
	DefaultPowerUpDelay = 10 * time.Millisecond

	// DefaultTuneDelay is the settle time after a tune command before the
	// frequency read back from the chip can be trusted.
	DefaultTuneDelay = 30 * time.Millisecond

	// DefaultPollInterval is the pause between two status reads while
	// waiting for CTS.
	DefaultPollInterval = 300 * time.Microsecond

	// DefaultMaxWait bounds every wait for CTS or STC.
	DefaultMaxWait = 500 * time.Millisecond

	// DefaultSeekMaxWait bounds the wait for STC after a seek, which may
	// walk the whole band.
	DefaultSeekMaxWait = 10 * time.Second

	// stcPollInterval is the pause between two GET_INT_STATUS while
	// waiting for STC.
	stcPollInterval = 10 * time.Millisecond

	// propertyDelay is the time a SET_PROPERTY needs to complete.
	propertyDelay = 550 * time.Microsecond
)

// Status byte bits, present as the first byte of every response.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers,GoSnakeCaseUsage
const (
	STATUS_STCINT = 0x01
	STATUS_RDSINT = 0x04
	STATUS_RSQINT = 0x08
	STATUS_ERR    = 0x40
	STATUS_CTS    = 0x80
)

// Power up functions.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers,GoSnakeCaseUsage
const (
	POWER_UP_FM    = 0
	POWER_UP_AM    = 1
	POWER_UP_WB    = 3
	POWER_UP_QUERY = 15
)

// Power up OPMODE values.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers,GoSnakeCaseUsage
const (
	// ANALOG_AUDIO selects the analog outputs (LOUT/ROUT).
	ANALOG_AUDIO = 0x05

	// DIGITAL_AUDIO1 selects digital audio on DCLK, LOUT/DFS, ROUT/DIO.
	DIGITAL_AUDIO1 = 0x0B

	// DIGITAL_AUDIO2 selects digital audio on DCLK, DFS, DIO.
	DIGITAL_AUDIO2 = 0xB0

	// DIGITAL_AUDIO3 selects analog and digital outputs.
	DIGITAL_AUDIO3 = 0xB5
)

// Command identifiers the receiver understands.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers,GoSnakeCaseUsage
const (
	// CMD_POWER_UP powers up the device and selects the function.
	CMD_POWER_UP = 0x01

	// CMD_GET_REV returns revision information on the device.
	CMD_GET_REV = 0x10

	// CMD_POWER_DOWN powers down the device.
	CMD_POWER_DOWN = 0x11

	// CMD_SET_PROPERTY sets the value of a property.
	CMD_SET_PROPERTY = 0x12

	// CMD_GET_PROPERTY retrieves a property's value.
	CMD_GET_PROPERTY = 0x13

	// CMD_GET_INT_STATUS reads the interrupt status bits.
	CMD_GET_INT_STATUS = 0x14

	// CMD_FM_TUNE_FREQ tunes to a given FM frequency.
	CMD_FM_TUNE_FREQ = 0x20

	// CMD_FM_SEEK_START begins searching for a valid FM frequency.
	CMD_FM_SEEK_START = 0x21

	// CMD_FM_TUNE_STATUS queries the status of the last FM tune or seek.
	CMD_FM_TUNE_STATUS = 0x22

	// CMD_FM_RSQ_STATUS queries the received signal quality.
	CMD_FM_RSQ_STATUS = 0x23

	// CMD_FM_RDS_STATUS returns RDS information and reads an entry from the RDS FIFO.
	CMD_FM_RDS_STATUS = 0x24

	// CMD_FM_AGC_STATUS queries the AGC settings.
	CMD_FM_AGC_STATUS = 0x27

	// CMD_FM_AGC_OVERRIDE overrides the AGC by forcing the LNA gain index.
	CMD_FM_AGC_OVERRIDE = 0x28

	// CMD_AM_TUNE_FREQ tunes to a given AM (or SSB) frequency.
	CMD_AM_TUNE_FREQ = 0x40

	// CMD_AM_SEEK_START begins searching for a valid AM frequency.
	CMD_AM_SEEK_START = 0x41

	// CMD_AM_TUNE_STATUS queries the status of the last AM tune or seek.
	CMD_AM_TUNE_STATUS = 0x42

	// CMD_AM_RSQ_STATUS queries the received signal quality.
	CMD_AM_RSQ_STATUS = 0x43

	// CMD_AM_AGC_STATUS queries the AGC settings.
	CMD_AM_AGC_STATUS = 0x47

	// CMD_AM_AGC_OVERRIDE overrides the AGC by forcing the gain index.
	CMD_AM_AGC_OVERRIDE = 0x48

	// CMD_GPIO_CTL configures GPO1, 2 and 3 as output or Hi-Z.
	CMD_GPIO_CTL = 0x80

	// CMD_GPIO_SET sets the GPO1, 2 and 3 output level.
	CMD_GPIO_SET = 0x81
)

// SSB shares the AM command set once the patch is loaded.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers,GoSnakeCaseUsage
const (
	CMD_SSB_TUNE_FREQ    = CMD_AM_TUNE_FREQ
	CMD_SSB_TUNE_STATUS  = CMD_AM_TUNE_STATUS
	CMD_SSB_RSQ_STATUS   = CMD_AM_RSQ_STATUS
	CMD_SSB_AGC_STATUS   = CMD_AM_AGC_STATUS
	CMD_SSB_AGC_OVERRIDE = CMD_AM_AGC_OVERRIDE
)

// Properties of the receiver.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers,GoSnakeCaseUsage
const (
	// PROP_GPO_IEN enables interrupt sources.
	PROP_GPO_IEN = 0x0001

	// PROP_SSB_BFO sets the beat frequency offset in SSB mode, in Hz.
	PROP_SSB_BFO = 0x0100

	// PROP_SSB_MODE configures audio bandwidth, cutoff filter, AVC and AFC in SSB mode.
	PROP_SSB_MODE = 0x0101

	// PROP_DIGITAL_OUTPUT_FORMAT configures the digital audio output format.
	PROP_DIGITAL_OUTPUT_FORMAT = 0x0102

	// PROP_DIGITAL_OUTPUT_SAMPLE_RATE sets the digital output sample rate, 0 disables it.
	PROP_DIGITAL_OUTPUT_SAMPLE_RATE = 0x0104

	// PROP_REFCLK_FREQ sets the reference clock frequency in Hz.
	// Default is 32768 Hz.
	PROP_REFCLK_FREQ = 0x0201

	// PROP_REFCLK_PRESCALE sets the prescaler for the RCLK input.
	PROP_REFCLK_PRESCALE = 0x0202

	// PROP_FM_DEEMPHASIS sets the FM de-emphasis time constant (1 = 50 µs, 2 = 75 µs).
	PROP_FM_DEEMPHASIS = 0x1100

	// PROP_FM_BLEND_STEREO_THRESHOLD sets the RSSI above which the audio is full stereo.
	PROP_FM_BLEND_STEREO_THRESHOLD = 0x1105

	// PROP_FM_BLEND_MONO_THRESHOLD sets the RSSI below which the audio is full mono.
	PROP_FM_BLEND_MONO_THRESHOLD = 0x1106

	// PROP_FM_SEEK_BAND_BOTTOM sets the bottom of the FM band for seek.
	PROP_FM_SEEK_BAND_BOTTOM = 0x1400

	// PROP_FM_SEEK_BAND_TOP sets the top of the FM band for seek.
	PROP_FM_SEEK_BAND_TOP = 0x1401

	// PROP_FM_SEEK_FREQ_SPACING sets the FM seek spacing.
	PROP_FM_SEEK_FREQ_SPACING = 0x1402

	// PROP_FM_RDS_INT_SOURCE configures the RDS interrupt sources.
	PROP_FM_RDS_INT_SOURCE = 0x1500

	// PROP_FM_RDS_INT_FIFO_COUNT sets the FIFO fill level that raises RDSRECV.
	PROP_FM_RDS_INT_FIFO_COUNT = 0x1501

	// PROP_FM_RDS_CONFIG enables RDS and sets the block error thresholds.
	PROP_FM_RDS_CONFIG = 0x1502

	// PROP_FM_RDS_CONFIDENCE sets the confidence thresholds per block.
	PROP_FM_RDS_CONFIDENCE = 0x1503

	// PROP_FM_BLEND_RSSI_STEREO_THRESHOLD sets the RSSI for full stereo.
	PROP_FM_BLEND_RSSI_STEREO_THRESHOLD = 0x1800

	// PROP_FM_BLEND_RSSI_MONO_THRESHOLD sets the RSSI for full mono.
	PROP_FM_BLEND_RSSI_MONO_THRESHOLD = 0x1801

	// PROP_FM_BLEND_SNR_STEREO_THRESHOLD sets the SNR for full stereo.
	PROP_FM_BLEND_SNR_STEREO_THRESHOLD = 0x1804

	// PROP_FM_BLEND_SNR_MONO_THRESHOLD sets the SNR for full mono.
	PROP_FM_BLEND_SNR_MONO_THRESHOLD = 0x1805

	// PROP_FM_BLEND_MULTIPATH_STEREO_THRESHOLD sets the multipath for full stereo.
	PROP_FM_BLEND_MULTIPATH_STEREO_THRESHOLD = 0x1808

	// PROP_FM_BLEND_MULTIPATH_MONO_THRESHOLD sets the multipath for full mono.
	PROP_FM_BLEND_MULTIPATH_MONO_THRESHOLD = 0x1809

	// PROP_AM_DEEMPHASIS sets the AM de-emphasis, disabled by default.
	PROP_AM_DEEMPHASIS = 0x3100

	// PROP_AM_CHANNEL_FILTER selects the AM channel filter bandwidth.
	// Default is 2 kHz.
	PROP_AM_CHANNEL_FILTER = 0x3102

	// PROP_AM_AUTOMATIC_VOLUME_CONTROL_MAX_GAIN sets the AVC maximum gain.
	PROP_AM_AUTOMATIC_VOLUME_CONTROL_MAX_GAIN = 0x3103

	// PROP_AM_MODE_AFC_SW_PULL_IN_RANGE sets the SW AFC pull-in range.
	PROP_AM_MODE_AFC_SW_PULL_IN_RANGE = 0x3104

	// PROP_AM_MODE_AFC_SW_LOCK_IN_RANGE sets the SW AFC lock-in range.
	PROP_AM_MODE_AFC_SW_LOCK_IN_RANGE = 0x3105

	// PROP_AM_RSQ_INTERRUPTS configures the signal quality interrupts.
	PROP_AM_RSQ_INTERRUPTS = 0x3200

	// PROP_AM_SOFT_MUTE_RATE sets the soft mute attack and decay rate.
	PROP_AM_SOFT_MUTE_RATE = 0x3300

	// PROP_AM_SOFT_MUTE_SLOPE sets the soft mute slope.
	PROP_AM_SOFT_MUTE_SLOPE = 0x3301

	// PROP_AM_SOFT_MUTE_MAX_ATTENUATION sets the maximum soft mute attenuation.
	// 0 disables soft mute. Default is 8 dB.
	PROP_AM_SOFT_MUTE_MAX_ATTENUATION = 0x3302

	// PROP_AM_SOFT_MUTE_SNR_THRESHOLD sets the SNR that engages soft mute.
	PROP_AM_SOFT_MUTE_SNR_THRESHOLD = 0x3303

	// PROP_AM_SEEK_BAND_BOTTOM sets the bottom of the AM band for seek.
	// Default is 520.
	PROP_AM_SEEK_BAND_BOTTOM = 0x3400

	// PROP_AM_SEEK_BAND_TOP sets the top of the AM band for seek.
	// Default is 1710.
	PROP_AM_SEEK_BAND_TOP = 0x3401

	// PROP_AM_SEEK_FREQ_SPACING sets the AM seek spacing.
	// Default is 10 kHz.
	PROP_AM_SEEK_FREQ_SPACING = 0x3402

	// PROP_AM_SEEK_SNR_THRESHOLD sets the SNR threshold for a valid AM channel.
	PROP_AM_SEEK_SNR_THRESHOLD = 0x3403

	// PROP_AM_SEEK_RSSI_THRESHOLD sets the RSSI threshold for a valid AM channel.
	PROP_AM_SEEK_RSSI_THRESHOLD = 0x3404

	// PROP_AM_AGC_ATTACK_RATE sets the AGC attack rate.
	PROP_AM_AGC_ATTACK_RATE = 0x3702

	// PROP_AM_AGC_RELEASE_RATE sets the AGC release rate.
	PROP_AM_AGC_RELEASE_RATE = 0x3703

	// PROP_RX_VOLUME sets the output volume, 0 to 63.
	PROP_RX_VOLUME = 0x4000

	// PROP_RX_HARD_MUTE mutes the left and right audio outputs.
	PROP_RX_HARD_MUTE = 0x4001
)

// SSB specific properties, most of them alias their AM counterparts.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers,GoSnakeCaseUsage
const (
	PROP_SSB_RSQ_INTERRUPTS            = 0x3200
	PROP_SSB_SOFT_MUTE_RATE            = 0x3300
	PROP_SSB_SOFT_MUTE_MAX_ATTENUATION = 0x3302
	PROP_SSB_SOFT_MUTE_SNR_THRESHOLD   = 0x3303
	PROP_SSB_RF_AGC_ATTACK_RATE        = 0x3700
	PROP_SSB_RF_AGC_RELEASE_RATE       = 0x3701
	PROP_SSB_IF_AGC_ATTACK_RATE        = 0x3702
	PROP_SSB_IF_AGC_RELEASE_RATE       = 0x3703
)
