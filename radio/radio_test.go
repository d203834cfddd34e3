package radio

import (
	"log"
	"testing"
	"time"

	"fmreceiver/rds"

	"github.com/stretchr/testify/require"
)

// fakeSi4735 answers the I2CTestAdaptor like a receiver would: every write
// prepares the response that the following reads return.
type fakeSi4735 struct {
	powered   bool
	function  uint8
	patchMode bool
	patch     []byte

	frequency  uint16
	bandLimit  bool
	stations   []uint16
	stcPending bool
	props      map[uint16]uint16
	agcDisable bool
	agcIndex   uint8
	rdsFIFO    []rds.Group

	// busyReads is the number of status reads without CTS after each command.
	busyReads int
	busyLeft  int
	// silent never raises CTS.
	silent bool
	// failOpcode gets the ERR bit set in its status.
	failOpcode byte

	commands []byte
	pending  []byte
}

func (f *fakeSi4735) status(opcode byte) byte {
	st := byte(STATUS_CTS)
	if f.stcPending {
		st |= STATUS_STCINT
	}
	if len(f.rdsFIFO) > 0 {
		st |= STATUS_RDSINT
	}
	if f.failOpcode != 0 && opcode == f.failOpcode {
		st |= STATUS_ERR
	}
	return st
}

func (f *fakeSi4735) bandEdges() (bottom, top uint16) {
	if f.function == POWER_UP_FM {
		return f.props[PROP_FM_SEEK_BAND_BOTTOM], f.props[PROP_FM_SEEK_BAND_TOP]
	}
	return f.props[PROP_AM_SEEK_BAND_BOTTOM], f.props[PROP_AM_SEEK_BAND_TOP]
}

func (f *fakeSi4735) seek(up, wrap bool) {
	bottom, top := f.bandEdges()
	var found []uint16
	for _, st := range f.stations {
		if st < bottom || st > top {
			continue
		}
		if (up && st > f.frequency) || (!up && st < f.frequency) {
			found = append(found, st)
		}
	}

	pick := func(cands []uint16) (uint16, bool) {
		if len(cands) == 0 {
			return 0, false
		}
		best := cands[0]
		for _, c := range cands[1:] {
			if (up && c < best) || (!up && c > best) {
				best = c
			}
		}
		return best, true
	}

	f.bandLimit = false
	if st, ok := pick(found); ok {
		f.frequency = st
		return
	}
	if wrap {
		var all []uint16
		for _, st := range f.stations {
			if st >= bottom && st <= top && st != f.frequency {
				all = append(all, st)
			}
		}
		if st, ok := pick(all); ok {
			f.frequency = st
			return
		}
	}
	f.bandLimit = true
	if up {
		f.frequency = top
	} else {
		f.frequency = bottom
	}
}

func (f *fakeSi4735) onStation() bool {
	for _, st := range f.stations {
		if st == f.frequency {
			return true
		}
	}
	return false
}

func (f *fakeSi4735) tuneStatus(opcode byte, args []byte) []byte {
	hi, lo := split16(f.frequency)
	resp1 := boolBit(f.onStation())
	if f.bandLimit {
		resp1 |= 0x80
	}
	resp := []byte{f.status(opcode), resp1, hi, lo, 42, 25, 3, 7}
	if len(args) > 0 && args[0]&0x1 != 0 {
		f.stcPending = false
	}
	return resp
}

func (f *fakeSi4735) rdsStatus(opcode byte) []byte {
	resp := make([]byte, 13)
	resp[0] = f.status(opcode)
	if len(f.rdsFIFO) == 0 {
		return resp
	}
	g := f.rdsFIFO[0]
	f.rdsFIFO = f.rdsFIFO[1:]

	resp[1] = 0x01
	resp[2] = 0x01
	resp[3] = byte(len(f.rdsFIFO))
	for i, b := range g.Blocks {
		resp[4+2*i], resp[5+2*i] = split16(b)
	}
	resp[12] = byte(g.Grades[0])<<6 | byte(g.Grades[1])<<4 | byte(g.Grades[2])<<2 | byte(g.Grades[3])
	return resp
}

// handle runs the command and returns the full response.
func (f *fakeSi4735) handle(frame []byte) []byte {
	opcode, args := frame[0], frame[1:]

	// patch chunks start with 0x15 or 0x16
	if f.patchMode && (opcode == 0x15 || opcode == 0x16) {
		f.patch = append(f.patch, frame...)
		return []byte{f.status(opcode)}
	}

	switch opcode {
	case CMD_POWER_UP:
		f.function = args[0] & 0x0F
		if f.function == POWER_UP_QUERY {
			return []byte{f.status(opcode), 35, '6', '0', 0, 0, 'D', 5}
		}
		f.powered = true
		f.patchMode = args[0]&0x20 != 0
	case CMD_POWER_DOWN:
		f.powered = false
		f.patchMode = false
	case CMD_GET_REV:
		return []byte{f.status(opcode), 35, '6', '0', 0xD0, 0x0F, '6', '0', 'D'}
	case CMD_SET_PROPERTY:
		f.props[join16(args[1], args[2])] = join16(args[3], args[4])
	case CMD_GET_PROPERTY:
		hi, lo := split16(f.props[join16(args[1], args[2])])
		return []byte{f.status(opcode), 0, hi, lo}
	case CMD_FM_TUNE_FREQ, CMD_AM_TUNE_FREQ:
		f.frequency = join16(args[1], args[2])
		f.bandLimit = false
		f.stcPending = true
	case CMD_FM_SEEK_START, CMD_AM_SEEK_START:
		f.seek(args[0]&0x08 != 0, args[0]&0x04 != 0)
		f.stcPending = true
	case CMD_FM_TUNE_STATUS, CMD_AM_TUNE_STATUS:
		return f.tuneStatus(opcode, args)
	case CMD_FM_RSQ_STATUS:
		return []byte{f.status(opcode), 0, 0x01, 0x80 | 80, 42, 25, 3, 0xFE}
	case CMD_AM_RSQ_STATUS:
		return []byte{f.status(opcode), 0, 0x01, 0, 30, 12}
	case CMD_FM_RDS_STATUS:
		return f.rdsStatus(opcode)
	case CMD_FM_AGC_STATUS, CMD_AM_AGC_STATUS:
		return []byte{f.status(opcode), boolBit(f.agcDisable), f.agcIndex}
	case CMD_FM_AGC_OVERRIDE, CMD_AM_AGC_OVERRIDE:
		f.agcDisable = args[0]&0x1 != 0
		f.agcIndex = args[1]
	}
	return []byte{f.status(opcode)}
}

func (f *fakeSi4735) write(t *I2CTestAdaptor, buff []byte) (int, error) {
	f.commands = append(f.commands, buff[0])
	f.pending = f.handle(t.lastFrame())
	f.busyLeft = f.busyReads
	return len(buff), nil
}

func (f *fakeSi4735) read(_ *I2CTestAdaptor, buff []byte) (int, error) {
	if f.silent || f.busyLeft > 0 {
		f.busyLeft--
		for i := range buff {
			buff[i] = 0
		}
		return len(buff), nil
	}
	return copy(buff, f.pending), nil
}

func (f *fakeSi4735) sent(opcode byte) int {
	n := 0
	for _, c := range f.commands {
		if c == opcode {
			n++
		}
	}
	return n
}

func NewI2cTestAdaptor() (*I2CTestAdaptor, *fakeSi4735) {
	chip := &fakeSi4735{
		props:    map[uint16]uint16{},
		stations: []uint16{8810, 9550, 10390, 10610, 600, 810, 1200},
	}
	val := &I2CTestAdaptor{
		i2cConnectErr: false,
		i2cReadImpl:   chip.read,
		i2cWriteImpl:  chip.write,
	}
	return val, chip
}

func testConfig() Si4735Config {
	return Si4735Config{
		ResetPin:     "29",
		PowerUpDelay: time.Microsecond,
		TuneDelay:    time.Microsecond,
		PollInterval: time.Microsecond,
		MaxWait:      50 * time.Millisecond,
		SeekMaxWait:  50 * time.Millisecond,
		Log:          func(string, ...interface{}) {},
	}
}

// newStartedDriver returns a driver started in the configured mode.
func newStartedDriver(t *testing.T, cfg Si4735Config) (*Si4735Driver, *fakeSi4735) {
	t.Helper()
	adaptor, chip := NewI2cTestAdaptor()
	d, err := NewSi4735Driver(adaptor, cfg)
	require.NoError(t, err)
	require.NoError(t, d.Start())
	return d, chip
}

func debugConfig() Si4735Config {
	cfg := testConfig()
	cfg.DebugMode = true
	cfg.DebugLog = func(format string, v ...interface{}) {
		if testing.Verbose() {
			log.Printf(format, v...)
		}
	}
	return cfg
}
