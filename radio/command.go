package radio

import (
	"fmt"
	"sort"
	"strings"
)

// Values holds the named sub-fields of a command or response frame.
// Every field is at most 8 bits wide, so a byte is enough for any of them.
type Values map[string]uint8

// Field is one bit-packed sub-field of a frame. Byte is the index inside
// the frame, Shift the position of the lowest bit inside that byte.
type Field struct {
	Name  string
	Byte  int
	Shift uint8
	Width uint8
}

func (f Field) mask() uint8 {
	return uint8((1 << uint(f.Width)) - 1)
}

// Layout describes the fixed size and bit layout of a frame.
type Layout struct {
	Size   int
	Fields []Field
}

func bits(name string, idx int, shift, width uint8) Field {
	return Field{Name: name, Byte: idx, Shift: shift, Width: width}
}

func flag(name string, idx int, shift uint8) Field {
	return bits(name, idx, shift, 1)
}

func whole(name string, idx int) Field {
	return bits(name, idx, 0, 8)
}

// newLayout builds a layout and panics if a field does not fit in its byte
// or overlaps another field. The tables below are checked at init.
func newLayout(size int, fields ...Field) Layout {
	used := make([]uint8, size)
	for _, f := range fields {
		if f.Width == 0 || f.Width > 8 || f.Shift+f.Width > 8 {
			panic(fmt.Sprintf("field %s crosses a byte boundary", f.Name))
		}
		if f.Byte < 0 || f.Byte >= size {
			panic(fmt.Sprintf("field %s outside of a %d byte frame", f.Name, size))
		}
		m := f.mask() << f.Shift
		if used[f.Byte]&m != 0 {
			panic(fmt.Sprintf("field %s overlaps another field", f.Name))
		}
		used[f.Byte] |= m
	}
	return Layout{Size: size, Fields: fields}
}

// Pack writes the values into a new frame. Missing values are zero and
// values wider than their field are masked to the field width.
func (l Layout) Pack(v Values) []byte {
	b := make([]byte, l.Size)
	for _, f := range l.Fields {
		b[f.Byte] |= (v[f.Name] & f.mask()) << f.Shift
	}
	return b
}

// Unpack reads every field of the frame. The frame must have exactly the
// size of the layout.
func (l Layout) Unpack(b []byte) (Values, error) {
	if len(b) != l.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedResponse, len(b), l.Size)
	}
	v := make(Values, len(l.Fields))
	for _, f := range l.Fields {
		v[f.Name] = (b[f.Byte] >> f.Shift) & f.mask()
	}
	return v, nil
}

// Command is a frame ready to be written to the receiver.
type Command struct {
	Opcode byte
	Args   []byte
}

// Bytes returns the opcode followed by the argument bytes.
func (c Command) Bytes() []byte {
	return append([]byte{c.Opcode}, c.Args...)
}

func (c Command) String() string {
	return sliceToString(c.Bytes())
}

// split16 returns the high and low byte of a 16-bit value.
func split16(v uint16) (hi, lo uint8) {
	return uint8(v >> 8), uint8(v & 0xFF)
}

func join16(hi, lo uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

func statusFields(extra ...Field) []Field {
	return append([]Field{
		flag("STCINT", 0, 0),
		flag("RDSINT", 0, 2),
		flag("RSQINT", 0, 3),
		flag("ERR", 0, 6),
		flag("CTS", 0, 7),
	}, extra...)
}

func statusOnly() Layout {
	return newLayout(1, statusFields()...)
}

// Argument layouts. The opcode is not part of the layout.
var commandLayouts = map[byte]Layout{
	CMD_POWER_UP: newLayout(2,
		bits("FUNC", 0, 0, 4),
		flag("XOSCEN", 0, 4),
		flag("PATCH", 0, 5),
		flag("GPO2OEN", 0, 6),
		flag("CTSIEN", 0, 7),
		whole("OPMODE", 1),
	),
	CMD_GET_REV:    newLayout(0),
	CMD_POWER_DOWN: newLayout(0),
	CMD_SET_PROPERTY: newLayout(5,
		whole("PROPH", 1),
		whole("PROPL", 2),
		whole("VALH", 3),
		whole("VALL", 4),
	),
	CMD_GET_PROPERTY: newLayout(3,
		whole("PROPH", 1),
		whole("PROPL", 2),
	),
	CMD_GET_INT_STATUS: newLayout(0),
	CMD_FM_TUNE_FREQ: newLayout(4,
		flag("FAST", 0, 0),
		flag("FREEZE", 0, 1),
		whole("FREQH", 1),
		whole("FREQL", 2),
		whole("ANTCAP", 3),
	),
	CMD_FM_SEEK_START: newLayout(1,
		flag("WRAP", 0, 2),
		flag("SEEKUP", 0, 3),
	),
	CMD_FM_TUNE_STATUS: newLayout(1,
		flag("INTACK", 0, 0),
		flag("CANCEL", 0, 1),
	),
	CMD_FM_RSQ_STATUS: newLayout(1,
		flag("INTACK", 0, 0),
	),
	CMD_FM_RDS_STATUS: newLayout(1,
		flag("INTACK", 0, 0),
		flag("MTFIFO", 0, 1),
		flag("STATUSONLY", 0, 2),
	),
	CMD_FM_AGC_STATUS: newLayout(0),
	CMD_FM_AGC_OVERRIDE: newLayout(2,
		flag("AGCDIS", 0, 0),
		whole("AGCIDX", 1),
	),
	CMD_AM_TUNE_FREQ: newLayout(5,
		flag("FAST", 0, 0),
		bits("USBLSB", 0, 6, 2),
		whole("FREQH", 1),
		whole("FREQL", 2),
		whole("ANTCAPH", 3),
		whole("ANTCAPL", 4),
	),
	CMD_AM_SEEK_START: newLayout(5,
		flag("WRAP", 0, 2),
		flag("SEEKUP", 0, 3),
		whole("ANTCAPH", 3),
		whole("ANTCAPL", 4),
	),
	CMD_AM_TUNE_STATUS: newLayout(1,
		flag("INTACK", 0, 0),
		flag("CANCEL", 0, 1),
	),
	CMD_AM_RSQ_STATUS: newLayout(1,
		flag("INTACK", 0, 0),
	),
	CMD_AM_AGC_STATUS: newLayout(0),
	CMD_AM_AGC_OVERRIDE: newLayout(2,
		flag("AGCDIS", 0, 0),
		whole("AGCIDX", 1),
	),
	CMD_GPIO_CTL: newLayout(1,
		flag("GPO1OEN", 0, 1),
		flag("GPO2OEN", 0, 2),
		flag("GPO3OEN", 0, 3),
	),
	CMD_GPIO_SET: newLayout(1,
		flag("GPO1LEVEL", 0, 1),
		flag("GPO2LEVEL", 0, 2),
		flag("GPO3LEVEL", 0, 3),
	),
}

// Response layouts, status byte included.
var responseLayouts = map[byte]Layout{
	CMD_POWER_UP: statusOnly(),
	CMD_GET_REV: newLayout(9, statusFields(
		whole("PN", 1),
		whole("FWMAJOR", 2),
		whole("FWMINOR", 3),
		whole("PATCHH", 4),
		whole("PATCHL", 5),
		whole("CMPMAJOR", 6),
		whole("CMPMINOR", 7),
		whole("CHIPREV", 8),
	)...),
	CMD_POWER_DOWN:   statusOnly(),
	CMD_SET_PROPERTY: statusOnly(),
	CMD_GET_PROPERTY: newLayout(4, statusFields(
		whole("VALH", 2),
		whole("VALL", 3),
	)...),
	CMD_GET_INT_STATUS: statusOnly(),
	CMD_FM_TUNE_FREQ:   statusOnly(),
	CMD_FM_SEEK_START:  statusOnly(),
	CMD_FM_TUNE_STATUS: newLayout(8, statusFields(
		flag("VALID", 1, 0),
		flag("AFCRL", 1, 1),
		flag("BLTF", 1, 7),
		whole("FREQH", 2),
		whole("FREQL", 3),
		whole("RSSI", 4),
		whole("SNR", 5),
		whole("MULT", 6),
		whole("ANTCAP", 7),
	)...),
	CMD_FM_RSQ_STATUS: newLayout(8, statusFields(
		flag("RSSILINT", 1, 0),
		flag("RSSIHINT", 1, 1),
		flag("SNRLINT", 1, 2),
		flag("SNRHINT", 1, 3),
		flag("MULTLINT", 1, 4),
		flag("MULTHINT", 1, 5),
		flag("BLENDINT", 1, 7),
		flag("VALID", 2, 0),
		flag("AFCRL", 2, 1),
		flag("SMUTE", 2, 3),
		bits("STBLEND", 3, 0, 7),
		flag("PILOT", 3, 7),
		whole("RSSI", 4),
		whole("SNR", 5),
		whole("MULT", 6),
		whole("FREQOFF", 7),
	)...),
	CMD_FM_RDS_STATUS: newLayout(13, statusFields(
		flag("RDSRECV", 1, 0),
		flag("RDSSYNCLOST", 1, 1),
		flag("RDSSYNCFOUND", 1, 2),
		flag("RDSNEWBLOCKA", 1, 4),
		flag("RDSNEWBLOCKB", 1, 5),
		flag("RDSSYNC", 2, 0),
		flag("GRPLOST", 2, 2),
		whole("RDSFIFOUSED", 3),
		whole("BLOCKAH", 4),
		whole("BLOCKAL", 5),
		whole("BLOCKBH", 6),
		whole("BLOCKBL", 7),
		whole("BLOCKCH", 8),
		whole("BLOCKCL", 9),
		whole("BLOCKDH", 10),
		whole("BLOCKDL", 11),
		bits("BLED", 12, 0, 2),
		bits("BLEC", 12, 2, 2),
		bits("BLEB", 12, 4, 2),
		bits("BLEA", 12, 6, 2),
	)...),
	CMD_FM_AGC_STATUS: newLayout(3, statusFields(
		flag("AGCDIS", 1, 0),
		whole("AGCIDX", 2),
	)...),
	CMD_FM_AGC_OVERRIDE: statusOnly(),
	CMD_AM_TUNE_FREQ:    statusOnly(),
	CMD_AM_SEEK_START:   statusOnly(),
	CMD_AM_TUNE_STATUS: newLayout(8, statusFields(
		flag("VALID", 1, 0),
		flag("AFCRL", 1, 1),
		flag("BLTF", 1, 7),
		whole("FREQH", 2),
		whole("FREQL", 3),
		whole("RSSI", 4),
		whole("SNR", 5),
		whole("ANTCAPH", 6),
		whole("ANTCAPL", 7),
	)...),
	CMD_AM_RSQ_STATUS: newLayout(6, statusFields(
		flag("RSSILINT", 1, 0),
		flag("RSSIHINT", 1, 1),
		flag("SNRLINT", 1, 2),
		flag("SNRHINT", 1, 3),
		flag("VALID", 2, 0),
		flag("AFCRL", 2, 1),
		flag("SMUTE", 2, 3),
		whole("RSSI", 4),
		whole("SNR", 5),
	)...),
	CMD_AM_AGC_STATUS: newLayout(3, statusFields(
		flag("AGCDIS", 1, 0),
		whole("AGCIDX", 2),
	)...),
	CMD_AM_AGC_OVERRIDE: statusOnly(),
	CMD_GPIO_CTL:        statusOnly(),
	CMD_GPIO_SET:        statusOnly(),
}

// libraryIDLayout is the answer to POWER_UP with FUNC set to POWER_UP_QUERY.
var libraryIDLayout = newLayout(8, statusFields(
	whole("PN", 1),
	whole("FWMAJOR", 2),
	whole("FWMINOR", 3),
	whole("CHIPREV", 6),
	whole("LIBRARYID", 7),
)...)

// Property values that are made of bit fields. Byte 0 is the low byte
// of the 16-bit property value.
var propertyLayouts = map[uint16]Layout{
	PROP_SSB_MODE: newLayout(2,
		bits("AUDIOBW", 0, 0, 4),
		bits("SBCUTFLT", 0, 4, 4),
		bits("AVC_DIVIDER", 1, 0, 4),
		flag("AVCEN", 1, 4),
		flag("SMUTESEL", 1, 5),
		flag("DSP_AFCDIS", 1, 7),
	),
	PROP_DIGITAL_OUTPUT_FORMAT: newLayout(2,
		bits("OSIZE", 0, 0, 2),
		flag("OMONO", 0, 2),
		bits("OMODE", 0, 3, 4),
		flag("OFALL", 0, 7),
	),
	PROP_FM_RDS_CONFIG: newLayout(2,
		flag("RDSEN", 0, 0),
		bits("BLETHD", 1, 0, 2),
		bits("BLETHC", 1, 2, 2),
		bits("BLETHB", 1, 4, 2),
		bits("BLETHA", 1, 6, 2),
	),
	PROP_FM_RDS_INT_SOURCE: newLayout(2,
		flag("RDSRECV", 0, 0),
		flag("RDSSYNCLOST", 0, 1),
		flag("RDSSYNCFOUND", 0, 2),
		flag("RDSNEWBLOCKA", 0, 4),
		flag("RDSNEWBLOCKB", 0, 5),
	),
	PROP_AM_CHANNEL_FILTER: newLayout(2,
		bits("AMCHFLT", 0, 0, 4),
		flag("AMPLFLT", 1, 0),
	),
}

// Encode builds the command frame for the opcode from named arguments.
func Encode(opcode byte, args Values) (Command, error) {
	l, ok := commandLayouts[opcode]
	if !ok {
		return Command{}, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, opcode)
	}
	return Command{Opcode: opcode, Args: l.Pack(args)}, nil
}

// DecodeArgs is the inverse of Encode. It is used to describe frames on
// the bus log.
func DecodeArgs(opcode byte, args []byte) (Values, error) {
	l, ok := commandLayouts[opcode]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, opcode)
	}
	return l.Unpack(args)
}

// DecodeResponse unpacks the response to the opcode. The length must match
// exactly.
func DecodeResponse(opcode byte, resp []byte) (Values, error) {
	l, ok := responseLayouts[opcode]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, opcode)
	}
	v, err := l.Unpack(resp)
	if err != nil {
		return nil, fmt.Errorf("opcode 0x%02x: %w", opcode, err)
	}
	return v, nil
}

// ResponseSize returns the number of bytes the chip answers to the opcode.
func ResponseSize(opcode byte) (int, error) {
	l, ok := responseLayouts[opcode]
	if !ok {
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, opcode)
	}
	return l.Size, nil
}

// PackProperty builds a bit-field property value.
func PackProperty(property uint16, v Values) (uint16, error) {
	l, ok := propertyLayouts[property]
	if !ok {
		return 0, fmt.Errorf("property 0x%04x has no bit layout", property)
	}
	b := l.Pack(v)
	return join16(b[1], b[0]), nil
}

// UnpackProperty splits a property value into its bit fields.
func UnpackProperty(property uint16, value uint16) (Values, error) {
	l, ok := propertyLayouts[property]
	if !ok {
		return nil, fmt.Errorf("property 0x%04x has no bit layout", property)
	}
	hi, lo := split16(value)
	return l.Unpack([]byte{lo, hi})
}

func setPropertyCommand(property, value uint16) Command {
	ph, pl := split16(property)
	vh, vl := split16(value)
	cmd, _ := Encode(CMD_SET_PROPERTY, Values{"PROPH": ph, "PROPL": pl, "VALH": vh, "VALL": vl})
	return cmd
}

func (v Values) flag(name string) bool {
	return v[name] != 0
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (v Values) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, v[k]))
	}
	return strings.Join(parts, " ")
}

func sliceToString(val []byte) string {
	res := ""
	for idx := range val {
		res += fmt.Sprintf("[%d]=0x%x(%d) ", idx, val[idx], val[idx])
	}
	return res
}
