package rds

import (
	"bytes"
	"sync"
)

// Buffer sizes of the assembled records.
const (
	StationNameLength = 8
	RadioTextALength  = 64
	RadioTextBLength  = 32
)

const carriageReturn = 0x0D

// textBuffer is a fixed size, space filled record written in segments.
type textBuffer struct {
	cells   []byte
	segment int
	seen    uint16 // one bit per segment address
	flag    bool
	flagSet bool
}

func newTextBuffer(size, segment int) *textBuffer {
	b := &textBuffer{cells: make([]byte, size), segment: segment}
	b.reset()
	return b
}

func (b *textBuffer) reset() {
	for i := range b.cells {
		b.cells[i] = ' '
	}
	b.seen = 0
	b.flagSet = false
}

func (b *textBuffer) segments() int {
	return len(b.cells) / b.segment
}

// toggle records the text A/B flag. A change of the flag means the
// station started a new text, so the old one is dropped.
func (b *textBuffer) toggle(flag bool) bool {
	cleared := false
	if b.flagSet && b.flag != flag {
		b.reset()
		cleared = true
	}
	b.flag = flag
	b.flagSet = true
	return cleared
}

func (b *textBuffer) write(address uint8, chars []byte) {
	if int(address) >= b.segments() {
		return
	}
	copy(b.cells[int(address)*b.segment:], chars)
	b.seen |= 1 << address
}

// end is the index of the first carriage return, or the buffer length.
func (b *textBuffer) end() int {
	if i := bytes.IndexByte(b.cells, carriageReturn); i >= 0 {
		return i
	}
	return len(b.cells)
}

func (b *textBuffer) text() string {
	return string(bytes.TrimRight(b.cells[:b.end()], " "))
}

// complete reports whether every segment up to the end of the text was
// received. Without a carriage return that is every segment.
func (b *textBuffer) complete() bool {
	last := b.segments() - 1
	if e := b.end(); e < len(b.cells) {
		last = e / b.segment
	}
	want := uint16(1<<(last+1) - 1)
	return b.seen&want == want
}

// Stats counts what happened to the groups fed to an Assembler.
type Stats struct {
	Groups    int // merged
	Skipped   int // dropped for an uncorrectable block
	Unhandled int // types the assembler does not store
	PIChanges int
}

// Snapshot is a copy of the assembled records.
type Snapshot struct {
	PI                  uint16
	PIValid             bool
	ProgramType         uint8
	TrafficProgram      bool
	TrafficAnnouncement bool
	Music               bool

	StationName         string
	StationNameComplete bool
	RadioTextA          string
	RadioTextAComplete  bool
	RadioTextB          string
	RadioTextBComplete  bool

	Clock      ClockTime
	ClockValid bool
}

// RadioText returns the 2A text when there is one, otherwise the 2B text.
func (s Snapshot) RadioText() string {
	if s.RadioTextA != "" {
		return s.RadioTextA
	}
	return s.RadioTextB
}

// Assembler merges decoded groups into the station records. It is safe
// for concurrent use.
type Assembler struct {
	mtx sync.Mutex

	pi       uint16
	piValid  bool
	pty      uint8
	tp       bool
	ta       bool
	music    bool
	ps       *textBuffer
	rtA      *textBuffer
	rtB      *textBuffer
	clock    ClockTime
	hasClock bool

	stats Stats
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		ps:  newTextBuffer(StationNameLength, 2),
		rtA: newTextBuffer(RadioTextALength, 4),
		rtB: newTextBuffer(RadioTextBLength, 2),
	}
}

// Reset drops every record, as after a retune. Stats are kept.
func (a *Assembler) Reset() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.reset()
}

func (a *Assembler) reset() {
	a.pi, a.piValid = 0, false
	a.pty, a.tp, a.ta, a.music = 0, false, false, false
	a.clearRecords()
}

func (a *Assembler) clearRecords() {
	a.ps.reset()
	a.rtA.reset()
	a.rtB.reset()
	a.clock, a.hasClock = ClockTime{}, false
}

// Ingest decodes the group and merges it. Feeding the same group twice
// leaves the records as after the first time. A group with an
// uncorrectable block it depends on is dropped and ErrUncorrectableBlock
// returned; the records are unchanged.
func (a *Assembler) Ingest(g Group) (Decoded, error) {
	d, err := Decode(g)

	a.mtx.Lock()
	defer a.mtx.Unlock()

	if err != nil {
		a.stats.Skipped++
		return d, err
	}

	if d.PIValid {
		if a.piValid && a.pi != d.PI {
			a.clearRecords()
			a.stats.PIChanges++
		}
		a.pi, a.piValid = d.PI, true
	}
	a.pty = d.ProgramType
	a.tp = d.TrafficProgram

	switch p := d.Payload.(type) {
	case StationNameSegment:
		a.ta = p.TrafficAnnouncement
		a.music = p.Music
		a.ps.write(p.Address, p.Chars[:])
	case RadioTextASegment:
		a.rtA.toggle(p.FlagAB)
		a.rtA.write(p.Address, p.Chars[:])
	case RadioTextBSegment:
		a.rtB.toggle(p.FlagAB)
		a.rtB.write(p.Address, p.Chars[:])
	case ClockTime:
		if !p.Valid() {
			a.stats.Unhandled++
			return d, nil
		}
		a.clock, a.hasClock = p, true
	default:
		a.stats.Unhandled++
		return d, nil
	}
	a.stats.Groups++
	return d, nil
}

// Snapshot returns a copy of the current records.
func (a *Assembler) Snapshot() Snapshot {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return Snapshot{
		PI:                  a.pi,
		PIValid:             a.piValid,
		ProgramType:         a.pty,
		TrafficProgram:      a.tp,
		TrafficAnnouncement: a.ta,
		Music:               a.music,
		StationName:         a.ps.text(),
		StationNameComplete: a.ps.complete(),
		RadioTextA:          a.rtA.text(),
		RadioTextAComplete:  a.rtA.complete(),
		RadioTextB:          a.rtB.text(),
		RadioTextBComplete:  a.rtB.complete(),
		Clock:               a.clock,
		ClockValid:          a.hasClock,
	}
}

// Stats returns the group counters.
func (a *Assembler) Stats() Stats {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.stats
}
