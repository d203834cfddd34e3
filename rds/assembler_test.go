package rds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingestAll(t *testing.T, a *Assembler, groups ...Group) {
	t.Helper()
	for _, g := range groups {
		_, err := a.Ingest(g)
		require.NoError(t, err)
	}
}

func TestAssemblerStationName(t *testing.T) {
	a := NewAssembler()

	snap := a.Snapshot()
	assert.Empty(t, snap.StationName)
	assert.False(t, snap.StationNameComplete)

	ingestAll(t, a, psGroup(0, "RA"), psGroup(1, "DI"))
	snap = a.Snapshot()
	assert.Equal(t, "RADI", snap.StationName)
	assert.False(t, snap.StationNameComplete)

	ingestAll(t, a, psGroup(3, "1 "), psGroup(2, "O "))
	snap = a.Snapshot()
	assert.Equal(t, "RADIO 1", snap.StationName)
	assert.True(t, snap.StationNameComplete)
	assert.True(t, snap.PIValid)
	assert.Equal(t, uint16(testPI), snap.PI)
	assert.True(t, snap.Music)
}

func TestAssemblerIdempotent(t *testing.T) {
	a := NewAssembler()
	g := rtAGroup(0, false, "News")

	ingestAll(t, a, g)
	first := a.Snapshot()
	ingestAll(t, a, g)

	assert.Equal(t, first, a.Snapshot())
	assert.Equal(t, 2, a.Stats().Groups)
}

func TestAssemblerUncorrectableLeavesRecords(t *testing.T) {
	a := NewAssembler()
	ingestAll(t, a, psGroup(0, "AB"))
	before := a.Snapshot()

	g := psGroup(0, "XY")
	g.Grades[BlockD] = GradeUncorrectable
	_, err := a.Ingest(g)

	assert.ErrorIs(t, err, ErrUncorrectableBlock)
	assert.Equal(t, before, a.Snapshot())
	assert.Equal(t, 1, a.Stats().Skipped)
}

func TestAssemblerRadioTextToggleClears(t *testing.T) {
	a := NewAssembler()
	ingestAll(t, a, rtAGroup(0, false, "Old "), rtAGroup(1, false, "text"))
	assert.Equal(t, "Old text", a.Snapshot().RadioTextA)

	ingestAll(t, a, rtAGroup(0, true, "New"+"\r"))
	snap := a.Snapshot()
	assert.Equal(t, "New", snap.RadioTextA)
	assert.True(t, snap.RadioTextAComplete)
}

func TestAssemblerRadioTextCompleteness(t *testing.T) {
	a := NewAssembler()
	ingestAll(t, a, rtAGroup(1, false, "ld\r "))

	snap := a.Snapshot()
	assert.Equal(t, "    ld", snap.RadioTextA)
	assert.False(t, snap.RadioTextAComplete)

	ingestAll(t, a, rtAGroup(0, false, "Wor "))
	snap = a.Snapshot()
	assert.Equal(t, "Wor ld", snap.RadioTextA)
	assert.True(t, snap.RadioTextAComplete)
}

func TestAssemblerRadioTextFullLength(t *testing.T) {
	a := NewAssembler()
	text := strings.Repeat("0123456789ABCDEF", 4)
	for i := 0; i < 16; i++ {
		ingestAll(t, a, rtAGroup(uint8(i), false, text[i*4:i*4+4]))
	}

	snap := a.Snapshot()
	assert.Equal(t, text, snap.RadioTextA)
	assert.True(t, snap.RadioTextAComplete)
}

func TestAssemblerTextABIndependent(t *testing.T) {
	a := NewAssembler()
	ingestAll(t, a,
		rtAGroup(0, false, "Long"),
		rtBGroup(0, false, "Sh"),
		rtBGroup(1, false, "or"),
	)

	// a toggle on 2B does not touch 2A
	ingestAll(t, a, rtBGroup(0, true, "Hi"))
	snap := a.Snapshot()
	assert.Equal(t, "Long", snap.RadioTextA)
	assert.Equal(t, "Hi", snap.RadioTextB)

	ingestAll(t, a, rtAGroup(0, true, "Next"))
	snap = a.Snapshot()
	assert.Equal(t, "Next", snap.RadioTextA)
	assert.Equal(t, "Hi", snap.RadioTextB)
	assert.Equal(t, "Next", snap.RadioText())
}

func TestAssemblerPIChangeClears(t *testing.T) {
	a := NewAssembler()
	ingestAll(t, a, psGroup(0, "AB"), rtAGroup(0, false, "Text"))

	g := psGroup(1, "CD")
	g.Blocks[BlockA] = 0x1234
	ingestAll(t, a, g)

	snap := a.Snapshot()
	assert.Equal(t, uint16(0x1234), snap.PI)
	assert.Equal(t, "  CD", snap.StationName)
	assert.Empty(t, snap.RadioTextA)
	assert.Equal(t, 1, a.Stats().PIChanges)
}

func TestAssemblerClock(t *testing.T) {
	a := NewAssembler()
	ingestAll(t, a, clockGroup(60374, 14, 7, false, 4))

	snap := a.Snapshot()
	require.True(t, snap.ClockValid)
	assert.Equal(t, uint8(7), snap.Clock.Minute)

	ingestAll(t, a, clockGroup(60375, 1, 2, false, 0))
	snap = a.Snapshot()
	assert.Equal(t, ClockTime{MJD: 60375, Hour: 1, Minute: 2}, snap.Clock)
}

func TestAssemblerReset(t *testing.T) {
	a := NewAssembler()
	ingestAll(t, a, psGroup(0, "AB"), clockGroup(60374, 14, 7, false, 4))
	a.Reset()

	snap := a.Snapshot()
	assert.Equal(t, Snapshot{}, snap)
	assert.Equal(t, 2, a.Stats().Groups)
}
