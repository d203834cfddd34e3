// Package rds reassembles Radio Data System groups into station name,
// radio text and clock records.
//
// A group is four 16-bit blocks (A, B, C, D), each received with an error
// correction grade. Block A carries the program identification (PI) code,
// block B the group type and the type specific bits, blocks C and D the
// payload. See IEC 62106 (EN 50067) for the group layouts.
package rds

import (
	"errors"
	"fmt"
)

// ErrUncorrectableBlock means a block a group needs could not be corrected,
// so the group was not merged.
var ErrUncorrectableBlock = errors.New("uncorrectable RDS block")

// Grade is the error correction grade of a block.
type Grade uint8

//goland:noinspection GoUnusedConst
const (
	GradeClean         Grade = 0 // no errors
	GradeCorrectedLow  Grade = 1 // 1-2 bit errors corrected
	GradeCorrectedHigh Grade = 2 // 3-5 bit errors corrected
	GradeUncorrectable Grade = 3
)

// Block indexes inside a Group.
const (
	BlockA = iota
	BlockB
	BlockC
	BlockD
)

var blockNames = [4]string{"A", "B", "C", "D"}

// Group is one RDS group as read from the receiver.
type Group struct {
	Blocks [4]uint16
	Grades [4]Grade
}

func (g Group) usable(block int) bool {
	return g.Grades[block]&0x3 != GradeUncorrectable
}

// Version of a group type.
type Version uint8

//goland:noinspection GoUnusedConst
const (
	VersionA Version = 0
	VersionB Version = 1
)

// GroupType is the 4-bit type code plus the version bit of block B.
type GroupType struct {
	Code    uint8
	Version Version
}

func (t GroupType) String() string {
	v := 'A'
	if t.Version == VersionB {
		v = 'B'
	}
	return fmt.Sprintf("%d%c", t.Code, v)
}

// Payload is the type specific content of a group. It is one of
// StationNameSegment, RadioTextASegment, RadioTextBSegment, ClockTime
// or Unhandled.
type Payload interface {
	payload()
}

// StationNameSegment is two characters of the program service name (type 0).
type StationNameSegment struct {
	Address             uint8 // 0..3
	Chars               [2]byte
	TrafficAnnouncement bool
	Music               bool
	DecoderInfo         bool
}

// RadioTextASegment is four characters of the 64 character radio text (type 2A).
type RadioTextASegment struct {
	Address uint8 // 0..15
	FlagAB  bool
	Chars   [4]byte
}

// RadioTextBSegment is two characters of the 32 character radio text (type 2B).
type RadioTextBSegment struct {
	Address uint8 // 0..15
	FlagAB  bool
	Chars   [2]byte
}

// Unhandled is any group type the assembler does not store.
type Unhandled struct{}

func (StationNameSegment) payload() {}
func (RadioTextASegment) payload()  {}
func (RadioTextBSegment) payload()  {}
func (ClockTime) payload()          {}
func (Unhandled) payload()          {}

// Decoded is a group with block B interpreted once.
type Decoded struct {
	Type           GroupType
	PI             uint16
	PIValid        bool
	ProgramType    uint8
	TrafficProgram bool
	Payload        Payload
}

// Decode extracts the group type from block B and builds the matching
// payload. A group whose block B, or a block the payload lives in, is
// uncorrectable returns ErrUncorrectableBlock.
func Decode(g Group) (Decoded, error) {
	if !g.usable(BlockB) {
		return Decoded{}, fmt.Errorf("%w: block B", ErrUncorrectableBlock)
	}

	b := g.Blocks[BlockB]
	d := Decoded{
		Type: GroupType{
			Code:    uint8(b >> 12),
			Version: Version((b >> 11) & 0x1),
		},
		TrafficProgram: (b>>10)&0x1 == 1,
		ProgramType:    uint8((b >> 5) & 0x1F),
	}
	if g.usable(BlockA) {
		d.PI = g.Blocks[BlockA]
		d.PIValid = true
	}

	c, dd := g.Blocks[BlockC], g.Blocks[BlockD]
	switch {
	case d.Type.Code == 0:
		if err := requireBlocks(g, BlockD); err != nil {
			return d, err
		}
		d.Payload = StationNameSegment{
			Address:             uint8(b & 0x3),
			Chars:               [2]byte{byte(dd >> 8), byte(dd)},
			DecoderInfo:         (b>>2)&0x1 == 1,
			Music:               (b>>3)&0x1 == 1,
			TrafficAnnouncement: (b>>4)&0x1 == 1,
		}
	case d.Type.Code == 2 && d.Type.Version == VersionA:
		if err := requireBlocks(g, BlockC, BlockD); err != nil {
			return d, err
		}
		d.Payload = RadioTextASegment{
			Address: uint8(b & 0xF),
			FlagAB:  (b>>4)&0x1 == 1,
			Chars:   [4]byte{byte(c >> 8), byte(c), byte(dd >> 8), byte(dd)},
		}
	case d.Type.Code == 2 && d.Type.Version == VersionB:
		if err := requireBlocks(g, BlockD); err != nil {
			return d, err
		}
		d.Payload = RadioTextBSegment{
			Address: uint8(b & 0xF),
			FlagAB:  (b>>4)&0x1 == 1,
			Chars:   [2]byte{byte(dd >> 8), byte(dd)},
		}
	case d.Type.Code == 4 && d.Type.Version == VersionA:
		if err := requireBlocks(g, BlockC, BlockD); err != nil {
			return d, err
		}
		d.Payload = decodeClock(b, c, dd)
	default:
		d.Payload = Unhandled{}
	}
	return d, nil
}

func requireBlocks(g Group, blocks ...int) error {
	for _, b := range blocks {
		if !g.usable(b) {
			return fmt.Errorf("%w: block %s", ErrUncorrectableBlock, blockNames[b])
		}
	}
	return nil
}
