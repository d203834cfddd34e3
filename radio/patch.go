package radio

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

// patchChunkSize is the size of one patch write. Every chunk carries its
// own opcode and is acknowledged with CTS.
const patchChunkSize = 8

// PatchSource provides the SSB firmware patch. The content is opaque to
// the driver.
type PatchSource interface {
	Patch() ([]byte, error)
}

// BytesPatch is a patch held in memory.
type BytesPatch []byte

// Patch returns the bytes.
func (p BytesPatch) Patch() ([]byte, error) {
	return p, nil
}

// FilePatch is a patch read from a file. The file is either the raw
// binary or a list of hex bytes such as "0x15, 0x00, 0x0F, ..." as found
// in C headers.
type FilePatch string

var hexByte = regexp.MustCompile(`0[xX]([0-9a-fA-F]{1,2})\b`)

// Patch reads the file.
func (p FilePatch) Patch() ([]byte, error) {
	content, err := os.ReadFile(string(p))
	if err != nil {
		return nil, err
	}
	if !bytes.Contains(content, []byte("0x")) && !bytes.Contains(content, []byte("0X")) {
		return content, nil
	}

	matches := hexByte.FindAllSubmatch(content, -1)
	res := make([]byte, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseUint(string(m[1]), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		res = append(res, byte(v))
	}
	return res, nil
}

// LoadPatch downloads the patch into the chip. The receiver is left in AM
// mode with the patch resident; call SetSSB next. The source is kept and
// used again whenever SSB is entered after a power cycle.
func (s *Si4735Driver) LoadPatch(src PatchSource) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.hs == nil {
		return ErrNotPoweredUp
	}
	band := AMBand
	if s.powered && s.mode != ModeFM && s.band.Step != 0 {
		band = s.band
		band.Initial = s.frequency
	}

	if err := s.loadPatch(src); err != nil {
		return err
	}
	s.patch = src
	return s.setMode(ModeAM, 0, band)
}

// PatchLoaded reports whether the SSB patch is resident.
func (s *Si4735Driver) PatchLoaded() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.patchLoaded
}

// loadPatch queries the library ID, powers up in patch mode and writes the
// patch in 8 byte chunks. The chip ends up powered in the AM function.
func (s *Si4735Driver) loadPatch(src PatchSource) error {
	blob, err := src.Patch()
	if err != nil {
		return fmt.Errorf("reading patch: %w", err)
	}
	if len(blob) == 0 || len(blob)%patchChunkSize != 0 {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidPatch, len(blob))
	}

	if _, err = s.queryLibraryID(); err != nil {
		return err
	}

	if err = s.hs.send(s.powerUpCommand(POWER_UP_AM, true)); err != nil {
		return err
	}
	time.Sleep(s.powerUpDelay)

	for offset := 0; offset < len(blob); offset += patchChunkSize {
		if _, err = s.hs.exchangeRaw(blob[offset:offset+patchChunkSize], 1); err != nil {
			return fmt.Errorf("patch chunk %d: %w", offset/patchChunkSize, err)
		}
	}

	s.powered = true
	s.patchLoaded = true
	s.enterFunction(ModeAM)
	s.log("SSB patch loaded, %d bytes\n", len(blob))
	return nil
}
