package radio

import (
	"errors"

	"fmreceiver/rds"
)

// Receiver errors
var (
	// ErrTimeout means the chip did not raise CTS (or STC) within the
	// configured maximum wait. The command is not retried.
	ErrTimeout = errors.New("receiver did not answer in time")

	// ErrMalformedResponse means a response had the wrong length or the
	// chip flagged the command as failed.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrBusy means a command was issued while another one was in flight.
	ErrBusy = errors.New("a command is already in flight")

	// ErrUnknownOpcode means the codec has no layout for the opcode.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrInvalidFrequency means the frequency cannot be encoded for the current mode.
	ErrInvalidFrequency = errors.New("frequency not representable in current mode")

	// ErrNotPoweredUp means the operation needs a powered receiver.
	ErrNotPoweredUp = errors.New("receiver is not powered up")

	// ErrWrongMode means the operation is not available in the current mode.
	ErrWrongMode = errors.New("operation not available in current mode")

	// ErrPatchRequired means SSB was requested before a patch was loaded.
	ErrPatchRequired = errors.New("SSB needs the firmware patch to be loaded first")

	// ErrInvalidPatch means the patch blob is empty or not made of 8 byte chunks.
	ErrInvalidPatch = errors.New("patch size must be a non-zero multiple of 8")

	// ErrUncorrectableBlock is returned when an RDS group was skipped because
	// a block it needs could not be corrected. It is not fatal.
	ErrUncorrectableBlock = rds.ErrUncorrectableBlock
)
