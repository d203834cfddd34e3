package radio

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandshake(maxWait time.Duration) (*handshake, *fakeSi4735) {
	adaptor, chip := NewI2cTestAdaptor()
	return &handshake{
		bus:          adaptor,
		pollInterval: time.Microsecond,
		maxWait:      maxWait,
		debugLog:     func(string, ...interface{}) {},
	}, chip
}

func TestHandshakeWaitsForCTS(t *testing.T) {
	hs, chip := newTestHandshake(50 * time.Millisecond)
	chip.busyReads = 5

	require.NoError(t, hs.send(setPropertyCommand(PROP_RX_VOLUME, 10)))
	assert.Equal(t, uint16(10), chip.props[PROP_RX_VOLUME])
	assert.Equal(t, stateIdle, hs.current())
}

func TestHandshakeTimeout(t *testing.T) {
	hs, chip := newTestHandshake(5 * time.Millisecond)
	chip.silent = true

	start := time.Now()
	err := hs.send(Command{Opcode: CMD_GET_INT_STATUS})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.Equal(t, stateIdle, hs.current())

	// a single attempt, no retry
	assert.Equal(t, 1, chip.sent(CMD_GET_INT_STATUS))

	chip.silent = false
	assert.NoError(t, hs.send(Command{Opcode: CMD_GET_INT_STATUS}))
}

func TestHandshakeBusy(t *testing.T) {
	hs, chip := newTestHandshake(5 * time.Millisecond)
	hs.state.Store(int32(statePollingReady))

	err := hs.send(Command{Opcode: CMD_GET_INT_STATUS})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, chip.commands)
}

func TestHandshakeErrorBit(t *testing.T) {
	hs, chip := newTestHandshake(5 * time.Millisecond)
	chip.failOpcode = CMD_SET_PROPERTY

	err := hs.send(setPropertyCommand(PROP_RX_VOLUME, 10))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestHandshakeShortResponse(t *testing.T) {
	hs, _ := newTestHandshake(5 * time.Millisecond)

	_, err := hs.exchange(Command{Opcode: CMD_GET_INT_STATUS}, 8)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestHandshakePowerDownDoesNotWait(t *testing.T) {
	adaptor, chip := NewI2cTestAdaptor()
	var reads int32
	adaptor.i2cReadImpl = func(t *I2CTestAdaptor, b []byte) (int, error) {
		atomic.AddInt32(&reads, 1)
		return chip.read(t, b)
	}
	hs := &handshake{bus: adaptor, pollInterval: time.Microsecond, maxWait: time.Millisecond}

	resp, err := hs.exchange(Command{Opcode: CMD_POWER_DOWN}, 1)
	assert.NoError(t, err)
	assert.Nil(t, resp)
	assert.Zero(t, atomic.LoadInt32(&reads))
}

func TestHandshakeReadySignal(t *testing.T) {
	hs, _ := newTestHandshake(50 * time.Millisecond)
	hs.ready = NewReadySignal()

	go func() {
		time.Sleep(2 * time.Millisecond)
		hs.ready.Notify()
	}()
	assert.NoError(t, hs.send(Command{Opcode: CMD_GET_INT_STATUS}))
	assert.False(t, hs.ready.Pending())

	hs.maxWait = 5 * time.Millisecond
	err := hs.send(Command{Opcode: CMD_GET_INT_STATUS})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestReadySignal(t *testing.T) {
	r := NewReadySignal()
	assert.False(t, r.Pending())
	assert.False(t, r.Wait(time.Millisecond))

	r.Notify()
	r.Notify()
	assert.True(t, r.Pending())
	assert.True(t, r.Wait(0))
	assert.False(t, r.Pending())
	assert.False(t, r.Wait(time.Millisecond))
}

func TestHandshakeStateString(t *testing.T) {
	assert.Equal(t, "idle", stateIdle.String())
	assert.Equal(t, "timed out", stateTimedOut.String())
}
