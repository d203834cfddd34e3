package radio

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Bus is the byte transport to the receiver, already bound to its address.
// gobot's i2c.Connection satisfies it.
type Bus interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
}

// ReadySignal carries the "data ready" interrupt of the receiver to the
// handshake. Whatever watches the interrupt pin calls Notify. Notifications
// do not queue up: any number of them before a Wait count as one.
type ReadySignal struct {
	ch chan struct{}
}

// NewReadySignal creates a signal with nothing pending.
func NewReadySignal() *ReadySignal {
	return &ReadySignal{ch: make(chan struct{}, 1)}
}

// Notify marks the signal as raised. It never blocks and is safe to call
// from an interrupt or event handler goroutine.
func (r *ReadySignal) Notify() {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

// Pending reports whether Notify was called since the last Wait.
func (r *ReadySignal) Pending() bool {
	return len(r.ch) > 0
}

// Wait consumes a pending notification, waiting at most timeout for one.
func (r *ReadySignal) Wait(timeout time.Duration) bool {
	select {
	case <-r.ch:
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-r.ch:
		return true
	case <-t.C:
		return false
	}
}

type handshakeState int32

const (
	stateIdle handshakeState = iota
	stateCommandSent
	statePollingReady
	stateTimedOut
)

func (s handshakeState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCommandSent:
		return "command sent"
	case statePollingReady:
		return "polling ready"
	case stateTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// handshake enforces the clear-to-send discipline: one command in flight,
// then poll the status byte (or wait for the ready signal) until CTS.
type handshake struct {
	bus          Bus
	ready        *ReadySignal
	pollInterval time.Duration
	maxWait      time.Duration
	state        atomic.Int32

	debugMode bool
	debugLog  func(format string, v ...interface{})
}

func (h *handshake) current() handshakeState {
	return handshakeState(h.state.Load())
}

// exchange sends the command and returns the response of respLen bytes,
// status byte first.
func (h *handshake) exchange(cmd Command, respLen int) ([]byte, error) {
	return h.exchangeRaw(cmd.Bytes(), respLen)
}

// send is exchange for commands answered by the status byte only.
func (h *handshake) send(cmd Command) error {
	_, err := h.exchange(cmd, 1)
	return err
}

func (h *handshake) exchangeRaw(frame []byte, respLen int) ([]byte, error) {
	if !h.state.CompareAndSwap(int32(stateIdle), int32(stateCommandSent)) {
		return nil, ErrBusy
	}
	defer h.state.Store(int32(stateIdle))

	if h.debugMode {
		h.debugLog("*** Command: %s\n", sliceToString(frame))
	}
	if _, err := h.bus.Write(frame); err != nil {
		return nil, err
	}

	// The chip stops answering once powered down.
	if frame[0] == CMD_POWER_DOWN {
		return nil, nil
	}

	h.state.Store(int32(statePollingReady))
	status, err := h.waitCTS()
	if err != nil {
		h.state.Store(int32(stateTimedOut))
		return nil, err
	}

	resp := []byte{status}
	if respLen > 1 {
		if resp, err = h.read(respLen); err != nil {
			return nil, err
		}
	}

	if decodeStatus(resp[0]).Error {
		return resp, fmt.Errorf("%w: device flagged command 0x%02x as failed (status 0x%02x)",
			ErrMalformedResponse, frame[0], resp[0])
	}
	return resp, nil
}

// waitCTS returns the first status byte with CTS set.
func (h *handshake) waitCTS() (byte, error) {
	deadline := time.Now().Add(h.maxWait)
	buf := make([]byte, 1)
	for {
		if h.ready != nil {
			remaining := time.Until(deadline)
			if remaining <= 0 || !h.ready.Wait(remaining) {
				return 0, fmt.Errorf("%w: no ready signal after %s", ErrTimeout, h.maxWait)
			}
		}

		if _, err := h.bus.Read(buf); err != nil {
			return 0, err
		}
		if h.debugMode {
			h.debugLog("status: %x (%d)\n", buf[0], buf[0])
		}
		if decodeStatus(buf[0]).ClearToSend {
			return buf[0], nil
		}

		if time.Now().After(deadline) {
			return 0, fmt.Errorf("%w: CTS not set after %s", ErrTimeout, h.maxWait)
		}
		if h.ready == nil {
			time.Sleep(h.pollInterval)
		}
	}
}

func (h *handshake) read(size int) ([]byte, error) {
	values := make([]byte, size)
	n, err := h.bus.Read(values)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("%w: read %d of %d bytes -> %s", ErrMalformedResponse, n, size, sliceToString(values[:n]))
	}
	if h.debugMode {
		h.debugLog("read %d bytes: %s", size, sliceToString(values))
	}
	return values, nil
}
