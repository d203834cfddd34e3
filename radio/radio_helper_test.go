package radio

import (
	"errors"
	"sync"

	"gobot.io/x/gobot/drivers/i2c"
)

var errNoRegisters = errors.New("si4735 has no register map")

// I2CTestAdaptor stands in for the board: it is the i2c connector, the
// connection and the digital writer driving the reset pin. The receiver only
// talks in raw frames, so the SMBus register calls fail.
type I2CTestAdaptor struct {
	name string

	mtx     sync.Mutex
	written []byte
	// frames holds every write transaction as sent.
	frames [][]byte
	// pins records the levels written to each pin, in order.
	pins map[string][]byte

	address, bus  int
	i2cConnectErr bool
	i2cReadImpl   func(*I2CTestAdaptor, []byte) (int, error)
	i2cWriteImpl  func(*I2CTestAdaptor, []byte) (int, error)
}

func (t *I2CTestAdaptor) DigitalWrite(pin string, level byte) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.pins == nil {
		t.pins = map[string][]byte{}
	}
	t.pins[pin] = append(t.pins[pin], level)
	return nil
}

func (t *I2CTestAdaptor) pinLevels(pin string) []byte {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return append([]byte(nil), t.pins[pin]...)
}

func (t *I2CTestAdaptor) Read(b []byte) (int, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.i2cReadImpl(t, b)
}

func (t *I2CTestAdaptor) Write(b []byte) (int, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	frame := append([]byte(nil), b...)
	t.written = append(t.written, frame...)
	t.frames = append(t.frames, frame)
	return t.i2cWriteImpl(t, frame)
}

// lastFrame is the most recent write transaction.
func (t *I2CTestAdaptor) lastFrame() []byte {
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

func (t *I2CTestAdaptor) Close() error {
	return nil
}

func (t *I2CTestAdaptor) ReadByte() (byte, error) {
	b := []byte{0}
	if _, err := t.Read(b); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (t *I2CTestAdaptor) WriteByte(val byte) error {
	_, err := t.Write([]byte{val})
	return err
}

func (t *I2CTestAdaptor) ReadByteData(uint8) (uint8, error)  { return 0, errNoRegisters }
func (t *I2CTestAdaptor) ReadWordData(uint8) (uint16, error) { return 0, errNoRegisters }
func (t *I2CTestAdaptor) WriteByteData(uint8, uint8) error   { return errNoRegisters }
func (t *I2CTestAdaptor) WriteWordData(uint8, uint16) error  { return errNoRegisters }
func (t *I2CTestAdaptor) WriteBlockData(uint8, []byte) error { return errNoRegisters }

func (t *I2CTestAdaptor) GetConnection(address int, bus int) (i2c.Connection, error) {
	if t.i2cConnectErr {
		return nil, errors.New("invalid i2c connection")
	}
	t.address, t.bus = address, bus
	return t, nil
}

func (t *I2CTestAdaptor) GetDefaultBus() int {
	return 1
}

func (t *I2CTestAdaptor) Name() string          { return t.name }
func (t *I2CTestAdaptor) SetName(n string)      { t.name = n }
func (t *I2CTestAdaptor) Connect() (err error)  { return }
func (t *I2CTestAdaptor) Finalize() (err error) { return }
