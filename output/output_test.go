package output

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/lightoy/color"
)

type fakePort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	block  chan struct{}
	fail   error
	closed bool
}

func (p *fakePort) Write(data []byte) (int, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return 0, p.fail
	}
	return p.buf.Write(data)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed && p.block != nil {
		close(p.block)
	}
	p.closed = true
	return nil
}

func (p *fakePort) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.buf.Bytes()...)
}

func openerFor(ports ...*fakePort) (PortOpener, *int) {
	calls := 0
	return func() (io.WriteCloser, error) {
		if calls >= len(ports) {
			calls++
			return nil, errors.New("no such device")
		}
		p := ports[calls]
		calls++
		return p, nil
	}, &calls
}

func TestEncode_TwoLeds(t *testing.T) {
	frame := color.Frame{{Red: 1}, {Green: 1}}
	got := Encode(nil, frame)
	assert.Equal(t, []byte{'h', 'e', 'a', 'd', 255, 0, 0, 0, 255, 0}, got)
}

func TestEncode_RoundsAndClamps(t *testing.T) {
	frame := color.Frame{{Red: 0.5, Green: -1, Blue: 7}}
	got := Encode(nil, frame)
	require.Len(t, got, 7)
	// G, R, B
	assert.Equal(t, []byte{0, 128, 255}, got[4:])

	assert.Equal(t, byte(0), toByte(0.001))
	assert.Equal(t, byte(1), toByte(0.003))
}

func TestEncode_Length(t *testing.T) {
	for _, n := range []int{0, 1, 125} {
		assert.Len(t, Encode(nil, color.NewFrame(n)), 4+3*n)
	}
}

func TestNoop(t *testing.T) {
	n := NewNoop()
	require.NoError(t, n.Output(color.NewFrame(3)))
	require.NoError(t, n.Output(nil))
	assert.Equal(t, uint64(2), n.Frames())
	assert.NoError(t, n.Close())
}

func TestSerial_WritesFrames(t *testing.T) {
	port := &fakePort{}
	open, _ := openerFor(port)
	s, err := NewSerialWithOpener("fake", open, 0)
	require.NoError(t, err)

	require.NoError(t, s.Output(color.Frame{{Blue: 1}}))
	assert.Equal(t, []byte{'h', 'e', 'a', 'd', 0, 0, 255}, port.Bytes())

	require.NoError(t, s.Close())
	assert.True(t, port.closed)
	assert.ErrorIs(t, s.Output(color.Frame{}), ErrNotOpen)
}

func TestSerial_OpenFailure(t *testing.T) {
	open, _ := openerFor()
	_, err := NewSerialWithOpener("fake", open, 0)
	assert.Error(t, err)
}

func TestSerial_WriteTimeout(t *testing.T) {
	stuck := &fakePort{block: make(chan struct{})}
	fresh := &fakePort{}
	open, calls := openerFor(stuck, fresh)
	s, err := NewSerialWithOpener("fake", open, 20*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	err = s.Output(color.NewFrame(2))
	assert.ErrorIs(t, err, ErrWriteTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, stuck.closed)

	assert.ErrorIs(t, s.Output(color.NewFrame(2)), ErrNotOpen)

	require.NoError(t, s.Reopen())
	assert.Equal(t, 2, *calls)
	require.NoError(t, s.Output(color.Frame{{Red: 1}}))
	assert.Equal(t, []byte{'h', 'e', 'a', 'd', 0, 255, 0}, fresh.Bytes())
}

func TestSerial_WriteError(t *testing.T) {
	port := &fakePort{fail: errors.New("unplugged")}
	open, _ := openerFor(port)
	s, err := NewSerialWithOpener("fake", open, time.Second)
	require.NoError(t, err)
	assert.ErrorContains(t, s.Output(color.NewFrame(1)), "unplugged")
}

type fakeBus struct {
	sent   [][]byte
	closed bool
}

func (b *fakeBus) Transmit(data []byte) {
	b.sent = append(b.sent, append([]byte(nil), data...))
}

func (b *fakeBus) Close() error {
	b.closed = true
	return nil
}

func TestSPI_WS2801(t *testing.T) {
	bus := &fakeBus{}
	s, err := NewSPIWithBus(SPIConfig{LedType: "ws2801"}, bus)
	require.NoError(t, err)
	require.NoError(t, s.Output(color.Frame{{Red: 1}, {Blue: 0.5}}))
	require.Len(t, bus.sent, 1)
	assert.Equal(t, []byte{255, 0, 0, 0, 0, 128}, bus.sent[0])
}

func TestSPI_APA102(t *testing.T) {
	bus := &fakeBus{}
	s, err := NewSPIWithBus(SPIConfig{
		LedType:         LedTypeAPA102,
		ColorCorrection: [3]float64{1, 0.5, 1},
		Brightness:      31,
	}, bus)
	require.NoError(t, err)
	require.NoError(t, s.Output(color.Frame{{Red: 1, Green: 1, Blue: 1}}))
	require.Len(t, bus.sent, 1)
	assert.Equal(t, []byte{
		0, 0, 0, 0,
		0xFF, 255, 128, 255,
		0xFF,
	}, bus.sent[0])

	require.NoError(t, s.Close())
	assert.True(t, bus.closed)
	assert.ErrorIs(t, s.Output(nil), ErrNotOpen)
}

func TestSPI_UnknownLedType(t *testing.T) {
	_, err := NewSPIWithBus(SPIConfig{LedType: "WS2812"}, &fakeBus{})
	assert.Error(t, err)
}

type flakyOutput struct {
	failures int
	writes   int
	reopens  int
	reopenOK bool
}

func (o *flakyOutput) Output(frame color.Frame) error {
	o.writes++
	if o.failures > 0 {
		o.failures--
		return errors.New("io error")
	}
	return nil
}

func (o *flakyOutput) Close() error { return nil }

func (o *flakyOutput) Reopen() error {
	o.reopens++
	if !o.reopenOK {
		return errors.New("still gone")
	}
	return nil
}

func newTestResilient(inner Output, policy RetryPolicy) (*Resilient, *time.Time, *[]time.Duration) {
	r := NewResilient("test", inner, policy)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var sleeps []time.Duration
	r.now = func() time.Time { return now }
	r.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return r, &now, &sleeps
}

func TestResilient_RetriesWithBackoff(t *testing.T) {
	inner := &flakyOutput{failures: 2}
	r, _, sleeps := newTestResilient(inner, RetryPolicy{Retries: 3, RetryDelay: time.Millisecond})

	require.NoError(t, r.Output(color.NewFrame(1)))
	assert.Equal(t, 3, inner.writes)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, *sleeps)
	assert.False(t, r.Degraded())
	assert.False(t, r.Faults().HasPending())
}

func TestResilient_DegradesAndRecovers(t *testing.T) {
	inner := &flakyOutput{failures: 100}
	r, now, _ := newTestResilient(inner, RetryPolicy{Retries: 1, ReopenInterval: time.Second})

	require.NoError(t, r.Output(color.NewFrame(1)))
	assert.True(t, r.Degraded())
	assert.Equal(t, 2, inner.writes)
	fault, ok := r.Faults().Consume()
	require.True(t, ok)
	assert.True(t, fault.Degraded)
	assert.Error(t, fault.Err)

	// degraded: frames are dropped and no reopen before the interval
	require.NoError(t, r.Output(color.NewFrame(1)))
	assert.Equal(t, 2, inner.writes)
	assert.Equal(t, 0, inner.reopens)

	*now = now.Add(time.Second)
	require.NoError(t, r.Output(color.NewFrame(1)))
	assert.Equal(t, 1, inner.reopens)
	assert.True(t, r.Degraded())
	assert.False(t, r.Faults().HasPending(), "failed reopen publishes nothing")

	inner.failures = 0
	inner.reopenOK = true
	*now = now.Add(time.Second)
	require.NoError(t, r.Output(color.NewFrame(1)))
	assert.False(t, r.Degraded())
	assert.Equal(t, 3, inner.writes)
	fault, ok = r.Faults().Consume()
	require.True(t, ok)
	assert.False(t, fault.Degraded)
}

// plainOutput hides every method of inner except those of Output.
type plainOutput struct {
	inner Output
}

func (p plainOutput) Output(frame color.Frame) error { return p.inner.Output(frame) }
func (p plainOutput) Close() error                   { return p.inner.Close() }

func TestResilient_NoReopenerStaysDegraded(t *testing.T) {
	port := &fakePort{fail: errors.New("broken")}
	open, _ := openerFor(port)
	s, err := NewSerialWithOpener("fake", open, 0)
	require.NoError(t, err)

	r, now, _ := newTestResilient(NewNoop(), DefaultRetryPolicy())
	r.inner = plainOutput{inner: s}
	require.NoError(t, r.Output(color.NewFrame(1)))
	assert.True(t, r.Degraded())
	*now = now.Add(time.Hour)
	require.NoError(t, r.Output(color.NewFrame(1)))
	assert.True(t, r.Degraded())
}

func TestResilient_Close(t *testing.T) {
	r := NewResilient("noop", NewNoop(), DefaultRetryPolicy())
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Output(nil), ErrNotOpen)
	assert.NoError(t, r.Close())
}
