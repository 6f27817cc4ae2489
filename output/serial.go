package output

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
	"lautenbacher.net/lightoy/color"
)

// Header starts every frame on the serial link.
const Header = "head"

// Encode appends the wire form of frame to dst: the header followed by
// G, R, B of every LED, last LED first.
func Encode(dst []byte, frame color.Frame) []byte {
	dst = append(dst, Header...)
	for i := len(frame) - 1; i >= 0; i-- {
		led := frame[i]
		dst = append(dst, toByte(led.Green), toByte(led.Red), toByte(led.Blue))
	}
	return dst
}

// PortOpener opens the serial device.
type PortOpener func() (io.WriteCloser, error)

// SerialOpener opens device with go.bug.st/serial at the given baud rate.
func SerialOpener(device string, baud int) PortOpener {
	return func() (io.WriteCloser, error) {
		port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
		}
		return port, nil
	}
}

// Serial writes frames to a downstream controller over a serial link.
type Serial struct {
	mu      sync.Mutex
	name    string
	open    PortOpener
	port    io.WriteCloser
	timeout time.Duration
	buffer  []byte
}

// NewSerial opens device. A zero timeout lets writes block until the
// driver returns.
func NewSerial(device string, baud int, timeout time.Duration) (*Serial, error) {
	return NewSerialWithOpener(device, SerialOpener(device, baud), timeout)
}

// NewSerialWithOpener is NewSerial with a custom port opener.
func NewSerialWithOpener(name string, open PortOpener, timeout time.Duration) (*Serial, error) {
	inst := &Serial{
		name:    name,
		open:    open,
		timeout: timeout,
	}
	port, err := open()
	if err != nil {
		return nil, err
	}
	inst.port = port
	slog.Info("Opened serial output", "device", name, "timeout", timeout)
	return inst, nil
}

func (s *Serial) Output(frame color.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return fmt.Errorf("%s: %w", s.name, ErrNotOpen)
	}
	s.buffer = Encode(s.buffer[:0], frame)
	if s.timeout <= 0 {
		return s.write(s.port, s.buffer)
	}

	// the writer gets its own copy, a timed out write may still be running
	data := append([]byte(nil), s.buffer...)
	port := s.port
	done := make(chan error, 1)
	go func() {
		done <- s.write(port, data)
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		// closing unblocks the pending write; the port stays unusable until
		// Reopen
		if err := port.Close(); err != nil {
			slog.Warn("Error closing stuck serial port", "device", s.name, "error", err)
		}
		s.port = nil
		return fmt.Errorf("%s after %v: %w", s.name, s.timeout, ErrWriteTimeout)
	}
}

func (s *Serial) write(port io.Writer, data []byte) error {
	n, err := port.Write(data)
	if err != nil {
		return fmt.Errorf("serial write to %s: %w", s.name, err)
	}
	if n != len(data) {
		return fmt.Errorf("serial write to %s: short write %d of %d bytes", s.name, n, len(data))
	}
	return nil
}

// Reopen closes the current port, if any, and opens the device again.
func (s *Serial) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
	port, err := s.open()
	if err != nil {
		return err
	}
	s.port = port
	slog.Info("Reopened serial output", "device", s.name)
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
