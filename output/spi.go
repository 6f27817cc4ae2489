package output

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	"lautenbacher.net/lightoy/color"
	"lautenbacher.net/lightoy/util"
)

const (
	LedTypeAPA102 = "APA102"
	LedTypeWS2801 = "WS2801"
)

// SPIConfig selects the LED chip and the bus tuning.
type SPIConfig struct {
	LedType   string
	Frequency int
	// per channel factor applied before conversion to bytes, R G B
	ColorCorrection [3]float64
	// APA102 global brightness, 0..31
	Brightness byte
}

// SpiBus transmits raw bytes to the LED strip.
type SpiBus interface {
	Transmit(data []byte)
	Close() error
}

type rpioBus struct{}

// OpenRpioBus maps the GPIO memory and starts SPI0 at frequency Hz.
func OpenRpioBus(frequency int) (SpiBus, error) {
	slog.Info("Initialise GPIO and Spi...")
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open rpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		_ = rpio.Close()
		return nil, fmt.Errorf("failed to begin spi: %w", err)
	}
	rpio.SpiSpeed(frequency)
	rpio.SpiChipSelect(0)
	return rpioBus{}, nil
}

func (rpioBus) Transmit(data []byte) {
	rpio.SpiTransmit(data...)
}

func (rpioBus) Close() error {
	rpio.SpiEnd(rpio.Spi0)
	return rpio.Close()
}

// ledDriver encodes a frame for one kind of LED chip.
type ledDriver interface {
	encode(frame color.Frame) []byte
}

type ws2801Driver struct {
	correction [3]float64
	buffer     []byte
}

func (d *ws2801Driver) encode(frame color.Frame) []byte {
	display := d.buffer[:0]
	for _, led := range frame {
		r, g, b := correct(led, d.correction)
		display = append(display, r, g, b)
	}
	d.buffer = display
	return display
}

type apa102Driver struct {
	correction [3]float64
	brightness byte
	buffer     []byte
}

func (d *apa102Driver) encode(frame color.Frame) []byte {
	// Frame start: 4 zero bytes
	display := append(d.buffer[:0], 0x00, 0x00, 0x00, 0x00)

	brightness := (d.brightness & 0x1F) | 0xE0
	for _, led := range frame {
		r, g, b := correct(led, d.correction)
		// protocol: brightness byte, blue, green, red
		display = append(display, brightness, b, g, r)
	}

	// Frame end: 0xFF padding
	frameEndLength := (len(frame) / 16) + 1
	for range frameEndLength {
		display = append(display, 0xFF)
	}
	d.buffer = display
	return display
}

func correct(led color.Led, corr [3]float64) (byte, byte, byte) {
	return toByte(util.Clamp(led.Red, 0, 1) * corr[0]),
		toByte(util.Clamp(led.Green, 0, 1) * corr[1]),
		toByte(util.Clamp(led.Blue, 0, 1) * corr[2])
}

// SPI drives an APA102 or WS2801 strip directly from the SPI bus.
type SPI struct {
	mu     sync.Mutex
	bus    SpiBus
	driver ledDriver
}

// NewSPI opens the Raspberry Pi SPI0 bus for the configured chip.
func NewSPI(conf SPIConfig) (*SPI, error) {
	driver, err := newLedDriver(conf)
	if err != nil {
		return nil, err
	}
	bus, err := OpenRpioBus(conf.Frequency)
	if err != nil {
		return nil, err
	}
	return &SPI{bus: bus, driver: driver}, nil
}

// NewSPIWithBus is NewSPI on an already open bus.
func NewSPIWithBus(conf SPIConfig, bus SpiBus) (*SPI, error) {
	driver, err := newLedDriver(conf)
	if err != nil {
		return nil, err
	}
	return &SPI{bus: bus, driver: driver}, nil
}

func newLedDriver(conf SPIConfig) (ledDriver, error) {
	corr := conf.ColorCorrection
	if corr == [3]float64{} {
		corr = [3]float64{1, 1, 1}
	}
	switch strings.ToUpper(conf.LedType) {
	case LedTypeAPA102:
		return &apa102Driver{correction: corr, brightness: conf.Brightness}, nil
	case LedTypeWS2801:
		return &ws2801Driver{correction: corr}, nil
	default:
		return nil, fmt.Errorf("unknown LED type: %s", conf.LedType)
	}
}

func (s *SPI) Output(frame color.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus == nil {
		return ErrNotOpen
	}
	s.bus.Transmit(s.driver.encode(frame))
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus == nil {
		return nil
	}
	err := s.bus.Close()
	s.bus = nil
	return err
}
