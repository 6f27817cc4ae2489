package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"lautenbacher.net/lightoy/effect"
	"lautenbacher.net/lightoy/input"
	"lautenbacher.net/lightoy/output"
	"lautenbacher.net/lightoy/session"
)

const CONFILE = "config.yml"

const (
	OutputSerial = "serial"
	OutputSPI    = "spi"
	OutputNoop   = "noop"
)

type Config struct {
	Render  RenderConfig  `yaml:"Render" json:"Render"`
	Globals GlobalsConfig `yaml:"Globals" json:"Globals"`
	Input   input.Policy  `yaml:"Input" json:"Input"`
	Output  OutputConfig  `yaml:"Output" json:"Output"`
	Control ControlConfig `yaml:"Control" json:"Control"`
	Logging LoggingConfig `yaml:"Logging" json:"Logging"`
}

type RenderConfig struct {
	RefreshRate   float64  `yaml:"RefreshRate" json:"RefreshRate"`
	LedsTotal     int      `yaml:"LedsTotal" json:"LedsTotal"`
	MaxLag        int      `yaml:"MaxLag" json:"MaxLag"` // 0 never skips frames
	InitialEffect string   `yaml:"InitialEffect" json:"InitialEffect"`
	Blend         string   `yaml:"Blend" json:"Blend"`
	Layers        []string `yaml:"Layers,flow" json:"Layers"`
}

type GlobalsConfig struct {
	Twists     float64 `yaml:"Twists" json:"Twists"`
	Gamma      float64 `yaml:"Gamma" json:"Gamma"`
	Brightness float64 `yaml:"Brightness" json:"Brightness"`
}

type OutputConfig struct {
	Type           string        `yaml:"Type" json:"Type"`
	Device         string        `yaml:"Device" json:"Device"`
	Baud           int           `yaml:"Baud" json:"Baud"`
	WriteTimeout   time.Duration `yaml:"WriteTimeout" json:"WriteTimeout"`
	Retries        int           `yaml:"Retries" json:"Retries"`
	RetryDelay     time.Duration `yaml:"RetryDelay" json:"RetryDelay"`
	ReopenInterval time.Duration `yaml:"ReopenInterval" json:"ReopenInterval"`
	SPI            SPIConfig     `yaml:"SPI" json:"SPI"`
}

type SPIConfig struct {
	LEDType         string    `yaml:"LEDType" json:"LEDType"`
	Frequency       int       `yaml:"Frequency" json:"Frequency"`
	ColorCorrection []float64 `yaml:"ColorCorrection,flow" json:"ColorCorrection"`
	Brightness      int       `yaml:"Brightness" json:"Brightness"`
}

type ControlConfig struct {
	Listen string `yaml:"Listen" json:"Listen"`
}

type LoggingConfig struct {
	Level  string `yaml:"Level" json:"Level"`
	Format string `yaml:"Format" json:"Format"`
	File   string `yaml:"File" json:"File"`
}

// Default returns the configuration used for everything a config file
// leaves out.
func Default() Config {
	return Config{
		Render: RenderConfig{
			RefreshRate: 60,
			LedsTotal:   125,
			Blend:       string(session.BlendSingle),
		},
		Globals: GlobalsConfig{
			Twists:     17.55,
			Gamma:      3,
			Brightness: 0.3,
		},
		Input: input.DefaultPolicy(),
		Output: OutputConfig{
			Type:           OutputSerial,
			Device:         "/dev/ttyACM0",
			Baud:           115200,
			WriteTimeout:   100 * time.Millisecond,
			Retries:        2,
			RetryDelay:     2 * time.Millisecond,
			ReopenInterval: 5 * time.Second,
			SPI: SPIConfig{
				LEDType:         output.LedTypeAPA102,
				Frequency:       1000000,
				ColorCorrection: []float64{1, 1, 1},
				Brightness:      31,
			},
		},
		Control: ControlConfig{
			Listen: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// ReadConfig reads cfile on top of the defaults and validates the result.
func ReadConfig(cfile string) (*Config, error) {
	data, err := os.ReadFile(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't read config file %s: %w", cfile, err)
	}
	conf := Default()
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return &conf, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.Render.validate()...)
	errs = append(errs, c.Globals.validate()...)
	errs = append(errs, validatePolicy(c.Input)...)
	errs = append(errs, c.Output.validate()...)
	errs = append(errs, c.Logging.validate()...)
	return errors.Join(errs...)
}

func (r RenderConfig) validate() []error {
	var errs []error
	if !(r.RefreshRate > 0 && r.RefreshRate <= 1000) {
		errs = append(errs, fmt.Errorf("Render.RefreshRate (%v) must be between 0 and 1000", r.RefreshRate))
	}
	if r.LedsTotal <= 0 {
		errs = append(errs, fmt.Errorf("Render.LedsTotal (%d) must be positive", r.LedsTotal))
	}
	if r.MaxLag < 0 {
		errs = append(errs, fmt.Errorf("Render.MaxLag (%d) must not be negative", r.MaxLag))
	}
	if r.InitialEffect != "" && !isEffect(r.InitialEffect) {
		errs = append(errs, fmt.Errorf("Render.InitialEffect %q is not one of %v", r.InitialEffect, effectNames()))
	}
	if _, err := session.ParseBlend(r.Blend); err != nil {
		errs = append(errs, fmt.Errorf("Render.Blend: %w", err))
	}
	for _, name := range r.Layers {
		if !isEffect(name) {
			errs = append(errs, fmt.Errorf("Render.Layers entry %q is not one of %v", name, effectNames()))
		}
	}
	return errs
}

func (g GlobalsConfig) validate() []error {
	var errs []error
	check := func(name string, v, lo, hi float64) {
		if !(v >= lo && v <= hi) {
			errs = append(errs, fmt.Errorf("Globals.%s (%v) must be between %v and %v", name, v, lo, hi))
		}
	}
	// bounds of the global parameters
	check("Twists", g.Twists, 0, 30)
	check("Gamma", g.Gamma, 0, 100)
	check("Brightness", g.Brightness, 0, 1)
	return errs
}

func validatePolicy(p input.Policy) []error {
	var errs []error
	if p.FadeIn < 0 || p.FadeIn > 1 {
		errs = append(errs, fmt.Errorf("Input.FadeIn (%v) must be between 0 and 1", p.FadeIn))
	}
	if p.FadeOut < 0 || p.FadeOut > 1 {
		errs = append(errs, fmt.Errorf("Input.FadeOut (%v) must be between 0 and 1", p.FadeOut))
	}
	if p.Resistance < 0 {
		errs = append(errs, fmt.Errorf("Input.Resistance (%v) must be non-negative", p.Resistance))
	}
	if p.MaxVelocity <= 0 {
		errs = append(errs, fmt.Errorf("Input.MaxVelocity (%v) must be positive", p.MaxVelocity))
	}
	if p.HistoryLength < 2 {
		errs = append(errs, fmt.Errorf("Input.HistoryLength (%d) must be at least 2", p.HistoryLength))
	}
	if p.Lookback < 1 || p.Lookback >= p.HistoryLength {
		errs = append(errs, fmt.Errorf("Input.Lookback (%d) must be between 1 and HistoryLength-1", p.Lookback))
	}
	return errs
}

func (o OutputConfig) validate() []error {
	var errs []error
	for name, d := range map[string]time.Duration{
		"WriteTimeout":   o.WriteTimeout,
		"RetryDelay":     o.RetryDelay,
		"ReopenInterval": o.ReopenInterval,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("Output.%s (%v) must be non-negative", name, d))
		}
	}
	if o.Retries < 0 {
		errs = append(errs, fmt.Errorf("Output.Retries (%d) must be non-negative", o.Retries))
	}
	switch strings.ToLower(o.Type) {
	case OutputNoop:
	case OutputSerial:
		if o.Device == "" {
			errs = append(errs, errors.New("Output.Device must be set for serial output"))
		}
		if o.Baud <= 0 {
			errs = append(errs, fmt.Errorf("Output.Baud (%d) must be positive", o.Baud))
		}
	case OutputSPI:
		errs = append(errs, o.SPI.validate()...)
	default:
		errs = append(errs, fmt.Errorf("Output.Type %q must be one of %s, %s, %s", o.Type, OutputSerial, OutputSPI, OutputNoop))
	}
	return errs
}

func (s SPIConfig) validate() []error {
	var errs []error
	switch strings.ToUpper(s.LEDType) {
	case output.LedTypeAPA102, output.LedTypeWS2801:
	default:
		errs = append(errs, fmt.Errorf("Output.SPI.LEDType %q must be %s or %s", s.LEDType, output.LedTypeAPA102, output.LedTypeWS2801))
	}
	if s.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("Output.SPI.Frequency (%d) must be positive", s.Frequency))
	}
	if len(s.ColorCorrection) != 3 {
		errs = append(errs, fmt.Errorf("Output.SPI.ColorCorrection must have 3 entries, has %d", len(s.ColorCorrection)))
	}
	for i, v := range s.ColorCorrection {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("Output.SPI.ColorCorrection[%d] (%v) must be between 0 and 1", i, v))
		}
	}
	if s.Brightness < 0 || s.Brightness > 31 {
		errs = append(errs, fmt.Errorf("Output.SPI.Brightness (%d) must be between 0 and 31", s.Brightness))
	}
	return errs
}

func (l LoggingConfig) validate() []error {
	var errs []error
	switch strings.ToUpper(l.Level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("Logging.Level %q must be DEBUG, INFO, WARN or ERROR", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("Logging.Format %q must be text or json", l.Format))
	}
	return errs
}

// SPIOutputConfig converts the SPI section for the output package.
func (o OutputConfig) SPIOutputConfig() output.SPIConfig {
	var corr [3]float64
	copy(corr[:], o.SPI.ColorCorrection)
	return output.SPIConfig{
		LedType:         o.SPI.LEDType,
		Frequency:       o.SPI.Frequency,
		ColorCorrection: corr,
		Brightness:      byte(o.SPI.Brightness),
	}
}

// RetryPolicy converts the retry settings for the output package.
func (o OutputConfig) RetryPolicy() output.RetryPolicy {
	return output.RetryPolicy{
		Retries:        o.Retries,
		RetryDelay:     o.RetryDelay,
		ReopenInterval: o.ReopenInterval,
	}
}

func effectNames() []string {
	names := make([]string, 0, len(effect.Catalog))
	for _, f := range effect.Catalog {
		names = append(names, f.Name)
	}
	return names
}

func isEffect(name string) bool {
	return slices.Contains(effectNames(), name)
}
