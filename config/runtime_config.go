package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"lautenbacher.net/lightoy/input"
	"lautenbacher.net/lightoy/session"
)

// RuntimeConfig defines the subset of the configuration that can be
// safely modified at runtime through the web UI. Render timing, output
// and control settings need a restart and are excluded.
type RuntimeConfig struct {
	Effect  EffectConfig  `yaml:"Effect" json:"Effect"`
	Globals GlobalsConfig `yaml:"Globals" json:"Globals"`
	Input   input.Policy  `yaml:"Input" json:"Input"`
}

type EffectConfig struct {
	InitialEffect string   `yaml:"InitialEffect" json:"InitialEffect"`
	Blend         string   `yaml:"Blend" json:"Blend"`
	Layers        []string `yaml:"Layers" json:"Layers"`
}

// Runtime extracts the runtime-safe part of c.
func (c *Config) Runtime() RuntimeConfig {
	return RuntimeConfig{
		Effect: EffectConfig{
			InitialEffect: c.Render.InitialEffect,
			Blend:         c.Render.Blend,
			Layers:        slices.Clone(c.Render.Layers),
		},
		Globals: c.Globals,
		Input:   c.Input,
	}
}

// Merge overwrites the runtime-safe part of c with rc.
func (c *Config) Merge(rc RuntimeConfig) {
	c.Render.InitialEffect = rc.Effect.InitialEffect
	c.Render.Blend = rc.Effect.Blend
	c.Render.Layers = slices.Clone(rc.Effect.Layers)
	c.Globals = rc.Globals
	c.Input = rc.Input
}

// Apply pushes all runtime-safe settings into a running session.
func (c *Config) Apply(s *session.Session) error {
	return c.ApplyChanges(s, nil)
}

// ApplyChanges pushes the runtime-safe settings that differ from prev into
// a running session. Values changed live through the control surface are
// left alone unless the file changes them too. A nil prev applies
// everything.
func (c *Config) ApplyChanges(s *session.Session, prev *Config) error {
	var errs []error
	var old GlobalsConfig
	if prev != nil {
		old = prev.Globals
	}
	globals := s.Globals()
	for _, g := range []struct {
		name     string
		val, old float64
	}{
		{session.Twists, c.Globals.Twists, old.Twists},
		{session.Gamma, c.Globals.Gamma, old.Gamma},
		{session.Brightness, c.Globals.Brightness, old.Brightness},
	} {
		if prev != nil && g.val == g.old {
			continue
		}
		if err := globals.SetValue(g.name, g.val); err != nil {
			errs = append(errs, err)
		}
	}

	if prev == nil || c.Input != prev.Input {
		s.Input().SetPolicy(c.Input)
	}

	if prev == nil || c.Render.Blend != prev.Render.Blend || !slices.Equal(c.Render.Layers, prev.Render.Layers) {
		blend, err := session.ParseBlend(c.Render.Blend)
		if err == nil {
			err = s.SetBlend(blend, c.Render.Layers)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if c.Render.InitialEffect != "" && (prev == nil || c.Render.InitialEffect != prev.Render.InitialEffect) {
		if err := s.SetActiveEffect(c.Render.InitialEffect); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("applying config: %w", err)
	}
	return nil
}

// RestartRequired lists the sections that differ from old and only take
// effect after a restart.
func (c *Config) RestartRequired(old *Config) []string {
	var ret []string
	if c.Render.RefreshRate != old.Render.RefreshRate || c.Render.LedsTotal != old.Render.LedsTotal ||
		c.Render.MaxLag != old.Render.MaxLag {
		ret = append(ret, "Render")
	}
	if !outputEqual(c.Output, old.Output) {
		ret = append(ret, "Output")
	}
	if c.Control != old.Control {
		ret = append(ret, "Control")
	}
	if c.Logging != old.Logging {
		ret = append(ret, "Logging")
	}
	if len(ret) > 0 {
		slog.Debug("Config sections changed that need a restart", "sections", ret)
	}
	return ret
}

func outputEqual(a, b OutputConfig) bool {
	return a.Type == b.Type &&
		a.Device == b.Device &&
		a.Baud == b.Baud &&
		a.WriteTimeout == b.WriteTimeout &&
		a.Retries == b.Retries &&
		a.RetryDelay == b.RetryDelay &&
		a.ReopenInterval == b.ReopenInterval &&
		a.SPI.LEDType == b.SPI.LEDType &&
		a.SPI.Frequency == b.SPI.Frequency &&
		a.SPI.Brightness == b.SPI.Brightness &&
		slices.Equal(a.SPI.ColorCorrection, b.SPI.ColorCorrection)
}
