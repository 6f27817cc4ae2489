package input

// Policy holds the tuning of the touch model.
type Policy struct {
	// Fade added per tick while touched
	FadeIn float64 `yaml:"FadeIn" json:"FadeIn"`
	// Fade removed per tick while untouched
	FadeOut float64 `yaml:"FadeOut" json:"FadeOut"`
	// Velocity loss per second while coasting
	Resistance float64 `yaml:"Resistance" json:"Resistance"`
	// Per-axis bound of the fling velocity, units per second
	MaxVelocity float64 `yaml:"MaxVelocity" json:"MaxVelocity"`
	// Number of touch samples kept
	HistoryLength int `yaml:"HistoryLength" json:"HistoryLength"`
	// How many samples back the fling velocity looks at most
	Lookback int `yaml:"Lookback" json:"Lookback"`
	// Keep the offset between focus and finger at touch start
	KeepOffset bool `yaml:"KeepOffset" json:"KeepOffset"`
	// Clamp the focus point to [0,1]
	ClampFocus bool `yaml:"ClampFocus" json:"ClampFocus"`
}

// DefaultPolicy returns the standard tuning.
func DefaultPolicy() Policy {
	return Policy{
		FadeIn:        0.02,
		FadeOut:       0.005,
		Resistance:    0.5,
		MaxVelocity:   3,
		HistoryLength: 15,
		Lookback:      10,
		KeepOffset:    true,
		ClampFocus:    false,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.FadeIn < 0 {
		p.FadeIn = def.FadeIn
	}
	if p.FadeOut < 0 {
		p.FadeOut = def.FadeOut
	}
	if p.Resistance < 0 {
		p.Resistance = def.Resistance
	}
	if p.MaxVelocity <= 0 {
		p.MaxVelocity = def.MaxVelocity
	}
	if p.HistoryLength < 2 {
		p.HistoryLength = def.HistoryLength
	}
	if p.Lookback < 1 {
		p.Lookback = def.Lookback
	}
	if p.Lookback >= p.HistoryLength {
		p.Lookback = p.HistoryLength - 1
	}
	return p
}
