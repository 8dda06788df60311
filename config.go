package tonedeck

import (
	"fmt"
	"math"
)

// HueMode selects how the hue delta between reference and target is formed.
type HueMode int

const (
	// HueSigned uses reference hue minus target hue.
	HueSigned HueMode = iota

	// HueAbsolute uses the absolute value of that difference.
	HueAbsolute
)

func (m HueMode) String() string {
	switch m {
	case HueSigned:
		return "signed"
	case HueAbsolute:
		return "absolute"
	}
	return fmt.Sprintf("HueMode(%d)", int(m))
}

// ParseHueMode parses the names returned by HueMode.String.
func ParseHueMode(s string) (HueMode, error) {
	switch s {
	case "signed", "":
		return HueSigned, nil
	case "absolute", "abs":
		return HueAbsolute, nil
	}
	return HueSigned, fmt.Errorf("%w: unknown hue mode %q", ErrInvalidConfig, s)
}

// Intensity scales how strongly each statistic difference is corrected.
type Intensity struct {
	Brightness float64
	Contrast   float64
	Saturation float64
}

// Scales maps corrected statistics onto the colour-controls operator.
type Scales struct {
	Brightness float64
	Contrast   float64
	Saturation float64
}

// Config holds the matcher parameters.
type Config struct {
	Intensity Intensity
	Scales    Scales
	HueMode   HueMode

	// DominantScale is the linear factor images are shrunk by before their
	// dominant colour is taken. Must be in (0,1].
	DominantScale float64
}

// DefaultConfig returns a Config with the stock filter settings.
func DefaultConfig() Config {
	return Config{
		Intensity: Intensity{
			Brightness: 1.0,
			Contrast:   1.3,
			Saturation: 1.0,
		},
		Scales: Scales{
			Brightness: 1.0,
			Contrast:   1.2,
			Saturation: 1.0,
		},
		HueMode:       HueSigned,
		DominantScale: DefaultDominantScale,
	}
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	values := []struct {
		name  string
		value float64
	}{
		{"brightness intensity", c.Intensity.Brightness},
		{"contrast intensity", c.Intensity.Contrast},
		{"saturation intensity", c.Intensity.Saturation},
		{"brightness scale", c.Scales.Brightness},
		{"contrast scale", c.Scales.Contrast},
		{"saturation scale", c.Scales.Saturation},
	}
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidConfig, v.name, v.value)
		}
	}
	if c.HueMode != HueSigned && c.HueMode != HueAbsolute {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.HueMode)
	}
	if !(c.DominantScale > 0 && c.DominantScale <= 1) {
		return fmt.Errorf("%w: dominant scale %v outside (0,1]", ErrInvalidConfig, c.DominantScale)
	}
	return nil
}
