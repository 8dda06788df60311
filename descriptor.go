package tonedeck

import (
	"fmt"
	"image"
	"math"

	"github.com/go-viper/mapstructure/v2"
)

// ToneDescriptor is the stored summary of a picture's tone. A filter card
// keeps the descriptor of its reference picture for its whole lifetime.
type ToneDescriptor struct {
	// Brightness is the band-weighted mean intensity, in [0,1].
	Brightness float64 `mapstructure:"brightness" json:"brightness"`

	// Contrast is the standard deviation of the normalised intensity.
	Contrast float64 `mapstructure:"contrast" json:"contrast"`

	// Saturation is the histogram distance from gray, see Saturation.
	Saturation float64 `mapstructure:"saturation" json:"saturation"`

	// DominantHue is the hue of the average colour in radians, in [0, 2π).
	// 0 means the hue is unavailable.
	DominantHue float64 `mapstructure:"dominantHue" json:"dominantHue"`
}

// Describe computes the descriptor of img. If img cannot be analysed the
// zero descriptor is returned together with ErrDecodeFailure.
func Describe(img image.Image) (ToneDescriptor, error) {
	return describe(img, DefaultDominantScale)
}

func describe(img image.Image, scale float64) (ToneDescriptor, error) {
	h := Analyze(img)
	if !h.Valid() {
		return ToneDescriptor{}, fmt.Errorf("histogram: %w", ErrDecodeFailure)
	}
	d := ToneDescriptor{
		Brightness: Brightness(h),
		Contrast:   Contrast(h),
		Saturation: Saturation(h),
	}
	dominant, ok := dominantHue(img, scale)
	if !ok {
		return d, fmt.Errorf("dominant colour: %w", ErrDecodeFailure)
	}
	d.DominantHue = dominant.Hue
	return d, nil
}

// Sanitize returns a copy of d with every missing, non-finite or out of
// range value replaced by 0.
func (d ToneDescriptor) Sanitize() ToneDescriptor {
	if !finite(d.Brightness) || d.Brightness < 0 || d.Brightness > 1 {
		d.Brightness = 0
	}
	if !finite(d.Contrast) || d.Contrast < 0 {
		d.Contrast = 0
	}
	if !finite(d.Saturation) || d.Saturation < 0 {
		d.Saturation = 0
	}
	if !finite(d.DominantHue) || d.DominantHue < 0 || d.DominantHue >= 2*math.Pi {
		d.DominantHue = 0
	}
	return d
}

// DescriptorFromRecord decodes a stored card record. Numbers may be stored
// as any numeric type or as strings. Missing keys decode to 0 and the result
// is sanitized.
func DescriptorFromRecord(record map[string]any) (ToneDescriptor, error) {
	var d ToneDescriptor
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &d,
	})
	if err != nil {
		return ToneDescriptor{}, err
	}
	if err := decoder.Decode(record); err != nil {
		return ToneDescriptor{}, fmt.Errorf("decoding tone record: %w", err)
	}
	return d.Sanitize(), nil
}

// Record returns the map written back to the card store.
func (d ToneDescriptor) Record() map[string]any {
	return map[string]any{
		"brightness":  d.Brightness,
		"contrast":    d.Contrast,
		"saturation":  d.Saturation,
		"dominantHue": d.DominantHue,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
