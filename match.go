package tonedeck

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// AdjustmentVector holds the colour-controls and hue-rotation parameters
// that move a target picture towards a reference tone.
type AdjustmentVector struct {
	// Brightness is added to every channel; 0 is neutral.
	Brightness float64

	// Contrast and Saturation are factors; 1 is neutral.
	Contrast   float64
	Saturation float64

	// Hue is the rotation in radians; 0 is neutral.
	Hue float64
}

// Adjustment computes the correction for a target with descriptor target
// towards reference.
func (c Config) Adjustment(target, reference ToneDescriptor) AdjustmentVector {
	deltaBrightness := (reference.Brightness - target.Brightness) * c.Intensity.Brightness
	deltaContrast := (reference.Contrast - target.Contrast) * c.Intensity.Contrast
	deltaSaturation := (reference.Saturation - target.Saturation) * c.Intensity.Saturation

	// Contrast and saturation deltas are re-centred on the operator's
	// neutral factor of 1. Brightness is already additive.
	v := AdjustmentVector{
		Brightness: deltaBrightness * c.Scales.Brightness,
		Contrast:   (deltaContrast + 1) * c.Scales.Contrast,
		Saturation: (deltaSaturation + 1) * c.Scales.Saturation,
	}

	// A hue of 0 means it could not be measured.
	if reference.DominantHue != 0 && target.DominantHue != 0 {
		v.Hue = reference.DominantHue - target.DominantHue
		if c.HueMode == HueAbsolute {
			v.Hue = math.Abs(v.Hue)
		}
	}
	return v
}

// Matcher applies reference tones to target bitmaps. It is safe for
// concurrent use.
type Matcher struct {
	config Config
	logger zerolog.Logger
}

// NewMatcher returns a Matcher using config. Pass zerolog.Nop() to disable
// logging.
func NewMatcher(config Config, logger zerolog.Logger) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{config: config, logger: logger}, nil
}

// Config returns the matcher configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// Describe computes the descriptor of a bitmap with the matcher's dominant
// colour scale.
func (m *Matcher) Describe(b *Bitmap) (ToneDescriptor, error) {
	if b == nil {
		return ToneDescriptor{}, ErrMissingInput
	}
	return describe(b.Image, m.config.DominantScale)
}

// Apply moves the tone of target towards reference. The returned bitmap has
// the size and orientation of target; target itself is left untouched.
func (m *Matcher) Apply(target *Bitmap, reference ToneDescriptor) (*Bitmap, error) {
	if target == nil {
		return nil, ErrMissingInput
	}
	stats, err := m.Describe(target)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to describe target")
		return nil, err
	}
	v := m.config.Adjustment(stats, reference.Sanitize())
	m.logger.Debug().
		Float64("brightness", v.Brightness).
		Float64("contrast", v.Contrast).
		Float64("saturation", v.Saturation).
		Float64("hue", v.Hue).
		Str("hue_mode", m.config.HueMode.String()).
		Msg("Computed tone adjustment")
	return m.ApplyAdjustment(target, v)
}

// ApplyAdjustment runs the colour-controls stage and then the hue rotation
// stage on target. If either stage yields no image, nothing is returned.
func (m *Matcher) ApplyAdjustment(target *Bitmap, v AdjustmentVector) (*Bitmap, error) {
	if target == nil {
		return nil, ErrMissingInput
	}
	if target.Image == nil || target.Image.Bounds().Empty() {
		return nil, ErrDecodeFailure
	}

	controlled := ColorControls(target.Image, v.Brightness, v.Contrast, v.Saturation)
	if controlled == nil {
		m.logger.Warn().Msg("Colour controls produced no output")
		return nil, fmt.Errorf("colour controls: %w", ErrFilterStage)
	}
	rotated := HueAdjust(controlled, v.Hue)
	if rotated == nil {
		m.logger.Warn().Msg("Hue adjustment produced no output")
		return nil, fmt.Errorf("hue adjust: %w", ErrFilterStage)
	}
	return &Bitmap{Image: rotated, Orientation: target.Orientation}, nil
}

// LowCorrelation is the gray histogram correlation below which MatchImages
// reports the pair at info level. Such pictures differ in content and the
// tone transfer is likely to look off.
const LowCorrelation = 0.5

// MatchImages describes reference directly from its pixels and applies its
// tone to target.
func (m *Matcher) MatchImages(target, reference *Bitmap) (*Bitmap, error) {
	if target == nil || reference == nil {
		return nil, ErrMissingInput
	}
	tone, err := m.Describe(reference)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	correlation := CompareHistograms(Analyze(target.Image), Analyze(reference.Image), ChannelGray)
	event := m.logger.Debug()
	if correlation < LowCorrelation {
		event = m.logger.Info()
	}
	event.Float64("correlation", correlation).Msg("Gray histogram correlation")
	return m.Apply(target, tone)
}

// MatchHistograms reshapes the colour histograms of target to those of
// reference instead of correcting summary statistics.
func (m *Matcher) MatchHistograms(target, reference *Bitmap) (*Bitmap, error) {
	if target == nil || reference == nil {
		return nil, ErrMissingInput
	}
	if target.Image == nil || target.Image.Bounds().Empty() ||
		reference.Image == nil || reference.Image.Bounds().Empty() {
		return nil, ErrDecodeFailure
	}
	out := HistogramTransfer(target.Image, reference.Image)
	if out == nil {
		m.logger.Warn().Msg("Histogram transfer produced no output")
		return nil, fmt.Errorf("histogram transfer: %w", ErrFilterStage)
	}
	return &Bitmap{Image: out, Orientation: target.Orientation}, nil
}

// Result is the outcome of an asynchronous Apply.
type Result struct {
	Bitmap *Bitmap
	Err    error
}

// ApplyAsync runs Apply on its own goroutine. The returned channel receives
// at most one Result and is then closed. If ctx is done by the time the
// result is ready, the result is dropped and the channel is closed empty.
func (m *Matcher) ApplyAsync(ctx context.Context, target *Bitmap, reference ToneDescriptor) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		bitmap, err := m.Apply(target, reference)
		if ctx.Err() != nil {
			m.logger.Debug().Err(ctx.Err()).Msg("Discarding tone result")
			return
		}
		results <- Result{Bitmap: bitmap, Err: err}
	}()
	return results
}
