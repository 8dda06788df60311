package tonedeck

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func unitConfig() Config {
	c := DefaultConfig()
	c.Intensity = Intensity{1, 1, 1}
	return c
}

func newTestMatcher(t *testing.T, config Config) *Matcher {
	t.Helper()
	m, err := NewMatcher(config, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	want := Config{
		Intensity:     Intensity{Brightness: 1.0, Contrast: 1.3, Saturation: 1.0},
		Scales:        Scales{Brightness: 1.0, Contrast: 1.2, Saturation: 1.0},
		HueMode:       HueSigned,
		DominantScale: 0.1,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("DefaultConfig() mismatch (-want +got):\n%s", diff)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"nan intensity", func(c *Config) { c.Intensity.Contrast = math.NaN() }},
		{"infinite scale", func(c *Config) { c.Scales.Saturation = math.Inf(1) }},
		{"unknown hue mode", func(c *Config) { c.HueMode = 7 }},
		{"zero dominant scale", func(c *Config) { c.DominantScale = 0 }},
		{"dominant scale above one", func(c *Config) { c.DominantScale = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if _, err := NewMatcher(c, zerolog.Nop()); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewMatcher() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseHueMode(t *testing.T) {
	for in, want := range map[string]HueMode{"": HueSigned, "signed": HueSigned, "absolute": HueAbsolute, "abs": HueAbsolute} {
		got, err := ParseHueMode(in)
		if err != nil || got != want {
			t.Errorf("ParseHueMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseHueMode("wrapped"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseHueMode(wrapped) error = %v", err)
	}
}

func TestAdjustment(t *testing.T) {
	tests := []struct {
		name              string
		config            Config
		target, reference ToneDescriptor
		want              AdjustmentVector
	}{
		{
			name:      "identical tones",
			config:    unitConfig(),
			target:    ToneDescriptor{0.5, 0.2, 0.1, 1.0},
			reference: ToneDescriptor{0.5, 0.2, 0.1, 1.0},
			want:      AdjustmentVector{Brightness: 0, Contrast: 1.2, Saturation: 1.0, Hue: 0},
		},
		{
			name:      "brighter reference",
			config:    unitConfig(),
			target:    ToneDescriptor{Brightness: 0.3},
			reference: ToneDescriptor{Brightness: 0.6},
			want:      AdjustmentVector{Brightness: 0.3, Contrast: 1.2, Saturation: 1.0},
		},
		{
			name:      "default intensity",
			config:    DefaultConfig(),
			target:    ToneDescriptor{0.4, 0.1, 0.3, 2.5},
			reference: ToneDescriptor{0.2, 0.3, 0.1, 1.0},
			want: AdjustmentVector{
				Brightness: -0.2,
				Contrast:   (0.2*1.3 + 1) * 1.2,
				Saturation: 0.8,
				Hue:        -1.5,
			},
		},
		{
			name: "absolute hue",
			config: func() Config {
				c := unitConfig()
				c.HueMode = HueAbsolute
				return c
			}(),
			target:    ToneDescriptor{DominantHue: 2.5},
			reference: ToneDescriptor{DominantHue: 1.0},
			want:      AdjustmentVector{Contrast: 1.2, Saturation: 1.0, Hue: 1.5},
		},
		{
			name:      "target hue unavailable",
			config:    unitConfig(),
			target:    ToneDescriptor{DominantHue: 0},
			reference: ToneDescriptor{DominantHue: 3.0},
			want:      AdjustmentVector{Contrast: 1.2, Saturation: 1.0},
		},
		{
			name:      "reference hue unavailable",
			config:    unitConfig(),
			target:    ToneDescriptor{DominantHue: 3.0},
			reference: ToneDescriptor{DominantHue: 0},
			want:      AdjustmentVector{Contrast: 1.2, Saturation: 1.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.config.Adjustment(tt.target, tt.reference)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("Adjustment() mismatch (-want +got):\n%s", diff)
			}
			if again := tt.config.Adjustment(tt.target, tt.reference); again != got {
				t.Errorf("Adjustment() not repeatable: %+v then %+v", got, again)
			}
		})
	}
}

func TestMatcher_Apply(t *testing.T) {
	m := newTestMatcher(t, DefaultConfig())
	src := gradientImage(40, 30)
	pristine := imaging.Clone(src)
	target := &Bitmap{Image: src, Orientation: OrientationRight}

	out, err := m.Apply(target, ToneDescriptor{Brightness: 0.35, Contrast: 0.3, Saturation: 0.5, DominantHue: 2})
	if err != nil {
		t.Fatal(err)
	}
	if out.Size() != (image.Point{40, 30}) {
		t.Errorf("output size %v, want 40x30", out.Size())
	}
	if out.Orientation != OrientationRight {
		t.Errorf("output orientation %v, want %v", out.Orientation, OrientationRight)
	}
	if diff := cmp.Diff(pristine.Pix, src.Pix); diff != "" {
		t.Error("Apply() modified the target image")
	}
	if out.Image == target.Image {
		t.Error("Apply() returned the input image")
	}
}

func TestMatcher_ApplyDirection(t *testing.T) {
	m := newTestMatcher(t, unitConfig())
	target := &Bitmap{Image: grayImage(20, 20, 100), Orientation: OrientationUp}
	stats, err := m.Describe(target)
	if err != nil {
		t.Fatal(err)
	}

	brighter := stats
	brighter.Brightness += 0.2
	out, err := m.Apply(target, brighter)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Image.(*image.NRGBA).NRGBAAt(0, 0).R; got <= 100 {
		t.Errorf("brighter reference produced %d, want > 100", got)
	}
}

func TestMatcher_ApplyFailures(t *testing.T) {
	m := newTestMatcher(t, DefaultConfig())
	reference := ToneDescriptor{0.5, 0.2, 0.1, 1}

	tests := []struct {
		name   string
		target *Bitmap
		want   error
	}{
		{"no target", nil, ErrMissingInput},
		{"no image", &Bitmap{}, ErrDecodeFailure},
		{"zero size", &Bitmap{Image: image.NewNRGBA(image.Rect(0, 0, 0, 0))}, ErrDecodeFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := m.Apply(tt.target, reference)
			if !errors.Is(err, tt.want) {
				t.Errorf("Apply() error = %v, want %v", err, tt.want)
			}
			if out != nil {
				t.Errorf("Apply() returned an image on failure")
			}
			out, err = m.ApplyAdjustment(tt.target, AdjustmentVector{Contrast: 1, Saturation: 1})
			if !errors.Is(err, tt.want) || out != nil {
				t.Errorf("ApplyAdjustment() = %v, %v; want nil, %v", out, err, tt.want)
			}
		})
	}
}

func TestMatcher_ApplyAdjustmentNeutral(t *testing.T) {
	m := newTestMatcher(t, DefaultConfig())
	src := gradientImage(12, 12)
	out, err := m.ApplyAdjustment(&Bitmap{Image: src, Orientation: OrientationLeft}, AdjustmentVector{Contrast: 1, Saturation: 1})
	if err != nil {
		t.Fatal(err)
	}
	dst := out.Image.(*image.NRGBA)
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if d := pixelDistance(src.NRGBAAt(x, y), dst.NRGBAAt(x, y)); d > 1 {
				t.Fatalf("pixel (%d,%d) changed: %v -> %v", x, y, src.NRGBAAt(x, y), dst.NRGBAAt(x, y))
			}
		}
	}
	if out.Orientation != OrientationLeft {
		t.Errorf("orientation %v, want %v", out.Orientation, OrientationLeft)
	}
}

func TestMatcher_MatchImages(t *testing.T) {
	m := newTestMatcher(t, DefaultConfig())
	target := &Bitmap{Image: solidImage(16, 8, color.NRGBA{60, 60, 140, 0xff}), Orientation: OrientationDown}
	reference := &Bitmap{Image: solidImage(10, 10, color.NRGBA{220, 150, 60, 0xff}), Orientation: OrientationUp}

	out, err := m.MatchImages(target, reference)
	if err != nil {
		t.Fatal(err)
	}
	if out.Size() != (image.Point{16, 8}) || out.Orientation != OrientationDown {
		t.Errorf("got %v %v, want 16x8 %v", out.Size(), out.Orientation, OrientationDown)
	}

	if _, err := m.MatchImages(target, &Bitmap{}); !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("empty reference: error = %v, want ErrDecodeFailure", err)
	}
	if _, err := m.MatchImages(nil, reference); !errors.Is(err, ErrMissingInput) {
		t.Errorf("no target: error = %v, want ErrMissingInput", err)
	}
}

func TestMatcher_MatchImagesCorrelation(t *testing.T) {
	var logs bytes.Buffer
	m, err := NewMatcher(DefaultConfig(), zerolog.New(&logs).Level(zerolog.InfoLevel))
	if err != nil {
		t.Fatal(err)
	}

	picture := &Bitmap{Image: gradientImage(16, 16)}
	if _, err := m.MatchImages(picture, picture); err != nil {
		t.Fatal(err)
	}
	if logs.Len() != 0 {
		t.Errorf("matching a picture with itself logged %q", logs.String())
	}

	dark := &Bitmap{Image: grayImage(8, 8, 30)}
	bright := &Bitmap{Image: grayImage(8, 8, 220)}
	if _, err := m.MatchImages(dark, bright); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "Gray histogram correlation") {
		t.Errorf("dissimilar pictures were not reported, logs %q", logs.String())
	}
}

func TestMatcher_ApplyAsync(t *testing.T) {
	m := newTestMatcher(t, DefaultConfig())
	target := &Bitmap{Image: gradientImage(24, 24), Orientation: OrientationUp}
	reference := ToneDescriptor{0.3, 0.2, 0.2, 1}

	result, ok := <-m.ApplyAsync(context.Background(), target, reference)
	if !ok {
		t.Fatal("no result delivered")
	}
	if result.Err != nil || result.Bitmap == nil {
		t.Fatalf("result = %+v", result)
	}

	failed := <-m.ApplyAsync(context.Background(), nil, reference)
	if !errors.Is(failed.Err, ErrMissingInput) {
		t.Errorf("missing target: error = %v", failed.Err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if result, ok := <-m.ApplyAsync(ctx, target, reference); ok {
		t.Errorf("result delivered after cancellation: %+v", result)
	}
}
