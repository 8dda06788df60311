package tonedeck

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Luma weights of the saturation mix. They are the rounded Rec. 709 weights
// used by common colour-controls filters, not the exact ones. The gray
// histogram channel comes from imaging.Grayscale, which weighs with Rec. 601
// (0.299, 0.587, 0.114), so neutral gray differs slightly between the two.
const (
	lumaR = 0.2125
	lumaG = 0.7154
	lumaB = 0.0721
)

func clamp(v float64) uint8 {
	return uint8(math.Min(math.Max(v, 0.0), 255.0) + 0.5)
}

// ColorControls adjusts saturation, brightness and contrast of img, in that
// order. Saturation mixes each pixel between its luma and its colour (1 keeps
// the colour), brightness is added to every channel (0 keeps it) and contrast
// scales the channels around mid gray (1 keeps them). Returns nil for a nil
// or empty image.
func ColorControls(img image.Image, brightness, contrast, saturation float64) *image.NRGBA {
	if img == nil || img.Bounds().Empty() {
		return nil
	}

	adjust := func(v, luma float64) uint8 {
		v = luma + (v-luma)*saturation
		v += brightness
		v = (v-0.5)*contrast + 0.5
		return clamp(v * 255)
	}

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r := float64(c.R) / 255
		g := float64(c.G) / 255
		b := float64(c.B) / 255
		luma := lumaR*r + lumaG*g + lumaB*b
		return color.NRGBA{adjust(r, luma), adjust(g, luma), adjust(b, luma), c.A}
	})
}

// HueAdjust rotates the colours of img around the gray axis by angle
// radians. Luminance is kept. Returns nil for a nil or empty image.
func HueAdjust(img image.Image, angle float64) *image.NRGBA {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	if angle == 0 {
		return imaging.Clone(img)
	}

	m := hueMatrix(angle)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		return color.NRGBA{
			clamp(m[0]*r + m[1]*g + m[2]*b),
			clamp(m[3]*r + m[4]*g + m[5]*b),
			clamp(m[6]*r + m[7]*g + m[8]*b),
			c.A,
		}
	})
}

// hueMatrix returns the row-major 3x3 hue rotation matrix.
func hueMatrix(angle float64) [9]float64 {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return [9]float64{
		0.213 + cos*0.787 - sin*0.213,
		0.715 - cos*0.715 - sin*0.715,
		0.072 - cos*0.072 + sin*0.928,

		0.213 - cos*0.213 + sin*0.143,
		0.715 + cos*0.285 + sin*0.140,
		0.072 - cos*0.072 - sin*0.283,

		0.213 - cos*0.213 - sin*0.787,
		0.715 - cos*0.715 + sin*0.715,
		0.072 + cos*0.928 + sin*0.072,
	}
}
