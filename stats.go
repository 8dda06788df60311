package tonedeck

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// band is a contiguous intensity range of the gray histogram with the weight
// its mean intensity carries in the brightness statistic.
type band struct {
	low, high int
	weight    float64
}

var brightnessBands = [3]band{
	{0, 85, 0.5},    // dark
	{86, 170, 1.0},  // mid
	{171, 255, 0.7}, // light
}

// normalizedIntensities holds i/255 for every bin.
var normalizedIntensities = func() []float64 {
	v := make([]float64, histSize)
	for i := range v {
		v[i] = float64(i) / 255
	}
	return v
}()

// Brightness returns the band-weighted mean intensity of the gray histogram,
// normalised to [0,1]. A band without pixels contributes 0.
func Brightness(h Histogram) float64 {
	if h.Total() == 0 {
		return 0
	}
	gray := h[ChannelGray]

	var weighted, weights float64
	for _, b := range brightnessBands {
		var count, sum float64
		for i := b.low; i <= b.high; i++ {
			count += gray[i]
			sum += gray[i] * float64(i)
		}
		if count > 0 {
			weighted += sum / count * b.weight
		}
		weights += b.weight
	}
	return weighted / weights / 255
}

// Contrast returns the standard deviation of the normalised gray intensity.
func Contrast(h Histogram) float64 {
	if h.Total() == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(normalizedIntensities, h[ChannelGray])
	return std
}

// Saturation returns the summed per-bin distance between the (red, green,
// blue) bin counts and the gray bin count, divided by the pixel count. It
// measures how far the colour histograms stray from the gray one, not the
// saturation of individual pixels.
func Saturation(h Histogram) float64 {
	total := h.Total()
	if total == 0 || !h.Valid() {
		return 0
	}
	red, green, blue, gray := h[ChannelRed], h[ChannelGreen], h[ChannelBlue], h[ChannelGray]

	var distance float64
	rgb := make([]float64, 3)
	neutral := make([]float64, 3)
	for i := 0; i < histSize; i++ {
		rgb[0], rgb[1], rgb[2] = red[i], green[i], blue[i]
		neutral[0], neutral[1], neutral[2] = gray[i], gray[i], gray[i]
		distance += floats.Distance(rgb, neutral, 2)
	}
	return distance / total
}

// DefaultDominantScale is the linear factor images are shrunk by before
// their average colour is taken.
const DefaultDominantScale = 0.1

// DominantColor is the average colour of an image and its hue angle.
type DominantColor struct {
	// Hue is the HSB hue of Color in radians, in [0, 2π).
	Hue float64

	// Color is the averaged colour.
	Color colorful.Color
}

// DominantHue averages the colour of img after shrinking it by
// DefaultDominantScale. It returns false if img cannot be processed.
func DominantHue(img image.Image) (DominantColor, bool) {
	return dominantHue(img, DefaultDominantScale)
}

func dominantHue(img image.Image, scale float64) (DominantColor, bool) {
	if img == nil || img.Bounds().Empty() {
		return DominantColor{}, false
	}
	if scale <= 0 || scale > 1 {
		scale = DefaultDominantScale
	}

	bounds := img.Bounds()
	width := uint(math.Max(1, math.Round(float64(bounds.Dx())*scale)))
	height := uint(math.Max(1, math.Round(float64(bounds.Dy())*scale)))
	small := imaging.Clone(resize.Resize(width, height, img, resize.Bilinear))

	var r, g, b float64
	for i := 0; i+3 < len(small.Pix); i += 4 {
		r += float64(small.Pix[i])
		g += float64(small.Pix[i+1])
		b += float64(small.Pix[i+2])
	}
	n := float64(len(small.Pix) / 4)
	if n == 0 {
		return DominantColor{}, false
	}

	average := colorful.Color{R: r / n / 255, G: g / n / 255, B: b / n / 255}
	hue, _, _ := average.Hsv()
	angle := hue / 360 * 2 * math.Pi
	if angle >= 2*math.Pi {
		angle = 0
	}
	return DominantColor{Hue: angle, Color: average}, true
}
