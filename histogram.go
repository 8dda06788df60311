package tonedeck

import (
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const histSize = 256

// Channel names one histogram of a Histogram.
type Channel string

const (
	ChannelRed   Channel = "red"
	ChannelGreen Channel = "green"
	ChannelBlue  Channel = "blue"
	ChannelGray  Channel = "gray"

	// ChannelNone is the only channel of the sentinel returned for images
	// that cannot be analysed.
	ChannelNone Channel = "none"
)

// Histogram holds 256 intensity bins per channel. Bin i counts the pixels
// whose channel value is i.
type Histogram map[Channel][]float64

func noneHistogram() Histogram {
	return Histogram{ChannelNone: {0}}
}

// Valid reports whether h is a complete four-channel histogram.
func (h Histogram) Valid() bool {
	for _, c := range []Channel{ChannelRed, ChannelGreen, ChannelBlue, ChannelGray} {
		if len(h[c]) != histSize {
			return false
		}
	}
	return true
}

// Total returns the number of pixels counted in the gray channel, or 0 when
// there is no gray channel.
func (h Histogram) Total() float64 {
	gray, ok := h[ChannelGray]
	if !ok || len(gray) != histSize {
		return 0
	}
	return floats.Sum(gray)
}

// Analyze computes the red, green, blue and gray histograms of img. The gray
// histogram is taken from a luma-preserving desaturated copy. A nil or empty
// image yields the "none" sentinel.
func Analyze(img image.Image) Histogram {
	if img == nil || img.Bounds().Empty() {
		return noneHistogram()
	}

	src := imaging.Clone(img)
	gray := imaging.Grayscale(src)

	h := Histogram{
		ChannelRed:   make([]float64, histSize),
		ChannelGreen: make([]float64, histSize),
		ChannelBlue:  make([]float64, histSize),
		ChannelGray:  make([]float64, histSize),
	}
	red, green, blue, luma := h[ChannelRed], h[ChannelGreen], h[ChannelBlue], h[ChannelGray]

	// Both images are tightly packed NRGBA buffers of the same bounds.
	for i := 0; i+3 < len(src.Pix); i += 4 {
		red[src.Pix[i]]++
		green[src.Pix[i+1]]++
		blue[src.Pix[i+2]]++
		luma[gray.Pix[i]]++
	}
	return h
}

// CompareHistograms returns the Pearson correlation between channel c of a
// and b. Identical shapes give 1. If either histogram lacks the channel the
// result is 0.
func CompareHistograms(a, b Histogram, c Channel) float64 {
	x, y := a[c], b[c]
	if len(x) != histSize || len(y) != histSize {
		return 0
	}
	if floats.Equal(x, y) {
		return 1
	}
	r := stat.Correlation(x, y, nil)
	if r != r {
		// At least one histogram is flat.
		return 0
	}
	return r
}
