package tonedeck

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

type lut [histSize]uint8

type rgbLut struct {
	r lut
	g lut
	b lut
}

func cumulative(bins []float64) []float64 {
	out := make([]float64, len(bins))
	var sum float64
	for i, v := range bins {
		sum += v
		out[i] = sum
	}
	return out
}

// generateLut maps every intensity of current onto the intensity of target
// with the same cumulative rank. An empty histogram gives the identity.
func generateLut(current, target []float64) lut {
	var l lut
	currentCumulative := cumulative(current)
	targetCumulative := cumulative(target)
	if currentCumulative[histSize-1] == 0 || targetCumulative[histSize-1] == 0 {
		for i := range l {
			l[i] = uint8(i)
		}
		return l
	}

	ratio := currentCumulative[histSize-1] / targetCumulative[histSize-1]
	for i := range targetCumulative {
		targetCumulative[i] *= ratio
	}

	p := 0
	for i := 0; i < histSize; i++ {
		for p < histSize-1 && targetCumulative[p] < currentCumulative[i] {
			p++
		}
		l[i] = uint8(p)
	}
	return l
}

func generateRgbLut(current, target Histogram) rgbLut {
	return rgbLut{
		r: generateLut(current[ChannelRed], target[ChannelRed]),
		g: generateLut(current[ChannelGreen], target[ChannelGreen]),
		b: generateLut(current[ChannelBlue], target[ChannelBlue]),
	}
}

// HistogramTransfer reshapes the red, green and blue histograms of img to
// those of reference. It returns nil if either image cannot be analysed.
func HistogramTransfer(img, reference image.Image) *image.NRGBA {
	current, target := Analyze(img), Analyze(reference)
	if !current.Valid() || !target.Valid() {
		return nil
	}
	l := generateRgbLut(current, target)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{l.r[c.R], l.g[c.G], l.b[c.B], c.A}
	})
}
