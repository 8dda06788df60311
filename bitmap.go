package tonedeck

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Orientation is the EXIF orientation tag of a picture. It describes how the
// stored pixels must be transformed to be displayed upright.
type Orientation int

const (
	OrientationUnspecified Orientation = iota
	OrientationUp
	OrientationUpMirrored
	OrientationDown
	OrientationDownMirrored
	OrientationLeftMirrored
	OrientationRight
	OrientationRightMirrored
	OrientationLeft
)

// Bitmap is a decoded picture. Image holds the pixels as stored, Orientation
// how they are meant to be displayed. Operations never modify a Bitmap; they
// return a new one carrying the same Orientation.
type Bitmap struct {
	Image       image.Image
	Orientation Orientation
}

// Size returns the pixel dimensions of the stored image.
func (b *Bitmap) Size() image.Point {
	if b == nil || b.Image == nil {
		return image.Point{}
	}
	return b.Image.Bounds().Size()
}

// Oriented returns the image transformed for display.
func (b *Bitmap) Oriented() image.Image {
	img := b.Image
	switch b.Orientation {
	case OrientationUpMirrored:
		return imaging.FlipH(img)
	case OrientationDown:
		return imaging.Rotate180(img)
	case OrientationDownMirrored:
		return imaging.FlipV(img)
	case OrientationLeftMirrored:
		return imaging.Transpose(img)
	case OrientationRight:
		return imaging.Rotate270(img)
	case OrientationRightMirrored:
		return imaging.Transverse(img)
	case OrientationLeft:
		return imaging.Rotate90(img)
	}
	return img
}

// Decode decodes an encoded picture. The pixels are kept as stored and the
// EXIF orientation, if any, is recorded in the returned Bitmap.
func Decode(data []byte) (*Bitmap, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return &Bitmap{Image: img, Orientation: readOrientation(data)}, nil
}

// Load reads and decodes the picture at path.
func Load(path string) (*Bitmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	bitmap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bitmap, nil
}

// Save writes the bitmap to path with its orientation applied to the pixels.
// The format is chosen from the file extension.
func Save(path string, b *Bitmap, options ...imaging.EncodeOption) error {
	return imaging.Save(b.Oriented(), path, options...)
}

// readOrientation returns the orientation tag of the EXIF block of a JPEG
// stream. Anything else yields OrientationUp.
func readOrientation(data []byte) Orientation {
	block := exifBlock(data)
	if block == nil {
		return OrientationUp
	}
	x, err := exif.Decode(bytes.NewReader(block))
	if err != nil {
		return OrientationUp
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationUp
	}
	value, err := tag.Int(0)
	if err != nil || value < 1 || value > 8 {
		return OrientationUp
	}
	return Orientation(value)
}

// exifBlock returns the TIFF structure held by the first APP1 segment of a
// JPEG stream that carries an EXIF header. Other APP1 segments such as XMP
// are skipped. The walk ends at the start of scan.
func exifBlock(data []byte) []byte {
	const (
		markerSOI  = 0xd8
		markerEOI  = 0xd9
		markerSOS  = 0xda
		markerAPP1 = 0xe1
		markerTEM  = 0x01
	)
	exifHeader := []byte("Exif\x00\x00")

	if len(data) < 2 || data[0] != 0xff || data[1] != markerSOI {
		return nil
	}
	for i := 2; i+1 < len(data); {
		if data[i] != 0xff {
			return nil
		}
		marker := data[i+1]
		switch {
		case marker == 0xff:
			// Fill byte.
			i++
			continue
		case marker == markerSOS || marker == markerEOI:
			return nil
		case marker == markerTEM || (marker >= 0xd0 && marker <= 0xd7):
			i += 2
			continue
		}
		if i+4 > len(data) {
			return nil
		}
		size := int(binary.BigEndian.Uint16(data[i+2:]))
		end := i + 2 + size
		if size < 2 || end > len(data) {
			return nil
		}
		payload := data[i+4 : end]
		if marker == markerAPP1 && bytes.HasPrefix(payload, exifHeader) {
			return payload[len(exifHeader):]
		}
		i = end
	}
	return nil
}
