package analyzer

import (
	"image"
	"image/color"
)

// AlphaDetector splits a sprite sheet on a transparent background into its
// sprites: connected regions of pixels with alpha above AlphaThreshold.
type AlphaDetector struct {
	AlphaThreshold uint8
	// Gap merges parts of one sprite that are up to Gap pixels apart.
	Gap int
	// MinPixels drops specks smaller than this.
	MinPixels int
}

func NewAlphaDetector() *AlphaDetector {
	return &AlphaDetector{MinPixels: 4}
}

func (d *AlphaDetector) Detect(img image.Image) ([]Block, error) {
	mask := alphaMask(img, d.AlphaThreshold)
	search := mask
	if d.Gap > 0 {
		search = dilate(mask, 2*d.Gap+1, 1)
	}

	var blocks []Block
	for _, rect := range findContours(search) {
		// Count on the undilated mask, and shrink to the real pixels.
		n, tight := coverage(mask, rect)
		if n >= d.MinPixels {
			blocks = append(blocks, Block{Rect: tight, Pixels: n})
		}
	}
	return blocks, nil
}

func alphaMask(img image.Image, threshold uint8) *image.Gray {
	b := img.Bounds()
	mask := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); uint8(a>>8) > threshold {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return mask
}

func coverage(mask *image.Gray, r image.Rectangle) (int, image.Rectangle) {
	n := 0
	tight := image.Rectangle{}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if mask.GrayAt(x, y).Y > 128 {
				n++
				tight = tight.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return n, tight
}
