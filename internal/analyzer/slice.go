package analyzer

import (
	"image"

	"golang.org/x/image/draw"
)

// RowTolerance is the vertical slack when ordering sprites into rows.
const RowTolerance = 8

// Slice cuts the sprites found by det out of sheet, in reading order. Each
// sprite is a fresh NRGBA image with its origin at (0, 0).
func Slice(sheet image.Image, det Detector) ([]*image.NRGBA, error) {
	blocks, err := det.Detect(sheet)
	if err != nil {
		return nil, err
	}
	blocks = ReadingOrder(blocks, RowTolerance)

	sprites := make([]*image.NRGBA, len(blocks))
	for i, b := range blocks {
		sprite := image.NewNRGBA(image.Rect(0, 0, b.Rect.Dx(), b.Rect.Dy()))
		draw.Draw(sprite, sprite.Bounds(), sheet, b.Rect.Min, draw.Src)
		sprites[i] = sprite
	}
	return sprites, nil
}

// Grid cuts sheet into equal cells of w x h, row by row. Fully transparent
// cells are skipped.
func Grid(sheet image.Image, w, h int) []*image.NRGBA {
	b := sheet.Bounds()
	var sprites []*image.NRGBA
	for y := b.Min.Y; y+h <= b.Max.Y; y += h {
		for x := b.Min.X; x+w <= b.Max.X; x += w {
			cell := image.Rect(x, y, x+w, y+h)
			if empty(sheet, cell) {
				continue
			}
			sprite := image.NewNRGBA(image.Rect(0, 0, w, h))
			draw.Draw(sprite, sprite.Bounds(), sheet, cell.Min, draw.Src)
			sprites = append(sprites, sprite)
		}
	}
	return sprites
}

func empty(img image.Image, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				return false
			}
		}
	}
	return true
}
