package analyzer

import (
	"image"
	"sort"
)

// Block is a detected region of a sprite sheet.
type Block struct {
	Rect image.Rectangle
	// Pixels is the number of foreground pixels in the region.
	Pixels int
}

// Detector finds sprite regions in an image.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// ReadingOrder sorts blocks top-to-bottom, then left-to-right. Blocks whose
// tops differ by at most rowTolerance pixels are on the same row.
func ReadingOrder(blocks []Block, rowTolerance int) []Block {
	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)

	sort.SliceStable(sorted, func(i, j int) bool {
		yDiff := sorted[i].Rect.Min.Y - sorted[j].Rect.Min.Y
		if abs(yDiff) > rowTolerance {
			return yDiff < 0
		}
		return sorted[i].Rect.Min.X < sorted[j].Rect.Min.X
	})
	return sorted
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
