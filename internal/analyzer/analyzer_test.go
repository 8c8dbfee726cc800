package analyzer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// sheet has three sprites: two on the first row (the right one sitting a
// little higher) and one on the second.
func sheet() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	fill(img, image.Rect(30, 2, 40, 14), color.NRGBA{B: 255, A: 255})
	fill(img, image.Rect(4, 5, 12, 15), color.NRGBA{R: 255, A: 255})
	fill(img, image.Rect(10, 30, 20, 40), color.NRGBA{G: 255, A: 128})
	return img
}

func TestAlphaDetectorFindsSprites(t *testing.T) {
	blocks, err := NewAlphaDetector().Detect(sheet())

	require.NoError(t, err)
	require.Len(t, blocks, 3)
	sorted := ReadingOrder(blocks, RowTolerance)
	assert.Equal(t, image.Rect(4, 5, 12, 15), sorted[0].Rect)
	assert.Equal(t, 80, sorted[0].Pixels)
	assert.Equal(t, image.Rect(30, 2, 40, 14), sorted[1].Rect)
	assert.Equal(t, image.Rect(10, 30, 20, 40), sorted[2].Rect)
}

func TestAlphaDetectorGapMergesParts(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	fill(img, image.Rect(0, 0, 6, 6), color.NRGBA{A: 255})
	fill(img, image.Rect(8, 0, 12, 6), color.NRGBA{A: 255})
	fill(img, image.Rect(19, 19, 20, 20), color.NRGBA{A: 255})

	d := NewAlphaDetector()
	blocks, err := d.Detect(img)
	require.NoError(t, err)
	assert.Len(t, blocks, 2, "the single-pixel speck is dropped")

	d.Gap = 1
	blocks, err = d.Detect(img)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, image.Rect(0, 0, 12, 6), blocks[0].Rect)
	assert.Equal(t, 60, blocks[0].Pixels)
}

func TestSliceCutsSpritesInReadingOrder(t *testing.T) {
	sprites, err := Slice(sheet(), NewAlphaDetector())

	require.NoError(t, err)
	require.Len(t, sprites, 3)
	assert.Equal(t, image.Rect(0, 0, 8, 10), sprites[0].Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, sprites[0].NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, sprites[1].NRGBAAt(9, 11))
	assert.Equal(t, color.NRGBA{G: 255, A: 128}, sprites[2].NRGBAAt(5, 5))
}

func TestGrid(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 30, 20))
	fill(img, image.Rect(0, 0, 10, 10), color.NRGBA{R: 255, A: 255})
	fill(img, image.Rect(25, 5, 26, 6), color.NRGBA{G: 255, A: 255})
	fill(img, image.Rect(12, 12, 14, 14), color.NRGBA{B: 255, A: 255})

	sprites := Grid(img, 10, 10)

	require.Len(t, sprites, 3)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, sprites[1].NRGBAAt(5, 5))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, sprites[2].NRGBAAt(2, 2))
}

func TestContrastDetector(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 50; y < 150; y++ {
		for x := 50; x < 150; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	blocks, err := NewContrastDetector().Detect(img)

	require.NoError(t, err)
	require.Len(t, blocks, 1)
	r := blocks[0].Rect
	assert.True(t, r.Dx() >= 100 && r.Dx() <= 106, "width %d", r.Dx())
	assert.True(t, image.Rect(50, 50, 150, 150).In(r))
}

func TestReadingOrder(t *testing.T) {
	blocks := []Block{
		{Rect: image.Rect(50, 100, 60, 110)},
		{Rect: image.Rect(80, 3, 90, 13)},
		{Rect: image.Rect(10, 0, 20, 10)},
		{Rect: image.Rect(0, 100, 10, 110)},
	}

	sorted := ReadingOrder(blocks, 5)

	var xs []int
	for _, b := range sorted {
		xs = append(xs, b.Rect.Min.X)
	}
	assert.Equal(t, []int{10, 80, 0, 50}, xs)
	assert.Equal(t, 50, blocks[0].Rect.Min.X, "input is not reordered")
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		want    Detector
	}{
		{"alpha", &AlphaDetector{}},
		{"", &AlphaDetector{}},
		{"contrast", &ContrastDetector{}},
		{"ocr", nil},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			d, err := NewDetector(tt.variant)
			if tt.want == nil {
				assert.True(t, errors.Is(err, ErrUnknownDetector))
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, d)
		})
	}
}
