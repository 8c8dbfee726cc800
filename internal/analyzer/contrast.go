package analyzer

import (
	"image"
	"image/color"
	"math"
)

// ContrastDetector finds sprites on an opaque, flat background by their
// edges: Sobel gradient, dilation to close outlines, then connected regions.
type ContrastDetector struct {
	MinBlockArea  int     // Minimum bounding box area in pixels²
	EdgeThreshold float64 // Gradient magnitude threshold
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  64,
		EdgeThreshold: 30.0,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	gray := toGrayscale(img)
	edges := sobelEdgeDetection(gray, d.EdgeThreshold)
	dilated := dilate(edges, 3, 1)

	var blocks []Block
	for _, rect := range findContours(dilated) {
		if area := rect.Dx() * rect.Dy(); area >= d.MinBlockArea {
			blocks = append(blocks, Block{Rect: rect, Pixels: area})
		}
	}
	return blocks, nil
}

func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

var (
	sobelX = [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// sobelEdgeDetection marks pixels whose gradient magnitude exceeds threshold.
// Neighbours outside the image repeat the edge pixel.
func sobelEdgeDetection(gray *image.Gray, threshold float64) *image.Gray {
	b := gray.Bounds()
	edges := image.NewGray(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sumX, sumY float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					px := clamp(x+kx, b.Min.X, b.Max.X-1)
					py := clamp(y+ky, b.Min.Y, b.Max.Y-1)
					v := float64(gray.GrayAt(px, py).Y)
					sumX += v * float64(sobelX[ky+1][kx+1])
					sumY += v * float64(sobelY[ky+1][kx+1])
				}
			}
			if math.Sqrt(sumX*sumX+sumY*sumY) > threshold {
				edges.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return edges
}

// dilate grows foreground pixels by a square kernel, clipped at the borders.
func dilate(img *image.Gray, kernelSize, iterations int) *image.Gray {
	b := img.Bounds()
	half := kernelSize / 2
	result := img

	for iter := 0; iter < iterations; iter++ {
		temp := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				var maxVal uint8
				for ky := max(y-half, b.Min.Y); ky <= min(y+half, b.Max.Y-1); ky++ {
					for kx := max(x-half, b.Min.X); kx <= min(x+half, b.Max.X-1); kx++ {
						maxVal = max(maxVal, result.GrayAt(kx, ky).Y)
					}
				}
				temp.SetGray(x, y, color.Gray{Y: maxVal})
			}
		}
		result = temp
	}
	return result
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// findContours returns the bounding rectangles of 4-connected foreground regions.
func findContours(img *image.Gray) []image.Rectangle {
	bounds := img.Bounds()
	visited := make([][]bool, bounds.Dy())
	for i := range visited {
		visited[i] = make([]bool, bounds.Dx())
	}

	var contours []image.Rectangle
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y > 128 && !visited[y-bounds.Min.Y][x-bounds.Min.X] {
				contours = append(contours, floodFill(img, visited, x, y))
			}
		}
	}
	return contours
}

func floodFill(img *image.Gray, visited [][]bool, startX, startY int) image.Rectangle {
	bounds := img.Bounds()
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := p.X, p.Y

		if !p.In(bounds) {
			continue
		}
		if visited[y-bounds.Min.Y][x-bounds.Min.X] || img.GrayAt(x, y).Y <= 128 {
			continue
		}
		visited[y-bounds.Min.Y][x-bounds.Min.X] = true

		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)

		stack = append(stack,
			image.Point{X: x + 1, Y: y},
			image.Point{X: x - 1, Y: y},
			image.Point{X: x, Y: y + 1},
			image.Point{X: x, Y: y - 1},
		)
	}

	return image.Rect(minX, minY, maxX+1, maxY+1)
}
