package renderer

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/colornames"

	"github.com/ivlev/sprite2video/internal/model"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func moveAction(name string, sprite model.Sprite, x, y int, durationSec float64) model.Action {
	return model.Action{
		Name: name,
		Components: []model.ActionComponent{
			{Sprite: sprite, DurationSec: durationSec, XOffset: x, YOffset: y},
		},
	}
}

func slot(action model.Action, durationSec float64) model.ScheduledAction {
	return model.ScheduledAction{Action: action, DurationSec: durationSec, IsVisible: true}
}

func sum(s []int) int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

func isColor(img image.Image, x, y int, want color.Color) bool {
	r1, g1, b1, a1 := img.At(x, y).RGBA()
	r2, g2, b2, a2 := want.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

// leftmost returns the first column of row y painted in c, or -1.
func leftmost(img image.Image, y int, c color.Color) int {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		if isColor(img, x, y, c) {
			return x
		}
	}
	return -1
}

var (
	red   = colornames.Red
	blue  = colornames.Blue
	white = colornames.White
	gray  = colornames.Gray
)
