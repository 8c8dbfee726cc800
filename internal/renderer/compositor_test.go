package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/sprite2video/internal/model"
)

func staticTrack(n, x, y int, sprite model.Sprite) ActorTrack {
	t := ActorTrack{X: make([]int, n), Y: make([]int, n), Sprites: make([]model.Sprite, n)}
	for i := 0; i < n; i++ {
		t.X[i], t.Y[i], t.Sprites[i] = x, y, sprite
	}
	return t
}

func TestViewportIsClampedToBackground(t *testing.T) {
	bg := solid(100, 100, white)
	cam := CameraTrack{
		X: []int{0, 1000, -1000, 10, 0},
		Y: []int{0, 0, 0, 1000, -1000},
	}
	c := NewCompositor(bg, nil, cam, 50, 50)

	want := []image.Rectangle{
		image.Rect(25, 25, 75, 75),
		image.Rect(50, 25, 100, 75),
		image.Rect(0, 25, 50, 75),
		image.Rect(35, 0, 85, 50),
		image.Rect(25, 50, 75, 100),
	}
	for i, w := range want {
		vp := c.Viewport(i)
		assert.Equal(t, w, vp, "frame %d", i)
		assert.True(t, vp.In(bg.Bounds()))

		frame := c.Frame(i)
		assert.Equal(t, 50, frame.Bounds().Dx())
		assert.Equal(t, 50, frame.Bounds().Dy())
	}
}

func TestViewportWiderThanBackgroundShowsFullWidth(t *testing.T) {
	bg := solid(40, 30, white)
	c := NewCompositor(bg, nil, CameraTrack{X: []int{17}, Y: []int{-9}}, 64, 20)

	assert.Equal(t, image.Rect(0, 10, 40, 30), c.Viewport(0))
}

func TestFrameAnchorsSpriteTopCentre(t *testing.T) {
	bg := solid(20, 20, white)
	actors := []ActorTrack{staticTrack(1, 0, 0, solid(2, 2, red))}
	c := NewCompositor(bg, actors, CameraTrack{X: []int{0}, Y: []int{0}}, 20, 20)

	frame := c.Frame(0)

	for _, p := range []image.Point{{9, 10}, {10, 10}, {9, 11}, {10, 11}} {
		assert.True(t, isColor(frame, p.X, p.Y, red), "pixel %v", p)
	}
	assert.True(t, isColor(frame, 8, 10, white))
	assert.True(t, isColor(frame, 9, 9, white))
	assert.True(t, isColor(frame, 11, 10, white))
}

func TestFrameYAxisPointsUp(t *testing.T) {
	bg := solid(20, 20, white)
	actors := []ActorTrack{staticTrack(1, 0, 5, solid(2, 2, red))}
	c := NewCompositor(bg, actors, CameraTrack{X: []int{0}, Y: []int{0}}, 20, 20)

	frame := c.Frame(0)

	assert.True(t, isColor(frame, 9, 5, red))
	assert.True(t, isColor(frame, 9, 10, white))
}

func TestFirstActorIsPaintedOnTop(t *testing.T) {
	bg := solid(20, 20, white)
	actors := []ActorTrack{
		staticTrack(1, 0, 0, solid(4, 4, red)),
		staticTrack(1, 0, 0, solid(4, 4, blue)),
	}
	c := NewCompositor(bg, actors, CameraTrack{X: []int{0}, Y: []int{0}}, 20, 20)

	assert.True(t, isColor(c.Frame(0), 10, 11, red))
}

func TestSpriteAlphaMasksPaste(t *testing.T) {
	sprite := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	sprite.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	sprite.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 0})
	bg := solid(20, 20, white)
	actors := []ActorTrack{staticTrack(1, 0, 0, sprite)}
	c := NewCompositor(bg, actors, CameraTrack{X: []int{0}, Y: []int{0}}, 20, 20)

	frame := c.Frame(0)

	assert.True(t, isColor(frame, 9, 10, red))
	assert.True(t, isColor(frame, 10, 10, white))
}

func TestFrameSkipsHiddenActorsAndLeavesBackgroundIntact(t *testing.T) {
	bg := solid(10, 10, white)
	actors := []ActorTrack{staticTrack(2, 0, 0, nil)}
	c := NewCompositor(bg, actors, CameraTrack{X: []int{0, 0}, Y: []int{0, 0}}, 10, 10)

	frames := c.Frames(2)

	require.Len(t, frames, 2)
	assert.Equal(t, bg.Pix, frames[1].Pix)
	assert.True(t, isColor(bg, 5, 5, white))
}
