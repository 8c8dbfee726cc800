package renderer

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/ivlev/sprite2video/internal/model"
	"github.com/ivlev/sprite2video/internal/system"
)

// Compositor paints actor sprites over a background and crops the result to
// the camera viewport. Frames are independent of each other, so Frame may be
// called concurrently.
type Compositor struct {
	background *image.RGBA
	actors     []ActorTrack
	camera     CameraTrack
	viewW      int
	viewH      int
}

// NewCompositor prepares compositing of actors (in paint order, first on top)
// over background, viewed through a viewW x viewH camera following cam.
func NewCompositor(background image.Image, actors []ActorTrack, cam CameraTrack, viewW, viewH int) *Compositor {
	return &Compositor{
		background: toRGBA(background),
		actors:     actors,
		camera:     cam,
		viewW:      viewW,
		viewH:      viewH,
	}
}

// origin is the raster position of scene coordinate (0, 0).
func (c *Compositor) origin() image.Point {
	b := c.background.Bounds()
	return image.Pt(b.Dx()/2, b.Dy()/2)
}

// Viewport returns the background rectangle visible on frame i. It is slid,
// never shrunk, to stay inside the background; an axis on which the camera
// is larger than the background shows the whole background.
func (c *Compositor) Viewport(i int) image.Rectangle {
	b := c.background.Bounds()
	o := c.origin()
	left, right := clampAxis(o.X+c.camera.X[i], c.viewW, b.Dx())
	top, bottom := clampAxis(o.Y-c.camera.Y[i], c.viewH, b.Dy())
	return image.Rect(left, top, right, bottom).Add(b.Min)
}

func clampAxis(center, extent, limit int) (lo, hi int) {
	if extent >= limit {
		return 0, limit
	}
	lo = center - extent/2
	if lo < 0 {
		lo = 0
	}
	hi = lo + extent
	if hi > limit {
		lo -= hi - limit
		hi = limit
	}
	return lo, hi
}

// Frame composes frame i.
func (c *Compositor) Frame(i int) *image.RGBA {
	b := c.background.Bounds()
	canvas := system.GetCanvas(b)
	defer system.PutCanvas(canvas)
	draw.Draw(canvas, b, c.background, b.Min, draw.Src)

	o := c.origin().Add(b.Min)
	for a := len(c.actors) - 1; a >= 0; a-- {
		track := c.actors[a]
		sprite := track.Sprites[i]
		if sprite == nil {
			continue
		}
		paste(canvas, sprite, o, track.X[i], track.Y[i])
	}

	vp := c.Viewport(i)
	frame := image.NewRGBA(image.Rect(0, 0, vp.Dx(), vp.Dy()))
	draw.Draw(frame, frame.Bounds(), canvas, vp.Min, draw.Src)
	return frame
}

// Frames composes the first n frames in order.
func (c *Compositor) Frames(n int) []*image.RGBA {
	frames := make([]*image.RGBA, n)
	for i := range frames {
		frames[i] = c.Frame(i)
	}
	return frames
}

// paste draws sprite horizontally centred on x with its top edge at y, where
// (x, y) are scene coordinates with y pointing up. The sprite alpha is the mask.
func paste(dst draw.Image, sprite model.Sprite, origin image.Point, x, y int) {
	sb := sprite.Bounds()
	left := int(float64(x) - float64(sb.Dx())/2)
	at := image.Pt(origin.X+left, origin.Y-y)
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	draw.Draw(dst, r, sprite, sb.Min, draw.Over)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}
