package video

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
)

// GIFEncoder writes an animated GIF looping forever, dithered to the web-safe
// palette.
type GIFEncoder struct{}

func (e *GIFEncoder) Encode(ctx context.Context, frames []*image.RGBA, fps int, path string) error {
	if err := check(frames, fps); err != nil {
		return err
	}

	anim := &gif.GIF{LoopCount: 0}
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := f.Bounds()
		pal := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.WebSafe)
		draw.FloydSteinberg.Draw(pal, pal.Bounds(), f, b.Min)
		anim.Image = append(anim.Image, pal)
		anim.Delay = append(anim.Delay, gifDelay(i, fps))
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(out, anim); err != nil {
		out.Close()
		return fmt.Errorf("encode gif %s: %w", path, err)
	}
	return out.Close()
}

// gifDelay is the delay of frame i in hundredths of a second. Delays are
// rounded on absolute time so the total stays exact.
func gifDelay(i, fps int) int {
	at := func(k int) int { return (k*100 + fps/2) / fps }
	return at(i+1) - at(i)
}
