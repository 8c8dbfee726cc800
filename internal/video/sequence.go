package video

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNGSequence writes frame_00000.png, frame_00001.png, ... into a directory.
type PNGSequence struct{}

func (e *PNGSequence) Encode(ctx context.Context, frames []*image.RGBA, fps int, dir string) error {
	if err := check(frames, fps); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writePNG(filepath.Join(dir, FrameName(i)), f); err != nil {
			return err
		}
	}
	return nil
}

func FrameName(i int) string {
	return fmt.Sprintf("frame_%05d.png", i)
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return out.Close()
}
