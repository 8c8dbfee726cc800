package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/jung-kurt/gofpdf"
)

// Storyboard writes a PDF contact sheet with one captioned frame per
// Interval seconds, laid out Columns x Rows per A4 landscape page.
type Storyboard struct {
	Interval float64
	Columns  int
	Rows     int
	Title    string
}

const (
	pageMargin = 28.0 // pt
	captionH   = 14.0
	cellGap    = 10.0
)

func (s *Storyboard) Encode(ctx context.Context, frames []*image.RGBA, fps int, path string) error {
	if err := check(frames, fps); err != nil {
		return err
	}
	cols, rows := s.Columns, s.Rows
	if cols <= 0 {
		cols = 3
	}
	if rows <= 0 {
		rows = 3
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 842, Ht: 595}})
	pdf.SetTitle(s.Title, false)
	pdf.SetAuthor("sprite2video", false)
	pdf.SetFont("Helvetica", "", 9)

	pageW, pageH := pdf.GetPageSize()
	cellW := (pageW - 2*pageMargin - float64(cols-1)*cellGap) / float64(cols)
	cellH := (pageH - 2*pageMargin - float64(rows-1)*cellGap) / float64(rows)
	fb := frames[0].Bounds()
	thumbW, thumbH := fit(float64(fb.Dx()), float64(fb.Dy()), cellW, cellH-captionH)

	for n, idx := range s.samples(len(frames), fps) {
		if err := ctx.Err(); err != nil {
			return err
		}
		slot := n % (cols * rows)
		if slot == 0 {
			pdf.AddPage()
		}
		x := pageMargin + float64(slot%cols)*(cellW+cellGap)
		y := pageMargin + float64(slot/cols)*(cellH+cellGap)

		var buf bytes.Buffer
		if err := png.Encode(&buf, frames[idx]); err != nil {
			return fmt.Errorf("frame %d: %w", idx, err)
		}
		name := fmt.Sprintf("frame%d", idx)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.ImageOptions(name, x+(cellW-thumbW)/2, y, thumbW, thumbH, false, opts, 0, "")
		pdf.SetDrawColor(160, 160, 160)
		pdf.Rect(x+(cellW-thumbW)/2, y, thumbW, thumbH, "D")
		pdf.Text(x, y+thumbH+captionH-3, fmt.Sprintf("#%d  t=%.2fs", idx, float64(idx)/float64(fps)))
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// samples returns the frame indices shown on the storyboard.
func (s *Storyboard) samples(n, fps int) []int {
	interval := s.Interval
	if interval <= 0 {
		interval = 1
	}
	step := max(1, int(math.Round(interval*float64(fps))))
	var out []int
	for i := 0; i < n; i += step {
		out = append(out, i)
	}
	return out
}

// fit scales w x h to fit inside maxW x maxH keeping the aspect ratio.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	k := math.Min(maxW/w, maxH/h)
	return w * k, h * k
}
