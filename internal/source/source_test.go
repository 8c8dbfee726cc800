package source

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImageSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 3, 2)
	writePNG(t, filepath.Join(dir, "a.PNG"), 5, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src, err := NewImageSource(dir)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 2, src.PageCount())
	size, err := src.PageSize(0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(5, 4), size)

	img, err := src.RenderPage(1, 300)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	_, err = src.RenderPage(2, 0)
	assert.True(t, errors.Is(err, ErrPageRange))
}

func TestLoadBackgroundImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	writePNG(t, path, 8, 6)

	img, err := LoadBackground(path, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(200*0x101), r)

	_, err = LoadBackground(path, 1, 0)
	assert.True(t, errors.Is(err, ErrPageRange))

	_, err = LoadBackground(filepath.Join(t.TempDir(), "missing.png"), 0, 0)
	assert.Error(t, err)
}

func TestLoadBackgroundPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.pdf")
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 200, Ht: 100}})
	pdf.AddPage()
	pdf.AddPage()
	pdf.SetFillColor(0, 0, 255)
	pdf.Rect(0, 0, 200, 100, "F")
	require.NoError(t, pdf.OutputFileAndClose(path))

	src, err := Open(path)
	require.NoError(t, err)
	assert.IsType(t, &FitzPDFSource{}, src)
	assert.Equal(t, 2, src.PageCount())
	size, err := src.PageSize(0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 100), size)
	require.NoError(t, src.Close())

	img, err := LoadBackground(path, 1, 144)
	require.NoError(t, err)
	assert.InDelta(t, 400, img.Bounds().Dx(), 1)
	assert.InDelta(t, 200, img.Bounds().Dy(), 1)
	_, _, b, _ := img.At(img.Bounds().Dx()/2, img.Bounds().Dy()/2).RGBA()
	assert.Greater(t, b, uint32(0xf000))
}
