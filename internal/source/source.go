package source

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the raster resolution for PDF backgrounds.
const DefaultDPI = 96

var ErrPageRange = errors.New("page out of range")

// Source is a paged raster provider: a PDF or a set of image files.
type Source interface {
	PageCount() int
	PageSize(index int) (image.Point, error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks the source for path: PDFs go through MuPDF, anything else is
// read as images (a single file or a directory).
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

// LoadBackground rasterizes one page of path for use as a scene background.
func LoadBackground(path string, page, dpi int) (image.Image, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if page < 0 || page >= src.PageCount() {
		return nil, fmt.Errorf("%s: page %d of %d: %w", path, page, src.PageCount(), ErrPageRange)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return src.RenderPage(page, dpi)
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

// PageSize is the page size in points.
func (f *FitzPDFSource) PageSize(index int) (image.Point, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return image.Point{}, err
	}
	return rect.Size(), nil
}

// RenderPage opens its own document handle so pages can be rendered from
// several goroutines.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
