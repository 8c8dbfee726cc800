package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageSource treats each image file as a page. Pages of a directory are
// ordered by file name.
type ImageSource struct {
	paths []string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && isImage(entry.Name()) {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	return &ImageSource{paths: paths}, nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

func (s *ImageSource) PageSize(index int) (image.Point, error) {
	if err := s.check(index); err != nil {
		return image.Point{}, err
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return image.Point{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// RenderPage decodes the file at its native size; dpi is ignored.
func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if err := s.check(index); err != nil {
		return nil, err
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return img, nil
}

func (s *ImageSource) check(index int) error {
	if index < 0 || index >= len(s.paths) {
		return fmt.Errorf("page %d of %d: %w", index, len(s.paths), ErrPageRange)
	}
	return nil
}

func (s *ImageSource) Close() error {
	return nil
}
