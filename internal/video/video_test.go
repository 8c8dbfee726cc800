package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/sprite2video/internal/config"
	"github.com/ivlev/sprite2video/internal/effects"
)

func testFrames(n, w, h int) []*image.RGBA {
	frames := make([]*image.RGBA, n)
	for i := range frames {
		f := image.NewRGBA(image.Rect(0, 0, w, h))
		for p := 0; p < len(f.Pix); p += 4 {
			f.Pix[p] = uint8(i * 20)
			f.Pix[p+3] = 255
		}
		frames[i] = f
	}
	return frames
}

func TestForPath(t *testing.T) {
	ff := &FFmpegEncoder{}
	tests := map[string]Encoder{
		"out.mp4":   ff,
		"out.MKV":   ff,
		"out.webm":  ff,
		"out.gif":   &GIFEncoder{},
		"board.pdf": &Storyboard{},
		"frames":    &PNGSequence{},
	}
	for path, want := range tests {
		got, err := ForPath(path, ff)
		require.NoError(t, err, path)
		assert.IsType(t, want, got, path)
	}

	_, err := ForPath("out.avi", ff)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestBuildFFmpegArgs(t *testing.T) {
	e := &FFmpegEncoder{Codec: "libx264", Quality: 23, Effect: &effects.DefaultEffect{}}
	p := config.EncodeParams{Width: 816, Height: 624, FPS: 60, Duration: 5, Scale: 1}

	args := e.buildFFmpegArgs("out.mp4", p)

	want := []string{
		"-y", "-f", "rawvideo", "-pixel_format", "rgba", "-video_size", "816x624",
		"-framerate", "60", "-i", "-",
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p", "-c:v", "libx264", "-crf", "23", "-preset", "medium",
		"out.mp4",
	}
	assert.Equal(t, want, args)
}

func TestBuildFFmpegArgsQualityPerCodec(t *testing.T) {
	p := config.EncodeParams{Width: 2, Height: 2, FPS: 10}

	vt := (&FFmpegEncoder{Codec: "h264_videotoolbox", Quality: 75}).buildFFmpegArgs("a.mov", p)
	assert.Contains(t, vt, "7500k")

	nv := (&FFmpegEncoder{Codec: "h264_nvenc", Quality: 28}).buildFFmpegArgs("a.mp4", p)
	assert.Subset(t, nv, []string{"-cq", "28"})

	webm := (&FFmpegEncoder{Codec: "h264_nvenc", Quality: 31}).buildFFmpegArgs("a.webm", p)
	assert.Subset(t, webm, []string{"libvpx-vp9", "-crf", "31"})
	assert.NotContains(t, webm, "-vf")
}

func TestNewFFmpegEncoderDefaultsQuality(t *testing.T) {
	cfg := config.Default()
	cfg.VideoEncoder = "h264_nvenc"
	cfg.Scale = 2

	e := NewFFmpegEncoder(cfg)

	assert.Equal(t, 28, e.Quality)
	assert.Equal(t, 2, e.Options.Scale)
}

func TestWriteFramesPacksSubImages(t *testing.T) {
	big := testFrames(1, 4, 4)[0]
	sub := big.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	var buf bytes.Buffer

	require.NoError(t, writeFrames(&buf, []*image.RGBA{sub, testFrames(1, 2, 2)[0]}))
	assert.Equal(t, 2*2*4*2, buf.Len())

	err := writeFrames(&buf, []*image.RGBA{sub, big})
	assert.True(t, errors.Is(err, ErrFrameSize))
}

func TestEncodersRejectEmptyInput(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, e := range []Encoder{&FFmpegEncoder{}, &GIFEncoder{}, &PNGSequence{}, &Storyboard{}} {
		assert.True(t, errors.Is(e.Encode(ctx, nil, 60, filepath.Join(dir, "x")), ErrNoFrames))
		assert.True(t, errors.Is(e.Encode(ctx, testFrames(1, 2, 2), 0, filepath.Join(dir, "x")), ErrInvalidFPS))
	}
}

func TestGIFDelaysKeepTotalDuration(t *testing.T) {
	total := 0
	for i := 0; i < 60; i++ {
		total += gifDelay(i, 60)
	}
	assert.Equal(t, 100, total)
	assert.Equal(t, 10, gifDelay(3, 10))
}

func TestGIFEncoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")

	require.NoError(t, (&GIFEncoder{}).Encode(context.Background(), testFrames(5, 6, 4), 10, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 5)
	assert.Equal(t, []int{10, 10, 10, 10, 10}, g.Delay)
	assert.Equal(t, image.Rect(0, 0, 6, 4), g.Image[0].Bounds())
}

func TestPNGSequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	frames := testFrames(3, 2, 2)

	require.NoError(t, (&PNGSequence{}).Encode(context.Background(), frames, 60, dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	f, err := os.Open(filepath.Join(dir, FrameName(2)))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(40)*0x101, r)
}

func TestStoryboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.pdf")
	s := &Storyboard{Interval: 0.5, Title: "walk"}

	assert.Equal(t, []int{0, 5, 10, 15}, s.samples(20, 10))
	require.NoError(t, s.Encode(context.Background(), testFrames(20, 16, 9), 10, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestFit(t *testing.T) {
	w, h := fit(200, 100, 50, 50)
	assert.Equal(t, 50.0, w)
	assert.Equal(t, 25.0, h)
}
