package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ivlev/sprite2video/internal/config"
	"github.com/ivlev/sprite2video/internal/effects"
)

var (
	ErrNoFrames          = errors.New("no frames to encode")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrFrameSize         = errors.New("frames differ in size")
	ErrInvalidFPS        = errors.New("fps must be positive")
)

// Encoder writes a frame sequence played at fps to path.
type Encoder interface {
	Encode(ctx context.Context, frames []*image.RGBA, fps int, path string) error
}

// ForPath picks the encoder for the output extension. A path without an
// extension is a directory of numbered PNGs.
func ForPath(path string, ff *FFmpegEncoder) (Encoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp4", ".mov", ".mkv", ".webm":
		return ff, nil
	case ".gif":
		return &GIFEncoder{}, nil
	case ".pdf":
		return &Storyboard{}, nil
	case "":
		return &PNGSequence{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
}

// FFmpegEncoder pipes raw RGBA frames to an ffmpeg process.
type FFmpegEncoder struct {
	Codec   string
	Quality int
	Effect  effects.Effect
	// Scale and fades; size, rate and duration come from the frames.
	Options config.EncodeParams
}

func NewFFmpegEncoder(cfg *config.Config) *FFmpegEncoder {
	quality := cfg.Quality
	if quality == 0 {
		quality = config.DefaultQuality(cfg.VideoEncoder)
	}
	return &FFmpegEncoder{
		Codec:   cfg.VideoEncoder,
		Quality: quality,
		Effect:  &effects.DefaultEffect{},
		Options: config.EncodeParams{Scale: cfg.Scale, FadeIn: cfg.FadeIn, FadeOut: cfg.FadeOut},
	}
}

func (e *FFmpegEncoder) Encode(ctx context.Context, frames []*image.RGBA, fps int, path string) error {
	if err := check(frames, fps); err != nil {
		return err
	}
	b := frames[0].Bounds()
	params := e.Options
	params.Width, params.Height = b.Dx(), b.Dy()
	params.FPS = fps
	params.Duration = float64(len(frames)) / float64(fps)

	// Используем rawvideo через stdin для исключения I/O на диск
	cmd := exec.CommandContext(ctx, "ffmpeg", e.buildFFmpegArgs(path, params)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Запись raw RGBA данных
	writeErr := writeFrames(stdin, frames)
	stdin.Close()
	waitErr := cmd.Wait()

	if writeErr != nil {
		return fmt.Errorf("write raw error: %w\n%s", writeErr, out.String())
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg wait error: %w\n%s", waitErr, out.String())
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(path string, p config.EncodeParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}
	if e.Effect != nil {
		if filter := e.Effect.GenerateFilter(p); filter != "" {
			args = append(args, "-vf", filter)
		}
	}
	args = append(args, "-pix_fmt", "yuv420p")

	codec := e.Codec
	if strings.EqualFold(filepath.Ext(path), ".webm") {
		codec = "libvpx-vp9"
	}
	args = append(args, "-c:v", codec)

	// Качество в зависимости от энкодера
	switch codec {
	case "h264_videotoolbox":
		// VideoToolbox не везде поддерживает -q:v, используем битрейт
		args = append(args, "-b:v", fmt.Sprintf("%dk", e.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	case "libvpx-vp9":
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-b:v", "0")
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	return append(args, path)
}

func check(frames []*image.RGBA, fps int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if fps <= 0 {
		return fmt.Errorf("%d: %w", fps, ErrInvalidFPS)
	}
	return nil
}

// writeFrames streams frames as tightly packed RGBA rows.
func writeFrames(w io.Writer, frames []*image.RGBA) error {
	size := frames[0].Bounds().Size()
	for i, f := range frames {
		if f.Bounds().Size() != size {
			return fmt.Errorf("frame %d is %v, want %v: %w", i, f.Bounds().Size(), size, ErrFrameSize)
		}
		if _, err := w.Write(packed(f).Pix[:size.X*size.Y*4]); err != nil {
			return err
		}
	}
	return nil
}

func packed(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if img.Stride == b.Dx()*4 && b.Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
