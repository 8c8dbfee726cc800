package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"github.com/ivlev/sprite2video/internal/config"
	"github.com/ivlev/sprite2video/internal/model"
	"github.com/ivlev/sprite2video/internal/renderer"
	"github.com/ivlev/sprite2video/internal/system"
	"github.com/ivlev/sprite2video/internal/video"
)

type fakeEncoder struct {
	frames []*image.RGBA
	fps    int
	path   string
	err    error
}

func (f *fakeEncoder) Encode(ctx context.Context, frames []*image.RGBA, fps int, path string) error {
	f.frames, f.fps, f.path = frames, fps, path
	return f.err
}

func uniform(w, h int, c image.Image) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), c, image.Point{}, draw.Src)
	return img
}

func testScene() *model.Scene {
	sprite := uniform(6, 6, image.NewUniform(colornames.Red))
	walk := model.Action{Name: "walk", Components: []model.ActionComponent{
		{Sprite: sprite, DurationSec: 0.5, XOffset: 20},
		{Sprite: sprite, DurationSec: 0.5, YOffset: -10},
	}}
	scene := model.NewScene("walk")
	scene.Background = uniform(120, 80, image.NewUniform(colornames.Gray))
	scene.DurationSec = 2
	scene.Camera.Width, scene.Camera.Height = 50, 40
	scene.AddActor(model.Actor{Name: "hero", Actions: []model.Action{walk}}, 0, 0,
		model.ScheduledAction{Action: walk, DurationSec: 2, IsVisible: true})
	scene.Camera.Moves = []model.CameraMove{model.Follow(0, 2)}
	return scene
}

func testProject(workers int) (*Project, *bytes.Buffer) {
	cfg := config.Default()
	cfg.FPS = 10
	cfg.Workers = workers
	var out bytes.Buffer
	p := NewProject(cfg, nil, nil)
	p.Out = &out
	return p, &out
}

func TestRenderMatchesSequentialRender(t *testing.T) {
	scene := testScene()
	want, err := renderer.RenderScene(scene, 10)
	require.NoError(t, err)

	p, out := testProject(4)
	got, err := p.Render(context.Background(), scene)

	require.NoError(t, err)
	require.Len(t, got, 20)
	for i := range want {
		assert.Equal(t, want[i].Pix, got[i].Pix, "frame %d", i)
	}
	stats := p.LastStats()
	assert.Equal(t, 20, stats.Frames)
	assert.Equal(t, image.Pt(50, 40), stats.Size)
	assert.NotEmpty(t, stats.JobID)
	assert.Contains(t, out.String(), "[*] Кадров: 20 | Разрешение: 50x40 @ 10 FPS | Потоков: 4")
}

func TestRenderUsesSnapshot(t *testing.T) {
	scene := testScene()
	before := scene.Clone()
	p, _ := testProject(2)

	_, err := p.Render(context.Background(), scene)

	require.NoError(t, err)
	assert.Equal(t, before, scene)
}

func TestRenderErrors(t *testing.T) {
	p, _ := testProject(2)

	noBg := testScene()
	noBg.Background = nil
	_, err := p.Render(context.Background(), noBg)
	assert.True(t, errors.Is(err, renderer.ErrNoBackground))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Render(ctx, testScene())
	assert.True(t, errors.Is(err, context.Canceled))

	p.Config.MemoryBudget = 1e-15
	_, err = p.Render(context.Background(), testScene())
	assert.True(t, errors.Is(err, system.ErrInsufficientMemory))
}

func TestExportEncodesRenderedFrames(t *testing.T) {
	enc := &fakeEncoder{}
	p, out := testProject(3)
	p.Encoder = enc
	p.Config.ShowStats = true

	require.NoError(t, p.Export(context.Background(), testScene(), "out.mp4"))

	assert.Len(t, enc.frames, 20)
	assert.Equal(t, 10, enc.fps)
	assert.Equal(t, "out.mp4", enc.path)
	stats := p.LastStats()
	assert.GreaterOrEqual(t, stats.Total, stats.Render)
	assert.Contains(t, out.String(), "[+++] Успех! Результат: out.mp4")
	assert.Contains(t, out.String(), "--- [PERFORMANCE REPORT] ---")
}

func TestExportPropagatesEncoderError(t *testing.T) {
	boom := errors.New("disk full")
	p, _ := testProject(1)
	p.Encoder = &fakeEncoder{err: boom}
	scene := testScene()

	err := p.Export(context.Background(), scene, "out.gif")

	assert.True(t, errors.Is(err, boom))
	assert.NotNil(t, scene.Background)
}

func TestExportPicksEncoderByExtension(t *testing.T) {
	p, _ := testProject(2)
	dir := t.TempDir()

	require.NoError(t, p.Export(context.Background(), testScene(), filepath.Join(dir, "walk.gif")))
	assert.FileExists(t, filepath.Join(dir, "walk.gif"))

	err := p.Export(context.Background(), testScene(), filepath.Join(dir, "walk.avi"))
	assert.True(t, errors.Is(err, video.ErrUnsupportedFormat))
}

func TestStatsReport(t *testing.T) {
	s := Stats{JobID: "job-1", Scene: "walk", Frames: 20, Size: image.Pt(50, 40)}
	report := s.Report("v1", system.HostReport{OS: "linux", CPUs: 2})

	assert.True(t, strings.HasPrefix(report, "--- [PERFORMANCE REPORT] ---\nBuild: v1\nJob: job-1\n"))
	assert.Contains(t, report, "Frames: 20 | Size: 50x40")
	assert.Zero(t, s.EffectiveFPS())
}

func TestStatsEffectiveFPS(t *testing.T) {
	tests := []struct {
		frames   int
		total    time.Duration
		expected float64
	}{
		{20, 2 * time.Second, 10},
		{300, 5 * time.Second, 60},
		{45, 1500 * time.Millisecond, 30},
		{10, 0, 0},              // Nothing measured
		{10, -time.Second, 0},   // Clock went backwards
		{0, 3 * time.Second, 0}, // Empty scene
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			s := Stats{Frames: tt.frames, Total: tt.total}
			if got := s.EffectiveFPS(); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("%d frames in %v: expected %.2f FPS, got %.2f", tt.frames, tt.total, tt.expected, got)
			}
		})
	}
}

func TestRenderFrameCountPerFPS(t *testing.T) {
	tests := []struct {
		fps      int
		duration float64
		expected int
	}{
		{10, 2, 20},
		{24, 2, 48},
		{10, 0.35, 3},
		{30, 0, 0},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			p, _ := testProject(3)
			p.Config.FPS = tt.fps
			scene := testScene()
			scene.DurationSec = tt.duration

			frames, err := p.Render(context.Background(), scene)
			if err != nil {
				t.Fatalf("Render at %d FPS: %v", tt.fps, err)
			}
			if len(frames) != tt.expected {
				t.Errorf("%.2fs @ %d FPS: expected %d frames, got %d", tt.duration, tt.fps, tt.expected, len(frames))
			}
			if got := p.LastStats().Frames; got != tt.expected {
				t.Errorf("stats report %d frames, expected %d", got, tt.expected)
			}
		})
	}
}
