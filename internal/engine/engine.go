package engine

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/sprite2video/internal/config"
	"github.com/ivlev/sprite2video/internal/logging"
	"github.com/ivlev/sprite2video/internal/model"
	"github.com/ivlev/sprite2video/internal/renderer"
	"github.com/ivlev/sprite2video/internal/system"
	"github.com/ivlev/sprite2video/internal/video"
)

// Project renders scenes with one configuration. Renders never touch the
// caller's scene: they work on a snapshot taken when the call starts.
type Project struct {
	Config *config.Config
	// Encoder is used by Export. When nil, the encoder is picked from the
	// output path.
	Encoder video.Encoder
	Logger  *zap.Logger
	// Out receives the progress lines, stdout by default.
	Out io.Writer

	mu   sync.Mutex
	last Stats
}

func NewProject(cfg *config.Config, enc video.Encoder, logger *zap.Logger) *Project {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Project{
		Config:  cfg,
		Encoder: enc,
		Logger:  logging.Component(logger, "engine"),
		Out:     os.Stdout,
	}
}

// Stats describes the last finished job.
type Stats struct {
	JobID  string
	Scene  string
	Frames int
	Size   image.Point
	Render time.Duration
	Encode time.Duration
	Total  time.Duration
}

func (s Stats) EffectiveFPS() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Total.Seconds()
}

// Report formats the stats the way the CLI prints them.
func (s Stats) Report(build string, host system.HostReport) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Job: %s\n"+
			"Scene: %s | Frames: %d | Size: %dx%d\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Host: %s\n"+
			"----------------------------\n",
		build, s.JobID, s.Scene, s.Frames, s.Size.X, s.Size.Y,
		s.Total.Seconds(), s.Render.Seconds(), s.Encode.Seconds(), s.EffectiveFPS(), host,
	)
}

// LastStats returns the stats of the most recent Render or Export.
func (p *Project) LastStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Project) record(s Stats) {
	p.mu.Lock()
	p.last = s
	p.mu.Unlock()
}

// Render composes every frame of scene at the configured frame rate.
// Frames are composed in parallel by up to Config.Workers goroutines and
// returned in order.
func (p *Project) Render(ctx context.Context, scene *model.Scene) ([]*image.RGBA, error) {
	stats := Stats{JobID: uuid.NewString(), Scene: scene.Name}
	frames, err := p.render(ctx, scene, &stats)
	if err != nil {
		return nil, err
	}
	stats.Total = stats.Render
	p.record(stats)
	return frames, nil
}

func (p *Project) render(ctx context.Context, scene *model.Scene, stats *Stats) ([]*image.RGBA, error) {
	log := p.Logger.With(zap.String("job", stats.JobID), zap.String("scene", scene.Name))
	start := time.Now()

	// Рендерим снимок сцены, вызывающий может менять оригинал
	snapshot := scene.Clone()
	plan, err := renderer.NewPlan(snapshot, p.Config.FPS)
	if err != nil {
		return nil, err
	}
	stats.Frames = plan.NFrames
	if plan.NFrames > 0 {
		stats.Size = plan.Viewport(0).Size()
	}
	// Все кадры держим в памяти до кодирования
	if err := system.CheckFrameMemory(stats.Size.X, stats.Size.Y, plan.NFrames, p.Config.MemoryBudget); err != nil {
		return nil, err
	}

	fmt.Fprintf(p.Out, "[*] Сцена: %s | Актеров: %d | Движений камеры: %d\n", snapshot.Name, len(snapshot.Actors), len(snapshot.Camera.Moves))
	fmt.Fprintf(p.Out, "[*] Кадров: %d | Разрешение: %dx%d @ %d FPS | Потоков: %d\n",
		plan.NFrames, stats.Size.X, stats.Size.Y, plan.FPS, p.workers())

	// Каждый воркер пишет только в свой индекс, порядок кадров сохраняется
	frames := make([]*image.RGBA, plan.NFrames)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i := range frames {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frames[i] = plan.Frame(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats.Render = time.Since(start)
	log.Info("rendered",
		zap.Int("frames", plan.NFrames),
		zap.Duration("elapsed", stats.Render))
	return frames, nil
}

// Export renders scene and encodes it to path.
func (p *Project) Export(ctx context.Context, scene *model.Scene, path string) error {
	start := time.Now()
	stats := Stats{JobID: uuid.NewString(), Scene: scene.Name}

	enc, err := p.encoderFor(path, scene.Name)
	if err != nil {
		return err
	}

	frames, err := p.render(ctx, scene, &stats)
	if err != nil {
		return err
	}

	fmt.Fprintf(p.Out, "[*] Кодирование %d кадров: %s\n", len(frames), path)
	encodeStart := time.Now()
	if err := enc.Encode(ctx, frames, p.Config.FPS, path); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	stats.Encode = time.Since(encodeStart)
	stats.Total = time.Since(start)
	p.record(stats)

	p.Logger.Info("exported",
		zap.String("job", stats.JobID),
		zap.String("path", path),
		zap.Int("frames", stats.Frames),
		zap.Duration("render", stats.Render),
		zap.Duration("encode", stats.Encode))
	fmt.Fprintf(p.Out, "[+++] Успех! Результат: %s\n", path)

	if p.Config.ShowStats {
		fmt.Fprint(p.Out, stats.Report(p.Config.BuildVersion, system.Host()))
	}
	return nil
}

func (p *Project) encoderFor(path, title string) (video.Encoder, error) {
	if p.Encoder != nil {
		return p.Encoder, nil
	}
	enc, err := video.ForPath(path, video.NewFFmpegEncoder(p.Config))
	if err != nil {
		return nil, err
	}
	if sb, ok := enc.(*video.Storyboard); ok {
		sb.Title = title
	}
	return enc, nil
}

func (p *Project) workers() int {
	return max(1, p.Config.Workers)
}
