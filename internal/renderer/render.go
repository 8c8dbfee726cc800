package renderer

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/ivlev/sprite2video/internal/model"
)

var (
	ErrNoBackground = errors.New("scene has no background")
	ErrInvalidFPS   = errors.New("fps must be positive")
)

// Plan is a scene resolved to per-frame tracks, ready for compositing.
type Plan struct {
	FPS     int
	NFrames int
	Actors  []ActorTrack
	Camera  CameraTrack

	compositor *Compositor
}

// NewPlan schedules every actor and the camera of scene at fps. The scene is
// only read.
func NewPlan(scene *model.Scene, fps int) (*Plan, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("render %q at %d fps: %w", scene.Name, fps, ErrInvalidFPS)
	}
	if scene.Background == nil {
		return nil, fmt.Errorf("render %q: %w", scene.Name, ErrNoBackground)
	}
	if err := scene.Validate(); err != nil {
		return nil, err
	}

	n := FrameCount(scene.DurationSec, fps)
	actors := make([]ActorTrack, len(scene.Actors))
	for i, sa := range scene.Actors {
		actors[i] = ScheduleActor(sa, n, fps)
	}
	cam, err := ResolveCamera(scene.Camera, actors, n, fps)
	if err != nil {
		return nil, err
	}

	return &Plan{
		FPS:        fps,
		NFrames:    n,
		Actors:     actors,
		Camera:     cam,
		compositor: NewCompositor(scene.Background, actors, cam, scene.Camera.Width, scene.Camera.Height),
	}, nil
}

// Frame composes frame i of the plan. It is safe for concurrent use.
func (p *Plan) Frame(i int) *image.RGBA {
	return p.compositor.Frame(i)
}

// Viewport returns the background rectangle shown on frame i.
func (p *Plan) Viewport(i int) image.Rectangle {
	return p.compositor.Viewport(i)
}

// RenderScene renders every frame of scene at fps, in order.
func RenderScene(scene *model.Scene, fps int) ([]*image.RGBA, error) {
	plan, err := NewPlan(scene, fps)
	if err != nil {
		return nil, err
	}
	return plan.compositor.Frames(plan.NFrames), nil
}

// PreviewAction renders action on its own, on a transparent canvas just large
// enough to hold every sprite along the action path.
func PreviewAction(action model.Action, fps int) []*image.RGBA {
	track := SampleAction(action, fps)
	if track.Len() == 0 {
		return nil
	}
	xs := cumulative(track.DX, 0)
	ys := cumulative(track.DY, 0)

	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)
	maxW, maxH := 0, 0
	for _, s := range track.Sprites {
		b := s.Bounds()
		maxW = max(maxW, b.Dx())
		maxH = max(maxH, b.Dy())
	}

	bounds := image.Rect(0, 0, xMax-xMin+maxW, yMax-yMin+maxH)
	x0 := maxW/2 - xMin
	y0 := maxH/2 + yMax

	frames := make([]*image.RGBA, track.Len())
	for i, s := range track.Sprites {
		frame := image.NewRGBA(bounds)
		sb := s.Bounds()
		at := image.Pt(x0+xs[i]-sb.Dx()/2, y0-ys[i]-sb.Dy()/2)
		draw.Draw(frame, image.Rectangle{Min: at, Max: at.Add(sb.Size())}, s, sb.Min, draw.Over)
		frames[i] = frame
	}
	return frames
}

func minMax(s []int) (lo, hi int) {
	lo, hi = s[0], s[0]
	for _, v := range s[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
