package model

import (
	"errors"
	"fmt"
	"image"
)

const (
	DefaultFPS           = 60
	DefaultSceneDuration = 5.0
	DefaultCameraWidth   = 816
	DefaultCameraHeight  = 624
	DefaultMoveDuration  = 1.0

	// MaxTimeSec bounds every duration and start offset in a scene.
	MaxTimeSec = 24 * 60 * 60

	// NoActor marks a camera move that is not linked to a scene actor.
	NoActor = -1
)

var (
	ErrInvalidTiming   = errors.New("invalid timing")
	ErrInvalidActorRef = errors.New("invalid actor reference")
	ErrInvalidCamera   = errors.New("invalid camera")
)

// Sprite is a raster image. Sprites are never mutated once loaded, so
// snapshots share them.
type Sprite = image.Image

type Direction string

const (
	DirectionLeft  Direction = "Left"
	DirectionRight Direction = "Right"
	DirectionUp    Direction = "Up"
	DirectionDown  Direction = "Down"
)

// ActionComponent is one linear motion-and-pose segment.
type ActionComponent struct {
	Sprite      Sprite
	DurationSec float64
	XOffset     int
	YOffset     int

	// Editor metadata, not used by rendering.
	MovementSpeed *int
	Direction     *Direction
}

type Action struct {
	Name       string
	Components []ActionComponent
}

type Actor struct {
	Name    string
	Actions []Action
}

// ScheduledAction places an action on an actor timeline.
type ScheduledAction struct {
	Action         Action
	DurationSec    float64
	StartOffsetSec float64
	IsVisible      bool
}

// SceneActor is an actor placed into a scene. Actor indexes Scene.Cast.
type SceneActor struct {
	Actor            int
	StartX           int
	StartY           int
	ScheduledActions []ScheduledAction
}

// CameraMove is either a relative pan by (X, Y) or, when LinkedActor is
// not NoActor, a follow of Scene.Actors[LinkedActor].
type CameraMove struct {
	X           int
	Y           int
	LinkedActor int
	DurationSec float64
}

func Pan(x, y int, durationSec float64) CameraMove {
	return CameraMove{X: x, Y: y, LinkedActor: NoActor, DurationSec: durationSec}
}

func Follow(actor int, durationSec float64) CameraMove {
	return CameraMove{LinkedActor: actor, DurationSec: durationSec}
}

func (m CameraMove) Linked() bool {
	return m.LinkedActor != NoActor
}

type Camera struct {
	Width  int
	Height int
	StartX int
	StartY int
	Moves  []CameraMove
}

func DefaultCamera() Camera {
	return Camera{Width: DefaultCameraWidth, Height: DefaultCameraHeight}
}

type Scene struct {
	Name        string
	Background  image.Image
	DurationSec float64
	Cast        []Actor
	// Actors are in paint order, the first one is drawn on top.
	Actors []SceneActor
	Camera Camera
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:        name,
		DurationSec: DefaultSceneDuration,
		Camera:      DefaultCamera(),
	}
}

// AddActor appends actor to the cast and places it at (x, y). It returns
// the index of the new scene actor.
func (s *Scene) AddActor(actor Actor, x, y int, schedule ...ScheduledAction) int {
	s.Cast = append(s.Cast, actor)
	s.Actors = append(s.Actors, SceneActor{
		Actor:            len(s.Cast) - 1,
		StartX:           x,
		StartY:           y,
		ScheduledActions: schedule,
	})
	return len(s.Actors) - 1
}

// FindAction looks an action up by name.
func (a Actor) FindAction(name string) (Action, bool) {
	for _, act := range a.Actions {
		if act.Name == name {
			return act, true
		}
	}
	return Action{}, false
}

// Validate checks the references and timings the renderer relies on.
func (s *Scene) Validate() error {
	if !validTime(s.DurationSec) {
		return fmt.Errorf("scene %q duration %.3f: %w", s.Name, s.DurationSec, ErrInvalidTiming)
	}
	for i, sa := range s.Actors {
		if sa.Actor < 0 || sa.Actor >= len(s.Cast) {
			return fmt.Errorf("scene actor %d references cast %d of %d: %w", i, sa.Actor, len(s.Cast), ErrInvalidActorRef)
		}
		for j, sched := range sa.ScheduledActions {
			if !validTime(sched.DurationSec) || !validTime(sched.StartOffsetSec) {
				return fmt.Errorf("scene actor %d, scheduled action %d (%s): %w", i, j, sched.Action.Name, ErrInvalidTiming)
			}
			for k, comp := range sched.Action.Components {
				if !validTime(comp.DurationSec) {
					return fmt.Errorf("action %s component %d: %w", sched.Action.Name, k, ErrInvalidTiming)
				}
			}
		}
	}
	if s.Camera.Width <= 0 || s.Camera.Height <= 0 {
		return fmt.Errorf("camera %dx%d: %w", s.Camera.Width, s.Camera.Height, ErrInvalidCamera)
	}
	for i, m := range s.Camera.Moves {
		if !validTime(m.DurationSec) {
			return fmt.Errorf("camera move %d: %w", i, ErrInvalidTiming)
		}
		if m.Linked() && (m.LinkedActor < 0 || m.LinkedActor >= len(s.Actors)) {
			return fmt.Errorf("camera move %d follows actor %d of %d: %w", i, m.LinkedActor, len(s.Actors), ErrInvalidActorRef)
		}
	}
	return nil
}

// validTime reports whether sec is a finite time in [0, MaxTimeSec].
func validTime(sec float64) bool {
	return sec >= 0 && sec <= MaxTimeSec
}

// Clone returns a deep copy of the scene structure. Raster data is shared.
func (s *Scene) Clone() *Scene {
	c := *s
	if s.Cast != nil {
		c.Cast = make([]Actor, len(s.Cast))
		for i, a := range s.Cast {
			c.Cast[i] = a.Clone()
		}
	}
	if s.Actors != nil {
		c.Actors = make([]SceneActor, len(s.Actors))
		for i, sa := range s.Actors {
			c.Actors[i] = sa.Clone()
		}
	}
	if s.Camera.Moves != nil {
		c.Camera.Moves = append([]CameraMove{}, s.Camera.Moves...)
	}
	return &c
}

func (a Actor) Clone() Actor {
	c := Actor{Name: a.Name}
	if a.Actions != nil {
		c.Actions = make([]Action, len(a.Actions))
		for i, act := range a.Actions {
			c.Actions[i] = act.Clone()
		}
	}
	return c
}

func (a Action) Clone() Action {
	c := Action{Name: a.Name}
	if a.Components != nil {
		c.Components = make([]ActionComponent, len(a.Components))
		for i, comp := range a.Components {
			c.Components[i] = comp.clone()
		}
	}
	return c
}

func (c ActionComponent) clone() ActionComponent {
	out := c
	if c.MovementSpeed != nil {
		v := *c.MovementSpeed
		out.MovementSpeed = &v
	}
	if c.Direction != nil {
		d := *c.Direction
		out.Direction = &d
	}
	return out
}

func (sa SceneActor) Clone() SceneActor {
	c := sa
	if sa.ScheduledActions != nil {
		c.ScheduledActions = make([]ScheduledAction, len(sa.ScheduledActions))
		for i, sched := range sa.ScheduledActions {
			sched.Action = sched.Action.Clone()
			c.ScheduledActions[i] = sched
		}
	}
	return c
}
