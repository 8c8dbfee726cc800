package director

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ivlev/sprite2video/internal/analyzer"
	"github.com/ivlev/sprite2video/internal/document"
	"github.com/ivlev/sprite2video/internal/model"
	"github.com/ivlev/sprite2video/internal/source"
)

var (
	ErrInvalidScript = errors.New("invalid scene script")
	ErrUnknownAction = errors.New("unknown action")
)

// Director turns scene scripts into scenes.
type Director struct {
	// Dir resolves relative paths in scripts.
	Dir    string
	Logger *zap.Logger
}

func NewDirector(dir string, logger *zap.Logger) *Director {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Director{Dir: dir, Logger: logger}
}

// Load reads the script at path and builds its scene, resolving paths
// against the script's directory.
func Load(path string, logger *zap.Logger) (*model.Scene, error) {
	script, err := ReadScript(path)
	if err != nil {
		return nil, err
	}
	return NewDirector(filepath.Dir(path), logger).Build(script)
}

// Build loads every file the script references and assembles the scene.
func (d *Director) Build(script *Script) (*model.Scene, error) {
	scene := model.NewScene(script.Name)
	if script.Duration != 0 {
		scene.DurationSec = script.Duration
	}

	if script.Background != "" {
		bg, err := source.LoadBackground(d.path(script.Background), script.Page, script.DPI)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		scene.Background = bg
	}

	for i, as := range script.Actors {
		actor, err := d.actor(as)
		if err != nil {
			return nil, fmt.Errorf("actor %d: %w", i, err)
		}
		schedule, err := d.schedule(actor, as.Schedule)
		if err != nil {
			return nil, fmt.Errorf("actor %d (%s): %w", i, actor.Name, err)
		}
		scene.AddActor(actor, as.At[0], as.At[1], schedule...)
		d.Logger.Debug("placed actor",
			zap.Int("index", i), zap.String("actor", actor.Name), zap.Int("actions", len(actor.Actions)))
	}

	if err := d.camera(&scene.Camera, script.Camera); err != nil {
		return nil, err
	}

	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return scene, nil
}

func (d *Director) actor(as ActorScript) (model.Actor, error) {
	switch {
	case as.Actor != "" && as.Sheet != nil:
		return model.Actor{}, fmt.Errorf("both actor and sheet given: %w", ErrInvalidScript)
	case as.Actor != "":
		return document.LoadActor(d.path(as.Actor))
	case as.Sheet != nil:
		return d.sheetActor(as.Sheet)
	default:
		return model.Actor{}, fmt.Errorf("neither actor nor sheet given: %w", ErrInvalidScript)
	}
}

func (d *Director) sheetActor(sh *SheetScript) (model.Actor, error) {
	img, err := source.LoadBackground(d.path(sh.Path), 0, 0)
	if err != nil {
		return model.Actor{}, err
	}

	var sprites []model.Sprite
	if sh.Grid != nil {
		if sh.Grid[0] <= 0 || sh.Grid[1] <= 0 {
			return model.Actor{}, fmt.Errorf("grid %v: %w", *sh.Grid, ErrInvalidScript)
		}
		for _, s := range analyzer.Grid(img, sh.Grid[0], sh.Grid[1]) {
			sprites = append(sprites, s)
		}
	} else {
		det, err := analyzer.NewDetector(sh.Detector)
		if err != nil {
			return model.Actor{}, err
		}
		cut, err := analyzer.Slice(img, det)
		if err != nil {
			return model.Actor{}, err
		}
		for _, s := range cut {
			sprites = append(sprites, s)
		}
	}
	d.Logger.Debug("sliced sheet", zap.String("path", sh.Path), zap.Int("sprites", len(sprites)))

	frameDur := sh.FrameDuration
	if frameDur == 0 {
		frameDur = DefaultFrameDuration
	}
	action := model.Action{Name: sh.Action}
	if action.Name == "" {
		action.Name = DefaultSheetAction
	}
	for _, s := range sprites {
		action.Components = append(action.Components, model.ActionComponent{
			Sprite:      s,
			DurationSec: frameDur,
			XOffset:     sh.Step[0],
			YOffset:     sh.Step[1],
		})
	}

	name := sh.Name
	if name == "" {
		name = filepath.Base(sh.Path)
	}
	return model.Actor{Name: name, Actions: []model.Action{action}}, nil
}

func (d *Director) schedule(actor model.Actor, entries []ScheduleScript) ([]model.ScheduledAction, error) {
	var out []model.ScheduledAction
	for _, e := range entries {
		action, ok := actor.FindAction(e.Action)
		if !ok {
			return nil, fmt.Errorf("%q: %w", e.Action, ErrUnknownAction)
		}
		dur := e.Duration
		if dur == 0 {
			dur = naturalDuration(action)
		}
		out = append(out, model.ScheduledAction{
			Action:         action,
			DurationSec:    dur,
			StartOffsetSec: e.Offset,
			IsVisible:      !e.Hidden,
		})
	}
	return out, nil
}

func naturalDuration(a model.Action) float64 {
	var total float64
	for _, c := range a.Components {
		total += c.DurationSec
	}
	return total
}

func (d *Director) camera(cam *model.Camera, cs CameraScript) error {
	if cs.Width != 0 {
		cam.Width = cs.Width
	}
	if cs.Height != 0 {
		cam.Height = cs.Height
	}
	cam.StartX, cam.StartY = cs.Start[0], cs.Start[1]
	for i, m := range cs.Moves {
		dur := m.Duration
		if dur == 0 {
			dur = model.DefaultMoveDuration
		}
		switch {
		case m.Follow == nil:
			cam.Moves = append(cam.Moves, model.Pan(m.X, m.Y, dur))
		case *m.Follow < 0:
			return fmt.Errorf("camera move %d: follow %d: %w", i, *m.Follow, ErrInvalidScript)
		default:
			cam.Moves = append(cam.Moves, model.Follow(*m.Follow, dur))
		}
	}
	return nil
}

func (d *Director) path(p string) string {
	if filepath.IsAbs(p) || d.Dir == "" {
		return p
	}
	return filepath.Join(d.Dir, p)
}
