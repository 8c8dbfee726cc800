package document

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ivlev/sprite2video/internal/model"
)

type sceneDoc struct {
	Name        string            `json:"name"`
	Background  *string           `json:"background"`
	DurationSec float64           `json:"duration_sec"`
	Cast        []actorDoc        `json:"cast,omitempty"`
	Actors      []json.RawMessage `json:"actors"`
	Camera      cameraDoc         `json:"camera"`
}

// sceneActorDoc.Actor is a cast index, or an embedded actor in older files.
type sceneActorDoc struct {
	Actor            json.RawMessage `json:"actor"`
	StartX           int             `json:"start_x"`
	StartY           int             `json:"start_y"`
	ScheduledActions []scheduledDoc  `json:"scheduled_actions"`
}

type scheduledDoc struct {
	Action         actionDoc `json:"action"`
	DurationSec    float64   `json:"duration_sec"`
	StartOffsetSec float64   `json:"start_offset_sec"`
	IsVisible      *bool     `json:"is_visible"`
}

// cameraMoveDoc.LinkedSA is null, a scene actor index, or an embedded scene
// actor in older files.
type cameraMoveDoc struct {
	X           int             `json:"x"`
	Y           int             `json:"y"`
	LinkedSA    json.RawMessage `json:"linked_sa"`
	DurationSec *float64        `json:"duration_sec"`
}

type cameraDoc struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	StartX int             `json:"start_x"`
	StartY int             `json:"start_y"`
	Moves  []cameraMoveDoc `json:"moves"`
}

var jsonNull = json.RawMessage("null")

func MarshalScene(s *model.Scene) ([]byte, error) {
	doc := sceneDoc{
		Name:        s.Name,
		DurationSec: s.DurationSec,
		Cast:        make([]actorDoc, len(s.Cast)),
		Actors:      make([]json.RawMessage, len(s.Actors)),
		Camera: cameraDoc{
			Width:  s.Camera.Width,
			Height: s.Camera.Height,
			StartX: s.Camera.StartX,
			StartY: s.Camera.StartY,
			Moves:  make([]cameraMoveDoc, len(s.Camera.Moves)),
		},
	}

	if s.Background != nil {
		bg, err := encodeImage(s.Background)
		if err != nil {
			return nil, fmt.Errorf("scene %q background: %w", s.Name, err)
		}
		doc.Background = &bg
	}

	for i, a := range s.Cast {
		ad, err := toActorDoc(a)
		if err != nil {
			return nil, err
		}
		doc.Cast[i] = ad
	}

	for i, sa := range s.Actors {
		sad := sceneActorDoc{
			Actor:            index(sa.Actor),
			StartX:           sa.StartX,
			StartY:           sa.StartY,
			ScheduledActions: make([]scheduledDoc, len(sa.ScheduledActions)),
		}
		for j, sched := range sa.ScheduledActions {
			ad, err := toActionDoc(sched.Action)
			if err != nil {
				return nil, fmt.Errorf("scene actor %d: %w", i, err)
			}
			visible := sched.IsVisible
			sad.ScheduledActions[j] = scheduledDoc{
				Action:         ad,
				DurationSec:    sched.DurationSec,
				StartOffsetSec: sched.StartOffsetSec,
				IsVisible:      &visible,
			}
		}
		raw, err := json.Marshal(sad)
		if err != nil {
			return nil, err
		}
		doc.Actors[i] = raw
	}

	for i, m := range s.Camera.Moves {
		d := m.DurationSec
		md := cameraMoveDoc{X: m.X, Y: m.Y, LinkedSA: jsonNull, DurationSec: &d}
		if m.Linked() {
			md.LinkedSA = index(m.LinkedActor)
		}
		doc.Camera.Moves[i] = md
	}

	return json.MarshalIndent(doc, "", "  ")
}

func index(i int) json.RawMessage {
	return json.RawMessage(strconv.Itoa(i))
}

func UnmarshalScene(data []byte) (*model.Scene, error) {
	if err := Validate(KindScene, data); err != nil {
		return nil, err
	}
	doc := sceneDoc{
		DurationSec: model.DefaultSceneDuration,
		Camera:      cameraDoc{Width: model.DefaultCameraWidth, Height: model.DefaultCameraHeight},
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidDocument)
	}

	s := &model.Scene{
		Name:        doc.Name,
		DurationSec: doc.DurationSec,
		Camera: model.Camera{
			Width:  doc.Camera.Width,
			Height: doc.Camera.Height,
			StartX: doc.Camera.StartX,
			StartY: doc.Camera.StartY,
		},
	}

	if doc.Background != nil && *doc.Background != "" {
		bg, err := decodeImage(*doc.Background)
		if err != nil {
			return nil, fmt.Errorf("scene %q background: %w", doc.Name, err)
		}
		s.Background = bg
	}

	for _, ad := range doc.Cast {
		a, err := ad.model()
		if err != nil {
			return nil, err
		}
		s.Cast = append(s.Cast, a)
	}

	for i, raw := range doc.Actors {
		sa, err := decodeSceneActor(s, raw)
		if err != nil {
			return nil, fmt.Errorf("scene actor %d: %w", i, err)
		}
		s.Actors = append(s.Actors, sa)
	}

	var prints []uint64
	for i, md := range doc.Camera.Moves {
		m := model.Pan(md.X, md.Y, model.DefaultMoveDuration)
		if md.DurationSec != nil {
			m.DurationSec = *md.DurationSec
		}
		link, err := linkedActor(md.LinkedSA, doc.Actors, &prints)
		if err != nil {
			return nil, fmt.Errorf("camera move %d: %w", i, err)
		}
		m.LinkedActor = link
		s.Camera.Moves = append(s.Camera.Moves, m)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeSceneActor appends an embedded actor to the cast as a new entry.
func decodeSceneActor(s *model.Scene, raw json.RawMessage) (model.SceneActor, error) {
	var d sceneActorDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return model.SceneActor{}, fmt.Errorf("%v: %w", err, ErrInvalidDocument)
	}

	sa := model.SceneActor{StartX: d.StartX, StartY: d.StartY}
	if idx, ok := asIndex(d.Actor); ok {
		sa.Actor = idx
	} else {
		var ad actorDoc
		if err := json.Unmarshal(d.Actor, &ad); err != nil {
			return model.SceneActor{}, fmt.Errorf("%v: %w", err, ErrInvalidDocument)
		}
		a, err := ad.model()
		if err != nil {
			return model.SceneActor{}, err
		}
		s.Cast = append(s.Cast, a)
		sa.Actor = len(s.Cast) - 1
	}

	for _, sd := range d.ScheduledActions {
		act, err := sd.Action.model()
		if err != nil {
			return model.SceneActor{}, err
		}
		visible := sd.IsVisible == nil || *sd.IsVisible
		sa.ScheduledActions = append(sa.ScheduledActions, model.ScheduledAction{
			Action:         act,
			DurationSec:    sd.DurationSec,
			StartOffsetSec: sd.StartOffsetSec,
			IsVisible:      visible,
		})
	}
	return sa, nil
}

// linkedActor resolves a camera link. An embedded scene actor is matched to
// the first scene actor with the same content.
func linkedActor(raw json.RawMessage, actors []json.RawMessage, prints *[]uint64) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return model.NoActor, nil
	}
	if idx, ok := asIndex(raw); ok {
		return idx, nil
	}

	want, err := Fingerprint(raw)
	if err != nil {
		return 0, err
	}
	if *prints == nil {
		*prints = make([]uint64, len(actors))
		for i, a := range actors {
			if (*prints)[i], err = Fingerprint(a); err != nil {
				return 0, err
			}
		}
	}
	for i, p := range *prints {
		if p == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("embedded linked actor matches no scene actor: %w", model.ErrInvalidActorRef)
}

func asIndex(raw json.RawMessage) (int, bool) {
	var idx int
	if err := json.Unmarshal(raw, &idx); err != nil {
		return 0, false
	}
	return idx, true
}
