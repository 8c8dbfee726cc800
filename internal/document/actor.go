package document

import (
	"encoding/json"
	"fmt"

	"github.com/ivlev/sprite2video/internal/model"
)

type componentDoc struct {
	Sprite        string           `json:"sprite"`
	DurationSec   float64          `json:"duration_sec"`
	XOffset       int              `json:"x_offset"`
	YOffset       int              `json:"y_offset"`
	MovementSpeed *int             `json:"movement_speed"`
	Direction     *model.Direction `json:"direction"`
}

type actionDoc struct {
	Name       string         `json:"name"`
	Components []componentDoc `json:"components"`
}

type actorDoc struct {
	Name    string      `json:"name"`
	Actions []actionDoc `json:"actions"`
}

func MarshalActor(a model.Actor) ([]byte, error) {
	doc, err := toActorDoc(a)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

func UnmarshalActor(data []byte) (model.Actor, error) {
	if err := Validate(KindActor, data); err != nil {
		return model.Actor{}, err
	}
	var doc actorDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Actor{}, fmt.Errorf("%v: %w", err, ErrInvalidDocument)
	}
	return doc.model()
}

func toActorDoc(a model.Actor) (actorDoc, error) {
	doc := actorDoc{Name: a.Name, Actions: make([]actionDoc, len(a.Actions))}
	for i, act := range a.Actions {
		ad, err := toActionDoc(act)
		if err != nil {
			return actorDoc{}, fmt.Errorf("actor %q: %w", a.Name, err)
		}
		doc.Actions[i] = ad
	}
	return doc, nil
}

func toActionDoc(act model.Action) (actionDoc, error) {
	doc := actionDoc{Name: act.Name, Components: make([]componentDoc, len(act.Components))}
	for i, c := range act.Components {
		if c.Sprite == nil {
			return actionDoc{}, fmt.Errorf("action %q component %d has no sprite: %w", act.Name, i, ErrBadImage)
		}
		sprite, err := encodeImage(c.Sprite)
		if err != nil {
			return actionDoc{}, fmt.Errorf("action %q component %d: %w", act.Name, i, err)
		}
		doc.Components[i] = componentDoc{
			Sprite:        sprite,
			DurationSec:   c.DurationSec,
			XOffset:       c.XOffset,
			YOffset:       c.YOffset,
			MovementSpeed: c.MovementSpeed,
			Direction:     c.Direction,
		}
	}
	return doc, nil
}

func (d actorDoc) model() (model.Actor, error) {
	a := model.Actor{Name: d.Name}
	for _, ad := range d.Actions {
		act, err := ad.model()
		if err != nil {
			return model.Actor{}, fmt.Errorf("actor %q: %w", d.Name, err)
		}
		a.Actions = append(a.Actions, act)
	}
	return a, nil
}

func (d actionDoc) model() (model.Action, error) {
	act := model.Action{Name: d.Name}
	for i, cd := range d.Components {
		sprite, err := decodeImage(cd.Sprite)
		if err != nil {
			return model.Action{}, fmt.Errorf("action %q component %d: %w", d.Name, i, err)
		}
		act.Components = append(act.Components, model.ActionComponent{
			Sprite:        sprite,
			DurationSec:   cd.DurationSec,
			XOffset:       cd.XOffset,
			YOffset:       cd.YOffset,
			MovementSpeed: cd.MovementSpeed,
			Direction:     cd.Direction,
		})
	}
	return act, nil
}
