package renderer

import "github.com/ivlev/sprite2video/internal/model"

// ActionTrack is an action expanded to frames: per-frame motion deltas and
// the sprite shown on each frame.
type ActionTrack struct {
	DX      []int
	DY      []int
	Sprites []model.Sprite
}

func (t ActionTrack) Len() int {
	return len(t.DX)
}

// SampleAction expands the components of action into per-frame deltas at fps.
// Each component lasts floor(duration*fps) frames and moves exactly by its
// offsets. An action without components yields an empty track.
func SampleAction(action model.Action, fps int) ActionTrack {
	var track ActionTrack
	for _, comp := range action.Components {
		n := FrameCount(comp.DurationSec, fps)
		if n == 0 {
			continue
		}
		track.DX = append(track.DX, linearSteps(comp.XOffset, n)...)
		track.DY = append(track.DY, linearSteps(comp.YOffset, n)...)
		for i := 0; i < n; i++ {
			track.Sprites = append(track.Sprites, comp.Sprite)
		}
	}
	return track
}

// window plays the track in a loop starting offset frames in and returns span
// frames. An empty track plays as no motion and no sprite.
func (t ActionTrack) window(offset, span int) (dx, dy []int, sprites []model.Sprite) {
	dx = make([]int, span)
	dy = make([]int, span)
	sprites = make([]model.Sprite, span)
	n := t.Len()
	if n == 0 {
		return dx, dy, sprites
	}
	for i := 0; i < span; i++ {
		j := (offset + i) % n
		dx[i] = t.DX[j]
		dy[i] = t.DY[j]
		sprites[i] = t.Sprites[j]
	}
	return dx, dy, sprites
}
