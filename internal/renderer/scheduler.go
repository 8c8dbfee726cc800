package renderer

import "github.com/ivlev/sprite2video/internal/model"

// ActorTrack holds the absolute position and sprite of a scene actor on every
// frame of a scene. A nil sprite means the actor is not drawn on that frame.
type ActorTrack struct {
	X       []int
	Y       []int
	Sprites []model.Sprite
}

func (t ActorTrack) Len() int {
	return len(t.X)
}

// ScheduleActor expands the schedule of sa into exactly nFrames frames.
//
// Slot boundaries are rounded on absolute scene time so that many short slots
// do not drift. A slot longer than its action loops it, starting
// StartOffsetSec into the loop. Once the schedule runs out the actor idles on
// its last position and sprite; an actor with no frames at all stays hidden at
// its start position.
func ScheduleActor(sa model.SceneActor, nFrames, fps int) ActorTrack {
	var (
		dx, dy  []int
		sprites []model.Sprite
	)
	samples := make(map[string]ActionTrack)

	frame, t := 0, 0.0
	for _, sched := range sa.ScheduledActions {
		if frame >= nFrames {
			break
		}

		sample, ok := samples[sched.Action.Name]
		if !ok {
			sample = SampleAction(sched.Action, fps)
			samples[sched.Action.Name] = sample
		}

		span := min(max(FrameCount(t+sched.DurationSec, fps)-frame, 0), nFrames-frame)
		offset := FrameCount(sched.StartOffsetSec, fps)

		sdx, sdy, ssprites := sample.window(offset, span)
		if !sched.IsVisible {
			ssprites = make([]model.Sprite, span)
		}
		dx = append(dx, sdx...)
		dy = append(dy, sdy...)
		sprites = append(sprites, ssprites...)

		frame += span
		t += sched.DurationSec
	}

	track := ActorTrack{
		X:       padInts(cumulative(dx, sa.StartX), nFrames, sa.StartX),
		Y:       padInts(cumulative(dy, sa.StartY), nFrames, sa.StartY),
		Sprites: padSprites(sprites, nFrames),
	}
	return track
}

func padSprites(s []model.Sprite, n int) []model.Sprite {
	n = max(n, 0)
	if len(s) >= n {
		return s[:n]
	}
	var last model.Sprite
	if len(s) > 0 {
		last = s[len(s)-1]
	}
	out := make([]model.Sprite, n)
	copy(out, s)
	for i := len(s); i < n; i++ {
		out[i] = last
	}
	return out
}
