package renderer

import (
	"fmt"

	"github.com/ivlev/sprite2video/internal/model"
)

// CameraTrack is the camera center, in scene coordinates, on every frame.
type CameraTrack struct {
	X []int
	Y []int
}

func (t CameraTrack) Len() int {
	return len(t.X)
}

// ResolveCamera expands the camera moves into exactly nFrames centers.
// actors must hold the resolved tracks of the scene actors, in scene order,
// so that follow moves can copy them.
func ResolveCamera(cam model.Camera, actors []ActorTrack, nFrames, fps int) (CameraTrack, error) {
	var xs, ys []int
	x, y := cam.StartX, cam.StartY

	frame, t := 0, 0.0
	for i, move := range cam.Moves {
		if frame >= nFrames {
			break
		}
		span := max(FrameCount(t+move.DurationSec, fps)-frame, 0)

		var mx, my []int
		if move.Linked() {
			if move.LinkedActor < 0 || move.LinkedActor >= len(actors) {
				return CameraTrack{}, fmt.Errorf("camera move %d follows actor %d of %d: %w",
					i, move.LinkedActor, len(actors), model.ErrInvalidActorRef)
			}
			src := actors[move.LinkedActor]
			end := frame + span
			if end > src.Len() {
				end = src.Len()
			}
			if frame < end {
				mx = append(mx, src.X[frame:end]...)
				my = append(my, src.Y[frame:end]...)
			}
		} else {
			take := min(span, nFrames-frame)
			mx = shifted(linearPrefix(move.X, span, take), x)
			my = shifted(linearPrefix(move.Y, span, take), y)
		}

		if len(mx) > 0 {
			x, y = mx[len(mx)-1], my[len(my)-1]
		}
		xs = append(xs, mx...)
		ys = append(ys, my...)

		frame += span
		t += move.DurationSec
	}

	return CameraTrack{
		X: padInts(xs, nFrames, cam.StartX),
		Y: padInts(ys, nFrames, cam.StartY),
	}, nil
}

func shifted(nodes []int, by int) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n + by
	}
	return out
}
