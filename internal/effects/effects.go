package effects

import (
	"fmt"
	"strings"

	"github.com/ivlev/sprite2video/internal/config"
)

// Effect builds the ffmpeg video filter applied to a rendered frame sequence.
type Effect interface {
	GenerateFilter(params config.EncodeParams) string
}

// DefaultEffect upscales pixel art without smoothing, pads to even
// dimensions for yuv420p and applies the configured fades.
type DefaultEffect struct{}

func (e *DefaultEffect) GenerateFilter(p config.EncodeParams) string {
	var filters []string

	if p.Scale > 1 {
		filters = append(filters, fmt.Sprintf("scale=iw*%d:ih*%d:flags=neighbor", p.Scale, p.Scale))
	}
	filters = append(filters, "pad=ceil(iw/2)*2:ceil(ih/2)*2")

	fadeIn, fadeOut := clampFades(p.FadeIn, p.FadeOut, p.Duration)
	if fadeIn > 0 {
		filters = append(filters, fmt.Sprintf("fade=t=in:st=0:d=%.3f", fadeIn))
	}
	if fadeOut > 0 {
		filters = append(filters, fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", p.Duration-fadeOut, fadeOut))
	}

	return strings.Join(filters, ",")
}

// clampFades shrinks the fades proportionally so they never overlap.
func clampFades(in, out, duration float64) (float64, float64) {
	if duration <= 0 {
		return 0, 0
	}
	if total := in + out; total > duration {
		k := duration / total
		in, out = in*k, out*k
	}
	return in, out
}
