// Package preview plays rendered frames in a window.
package preview

import (
	"fmt"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Player is an ebiten game showing one frame per tick.
//
// Keys: space play/pause, left/right step one frame, home rewind, q or
// escape quit.
type Player struct {
	mu      sync.Mutex
	src     []*image.RGBA
	cache   []*ebiten.Image
	pos     int
	playing bool
	size    image.Point
}

func NewPlayer(frames []*image.RGBA) *Player {
	p := &Player{playing: true}
	p.Replace(frames)
	return p
}

// Replace swaps in a new frame sequence, e.g. after a re-render. The play
// position is kept when it is still in range. Safe to call from any
// goroutine.
func (p *Player) Replace(frames []*image.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, img := range p.cache {
		if img != nil {
			img.Deallocate()
		}
	}
	p.src = frames
	p.cache = make([]*ebiten.Image, len(frames))
	if p.pos >= len(frames) {
		p.pos = 0
	}
	if len(frames) > 0 {
		p.size = frames[0].Bounds().Size()
	}
}

func (p *Player) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.src)
	if n == 0 {
		return nil
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		p.playing = !p.playing
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		p.playing = false
		p.pos = (p.pos + 1) % n
		return nil
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		p.playing = false
		p.pos = (p.pos - 1 + n) % n
		return nil
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		p.pos = 0
	}

	if p.playing {
		p.pos = (p.pos + 1) % n
	}
	return nil
}

func (p *Player) Draw(screen *ebiten.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.src) == 0 {
		ebitenutil.DebugPrint(screen, "no frames")
		return
	}
	if p.cache[p.pos] == nil {
		p.cache[p.pos] = ebiten.NewImageFromImage(p.src[p.pos])
	}
	screen.DrawImage(p.cache[p.pos], nil)

	state := "playing"
	if !p.playing {
		state = "paused"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%d/%d %s", p.pos+1, len(p.src), state))
}

func (p *Player) Layout(outsideWidth, outsideHeight int) (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.size.X == 0 || p.size.Y == 0 {
		return outsideWidth, outsideHeight
	}
	return p.size.X, p.size.Y
}

// Run opens the preview window and blocks until it is closed. The window is
// scale times the frame size and ticks fps times a second.
func Run(p *Player, title string, fps, scale int) error {
	scale = max(1, scale)
	p.mu.Lock()
	size := p.size
	p.mu.Unlock()

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if size.X > 0 && size.Y > 0 {
		ebiten.SetWindowSize(size.X*scale, size.Y*scale)
	}
	ebiten.SetTPS(fps)

	if err := ebiten.RunGame(p); err != nil {
		return err
	}
	return nil
}
