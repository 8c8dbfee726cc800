package system

import (
	"image"
	"sync"
)

// CanvasPool recycles *image.RGBA canvases by bounds so that compositing a
// long scene does not allocate a full background-sized canvas per frame.
type CanvasPool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

func NewCanvasPool() *CanvasPool {
	return &CanvasPool{pools: make(map[image.Rectangle]*sync.Pool)}
}

var globalPool = NewCanvasPool()

// GetCanvas returns a canvas with the given bounds from the shared pool. Its
// contents are undefined.
func GetCanvas(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutCanvas hands a canvas back to the shared pool.
func PutCanvas(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *CanvasPool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *CanvasPool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
