// Package watch reports edits to scene inputs so a scene can be rendered
// again after each save.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last event of a burst.
const DefaultDebounce = 150 * time.Millisecond

// InputExts are the file types reported for watched directories.
var InputExts = []string{".yaml", ".yml", ".json", ".png", ".jpg", ".jpeg", ".pdf"}

type Watcher struct {
	watcher  *fsnotify.Watcher
	Events   chan string
	Errors   chan error
	debounce time.Duration
	files    map[string]bool
	dirs     map[string]bool
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewWatcher watches files and directories. A watched file reports only
// itself; a watched directory reports any input file inside it. Bursts of
// events on one file are reported once, debounce after the last of them.
func NewWatcher(debounce time.Duration, paths ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher := &Watcher{
		watcher:  w,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		debounce: debounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, p := range paths {
		p = filepath.Clean(p)
		fi, err := os.Stat(p)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		dir := p
		if fi.IsDir() {
			watcher.dirs[p] = true
		} else {
			// Editors often replace files on save, so watch the parent.
			watcher.files[p] = true
			dir = filepath.Dir(p)
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.match(event.Name) {
				continue
			}
			pending[filepath.Clean(event.Name)] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			for name := range pending {
				select {
				case w.Events <- name:
				case <-w.closeCh:
					return
				}
			}
			clear(pending)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) match(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range InputExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Loop calls onChange for every reported path until ctx is done or the
// watcher is closed. Watcher errors are logged and do not stop the loop.
func Loop(ctx context.Context, w *Watcher, logger *zap.Logger, onChange func(path string)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			logger.Debug("input changed", zap.String("path", path))
			onChange(path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
