package layout

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/affectlab/gazeflow/internal/log"
)

// Watcher reloads a layout file whenever it changes on disk, so AOI
// geometry can be adjusted between trials without restarting the server.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching path and reloading l on writes. The parent
// directory is watched rather than the file itself so editors that
// replace the file (write temp + rename) are still caught.
func Watch(l *Layout, path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	target := filepath.Clean(path)

	go func() {
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := l.Reload(path); err != nil {
					log.Warn("layout reload failed", "path", path, "error", err)
					continue
				}
				log.Info("layout reloaded", "path", path, "blocks", l.BlockCount())
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Warn("layout watcher error", "error", err)
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
