package preload

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// SocketWatch watches a running preloader's socket file for an external
// removal (an operator or another process deleting the Unix socket out from
// under the server), grounded on the teacher's MangleWatcher event-loop
// convention (internal/core/mangle_watcher.go): an fsnotify.Watcher whose
// Events/Errors channels feed a select loop, generalized from file-content
// repair to socket-lifecycle cleanup.
type SocketWatch struct {
	watcher *fsnotify.Watcher
	removed chan struct{}
}

// NewSocketWatch starts watching the directory containing socketPath.
func NewSocketWatch(socketPath string) (*SocketWatch, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(socketPath)); err != nil {
		w.Close()
		return nil, err
	}
	sw := &SocketWatch{watcher: w, removed: make(chan struct{})}
	go sw.run(socketPath)
	return sw, nil
}

func (sw *SocketWatch) run(socketPath string) {
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Name == socketPath && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				close(sw.removed)
				return
			}
		case _, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Removed fires once when the watched socket file disappears, letting
// Server.Serve shut down instead of spinning against a dead listener.
func (sw *SocketWatch) Removed() <-chan struct{} {
	return sw.removed
}

// Stop releases the underlying fsnotify watcher.
func (sw *SocketWatch) Stop() {
	sw.watcher.Close()
}
