// Package watch wakes the polling waiter early when the response record
// changes on disk. The waiter is correct with polling alone; the watcher
// only shortens the latency between a responder's write and the waiter
// noticing it.
package watch

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a bridge directory and signals whenever the response
// record is created or rewritten.
type Watcher struct {
	fsw    *fsnotify.Watcher
	wake   chan struct{}
	stopCh chan struct{}
}

// New creates a Watcher for the given bridge directory. The directory must
// exist before watching can start.
func New(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Wake returns a channel that receives a signal when the response record
// changes. Signals are coalesced: a burst of writes produces at least one
// wake, not one per write.
func (w *Watcher) Wake() <-chan struct{} {
	return w.wake
}

// Close stops watching. The wake channel stops receiving after Close.
func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != "response.json" {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.wake <- struct{}{}:
			default:
			}
		case _, ok := <-w.fsw.Errors:
			// Watch errors degrade to plain polling; nothing to do here.
			if !ok {
				return
			}
		}
	}
}
