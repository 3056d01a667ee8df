package tui

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// settle is how long a burst of file events must be quiet before a re-run.
const settle = 150 * time.Millisecond

// MsgSourceChanged reports that the watched file was written.
type MsgSourceChanged struct{}

// Watcher follows one source file. The parent directory is watched
// because editors often save by renaming a temp file over the original.
type Watcher struct {
	fs   *fsnotify.Watcher
	path string
}

// NewWatcher starts watching path.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{fs: fw, path: abs}, nil
}

// Next waits for the next change to the file. Events arriving within the
// settle window are folded into one message. It returns nil once the
// watcher is closed.
func (w *Watcher) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.fs.Events:
				if !ok {
					return nil
				}
				if !w.relevant(ev) {
					continue
				}
				w.drain()
				return MsgSourceChanged{}
			case err, ok := <-w.fs.Errors:
				if !ok {
					return nil
				}
				return MsgError(fmt.Errorf("watch %s: %w", w.path, err))
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) drain() {
	timer := time.NewTimer(settle)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-w.fs.Events:
			if !ok {
				return
			}
			timer.Reset(settle)
		case <-timer.C:
			return
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
