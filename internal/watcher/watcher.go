// Package watcher provides file system monitoring for continuous
// normalization: it watches a UFO package and re-runs an incremental
// normalization whenever files inside it change. Change bursts (a font
// editor saving dozens of GLIFs) are debounced into a single run. The
// normalization itself only rewrites files whose content actually changed,
// so the events produced by a run converge instead of re-triggering work
// forever.
package watcher

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ownFilePrefix marks the normalizer's own scratch files (rename
// placeholders and journals). Events for them are never worth a run.
const ownFilePrefix = "org.unifiedfontobject.normalizer."

// Config contains watcher settings.
type Config struct {
	// Debounce is how long the file system must stay quiet before a run
	// starts (default: 2 seconds).
	Debounce time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Debounce: 2 * time.Second}
}

// Handler is called once per debounced change burst to re-normalize the
// package. A returned error is reported but does not stop the watch.
type Handler func() error

// ErrorReporter receives watch and normalization errors.
type ErrorReporter func(err error)

// Watcher monitors a UFO package for changes.
type Watcher struct {
	ufoPath   string
	config    Config
	handler   Handler
	reportErr ErrorReporter
	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup

	mu   sync.Mutex
	runs int
}

// New creates a Watcher for the given UFO package. handler runs after each
// debounced change burst; reportErr may be nil.
func New(ufoPath string, config Config, handler Handler, reportErr ErrorReporter) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}
	if reportErr == nil {
		reportErr = func(error) {}
	}
	return &Watcher{
		ufoPath:   ufoPath,
		config:    config,
		handler:   handler,
		reportErr: reportErr,
		done:      make(chan struct{}),
	}
}

// Start begins watching. Every directory of the package is registered;
// directories created later (new layers) are picked up from their create
// events. The watcher runs until Stop is called.
func (w *Watcher) Start() error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fsWatcher
	if err := w.addDirectories(w.ufoPath); err != nil {
		fsWatcher.Close()
		return err
	}
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() {
	close(w.done)
	w.wg.Wait()
	w.fsWatcher.Close()
}

// Runs returns how many normalization runs the watcher has triggered.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// addDirectories registers root and every directory below it.
func (w *Watcher) addDirectories(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

// loop is the event loop: collect relevant events, reset the debounce
// timer on each, and run the handler once the package has stayed quiet for
// the debounce interval.
func (w *Watcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// A new layer directory must be watched too. Add fails
				// harmlessly for plain files.
				w.fsWatcher.Add(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.config.Debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.mu.Lock()
			w.runs++
			w.mu.Unlock()
			if err := w.handler(); err != nil {
				w.reportErr(err)
			}
			w.drain()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportErr(err)
		}
	}
}

// relevant filters out events that must not trigger a run: chmods and the
// normalizer's own scratch files.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !strings.HasPrefix(filepath.Base(event.Name), ownFilePrefix)
}

// drain discards events already queued when a run finishes. Most of them
// are echoes of the run's own writes; anything newer arrives afterwards
// and schedules the next run normally.
func (w *Watcher) drain() {
	for {
		select {
		case _, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
