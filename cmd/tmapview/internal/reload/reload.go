package reload

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 100 * time.Millisecond

// Watcher calls a function after a file changes. The file's directory is
// watched rather than the file itself so that editors replacing the file
// on save are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(path string)
	log      zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// New starts watching path. onChange runs on the watcher goroutine.
func New(path string, debounce time.Duration, onChange func(path string), log zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reload: creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("reload: watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		log:      log.With().Str("component", "reload").Str("path", abs).Logger(),
		watcher:  fw,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.watch()
	return w, nil
}

// Close stops watching and waits for a running callback to return
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer
	defer debounce.Stop()

	pending := false
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug().Str("op", event.Op.String()).Msg("file changed")
			pending = true
			debounce.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")

		case <-debounce.C:
			if pending {
				pending = false
				w.onChange(w.path)
			}
		}
	}
}
