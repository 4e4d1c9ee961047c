package csvsource

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long the data files must be quiet before a reload.
const DefaultSettleDelay = 500 * time.Millisecond

// Watcher reloads the data set when the local data files change. A burst of
// writes (an editor save, a git pull) collapses into one reload.
type Watcher struct {
	dir      string
	names    map[string]bool
	delay    time.Duration
	onChange func(ctx context.Context)
	logger   *zap.Logger
	watcher  *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches names inside dir and calls onChange after the files have
// settled for delay.
func NewWatcher(dir string, names []string, delay time.Duration, onChange func(ctx context.Context), logger *zap.Logger) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, eris.Wrapf(err, "watch %s", dir)
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			set[n] = true
		}
	}

	return &Watcher{
		dir:      dir,
		names:    set,
		delay:    delay,
		onChange: onChange,
		logger:   logger.Named("watcher"),
		watcher:  fw,
	}, nil
}

// Run processes events until ctx is done, then releases the watch.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimer()

	w.logger.Info("watching data files", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !w.names[filepath.Base(event.Name)] {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	w.logger.Debug("data file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		if ctx.Err() != nil {
			return
		}
		w.logger.Info("reloading data")
		w.onChange(ctx)
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
