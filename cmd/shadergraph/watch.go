package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func watchCmd(a *app) *cobra.Command {
	var outDir string
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <graph>",
		Short: "Recompile a graph file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = a.cfg.Output.Dir
			}
			if debounce == 0 {
				debounce = a.cfg.Watch.Debounce
			}
			path := args[0]
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rebuild := func() {
				start := time.Now()
				res, err := a.compile(ctx, path, a.cfg.Cache.Path)
				if err != nil {
					a.logger.Error("compile failed", "graph", path, "err", err)
					return
				}
				if err := writeResult(cmd.OutOrStdout(), path, outDir, res); err != nil {
					a.logger.Error("write failed", "graph", path, "err", err)
					return
				}
				a.logger.Info("compiled", "graph", path, "nodes", len(res.ActiveNodeIDs), "duration", time.Since(start))
			}

			w, err := newWatcher(path, rebuild,
				withDebounce(debounce),
				withOnError(func(err error) { a.logger.Warn("watch error", "err", err) }),
			)
			if err != nil {
				return err
			}
			rebuild()
			w.start()
			a.logger.Info("watching", "graph", path)

			<-ctx.Done()
			return w.stop()
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default: stdout)")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "delay between the last change and the rebuild")
	return cmd
}

// watcher calls onChange once a burst of writes to one file settles.
type watcher struct {
	path      string
	fsWatcher *fsnotify.Watcher

	debounce time.Duration
	timer    *time.Timer
	timerMu  sync.Mutex

	// runMu serializes onChange calls.
	runMu    sync.Mutex
	onChange func()
	onError  func(error)

	done chan struct{}
}

type watcherOption func(*watcher)

func withDebounce(d time.Duration) watcherOption {
	return func(w *watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func withOnError(fn func(error)) watcherOption {
	return func(w *watcher) {
		w.onError = fn
	}
}

// newWatcher watches the directory of path, since editors often replace a
// file instead of writing it in place.
func newWatcher(path string, onChange func(), opts ...watcherOption) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &watcher{
		path:      abs,
		fsWatcher: fsWatcher,
		debounce:  300 * time.Millisecond,
		onChange:  onChange,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return w, nil
}

func (w *watcher) start() {
	go w.loop()
}

// stop returns once an in-flight onChange has finished; none runs after.
func (w *watcher) stop() error {
	close(w.done)
	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
	w.runMu.Lock()
	w.runMu.Unlock() //nolint:staticcheck
	return w.fsWatcher.Close()
}

func (w *watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *watcher) fire() {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	w.onChange()
}
