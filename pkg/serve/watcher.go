package serve

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce batches the burst of filesystem events an editor save or
// rsync produces into a single rebuild.
const reloadDebounce = 500 * time.Millisecond

// rulesWatcher reloads the server's collection when files in the rules
// directory change.
type rulesWatcher struct {
	server   *Server
	fsw      *fsnotify.Watcher
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newRulesWatcher(s *Server, dir string) (*rulesWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &rulesWatcher{
		server:   s,
		fsw:      fsw,
		debounce: reloadDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *rulesWatcher) loop() {
	defer close(w.doneCh)
	defer w.fsw.Close()

	// Timer starts stopped; only an event arms it.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.server.logger.Debug("rules directory changed",
				zap.String("path", ev.Name),
				zap.String("op", ev.Op.String()),
			)
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.server.logger.Warn("rules watcher error", zap.Error(err))
		case <-timer.C:
			w.server.reloadRules()
		case <-w.stopCh:
			return
		}
	}
}

func (w *rulesWatcher) stop() {
	close(w.stopCh)
	<-w.doneCh
}
