/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/Comcast/sweep/crew"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reconsults source files into a session when they change.
// A change that arrives while the session has an open query waits
// until the query is gone.
type Watcher struct {
	Session *crew.Session
	Logger  *zap.Logger

	// Debounce is how long a file must be quiet before it is
	// reconsulted.
	Debounce time.Duration

	// Reloaded, if not nil, is called after each reconsult
	// attempt.
	Reloaded func(file string, err error)

	watcher *fsnotify.Watcher
	files   map[string]bool

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher watches the given files.  The directories holding the
// files are what is actually watched, so editors that replace files
// are handled.
func NewWatcher(s *crew.Session, files []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		Session:  s,
		Logger:   zap.NewNop(),
		Debounce: 100 * time.Millisecond,
		watcher:  fw,
		files:    make(map[string]bool, len(files)),
		pending:  make(map[string]time.Time),
	}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run handles events until ctx is done.  It closes the underlying
// watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.files[name] {
				continue
			}
			w.Logger.Debug("source changed", zap.String("file", name), zap.String("op", event.Op.String()))
			w.mu.Lock()
			w.pending[name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			w.flush()
		}
	}
}

// flush reconsults the files that have been quiet long enough.
func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	for file, at := range w.pending {
		if now.Sub(at) < w.Debounce {
			continue
		}
		done, err := w.Session.Reconsult(file)
		if !done {
			w.Logger.Debug("reconsult deferred: query open", zap.String("file", file))
			continue
		}
		delete(w.pending, file)
		if err != nil {
			w.Logger.Warn("reconsult", zap.String("file", file), zap.Error(err))
		} else {
			w.Logger.Info("reconsulted", zap.String("file", file))
		}
		if w.Reloaded != nil {
			w.Reloaded(file, err)
		}
	}
}
