// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch turns external changes in folders that panels are viewing
// into refresh events, the same signal an operation emits when it finishes.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/metrics"
)

const (
	DefaultDebounce = 100 * time.Millisecond
	// engine temp files come and go during every copy
	ignoredPrefix = ".dualpane-"
)

// 📣 Publisher receives the folders that changed
type Publisher interface {
	PublishRefresh(paths []string)
}

// Options configures a Watcher
type Options struct {
	Resolver *fspath.Resolver
	Debounce time.Duration
}

type watched struct {
	path string
	refs int
}

// 👀 Watcher observes a reference counted set of folders
type Watcher struct {
	resolver *fspath.Resolver
	debounce time.Duration
	pub      Publisher
	fsw      *fsnotify.Watcher
	logger   zerolog.Logger

	mu      sync.Mutex
	dirs    map[string]*watched
	pending map[string]string
	timer   *time.Timer
	closed  bool

	done chan struct{}
}

// New starts a watcher that publishes to pub
func New(ctx context.Context, pub Publisher, opts Options) (*Watcher, error) {
	if opts.Resolver == nil {
		opts.Resolver = fspath.NewHost()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		resolver: opts.Resolver,
		debounce: opts.Debounce,
		pub:      pub,
		fsw:      fsw,
		logger:   zerolog.Ctx(ctx).With().Str("component", "watch").Logger(),
		dirs:     map[string]*watched{},
		pending:  map[string]string{},
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch starts observing path, or adds a reference if it is already observed
func (w *Watcher) Watch(path string) error {
	p, err := w.resolver.Normalize(path)
	if err != nil {
		return err
	}
	k := w.resolver.Key(p)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fserr.Invalid(fserr.CodeInvalidOperation, p, "watcher is closed")
	}
	if d, ok := w.dirs[k]; ok {
		d.refs++
		return nil
	}
	if err := w.fsw.Add(p); err != nil {
		return fserr.Wrap(err, p)
	}
	w.dirs[k] = &watched{path: p, refs: 1}
	metrics.SetWatchedDirectories(len(w.dirs))
	w.logger.Debug().Str("path", p).Msg("watching folder")
	return nil
}

// Unwatch drops one reference to path and stops observing it at zero
func (w *Watcher) Unwatch(path string) {
	p, err := w.resolver.Normalize(path)
	if err != nil {
		return
	}
	k := w.resolver.Key(p)

	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.dirs[k]
	if !ok {
		return
	}
	d.refs--
	if d.refs > 0 {
		return
	}
	delete(w.dirs, k)
	if !w.closed {
		// the folder may already be gone, which removes the watch by itself
		_ = w.fsw.Remove(d.path)
	}
	metrics.SetWatchedDirectories(len(w.dirs))
	w.logger.Debug().Str("path", p).Msg("stopped watching folder")
}

// Watched returns the observed folders in order
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.dirs))
	for _, d := range w.dirs {
		out = append(out, d.path)
	}
	w.resolver.Sort(out)
	return out
}

// Close stops the watcher; pending changes are dropped
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	metrics.SetWatchedDirectories(0)
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || strings.HasPrefix(filepath.Base(ev.Name), ignoredPrefix) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	// a child changed, or the watched folder itself was removed or renamed
	for _, candidate := range []string{filepath.Dir(ev.Name), ev.Name} {
		if d, ok := w.dirs[w.resolver.Key(candidate)]; ok {
			w.pending[w.resolver.Key(d.path)] = d.path
		}
	}
	if len(w.pending) == 0 || w.timer != nil {
		return
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	w.timer = nil
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for _, p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = map[string]string{}
	w.mu.Unlock()

	sort.Strings(paths)
	w.logger.Debug().Strs("paths", paths).Msg("external change")
	w.pub.PublishRefresh(paths)
}
