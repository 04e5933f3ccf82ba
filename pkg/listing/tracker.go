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

package listing

import (
	"context"
	"sync"

	"github.com/walteh/dualpane/pkg/fserr"
)

// 🧷 Tracker makes sure only the newest listing request per panel is applied.
// Starting a new request cancels the context of the previous one for the same panel.
type Tracker struct {
	mu     sync.Mutex
	panels map[string]*slot
}

type slot struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{panels: make(map[string]*slot)}
}

// Ticket identifies one request issued for a panel
type Ticket struct {
	tracker *Tracker
	panel   string
	seq     uint64
	cancel  context.CancelFunc
}

// Begin registers a new request for panel and supersedes any in-flight one
func (t *Tracker) Begin(ctx context.Context, panel string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.panels[panel]
	if !ok {
		s = &slot{}
		t.panels[panel] = s
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	s.cancel = cancel

	return ctx, &Ticket{tracker: t, panel: panel, seq: s.seq, cancel: cancel}
}

// Current reports whether no newer request has been issued for the ticket's panel
func (tk *Ticket) Current() bool {
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	s, ok := tk.tracker.panels[tk.panel]
	return ok && s.seq == tk.seq
}

// Finish releases the ticket. A stale ticket yields a SUPERSEDED error
// so the caller discards its result instead of applying it.
func (tk *Ticket) Finish(path string) error {
	tk.cancel()

	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()

	s, ok := tk.tracker.panels[tk.panel]
	if !ok || s.seq != tk.seq {
		return fserr.New(fserr.KindCancelled, fserr.CodeSuperseded, path, "listing superseded by a newer request")
	}
	s.cancel = nil
	return nil
}

// Forget drops all state kept for panel
func (t *Tracker) Forget(panel string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.panels[panel]; ok && s.cancel != nil {
		s.cancel()
	}
	delete(t.panels, panel)
}
