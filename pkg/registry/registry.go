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

package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/metrics"
	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/status"
)

const (
	DefaultDoneGrace        = 3 * time.Second
	DefaultCancelledGrace   = 2 * time.Second
	DefaultSubscriberBuffer = 64
)

// 📋 Operation is a snapshot of one tracked job
type Operation struct {
	ID        string                 `json:"id"`
	Kind      status.Kind            `json:"kind"`
	Sources   []string               `json:"sources"`
	Target    string                 `json:"target,omitempty"`
	Status    status.Status          `json:"status"`
	Progress  status.Progress        `json:"progress"`
	Items     []operation.ItemResult `json:"items,omitempty"`
	Error     *fserr.Payload         `json:"error,omitempty"`
	StartedAt time.Time              `json:"startedAt"`
	EndedAt   *time.Time             `json:"endedAt,omitempty"`
}

// Failures returns the items that did not succeed
func (o Operation) Failures() []operation.ItemResult {
	return (&operation.Result{Items: o.Items}).Failures()
}

// Options configures a Registry
type Options struct {
	Resolver *fspath.Resolver
	// DoneGrace and CancelledGrace delay auto-dismissal; negative disables it.
	// Failed and partially succeeded operations stay until dismissed.
	DoneGrace        time.Duration
	CancelledGrace   time.Duration
	SubscriberBuffer int
}

type entry struct {
	op       Operation
	affected []string
	cancel   context.CancelFunc
	timer    *time.Timer
	done     chan struct{}
}

// 🗃️ Registry owns every operation from registration to dismissal and fans events out to subscribers.
// All mutations are serialized by one mutex; events are queued under it so order is preserved.
type Registry struct {
	mu      sync.Mutex
	opts    Options
	logger  zerolog.Logger
	ops     map[string]*entry
	order   []string
	used    map[string]struct{} // every id ever registered, dismissed ones included
	subs    map[uint64]*Subscription
	nextSub uint64
	closed  bool
}

// New creates a registry. The context's logger is kept for background timers.
func New(ctx context.Context, opts Options) *Registry {
	if opts.Resolver == nil {
		opts.Resolver = fspath.NewHost()
	}
	if opts.DoneGrace == 0 {
		opts.DoneGrace = DefaultDoneGrace
	}
	if opts.CancelledGrace == 0 {
		opts.CancelledGrace = DefaultCancelledGrace
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = DefaultSubscriberBuffer
	}
	return &Registry{
		opts:   opts,
		logger: zerolog.Ctx(ctx).With().Str("component", "registry").Logger(),
		ops:    make(map[string]*entry),
		used:   make(map[string]struct{}),
		subs:   make(map[uint64]*Subscription),
	}
}

// Register tracks a new running operation under a fresh id
func (r *Registry) Register(kind status.Kind, sources []string, target string, cancel context.CancelFunc) (string, error) {
	id := uuid.NewString()
	return id, r.RegisterWithID(id, kind, sources, target, cancel)
}

// RegisterWithID tracks a new running operation under a caller supplied id.
// An id is never reused, not even after its operation was dismissed.
func (r *Registry) RegisterWithID(id string, kind status.Kind, sources []string, target string, cancel context.CancelFunc) error {
	if id == "" {
		return fserr.Invalid(fserr.CodeInvalidOperation, "", "operation id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fserr.Invalid(fserr.CodeInvalidOperation, "", "registry is closed")
	}
	if _, ok := r.used[id]; ok {
		return fserr.New(fserr.KindInvalidOperation, fserr.CodeAlreadyExists, "", "operation %s already exists", id)
	}

	e := &entry{
		op: Operation{
			ID:        id,
			Kind:      kind,
			Sources:   append([]string(nil), sources...),
			Target:    target,
			Status:    status.StatusRunning,
			StartedAt: time.Now(),
		},
		affected: r.affectedPaths(kind, sources, target),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	r.ops[id] = e
	r.used[id] = struct{}{}
	r.order = append(r.order, id)

	metrics.RecordOperationStarted(kind.String())
	r.logger.Info().Str("operation_id", id).Str("kind", kind.String()).Int("sources", len(sources)).Msg("operation registered")

	r.publishLocked(Event{Name: EventStatus, OperationID: id, Payload: e.op, paths: e.affected})
	return nil
}

// UpdateProgress records a progress snapshot. Snapshots that go backwards,
// or arrive for unknown or terminal operations, are dropped.
func (r *Registry) UpdateProgress(id string, p status.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.ops[id]
	if !ok || e.op.Status.IsTerminal() || p.Before(e.op.Progress) {
		return
	}
	e.op.Progress = p

	r.publishLocked(Event{
		Name:        e.op.Kind.ProgressEvent(),
		OperationID: id,
		Payload:     newProgressPayload(id, p),
		progress:    true,
		paths:       e.affected,
	})
}

// Complete moves an operation to its terminal state. It is a no-op for terminal operations.
func (r *Registry) Complete(id string, res *operation.Result) error {
	if res == nil {
		return fserr.Invalid(fserr.CodeInvalidOperation, "", "nil result for operation %s", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.ops[id]
	if !ok {
		return fserr.New(fserr.KindNotFound, fserr.CodeNotFound, "", "operation %s not found", id)
	}
	if e.op.Status.IsTerminal() {
		return nil
	}

	now := time.Now()
	e.op.Status = res.Status
	if !res.Progress.Before(e.op.Progress) {
		e.op.Progress = res.Progress
	}
	e.op.Items = res.Items
	e.op.EndedAt = &now
	if res.Status == status.StatusFailed && res.Err != nil {
		payload := res.Err.Payload()
		e.op.Error = &payload
	}
	if e.cancel != nil {
		e.cancel()
	}
	close(e.done)

	kind := e.op.Kind.String()
	metrics.RecordOperationFinished(kind, res.Status.String(), now.Sub(e.op.StartedAt))
	if e.op.Kind != status.KindDelete {
		metrics.AddBytesTransferred(kind, e.op.Progress.BytesProcessed)
	}
	for _, f := range e.op.Failures() {
		metrics.RecordItemFailure(kind, f.Error.Code)
	}

	r.logger.Info().
		Str("operation_id", id).
		Str("kind", kind).
		Str("status", res.Status.String()).
		Int("failures", len(e.op.Failures())).
		Msg("operation finished")

	r.publishLocked(Event{Name: EventStatus, OperationID: id, Payload: e.op, paths: e.affected})
	// refresh is about folders, not the operation, so it carries no operation id
	r.publishLocked(Event{Name: EventRefresh, Payload: RefreshPayload{Paths: e.affected}, paths: e.affected})

	r.scheduleDismissLocked(e)
	return nil
}

// Cancel signals a running operation to stop. Cancelling a terminal operation is a no-op;
// an unknown id is NotFound.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.ops[id]
	if !ok {
		return fserr.New(fserr.KindNotFound, fserr.CodeNotFound, "", "operation %s not found", id)
	}
	if e.op.Status.IsTerminal() {
		return nil
	}
	if e.cancel != nil {
		e.cancel()
	}
	r.logger.Info().Str("operation_id", id).Msg("cancellation requested")
	return nil
}

// Get returns a snapshot of one operation
func (r *Registry) Get(id string) (Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.ops[id]
	if !ok {
		return Operation{}, fserr.New(fserr.KindNotFound, fserr.CodeNotFound, "", "operation %s not found", id)
	}
	return e.op, nil
}

// List returns snapshots ordered by creation time
func (r *Registry) List() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Operation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.ops[id].op)
	}
	return out
}

// HasRunning reports whether any operation is still running
func (r *Registry) HasRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.ops {
		if !e.op.Status.IsTerminal() {
			return true
		}
	}
	return false
}

// Dismiss removes a terminal operation from the table
func (r *Registry) Dismiss(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.ops[id]
	if !ok {
		return fserr.New(fserr.KindNotFound, fserr.CodeNotFound, "", "operation %s not found", id)
	}
	if !e.op.Status.IsTerminal() {
		return fserr.Invalid(fserr.CodeInvalidOperation, "", "operation %s is still running", id)
	}

	r.removeLocked(id)
	r.publishLocked(Event{Name: EventChanged, Payload: ChangedPayload{Dismissed: []string{id}}})
	return nil
}

// ClearCompleted dismisses every terminal operation and returns how many were removed
func (r *Registry) ClearCompleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for _, id := range append([]string(nil), r.order...) {
		if r.ops[id].op.Status.IsTerminal() {
			r.removeLocked(id)
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		r.publishLocked(Event{Name: EventChanged, Payload: ChangedPayload{Dismissed: removed}})
	}
	return len(removed)
}

// Wait blocks until the operation is terminal or ctx is done
func (r *Registry) Wait(ctx context.Context, id string) (Operation, error) {
	r.mu.Lock()
	e, ok := r.ops[id]
	r.mu.Unlock()
	if !ok {
		return Operation{}, fserr.New(fserr.KindNotFound, fserr.CodeNotFound, "", "operation %s not found", id)
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return Operation{}, fserr.Wrap(ctx.Err(), "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return e.op, nil
}

// 📡 Subscribe starts delivering events matching filter
func (r *Registry) Subscribe(filter Filter) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSub++
	s := newSubscription(r, r.nextSub, filter, r.opts.SubscriberBuffer)
	if r.closed {
		s.stop()
		return s
	}
	r.subs[s.id] = s
	metrics.SetSubscribersActive(len(r.subs))
	return s
}

func (r *Registry) unsubscribe(s *Subscription) {
	r.mu.Lock()
	delete(r.subs, s.id)
	metrics.SetSubscribersActive(len(r.subs))
	r.mu.Unlock()
	s.stop()
}

// PublishRefresh asks panels viewing any of paths to list again
func (r *Registry) PublishRefresh(paths []string) {
	if len(paths) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishLocked(Event{Name: EventRefresh, Payload: RefreshPayload{Paths: paths}, paths: paths})
}

// Close cancels running operations, stops timers and ends every subscription
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for _, e := range r.ops {
		if e.timer != nil {
			e.timer.Stop()
		}
		if !e.op.Status.IsTerminal() && e.cancel != nil {
			e.cancel()
		}
	}
	for id, s := range r.subs {
		delete(r.subs, id)
		s.stop()
	}
	metrics.SetSubscribersActive(0)
}

func (r *Registry) publishLocked(ev Event) {
	metrics.RecordEvent(ev.Name)
	for _, s := range r.subs {
		if s.filter.matches(r.opts.Resolver, ev) {
			s.enqueue(ev)
		}
	}
}

func (r *Registry) removeLocked(id string) {
	if e, ok := r.ops[id]; ok && e.timer != nil {
		e.timer.Stop()
	}
	delete(r.ops, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) scheduleDismissLocked(e *entry) {
	var grace time.Duration
	switch e.op.Status {
	case status.StatusDone:
		grace = r.opts.DoneGrace
	case status.StatusCancelled:
		grace = r.opts.CancelledGrace
	default:
		return
	}
	if grace < 0 || r.closed {
		return
	}

	id := e.op.ID
	e.timer = time.AfterFunc(grace, func() {
		if err := r.Dismiss(id); err != nil {
			r.logger.Debug().Str("operation_id", id).Err(err).Msg("auto-dismiss skipped")
		}
	})
}

// affectedPaths are the folders whose listing an operation can change, plus moved or deleted sources
func (r *Registry) affectedPaths(kind status.Kind, sources []string, target string) []string {
	var out []string
	if kind != status.KindDelete && target != "" {
		out = append(out, target)
	}
	if kind != status.KindCopy {
		for _, s := range sources {
			if parent, ok := r.opts.Resolver.Parent(s); ok {
				out = append(out, parent)
			}
			out = append(out, s)
		}
	}
	return r.opts.Resolver.Dedupe(out)
}
