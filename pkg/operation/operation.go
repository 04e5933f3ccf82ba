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

package operation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/status"
)

const (
	DefaultChunkSize        = 1 << 20
	DefaultProgressInterval = 100 * time.Millisecond
	walkConcurrency         = 4
	tempPrefix              = ".dualpane-"
)

// 🎯 Request describes one copy, move or delete job
type Request struct {
	Kind    status.Kind
	Sources []string
	// Target is the destination folder; ignored for delete
	Target string
	// Overwrite replaces existing destination files instead of reporting a conflict
	Overwrite bool
	// AbortOnError stops at the first failed item and fails the whole operation
	AbortOnError bool
}

// Outcome is what happened to one source item
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeConflict  Outcome = "conflict"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSkipped   Outcome = "skipped" // not attempted after an abort
)

// ItemResult is the per-source report of an operation
type ItemResult struct {
	Source      string       `json:"source"`
	Destination string       `json:"destination,omitempty"`
	Outcome     Outcome      `json:"outcome"`
	Error       *fserr.Error `json:"error,omitempty"`
}

// 📊 Result is the aggregate outcome of an operation
type Result struct {
	Status   status.Status   `json:"status"`
	Items    []ItemResult    `json:"items"`
	Progress status.Progress `json:"progress"`
	// Err is nil iff Status is Done
	Err *fserr.Error `json:"error,omitempty"`
}

// Failures returns every item that did not succeed, conflicts included
func (r *Result) Failures() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Outcome == OutcomeFailed || it.Outcome == OutcomeConflict {
			out = append(out, it)
		}
	}
	return out
}

// Succeeded counts the items that completed
func (r *Result) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == OutcomeSucceeded {
			n++
		}
	}
	return n
}

// 📡 Sink receives throttled progress snapshots
type Sink interface {
	Progress(p status.Progress)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(p status.Progress)

func (f SinkFunc) Progress(p status.Progress) { f(p) }

// 🔧 Options configures the engine
type Options struct {
	Resolver         *fspath.Resolver
	ChunkSize        int
	ProgressInterval time.Duration
	// Exclude holds doublestar patterns skipped by copy
	Exclude []string
}

// ⚙️ Engine executes file operations
type Engine struct {
	resolver *fspath.Resolver
	opts     Options
}

// NewEngine creates an engine, filling zero options with defaults
func NewEngine(opts Options) *Engine {
	if opts.Resolver == nil {
		opts.Resolver = fspath.NewHost()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	return &Engine{resolver: opts.Resolver, opts: opts}
}

// 🏃 Execute runs req to a terminal state. It blocks until the job finishes or ctx is cancelled.
// Items are processed in source order; already completed items are never rolled back.
func (e *Engine) Execute(ctx context.Context, req Request, sink Sink) *Result {
	logger := zerolog.Ctx(ctx).With().Str("kind", req.Kind.String()).Logger()
	ctx = logger.WithContext(ctx)

	rep := newReporter(sink, e.opts.ProgressInterval)

	job, err := e.prepare(req)
	if err != nil {
		return e.finish(ctx, rep, &Result{Status: status.StatusFailed, Err: fserr.Classify(err)})
	}

	plans, err := e.plan(ctx, job)
	if err != nil {
		return e.finish(ctx, rep, &Result{Status: status.StatusCancelled, Err: fserr.Cancelled("")})
	}

	for _, p := range plans {
		rep.addTotals(p.files, p.bytes)
	}
	rep.emit(true)

	res := &Result{Items: make([]ItemResult, 0, len(job.sources))}
	aborted, cancelled := false, false

	for i, src := range job.sources {
		if aborted || cancelled {
			out := OutcomeSkipped
			if cancelled {
				out = OutcomeCancelled
			}
			res.Items = append(res.Items, ItemResult{Source: src, Outcome: out})
			continue
		}

		if ctx.Err() != nil {
			cancelled = true
			res.Items = append(res.Items, ItemResult{Source: src, Outcome: OutcomeCancelled})
			continue
		}

		item := e.runItem(ctx, job, plans[i], rep)
		res.Items = append(res.Items, item)

		switch item.Outcome {
		case OutcomeCancelled:
			cancelled = true
		case OutcomeFailed:
			logger.Warn().Str("source", src).Err(item.Error).Msg("item failed")
			if req.AbortOnError {
				aborted = true
			}
		case OutcomeConflict:
			logger.Info().Str("source", src).Str("destination", item.Destination).Msg("destination exists, skipped")
		}
	}

	switch {
	case cancelled:
		res.Status = status.StatusCancelled
		res.Err = fserr.Cancelled("")
	case aborted:
		res.Status = status.StatusFailed
		res.Err = aggregate(res)
	default:
		ok := res.Succeeded()
		switch {
		case ok == len(res.Items):
			res.Status = status.StatusDone
		case ok == 0:
			res.Status = status.StatusFailed
			res.Err = aggregate(res)
		default:
			res.Status = status.StatusPartiallySucceeded
			res.Err = aggregate(res)
		}
	}

	return e.finish(ctx, rep, res)
}

func (e *Engine) finish(ctx context.Context, rep *reporter, res *Result) *Result {
	rep.setCurrent("")
	rep.emit(true)
	res.Progress = rep.snapshot()

	zerolog.Ctx(ctx).Debug().
		Str("status", res.Status.String()).
		Int("items", len(res.Items)).
		Int("succeeded", res.Succeeded()).
		Int64("bytes", res.Progress.BytesProcessed).
		Msg("operation finished")

	return res
}

func (e *Engine) runItem(ctx context.Context, job *job, p *itemPlan, rep *reporter) ItemResult {
	item := ItemResult{Source: p.source}

	var err error
	switch job.kind {
	case status.KindCopy:
		item.Destination = job.destination(p.source)
		err = e.copyItem(ctx, job, p, item.Destination, rep)
	case status.KindMove:
		item.Destination = job.destination(p.source)
		err = e.moveItem(ctx, job, p, item.Destination, rep)
	case status.KindDelete:
		err = e.deleteItem(ctx, p, rep)
	}

	if err == nil {
		item.Outcome = OutcomeSucceeded
		return item
	}

	item.Error = fserr.Wrap(err, p.source)
	switch {
	case item.Error.Kind == fserr.KindCancelled:
		item.Outcome = OutcomeCancelled
	case item.Error.Code == fserr.CodeAlreadyExists:
		item.Outcome = OutcomeConflict
	default:
		item.Outcome = OutcomeFailed
	}
	return item
}

// aggregate summarises item failures; single failures keep their own classification
func aggregate(res *Result) *fserr.Error {
	failures := res.Failures()
	if len(failures) == 0 {
		return nil
	}
	first := failures[0].Error
	if len(failures) == 1 {
		return first
	}
	return &fserr.Error{
		Kind:    first.Kind,
		Code:    first.Code,
		Message: fmt.Sprintf("%d of %d items failed; first: %s", len(failures), len(res.Items), first.Error()),
		Err:     first,
	}
}
