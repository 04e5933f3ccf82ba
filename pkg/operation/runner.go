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
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/status"
)

// 📬 Tracker records the lifecycle of operations executed by a Runner
type Tracker interface {
	UpdateProgress(id string, p status.Progress)
	Complete(id string, res *Result) error
}

// 🏃 Runner executes operations on behalf of a tracker
type Runner struct {
	engine  *Engine
	tracker Tracker
	wg      sync.WaitGroup
}

// 🏗️ NewRunner creates a new runner
func NewRunner(engine *Engine, tracker Tracker) *Runner {
	return &Runner{
		engine:  engine,
		tracker: tracker,
	}
}

// ⚡ Start executes the operation on its own goroutine and returns immediately
func (r *Runner) Start(ctx context.Context, id string, req Request) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, id, req)
	}()
}

// 🔄 Run executes the operation and blocks until it is terminal
func (r *Runner) Run(ctx context.Context, id string, req Request) *Result {
	return r.run(ctx, id, req)
}

// Wait blocks until every started operation has finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, id string, req Request) (res *Result) {
	logger := zerolog.Ctx(ctx).With().Str("operation_id", id).Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("operation panicked")
			res = &Result{
				Status: status.StatusFailed,
				Err:    fserr.New(fserr.KindPermanent, fserr.CodeUnknown, "", "internal error: %v", rec),
			}
		}
		if err := r.tracker.Complete(id, res); err != nil {
			logger.Warn().Err(err).Msg("recording completion")
		}
	}()

	logger.Info().
		Str("kind", req.Kind.String()).
		Int("sources", len(req.Sources)).
		Str("target", req.Target).
		Msg("operation started")

	res = r.engine.Execute(ctx, req, SinkFunc(func(p status.Progress) {
		r.tracker.UpdateProgress(id, p)
	}))

	logger.Info().Str("status", res.Status.String()).Msg("operation finished")
	return res
}
