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

package commands

import (
	"context"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/walteh/dualpane/pkg/registry"
	"github.com/walteh/dualpane/pkg/status"
)

// 📊 progressBar mirrors the progress events of one operation onto a terminal bar
type progressBar struct {
	bar   *pterm.ProgressbarPrinter
	kind  status.Kind
	title string
	done  chan struct{}
}

func followProgress(ctx context.Context, sub *registry.Subscription, kind status.Kind, title string) *progressBar {
	pb := &progressBar{kind: kind, title: title, done: make(chan struct{})}

	bar, err := pterm.DefaultProgressbar.WithTotal(1).WithTitle(title).WithRemoveWhenDone(true).Start()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("progress bar unavailable")
	}
	pb.bar = bar

	go pb.run(ctx, sub)
	return pb
}

func (p *progressBar) run(ctx context.Context, sub *registry.Subscription) {
	defer close(p.done)
	defer p.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			switch ev.Name {
			case p.kind.ProgressEvent():
				if pp, ok := ev.Payload.(registry.ProgressPayload); ok {
					p.update(pp)
				}
			case registry.EventStatus:
				if op, ok := ev.Payload.(registry.Operation); ok && op.Status.IsTerminal() {
					return
				}
			}
		}
	}
}

func (p *progressBar) update(pp registry.ProgressPayload) {
	if p.bar == nil || !p.bar.IsActive || pp.TotalFiles == 0 {
		return
	}

	// currentIndex counts the file in flight
	finished := pp.CurrentIndex - 1
	if finished < 0 {
		finished = 0
	}

	p.bar.Total = pp.TotalFiles
	if pp.CurrentFile != "" {
		p.bar.UpdateTitle(p.title + " " + filepath.Base(pp.CurrentFile))
	}
	if d := finished - p.bar.Current; d > 0 {
		p.bar.Add(d)
	}
}

func (p *progressBar) stop() {
	if p.bar != nil && p.bar.IsActive {
		_, _ = p.bar.Stop()
	}
}

// Wait blocks until the bar has been torn down
func (p *progressBar) Wait(ctx context.Context) {
	select {
	case <-p.done:
	case <-ctx.Done():
	}
}
