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

package coordinator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/registry"
	"github.com/walteh/dualpane/pkg/status"
)

// 📨 Submitter starts a long-running operation and returns its id
type Submitter interface {
	Submit(ctx context.Context, req operation.Request) (string, error)
}

// 🎛️ Coordinator turns clipboard and drag gestures into operation requests.
// It owns the clipboard and the drag state; nothing about them is process global.
type Coordinator struct {
	resolver  *fspath.Resolver
	submitter Submitter
	clipboard *Clipboard
	drag      *Drag

	mu sync.Mutex
	// cut pastes in flight, by operation id, mapped to the clipboard generation they consumed
	cutPastes map[string]uint64
	// terminal statuses seen while a Submit had not yet returned its id
	early      map[string]status.Status
	submitting int
}

// New creates a coordinator with an empty clipboard and no drag in progress
func New(resolver *fspath.Resolver, submitter Submitter) *Coordinator {
	return &Coordinator{
		resolver:  resolver,
		submitter: submitter,
		clipboard: NewClipboard(),
		drag:      NewDrag(),
		cutPastes: map[string]uint64{},
		early:     map[string]status.Status{},
	}
}

// Clipboard returns the clipboard owned by this coordinator
func (c *Coordinator) Clipboard() *Clipboard {
	return c.clipboard
}

// Drag returns the drag state owned by this coordinator
func (c *Coordinator) Drag() *Drag {
	return c.drag
}

// 📥 Paste submits the clipboard contents into target.
// Items that vanished since the snapshot fail individually inside the operation.
func (c *Coordinator) Paste(ctx context.Context, target string) (string, error) {
	contents, ok := c.clipboard.Contents()
	if !ok {
		return "", fserr.Invalid(fserr.CodeInvalidOperation, target, "clipboard is empty")
	}

	kind := status.KindCopy
	if contents.Mode == ModeCut {
		kind = status.KindMove
	}

	c.mu.Lock()
	c.submitting++
	c.mu.Unlock()

	id, err := c.submit(ctx, kind, contents.Items, target)

	c.mu.Lock()
	var finished status.Status
	if err == nil {
		finished = c.early[id]
		if contents.Mode == ModeCut && !finished.IsTerminal() {
			c.cutPastes[id] = contents.generation
		}
	}
	c.submitting--
	if c.submitting == 0 {
		clear(c.early)
	}
	c.mu.Unlock()

	if err != nil {
		return "", err
	}
	// the operation can finish before Submit hands back its id
	if contents.Mode == ModeCut && finished == status.StatusDone {
		c.clipboard.clearIf(contents.generation)
	}

	zerolog.Ctx(ctx).Debug().Str("operation_id", id).Str("mode", contents.Mode.String()).Str("target", target).Msg("pasted clipboard")
	return id, nil
}

// 🎯 Drop finishes the active drag over target.
// It returns an empty id for the no-op cases: no drag, a file target, or the
// drag's own source folder. Dropping a folder into itself or a descendant is rejected.
func (c *Coordinator) Drop(ctx context.Context, target string, targetIsFolder, forceCopy bool) (string, error) {
	payload, ok := c.drag.take()
	if !ok || !targetIsFolder {
		return "", nil
	}

	target, err := c.resolver.Normalize(target)
	if err != nil {
		return "", err
	}
	if c.resolver.Equal(target, payload.SourcePath) {
		return "", nil
	}
	for _, item := range payload.Items {
		if c.resolver.IsWithin(target, item) {
			return "", fserr.Invalid(fserr.CodeInvalidOperation, item, "cannot drop %s into itself", item)
		}
	}

	kind := status.KindMove
	if forceCopy {
		kind = status.KindCopy
	}
	return c.submit(ctx, kind, payload.Items, target)
}

// HandleStatus observes operation status changes. A cut paste that finishes
// Done empties the clipboard, unless a newer copy or cut replaced it meanwhile.
func (c *Coordinator) HandleStatus(id string, s status.Status) {
	if !s.IsTerminal() {
		return
	}

	c.mu.Lock()
	generation, ok := c.cutPastes[id]
	delete(c.cutPastes, id)
	if !ok && c.submitting > 0 {
		c.early[id] = s
	}
	c.mu.Unlock()

	if ok && s == status.StatusDone {
		c.clipboard.clearIf(generation)
	}
}

// 👂 Follow feeds status events from sub into HandleStatus until ctx ends or
// the subscription closes. sub should be opened before the first Paste.
func (c *Coordinator) Follow(ctx context.Context, sub *registry.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if ev.Name != registry.EventStatus {
				continue
			}
			if op, ok := ev.Payload.(registry.Operation); ok {
				c.HandleStatus(op.ID, op.Status)
			}
		}
	}
}

// Pending reports how many cut pastes still wait for their operation to finish
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cutPastes)
}

func (c *Coordinator) submit(ctx context.Context, kind status.Kind, items []string, target string) (string, error) {
	if len(items) == 0 {
		return "", fserr.Invalid(fserr.CodeInvalidOperation, target, "nothing to %s", kind)
	}
	return c.submitter.Submit(ctx, operation.Request{
		Kind:    kind,
		Sources: append([]string(nil), items...),
		Target:  target,
	})
}
