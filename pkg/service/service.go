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

package service

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/coordinator"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/listing"
	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/registry"
	"github.com/walteh/dualpane/pkg/retry"
	"github.com/walteh/dualpane/pkg/status"
)

// 🔧 Options configures a Service
type Options struct {
	Resolver *fspath.Resolver
	Listing  listing.Options
	Engine   operation.Options
	Registry registry.Options
	Retry    retry.Config
	// Overwrite and AbortOnError are applied to every copy and move request
	Overwrite    bool
	AbortOnError bool
}

// 🗂️ Service is the command surface a presentation layer talks to.
// Listing and metadata calls answer directly; copy and move return an id
// right away and report through registry events.
type Service struct {
	resolver *fspath.Resolver
	lister   *listing.Lister
	panels   *listing.Tracker
	registry *registry.Registry
	runner   *operation.Runner
	opts     Options
}

// New wires a lister, an engine and a registry together.
// ctx carries the logger used by background work.
func New(ctx context.Context, opts Options) *Service {
	if opts.Resolver == nil {
		opts.Resolver = fspath.NewHost()
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}
	opts.Engine.Resolver = opts.Resolver
	opts.Registry.Resolver = opts.Resolver

	reg := registry.New(ctx, opts.Registry)
	return &Service{
		resolver: opts.Resolver,
		lister:   listing.New(opts.Resolver, opts.Listing),
		panels:   listing.NewTracker(),
		registry: reg,
		runner:   operation.NewRunner(operation.NewEngine(opts.Engine), reg),
		opts:     opts,
	}
}

// Registry exposes the operation table and its event fan-out
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Resolver returns the path resolver shared by every component
func (s *Service) Resolver() *fspath.Resolver {
	return s.resolver
}

// 📂 ListDirectory returns one page of path's children.
// A non-empty panel supersedes that panel's previous in-flight listing; the
// older call then fails with SUPERSEDED and its page must not be applied.
func (s *Service) ListDirectory(ctx context.Context, panel string, req listing.Request) (*listing.Page, error) {
	var ticket *listing.Ticket
	if panel != "" {
		ctx, ticket = s.panels.Begin(ctx, panel)
	}

	page, err := retry.DoWithResult(ctx, s.opts.Retry, func() (*listing.Page, error) {
		return s.lister.List(ctx, req)
	})

	if ticket != nil {
		if ferr := ticket.Finish(req.Path); ferr != nil {
			return nil, ferr
		}
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ForgetPanel drops the supersession state of a closed panel
func (s *Service) ForgetPanel(panel string) {
	s.panels.Forget(panel)
}

// GetFileInfo returns the entry of a single path
func (s *Service) GetFileInfo(ctx context.Context, path string) (*listing.Entry, error) {
	return retry.DoWithResult(ctx, s.opts.Retry, func() (*listing.Entry, error) {
		return s.lister.Stat(ctx, path)
	})
}

// 📁 CreateFolder makes name inside parentPath and returns the new entry
func (s *Service) CreateFolder(ctx context.Context, parentPath, name string) (*listing.Entry, error) {
	path, err := s.resolver.Join(parentPath, name)
	if err != nil {
		return nil, err
	}

	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fserr.Wrap(err, path)
	}

	zerolog.Ctx(ctx).Info().Str("path", path).Msg("created folder")
	parent, _ := s.resolver.Parent(path)
	s.registry.PublishRefresh([]string{parent})

	return s.lister.Stat(ctx, path)
}

// ✏️ RenameItem gives path a new single-segment name in the same folder.
// An existing entry under the new name is never replaced.
func (s *Service) RenameItem(ctx context.Context, path, newName string) (*listing.Entry, error) {
	src, err := s.resolver.Normalize(path)
	if err != nil {
		return nil, err
	}
	if s.resolver.IsRoot(src) {
		return nil, fserr.Invalid(fserr.CodeInvalidOperation, src, "cannot rename a filesystem root")
	}
	if err := s.resolver.ValidateName(newName); err != nil {
		return nil, err
	}

	parent, _ := s.resolver.Parent(src)
	dst, err := s.resolver.Join(parent, newName)
	if err != nil {
		return nil, err
	}

	if _, err := os.Lstat(src); err != nil {
		return nil, fserr.Wrap(err, src)
	}
	if dst == src {
		return s.lister.Stat(ctx, dst)
	}

	// a case-only rename on a folding filesystem finds the source itself under the new name
	if !s.resolver.Equal(src, dst) {
		if _, err := os.Lstat(dst); err == nil {
			return nil, fserr.New(fserr.KindInvalidOperation, fserr.CodeAlreadyExists, dst, "%s already exists", dst)
		} else if !os.IsNotExist(err) {
			return nil, fserr.Wrap(err, dst)
		}
	}

	if err := os.Rename(src, dst); err != nil {
		return nil, fserr.Wrap(err, src)
	}

	zerolog.Ctx(ctx).Info().Str("from", src).Str("to", dst).Msg("renamed item")
	s.registry.PublishRefresh([]string{parent})

	return s.lister.Stat(ctx, dst)
}

// 🗑️ DeleteItems removes paths as a registered delete operation and waits
// for it to finish. The returned operation carries per-item results.
func (s *Service) DeleteItems(ctx context.Context, paths []string) (*registry.Operation, error) {
	id, err := s.start(ctx, "", operation.Request{Kind: status.KindDelete, Sources: paths}, false)
	if err != nil {
		return nil, err
	}

	op, err := s.registry.Wait(ctx, id)
	if err != nil {
		// the caller gave up waiting; the delete stops too
		_ = s.registry.Cancel(id)
		return nil, err
	}
	if op.Status == status.StatusDone {
		return &op, nil
	}
	return &op, deleteError(op)
}

func deleteError(op registry.Operation) error {
	if op.Status == status.StatusCancelled {
		return fserr.Cancelled("")
	}
	if op.Error != nil {
		return fserr.FromPayload(*op.Error)
	}
	failures := op.Failures()
	if len(failures) > 0 && failures[0].Error != nil {
		first := failures[0].Error
		return fserr.New(first.Kind, first.Code, "", "%d of %d items could not be deleted: %s", len(failures), len(op.Items), first.Error())
	}
	return fserr.New(fserr.KindPermanent, fserr.CodeIO, "", "delete finished %s", op.Status)
}

// 📄 CopyItems starts copying sources into targetFolder and returns the operation id.
// An empty operationID asks for a generated one.
func (s *Service) CopyItems(ctx context.Context, sources []string, targetFolder, operationID string) (string, error) {
	return s.start(ctx, operationID, operation.Request{Kind: status.KindCopy, Sources: sources, Target: targetFolder}, true)
}

// 🚚 MoveItems starts moving sources into targetFolder and returns the operation id
func (s *Service) MoveItems(ctx context.Context, sources []string, targetFolder, operationID string) (string, error) {
	return s.start(ctx, operationID, operation.Request{Kind: status.KindMove, Sources: sources, Target: targetFolder}, true)
}

// Submit starts a copy or move built by a coordinator
func (s *Service) Submit(ctx context.Context, req operation.Request) (string, error) {
	if req.Kind == status.KindDelete {
		op, err := s.DeleteItems(ctx, req.Sources)
		if op != nil {
			return op.ID, err
		}
		return "", err
	}
	return s.StartOperation(ctx, "", req)
}

// StartOperation starts a copy or move with per-request flags. Configured
// overwrite and abort defaults still apply when the request leaves them unset.
func (s *Service) StartOperation(ctx context.Context, operationID string, req operation.Request) (string, error) {
	if req.Kind == status.KindDelete {
		return "", fserr.Invalid(fserr.CodeInvalidOperation, "", "delete runs through DeleteItems")
	}
	return s.start(ctx, operationID, req, true)
}

// start registers req and runs it on its own goroutine. The operation outlives
// ctx (a request context usually ends when the call returns) and is cancelled
// only through CancelOperation.
func (s *Service) start(ctx context.Context, id string, req operation.Request, applyDefaults bool) (string, error) {
	sources, err := s.resolver.NormalizeAll(req.Sources)
	if err != nil {
		return "", err
	}
	if len(sources) == 0 {
		return "", fserr.Invalid(fserr.CodeInvalidOperation, "", "no source paths given")
	}
	req.Sources = sources

	if req.Kind != status.KindDelete {
		if req.Target, err = s.resolver.Normalize(req.Target); err != nil {
			return "", err
		}
	}
	if applyDefaults {
		req.Overwrite = req.Overwrite || s.opts.Overwrite
		req.AbortOnError = req.AbortOnError || s.opts.AbortOnError
	}

	if id == "" {
		id = uuid.NewString()
	}

	opCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := s.registry.RegisterWithID(id, req.Kind, req.Sources, req.Target, cancel); err != nil {
		cancel()
		return "", err
	}

	s.runner.Start(opCtx, id, req)
	return id, nil
}

// CancelOperation requests cancellation. Cancelling a finished operation is a no-op.
func (s *Service) CancelOperation(id string) error {
	return s.registry.Cancel(id)
}

// Operations lists every tracked operation in creation order
func (s *Service) Operations() []registry.Operation {
	return s.registry.List()
}

// Operation returns one tracked operation
func (s *Service) Operation(id string) (registry.Operation, error) {
	return s.registry.Get(id)
}

// DismissOperation removes a finished operation from the table
func (s *Service) DismissOperation(id string) error {
	return s.registry.Dismiss(id)
}

// ClearCompleted removes every finished operation
func (s *Service) ClearCompleted() int {
	return s.registry.ClearCompleted()
}

// Wait blocks until the operation is terminal
func (s *Service) Wait(ctx context.Context, id string) (registry.Operation, error) {
	return s.registry.Wait(ctx, id)
}

// Subscribe opens an event stream
func (s *Service) Subscribe(filter registry.Filter) *registry.Subscription {
	return s.registry.Subscribe(filter)
}

// 🎛️ NewCoordinator returns a coordinator that submits through this service and
// follows its status events until ctx ends, so a finished cut paste empties the clipboard.
func (s *Service) NewCoordinator(ctx context.Context) *coordinator.Coordinator {
	c := coordinator.New(s.resolver, s)
	go c.Follow(ctx, s.registry.Subscribe(registry.Filter{}))
	return c
}

// 🛑 Close cancels running operations, waits for them to settle and closes every subscription
func (s *Service) Close(ctx context.Context) error {
	for _, op := range s.registry.List() {
		if !op.Status.IsTerminal() {
			_ = s.registry.Cancel(op.ID)
		}
	}

	done := make(chan struct{})
	go func() {
		s.runner.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fserr.Cancelled("")
	case <-time.After(30 * time.Second):
		err = fserr.New(fserr.KindTransient, fserr.CodeTimeout, "", "operations did not stop in time")
	}

	s.registry.Close()
	return err
}
