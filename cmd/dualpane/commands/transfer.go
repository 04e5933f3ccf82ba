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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dualpane/cmd/dualpane/opts"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/log"
	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/registry"
	"github.com/walteh/dualpane/pkg/status"
)

func NewCopyCmd(root *opts.RootOpts) *cobra.Command {
	return newTransferCmd(root, status.KindCopy)
}

func NewMoveCmd(root *opts.RootOpts) *cobra.Command {
	return newTransferCmd(root, status.KindMove)
}

func newTransferCmd(root *opts.RootOpts, kind status.Kind) *cobra.Command {
	var overwrite, abortOnError bool

	use, short := "cp <source>... <target-folder>", "Copy items into a folder"
	if kind == status.KindMove {
		use, short = "mv <source>... <target-folder>", "Move items into a folder"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.
Folders are copied recursively. Existing destination items are reported as
conflicts unless --overwrite is given. Progress is shown while the job runs.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", kind.String()).Logger().WithContext(cmd.Context())

			paths, err := absPaths(args)
			if err != nil {
				return err
			}

			op, err := runTracked(ctx, root, operation.Request{
				Kind:         kind,
				Sources:      paths[:len(paths)-1],
				Target:       paths[len(paths)-1],
				Overwrite:    overwrite,
				AbortOnError: abortOnError,
			})
			if err != nil {
				return err
			}
			return report(ctx, root, op)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing destination files")
	cmd.Flags().BoolVar(&abortOnError, "abort-on-error", false, "stop at the first failed item")

	return cmd
}

// runTracked starts req under a fresh id and waits for it with a progress bar.
// An interrupt cancels the job; the partial result is still returned.
func runTracked(ctx context.Context, root *opts.RootOpts, req operation.Request) (registry.Operation, error) {
	svc := root.Service
	id := uuid.NewString()

	sub := svc.Subscribe(registry.Filter{OperationIDs: []string{id}})
	defer sub.Close()

	root.Logger.StartOperation(ctx, log.Header{ID: id, Kind: req.Kind, Sources: req.Sources, Target: req.Target})
	bar := followProgress(ctx, sub, req.Kind, req.Kind.String())

	if _, err := svc.StartOperation(ctx, id, req); err != nil {
		sub.Close()
		bar.Wait(ctx)
		return registry.Operation{}, errors.Errorf("starting %s: %w", req.Kind, err)
	}

	op, err := svc.Wait(ctx, id)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("operation_id", id).Msg("interrupted, cancelling")
		_ = svc.CancelOperation(id)
		if op, err = svc.Wait(detached(ctx), id); err != nil {
			return registry.Operation{}, errors.Errorf("waiting for %s: %w", req.Kind, err)
		}
	}

	bar.Wait(detached(ctx))
	return op, nil
}

func NewRemoveCmd(root *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete files and folders",
		Long: `Delete files and folders recursively.
Each path is reported separately; one failure does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "rm").Logger().WithContext(cmd.Context())

			paths, err := absPaths(args)
			if err != nil {
				return err
			}

			sub := root.Service.Subscribe(registry.Filter{})
			defer sub.Close()

			root.Logger.StartOperation(ctx, log.Header{Kind: status.KindDelete, Sources: paths})
			bar := followProgress(ctx, sub, status.KindDelete, "delete")

			op, err := root.Service.DeleteItems(ctx, paths)
			sub.Close()
			bar.Wait(detached(ctx))

			if op == nil {
				return errors.Errorf("deleting: %w", err)
			}
			return report(ctx, root, *op)
		},
	}

	return cmd
}

// report prints every item outcome and turns a non-done status into an error
func report(ctx context.Context, root *opts.RootOpts, op registry.Operation) error {
	for _, item := range op.Items {
		root.Logger.LogItem(ctx, item)
	}
	root.Logger.EndOperation(ctx, op.Status, op.Progress)

	switch op.Status {
	case status.StatusDone:
		return nil
	case status.StatusCancelled:
		return fserr.Cancelled("")
	}

	if op.Error != nil {
		return fserr.FromPayload(*op.Error)
	}
	return errors.Errorf("%s %s: %d of %d items did not succeed", op.Kind, op.Status, len(op.Failures()), len(op.Items))
}
