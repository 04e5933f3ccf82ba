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
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dualpane/cmd/dualpane/opts"
	"github.com/walteh/dualpane/pkg/api"
	"github.com/walteh/dualpane/pkg/watch"
)

func NewServeCmd(root *opts.RootOpts) *cobra.Command {
	var (
		addr    string
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer API over HTTP",
		Long: `Serve listing, file operations and a server-sent event stream over HTTP.
With watching enabled, folders open in a connected panel are refreshed when
they change outside dualpane.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "serve").Logger().WithContext(cmd.Context())

			if addr == "" {
				addr = root.Config.Server.Addr
			}

			var watcher api.Watcher
			if root.Config.Watch.Enabled && !noWatch {
				w, err := watch.New(ctx, root.Service.Registry(), watch.Options{
					Resolver: root.Service.Resolver(),
					Debounce: time.Duration(root.Config.Watch.Debounce),
				})
				if err != nil {
					return errors.Errorf("starting watcher: %w", err)
				}
				defer w.Close()
				watcher = w
			}

			root.Logger.Header("serving on " + addr)
			if err := api.NewServer(root.Service, watcher).Serve(ctx, addr); err != nil {
				return errors.Errorf("serving: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable folder watching even if configured")

	return cmd
}
