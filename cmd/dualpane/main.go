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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/dualpane/cmd/dualpane/commands"
	"github.com/walteh/dualpane/cmd/dualpane/opts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &opts.RootOpts{Out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:   "dualpane",
		Short: "A two-panel file explorer core",
		Long: `dualpane lists folders, runs copy, move and delete jobs with live progress,
and serves the same surface over HTTP for a two-panel user interface.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			cmd.SetContext(zerolog.DefaultContextLogger.WithContext(cmd.Context()))
			return initRootOpts(cmd.Context(), root)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeRootOpts(cmd.Context(), root)
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewListCmd(root),
		commands.NewStatCmd(root),
		commands.NewMkdirCmd(root),
		commands.NewRenameCmd(root),
		commands.NewRemoveCmd(root),
		commands.NewCopyCmd(root),
		commands.NewMoveCmd(root),
		commands.NewVolumesCmd(root),
		commands.NewServeCmd(root),
		newVersionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
