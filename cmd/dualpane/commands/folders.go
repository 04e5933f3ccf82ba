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
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dualpane/cmd/dualpane/opts"
)

func NewMkdirCmd(root *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args[0])
			if err != nil {
				return err
			}
			entry, err := root.Service.CreateFolder(cmd.Context(), filepath.Dir(path), filepath.Base(path))
			if err != nil {
				return errors.Errorf("creating folder: %w", err)
			}
			root.Logger.Successf("Created %s", entry.Path)
			return nil
		},
	}
}

func NewRenameCmd(root *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file or folder in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args[0])
			if err != nil {
				return err
			}
			entry, err := root.Service.RenameItem(cmd.Context(), path, args[1])
			if err != nil {
				return errors.Errorf("renaming: %w", err)
			}
			root.Logger.Successf("Renamed %s to %s", path, entry.Name)
			return nil
		},
	}
}
