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
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dualpane/cmd/dualpane/opts"
	"github.com/walteh/dualpane/pkg/status"
)

func NewVolumesCmd(root *opts.RootOpts) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "volumes",
		Short: "List storage volumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			volumes, err := root.Service.GetStorageVolumes(cmd.Context())
			if err != nil {
				return errors.Errorf("listing volumes: %w", err)
			}
			if asJSON {
				return writeJSON(root.Out, volumes)
			}

			data := pterm.TableData{{"Name", "Path", "Used", "Free", "Total", "Removable"}}
			for _, v := range volumes {
				removable := ""
				if v.IsRemovable {
					removable = "yes"
				}
				data = append(data, []string{
					v.Name,
					v.Path,
					status.FormatBytes(int64(v.UsedBytes)),
					status.FormatBytes(int64(v.AvailableBytes)),
					status.FormatBytes(int64(v.TotalBytes)),
					removable,
				})
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return errors.Errorf("rendering table: %w", err)
			}
			_, err = fmt.Fprintln(root.Out, table)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print volumes as JSON")
	return cmd
}
