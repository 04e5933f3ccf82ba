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
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dualpane/cmd/dualpane/opts"
	"github.com/walteh/dualpane/pkg/listing"
	"github.com/walteh/dualpane/pkg/status"
)

// cliPanel is the panel id used for listings made from the command line
const cliPanel = "cli"

func NewListCmd(root *opts.RootOpts) *cobra.Command {
	var (
		sortBy   string
		match    string
		desc     bool
		all      bool
		asJSON   bool
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "ls [folder]",
		Short: "List the contents of a folder",
		Long: `List the immediate children of a folder, folders first.
Without --all only the first page is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path, err := absPath(dir)
			if err != nil {
				return err
			}

			key, err := listing.ParseSortKey(sortBy)
			if err != nil {
				return err
			}

			req := listing.Request{Path: path, PageSize: pageSize, SortBy: key, Descending: desc, Match: match}
			var entries []listing.Entry
			total := 0
			for {
				page, err := root.Service.ListDirectory(ctx, cliPanel, req)
				if err != nil {
					return errors.Errorf("listing %s: %w", path, err)
				}
				entries = append(entries, page.Entries...)
				total = page.TotalCount
				if !all || page.NextPageToken == "" {
					break
				}
				req.PageToken = page.NextPageToken
			}

			if asJSON {
				return writeJSON(root.Out, entries)
			}
			return renderEntries(root.Out, entries, total)
		},
	}

	cmd.Flags().StringVarP(&sortBy, "sort", "s", "name", "sort by name, size or modified")
	cmd.Flags().BoolVarP(&desc, "desc", "r", false, "reverse the sort order within folders and files")
	cmd.Flags().StringVarP(&match, "match", "m", "", "only show names matching a glob pattern")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "follow page tokens until the listing is complete")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "entries per page (0 uses the configured size)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")

	return cmd
}

func renderEntries(w io.Writer, entries []listing.Entry, total int) error {
	data := pterm.TableData{{"Name", "Kind", "Size", "Modified"}}
	for _, e := range entries {
		name, size := e.Name, status.FormatBytes(e.Size)
		if e.IsFolder() {
			name = pterm.FgCyan.Sprint(e.Name + "/")
			size = ""
		}
		modified := ""
		if e.ModifiedAt != nil {
			modified = e.ModifiedAt.Local().Format("2006-01-02 15:04")
		}
		data = append(data, []string{name, e.Kind.String(), size, modified})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering table: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n%d of %d entries\n", table, len(entries), total)
	return err
}

func NewStatCmd(root *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show metadata for one path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(args[0])
			if err != nil {
				return err
			}
			entry, err := root.Service.GetFileInfo(cmd.Context(), path)
			if err != nil {
				return errors.Errorf("reading %s: %w", path, err)
			}
			return writeJSON(root.Out, entry)
		},
	}
}
