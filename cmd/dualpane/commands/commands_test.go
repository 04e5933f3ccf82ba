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

//go:build !windows

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/dualpane/cmd/dualpane/opts"
	"github.com/walteh/dualpane/pkg/config"
	"github.com/walteh/dualpane/pkg/listing"
	"github.com/walteh/dualpane/pkg/log"
	"github.com/walteh/dualpane/pkg/service"
)

func newTestRoot(t *testing.T) (*opts.RootOpts, *bytes.Buffer, context.Context) {
	t.Helper()

	pterm.DisableOutput()
	color.NoColor = true
	t.Cleanup(func() {
		pterm.EnableOutput()
		color.NoColor = false
	})

	logger := zerolog.New(zerolog.NewTestWriter(t))
	ctx := logger.WithContext(context.Background())

	cfg := config.Default()
	cfg.Listing.CasePolicy = "sensitive"
	svcOpts, err := cfg.ServiceOptions()
	require.NoError(t, err, "service options should build")

	svc := service.New(ctx, svcOpts)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	buf := &bytes.Buffer{}
	return &opts.RootOpts{
		Config:  cfg,
		Service: svc,
		Logger:  log.New(buf, zerolog.Disabled),
		Out:     buf,
	}, buf, ctx
}

func run(ctx context.Context, cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent should succeed")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing file should succeed")
}

func TestListCommand(t *testing.T) {
	root, buf, ctx := newTestRoot(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "x")

	require.NoError(t, run(ctx, NewListCmd(root), "--json", dir), "ls should succeed")

	var entries []listing.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries), "output should be JSON")
	require.Len(t, entries, 2, "both children should be listed")
	assert.Equal(t, "sub", entries[0].Name, "folders should come first")
	assert.Equal(t, "a.txt", entries[1].Name, "file should follow")
	assert.Equal(t, int64(5), entries[1].Size, "size should match")

	buf.Reset()
	require.NoError(t, run(ctx, NewListCmd(root), "--match", "*.txt", dir), "filtered ls should succeed")
	assert.Contains(t, buf.String(), "a.txt", "table should include the match")
	assert.NotContains(t, buf.String(), "sub/", "table should exclude non-matches")
	assert.Contains(t, buf.String(), "1 of 1 entries", "footer should count entries")

	assert.Error(t, run(ctx, NewListCmd(root), filepath.Join(dir, "missing")), "listing a missing folder should fail")
	assert.Error(t, run(ctx, NewListCmd(root), "--sort", "color", dir), "unknown sort key should fail")
}

func TestListCommandAllPages(t *testing.T) {
	root, buf, ctx := newTestRoot(t)
	dir := t.TempDir()
	for _, name := range []string{"1", "2", "3", "4", "5"} {
		writeFile(t, filepath.Join(dir, name+".txt"), name)
	}

	require.NoError(t, run(ctx, NewListCmd(root), "--json", "--page-size", "2", "--all", dir), "paged ls should succeed")

	var entries []listing.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries), "output should be JSON")
	assert.Len(t, entries, 5, "every page should be followed")
}

func TestMkdirAndRename(t *testing.T) {
	root, buf, ctx := newTestRoot(t)
	dir := t.TempDir()

	require.NoError(t, run(ctx, NewMkdirCmd(root), filepath.Join(dir, "photos")), "mkdir should succeed")
	assert.DirExists(t, filepath.Join(dir, "photos"), "folder should exist")
	assert.Contains(t, buf.String(), "Created", "success should be reported")

	assert.Error(t, run(ctx, NewMkdirCmd(root), filepath.Join(dir, "photos")), "creating an existing folder should fail")

	require.NoError(t, run(ctx, NewRenameCmd(root), filepath.Join(dir, "photos"), "pictures"), "rename should succeed")
	assert.DirExists(t, filepath.Join(dir, "pictures"), "renamed folder should exist")
	assert.NoDirExists(t, filepath.Join(dir, "photos"), "old name should be gone")

	assert.Error(t, run(ctx, NewRenameCmd(root), filepath.Join(dir, "pictures"), "a/b"), "name with a separator should fail")
}

func TestCopyCommand(t *testing.T) {
	root, buf, ctx := newTestRoot(t)
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "alpha")
	writeFile(t, filepath.Join(src, "docs", "b.txt"), "beta")

	require.NoError(t, run(ctx, NewCopyCmd(root), filepath.Join(src, "a.txt"), filepath.Join(src, "docs"), dst), "cp should succeed")

	got, err := os.ReadFile(filepath.Join(dst, "docs", "b.txt"))
	require.NoError(t, err, "nested file should be copied")
	assert.Equal(t, "beta", string(got), "content should match")
	assert.FileExists(t, filepath.Join(src, "a.txt"), "source should remain after copy")
	assert.Contains(t, buf.String(), "copy finished", "terminal line should be printed")

	// second copy conflicts on every item
	err = run(ctx, NewCopyCmd(root), filepath.Join(src, "a.txt"), dst)
	require.Error(t, err, "conflicting copy should fail")
	assert.Contains(t, buf.String(), "conflict", "conflict should be reported per item")

	require.NoError(t, run(ctx, NewCopyCmd(root), "--overwrite", filepath.Join(src, "a.txt"), dst), "overwrite should succeed")
}

func TestMoveCommand(t *testing.T) {
	root, _, ctx := newTestRoot(t)
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "alpha")

	require.NoError(t, run(ctx, NewMoveCmd(root), filepath.Join(src, "a.txt"), dst), "mv should succeed")
	assert.FileExists(t, filepath.Join(dst, "a.txt"), "file should arrive")
	assert.NoFileExists(t, filepath.Join(src, "a.txt"), "file should leave the source")

	assert.Error(t, run(ctx, NewMoveCmd(root), dst), "mv needs a source and a target")
	assert.Error(t, run(ctx, NewMoveCmd(root), dst, filepath.Join(dst, "inner")), "moving a folder into itself should fail")
}

func TestRemoveCommand(t *testing.T) {
	root, buf, ctx := newTestRoot(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "tree", "deep", "b.txt"), "beta")

	require.NoError(t, run(ctx, NewRemoveCmd(root), filepath.Join(dir, "a.txt"), filepath.Join(dir, "tree")), "rm should succeed")
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"), "file should be gone")
	assert.NoDirExists(t, filepath.Join(dir, "tree"), "tree should be gone")
	assert.Contains(t, buf.String(), "delete finished", "terminal line should be printed")

	assert.Error(t, run(ctx, NewRemoveCmd(root), filepath.Join(dir, "missing")), "removing a missing path should fail")
}

func TestVolumesCommand(t *testing.T) {
	root, buf, ctx := newTestRoot(t)

	require.NoError(t, run(ctx, NewVolumesCmd(root), "--json"), "volumes should succeed")

	var volumes []service.Volume
	require.NoError(t, json.Unmarshal(buf.Bytes(), &volumes), "output should be JSON")
	require.NotEmpty(t, volumes, "at least the root should be listed")
}
