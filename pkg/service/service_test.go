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

package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/listing"
	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/registry"
	"github.com/walteh/dualpane/pkg/status"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func newTestService(t *testing.T) (*Service, context.Context) {
	t.Helper()
	ctx := testContext(t)
	svc := New(ctx, Options{
		Resolver: fspath.New(fspath.CaseSensitive),
		Listing:  listing.Options{TokenSecret: []byte("test-secret")},
		Registry: registry.Options{DoneGrace: -1, CancelledGrace: -1},
	})
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc, ctx
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent should succeed")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644), "writing fixture should succeed")
}

func waitTerminal(t *testing.T, svc *Service, ctx context.Context, id string) registry.Operation {
	t.Helper()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	op, err := svc.Wait(ctx, id)
	require.NoError(t, err, "operation should finish")
	return op
}

func TestListDirectoryPages(t *testing.T) {
	svc, ctx := newTestService(t)
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("f%d.txt", i)), "x")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	seen := map[string]bool{}
	var names []string
	token := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, 10, "paging should terminate")
		page, err := svc.ListDirectory(ctx, "left", listing.Request{Path: dir, PageToken: token, PageSize: 2})
		require.NoError(t, err, "listing should succeed")
		assert.Equal(t, 6, page.TotalCount, "total should count every child")

		for _, e := range page.Entries {
			assert.False(t, seen[e.Path], "paths should be unique")
			seen[e.Path] = true
			joined, err := svc.Resolver().Join(dir, e.Name)
			require.NoError(t, err)
			assert.Equal(t, joined, e.Path, "entry path should be the folder joined with its name")
			names = append(names, e.Name)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	assert.Equal(t, []string{"sub", "f0.txt", "f1.txt", "f2.txt", "f3.txt", "f4.txt"}, names, "folders should come first")
}

func TestListDirectoryErrors(t *testing.T) {
	svc, ctx := newTestService(t)
	dir := t.TempDir()

	_, err := svc.ListDirectory(ctx, "", listing.Request{Path: filepath.Join(dir, "gone")})
	require.Error(t, err, "missing folder should fail")
	assert.Equal(t, "NOT_FOUND", fserr.ToPayload(err).Kind, "wire kind should be NOT_FOUND")

	_, err = svc.ListDirectory(ctx, "", listing.Request{Path: "relative/path"})
	require.Error(t, err, "relative path should fail")
	assert.Equal(t, fserr.CodePathInvalid, fserr.ToPayload(err).Code, "code should be PATH_INVALID")

	_, err = svc.GetFileInfo(ctx, filepath.Join(dir, "gone"))
	assert.Equal(t, fserr.KindNotFound, fserr.KindOf(err), "stat of a missing path should be not found")
}

func TestCreateFolder(t *testing.T) {
	svc, ctx := newTestService(t)
	dir := t.TempDir()

	entry, err := svc.CreateFolder(ctx, dir, "photos")
	require.NoError(t, err, "create should succeed")
	assert.Equal(t, listing.KindFolder, entry.Kind, "entry should be a folder")
	assert.Equal(t, filepath.Join(dir, "photos"), entry.Path, "entry path should match")

	_, err = svc.CreateFolder(ctx, dir, "photos")
	require.Error(t, err, "creating twice should fail")
	assert.Equal(t, fserr.CodeAlreadyExists, fserr.Classify(err).Code, "code should be ALREADY_EXISTS")

	_, err = svc.CreateFolder(ctx, dir, "a/b")
	assert.Equal(t, fserr.KindInvalidOperation, fserr.KindOf(err), "multi segment names should be rejected")
}

func TestRenameItem(t *testing.T) {
	svc, ctx := newTestService(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")

	entry, err := svc.RenameItem(ctx, filepath.Join(dir, "a.txt"), "c.txt")
	require.NoError(t, err, "rename should succeed")
	assert.Equal(t, "c.txt", entry.Name, "entry should carry the new name")
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"), "old name should be gone")

	_, err = svc.RenameItem(ctx, filepath.Join(dir, "c.txt"), "b.txt")
	require.Error(t, err, "renaming onto an existing name should fail")
	assert.Equal(t, fserr.CodeAlreadyExists, fserr.Classify(err).Code, "code should be ALREADY_EXISTS")
	got, _ := os.ReadFile(filepath.Join(dir, "b.txt"))
	assert.Equal(t, "b", string(got), "existing file should be untouched")

	_, err = svc.RenameItem(ctx, "/", "root")
	assert.Equal(t, fserr.KindInvalidOperation, fserr.KindOf(err), "renaming a root should be refused")

	_, err = svc.RenameItem(ctx, filepath.Join(dir, "c.txt"), "../escape.txt")
	assert.Equal(t, fserr.KindInvalidOperation, fserr.KindOf(err), "names with separators should be refused")

	_, err = svc.RenameItem(ctx, filepath.Join(dir, "missing"), "x")
	assert.Equal(t, fserr.KindNotFound, fserr.KindOf(err), "renaming a missing path should be not found")
}

func TestDeleteItems(t *testing.T) {
	svc, ctx := newTestService(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "tree", "deep", "b.txt"), "b")

	op, err := svc.DeleteItems(ctx, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "tree")})
	require.NoError(t, err, "delete should succeed")
	assert.Equal(t, status.StatusDone, op.Status, "status should be done")
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"), "file should be gone")
	assert.NoDirExists(t, filepath.Join(dir, "tree"), "folder should be gone")
}

func TestDeleteItemsPartialFailure(t *testing.T) {
	svc, ctx := newTestService(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	missing := filepath.Join(dir, "missing.txt")

	op, err := svc.DeleteItems(ctx, []string{filepath.Join(dir, "a.txt"), missing})
	require.Error(t, err, "partial delete should report an error")
	require.NotNil(t, op, "operation should be returned")
	assert.Equal(t, status.StatusPartiallySucceeded, op.Status, "status should be partially succeeded")
	assert.Equal(t, fserr.KindNotFound, fserr.KindOf(err), "error should carry the failing kind")

	failures := op.Failures()
	require.Len(t, failures, 1, "exactly one item should fail")
	assert.Equal(t, missing, failures[0].Source, "failing path should be reported")
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"), "other item should be gone")
}

func TestCopyItemsWithID(t *testing.T) {
	svc, ctx := newTestService(t)
	root := t.TempDir()
	src, dst := filepath.Join(root, "src"), filepath.Join(root, "dst")
	writeFile(t, filepath.Join(src, "a.txt"), "hello")
	require.NoError(t, os.MkdirAll(dst, 0o755))

	sub := svc.Subscribe(registry.Filter{Paths: []string{dst}})
	defer sub.Close()

	id, err := svc.CopyItems(ctx, []string{filepath.Join(src, "a.txt")}, dst, "client-chosen-id")
	require.NoError(t, err, "copy should start")
	assert.Equal(t, "client-chosen-id", id, "caller id should be kept")

	_, err = svc.CopyItems(ctx, []string{filepath.Join(src, "a.txt")}, dst, "client-chosen-id")
	assert.Error(t, err, "a live id cannot be reused")

	op := waitTerminal(t, svc, ctx, id)
	assert.Equal(t, status.StatusDone, op.Status, "copy should be done")
	got, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got), "content should be copied")

	refreshed := false
	deadline := time.After(2 * time.Second)
	for !refreshed {
		select {
		case ev := <-sub.Events():
			refreshed = ev.Name == registry.EventRefresh
		case <-deadline:
			t.Fatal("target panel was never told to refresh")
		}
	}

	assert.NoError(t, svc.CancelOperation(id), "cancelling a finished operation should be a no-op")
	assert.Equal(t, fserr.KindNotFound, fserr.KindOf(svc.CancelOperation("unknown")), "unknown ids should be not found")
}

func TestMoveItemsOutlivesRequestContext(t *testing.T) {
	svc, ctx := newTestService(t)
	root := t.TempDir()
	src, dst := filepath.Join(root, "src"), filepath.Join(root, "dst")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	require.NoError(t, os.MkdirAll(dst, 0o755))

	reqCtx, cancel := context.WithCancel(ctx)
	id, err := svc.MoveItems(reqCtx, []string{filepath.Join(src, "a.txt")}, dst, "")
	require.NoError(t, err, "move should start")
	cancel()

	op := waitTerminal(t, svc, ctx, id)
	assert.Equal(t, status.StatusDone, op.Status, "move should not be cancelled with the request")
	assert.FileExists(t, filepath.Join(dst, "a.txt"), "file should arrive")
	assert.NoFileExists(t, filepath.Join(src, "a.txt"), "source should be gone")
}

func TestStartRejectsBadInput(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.CopyItems(ctx, nil, "/tmp", "")
	assert.Equal(t, fserr.KindInvalidOperation, fserr.KindOf(err), "empty sources should be rejected")

	_, err = svc.CopyItems(ctx, []string{"relative"}, "/tmp", "")
	assert.Equal(t, fserr.CodePathInvalid, fserr.Classify(err).Code, "relative sources should be rejected")

	assert.Empty(t, svc.Operations(), "nothing should be registered")
}

func TestStartOperationFlags(t *testing.T) {
	svc, ctx := newTestService(t)
	root := t.TempDir()
	src, dst := filepath.Join(root, "src"), filepath.Join(root, "dst")
	writeFile(t, filepath.Join(src, "a.txt"), "new")
	writeFile(t, filepath.Join(dst, "a.txt"), "old")

	id, err := svc.StartOperation(ctx, "", operation.Request{Kind: status.KindCopy, Sources: []string{filepath.Join(src, "a.txt")}, Target: dst})
	require.NoError(t, err, "copy should start")
	op := waitTerminal(t, svc, ctx, id)
	assert.Equal(t, operation.OutcomeConflict, op.Items[0].Outcome, "existing file should conflict by default")

	id, err = svc.StartOperation(ctx, "with-overwrite", operation.Request{Kind: status.KindCopy, Sources: []string{filepath.Join(src, "a.txt")}, Target: dst, Overwrite: true})
	require.NoError(t, err, "copy should start")
	assert.Equal(t, "with-overwrite", id, "caller id should be kept")
	op = waitTerminal(t, svc, ctx, id)
	assert.Equal(t, status.StatusDone, op.Status, "overwrite should succeed")
	got, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got), "content should be replaced")

	_, err = svc.StartOperation(ctx, "", operation.Request{Kind: status.KindDelete, Sources: []string{dst}})
	assert.Equal(t, fserr.KindInvalidOperation, fserr.KindOf(err), "delete must go through DeleteItems")
	assert.DirExists(t, dst, "nothing should be deleted")
}

func TestCoordinatorPasteThroughService(t *testing.T) {
	svc, ctx := newTestService(t)
	root := t.TempDir()
	src, dst := filepath.Join(root, "src"), filepath.Join(root, "dst")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "b.txt"), "b")
	require.NoError(t, os.MkdirAll(dst, 0o755))

	c := svc.NewCoordinator(ctx)
	c.Clipboard().Cut([]string{filepath.Join(src, "a.txt"), filepath.Join(src, "b.txt")})

	// one item vanishes after the snapshot was taken
	require.NoError(t, os.Remove(filepath.Join(src, "b.txt")))

	id, err := c.Paste(ctx, dst)
	require.NoError(t, err, "paste should start")

	op := waitTerminal(t, svc, ctx, id)

	assert.Equal(t, status.StatusPartiallySucceeded, op.Status, "stale item should fail alone")
	require.Len(t, op.Failures(), 1, "one item should fail")
	assert.Equal(t, fserr.KindNotFound, op.Failures()[0].Error.Kind, "stale item should be not found")
	assert.FileExists(t, filepath.Join(dst, "a.txt"), "fresh item should be moved")

	_, ok := c.Clipboard().Contents()
	assert.True(t, ok, "clipboard should remain after a partial move")
}

func TestCutPasteClearsClipboard(t *testing.T) {
	svc, ctx := newTestService(t)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a")

	c := svc.NewCoordinator(ctx)
	c.Clipboard().Cut([]string{filepath.Join(src, "a.txt")})

	id, err := c.Paste(ctx, dst)
	require.NoError(t, err, "paste should start")

	op := waitTerminal(t, svc, ctx, id)
	require.Equal(t, status.StatusDone, op.Status, "move should succeed")
	assert.FileExists(t, filepath.Join(dst, "a.txt"), "item should be moved")

	assert.Eventually(t, func() bool {
		_, ok := c.Clipboard().Contents()
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "clipboard should empty once the move is done")
	assert.Zero(t, c.Pending(), "nothing should stay pending")
}

func TestDismissAndClear(t *testing.T) {
	svc, ctx := newTestService(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")

	op, err := svc.DeleteItems(ctx, []string{filepath.Join(dir, "a.txt")})
	require.NoError(t, err)
	require.Len(t, svc.Operations(), 1, "finished delete should stay until dismissed")

	require.NoError(t, svc.DismissOperation(op.ID), "dismiss should succeed")
	assert.Empty(t, svc.Operations(), "dismissed operation should be gone")

	_, err = svc.DeleteItems(ctx, []string{filepath.Join(dir, "missing")})
	require.Error(t, err)
	assert.Equal(t, 1, svc.ClearCompleted(), "failed delete should be cleared")
}

func TestAllowedRoots(t *testing.T) {
	ctx := testContext(t)
	base := t.TempDir()
	allowed, sibling := filepath.Join(base, "data"), filepath.Join(base, "data2")
	writeFile(t, filepath.Join(allowed, "a.txt"), "a")
	writeFile(t, filepath.Join(sibling, "b.txt"), "b")

	resolver, err := fspath.New(fspath.CaseSensitive).WithRoots(allowed)
	require.NoError(t, err, "roots should be accepted")
	svc := New(ctx, Options{
		Resolver: resolver,
		Listing:  listing.Options{TokenSecret: []byte("test-secret")},
		Registry: registry.Options{DoneGrace: -1, CancelledGrace: -1},
	})
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	page, err := svc.ListDirectory(ctx, "", listing.Request{Path: allowed})
	require.NoError(t, err, "listing inside the root should succeed")
	assert.Len(t, page.Entries, 1, "root contents should be listed")

	tests := []struct {
		name string
		call func() error
	}{
		{name: "list_sibling_prefix", call: func() error {
			_, err := svc.ListDirectory(ctx, "", listing.Request{Path: sibling})
			return err
		}},
		{name: "list_parent", call: func() error {
			_, err := svc.ListDirectory(ctx, "", listing.Request{Path: base})
			return err
		}},
		{name: "stat_outside", call: func() error {
			_, err := svc.GetFileInfo(ctx, filepath.Join(sibling, "b.txt"))
			return err
		}},
		{name: "copy_out_of_root", call: func() error {
			_, err := svc.CopyItems(ctx, []string{filepath.Join(allowed, "a.txt")}, sibling, "")
			return err
		}},
		{name: "copy_into_root", call: func() error {
			_, err := svc.CopyItems(ctx, []string{filepath.Join(sibling, "b.txt")}, allowed, "")
			return err
		}},
		{name: "delete_outside", call: func() error {
			_, err := svc.DeleteItems(ctx, []string{filepath.Join(sibling, "b.txt")})
			return err
		}},
		{name: "rename_the_root", call: func() error {
			_, err := svc.RenameItem(ctx, allowed, "moved")
			return err
		}},
		{name: "create_beside_root", call: func() error {
			_, err := svc.CreateFolder(ctx, base, "new")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err, "call should be refused")
			assert.Equal(t, fserr.KindPermissionDenied, fserr.KindOf(err), "error kind should be permission denied")
		})
	}

	assert.FileExists(t, filepath.Join(sibling, "b.txt"), "files outside the root should be untouched")
	assert.NoDirExists(t, filepath.Join(base, "new"), "nothing should be created outside the root")
	assert.Empty(t, svc.Operations(), "refused calls should register nothing")

	vols, err := svc.GetStorageVolumes(ctx)
	require.NoError(t, err, "volumes should list")
	require.Len(t, vols, 1, "only the allowed root should be offered")
	assert.Equal(t, allowed, vols[0].Path, "volume should be the root")
	assert.Equal(t, "data", vols[0].Name, "volume should be named after the folder")
}
