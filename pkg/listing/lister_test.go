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

package listing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644), "writing fixture should succeed")
}

func setupTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Zeta"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "alpha"), 0o755))
	writeFile(t, filepath.Join(dir, "b.TXT"), 1024)
	writeFile(t, filepath.Join(dir, "A.md"), 10)
	writeFile(t, filepath.Join(dir, ".hidden"), 1)
	require.NoError(t, os.Symlink(filepath.Join(dir, "alpha"), filepath.Join(dir, "link")))
	return dir
}

func TestListOrderingAndMetadata(t *testing.T) {
	ctx := testContext(t)
	dir := setupTree(t)
	l := New(fspath.New(fspath.CaseSensitive), Options{})

	page, err := l.List(ctx, Request{Path: dir})
	require.NoError(t, err, "listing should succeed")

	var names []string
	for _, e := range page.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"alpha", "Zeta", ".hidden", "A.md", "b.TXT", "link"}, names, "folders should come first, then case-insensitive names")
	assert.Equal(t, 6, page.TotalCount, "total count should match")
	assert.Empty(t, page.NextPageToken, "single page should have no next token")

	byName := map[string]Entry{}
	for _, e := range page.Entries {
		byName[e.Name] = e
	}

	assert.Equal(t, KindFolder, byName["alpha"].Kind, "alpha should be a folder")
	assert.Equal(t, KindSymlink, byName["link"].Kind, "symlinks should be a distinct kind")
	assert.Equal(t, int64(1024), byName["b.TXT"].Size, "size should match")
	assert.Equal(t, "txt", byName["b.TXT"].Extension, "extension should be lowercase")
	assert.Equal(t, "", byName[".hidden"].Extension, "dotfiles have no extension")
	assert.True(t, byName[".hidden"].IsHidden, "dotfiles should be hidden")
	assert.False(t, byName["A.md"].IsHidden, "regular files should not be hidden")
	assert.NotNil(t, byName["A.md"].ModifiedAt, "modified time should be set")
}

func TestListEntriesAreUniqueAndJoinable(t *testing.T) {
	ctx := testContext(t)
	dir := setupTree(t)
	r := fspath.New(fspath.CaseSensitive)
	l := New(r, Options{})

	// request with redundant separators; entries are keyed by the canonical form
	page, err := l.List(ctx, Request{Path: dir + "//./"})
	require.NoError(t, err, "listing should succeed")

	seen := map[string]bool{}
	for _, e := range page.Entries {
		assert.False(t, seen[e.Path], "path %s should be unique", e.Path)
		seen[e.Path] = true

		joined, err := r.Join(dir, e.Name)
		require.NoError(t, err, "join should succeed")
		assert.Equal(t, joined, e.Path, "entry path should equal request path joined with name")
	}
}

func TestListPagination(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		writeFile(t, filepath.Join(dir, n), 1)
	}
	l := New(fspath.New(fspath.CaseSensitive), Options{TokenSecret: []byte("secret")})

	var got []string
	token := ""
	pages := 0
	for {
		page, err := l.List(ctx, Request{Path: dir, PageSize: 2, PageToken: token})
		require.NoError(t, err, "page %d should succeed", pages)
		pages++
		for _, e := range page.Entries {
			got = append(got, e.Name)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	assert.Equal(t, 3, pages, "five entries at two per page should take three pages")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got, "pages should cover every entry once")

	first, err := l.List(ctx, Request{Path: dir, PageSize: 2})
	require.NoError(t, err)
	require.NotEmpty(t, first.NextPageToken)

	tests := []struct {
		name string
		req  Request
	}{
		{name: "other_path", req: Request{Path: t.TempDir(), PageToken: first.NextPageToken}},
		{name: "other_sort", req: Request{Path: dir, PageToken: first.NextPageToken, SortBy: SortBySize}},
		{name: "tampered", req: Request{Path: dir, PageToken: first.NextPageToken + "x"}},
		{name: "garbage", req: Request{Path: dir, PageToken: "not-a-token"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.List(ctx, tt.req)
			require.Error(t, err, "invalid token should fail")
			assert.Equal(t, fserr.CodeInvalidPageToken, fserr.Classify(err).Code, "code should be INVALID_PAGE_TOKEN")
			assert.Equal(t, "PERMANENT", fserr.ToPayload(err).Kind, "wire kind should be PERMANENT")
		})
	}
}

func TestListErrors(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	writeFile(t, file, 3)
	l := New(fspath.New(fspath.CaseSensitive), Options{})

	_, err := l.List(ctx, Request{Path: filepath.Join(dir, "missing")})
	require.Error(t, err, "missing folder should fail")
	assert.Equal(t, fserr.KindNotFound, fserr.KindOf(err), "kind should be not found")

	_, err = l.List(ctx, Request{Path: file})
	require.Error(t, err, "listing a file should fail")
	assert.Equal(t, fserr.CodePathInvalid, fserr.Classify(err).Code, "code should be PATH_INVALID")

	_, err = l.List(ctx, Request{Path: "relative/dir"})
	require.Error(t, err, "relative path should fail")

	_, err = l.List(ctx, Request{Path: dir, PageSize: -1})
	require.Error(t, err, "negative page size should fail")
}

func TestListMatchAndSort(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.log"), 1)
	writeFile(t, filepath.Join(dir, "big.log"), 300)
	writeFile(t, filepath.Join(dir, "notes.txt"), 50)
	l := New(fspath.New(fspath.CaseSensitive), Options{})

	page, err := l.List(ctx, Request{Path: dir, Match: "*.log", SortBy: SortBySize, Descending: true})
	require.NoError(t, err, "listing should succeed")
	require.Len(t, page.Entries, 2, "only log files should match")
	assert.Equal(t, "big.log", page.Entries[0].Name, "largest file should come first")
	assert.Equal(t, "small.log", page.Entries[1].Name, "smallest file should come last")

	_, err = l.List(ctx, Request{Path: dir, Match: "[unclosed"})
	assert.Error(t, err, "invalid pattern should fail")
}

func TestStat(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "ro.bin")
	writeFile(t, file, 7)
	require.NoError(t, os.Chmod(file, 0o444))
	l := New(fspath.New(fspath.CaseSensitive), Options{})

	e, err := l.Stat(ctx, file)
	require.NoError(t, err, "stat should succeed")
	assert.Equal(t, "ro.bin", e.Name, "name should match")
	assert.Equal(t, int64(7), e.Size, "size should match")
	assert.True(t, e.IsReadonly, "read-only mode should be reported")

	_, err = l.Stat(ctx, filepath.Join(dir, "nope"))
	assert.Equal(t, fserr.KindNotFound, fserr.KindOf(err), "missing stat should be not found")
}
