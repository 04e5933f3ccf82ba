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

package listing

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/metrics"
	"gitlab.com/tozd/go/errors"
)

const (
	DefaultPageSize = 200
	MaxPageSize     = 5000
)

// 🔃 SortKey selects the secondary ordering after folders-first
type SortKey int

const (
	SortByName SortKey = iota
	SortBySize
	SortByModified
)

// String returns a string representation of SortKey
func (k SortKey) String() string {
	switch k {
	case SortBySize:
		return "size"
	case SortByModified:
		return "modified"
	default:
		return "name"
	}
}

// ParseSortKey accepts "name", "size" or "modified"; empty means name
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return SortByName, nil
	case "size":
		return SortBySize, nil
	case "modified", "modifiedat", "date":
		return SortByModified, nil
	default:
		return SortByName, fserr.Invalid(fserr.CodeInvalidOperation, "", "unknown sort key %q", s)
	}
}

// 📋 Request describes one page of a directory listing
type Request struct {
	Path       string
	PageToken  string
	PageSize   int
	SortBy     SortKey
	Descending bool
	Match      string // optional doublestar pattern applied to entry names
}

// 📃 Page is one immutable batch of a listing
type Page struct {
	Path          string  `json:"path"`
	Entries       []Entry `json:"entries"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	TotalCount    int     `json:"totalCount"`
}

// Options configures a Lister
type Options struct {
	PageSize    int
	MaxPageSize int
	TokenSecret []byte
}

// 📂 Lister enumerates the immediate children of a folder
type Lister struct {
	resolver *fspath.Resolver
	opts     Options
	signer   *tokenSigner
}

// New creates a lister; zero options fall back to package defaults
func New(resolver *fspath.Resolver, opts Options) *Lister {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = MaxPageSize
	}
	if opts.PageSize > opts.MaxPageSize {
		opts.PageSize = opts.MaxPageSize
	}
	return &Lister{
		resolver: resolver,
		opts:     opts,
		signer:   newTokenSigner(opts.TokenSecret),
	}
}

// Resolver returns the path resolver used by the lister
func (l *Lister) Resolver() *fspath.Resolver {
	return l.resolver
}

// List returns one page of the folder's children.
// Symlinks are reported as KindSymlink and never descended into.
func (l *Lister) List(ctx context.Context, req Request) (*Page, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx)

	dir, err := l.resolver.Normalize(req.Path)
	if err != nil {
		return nil, err
	}

	size, err := l.pageSize(dir, req.PageSize)
	if err != nil {
		return nil, err
	}

	if req.Match != "" && !doublestar.ValidatePattern(req.Match) {
		return nil, fserr.Invalid(fserr.CodeInvalidOperation, dir, "invalid match pattern %q", req.Match)
	}

	fingerprint := queryFingerprint(req)
	offset := 0
	if req.PageToken != "" {
		if offset, err = l.signer.verify(req.PageToken, l.resolver.Key(dir), fingerprint); err != nil {
			return nil, err
		}
	}

	entries, err := l.readAll(ctx, dir, req.Match)
	if err != nil {
		metrics.ObserveListing("error", time.Since(start))
		return nil, err
	}

	sortEntries(entries, req.SortBy, req.Descending)

	page := &Page{Path: dir, TotalCount: len(entries), Entries: []Entry{}}
	if offset < len(entries) {
		end := min(offset+size, len(entries))
		page.Entries = entries[offset:end]
		if end < len(entries) {
			page.NextPageToken = l.signer.issue(l.resolver.Key(dir), fingerprint, end)
		}
	}

	metrics.ObserveListing("ok", time.Since(start))
	logger.Debug().
		Str("path", dir).
		Int("offset", offset).
		Int("returned", len(page.Entries)).
		Int("total", page.TotalCount).
		Msg("listed directory")

	return page, nil
}

// Stat returns the entry for a single path without following a final symlink
func (l *Lister) Stat(ctx context.Context, path string) (*Entry, error) {
	p, err := l.resolver.Normalize(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fserr.Wrap(err, p)
	}

	info, err := os.Lstat(p)
	if err != nil {
		return nil, fserr.Wrap(err, p)
	}

	e := NewEntry(p, info)
	return &e, nil
}

func (l *Lister) pageSize(dir string, requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, fserr.Invalid(fserr.CodeInvalidOperation, dir, "page size must not be negative")
	case requested == 0:
		return l.opts.PageSize, nil
	case requested > l.opts.MaxPageSize:
		return l.opts.MaxPageSize, nil
	default:
		return requested, nil
	}
}

func (l *Lister) readAll(ctx context.Context, dir, match string) ([]Entry, error) {
	// the requested folder itself may be reached through a symlink the user chose to open
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fserr.Wrap(err, dir)
	}
	if !info.IsDir() {
		return nil, fserr.Invalid(fserr.CodePathInvalid, dir, "not a directory")
	}

	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fserr.Wrap(errors.Errorf("reading directory: %w", err), dir)
	}

	entries := make([]Entry, 0, len(des))
	for i, de := range des {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fserr.Wrap(err, dir)
			}
		}

		name := de.Name()
		if match != "" {
			if ok, _ := doublestar.Match(match, name); !ok {
				continue
			}
		}

		fi, err := de.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// removed between readdir and lstat
				continue
			}
			return nil, fserr.Wrap(err, filepath.Join(dir, name))
		}

		entries = append(entries, NewEntry(filepath.Join(dir, name), fi))
	}

	return entries, nil
}

// sortEntries puts folders first, then orders by key; direction applies to the key only
func sortEntries(entries []Entry, by SortKey, desc bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}

		c := compareBy(a, b, by)
		if c == 0 {
			c = compareNames(a.Name, b.Name)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareBy(a, b Entry, by SortKey) int {
	switch by {
	case SortBySize:
		return cmpInt64(a.Size, b.Size)
	case SortByModified:
		return cmpInt64(unixNano(a.ModifiedAt), unixNano(b.ModifiedAt))
	default:
		return compareNames(a.Name, b.Name)
	}
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func unixNano(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}

func queryFingerprint(req Request) string {
	return req.SortBy.String() + "|" + strconv.FormatBool(req.Descending) + "|" + req.Match
}
