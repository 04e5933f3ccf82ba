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

package operation

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/status"
	"golang.org/x/sync/errgroup"
)

// job is a validated request with canonical paths
type job struct {
	kind      status.Kind
	sources   []string
	target    string
	overwrite bool
	exclude   []string
}

func (j *job) destination(src string) string {
	return filepath.Join(j.target, filepath.Base(src))
}

// excluded matches a descendant against the exclude patterns.
// rel is slash separated and starts with the top-level item name.
func (j *job) excluded(rel string) bool {
	if j.kind != status.KindCopy || len(j.exclude) == 0 {
		return false
	}
	name := filepath.Base(filepath.FromSlash(rel))
	for _, pattern := range j.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// itemPlan is the pre-computed size of one source item
type itemPlan struct {
	source string
	info   fs.FileInfo
	err    error
	files  int
	bytes  int64
}

func (e *Engine) prepare(req Request) (*job, error) {
	switch req.Kind {
	case status.KindCopy, status.KindMove, status.KindDelete:
	default:
		return nil, fserr.Invalid(fserr.CodeInvalidOperation, "", "unknown operation kind %d", int(req.Kind))
	}

	if len(req.Sources) == 0 {
		return nil, fserr.Invalid(fserr.CodeInvalidOperation, "", "no source paths given")
	}

	sources, err := e.resolver.NormalizeAll(req.Sources)
	if err != nil {
		return nil, err
	}

	j := &job{
		kind:      req.Kind,
		sources:   e.resolver.Dedupe(sources),
		overwrite: req.Overwrite,
		exclude:   e.opts.Exclude,
	}

	if req.Kind == status.KindDelete {
		return j, nil
	}

	if j.target, err = e.resolver.Normalize(req.Target); err != nil {
		return nil, err
	}

	info, err := os.Stat(j.target)
	if err != nil {
		return nil, fserr.Wrap(err, j.target)
	}
	if !info.IsDir() {
		return nil, fserr.Invalid(fserr.CodePathInvalid, j.target, "target is not a folder")
	}

	return j, nil
}

// 📏 plan measures every source in parallel so totals are known before the first byte moves.
// Only cancellation fails the plan; per-item problems surface when the item runs.
func (e *Engine) plan(ctx context.Context, j *job) ([]*itemPlan, error) {
	plans := make([]*itemPlan, len(j.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(walkConcurrency)

	for i, src := range j.sources {
		g.Go(func() error {
			p, err := e.measure(gctx, j, src)
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

func (e *Engine) measure(ctx context.Context, j *job, src string) (*itemPlan, error) {
	p := &itemPlan{source: src}

	if j.kind == status.KindDelete && e.resolver.IsRoot(src) {
		p.err = fserr.Invalid(fserr.CodeInvalidOperation, src, "refusing to delete a filesystem root")
		return p, nil
	}

	info, err := os.Lstat(src)
	if err != nil {
		p.err = err
		return p, nil
	}
	p.info = info

	if !info.IsDir() {
		p.files = 1
		if info.Mode().IsRegular() {
			p.bytes = info.Size()
		}
		return p, nil
	}

	parent := filepath.Dir(src)
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, werr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if werr != nil {
			// unreadable subtrees are reported when the item runs
			zerolog.Ctx(ctx).Debug().Str("path", path).Err(werr).Msg("skipping unreadable entry while measuring")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == src {
			return nil
		}

		rel, _ := filepath.Rel(parent, path)
		if j.excluded(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		p.files++
		if d.Type().IsRegular() {
			if fi, err := d.Info(); err == nil {
				p.bytes += fi.Size()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}
