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

	"github.com/walteh/dualpane/pkg/fserr"
	"gitlab.com/tozd/go/errors"
)

// 🗑️ deleteItem removes a source recursively, one file at a time so it stays cancellable
func (e *Engine) deleteItem(ctx context.Context, p *itemPlan, rep *reporter) error {
	if p.err != nil {
		return fserr.Wrap(p.err, p.source)
	}
	return e.removeNode(ctx, p.source, p.info, rep)
}

func (e *Engine) removeNode(ctx context.Context, path string, info fs.FileInfo, rep *reporter) error {
	if ctx.Err() != nil {
		return fserr.Cancelled(path)
	}

	if info.IsDir() {
		des, err := os.ReadDir(path)
		if err != nil {
			return fserr.Wrap(err, path)
		}
		for _, de := range des {
			child := filepath.Join(path, de.Name())
			ci, err := de.Info()
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return fserr.Wrap(err, child)
			}
			if err := e.removeNode(ctx, child, ci, rep); err != nil {
				return err
			}
		}
		if err := os.Remove(path); err != nil {
			return fserr.Wrap(err, path)
		}
		return nil
	}

	rep.setCurrent(path)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fserr.Wrap(err, path)
	}
	if info.Mode().IsRegular() {
		rep.addBytes(info.Size())
	}
	rep.addFiles(1)
	return nil
}
