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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
	"gitlab.com/tozd/go/errors"
)

// 🚚 moveItem renames within a volume and falls back to copy-then-delete across volumes
func (e *Engine) moveItem(ctx context.Context, j *job, p *itemPlan, dst string, rep *reporter) error {
	logger := zerolog.Ctx(ctx)

	if p.err != nil {
		return fserr.Wrap(p.err, p.source)
	}
	if e.resolver.Equal(p.source, dst) {
		return fserr.Invalid(fserr.CodeInvalidOperation, p.source, "source and destination are the same")
	}
	if p.info.IsDir() && e.resolver.IsWithin(j.target, p.source) {
		return fserr.Invalid(fserr.CodeInvalidOperation, p.source, "cannot move a folder into itself")
	}
	if err := checkMoveDestination(dst, p.info.IsDir(), j.overwrite); err != nil {
		return err
	}

	rep.setCurrent(p.source)

	same, err := sameVolume(p.source, j.target)
	if err != nil {
		// let the rename decide; a cross-device error still falls back
		logger.Debug().Err(err).Msg("volume detection failed")
		same = true
	}

	if same {
		err := renameInto(p.source, dst, j.overwrite)
		if err == nil {
			rep.addBytes(p.bytes)
			rep.addFiles(p.files)
			return nil
		}
		if !isCrossDevice(err) {
			if errors.Is(err, fs.ErrExist) {
				return conflict(dst)
			}
			return fserr.Wrap(err, p.source)
		}
		logger.Debug().Str("source", p.source).Msg("rename crossed devices, falling back to copy")
	}

	return e.moveAcrossVolumes(ctx, j, p, dst, rep)
}

// moveAcrossVolumes copies the item completely before the source is touched.
// A failed or cancelled copy leaves the source intact and no partial destination.
func (e *Engine) moveAcrossVolumes(ctx context.Context, j *job, p *itemPlan, dst string, rep *reporter) error {
	name := filepath.Base(p.source)

	if !p.info.IsDir() {
		// copyFile stages through its own temp file
		if err := e.copyNode(ctx, j, p.source, dst, name, p.info, rep); err != nil {
			return err
		}
		return removeMovedSource(p.source, dst, os.Remove)
	}

	stage := filepath.Join(j.target, tempPrefix+"move-"+uuid.NewString())
	if err := e.copyNode(ctx, j, p.source, stage, name, p.info, rep); err != nil {
		_ = os.RemoveAll(stage)
		return err
	}

	if err := renameInto(stage, dst, j.overwrite); err != nil {
		_ = os.RemoveAll(stage)
		if errors.Is(err, fs.ErrExist) {
			return conflict(dst)
		}
		return fserr.Wrap(err, dst)
	}

	return removeMovedSource(p.source, dst, os.RemoveAll)
}

func removeMovedSource(src, dst string, remove func(string) error) error {
	if err := remove(src); err != nil {
		return fserr.Wrap(errors.Errorf("copied to %s but removing the source failed: %w", dst, err), src)
	}
	return nil
}

func renameInto(src, dst string, overwrite bool) error {
	if overwrite {
		return os.Rename(src, dst)
	}
	return renameNoReplace(src, dst)
}

// checkMoveDestination only ever allows a file to replace a file
func checkMoveDestination(dst string, srcIsDir, overwrite bool) error {
	di, err := os.Lstat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fserr.Wrap(err, dst)
	}
	if !overwrite || srcIsDir || di.IsDir() {
		return conflict(dst)
	}
	return nil
}
