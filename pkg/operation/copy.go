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
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
	"gitlab.com/tozd/go/errors"
)

// 📦 copyItem copies one top-level source into the target folder
func (e *Engine) copyItem(ctx context.Context, j *job, p *itemPlan, dst string, rep *reporter) error {
	if p.err != nil {
		return fserr.Wrap(p.err, p.source)
	}
	if e.resolver.Equal(p.source, dst) {
		return fserr.Invalid(fserr.CodeInvalidOperation, p.source, "source and destination are the same")
	}
	if p.info.IsDir() && e.resolver.IsWithin(j.target, p.source) {
		return fserr.Invalid(fserr.CodeInvalidOperation, p.source, "cannot copy a folder into itself")
	}

	return e.copyNode(ctx, j, p.source, dst, filepath.Base(p.source), p.info, rep)
}

// copyNode copies src to dst depth-first. The first nested failure stops the walk.
func (e *Engine) copyNode(ctx context.Context, j *job, src, dst, rel string, info fs.FileInfo, rep *reporter) error {
	if ctx.Err() != nil {
		return fserr.Cancelled(src)
	}

	if info.IsDir() {
		return e.copyDir(ctx, j, src, dst, rel, info, rep)
	}

	rep.setCurrent(src)

	var err error
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		err = e.copySymlink(src, dst, j.overwrite)
	case info.Mode().IsRegular():
		err = e.copyFile(ctx, src, dst, info, j.overwrite, rep)
	default:
		err = fserr.Invalid(fserr.CodeInvalidOperation, src, "unsupported file type %s", info.Mode().Type())
	}

	if !fserr.IsCancelled(err) {
		rep.addFiles(1)
	}
	return err
}

func (e *Engine) copyDir(ctx context.Context, j *job, src, dst, rel string, info fs.FileInfo, rep *reporter) error {
	exists, err := checkDestination(dst, true, j.overwrite)
	if err != nil {
		return err
	}
	if !exists {
		if err := os.Mkdir(dst, info.Mode().Perm()|0o700); err != nil {
			return fserr.Wrap(err, dst)
		}
	}

	des, err := os.ReadDir(src)
	if err != nil {
		return fserr.Wrap(err, src)
	}

	for _, de := range des {
		childSrc := filepath.Join(src, de.Name())
		childRel := rel + "/" + de.Name()
		if j.excluded(childRel) {
			zerolog.Ctx(ctx).Debug().Str("path", childSrc).Msg("excluded by pattern")
			continue
		}

		ci, err := de.Info()
		if err != nil {
			return fserr.Wrap(err, childSrc)
		}

		if err := e.copyNode(ctx, j, childSrc, filepath.Join(dst, de.Name()), childRel, ci, rep); err != nil {
			return err
		}
	}

	if !exists {
		preserveAttributes(ctx, dst, info)
	}
	return nil
}

// 📄 copyFile streams src into a temp file next to dst and renames it into place.
// The destination path never holds a partially written file.
func (e *Engine) copyFile(ctx context.Context, src, dst string, info fs.FileInfo, overwrite bool, rep *reporter) error {
	if _, err := checkDestination(dst, false, overwrite); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fserr.Wrap(err, src)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), tempPrefix+"*.tmp")
	if err != nil {
		return fserr.Wrap(err, dst)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	buf := make([]byte, e.opts.ChunkSize)
	for {
		if ctx.Err() != nil {
			return fserr.Cancelled(src)
		}

		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				return fserr.Wrap(werr, dst)
			}
			rep.addBytes(int64(n))
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return fserr.Wrap(rerr, src)
		}
	}

	if err := tmp.Sync(); err != nil {
		return fserr.Wrap(err, dst)
	}
	if err := tmp.Close(); err != nil {
		return fserr.Wrap(err, dst)
	}

	preserveAttributes(ctx, tmpName, info)

	if err := placeFile(tmpName, dst, overwrite); err != nil {
		return err
	}
	committed = true
	return nil
}

func (e *Engine) copySymlink(src, dst string, overwrite bool) error {
	if _, err := checkDestination(dst, false, overwrite); err != nil {
		return err
	}

	link, err := os.Readlink(src)
	if err != nil {
		return fserr.Wrap(err, src)
	}

	tmpName := filepath.Join(filepath.Dir(dst), tempPrefix+uuid.NewString()+".lnk")
	if err := os.Symlink(link, tmpName); err != nil {
		return fserr.Wrap(err, dst)
	}

	if err := placeFile(tmpName, dst, overwrite); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// placeFile renames a finished temp file onto dst
func placeFile(tmpName, dst string, overwrite bool) error {
	var err error
	if overwrite {
		err = os.Rename(tmpName, dst)
	} else {
		err = renameNoReplace(tmpName, dst)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return conflict(dst)
	}
	return fserr.Wrap(err, dst)
}

// checkDestination reports whether dst exists and whether writing over it is allowed.
// A folder is never replaced by a file, nor a file by a folder.
func checkDestination(dst string, srcIsDir, overwrite bool) (bool, error) {
	di, err := os.Lstat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fserr.Wrap(err, dst)
	}
	if !overwrite || srcIsDir != di.IsDir() {
		return true, conflict(dst)
	}
	return true, nil
}

func conflict(dst string) *fserr.Error {
	return fserr.New(fserr.KindInvalidOperation, fserr.CodeAlreadyExists, dst, "destination already exists")
}

func preserveAttributes(ctx context.Context, path string, info fs.FileInfo) {
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		zerolog.Ctx(ctx).Debug().Str("path", path).Err(err).Msg("preserving mode")
	}
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		zerolog.Ctx(ctx).Debug().Str("path", path).Err(err).Msg("preserving times")
	}
}
