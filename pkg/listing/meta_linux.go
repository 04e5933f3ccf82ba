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
	"io/fs"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

func platformMeta(path, name string, info fs.FileInfo) meta {
	m := meta{
		hidden:   strings.HasPrefix(name, "."),
		readonly: info.Mode().Perm()&0o200 == 0,
	}

	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx); err == nil && stx.Mask&unix.STATX_BTIME != 0 {
		t := time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
		m.createdAt = &t
	}

	return m
}
