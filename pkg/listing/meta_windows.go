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
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

func platformMeta(_, _ string, info fs.FileInfo) meta {
	m := meta{readonly: info.Mode().Perm()&0o200 == 0}

	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return m
	}

	m.hidden = data.FileAttributes&(windows.FILE_ATTRIBUTE_HIDDEN|windows.FILE_ATTRIBUTE_SYSTEM) != 0
	m.readonly = m.readonly || data.FileAttributes&windows.FILE_ATTRIBUTE_READONLY != 0

	if ns := data.CreationTime.Nanoseconds(); ns > 0 {
		t := time.Unix(0, ns)
		m.createdAt = &t
	}

	return m
}
