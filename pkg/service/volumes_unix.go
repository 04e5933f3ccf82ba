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

//go:build linux || darwin || freebsd

package service

import (
	"golang.org/x/sys/unix"

	"github.com/walteh/dualpane/pkg/fserr"
)

func fillCapacity(v *Volume) error {
	var st unix.Statfs_t
	if err := unix.Statfs(v.Path, &st); err != nil {
		return fserr.Wrap(err, v.Path)
	}
	bsize := uint64(st.Bsize)
	v.TotalBytes = uint64(st.Blocks) * bsize
	v.AvailableBytes = uint64(st.Bavail) * bsize
	v.UsedBytes = v.TotalBytes - uint64(st.Bfree)*bsize
	return nil
}
