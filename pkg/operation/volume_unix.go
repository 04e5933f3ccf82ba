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

//go:build unix

package operation

import (
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sys/unix"
)

// sameVolume compares the device of the source itself with the device of the target folder
func sameVolume(src, targetDir string) (bool, error) {
	var s, t unix.Stat_t
	if err := unix.Lstat(src, &s); err != nil {
		return false, errors.Errorf("stat %s: %w", src, err)
	}
	if err := unix.Stat(targetDir, &t); err != nil {
		return false, errors.Errorf("stat %s: %w", targetDir, err)
	}
	return s.Dev == t.Dev, nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
