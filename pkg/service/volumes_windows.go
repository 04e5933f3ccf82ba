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

package service

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func candidateVolumes() ([]Volume, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, err
	}

	var out []Volume
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := 'A' + rune(i)
		root := fmt.Sprintf("%c:\\", letter)
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}
		out = append(out, Volume{
			Name:        fmt.Sprintf("Local Disk (%c:)", letter),
			Path:        root,
			IsRemovable: windows.GetDriveType(rootPtr) == windows.DRIVE_REMOVABLE,
		})
	}
	return out, nil
}

func fillCapacity(v *Volume) error {
	rootPtr, err := windows.UTF16PtrFromString(v.Path)
	if err != nil {
		return err
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(rootPtr, &free, &total, &totalFree); err != nil {
		return err
	}
	v.TotalBytes = total
	v.AvailableBytes = free
	v.UsedBytes = total - totalFree
	return nil
}
