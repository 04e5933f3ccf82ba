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

//go:build darwin || freebsd

package service

import (
	"os"
	"path/filepath"

	"github.com/walteh/dualpane/pkg/fserr"
)

func candidateVolumes() ([]Volume, error) {
	out := []Volume{{Name: "Root", Path: "/"}}

	entries, err := os.ReadDir("/Volumes")
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fserr.Wrap(err, "/Volumes")
	}

	rootInfo, _ := os.Stat("/")
	for _, e := range entries {
		p := filepath.Join("/Volumes", e.Name())
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		// the boot volume shows up in /Volumes as a link back to /
		if rootInfo != nil && os.SameFile(rootInfo, info) {
			continue
		}
		out = append(out, Volume{Name: e.Name(), Path: p, IsRemovable: true})
	}
	return out, nil
}
