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
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/walteh/dualpane/pkg/fserr"
)

// mount points users plug media into
var removablePrefixes = []string{"/media/", "/run/media/", "/mnt/"}

func candidateVolumes() ([]Volume, error) {
	out := []Volume{{Name: "Root", Path: "/"}}

	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fserr.Wrap(err, "/proc/self/mounts")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mount := unescapeMount(fields[1])
		for _, prefix := range removablePrefixes {
			if strings.HasPrefix(mount, prefix) {
				out = append(out, Volume{Name: filepath.Base(mount), Path: mount, IsRemovable: true})
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fserr.Wrap(err, "/proc/self/mounts")
	}
	return out, nil
}

// unescapeMount decodes the octal escapes the kernel uses for spaces and tabs
func unescapeMount(s string) string {
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}
