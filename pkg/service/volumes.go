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
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// 💽 Volume is one storage location a panel can open
type Volume struct {
	Name           string `json:"name"`
	Path           string `json:"path"`
	TotalBytes     uint64 `json:"totalBytes"`
	UsedBytes      uint64 `json:"usedBytes"`
	AvailableBytes uint64 `json:"availableBytes"`
	IsRemovable    bool   `json:"isRemovable"`
}

// GetStorageVolumes lists the roots worth offering in a panel sidebar.
// A volume whose capacity cannot be read is still listed, with zero sizes.
func (s *Service) GetStorageVolumes(ctx context.Context) ([]Volume, error) {
	logger := zerolog.Ctx(ctx)

	var candidates []Volume
	if roots := s.resolver.Roots(); len(roots) > 0 {
		// a restricted service offers exactly its allowed roots
		for _, root := range roots {
			candidates = append(candidates, Volume{Name: filepath.Base(root), Path: root})
		}
	} else {
		found, err := candidateVolumes()
		if err != nil {
			return nil, err
		}
		candidates = found
		if home, herr := os.UserHomeDir(); herr == nil && home != "" {
			candidates = append(candidates, Volume{Name: "Home", Path: home})
		}
	}

	out := make([]Volume, 0, len(candidates))
	seen := map[string]struct{}{}
	for _, v := range candidates {
		k := s.resolver.Key(v.Path)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}

		if err := fillCapacity(&v); err != nil {
			logger.Debug().Err(err).Str("path", v.Path).Msg("reading volume capacity")
		}
		out = append(out, v)
	}
	return out, nil
}
