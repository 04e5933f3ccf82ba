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

package commands

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

func absPath(raw string) (string, error) {
	p, err := filepath.Abs(raw)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", raw, err)
	}
	return p, nil
}

func absPaths(raws []string) ([]string, error) {
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		p, err := absPath(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	if err := enc.Encode(v); err != nil {
		return errors.Errorf("encoding output: %w", err)
	}
	return nil
}

// detached keeps ctx values such as the logger but drops cancellation
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
