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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStorageVolumes(t *testing.T) {
	svc, ctx := newTestService(t)

	vols, err := svc.GetStorageVolumes(ctx)
	require.NoError(t, err, "listing volumes should succeed")
	require.NotEmpty(t, vols, "at least the root should be listed")

	root := vols[0]
	assert.Equal(t, "/", root.Path, "first volume should be the root")
	assert.Equal(t, "Root", root.Name, "root should be named")
	assert.GreaterOrEqual(t, root.TotalBytes, root.AvailableBytes, "available cannot exceed total")
	assert.False(t, root.IsRemovable, "root is not removable")

	seen := map[string]bool{}
	for _, v := range vols {
		assert.False(t, seen[v.Path], "volumes should be unique")
		seen[v.Path] = true
	}
}

func TestUnescapeMount(t *testing.T) {
	assert.Equal(t, "/media/usb stick", unescapeMount(`/media/usb\040stick`), "octal space should decode")
}
