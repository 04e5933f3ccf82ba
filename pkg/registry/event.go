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

package registry

import (
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/status"
)

// 📣 Event names as seen by subscribers
const (
	EventStatus  = "operation:status"
	EventRefresh = "refresh"
	EventChanged = "operations:changed"
)

// Event is one notification delivered to subscribers
type Event struct {
	Name        string `json:"event"`
	OperationID string `json:"operationId,omitempty"`
	Payload     any    `json:"payload"`

	progress bool
	paths    []string
}

// IsProgress reports whether the event is a progress snapshot
func (e Event) IsProgress() bool {
	return e.progress
}

// ProgressPayload is the body of copy:progress, move:progress and delete:progress
type ProgressPayload struct {
	OperationID  string `json:"operationId"`
	CurrentFile  string `json:"currentFile"`
	CurrentIndex int    `json:"currentIndex"`
	TotalFiles   int    `json:"totalFiles"`
	BytesCopied  int64  `json:"bytesCopied"`
	TotalBytes   int64  `json:"totalBytes"`
	ElapsedMs    int64  `json:"elapsedMs"`
}

func newProgressPayload(id string, p status.Progress) ProgressPayload {
	idx := p.FilesProcessed + 1
	if idx > p.TotalFiles {
		idx = p.TotalFiles
	}
	return ProgressPayload{
		OperationID:  id,
		CurrentFile:  p.CurrentFile,
		CurrentIndex: idx,
		TotalFiles:   p.TotalFiles,
		BytesCopied:  p.BytesProcessed,
		TotalBytes:   p.TotalBytes,
		ElapsedMs:    p.ElapsedMs,
	}
}

// RefreshPayload tells panels viewing any of Paths to list again
type RefreshPayload struct {
	Paths []string `json:"paths"`
}

// ChangedPayload reports operations removed from the table
type ChangedPayload struct {
	Dismissed []string `json:"dismissed"`
}

// 🔎 Filter selects the events a subscriber receives. The zero filter receives everything.
type Filter struct {
	OperationIDs []string
	// Paths are folders the subscriber is viewing; events touching them or an ancestor match
	Paths []string
}

func (f Filter) matches(r *fspath.Resolver, ev Event) bool {
	if len(f.OperationIDs) == 0 && len(f.Paths) == 0 {
		return true
	}
	if ev.OperationID != "" {
		for _, id := range f.OperationIDs {
			if id == ev.OperationID {
				return true
			}
		}
	}
	for _, interest := range f.Paths {
		for _, p := range ev.paths {
			if r.IsWithin(interest, p) {
				return true
			}
		}
	}
	return false
}
