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

package status

import (
	"gitlab.com/tozd/go/errors"
)

// 📊 Status is the lifecycle state of an operation
type Status int

const (
	StatusRunning            Status = iota
	StatusDone                      // every item succeeded
	StatusPartiallySucceeded        // some items succeeded, some failed or conflicted
	StatusFailed                    // nothing succeeded, or aborted on first error
	StatusCancelled                 // stopped by the user
)

var statusNames = map[Status]string{
	StatusRunning:            "running",
	StatusDone:               "done",
	StatusPartiallySucceeded: "partially_succeeded",
	StatusFailed:             "failed",
	StatusCancelled:          "cancelled",
}

// String returns a string representation of Status
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s != StatusRunning
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for k, v := range statusNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return errors.Errorf("unknown status %q", string(b))
}

// 🧰 Kind is the type of operation
type Kind int

const (
	KindCopy Kind = iota
	KindMove
	KindDelete
)

var kindNames = map[Kind]string{
	KindCopy:   "copy",
	KindMove:   "move",
	KindDelete: "delete",
}

// String returns a string representation of Kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ProgressEvent is the event name progress for this kind is published under
func (k Kind) ProgressEvent() string {
	return k.String() + ":progress"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for key, v := range kindNames {
		if v == string(b) {
			*k = key
			return nil
		}
	}
	return errors.Errorf("unknown operation kind %q", string(b))
}

// 📈 Progress is a snapshot of how far an operation has come
type Progress struct {
	FilesProcessed int    `json:"filesProcessed"`
	TotalFiles     int    `json:"totalFiles"`
	BytesProcessed int64  `json:"bytesProcessed"`
	TotalBytes     int64  `json:"totalBytes"`
	CurrentFile    string `json:"currentFile"`
	ElapsedMs      int64  `json:"elapsedMs"`
}

// Percent prefers bytes and falls back to file counts
func (p Progress) Percent() float64 {
	switch {
	case p.TotalBytes > 0:
		return clampPercent(float64(p.BytesProcessed) / float64(p.TotalBytes) * 100)
	case p.TotalFiles > 0:
		return clampPercent(float64(p.FilesProcessed) / float64(p.TotalFiles) * 100)
	default:
		return 0
	}
}

// Before reports whether p is strictly behind other on either counter
func (p Progress) Before(other Progress) bool {
	return p.FilesProcessed < other.FilesProcessed || p.BytesProcessed < other.BytesProcessed
}

func clampPercent(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
