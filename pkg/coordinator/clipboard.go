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

package coordinator

import (
	"sync"
)

// Mode is the intent captured with a clipboard snapshot
type Mode int

const (
	ModeCopy Mode = iota
	ModeCut
)

// String returns a string representation of Mode
func (m Mode) String() string {
	if m == ModeCut {
		return "cut"
	}
	return "copy"
}

// 📋 ClipboardContents is an immutable snapshot taken at copy/cut time
type ClipboardContents struct {
	Items []string `json:"items"`
	Mode  Mode     `json:"mode"`
	// generation identifies the snapshot so a stale clear cannot drop a newer one
	generation uint64
}

// Clipboard holds at most one snapshot. It is owned by a Coordinator, not global.
type Clipboard struct {
	mu         sync.Mutex
	contents   *ClipboardContents
	generation uint64
}

// NewClipboard creates an empty clipboard
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// Copy replaces the clipboard with items to be copied
func (c *Clipboard) Copy(items []string) {
	c.set(items, ModeCopy)
}

// Cut replaces the clipboard with items to be moved
func (c *Clipboard) Cut(items []string) {
	c.set(items, ModeCut)
}

func (c *Clipboard) set(items []string, mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(items) == 0 {
		c.contents = nil
		return
	}
	c.generation++
	c.contents = &ClipboardContents{
		Items:      append([]string(nil), items...),
		Mode:       mode,
		generation: c.generation,
	}
}

// Contents returns a copy of the current snapshot
func (c *Clipboard) Contents() (ClipboardContents, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contents == nil {
		return ClipboardContents{}, false
	}
	out := *c.contents
	out.Items = append([]string(nil), c.contents.Items...)
	return out, true
}

// Clear empties the clipboard
func (c *Clipboard) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents = nil
}

// clearIf empties the clipboard only if it still holds the given snapshot
func (c *Clipboard) clearIf(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contents == nil || c.contents.generation != generation {
		return false
	}
	c.contents = nil
	return true
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
