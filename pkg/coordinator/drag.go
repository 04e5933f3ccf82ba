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

// 🫳 DragPayload is the ephemeral snapshot of a drag gesture
type DragPayload struct {
	Items      []string `json:"items"`
	SourcePath string   `json:"sourcePath"`
}

// Drag tracks the single active drag gesture
type Drag struct {
	mu      sync.Mutex
	payload *DragPayload
}

// NewDrag creates an idle drag tracker
func NewDrag() *Drag {
	return &Drag{}
}

// Start begins a drag of item from sourceDir. When item is part of sel's
// selection the whole selection is dragged.
func (d *Drag) Start(sourceDir, item string, sel *Selection) DragPayload {
	items := []string{item}
	if sel != nil {
		items = sel.Targets(item)
	}

	p := DragPayload{Items: items, SourcePath: sourceDir}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.payload = &p
	return DragPayload{Items: append([]string(nil), items...), SourcePath: sourceDir}
}

// Current returns the active payload, if any
func (d *Drag) Current() (DragPayload, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.payload == nil {
		return DragPayload{}, false
	}
	return DragPayload{Items: append([]string(nil), d.payload.Items...), SourcePath: d.payload.SourcePath}, true
}

// Cancel ends the gesture without dropping
func (d *Drag) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payload = nil
}

// take ends the gesture and returns its payload
func (d *Drag) take() (*DragPayload, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.payload
	d.payload = nil
	return p, p != nil
}
