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

	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
)

// Modifiers are the keys held during a click
type Modifiers struct {
	Ctrl  bool // ctrl on most hosts, cmd on macOS
	Shift bool
}

// 🖱️ Selection is the per-panel set of selected paths plus the range anchor.
// The anchor always names an item of the current listing, or nothing.
type Selection struct {
	mu       sync.Mutex
	resolver *fspath.Resolver
	dir      string
	order    []string
	index    map[string]int
	selected map[string]struct{}
	anchor   string
}

// NewSelection creates an empty selection
func NewSelection(resolver *fspath.Resolver) *Selection {
	return &Selection{
		resolver: resolver,
		index:    map[string]int{},
		selected: map[string]struct{}{},
	}
}

// SetListing installs the display order of the panel.
// Moving to another folder clears the selection; re-listing the same folder
// drops only the items that disappeared.
func (s *Selection) SetListing(dir string, paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.resolver.Equal(dir, s.dir) {
		s.selected = map[string]struct{}{}
		s.anchor = ""
	}
	s.dir = dir
	s.order = append([]string(nil), paths...)
	s.index = make(map[string]int, len(paths))
	for i, p := range paths {
		s.index[s.resolver.Key(p)] = i
	}

	for k := range s.selected {
		if _, ok := s.index[k]; !ok {
			delete(s.selected, k)
		}
	}
	if s.anchor != "" {
		if _, ok := s.index[s.anchor]; !ok {
			s.anchor = ""
		}
	}
}

// Dir returns the folder whose listing is installed
func (s *Selection) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// Click applies a left click on path.
// Plain click selects only path; ctrl toggles it; shift selects the range from
// the anchor, and ctrl+shift adds that range to the selection. Shift never moves the anchor.
func (s *Selection) Click(path string, mods Modifiers) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.resolver.Key(path)
	if _, ok := s.index[k]; !ok {
		return fserr.NotFound(path)
	}

	switch {
	case mods.Shift:
		s.selectRangeLocked(k, mods.Ctrl)
	case mods.Ctrl:
		if _, ok := s.selected[k]; ok {
			delete(s.selected, k)
		} else {
			s.selected[k] = struct{}{}
			s.anchor = k
		}
	default:
		s.selected = map[string]struct{}{k: {}}
		s.anchor = k
	}
	return nil
}

func (s *Selection) selectRangeLocked(k string, union bool) {
	if s.anchor == "" {
		// no anchor yet behaves like a plain click
		s.selected = map[string]struct{}{k: {}}
		s.anchor = k
		return
	}

	from, to := s.index[s.anchor], s.index[k]
	if from > to {
		from, to = to, from
	}
	if !union {
		s.selected = map[string]struct{}{}
	}
	for i := from; i <= to; i++ {
		s.selected[s.resolver.Key(s.order[i])] = struct{}{}
	}
}

// RightClick prepares the selection for a context menu on path.
// An unselected item replaces the selection; a selected one keeps it.
func (s *Selection) RightClick(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.resolver.Key(path)
	if _, ok := s.index[k]; !ok {
		return fserr.NotFound(path)
	}
	if _, ok := s.selected[k]; ok {
		return nil
	}
	s.selected = map[string]struct{}{k: {}}
	s.anchor = k
	return nil
}

// SelectAll selects every listed item without moving the anchor
func (s *Selection) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.index {
		s.selected[k] = struct{}{}
	}
}

// Clear empties the selection and forgets the anchor
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]struct{}{}
	s.anchor = ""
}

// Selected returns the selected paths in display order
func (s *Selection) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

func (s *Selection) selectedLocked() []string {
	out := make([]string, 0, len(s.selected))
	for _, p := range s.order {
		if _, ok := s.selected[s.resolver.Key(p)]; ok {
			out = append(out, p)
		}
	}
	return out
}

// IsSelected reports whether path is selected
func (s *Selection) IsSelected(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[s.resolver.Key(path)]
	return ok
}

// Anchor returns the anchor path, if any
func (s *Selection) Anchor() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anchor == "" {
		return "", false
	}
	return s.order[s.index[s.anchor]], true
}

// Targets is the item set an action on clicked applies to: the whole
// selection when clicked is part of it (or empty), otherwise clicked alone.
func (s *Selection) Targets(clicked string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clicked == "" {
		return s.selectedLocked()
	}
	if _, ok := s.selected[s.resolver.Key(clicked)]; ok {
		return s.selectedLocked()
	}
	return []string{clicked}
}
