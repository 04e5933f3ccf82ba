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

package listing

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 📄 EntryKind is the type of a filesystem node
type EntryKind int

const (
	KindFile EntryKind = iota
	KindFolder
	KindSymlink // never followed
)

var entryKindNames = map[EntryKind]string{
	KindFile:    "file",
	KindFolder:  "folder",
	KindSymlink: "symlink",
}

// String returns a string representation of EntryKind
func (k EntryKind) String() string {
	if name, ok := entryKindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EntryKind) UnmarshalText(b []byte) error {
	for key, v := range entryKindNames {
		if v == string(b) {
			*k = key
			return nil
		}
	}
	return errors.Errorf("unknown entry kind %q", string(b))
}

// 🗂️ Entry is an immutable snapshot of one filesystem node
type Entry struct {
	Path       string     `json:"path"`
	Name       string     `json:"name"`
	Kind       EntryKind  `json:"kind"`
	Size       int64      `json:"size"`
	ModifiedAt *time.Time `json:"modifiedAt"`
	CreatedAt  *time.Time `json:"createdAt"`
	Extension  string     `json:"extension"`
	IsHidden   bool       `json:"isHidden"`
	IsReadonly bool       `json:"isReadonly"`
}

// IsFolder reports whether the entry is a folder
func (e Entry) IsFolder() bool {
	return e.Kind == KindFolder
}

// NewEntry builds an entry from lstat information for path
func NewEntry(path string, info fs.FileInfo) Entry {
	name := filepath.Base(path)
	m := platformMeta(path, name, info)

	e := Entry{
		Path:       path,
		Name:       name,
		Kind:       kindOf(info.Mode()),
		CreatedAt:  m.createdAt,
		IsHidden:   m.hidden,
		IsReadonly: m.readonly,
	}

	if mod := info.ModTime(); !mod.IsZero() {
		e.ModifiedAt = &mod
	}

	if e.Kind != KindFolder {
		e.Size = info.Size()
		e.Extension = extensionOf(name)
	}

	return e
}

func kindOf(mode fs.FileMode) EntryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindFolder
	default:
		return KindFile
	}
}

// extensionOf lowercases the final suffix; dotfiles like ".bashrc" have none
func extensionOf(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

type meta struct {
	hidden    bool
	readonly  bool
	createdAt *time.Time
}
