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

package fspath

import (
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/walteh/dualpane/pkg/fserr"
	"gitlab.com/tozd/go/errors"
)

// 🔤 CasePolicy decides whether two paths differing only in case are the same location
type CasePolicy int

const (
	CaseSensitive CasePolicy = iota
	CaseInsensitive
)

// String returns a string representation of CasePolicy
func (p CasePolicy) String() string {
	if p == CaseInsensitive {
		return "insensitive"
	}
	return "sensitive"
}

// HostCasePolicy returns the default folding rule of the host filesystem
func HostCasePolicy() CasePolicy {
	switch runtime.GOOS {
	case "windows", "darwin", "ios":
		return CaseInsensitive
	default:
		return CaseSensitive
	}
}

// ParseCasePolicy accepts "auto", "sensitive" or "insensitive"
func ParseCasePolicy(s string) (CasePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return HostCasePolicy(), nil
	case "sensitive":
		return CaseSensitive, nil
	case "insensitive":
		return CaseInsensitive, nil
	default:
		return CaseSensitive, errors.Errorf("unknown case policy %q", s)
	}
}

// 🧭 Resolver produces canonical paths and compares them under a case policy.
// With allowed roots set, every normalized path must lie within one of them.
type Resolver struct {
	policy CasePolicy
	roots  []string
}

// New creates a resolver with the given case policy
func New(policy CasePolicy) *Resolver {
	return &Resolver{policy: policy}
}

// NewHost creates a resolver using the host's case policy
func NewHost() *Resolver {
	return New(HostCasePolicy())
}

// Policy returns the case policy in use
func (r *Resolver) Policy() CasePolicy {
	return r.policy
}

// 🔒 WithRoots returns a resolver that refuses paths outside roots.
// No roots means no restriction.
func (r *Resolver) WithRoots(roots ...string) (*Resolver, error) {
	open := New(r.policy)
	clean, err := open.NormalizeAll(roots)
	if err != nil {
		return nil, errors.Errorf("allowed roots: %w", err)
	}
	return &Resolver{policy: r.policy, roots: open.Dedupe(clean)}, nil
}

// Roots returns the allowed roots; empty when unrestricted
func (r *Resolver) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Allowed reports whether a canonical path lies within an allowed root
func (r *Resolver) Allowed(path string) bool {
	if len(r.roots) == 0 {
		return true
	}
	for _, root := range r.roots {
		if r.IsWithin(path, root) {
			return true
		}
	}
	return false
}

// Normalize turns a raw path into its canonical absolute form.
// Redundant separators and "." / ".." segments are collapsed lexically; symlinks are not resolved.
func (r *Resolver) Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fserr.Invalid(fserr.CodePathInvalid, raw, "path is empty")
	}
	if strings.ContainsRune(raw, 0) {
		return "", fserr.Invalid(fserr.CodePathInvalid, raw, "path contains a NUL byte")
	}

	p := filepath.FromSlash(raw)
	if !filepath.IsAbs(p) {
		return "", fserr.Invalid(fserr.CodePathInvalid, raw, "path is not absolute")
	}

	p = filepath.Clean(p)
	if !r.Allowed(p) {
		return "", fserr.New(fserr.KindPermissionDenied, fserr.CodePermissionDenied, p, "%s is outside the allowed roots", p)
	}
	return p, nil
}

// MustNormalize is Normalize for paths known to be valid
func (r *Resolver) MustNormalize(raw string) string {
	p, err := r.Normalize(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// NormalizeAll normalizes every path, failing on the first invalid one
func (r *Resolver) NormalizeAll(raws []string) ([]string, error) {
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		p, err := r.Normalize(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ValidateName checks that name is a single, non-special path segment
func (r *Resolver) ValidateName(name string) error {
	switch {
	case name == "":
		return fserr.Invalid(fserr.CodePathInvalid, name, "name is empty")
	case name == "." || name == "..":
		return fserr.Invalid(fserr.CodePathInvalid, name, "name %q is reserved", name)
	case strings.ContainsRune(name, 0):
		return fserr.Invalid(fserr.CodePathInvalid, name, "name contains a NUL byte")
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator):
		return fserr.Invalid(fserr.CodePathInvalid, name, "name must not contain a path separator")
	}
	return nil
}

// Join appends a single child segment to a canonical parent
func (r *Resolver) Join(parent, childName string) (string, error) {
	if err := r.ValidateName(childName); err != nil {
		return "", err
	}
	p, err := r.Normalize(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(p, childName), nil
}

// Parent returns the containing folder; ok is false at a filesystem root
func (r *Resolver) Parent(path string) (string, bool) {
	dir := filepath.Dir(path)
	if dir == path {
		return "", false
	}
	return dir, true
}

// Name returns the final segment of path
func (r *Resolver) Name(path string) string {
	return filepath.Base(path)
}

// IsRoot reports whether path is a filesystem root
func (r *Resolver) IsRoot(path string) bool {
	_, ok := r.Parent(path)
	return !ok
}

// 🔑 Key returns the dictionary key for a canonical path under the case policy
func (r *Resolver) Key(path string) string {
	if r.policy == CaseInsensitive {
		return strings.ToLower(path)
	}
	return path
}

// Equal reports whether a and b name the same location
func (r *Resolver) Equal(a, b string) bool {
	return r.Key(a) == r.Key(b)
}

// Compare orders paths by key
func (r *Resolver) Compare(a, b string) int {
	return strings.Compare(r.Key(a), r.Key(b))
}

// Sort orders paths in place by key
func (r *Resolver) Sort(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return r.Compare(paths[i], paths[j]) < 0
	})
}

// IsWithin reports whether path equals ancestor or lies beneath it
func (r *Resolver) IsWithin(path, ancestor string) bool {
	p, a := r.Key(path), r.Key(ancestor)
	if p == a {
		return true
	}
	if !strings.HasSuffix(a, string(filepath.Separator)) {
		a += string(filepath.Separator)
	}
	return strings.HasPrefix(p, a)
}

// Dedupe removes repeated paths while keeping first-seen order
func (r *Resolver) Dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		k := r.Key(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}
