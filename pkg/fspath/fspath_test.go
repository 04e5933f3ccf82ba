//go:build !windows

package fspath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/dualpane/pkg/fserr"
)

func TestNormalize(t *testing.T) {
	r := New(CaseSensitive)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "already_clean", raw: "/home/user", want: "/home/user"},
		{name: "redundant_separators", raw: "//home///user//", want: "/home/user"},
		{name: "dot_segments", raw: "/home/./user/../admin", want: "/home/admin"},
		{name: "dotdot_above_root", raw: "/../../etc", want: "/etc"},
		{name: "root", raw: "/", want: "/"},
		{name: "relative", raw: "home/user", wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "nul", raw: "/home/\x00x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Normalize(tt.raw)
			if tt.wantErr {
				require.Error(t, err, "normalize should fail")
				assert.Equal(t, fserr.KindInvalidOperation, fserr.KindOf(err), "error kind should be invalid operation")
				assert.Equal(t, fserr.CodePathInvalid, fserr.Classify(err).Code, "error code should match")
				return
			}
			require.NoError(t, err, "normalize should succeed")
			assert.Equal(t, tt.want, got, "canonical path should match")
		})
	}
}

func TestJoinAndParent(t *testing.T) {
	r := New(CaseSensitive)

	got, err := r.Join("/srv//data/", "report.txt")
	require.NoError(t, err, "join should succeed")
	assert.Equal(t, "/srv/data/report.txt", got, "joined path should match")

	for _, bad := range []string{"", ".", "..", "a/b"} {
		_, err := r.Join("/srv", bad)
		assert.Error(t, err, "join with %q should fail", bad)
	}

	parent, ok := r.Parent("/srv/data/report.txt")
	assert.True(t, ok, "non-root path should have a parent")
	assert.Equal(t, "/srv/data", parent, "parent should match")

	_, ok = r.Parent("/")
	assert.False(t, ok, "root should have no parent")
	assert.True(t, r.IsRoot("/"), "root should be detected")
}

func TestCasePolicy(t *testing.T) {
	sensitive := New(CaseSensitive)
	insensitive := New(CaseInsensitive)

	assert.False(t, sensitive.Equal("/Data/File.txt", "/data/file.txt"), "sensitive policy should distinguish case")
	assert.True(t, insensitive.Equal("/Data/File.txt", "/data/file.txt"), "insensitive policy should fold case")

	assert.True(t, insensitive.IsWithin("/DATA/sub/x", "/data"), "insensitive descendant check should fold case")
	assert.False(t, sensitive.IsWithin("/DATA/sub/x", "/data"), "sensitive descendant check should not fold case")
	assert.False(t, sensitive.IsWithin("/database", "/data"), "sibling prefix is not a descendant")
	assert.True(t, sensitive.IsWithin("/data", "/data"), "a path is within itself")
	assert.True(t, sensitive.IsWithin("/data/x", "/"), "everything is within root")

	assert.Equal(t, []string{"/a", "/B"}, insensitive.Dedupe([]string{"/a", "/B", "/A", "/b"}), "dedupe should fold case")

	p, err := ParseCasePolicy("insensitive")
	require.NoError(t, err, "parsing should succeed")
	assert.Equal(t, CaseInsensitive, p, "policy should match")
	_, err = ParseCasePolicy("sometimes")
	assert.Error(t, err, "unknown policy should fail")
}

func TestAllowedRoots(t *testing.T) {
	r, err := New(CaseSensitive).WithRoots("/data", "/srv/share/", "/data")
	require.NoError(t, err, "roots should be accepted")
	assert.Equal(t, []string{"/data", "/srv/share"}, r.Roots(), "roots should be canonical and deduped")

	tests := []struct {
		name    string
		raw     string
		allowed bool
	}{
		{name: "root_itself", raw: "/data", allowed: true},
		{name: "descendant", raw: "/data/photos/a.jpg", allowed: true},
		{name: "second_root", raw: "/srv/share/x", allowed: true},
		{name: "sibling_prefix", raw: "/data2/secret", allowed: false},
		{name: "outside", raw: "/etc/passwd", allowed: false},
		{name: "dotdot_escape", raw: "/data/../etc", allowed: false},
		{name: "filesystem_root", raw: "/", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Normalize(tt.raw)
			if tt.allowed {
				assert.NoError(t, err, "path should be allowed")
				return
			}
			require.Error(t, err, "path should be refused")
			assert.Equal(t, fserr.KindPermissionDenied, fserr.KindOf(err), "error kind should be permission denied")
			assert.Equal(t, fserr.CodePermissionDenied, fserr.Classify(err).Code, "error code should match")
		})
	}

	_, err = r.Join("/data", "new")
	assert.NoError(t, err, "join inside a root should succeed")

	_, err = New(CaseSensitive).WithRoots("relative/root")
	assert.Error(t, err, "relative roots should be rejected")

	insensitive, err := New(CaseInsensitive).WithRoots("/Data")
	require.NoError(t, err)
	assert.True(t, insensitive.Allowed("/data/x"), "insensitive roots should fold case")
	assert.True(t, New(CaseSensitive).Allowed("/anything"), "no roots means no restriction")
}
