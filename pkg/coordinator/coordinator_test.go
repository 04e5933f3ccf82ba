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

//go:build !windows

package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/registry"
	"github.com/walteh/dualpane/pkg/status"
)

// mockSubmitter is a testify mock of Submitter
type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, req operation.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func newTestCoordinator() (*Coordinator, *mockSubmitter) {
	sub := &mockSubmitter{}
	return New(fspath.New(fspath.CaseSensitive), sub), sub
}

func TestPasteCopy(t *testing.T) {
	ctx := testContext(t)
	c, sub := newTestCoordinator()

	items := []string{"/src/a", "/src/b"}
	c.Clipboard().Copy(items)
	items[0] = "/src/changed"

	sub.On("Submit", mock.Anything, operation.Request{
		Kind:    status.KindCopy,
		Sources: []string{"/src/a", "/src/b"},
		Target:  "/dst",
	}).Return("op-1", nil).Once()

	id, err := c.Paste(ctx, "/dst")
	require.NoError(t, err, "paste should succeed")
	assert.Equal(t, "op-1", id, "id should come from the submitter")

	_, ok := c.Clipboard().Contents()
	assert.True(t, ok, "copy clipboard should survive a paste")
	sub.AssertExpectations(t)
}

func TestPasteCutClearsOnDone(t *testing.T) {
	ctx := testContext(t)
	c, sub := newTestCoordinator()

	sub.On("Submit", mock.Anything, mock.MatchedBy(func(r operation.Request) bool {
		return r.Kind == status.KindMove
	})).Return("op-1", nil).Once()

	c.Clipboard().Cut([]string{"/src/a"})
	id, err := c.Paste(ctx, "/dst")
	require.NoError(t, err, "paste should succeed")

	c.HandleStatus(id, status.StatusRunning)
	_, ok := c.Clipboard().Contents()
	assert.True(t, ok, "clipboard should stay while running")

	c.HandleStatus(id, status.StatusDone)
	_, ok = c.Clipboard().Contents()
	assert.False(t, ok, "cut clipboard should be cleared after a done move")
	sub.AssertExpectations(t)
}

func TestPasteCutKeepsNewerClipboard(t *testing.T) {
	ctx := testContext(t)
	c, sub := newTestCoordinator()
	sub.On("Submit", mock.Anything, mock.Anything).Return("op-1", nil).Once()

	c.Clipboard().Cut([]string{"/src/a"})
	id, err := c.Paste(ctx, "/dst")
	require.NoError(t, err)

	c.Clipboard().Copy([]string{"/src/b"})
	c.HandleStatus(id, status.StatusDone)

	contents, ok := c.Clipboard().Contents()
	require.True(t, ok, "newer clipboard should survive")
	assert.Equal(t, []string{"/src/b"}, contents.Items, "newer items should be kept")
}

func TestPasteCutFailedKeepsClipboard(t *testing.T) {
	ctx := testContext(t)
	c, sub := newTestCoordinator()
	sub.On("Submit", mock.Anything, mock.Anything).Return("op-1", nil).Once()

	c.Clipboard().Cut([]string{"/src/a"})
	id, err := c.Paste(ctx, "/dst")
	require.NoError(t, err)

	c.HandleStatus(id, status.StatusPartiallySucceeded)
	_, ok := c.Clipboard().Contents()
	assert.True(t, ok, "clipboard should be kept when the move did not fully succeed")
}

func TestPasteCutFinishedBeforeSubmitReturns(t *testing.T) {
	tests := []struct {
		name      string
		finished  status.Status
		wantClear bool
	}{
		{name: "done", finished: status.StatusDone, wantClear: true},
		{name: "failed", finished: status.StatusFailed, wantClear: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			c, sub := newTestCoordinator()
			sub.On("Submit", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
				c.HandleStatus("op-1", tt.finished)
			}).Return("op-1", nil).Once()

			c.Clipboard().Cut([]string{"/src/a"})
			id, err := c.Paste(ctx, "/dst")
			require.NoError(t, err, "paste should succeed")
			assert.Equal(t, "op-1", id, "id should come from the submitter")

			_, ok := c.Clipboard().Contents()
			assert.Equal(t, !tt.wantClear, ok, "clipboard state should follow the final status")
			assert.Zero(t, c.Pending(), "a finished paste should not stay pending")
		})
	}
}

func TestHandleStatusForgetsUnrelatedOperations(t *testing.T) {
	ctx := testContext(t)
	c, sub := newTestCoordinator()
	sub.On("Submit", mock.Anything, mock.Anything).Return("op-1", nil).Once()

	// finished before any paste began; must not leak into a later one
	c.HandleStatus("op-1", status.StatusDone)

	c.Clipboard().Cut([]string{"/src/a"})
	_, err := c.Paste(ctx, "/dst")
	require.NoError(t, err)

	_, ok := c.Clipboard().Contents()
	assert.True(t, ok, "stale status should not clear the clipboard")
	assert.Equal(t, 1, c.Pending(), "paste should wait for its own status")
}

func TestFollowClearsCutOnDone(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()

	reg := registry.New(ctx, registry.Options{Resolver: fspath.New(fspath.CaseSensitive), DoneGrace: -1})
	t.Cleanup(reg.Close)

	c, sub := newTestCoordinator()
	sub.On("Submit", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		require.NoError(t, reg.RegisterWithID("op-1", status.KindMove, []string{"/src/a"}, "/dst", nil))
		require.NoError(t, reg.Complete("op-1", &operation.Result{Status: status.StatusDone}))
	}).Return("op-1", nil).Once()

	events := reg.Subscribe(registry.Filter{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Follow(ctx, events)
	}()

	c.Clipboard().Cut([]string{"/src/a"})
	_, err := c.Paste(ctx, "/dst")
	require.NoError(t, err, "paste should succeed")

	assert.Eventually(t, func() bool {
		_, ok := c.Clipboard().Contents()
		return !ok && c.Pending() == 0
	}, 2*time.Second, 10*time.Millisecond, "done move should clear the cut clipboard")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("follow should stop when its context ends")
	}
}

func TestPasteEmptyClipboard(t *testing.T) {
	c, sub := newTestCoordinator()
	_, err := c.Paste(testContext(t), "/dst")
	require.Error(t, err, "pasting nothing should fail")
	assert.Equal(t, fserr.KindInvalidOperation, fserr.KindOf(err), "error should be an invalid operation")
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestDrop(t *testing.T) {
	tests := []struct {
		name      string
		items     []string
		target    string
		isFolder  bool
		forceCopy bool
		wantKind  status.Kind
		wantNoop  bool
		wantErr   bool
	}{
		{name: "move_by_default", items: []string{"/src/a"}, target: "/dst", isFolder: true, wantKind: status.KindMove},
		{name: "modifier_forces_copy", items: []string{"/src/a"}, target: "/dst", isFolder: true, forceCopy: true, wantKind: status.KindCopy},
		{name: "file_target_is_noop", items: []string{"/src/a"}, target: "/dst/file.txt", isFolder: false, wantNoop: true},
		{name: "own_source_is_noop", items: []string{"/src/a"}, target: "/src", isFolder: true, wantNoop: true},
		{name: "into_itself_rejected", items: []string{"/src/a"}, target: "/src/a", isFolder: true, wantErr: true},
		{name: "into_descendant_rejected", items: []string{"/src/b", "/src/a"}, target: "/src/a/deep/er", isFolder: true, wantErr: true},
		{name: "sibling_prefix_allowed", items: []string{"/src/a"}, target: "/src/ab", isFolder: true, wantKind: status.KindMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			c, sub := newTestCoordinator()
			sub.On("Submit", mock.Anything, mock.Anything).Return("op-1", nil).Maybe()

			c.Drag().Start("/src", tt.items[0], nil)
			if len(tt.items) > 1 {
				sel := NewSelection(fspath.New(fspath.CaseSensitive))
				sel.SetListing("/src", tt.items)
				sel.SelectAll()
				c.Drag().Start("/src", tt.items[0], sel)
			}

			id, err := c.Drop(ctx, tt.target, tt.isFolder, tt.forceCopy)
			_, dragging := c.Drag().Current()
			assert.False(t, dragging, "drop should end the drag")

			switch {
			case tt.wantErr:
				require.Error(t, err, "drop should be rejected")
				assert.Equal(t, fserr.KindInvalidOperation, fserr.KindOf(err), "error should be an invalid operation")
				sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
			case tt.wantNoop:
				require.NoError(t, err, "no-op drop should not fail")
				assert.Empty(t, id, "no-op drop should not start an operation")
				sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
			default:
				require.NoError(t, err, "drop should succeed")
				assert.Equal(t, "op-1", id, "id should come from the submitter")
				sub.AssertCalled(t, "Submit", mock.Anything, operation.Request{Kind: tt.wantKind, Sources: tt.items, Target: tt.target})
			}
		})
	}
}

func TestDragCapturesSelection(t *testing.T) {
	sel := NewSelection(fspath.New(fspath.CaseSensitive))
	sel.SetListing("/src", []string{"/src/a", "/src/b", "/src/c"})
	require.NoError(t, sel.Click("/src/a", Modifiers{}))
	require.NoError(t, sel.Click("/src/b", Modifiers{Ctrl: true}))

	d := NewDrag()
	p := d.Start("/src", "/src/b", sel)
	assert.Equal(t, []string{"/src/a", "/src/b"}, p.Items, "dragging a selected item drags the selection")

	p = d.Start("/src", "/src/c", sel)
	assert.Equal(t, []string{"/src/c"}, p.Items, "dragging an unselected item drags only that item")

	d.Cancel()
	_, ok := d.Current()
	assert.False(t, ok, "cancel should end the drag")

	c, _ := newTestCoordinator()
	id, err := c.Drop(testContext(t), "/dst", true, false)
	assert.NoError(t, err, "drop without a drag should be a no-op")
	assert.Empty(t, id, "drop without a drag should not start anything")
}
