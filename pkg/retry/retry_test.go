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

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/dualpane/pkg/fserr"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func busy() error {
	return &fserr.Error{Kind: fserr.KindTransient, Code: fserr.CodeFileLocked, Path: "/a", Message: "file is busy"}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       func() error
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{name: "succeeds_first_try", failures: 0, err: busy, attempts: 3, wantCalls: 1},
		{name: "recovers_from_transient", failures: 2, err: busy, attempts: 3, wantCalls: 3},
		{name: "gives_up_after_attempts", failures: 5, err: busy, attempts: 3, wantCalls: 3, wantErr: true},
		{name: "permanent_not_retried", failures: 5, err: func() error { return fserr.NotFound("/a") }, attempts: 3, wantCalls: 1, wantErr: true},
		{name: "zero_attempts_means_one", failures: 5, err: busy, attempts: 0, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastConfig(tt.attempts), func() error {
				calls++
				if calls <= tt.failures {
					return tt.err()
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls, "call count should match")
			if tt.wantErr {
				assert.Error(t, err, "should fail")
			} else {
				assert.NoError(t, err, "should succeed")
			}
		})
	}
}

func TestDoWithResultCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 10, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := DoWithResult(ctx, cfg, func() (int, error) { return 0, busy() })
	require.Error(t, err, "cancelled retry should fail")
	assert.True(t, fserr.IsCancelled(err), "error should be a cancellation")
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := Config{InitialWait: time.Second, MaxWait: 2 * time.Second, Multiplier: 10}
	assert.Equal(t, time.Second, backoff(cfg, 1), "first wait should be the initial wait")
	assert.Equal(t, 2*time.Second, backoff(cfg, 4), "wait should be capped")
}
