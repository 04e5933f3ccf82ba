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

// Package retry re-runs filesystem reads that failed with a transient error.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/dualpane/pkg/fserr"
)

// 🔁 Config holds retry configuration
type Config struct {
	MaxAttempts int           // maximum number of attempts, 0 means a single attempt
	InitialWait time.Duration // wait before the second attempt
	MaxWait     time.Duration // ceiling for any single wait
	Multiplier  float64       // backoff multiplier
	Jitter      float64       // jitter factor (0-1)
}

// DefaultConfig returns the defaults used for listing and stat calls
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		InitialWait: 50 * time.Millisecond,
		MaxWait:     time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}

// Retryable reports whether err is worth another attempt
func Retryable(err error) bool {
	return err != nil && fserr.IsTransient(err)
}

// Do executes fn until it succeeds, fails permanently or attempts run out
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult executes fn with retries and returns its result
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == attempts {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, fserr.Cancelled("")
		}

		wait := backoff(cfg, attempt)
		zerolog.Ctx(ctx).Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying transient failure")

		select {
		case <-ctx.Done():
			return zero, fserr.Cancelled("")
		case <-time.After(wait):
		}
	}

	return zero, lastErr
}

func backoff(cfg Config, attempt int) time.Duration {
	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 1
	}
	wait := float64(cfg.InitialWait) * math.Pow(mult, float64(attempt-1))
	if cfg.MaxWait > 0 && wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}
	if cfg.Jitter > 0 {
		wait += wait * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
