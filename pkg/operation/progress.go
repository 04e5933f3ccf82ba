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

package operation

import (
	"time"

	"github.com/walteh/dualpane/pkg/status"
)

// ⏱️ reporter accumulates progress and forwards it to a sink at a bounded rate.
// It is owned by the single goroutine running the operation.
type reporter struct {
	sink     Sink
	interval time.Duration
	start    time.Time
	last     time.Time
	emitted  bool
	p        status.Progress
}

func newReporter(sink Sink, interval time.Duration) *reporter {
	return &reporter{sink: sink, interval: interval, start: time.Now()}
}

func (r *reporter) addTotals(files int, bytes int64) {
	r.p.TotalFiles += files
	r.p.TotalBytes += bytes
}

func (r *reporter) setCurrent(path string) {
	r.p.CurrentFile = path
}

func (r *reporter) addBytes(n int64) {
	if n <= 0 {
		return
	}
	r.p.BytesProcessed += n
	if r.p.BytesProcessed > r.p.TotalBytes {
		// a file grew after it was measured
		r.p.TotalBytes = r.p.BytesProcessed
	}
	r.emit(false)
}

func (r *reporter) addFiles(n int) {
	if n <= 0 {
		return
	}
	r.p.FilesProcessed += n
	if r.p.FilesProcessed > r.p.TotalFiles {
		r.p.TotalFiles = r.p.FilesProcessed
	}
	r.emit(false)
}

func (r *reporter) emit(force bool) {
	now := time.Now()
	r.p.ElapsedMs = now.Sub(r.start).Milliseconds()
	if r.sink == nil {
		return
	}
	if !force && r.emitted && now.Sub(r.last) < r.interval {
		return
	}
	r.last = now
	r.emitted = true
	r.sink.Progress(r.p)
}

func (r *reporter) snapshot() status.Progress {
	r.p.ElapsedMs = time.Since(r.start).Milliseconds()
	return r.p
}
