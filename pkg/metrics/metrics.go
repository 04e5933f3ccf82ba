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

// Package metrics provides Prometheus metrics for the dualpane engine and server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dualpane_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dualpane_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Listing metrics
	listingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dualpane_listing_duration_seconds",
			Help:    "Time to enumerate a directory",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// Operation metrics
	operationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dualpane_operations_started_total",
			Help: "Total number of operations registered",
		},
		[]string{"kind"},
	)

	operationsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dualpane_operations_finished_total",
			Help: "Total number of operations that reached a terminal state",
		},
		[]string{"kind", "status"},
	)

	operationsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dualpane_operations_running",
			Help: "Number of operations currently running",
		},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dualpane_operation_duration_seconds",
			Help:    "Wall time from registration to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"kind"},
	)

	bytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dualpane_bytes_transferred_total",
			Help: "Total bytes written by copy and move operations",
		},
		[]string{"kind"},
	)

	itemFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dualpane_item_failures_total",
			Help: "Per-item failures recorded by operations",
		},
		[]string{"kind", "code"},
	)

	// Event fan-out metrics
	subscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dualpane_subscribers_active",
			Help: "Number of active event subscribers",
		},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dualpane_events_published_total",
			Help: "Total number of events published to subscribers",
		},
		[]string{"type"},
	)

	watchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dualpane_watched_directories",
			Help: "Number of directories watched for external changes",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveListing records a directory enumeration.
func ObserveListing(result string, duration time.Duration) {
	listingDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordOperationStarted records a newly registered operation.
func RecordOperationStarted(kind string) {
	operationsStarted.WithLabelValues(kind).Inc()
	operationsRunning.Inc()
}

// RecordOperationFinished records an operation reaching a terminal state.
func RecordOperationFinished(kind, status string, duration time.Duration) {
	operationsFinished.WithLabelValues(kind, status).Inc()
	operationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	operationsRunning.Dec()
}

// AddBytesTransferred records bytes written by an operation.
func AddBytesTransferred(kind string, n int64) {
	if n > 0 {
		bytesTransferred.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordItemFailure records one failed item of an operation.
func RecordItemFailure(kind, code string) {
	itemFailures.WithLabelValues(kind, code).Inc()
}

// SetSubscribersActive sets the number of event subscribers.
func SetSubscribersActive(count int) {
	subscribersActive.Set(float64(count))
}

// RecordEvent records one published event.
func RecordEvent(eventType string) {
	eventsPublished.WithLabelValues(eventType).Inc()
}

// SetWatchedDirectories sets the number of watched directories.
func SetWatchedDirectories(count int) {
	watchedDirectories.Set(float64(count))
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
// Requests are labelled by their mux pattern to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
