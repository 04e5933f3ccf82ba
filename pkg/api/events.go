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

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/registry"
)

// 📡 handleEvents streams registry events filtered by ?paths= and ?operationId=.
// Watched paths stay under observation for as long as the stream is open.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, fserr.New(fserr.KindPermanent, fserr.CodeUnknown, "", "streaming not supported"))
		return
	}
	logger := hlog.FromRequest(r)

	q := r.URL.Query()
	paths, err := s.svc.Resolver().NormalizeAll(q["paths"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := registry.Filter{OperationIDs: q["operationId"], Paths: paths}

	if s.watcher != nil {
		for _, p := range paths {
			if err := s.watcher.Watch(p); err != nil {
				logger.Debug().Err(err).Str("path", p).Msg("watching folder")
				continue
			}
			defer s.watcher.Unwatch(p)
		}
	}

	sub := s.svc.Subscribe(filter)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ping := time.NewTicker(s.keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				logger.Warn().Err(err).Str("event", ev.Name).Msg("encoding event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
			flusher.Flush()
		}
	}
}
