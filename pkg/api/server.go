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

// Package api serves the dualpane commands over HTTP JSON and streams
// operation and refresh events as server-sent events.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/dualpane/pkg/fserr"
	"github.com/walteh/dualpane/pkg/listing"
	"github.com/walteh/dualpane/pkg/metrics"
	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/service"
)

const shutdownTimeout = 10 * time.Second

// 👀 Watcher keeps folders under observation while an event stream cares about them
type Watcher interface {
	Watch(path string) error
	Unwatch(path string)
}

// 🌐 Server is the HTTP front of a Service
type Server struct {
	svc       *service.Service
	watcher   Watcher
	keepAlive time.Duration
}

// NewServer creates a server. watcher may be nil.
func NewServer(svc *service.Service, watcher Watcher) *Server {
	return &Server{svc: svc, watcher: watcher, keepAlive: 15 * time.Second}
}

// Handler returns the HTTP handler with logging and metrics middleware
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/dir", s.handleList)
	mux.HandleFunc("GET /api/v1/stat", s.handleStat)
	mux.HandleFunc("POST /api/v1/folders", s.handleCreateFolder)
	mux.HandleFunc("POST /api/v1/delete", s.handleDelete)
	mux.HandleFunc("POST /api/v1/rename", s.handleRename)
	mux.HandleFunc("POST /api/v1/copy", s.handleCopy)
	mux.HandleFunc("POST /api/v1/move", s.handleMove)
	mux.HandleFunc("GET /api/v1/volumes", s.handleVolumes)

	mux.HandleFunc("GET /api/v1/operations", s.handleOperations)
	mux.HandleFunc("DELETE /api/v1/operations", s.handleClearCompleted)
	mux.HandleFunc("GET /api/v1/operations/{id}", s.handleOperation)
	mux.HandleFunc("DELETE /api/v1/operations/{id}", s.handleDismiss)
	mux.HandleFunc("POST /api/v1/operations/{id}/cancel", s.handleCancel)

	mux.HandleFunc("GET /api/v1/events", s.handleEvents)

	logger := zerolog.Ctx(ctx).With().Str("component", "api").Logger()
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})

	return hlog.NewHandler(logger)(access(metrics.Middleware(mux)))
}

// 🚀 Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, addr string) error {
	logger := zerolog.Ctx(ctx)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("serving")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Errorf("shutting down: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "running": s.svc.Registry().HasRunning()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := listing.Request{
		Path:      q.Get("path"),
		PageToken: q.Get("pageToken"),
		Match:     q.Get("match"),
	}

	var err error
	if v := q.Get("pageSize"); v != "" {
		if req.PageSize, err = strconv.Atoi(v); err != nil {
			writeError(w, r, fserr.Invalid(fserr.CodeInvalidOperation, "", "pageSize must be a number"))
			return
		}
	}
	if v := q.Get("sortBy"); v != "" {
		if req.SortBy, err = listing.ParseSortKey(v); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if v := q.Get("desc"); v != "" {
		if req.Descending, err = strconv.ParseBool(v); err != nil {
			writeError(w, r, fserr.Invalid(fserr.CodeInvalidOperation, "", "desc must be a boolean"))
			return
		}
	}

	panel := r.Header.Get("X-Panel")
	if panel == "" {
		panel = q.Get("panel")
	}

	page, err := s.svc.ListDirectory(r.Context(), panel, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStat(w http.ResponseWriter, r *http.Request) {
	entry, err := s.svc.GetFileInfo(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type createFolderRequest struct {
	ParentPath string `json:"parentPath"`
	Name       string `json:"name"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var body createFolderRequest
	if !decode(w, r, &body) {
		return
	}
	entry, err := s.svc.CreateFolder(r.Context(), body.ParentPath, body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type deleteRequest struct {
	Paths []string `json:"paths"`
}

// deleteFailure is the error body of a delete that ran but left items behind
type deleteFailure struct {
	fserr.Payload
	OperationID string                 `json:"operationId"`
	Items       []operation.ItemResult `json:"items"`
}

// handleDelete answers with the finished operation. When some items could not
// be removed the error payload also carries operationId and the per-item results.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var body deleteRequest
	if !decode(w, r, &body) {
		return
	}
	op, err := s.svc.DeleteItems(r.Context(), body.Paths)
	if err != nil && op != nil {
		writeErrorBody(w, r, err, func(p fserr.Payload) any {
			return deleteFailure{Payload: p, OperationID: op.ID, Items: op.Items}
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

type renameRequest struct {
	Path    string `json:"path"`
	NewName string `json:"newName"`
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var body renameRequest
	if !decode(w, r, &body) {
		return
	}
	entry, err := s.svc.RenameItem(r.Context(), body.Path, body.NewName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type transferRequest struct {
	SourcePaths  []string `json:"sourcePaths"`
	TargetFolder string   `json:"targetFolder"`
	OperationID  string   `json:"operationId,omitempty"`
}

type transferResponse struct {
	OperationID string `json:"operationId"`
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var body transferRequest
	if !decode(w, r, &body) {
		return
	}
	id, err := s.svc.CopyItems(r.Context(), body.SourcePaths, body.TargetFolder, body.OperationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, transferResponse{OperationID: id})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var body transferRequest
	if !decode(w, r, &body) {
		return
	}
	id, err := s.svc.MoveItems(r.Context(), body.SourcePaths, body.TargetFolder, body.OperationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, transferResponse{OperationID: id})
}

func (s *Server) handleVolumes(w http.ResponseWriter, r *http.Request) {
	vols, err := s.svc.GetStorageVolumes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vols)
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Operations())
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	op, err := s.svc.Operation(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DismissOperation(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"cleared": s.svc.ClearCompleted()})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CancelOperation(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body, answering 400 itself on failure
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, fserr.Invalid(fserr.CodeInvalidOperation, "", "invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
