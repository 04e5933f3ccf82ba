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
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/walteh/dualpane/pkg/fserr"
)

// StatusCode maps a typed error to the HTTP status it is served with
func StatusCode(err *fserr.Error) int {
	switch err.Kind {
	case fserr.KindNotFound:
		return http.StatusNotFound
	case fserr.KindPermissionDenied:
		return http.StatusForbidden
	case fserr.KindTransient:
		return http.StatusServiceUnavailable
	case fserr.KindCancelled:
		return http.StatusConflict
	case fserr.KindInvalidOperation:
		if err.Code == fserr.CodeAlreadyExists {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	default:
		if err.Code == fserr.CodeStorageFull {
			return http.StatusInsufficientStorage
		}
		return http.StatusInternalServerError
	}
}

// writeError answers with the error payload {message, code, kind}
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorBody(w, r, err, nil)
}

// writeErrorBody is writeError with a body built around the payload
func writeErrorBody(w http.ResponseWriter, r *http.Request, err error, extend func(fserr.Payload) any) {
	typed := fserr.Classify(err)
	code := StatusCode(typed)

	ev := hlog.FromRequest(r).Info()
	if code >= http.StatusInternalServerError {
		ev = hlog.FromRequest(r).Warn()
	}
	ev.Err(err).Str("code", typed.Code).Int("status", code).Msg("request failed")

	var body any = typed.Payload()
	if extend != nil {
		body = extend(typed.Payload())
	}
	writeJSON(w, code, body)
}
