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

package listing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strings"

	"github.com/walteh/dualpane/pkg/fserr"
)

// 🎟️ tokenSigner issues resume tokens bound to a path, a query and an offset
type tokenSigner struct {
	secret []byte
}

func newTokenSigner(secret []byte) *tokenSigner {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(err)
		}
	}
	return &tokenSigner{secret: secret}
}

// payload layout: 8-byte big endian offset followed by the query fingerprint
func (s *tokenSigner) issue(path, fingerprint string, offset int) string {
	body := make([]byte, 8, 8+len(fingerprint))
	binary.BigEndian.PutUint64(body, uint64(offset))
	body = append(body, fingerprint...)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(body) + "." + enc.EncodeToString(s.mac(path, body))
}

func (s *tokenSigner) verify(token, path, fingerprint string) (int, error) {
	invalid := fserr.Invalid(fserr.CodeInvalidPageToken, path, "invalid page token")

	bodyPart, sigPart, ok := strings.Cut(token, ".")
	if !ok {
		return 0, invalid
	}

	enc := base64.RawURLEncoding
	body, err := enc.DecodeString(bodyPart)
	if err != nil || len(body) < 8 {
		return 0, invalid
	}
	sig, err := enc.DecodeString(sigPart)
	if err != nil {
		return 0, invalid
	}

	if !hmac.Equal(sig, s.mac(path, body)) {
		return 0, invalid
	}
	if string(body[8:]) != fingerprint {
		return 0, fserr.Invalid(fserr.CodeInvalidPageToken, path, "page token was issued for a different query")
	}

	offset := binary.BigEndian.Uint64(body[:8])
	if offset > uint64(^uint(0)>>1) {
		return 0, invalid
	}
	return int(offset), nil
}

func (s *tokenSigner) mac(path string, body []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return h.Sum(nil)
}
