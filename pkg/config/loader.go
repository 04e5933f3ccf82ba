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

package config

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// environment overrides, applied after the file
const (
	EnvAddr            = "DUALPANE_ADDR"
	EnvPageTokenSecret = "DUALPANE_PAGE_TOKEN_SECRET"
	EnvCasePolicy      = "DUALPANE_CASE_POLICY"
	EnvWatch           = "DUALPANE_WATCH"
)

// 🎯 Load reads the configuration at path. An empty path or a missing file
// yields the defaults. A .env file in the working directory or next to the
// config is loaded first; variables already set in the environment win.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	if err := loadDotEnv(ctx, path); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			logger.Debug().Str("path", path).Msg("config file not found, using defaults")
		case err != nil:
			return nil, errors.Errorf("reading config file: %w", err)
		default:
			p := GetParser(path)
			if p == nil {
				return nil, errors.Errorf("no parser found for file: %s", path)
			}
			if cfg, err = p.Parse(ctx, data); err != nil {
				return nil, errors.Errorf("parsing config: %w", err)
			}
			cfg.location = path
			logger.Debug().Str("path", path).Msg("loaded configuration")
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(ctx context.Context, path string) error {
	candidates := []string{".env"}
	if path != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(path), ".env"))
	}
	seen := map[string]bool{}
	for _, c := range candidates {
		abs, err := filepath.Abs(c)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return errors.Errorf("loading %s: %w", abs, err)
		}
		zerolog.Ctx(ctx).Debug().Str("path", abs).Msg("loaded env file")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvPageTokenSecret); v != "" {
		cfg.Listing.PageTokenSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCasePolicy)); v != "" {
		cfg.Listing.CasePolicy = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWatch)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Errorf("%s: %w", EnvWatch, err)
		}
		cfg.Watch.Enabled = b
	}
	return nil
}
