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
	"fmt"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/dualpane/pkg/fspath"
	"github.com/walteh/dualpane/pkg/listing"
	"github.com/walteh/dualpane/pkg/operation"
	"github.com/walteh/dualpane/pkg/registry"
	"github.com/walteh/dualpane/pkg/retry"
	"github.com/walteh/dualpane/pkg/service"
)

// ⏱️ Duration is a time.Duration written as "100ms", "3s" in config files
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Errorf("parsing duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// 🔧 EngineConfig tunes copy, move and delete execution
type EngineConfig struct {
	ChunkSize        int      `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	ProgressInterval Duration `json:"progress_interval,omitempty" yaml:"progress_interval,omitempty"`
	Overwrite        bool     `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
	AbortOnError     bool     `json:"abort_on_error,omitempty" yaml:"abort_on_error,omitempty"`
	Exclude          []string `json:"exclude,omitempty" yaml:"exclude,omitempty"` // doublestar patterns skipped by copy
}

// RegistryConfig controls how long finished operations stay visible.
// A negative grace keeps them until dismissed.
type RegistryConfig struct {
	DoneGrace        Duration `json:"done_grace,omitempty" yaml:"done_grace,omitempty"`
	CancelledGrace   Duration `json:"cancelled_grace,omitempty" yaml:"cancelled_grace,omitempty"`
	SubscriberBuffer int      `json:"subscriber_buffer,omitempty" yaml:"subscriber_buffer,omitempty"`
}

// ListingConfig controls directory pagination
type ListingConfig struct {
	PageSize        int      `json:"page_size,omitempty" yaml:"page_size,omitempty"`
	MaxPageSize     int      `json:"max_page_size,omitempty" yaml:"max_page_size,omitempty"`
	PageTokenSecret string   `json:"page_token_secret,omitempty" yaml:"page_token_secret,omitempty"`
	CasePolicy      string   `json:"case_policy,omitempty" yaml:"case_policy,omitempty"`     // auto, sensitive or insensitive
	AllowedRoots    []string `json:"allowed_roots,omitempty" yaml:"allowed_roots,omitempty"` // every command stays within these folders; empty allows all
}

// RetryConfig controls retries of transient listing failures
type RetryConfig struct {
	MaxAttempts int      `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	InitialWait Duration `json:"initial_wait,omitempty" yaml:"initial_wait,omitempty"`
	MaxWait     Duration `json:"max_wait,omitempty" yaml:"max_wait,omitempty"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// WatchConfig configures external change detection
type WatchConfig struct {
	Enabled  bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Debounce Duration `json:"debounce,omitempty" yaml:"debounce,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Listing  ListingConfig  `json:"listing" yaml:"listing"`
	Retry    RetryConfig    `json:"retry" yaml:"retry"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Watch    WatchConfig    `json:"watch" yaml:"watch"`

	location string
}

const DefaultAddr = "127.0.0.1:7420"

// Default returns a validated configuration with every default filled in
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// Location returns the file the config was read from, empty for defaults
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate fills defaults and rejects values that cannot work
func (cfg *Config) Validate() error {
	switch {
	case cfg.Engine.ChunkSize < 0:
		return errors.Errorf("engine.chunk_size must not be negative")
	case cfg.Engine.ProgressInterval < 0:
		return errors.Errorf("engine.progress_interval must not be negative")
	case cfg.Registry.SubscriberBuffer < 0:
		return errors.Errorf("registry.subscriber_buffer must not be negative")
	case cfg.Listing.PageSize < 0 || cfg.Listing.MaxPageSize < 0:
		return errors.Errorf("listing page sizes must not be negative")
	case cfg.Retry.MaxAttempts < 0:
		return errors.Errorf("retry.max_attempts must not be negative")
	}

	for _, pattern := range cfg.Engine.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("engine.exclude: invalid pattern %q", pattern)
		}
	}
	if _, err := fspath.ParseCasePolicy(cfg.Listing.CasePolicy); err != nil {
		return errors.Errorf("listing.case_policy: %w", err)
	}
	for _, root := range cfg.Listing.AllowedRoots {
		if !filepath.IsAbs(root) {
			return errors.Errorf("listing.allowed_roots: %q is not absolute", root)
		}
	}

	if cfg.Engine.ChunkSize == 0 {
		cfg.Engine.ChunkSize = operation.DefaultChunkSize
	}
	if cfg.Engine.ProgressInterval == 0 {
		cfg.Engine.ProgressInterval = Duration(operation.DefaultProgressInterval)
	}
	if cfg.Registry.DoneGrace == 0 {
		cfg.Registry.DoneGrace = Duration(registry.DefaultDoneGrace)
	}
	if cfg.Registry.CancelledGrace == 0 {
		cfg.Registry.CancelledGrace = Duration(registry.DefaultCancelledGrace)
	}
	if cfg.Registry.SubscriberBuffer == 0 {
		cfg.Registry.SubscriberBuffer = registry.DefaultSubscriberBuffer
	}
	if cfg.Listing.PageSize == 0 {
		cfg.Listing.PageSize = listing.DefaultPageSize
	}
	if cfg.Listing.MaxPageSize == 0 {
		cfg.Listing.MaxPageSize = listing.MaxPageSize
	}
	if cfg.Listing.PageSize > cfg.Listing.MaxPageSize {
		return errors.Errorf("listing.page_size %d exceeds max_page_size %d", cfg.Listing.PageSize, cfg.Listing.MaxPageSize)
	}
	if cfg.Listing.CasePolicy == "" {
		cfg.Listing.CasePolicy = "auto"
	}

	defaults := retry.DefaultConfig()
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Retry.InitialWait == 0 {
		cfg.Retry.InitialWait = Duration(defaults.InitialWait)
	}
	if cfg.Retry.MaxWait == 0 {
		cfg.Retry.MaxWait = Duration(defaults.MaxWait)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(100 * time.Millisecond)
	}

	return nil
}

// 🔌 ServiceOptions converts the config into the options of a service
func (cfg *Config) ServiceOptions() (service.Options, error) {
	policy, err := fspath.ParseCasePolicy(cfg.Listing.CasePolicy)
	if err != nil {
		return service.Options{}, errors.Errorf("listing.case_policy: %w", err)
	}
	resolver, err := fspath.New(policy).WithRoots(cfg.Listing.AllowedRoots...)
	if err != nil {
		return service.Options{}, errors.Errorf("listing.allowed_roots: %w", err)
	}

	var secret []byte
	if cfg.Listing.PageTokenSecret != "" {
		secret = []byte(cfg.Listing.PageTokenSecret)
	}

	defaults := retry.DefaultConfig()
	return service.Options{
		Resolver: resolver,
		Listing: listing.Options{
			PageSize:    cfg.Listing.PageSize,
			MaxPageSize: cfg.Listing.MaxPageSize,
			TokenSecret: secret,
		},
		Engine: operation.Options{
			Resolver:         resolver,
			ChunkSize:        cfg.Engine.ChunkSize,
			ProgressInterval: time.Duration(cfg.Engine.ProgressInterval),
			Exclude:          cfg.Engine.Exclude,
		},
		Registry: registry.Options{
			Resolver:         resolver,
			DoneGrace:        time.Duration(cfg.Registry.DoneGrace),
			CancelledGrace:   time.Duration(cfg.Registry.CancelledGrace),
			SubscriberBuffer: cfg.Registry.SubscriberBuffer,
		},
		Retry: retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: time.Duration(cfg.Retry.InitialWait),
			MaxWait:     time.Duration(cfg.Retry.MaxWait),
			Multiplier:  defaults.Multiplier,
			Jitter:      defaults.Jitter,
		},
		Overwrite:    cfg.Engine.Overwrite,
		AbortOnError: cfg.Engine.AbortOnError,
	}, nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	src := cfg.location
	if src == "" {
		src = "defaults"
	}
	return fmt.Sprintf("%s (addr=%s, case=%s, chunk=%d)", src, cfg.Server.Addr, cfg.Listing.CasePolicy, cfg.Engine.ChunkSize)
}
