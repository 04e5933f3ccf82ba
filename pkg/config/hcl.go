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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// durations are plain strings in HCL and parsed after decoding
type hclConfig struct {
	Engine *struct {
		ChunkSize        int      `hcl:"chunk_size,optional"`
		ProgressInterval string   `hcl:"progress_interval,optional"`
		Overwrite        bool     `hcl:"overwrite,optional"`
		AbortOnError     bool     `hcl:"abort_on_error,optional"`
		Exclude          []string `hcl:"exclude,optional"`
	} `hcl:"engine,block"`
	Registry *struct {
		DoneGrace        string `hcl:"done_grace,optional"`
		CancelledGrace   string `hcl:"cancelled_grace,optional"`
		SubscriberBuffer int    `hcl:"subscriber_buffer,optional"`
	} `hcl:"registry,block"`
	Listing *struct {
		PageSize        int      `hcl:"page_size,optional"`
		MaxPageSize     int      `hcl:"max_page_size,optional"`
		PageTokenSecret string   `hcl:"page_token_secret,optional"`
		CasePolicy      string   `hcl:"case_policy,optional"`
		AllowedRoots    []string `hcl:"allowed_roots,optional"`
	} `hcl:"listing,block"`
	Retry *struct {
		MaxAttempts int    `hcl:"max_attempts,optional"`
		InitialWait string `hcl:"initial_wait,optional"`
		MaxWait     string `hcl:"max_wait,optional"`
	} `hcl:"retry,block"`
	Server *struct {
		Addr string `hcl:"addr,optional"`
	} `hcl:"server,block"`
	Watch *struct {
		Enabled  bool   `hcl:"enabled,optional"`
		Debounce string `hcl:"debounce,optional"`
	} `hcl:"watch,block"`
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{}
	var durs durationSet

	if e := hclCfg.Engine; e != nil {
		cfg.Engine = EngineConfig{
			ChunkSize:    e.ChunkSize,
			Overwrite:    e.Overwrite,
			AbortOnError: e.AbortOnError,
			Exclude:      e.Exclude,
		}
		durs.add("engine.progress_interval", e.ProgressInterval, &cfg.Engine.ProgressInterval)
	}
	if r := hclCfg.Registry; r != nil {
		cfg.Registry.SubscriberBuffer = r.SubscriberBuffer
		durs.add("registry.done_grace", r.DoneGrace, &cfg.Registry.DoneGrace)
		durs.add("registry.cancelled_grace", r.CancelledGrace, &cfg.Registry.CancelledGrace)
	}
	if l := hclCfg.Listing; l != nil {
		cfg.Listing = ListingConfig{
			PageSize:        l.PageSize,
			MaxPageSize:     l.MaxPageSize,
			PageTokenSecret: l.PageTokenSecret,
			CasePolicy:      l.CasePolicy,
			AllowedRoots:    l.AllowedRoots,
		}
	}
	if r := hclCfg.Retry; r != nil {
		cfg.Retry.MaxAttempts = r.MaxAttempts
		durs.add("retry.initial_wait", r.InitialWait, &cfg.Retry.InitialWait)
		durs.add("retry.max_wait", r.MaxWait, &cfg.Retry.MaxWait)
	}
	if s := hclCfg.Server; s != nil {
		cfg.Server.Addr = s.Addr
	}
	if w := hclCfg.Watch; w != nil {
		cfg.Watch.Enabled = w.Enabled
		durs.add("watch.debounce", w.Debounce, &cfg.Watch.Debounce)
	}

	if err := durs.parse(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type durationField struct {
	name string
	raw  string
	dst  *Duration
}

type durationSet []durationField

func (s *durationSet) add(name, raw string, dst *Duration) {
	if raw != "" {
		*s = append(*s, durationField{name: name, raw: raw, dst: dst})
	}
}

func (s durationSet) parse() error {
	for _, f := range s {
		if err := f.dst.UnmarshalText([]byte(f.raw)); err != nil {
			return errors.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}
