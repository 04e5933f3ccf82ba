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

/*
Package config loads dualpane configuration.

	            +-------------+
	            |   Config    |
	            |  (sections) |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |   HCL   |   |  JSON   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Sections: engine, registry, listing, retry, server, watch.

🔄 Flow:
 1. .env files are loaded (existing variables win)
 2. the file is parsed by the parser registered for its extension
 3. DUALPANE_* variables override file values
 4. Validate fills defaults and rejects impossible values

A missing file is not an error; the defaults apply.

🔍 Example:

	cfg, err := config.Load(ctx, "dualpane.yaml")
	if err != nil {
		return err
	}
	opts, err := cfg.ServiceOptions()
	if err != nil {
		return err
	}
	svc := service.New(ctx, opts)
*/
package config
