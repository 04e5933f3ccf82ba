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
Package service is the command surface a two-panel front end talks to.

	  presentation (api, cli)
	            |
	     +------+------+
	     |   Service   |-----------> coordinator.Submitter
	     +------+------+
	            |
	  +---------+----------+-----------+
	  |         |          |           |
	Lister   Tracker    Runner     Registry ----> subscriptions
	(pages)  (panels)  (engine)   (ops table)     (events)

🎯 Direct calls: ListDirectory, GetFileInfo, CreateFolder, RenameItem, GetStorageVolumes.

🔄 Tracked calls: CopyItems, MoveItems and StartOperation return an id at once
and report through registry events. DeleteItems is tracked too but waits for
the result.

Tracked work is detached from the caller's context; only CancelOperation or
Close stops it.
*/
package service
