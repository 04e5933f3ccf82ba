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

// Package coordinator holds the client-side state machines of a dual-pane
// explorer and turns them into operation requests.
//
//	Selection ──targets──▶ Clipboard ──Paste──┐
//	    │                                      ├──▶ Submitter (copy / move)
//	    └──────targets──▶ Drag ─────Drop───────┘
//
// A Coordinator owns exactly one Clipboard and one Drag; panels own their Selection.
// Follow feeds it operation status events so a cut is emptied once its move is done,
// even when the move finishes before Paste has returned the operation id.
package coordinator
