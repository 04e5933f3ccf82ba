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

package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent   = 4  // spaces to indent file entries
	nameWidth    = 45 // Base width for the path
	kindWidth    = 8  // Width for the operation kind
	outcomeWidth = 10 // Width for the outcome text
)

// 🎯 FormatItemLine formats the outcome of one operation item for a terminal table
func FormatItemLine(path string, kind Kind, outcome string) string {
	var prefix string
	switch outcome {
	case "succeeded":
		prefix = color.GreenString("✓")
	case "conflict":
		prefix = color.YellowString("⟳")
	case "failed":
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("-")
	}

	namePart := fmt.Sprintf("%-*s", nameWidth, path)
	kindPart := fmt.Sprintf("%-*s", kindWidth, kind)
	outcomePart := fmt.Sprintf("%-*s", outcomeWidth, outcome)

	return strings.TrimRight(fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		kindPart,
		outcomePart,
	), " ")
}

// FormatStatusBadge renders a terminal status with a color matching its severity
func FormatStatusBadge(s Status) string {
	switch s {
	case StatusDone:
		return color.GreenString(s.String())
	case StatusPartiallySucceeded:
		return color.YellowString(s.String())
	case StatusFailed:
		return color.RedString(s.String())
	case StatusCancelled:
		return color.HiBlackString(s.String())
	default:
		return color.CyanString(s.String())
	}
}
