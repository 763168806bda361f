// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package ir

import "fmt"

// Span locates a contiguous range of source text. Lines are 1-based;
// columns are 0-based, matching tree-sitter point conventions.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Valid reports whether the span satisfies the ordering invariant:
// StartLine <= EndLine, and StartCol <= EndCol when both lines are equal.
func (s Span) Valid() bool {
	if s.StartLine > s.EndLine {
		return false
	}
	if s.StartLine == s.EndLine && s.StartCol > s.EndCol {
		return false
	}
	return true
}

// Equal reports whether two spans cover the same range.
func (s Span) Equal(o Span) bool {
	return s == o
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}
