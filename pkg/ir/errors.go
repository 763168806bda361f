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

import "errors"

// Builder-level validation errors (spec §4.1). These are returned by
// constructors, never by storage; a stage that receives one of these from
// an adapter call drops the offending node/edge and keeps going (spec §7).
var (
	// ErrInvalidSpan is returned when a Span violates its ordering invariant.
	ErrInvalidSpan = errors.New("ir: invalid span")

	// ErrEmptyName is returned when a required name field is empty.
	ErrEmptyName = errors.New("ir: empty name")

	// ErrEmptyFQN is returned when a Node's fully-qualified name is empty.
	ErrEmptyFQN = errors.New("ir: empty fqn")

	// ErrUnknownKind is returned when a Node or Edge kind is outside the
	// closed set defined in kinds.go.
	ErrUnknownKind = errors.New("ir: unknown kind")
)

// ErrDuplicateID indicates a fatal invariant violation: two nodes were
// assigned the same id within one pipeline run. Unlike the builder errors
// above, this aborts the whole pipeline (spec §7 "Fatal").
type ErrDuplicateID struct {
	ID string
}

func (e *ErrDuplicateID) Error() string {
	return "ir: duplicate node id " + e.ID
}
