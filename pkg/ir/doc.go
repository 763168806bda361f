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

// Package ir defines the universal intermediate representation that every
// language adapter emits into and every analysis stage reads from.
//
// # Data model
//
// A Span locates a range of source text. A Node is the universal IR vertex
// (files, classes, functions, parameters, and so on); an Edge connects two
// nodes with a semantic relationship (Calls, Reads, Inherits, ...). A
// TypeEntity records a resolved or unresolved type reference. An Occurrence
// is a derived, queryable reference to a symbol at a span, used for
// navigation and importance ranking.
//
// # Identity
//
// Node ids are generated deterministically by NewIDGenerator: a counter per
// (repo, file) pair that never resets within a pipeline run. Re-parsing an
// unchanged file with the same adapter reproduces the same ids.
package ir
