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

import (
	"fmt"
	"path/filepath"
	"sync"
)

// IDGenerator produces stable node ids of the form "<repo>:<file>:<counter>".
// Counters start at 0 per (repo, file) pair and never reset within one
// pipeline run, so re-parsing an unchanged file reproduces the same ids
// (spec §3 invariant 6), as long as the adapter requests ids in the same
// order for the same input.
//
// Adapted from the teacher's GenerateFileID/GenerateFunctionID
// (pkg/ingestion/ids.go), generalized from a file/function-only hash scheme
// to the full per-node counter scheme spec §4.1 requires.
type IDGenerator struct {
	mu       sync.Mutex
	repo     string
	counters map[string]int
	seen     map[string]bool
}

// NewIDGenerator creates a generator scoped to one repository.
func NewIDGenerator(repo string) *IDGenerator {
	return &IDGenerator{
		repo:     repo,
		counters: make(map[string]int),
		seen:     make(map[string]bool),
	}
}

// Next returns the next deterministic id for the given file path.
func (g *IDGenerator) Next(file string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	norm := normalizePath(file)
	n := g.counters[norm]
	g.counters[norm] = n + 1

	id := fmt.Sprintf("%s:%s:%d", g.repo, norm, n)
	g.seen[id] = true
	return id
}

// Observe records an externally-constructed id (e.g. from a test fixture or
// a resumed run) so that subsequent DuplicateID checks see it. It does not
// advance any counter.
func (g *IDGenerator) Observe(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[id] {
		return &ErrDuplicateID{ID: id}
	}
	g.seen[id] = true
	return nil
}

// normalizePath mirrors the teacher's ids.go normalizePath: forward slashes,
// no leading "./", no leading "/", cleaned of redundant separators. Kept
// identical because the spec ties determinism to a stable on-disk path
// representation, and this is exactly that.
func normalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}
