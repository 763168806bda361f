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

// ValidateInvariants checks spec §3 invariants 1-5 over a fully assembled
// set of nodes and edges. Invariant 6 (id stability across runs) cannot be
// checked from a single result and is instead covered by determinism tests
// at the pipeline level.
func ValidateInvariants(nodes []Node, edges []Edge) error {
	ids := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if !n.Span.Valid() {
			return fmt.Errorf("ir: invariant 5 violated for node %s: %s", n.ID, n.Span)
		}
		ids[n.ID] = n
	}

	// Invariant 1 & 2: parent/source/target resolve locally or are ref:.
	checkRef := func(id string) error {
		if id == "" || IsRef(id) {
			return nil
		}
		if _, ok := ids[id]; !ok {
			return fmt.Errorf("ir: invariant 1 violated: id %q does not resolve and is not a ref:", id)
		}
		return nil
	}
	for _, n := range nodes {
		if err := checkRef(n.ParentID); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if err := checkRef(e.SourceID); err != nil {
			return err
		}
		if err := checkRef(e.TargetID); err != nil {
			return err
		}
	}

	// Invariant 3: Contains forms a forest over non-file nodes; each
	// non-file node has exactly one Contains parent within the same file.
	containsParent := make(map[string]string)
	for _, e := range edges {
		if e.Kind != EdgeContains {
			continue
		}
		if existing, ok := containsParent[e.TargetID]; ok && existing != e.SourceID {
			return fmt.Errorf("ir: invariant 3 violated: node %s has multiple Contains parents", e.TargetID)
		}
		containsParent[e.TargetID] = e.SourceID
	}
	for _, n := range nodes {
		if n.Kind == KindFile {
			continue
		}
		parent, ok := containsParent[n.ID]
		if !ok {
			continue // adapters may omit the edge for synthetic nodes; not fatal here.
		}
		if src, ok := ids[parent]; ok && src.FilePath != n.FilePath && !IsRef(parent) {
			return fmt.Errorf("ir: invariant 3 violated: node %s contained by node in different file", n.ID)
		}
	}

	return nil
}
