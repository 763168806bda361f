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

package change

import (
	"sort"

	"github.com/krakcode/codegraph/pkg/ir"
)

// MaxImpactDepth bounds the BFS impact walk: depth 0 is the primary
// target itself, depths 1 and 2 are secondary impact.
const MaxImpactDepth = 2

// TransactionDelta describes one set of modified nodes submitted to the
// analyzer together, e.g. everything a single re-parse of a changed file
// produced.
type TransactionDelta struct {
	ModifiedNodeIDs []string
}

// ReverseGraph is an adjacency list from node id to the ids of nodes that
// depend on it (i.e. edges reversed relative to the IR's Source->Target
// convention), the structure the impact BFS walks.
type ReverseGraph map[string][]string

// BuildReverseGraph inverts a node/edge set into a ReverseGraph: for every
// edge A -> B, B's reverse adjacency gains A, since a change to B can
// impact A (A referenced, called, or inherited from B).
func BuildReverseGraph(edges []ir.Edge) ReverseGraph {
	g := ReverseGraph{}
	for _, e := range edges {
		g[e.TargetID] = append(g[e.TargetID], e.SourceID)
	}
	return g
}

// ImpactSet maps every node reached by the bounded BFS to the depth at
// which it was first visited. Primary targets (the delta's modified
// nodes) are depth 0.
type ImpactSet map[string]int

// SortedIDs returns the impacted node ids in deterministic order, needed
// because Go map iteration order is not stable and the spec requires
// reorder-invariant output.
func (s ImpactSet) SortedIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AtDepth returns the ids visited at exactly the given depth, sorted.
func (s ImpactSet) AtDepth(depth int) []string {
	var out []string
	for id, d := range s {
		if d == depth {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ComputeImpact walks g in reverse from every node in delta up to
// MaxImpactDepth, visiting each node at most once (the first, shallowest
// depth it is reached at) so cycles terminate naturally without special
// casing. The result is independent of the order modified nodes appear
// in delta, since every primary target seeds the same BFS frontier at
// depth 0 before any expansion happens.
func ComputeImpact(g ReverseGraph, delta TransactionDelta) ImpactSet {
	visited := ImpactSet{}
	frontier := make([]string, 0, len(delta.ModifiedNodeIDs))
	seed := append([]string(nil), delta.ModifiedNodeIDs...)
	sort.Strings(seed)
	for _, id := range seed {
		if _, ok := visited[id]; !ok {
			visited[id] = 0
			frontier = append(frontier, id)
		}
	}

	for depth := 0; depth < MaxImpactDepth && len(frontier) > 0; depth++ {
		next := make([]string, 0)
		for _, id := range frontier {
			neighbors := append([]string(nil), g[id]...)
			sort.Strings(neighbors)
			for _, n := range neighbors {
				if _, ok := visited[n]; ok {
					continue
				}
				visited[n] = depth + 1
				next = append(next, n)
			}
		}
		frontier = next
	}
	return visited
}
