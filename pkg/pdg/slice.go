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

package pdg

import "sort"

// Slice is the result of a slicing operation: the set of node ids reached,
// sorted for deterministic comparison and output.
type Slice []string

func newSliceFromSet(set map[string]bool) Slice {
	out := make(Slice, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s Slice) set() map[string]bool {
	m := make(map[string]bool, len(s))
	for _, id := range s {
		m[id] = true
	}
	return m
}

// bfs walks edges from n up to depth hops (0 = just n), following only
// edges matching the include predicate, and returns the visited set.
// direction selects g.in (backward) or g.out (forward) adjacency.
func (g *Graph) bfs(n string, depth int, adjacency map[string][]Edge, include func(Edge) bool) map[string]bool {
	visited := map[string]bool{n: true}
	if depth <= 0 {
		return visited
	}
	frontier := []string{n}
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, cur := range frontier {
			for _, e := range adjacency[cur] {
				if !include(e) {
					continue
				}
				other := otherEnd(e, cur)
				if !visited[other] {
					visited[other] = true
					next = append(next, other)
				}
			}
		}
		frontier = next
	}
	return visited
}

func otherEnd(e Edge, from string) string {
	if e.From == from {
		return e.To
	}
	return e.From
}

func includeAll(Edge) bool { return true }

func includeData(e Edge) bool { return e.Type == Data }

func includeFiltered(incCtrl, incData bool) func(Edge) bool {
	return func(e Edge) bool {
		if e.Type == Control {
			return incCtrl
		}
		return incData
	}
}

// BackwardSlice returns {n} union all predecessors of n reachable within
// depth hops, following both control and data edges (spec §4.8).
func (g *Graph) BackwardSlice(n string, depth int) Slice {
	return newSliceFromSet(g.bfs(n, depth, g.in, includeAll))
}

// ForwardSlice is the symmetric successor-reachability slice.
func (g *Graph) ForwardSlice(n string, depth int) Slice {
	return newSliceFromSet(g.bfs(n, depth, g.out, includeAll))
}

// BackwardSliceFiltered restricts BackwardSlice to the requested
// dependence types.
func (g *Graph) BackwardSliceFiltered(n string, depth int, includeControl, includeData bool) Slice {
	return newSliceFromSet(g.bfs(n, depth, g.in, includeFiltered(includeControl, includeData)))
}

// ForwardSliceFiltered is the forward counterpart.
func (g *Graph) ForwardSliceFiltered(n string, depth int, includeControl, includeData bool) Slice {
	return newSliceFromSet(g.bfs(n, depth, g.out, includeFiltered(includeControl, includeData)))
}

// ThinSlice is the data-only backward slice; it is always a subset of
// BackwardSlice(n, depth) for the same (n, depth) (spec §8 slicing laws).
func (g *Graph) ThinSlice(n string, depth int) Slice {
	return newSliceFromSet(g.bfs(n, depth, g.in, includeData))
}

// HybridSlice unions the backward and forward slices.
func (g *Graph) HybridSlice(n string, depth int) Slice {
	back := g.bfs(n, depth, g.in, includeAll)
	fwd := g.bfs(n, depth, g.out, includeAll)
	for id := range fwd {
		back[id] = true
	}
	return newSliceFromSet(back)
}

// Chop returns forward_slice(src) ∩ backward_slice(tgt): the nodes on any
// path from src to tgt (spec §4.8, §8). It contains both src and tgt iff a
// path exists between them in the PDG.
func (g *Graph) Chop(src, tgt string, depth int) Slice {
	fwd := g.bfs(src, depth, g.out, includeAll)
	back := g.bfs(tgt, depth, g.in, includeAll)
	return intersect(fwd, back)
}

// ChopFiltered is Chop restricted to the requested dependence types on both
// the forward and backward legs.
func (g *Graph) ChopFiltered(src, tgt string, depth int, includeControl, includeData bool) Slice {
	pred := includeFiltered(includeControl, includeData)
	fwd := g.bfs(src, depth, g.out, pred)
	back := g.bfs(tgt, depth, g.in, pred)
	return intersect(fwd, back)
}

func intersect(a, b map[string]bool) Slice {
	out := map[string]bool{}
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for id := range small {
		if big[id] {
			out[id] = true
		}
	}
	return newSliceFromSet(out)
}
