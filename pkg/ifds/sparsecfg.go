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

package ifds

import (
	"sort"

	"github.com/krakcode/codegraph/pkg/flow"
)

// Relevance classifies a CFG node for sparse CFG construction (spec §4.9).
type Relevance int

const (
	Generator Relevance = iota
	Killer
	User
	Boundary
	Irrelevant
)

// SparseEdge is a control-flow edge in the reduced graph. It preserves the
// original edge kind and records how many Irrelevant nodes it skipped over.
type SparseEdge struct {
	From        string
	To          string
	Kind        flow.CFGEdgeKind
	CalleeEntry string
	CallSite    string
	Skipped     int
}

// SparseCFG is the reduced control-flow graph for one function: only
// Generator/Killer/User/Boundary nodes remain, connected by edges that fuse
// through any intervening Irrelevant nodes.
type SparseCFG struct {
	FunctionID string
	Entry      string
	Exit       string
	out        map[string][]SparseEdge
	relevance  map[string]Relevance
}

// Out returns the sparse outgoing edges from node, sorted for determinism.
func (s *SparseCFG) Out(node string) []SparseEdge {
	return s.out[node]
}

// RelevanceOf reports the relevance classification recorded for node.
func (s *SparseCFG) RelevanceOf(node string) Relevance {
	return s.relevance[node]
}

// FromCFG builds a SparseCFG from a full BasicFlowGraph and a per-node
// relevance classifier. ENTRY and EXIT are always kept, coerced to Boundary
// if the classifier did not already mark them relevant (spec §4.9 step 1).
func FromCFG(cfg *flow.BasicFlowGraph, relevance func(nodeID string) Relevance) *SparseCFG {
	rel := make(map[string]Relevance, len(cfg.Blocks))
	for _, b := range cfg.Blocks {
		r := relevance(b.ID)
		if (b.ID == cfg.EntryID || b.ID == cfg.ExitID) && r == Irrelevant {
			r = Boundary
		}
		rel[b.ID] = r
	}

	adj := map[string][]flow.CFGEdge{}
	for _, e := range cfg.Edges {
		adj[e.From] = append(adj[e.From], e)
	}

	sparse := &SparseCFG{
		FunctionID: cfg.FunctionID,
		Entry:      cfg.EntryID,
		Exit:       cfg.ExitID,
		out:        map[string][]SparseEdge{},
		relevance:  rel,
	}

	for _, b := range cfg.Blocks {
		if rel[b.ID] == Irrelevant {
			continue
		}
		for _, edge := range adj[b.ID] {
			// Call/Return edges cross into another function's sparse CFG;
			// the target's relevance is that graph's concern, not ours, so
			// these are always preserved verbatim.
			if edge.Kind == flow.CFGCall || edge.Kind == flow.CFGReturn {
				sparse.out[b.ID] = append(sparse.out[b.ID], SparseEdge{
					From: b.ID, To: edge.To, Kind: edge.Kind,
					CalleeEntry: edge.CalleeEntry, CallSite: edge.CallSite,
				})
				continue
			}

			visited := map[string]bool{b.ID: true}
			skipped := 0
			cur := edge
			for rel[cur.To] == Irrelevant {
				visited[cur.To] = true
				next := adj[cur.To]
				if len(next) == 0 {
					break
				}
				skipped++
				cur = next[0]
				if visited[cur.To] {
					break // cyclic run of irrelevant nodes; stop rather than loop forever
				}
			}
			if rel[cur.To] == Irrelevant {
				continue // ran off the end without reaching a relevant node
			}
			sparse.out[b.ID] = append(sparse.out[b.ID], SparseEdge{
				From:        b.ID,
				To:          cur.To,
				Kind:        edge.Kind,
				CalleeEntry: cur.CalleeEntry,
				CallSite:    cur.CallSite,
				Skipped:     skipped,
			})
		}
	}

	for id := range sparse.out {
		sortSparseEdges(sparse.out[id])
	}
	return sparse
}

func sortSparseEdges(edges []SparseEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Kind < edges[j].Kind
	})
}
