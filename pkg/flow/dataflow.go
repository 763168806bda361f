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

package flow

import (
	"fmt"
	"sort"

	"github.com/krakcode/codegraph/pkg/ir"
)

// DFGNodeKind distinguishes a definition occurrence from a use occurrence.
type DFGNodeKind string

const (
	DFGDef DFGNodeKind = "def"
	DFGUse DFGNodeKind = "use"
)

// Occurrence is one def or use of a variable inside a block, given to the
// data flow builder in the program order the adapter walked the block in.
type Occurrence struct {
	Variable string
	Kind     DFGNodeKind
	Span     ir.Span
}

// DFGNode is a materialized def/use occurrence, addressable by index.
type DFGNode struct {
	Index    int
	BlockID  string
	Variable string
	Kind     DFGNodeKind
	Span     ir.Span
}

// DefUseEdge connects a definition to a use it may reach.
type DefUseEdge struct {
	Def int
	Use int
}

// DataFlowGraph is the per-function def/use graph produced by reaching
// definitions analysis over a BasicFlowGraph (spec §4.3).
type DataFlowGraph struct {
	FunctionID string
	Nodes      []DFGNode
	Edges      []DefUseEdge
}

// BuildDataFlowGraph runs reaching-definitions analysis at block granularity
// over bfg and the occurrence lists supplied per block (occurrences is keyed
// by block id; a block with no entry is treated as empty). The algorithm is
// the textbook iterative forward dataflow: GEN/KILL per block, fixed-point
// IN/OUT sets, then a second pass that resolves each use against either the
// last local definition before it in program order, or (if none) the
// definitions reaching the block's entry.
func BuildDataFlowGraph(bfg *BasicFlowGraph, occurrences map[string][]Occurrence) *DataFlowGraph {
	dfg := &DataFlowGraph{FunctionID: bfg.FunctionID}

	// Materialize every occurrence (defs and uses alike, in block order and
	// then program order) as a node up front so GEN/KILL sets can refer to
	// stable indices.
	defIndex := map[string][]int{} // variable -> def node indices, in order added
	blockDefs := map[string][]int{} // block id -> def node indices local to that block, in program order
	blockOccNodes := map[string][]int{} // block id -> all node indices (def+use) in program order

	for _, b := range bfg.Blocks {
		for _, occ := range occurrences[b.ID] {
			idx := len(dfg.Nodes)
			dfg.Nodes = append(dfg.Nodes, DFGNode{
				Index:    idx,
				BlockID:  b.ID,
				Variable: occ.Variable,
				Kind:     occ.Kind,
				Span:     occ.Span,
			})
			blockOccNodes[b.ID] = append(blockOccNodes[b.ID], idx)
			if occ.Kind == DFGDef {
				defIndex[occ.Variable] = append(defIndex[occ.Variable], idx)
				blockDefs[b.ID] = append(blockDefs[b.ID], idx)
			}
		}
	}

	// GEN[b]: the last definition of each variable made in b (earlier defs
	// of the same variable in the same block are killed locally).
	gen := map[string]map[int]bool{}
	for _, b := range bfg.Blocks {
		lastByVar := map[string]int{}
		for _, idx := range blockDefs[b.ID] {
			lastByVar[dfg.Nodes[idx].Variable] = idx
		}
		set := map[int]bool{}
		for _, idx := range lastByVar {
			set[idx] = true
		}
		gen[b.ID] = set
	}

	// KILL[b]: every definition (in any block) of a variable that b also
	// defines, excluding b's own GEN entries.
	kill := map[string]map[int]bool{}
	for _, b := range bfg.Blocks {
		localVars := map[string]bool{}
		for _, idx := range blockDefs[b.ID] {
			localVars[dfg.Nodes[idx].Variable] = true
		}
		set := map[int]bool{}
		for v := range localVars {
			for _, idx := range defIndex[v] {
				if !gen[b.ID][idx] {
					set[idx] = true
				}
			}
		}
		kill[b.ID] = set
	}

	preds := map[string][]string{}
	for _, e := range bfg.Edges {
		preds[e.To] = append(preds[e.To], e.From)
	}

	in := map[string]map[int]bool{}
	out := map[string]map[int]bool{}
	for _, b := range bfg.Blocks {
		in[b.ID] = map[int]bool{}
		out[b.ID] = map[int]bool{}
	}

	// Fixed-point iteration. Bounded by node count so a malformed graph
	// (should not occur given Builder's invariants) cannot loop forever.
	maxIter := len(bfg.Blocks)*len(dfg.Nodes) + 1
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for _, b := range bfg.Blocks {
			newIn := map[int]bool{}
			for _, p := range preds[b.ID] {
				for idx := range out[p] {
					newIn[idx] = true
				}
			}
			newOut := map[int]bool{}
			for idx := range gen[b.ID] {
				newOut[idx] = true
			}
			for idx := range newIn {
				if !kill[b.ID][idx] {
					newOut[idx] = true
				}
			}
			if !setEqual(newIn, in[b.ID]) || !setEqual(newOut, out[b.ID]) {
				changed = true
			}
			in[b.ID] = newIn
			out[b.ID] = newOut
		}
		if !changed {
			break
		}
	}

	// Resolve each use: within-block local defs take precedence over the
	// block's reaching-in set, since a local def of the same variable kills
	// anything reaching the block's entry.
	for _, b := range bfg.Blocks {
		lastLocalDef := map[string]int{}
		for _, idx := range blockOccNodes[b.ID] {
			node := dfg.Nodes[idx]
			if node.Kind == DFGUse {
				if defIdx, ok := lastLocalDef[node.Variable]; ok {
					dfg.Edges = append(dfg.Edges, DefUseEdge{Def: defIdx, Use: idx})
				} else {
					for inIdx := range in[b.ID] {
						if dfg.Nodes[inIdx].Variable == node.Variable {
							dfg.Edges = append(dfg.Edges, DefUseEdge{Def: inIdx, Use: idx})
						}
					}
				}
			}
			if node.Kind == DFGDef {
				lastLocalDef[node.Variable] = idx
			}
		}
	}

	sort.Slice(dfg.Edges, func(i, j int) bool {
		if dfg.Edges[i].Use != dfg.Edges[j].Use {
			return dfg.Edges[i].Use < dfg.Edges[j].Use
		}
		return dfg.Edges[i].Def < dfg.Edges[j].Def
	})

	return dfg
}

func setEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func (dfg *DataFlowGraph) String() string {
	return fmt.Sprintf("DataFlowGraph{function=%s, nodes=%d, edges=%d}", dfg.FunctionID, len(dfg.Nodes), len(dfg.Edges))
}
