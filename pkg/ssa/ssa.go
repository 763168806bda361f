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

package ssa

import (
	"errors"
	"sort"

	"github.com/krakcode/codegraph/pkg/flow"
	"github.com/krakcode/codegraph/pkg/ir"
)

// BuildMode selects the construction algorithm. CounterConstruction is the
// only implemented mode; Braun is accepted by the API surface so callers
// can express intent, but BuildSSA rejects it explicitly rather than
// silently downgrading to the counter algorithm.
type BuildMode int

const (
	CounterConstruction BuildMode = iota
	BraunConstruction
)

// ErrBraunUnsupported is returned by BuildSSA when asked for Braun-style
// construction (spec §9 Open Question: left unimplemented by design).
var ErrBraunUnsupported = errors.New("ssa: braun-style construction is not implemented")

// Definition is one versioned assignment to a variable.
type Definition struct {
	Variable string
	Version  int
	BlockID  string
	Span     ir.Span
	IsPhi    bool
}

// PhiNode merges the incoming versions of a variable at a block with
// multiple predecessors. Operands maps predecessor block id to the version
// of Variable live-out of that predecessor; a predecessor not present in
// Operands had not yet been visited (a loop back-edge) when the phi was
// placed.
type PhiNode struct {
	Variable string
	BlockID  string
	Version  int
	Operands map[string]int
}

// Graph is the per-function SSA result (spec §4.7: {definitions, versions,
// phi_nodes}).
type Graph struct {
	FunctionID string
	Definitions []Definition
	Versions    map[string]int // final version count reached per variable
	PhiNodes    []PhiNode
}

// BuildSSA constructs SSA for bfg using occurrences (the same per-block
// def/use lists flow.BuildDataFlowGraph consumes) and the requested mode.
func BuildSSA(bfg *flow.BasicFlowGraph, occurrences map[string][]flow.Occurrence, mode BuildMode) (*Graph, error) {
	if mode == BraunConstruction {
		return nil, ErrBraunUnsupported
	}

	g := &Graph{FunctionID: bfg.FunctionID, Versions: map[string]int{}}
	counter := map[string]int{}
	next := func(v string) int {
		counter[v]++
		return counter[v]
	}

	preds := map[string][]string{}
	for _, e := range bfg.Edges {
		preds[e.To] = append(preds[e.To], e.From)
	}
	for id := range preds {
		sort.Strings(preds[id])
	}

	order := bfsOrder(bfg)
	visited := map[string]bool{}
	versionOut := map[string]map[string]int{} // block id -> variable -> version live-out

	for _, blockID := range order {
		versionIn := map[string]int{}
		visitedPreds := make([]string, 0, len(preds[blockID]))
		for _, p := range preds[blockID] {
			if visited[p] {
				visitedPreds = append(visitedPreds, p)
			}
		}

		if len(visitedPreds) == 1 {
			for v, ver := range versionOut[visitedPreds[0]] {
				versionIn[v] = ver
			}
		} else if len(visitedPreds) > 1 {
			varSet := map[string]bool{}
			for _, p := range visitedPreds {
				for v := range versionOut[p] {
					varSet[v] = true
				}
			}
			vars := make([]string, 0, len(varSet))
			for v := range varSet {
				vars = append(vars, v)
			}
			sort.Strings(vars)

			for _, v := range vars {
				operands := map[string]int{}
				agree := true
				var first int
				firstSet := false
				for _, p := range visitedPreds {
					ver, ok := versionOut[p][v]
					if !ok {
						continue
					}
					operands[p] = ver
					if !firstSet {
						first, firstSet = ver, true
					} else if ver != first {
						agree = false
					}
				}
				if len(operands) > 1 && !agree {
					ver := next(v)
					g.PhiNodes = append(g.PhiNodes, PhiNode{Variable: v, BlockID: blockID, Version: ver, Operands: operands})
					g.Definitions = append(g.Definitions, Definition{Variable: v, Version: ver, BlockID: blockID, IsPhi: true})
					versionIn[v] = ver
				} else if firstSet {
					versionIn[v] = first
				}
			}
		}

		local := map[string]int{}
		for v, ver := range versionIn {
			local[v] = ver
		}
		for _, occ := range occurrences[blockID] {
			if occ.Kind == flow.DFGDef {
				ver := next(occ.Variable)
				g.Definitions = append(g.Definitions, Definition{
					Variable: occ.Variable,
					Version:  ver,
					BlockID:  blockID,
					Span:     occ.Span,
				})
				local[occ.Variable] = ver
			}
		}

		versionOut[blockID] = local
		visited[blockID] = true
	}

	for v, c := range counter {
		g.Versions[v] = c
	}
	return g, nil
}

// bfsOrder walks bfg from its ENTRY block breadth-first, visiting each
// reachable block exactly once. Blocks unreachable from ENTRY are appended
// afterward in id order so BuildSSA still processes every block.
func bfsOrder(bfg *flow.BasicFlowGraph) []string {
	adj := map[string][]string{}
	for _, e := range bfg.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	for id := range adj {
		sort.Strings(adj[id])
	}

	var order []string
	seen := map[string]bool{}
	queue := []string{bfg.EntryID}
	seen[bfg.EntryID] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	var rest []string
	for _, b := range bfg.Blocks {
		if !seen[b.ID] {
			rest = append(rest, b.ID)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
