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

	"github.com/krakcode/codegraph/pkg/ir"
)

// BlockKind classifies a basic block.
type BlockKind string

const (
	BlockEntry  BlockKind = "entry"
	BlockExit   BlockKind = "exit"
	BlockNormal BlockKind = "normal"
	BlockBranch BlockKind = "branch"
	BlockLoop   BlockKind = "loop"
)

// Block is one basic block of a function's flow graph: a maximal run of
// statements with a single entry and a single exit, or one of the two
// synthetic ENTRY/EXIT sentinels every BasicFlowGraph is wrapped in.
type Block struct {
	ID             string
	Kind           BlockKind
	Span           ir.Span
	StatementCount int
}

// CFGEdgeKind classifies how control passes between two blocks (spec §4.3).
type CFGEdgeKind string

const (
	CFGNormal       CFGEdgeKind = "normal"
	CFGCall         CFGEdgeKind = "call"
	CFGReturn       CFGEdgeKind = "return"
	CFGCallToReturn CFGEdgeKind = "call_to_return"
)

// CFGEdge is a directed control-flow edge. CalleeEntry is only populated on
// Call edges; CallSite only on Return and CallToReturn edges.
type CFGEdge struct {
	From        string
	To          string
	Kind        CFGEdgeKind
	CalleeEntry string
	CallSite    string
}

// BasicFlowGraph is the per-function block graph: every function has
// exactly one ENTRY block and one EXIT block, even if the function has no
// reachable statements (spec §4.3 invariant).
type BasicFlowGraph struct {
	FunctionID string
	Blocks     []Block
	Edges      []CFGEdge
	EntryID    string
	ExitID     string
}

// BlockByID finds a block by id, or returns (Block{}, false).
func (g *BasicFlowGraph) BlockByID(id string) (Block, bool) {
	for _, b := range g.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// Successors returns the ids of blocks reachable from id via one edge, in
// the order the edges were added.
func (g *BasicFlowGraph) Successors(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the ids of blocks with an edge into id.
func (g *BasicFlowGraph) Predecessors(id string) []string {
	var in []string
	for _, e := range g.Edges {
		if e.To == id {
			in = append(in, e.From)
		}
	}
	return in
}

// Builder assembles a BasicFlowGraph one block at a time. The adapter
// driving construction decides block boundaries and edge kinds; Builder
// only owns id assignment and the ENTRY/EXIT wrapping every BFG must carry.
type Builder struct {
	functionID string
	counter    int
	graph      *BasicFlowGraph
}

// NewBuilder starts a BasicFlowGraph for functionID, pre-seeded with its
// ENTRY and EXIT blocks (spec §4.3: every BFG has exactly one of each).
func NewBuilder(functionID string) *Builder {
	entryID := fmt.Sprintf("bfg:%s:entry", functionID)
	exitID := fmt.Sprintf("bfg:%s:exit", functionID)
	b := &Builder{
		functionID: functionID,
		graph: &BasicFlowGraph{
			FunctionID: functionID,
			EntryID:    entryID,
			ExitID:     exitID,
			Blocks: []Block{
				{ID: entryID, Kind: BlockEntry},
				{ID: exitID, Kind: BlockExit},
			},
		},
	}
	return b
}

// AddBlock appends a new block and returns its generated id.
func (b *Builder) AddBlock(kind BlockKind, span ir.Span, statementCount int) string {
	id := fmt.Sprintf("bfg:%s:%d", b.functionID, b.counter)
	b.counter++
	b.graph.Blocks = append(b.graph.Blocks, Block{
		ID:             id,
		Kind:           kind,
		Span:           span,
		StatementCount: statementCount,
	})
	return id
}

// AddEdge records a control-flow edge between two block ids already known to
// the builder (ENTRY/EXIT ids are stable and may be used directly).
func (b *Builder) AddEdge(from, to string, kind CFGEdgeKind) {
	b.graph.Edges = append(b.graph.Edges, CFGEdge{From: from, To: to, Kind: kind})
}

// AddCallEdge records a Call edge into calleeEntry, the callee's ENTRY block
// id, and AddReturnEdge records the matching Return edge back from the
// callee's EXIT block to the call site's continuation block.
func (b *Builder) AddCallEdge(from, calleeEntry string) {
	b.graph.Edges = append(b.graph.Edges, CFGEdge{From: from, To: calleeEntry, Kind: CFGCall, CalleeEntry: calleeEntry})
}

func (b *Builder) AddReturnEdge(from, to, callSite string) {
	b.graph.Edges = append(b.graph.Edges, CFGEdge{From: from, To: to, Kind: CFGReturn, CallSite: callSite})
}

// AddCallToReturnEdge records the interprocedural-skip edge IFDS solvers use
// to approximate a call's effect without descending into the callee.
func (b *Builder) AddCallToReturnEdge(from, to, callSite string) {
	b.graph.Edges = append(b.graph.Edges, CFGEdge{From: from, To: to, Kind: CFGCallToReturn, CallSite: callSite})
}

// Entry and Exit expose the stable synthetic block ids for wiring edges.
func (b *Builder) Entry() string { return b.graph.EntryID }
func (b *Builder) Exit() string  { return b.graph.ExitID }

// Build finalizes the graph. A builder that never had AddBlock called still
// yields a valid BFG: ENTRY connected directly to EXIT.
func (b *Builder) Build() *BasicFlowGraph {
	if len(b.graph.Edges) == 0 {
		b.graph.Edges = append(b.graph.Edges, CFGEdge{From: b.graph.EntryID, To: b.graph.ExitID, Kind: CFGNormal})
	}
	return b.graph
}
