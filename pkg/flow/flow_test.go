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
	"testing"

	"github.com/krakcode/codegraph/pkg/ir"
	"github.com/stretchr/testify/require"
)

func TestBuilderEmptyFunctionStillHasEntryExit(t *testing.T) {
	b := NewBuilder("fn:1")
	g := b.Build()

	require.Len(t, g.Blocks, 2)
	require.Equal(t, BlockEntry, mustBlock(t, g, g.EntryID).Kind)
	require.Equal(t, BlockExit, mustBlock(t, g, g.ExitID).Kind)
	require.Len(t, g.Edges, 1)
	require.Equal(t, g.EntryID, g.Edges[0].From)
	require.Equal(t, g.ExitID, g.Edges[0].To)
}

func TestBuilderLinearBlocks(t *testing.T) {
	b := NewBuilder("fn:linear")
	s1 := b.AddBlock(BlockNormal, ir.Span{StartLine: 1, EndLine: 1}, 1)
	s2 := b.AddBlock(BlockNormal, ir.Span{StartLine: 2, EndLine: 2}, 1)
	b.AddEdge(b.Entry(), s1, CFGNormal)
	b.AddEdge(s1, s2, CFGNormal)
	b.AddEdge(s2, b.Exit(), CFGNormal)
	g := b.Build()

	require.Equal(t, []string{s1}, g.Successors(b.Entry()))
	require.Equal(t, []string{s1}, g.Predecessors(s2))
	require.Equal(t, []string{b.Exit()}, g.Successors(s2))
}

func TestBuilderCallAndReturnEdges(t *testing.T) {
	b := NewBuilder("fn:caller")
	callSite := b.AddBlock(BlockNormal, ir.Span{}, 1)
	cont := b.AddBlock(BlockNormal, ir.Span{}, 1)
	calleeEntry := "bfg:fn:callee:entry"
	calleeExit := "bfg:fn:callee:exit"

	b.AddEdge(b.Entry(), callSite, CFGNormal)
	b.AddCallEdge(callSite, calleeEntry)
	b.AddReturnEdge(calleeExit, cont, callSite)
	b.AddCallToReturnEdge(callSite, cont, callSite)
	b.AddEdge(cont, b.Exit(), CFGNormal)
	g := b.Build()

	var sawCall, sawReturn, sawSkip bool
	for _, e := range g.Edges {
		switch e.Kind {
		case CFGCall:
			sawCall = true
			require.Equal(t, calleeEntry, e.CalleeEntry)
		case CFGReturn:
			sawReturn = true
			require.Equal(t, callSite, e.CallSite)
		case CFGCallToReturn:
			sawSkip = true
		}
	}
	require.True(t, sawCall)
	require.True(t, sawReturn)
	require.True(t, sawSkip)
}

func mustBlock(t *testing.T, g *BasicFlowGraph, id string) Block {
	t.Helper()
	b, ok := g.BlockByID(id)
	require.True(t, ok)
	return b
}

func TestReachingDefinitionsStraightLine(t *testing.T) {
	// block1: def x
	// block2: use x
	b := NewBuilder("fn:straight")
	block1 := b.AddBlock(BlockNormal, ir.Span{}, 1)
	block2 := b.AddBlock(BlockNormal, ir.Span{}, 1)
	b.AddEdge(b.Entry(), block1, CFGNormal)
	b.AddEdge(block1, block2, CFGNormal)
	b.AddEdge(block2, b.Exit(), CFGNormal)
	g := b.Build()

	occ := map[string][]Occurrence{
		block1: {{Variable: "x", Kind: DFGDef}},
		block2: {{Variable: "x", Kind: DFGUse}},
	}
	dfg := BuildDataFlowGraph(g, occ)

	require.Len(t, dfg.Edges, 1)
	defNode := dfg.Nodes[dfg.Edges[0].Def]
	useNode := dfg.Nodes[dfg.Edges[0].Use]
	require.Equal(t, DFGDef, defNode.Kind)
	require.Equal(t, DFGUse, useNode.Kind)
}

func TestReachingDefinitionsLocalDefKillsIncoming(t *testing.T) {
	// block1: def x
	// block2: def x; use x  -> use must bind to block2's local def, not block1's
	b := NewBuilder("fn:kill")
	block1 := b.AddBlock(BlockNormal, ir.Span{}, 1)
	block2 := b.AddBlock(BlockNormal, ir.Span{}, 2)
	b.AddEdge(b.Entry(), block1, CFGNormal)
	b.AddEdge(block1, block2, CFGNormal)
	b.AddEdge(block2, b.Exit(), CFGNormal)
	g := b.Build()

	occ := map[string][]Occurrence{
		block1: {{Variable: "x", Kind: DFGDef}},
		block2: {{Variable: "x", Kind: DFGDef}, {Variable: "x", Kind: DFGUse}},
	}
	dfg := BuildDataFlowGraph(g, occ)

	require.Len(t, dfg.Edges, 1)
	defNode := dfg.Nodes[dfg.Edges[0].Def]
	require.Equal(t, block2, defNode.BlockID)
}

func TestReachingDefinitionsMergeAtJoin(t *testing.T) {
	// entry -> left (def x) -> join (use x)
	// entry -> right (def x) -> join
	b := NewBuilder("fn:merge")
	left := b.AddBlock(BlockNormal, ir.Span{}, 1)
	right := b.AddBlock(BlockNormal, ir.Span{}, 1)
	join := b.AddBlock(BlockNormal, ir.Span{}, 1)
	b.AddEdge(b.Entry(), left, CFGNormal)
	b.AddEdge(b.Entry(), right, CFGNormal)
	b.AddEdge(left, join, CFGNormal)
	b.AddEdge(right, join, CFGNormal)
	b.AddEdge(join, b.Exit(), CFGNormal)
	g := b.Build()

	occ := map[string][]Occurrence{
		left:  {{Variable: "x", Kind: DFGDef}},
		right: {{Variable: "x", Kind: DFGDef}},
		join:  {{Variable: "x", Kind: DFGUse}},
	}
	dfg := BuildDataFlowGraph(g, occ)

	require.Len(t, dfg.Edges, 2, "use at the join should be reached by both branch definitions")
}

func TestReachingDefinitionsUnrelatedVariableNoEdge(t *testing.T) {
	b := NewBuilder("fn:unrelated")
	block1 := b.AddBlock(BlockNormal, ir.Span{}, 1)
	block2 := b.AddBlock(BlockNormal, ir.Span{}, 1)
	b.AddEdge(b.Entry(), block1, CFGNormal)
	b.AddEdge(block1, block2, CFGNormal)
	b.AddEdge(block2, b.Exit(), CFGNormal)
	g := b.Build()

	occ := map[string][]Occurrence{
		block1: {{Variable: "x", Kind: DFGDef}},
		block2: {{Variable: "y", Kind: DFGUse}},
	}
	dfg := BuildDataFlowGraph(g, occ)

	require.Empty(t, dfg.Edges)
}
