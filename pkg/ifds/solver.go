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
	"time"

	"github.com/krakcode/codegraph/pkg/flow"
)

// Problem is the flow-function contract a concrete IFDS instance (taint,
// or any other distributive dataflow problem) must provide (spec §4.9).
type Problem[F comparable] interface {
	// NormalFlow computes the facts holding at n2 given d holds at n1,
	// across a Normal (or CallToReturn-absent) edge.
	NormalFlow(n1, n2 string, d F) []F
	// CallFlow computes the facts entering calleeEntry given d holds at
	// callSite.
	CallFlow(callSite, calleeEntry string, d F) []F
	// ReturnFlow computes the facts holding at retSite given dOut held at
	// the callee's exit and dAtCall held at callSite just before the call.
	ReturnFlow(exit, retSite, callSite string, dOut, dAtCall F) []F
	// CallToReturnFlow computes the facts flowing directly from callSite to
	// retSite without descending into the callee (spec §4.9).
	CallToReturnFlow(callSite, retSite string, d F) []F
	// InitialSeeds returns the starting facts at each node the analysis
	// should seed from (e.g. taint sources).
	InitialSeeds() map[string][]F
	// ZeroFact is the distinguished "nothing holds" fact path edges use as
	// d1 at a procedure's own entry.
	ZeroFact() F
}

type pathEdgeKey[F comparable] struct {
	procEntry string
	d1        F
	node      string
	d2        F
}

type calleeCtxKey[F comparable] struct {
	calleeEntry string
	dIn         F
}

type callerInfo[F comparable] struct {
	callSite        string
	callerProcEntry string
	callerD1        F
	dAtCall         F
}

// Solver runs the tabulation algorithm over a set of per-function
// SparseCFGs, resolving calls across them by callee entry id.
type Solver[F comparable] struct {
	problem    Problem[F]
	graphs     map[string]*SparseCFG // keyed by Entry id
	nodeGraph  map[string]*SparseCFG
	retSiteOf  map[string]string // call site -> return site, from CallToReturn edges

	pathEdges    map[pathEdgeKey[F]]bool
	summaryEdges map[calleeCtxKey[F]]map[F]bool
	callers      map[calleeCtxKey[F]][]callerInfo[F]

	// MaxSteps bounds the number of path edges processed; 0 means
	// unbounded. Deadline, if non-zero, stops the worklist once passed.
	// Both are optional safety nets a caller (e.g. the taint engine) can
	// set to enforce its own budget without the solver knowing what kind
	// of problem it is running.
	MaxSteps int
	Deadline time.Time

	// Stats mirrors the counters the pipeline reports alongside results.
	Stats Statistics
}

// Statistics captures solver-run counters, useful for budget enforcement
// and observability.
type Statistics struct {
	PathEdgesProcessed  int
	SummaryEdgesCreated int
	NodesVisited        int
	BudgetExhausted     bool
}

// NewSolver indexes the given per-function sparse CFGs and prepares a
// solver for problem.
func NewSolver[F comparable](problem Problem[F], graphs []*SparseCFG) *Solver[F] {
	s := &Solver[F]{
		problem:      problem,
		graphs:       map[string]*SparseCFG{},
		nodeGraph:    map[string]*SparseCFG{},
		retSiteOf:    map[string]string{},
		pathEdges:    map[pathEdgeKey[F]]bool{},
		summaryEdges: map[calleeCtxKey[F]]map[F]bool{},
		callers:      map[calleeCtxKey[F]][]callerInfo[F]{},
	}
	for _, g := range graphs {
		s.graphs[g.Entry] = g
		for node := range g.out {
			s.nodeGraph[node] = g
		}
		s.nodeGraph[g.Entry] = g
		s.nodeGraph[g.Exit] = g
		for node, edges := range g.out {
			for _, e := range edges {
				if e.Kind == flow.CFGCallToReturn {
					s.retSiteOf[node] = e.To
				}
			}
		}
	}
	return s
}

// Solve runs the worklist to completion (the domain is finite and path
// edges deduplicate in a set, so termination is guaranteed per spec §4.9)
// and returns, per node, the set of facts tabulated there.
func (s *Solver[F]) Solve() map[string]map[F]bool {
	var worklist []pathEdgeKey[F]

	enqueue := func(k pathEdgeKey[F]) {
		if s.pathEdges[k] {
			return
		}
		s.pathEdges[k] = true
		worklist = append(worklist, k)
	}

	for node, facts := range s.problem.InitialSeeds() {
		g, ok := s.nodeGraph[node]
		if !ok {
			continue
		}
		for _, d := range facts {
			enqueue(pathEdgeKey[F]{procEntry: g.Entry, d1: s.problem.ZeroFact(), node: node, d2: d})
		}
	}

	for len(worklist) > 0 {
		if s.MaxSteps > 0 && s.Stats.PathEdgesProcessed >= s.MaxSteps {
			s.Stats.BudgetExhausted = true
			break
		}
		if !s.Deadline.IsZero() && time.Now().After(s.Deadline) {
			s.Stats.BudgetExhausted = true
			break
		}
		edge := worklist[0]
		worklist = worklist[1:]
		s.Stats.PathEdgesProcessed++
		s.step(edge, enqueue)
	}

	result := map[string]map[F]bool{}
	for k := range s.pathEdges {
		if result[k.node] == nil {
			result[k.node] = map[F]bool{}
		}
		result[k.node][k.d2] = true
	}
	s.Stats.NodesVisited = len(result)
	return result
}

func (s *Solver[F]) step(edge pathEdgeKey[F], enqueue func(pathEdgeKey[F])) {
	g := s.nodeGraph[edge.node]
	if g == nil {
		return
	}

	for _, out := range g.Out(edge.node) {
		switch out.Kind {
		case flow.CFGNormal:
			for _, d2 := range s.problem.NormalFlow(edge.node, out.To, edge.d2) {
				enqueue(pathEdgeKey[F]{procEntry: edge.procEntry, d1: edge.d1, node: out.To, d2: d2})
			}
		case flow.CFGCallToReturn:
			for _, d2 := range s.problem.CallToReturnFlow(edge.node, out.To, edge.d2) {
				enqueue(pathEdgeKey[F]{procEntry: edge.procEntry, d1: edge.d1, node: out.To, d2: d2})
			}
		case flow.CFGCall:
			s.handleCall(edge, out, enqueue)
		}
	}

	if edge.node == g.Exit {
		s.handleExit(edge, g, enqueue)
	}
}

func (s *Solver[F]) handleCall(edge pathEdgeKey[F], out SparseEdge, enqueue func(pathEdgeKey[F])) {
	calleeEntry := out.CalleeEntry
	if calleeEntry == "" {
		return
	}
	for _, dIn := range s.problem.CallFlow(edge.node, calleeEntry, edge.d2) {
		ctx := calleeCtxKey[F]{calleeEntry: calleeEntry, dIn: dIn}
		s.callers[ctx] = append(s.callers[ctx], callerInfo[F]{
			callSite:        edge.node,
			callerProcEntry: edge.procEntry,
			callerD1:        edge.d1,
			dAtCall:         edge.d2,
		})

		enqueue(pathEdgeKey[F]{procEntry: calleeEntry, d1: dIn, node: calleeEntry, d2: dIn})

		if outs, ok := s.summaryEdges[ctx]; ok {
			retSite, hasRet := s.retSiteOf[edge.node]
			if !hasRet {
				continue
			}
			calleeGraph := s.graphs[calleeEntry]
			exitID := calleeEntry
			if calleeGraph != nil {
				exitID = calleeGraph.Exit
			}
			for dOut := range outs {
				for _, d2 := range s.problem.ReturnFlow(exitID, retSite, edge.node, dOut, edge.d2) {
					enqueue(pathEdgeKey[F]{procEntry: edge.procEntry, d1: edge.d1, node: retSite, d2: d2})
				}
			}
		}
	}
}

func (s *Solver[F]) handleExit(edge pathEdgeKey[F], g *SparseCFG, enqueue func(pathEdgeKey[F])) {
	ctx := calleeCtxKey[F]{calleeEntry: edge.procEntry, dIn: edge.d1}
	if s.summaryEdges[ctx] == nil {
		s.summaryEdges[ctx] = map[F]bool{}
	}
	if s.summaryEdges[ctx][edge.d2] {
		return
	}
	s.summaryEdges[ctx][edge.d2] = true
	s.Stats.SummaryEdgesCreated++

	for _, caller := range s.callers[ctx] {
		retSite, ok := s.retSiteOf[caller.callSite]
		if !ok {
			continue
		}
		for _, d2 := range s.problem.ReturnFlow(g.Exit, retSite, caller.callSite, edge.d2, caller.dAtCall) {
			enqueue(pathEdgeKey[F]{procEntry: caller.callerProcEntry, d1: caller.callerD1, node: retSite, d2: d2})
		}
	}
}
