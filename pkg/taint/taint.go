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

package taint

import (
	"sort"
	"time"

	"github.com/krakcode/codegraph/pkg/flow"
	"github.com/krakcode/codegraph/pkg/ifds"
)

// Config caps exploration per function (spec §4.10). A zero value means
// "unbounded" for every field except MaxDepth, which falls back to a
// sensible default since an unbounded taint chase over a cyclic CFG would
// never converge in the Fact encoding used here.
type Config struct {
	MaxDepth       int
	MaxPaths       int
	TimeoutSeconds int
	UsePointsTo    bool
}

// DefaultConfig matches the defaults a Balanced pipeline preset applies.
func DefaultConfig() Config {
	return Config{MaxDepth: 50, MaxPaths: 100, TimeoutSeconds: 10}
}

// CallSite is one call expression inside a function, as recorded by the
// language adapter: the node it occurs at, the callee name to match
// against a Catalog, the variable (if any) the call result is assigned to,
// and the variables passed as arguments.
type CallSite struct {
	NodeID    string
	Callee    string
	ResultVar string
	ArgVars   []string
}

// Flow is one tainted path from a source to a sink found in a function.
type Flow struct {
	SourceNode string
	SourceVar  string
	SinkNode   string
	SinkVar    string
	Depth      int
}

// Result is the per-function output the pipeline assembles (spec §4.10).
type Result struct {
	FunctionID      string
	SourcesFound    int
	SinksFound      int
	TaintFlows      []Flow
	BudgetExhausted bool
}

// fact is the IFDS dataflow fact: "Variable is tainted, having originated
// at SourceNode, Depth hops ago." The zero value is the distinguished zero
// fact every path edge starts from.
type fact struct {
	Variable   string
	SourceNode string
	Depth      int
}

// AnalyzeFunction runs taint analysis over a single function's CFG.
func AnalyzeFunction(cfg *flow.BasicFlowGraph, callSites []CallSite, catalog Catalog, cfgBudget Config) *Result {
	sourceAt := map[string]string{}
	sinkAt := map[string]map[string]bool{}
	sanitizerAt := map[string]string{}

	for _, cs := range callSites {
		switch {
		case catalog.Sources[cs.Callee] && cs.ResultVar != "":
			sourceAt[cs.NodeID] = cs.ResultVar
		case catalog.Sanitizers[cs.Callee] && len(cs.ArgVars) > 0:
			sanitizerAt[cs.NodeID] = cs.ArgVars[0]
		case catalog.Sinks[cs.Callee]:
			set := sinkAt[cs.NodeID]
			if set == nil {
				set = map[string]bool{}
				sinkAt[cs.NodeID] = set
			}
			for _, v := range cs.ArgVars {
				set[v] = true
			}
		}
	}

	maxDepth := cfgBudget.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultConfig().MaxDepth
	}

	relevance := func(nodeID string) ifds.Relevance {
		if _, ok := sourceAt[nodeID]; ok {
			return ifds.Generator
		}
		if _, ok := sanitizerAt[nodeID]; ok {
			return ifds.Killer
		}
		if _, ok := sinkAt[nodeID]; ok {
			return ifds.User
		}
		return ifds.Irrelevant
	}

	sparse := ifds.FromCFG(cfg, relevance)

	problem := taintProblem{
		sanitizerAt: sanitizerAt,
		sourceAt:    sourceAt,
		entry:       cfg.EntryID,
		maxDepth:    maxDepth,
	}

	solver := ifds.NewSolver[fact](problem, []*ifds.SparseCFG{sparse})
	if cfgBudget.TimeoutSeconds > 0 {
		solver.Deadline = time.Now().Add(time.Duration(cfgBudget.TimeoutSeconds) * time.Second)
	}
	results := solver.Solve()

	var flows []Flow
	maxPaths := cfgBudget.MaxPaths
	budgetExhausted := solver.Stats.BudgetExhausted

	sinkNodes := make([]string, 0, len(sinkAt))
	for n := range sinkAt {
		sinkNodes = append(sinkNodes, n)
	}
	sort.Strings(sinkNodes)

	for _, sinkNode := range sinkNodes {
		facts := make([]fact, 0, len(results[sinkNode]))
		for f := range results[sinkNode] {
			facts = append(facts, f)
		}
		sort.Slice(facts, func(i, j int) bool {
			if facts[i].Variable != facts[j].Variable {
				return facts[i].Variable < facts[j].Variable
			}
			return facts[i].SourceNode < facts[j].SourceNode
		})
		for _, f := range facts {
			if f.Variable == "" || !sinkAt[sinkNode][f.Variable] {
				continue
			}
			if maxPaths > 0 && len(flows) >= maxPaths {
				budgetExhausted = true
				break
			}
			flows = append(flows, Flow{
				SourceNode: f.SourceNode,
				SourceVar:  f.Variable,
				SinkNode:   sinkNode,
				SinkVar:    f.Variable,
				Depth:      f.Depth,
			})
		}
	}

	return &Result{
		FunctionID:      cfg.FunctionID,
		SourcesFound:    len(sourceAt),
		SinksFound:      len(sinkAt),
		TaintFlows:      flows,
		BudgetExhausted: budgetExhausted,
	}
}

type taintProblem struct {
	sanitizerAt map[string]string
	sourceAt    map[string]string
	entry       string
	maxDepth    int
}

func (p taintProblem) ZeroFact() fact { return fact{} }

func (p taintProblem) NormalFlow(n1, n2 string, d fact) []fact {
	if d.Variable == "" {
		return []fact{d}
	}
	if san, ok := p.sanitizerAt[n2]; ok && san == d.Variable {
		return nil
	}
	if d.Depth >= p.maxDepth {
		return nil
	}
	return []fact{{Variable: d.Variable, SourceNode: d.SourceNode, Depth: d.Depth + 1}}
}

func (p taintProblem) CallFlow(callSite, calleeEntry string, d fact) []fact {
	return []fact{d}
}

func (p taintProblem) ReturnFlow(exit, retSite, callSite string, dOut, dAtCall fact) []fact {
	if dOut.Variable == "" {
		return []fact{dAtCall}
	}
	return []fact{dOut}
}

func (p taintProblem) CallToReturnFlow(callSite, retSite string, d fact) []fact {
	return []fact{d}
}

func (p taintProblem) InitialSeeds() map[string][]fact {
	seeds := map[string][]fact{p.entry: {{}}}
	for node, variable := range p.sourceAt {
		seeds[node] = append(seeds[node], fact{Variable: variable, SourceNode: node, Depth: 0})
	}
	return seeds
}
