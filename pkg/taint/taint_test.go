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
	"testing"

	"github.com/krakcode/codegraph/pkg/flow"
	"github.com/krakcode/codegraph/pkg/ir"
	"github.com/stretchr/testify/require"
)

func TestSourceReachesSink(t *testing.T) {
	b := flow.NewBuilder("fn:vuln")
	sourceBlock := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
	sinkBlock := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
	b.AddEdge(b.Entry(), sourceBlock, flow.CFGNormal)
	b.AddEdge(sourceBlock, sinkBlock, flow.CFGNormal)
	b.AddEdge(sinkBlock, b.Exit(), flow.CFGNormal)
	cfg := b.Build()

	catalog := NewCatalog([]string{"os.Getenv"}, []string{"os/exec.Command"}, nil)
	callSites := []CallSite{
		{NodeID: sourceBlock, Callee: "os.Getenv", ResultVar: "x"},
		{NodeID: sinkBlock, Callee: "os/exec.Command", ArgVars: []string{"x"}},
	}

	result := AnalyzeFunction(cfg, callSites, catalog, DefaultConfig())
	require.Equal(t, 1, result.SourcesFound)
	require.Equal(t, 1, result.SinksFound)
	require.Len(t, result.TaintFlows, 1)
	require.Equal(t, "x", result.TaintFlows[0].SourceVar)
	require.Equal(t, sourceBlock, result.TaintFlows[0].SourceNode)
	require.Equal(t, sinkBlock, result.TaintFlows[0].SinkNode)
}

func TestSanitizerBlocksFlow(t *testing.T) {
	b := flow.NewBuilder("fn:sanitized")
	sourceBlock := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
	sanitizeBlock := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
	sinkBlock := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
	b.AddEdge(b.Entry(), sourceBlock, flow.CFGNormal)
	b.AddEdge(sourceBlock, sanitizeBlock, flow.CFGNormal)
	b.AddEdge(sanitizeBlock, sinkBlock, flow.CFGNormal)
	b.AddEdge(sinkBlock, b.Exit(), flow.CFGNormal)
	cfg := b.Build()

	catalog := NewCatalog([]string{"os.Getenv"}, []string{"os/exec.Command"}, []string{"regexp.MustCompile"})
	callSites := []CallSite{
		{NodeID: sourceBlock, Callee: "os.Getenv", ResultVar: "x"},
		{NodeID: sanitizeBlock, Callee: "regexp.MustCompile", ArgVars: []string{"x"}, ResultVar: "x"},
		{NodeID: sinkBlock, Callee: "os/exec.Command", ArgVars: []string{"x"}},
	}

	result := AnalyzeFunction(cfg, callSites, catalog, DefaultConfig())
	require.Empty(t, result.TaintFlows)
}

func TestUnrelatedVariableNotFlagged(t *testing.T) {
	b := flow.NewBuilder("fn:clean")
	sourceBlock := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
	sinkBlock := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
	b.AddEdge(b.Entry(), sourceBlock, flow.CFGNormal)
	b.AddEdge(sourceBlock, sinkBlock, flow.CFGNormal)
	b.AddEdge(sinkBlock, b.Exit(), flow.CFGNormal)
	cfg := b.Build()

	catalog := NewCatalog([]string{"os.Getenv"}, []string{"os/exec.Command"}, nil)
	callSites := []CallSite{
		{NodeID: sourceBlock, Callee: "os.Getenv", ResultVar: "x"},
		{NodeID: sinkBlock, Callee: "os/exec.Command", ArgVars: []string{"other"}},
	}

	result := AnalyzeFunction(cfg, callSites, catalog, DefaultConfig())
	require.Empty(t, result.TaintFlows)
}

func TestMaxPathsBudgetMarksExhausted(t *testing.T) {
	b := flow.NewBuilder("fn:manysinks")
	sourceBlock := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
	b.AddEdge(b.Entry(), sourceBlock, flow.CFGNormal)
	prev := sourceBlock
	var sinks []string
	for i := 0; i < 3; i++ {
		sink := b.AddBlock(flow.BlockNormal, ir.Span{}, 1)
		b.AddEdge(prev, sink, flow.CFGNormal)
		sinks = append(sinks, sink)
		prev = sink
	}
	b.AddEdge(prev, b.Exit(), flow.CFGNormal)
	cfg := b.Build()

	catalog := NewCatalog([]string{"os.Getenv"}, []string{"os/exec.Command"}, nil)
	callSites := []CallSite{{NodeID: sourceBlock, Callee: "os.Getenv", ResultVar: "x"}}
	for _, s := range sinks {
		callSites = append(callSites, CallSite{NodeID: s, Callee: "os/exec.Command", ArgVars: []string{"x"}})
	}

	result := AnalyzeFunction(cfg, callSites, catalog, Config{MaxDepth: 50, MaxPaths: 1})
	require.Len(t, result.TaintFlows, 1)
	require.True(t, result.BudgetExhausted)
}

func TestDefaultRegistryHasGoCatalog(t *testing.T) {
	r := DefaultRegistry()
	cat := r.For("go")
	require.True(t, cat.Sources["os.Getenv"])
	require.True(t, cat.Sinks["os/exec.Command"])
}

func TestUnknownLanguageReturnsEmptyCatalog(t *testing.T) {
	r := DefaultRegistry()
	cat := r.For("cobol")
	require.Empty(t, cat.Sources)
}
