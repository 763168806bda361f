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
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/krakcode/codegraph/internal/errors"
	"github.com/krakcode/codegraph/pkg/adapter"
	"github.com/krakcode/codegraph/pkg/depgraph"
	"github.com/krakcode/codegraph/pkg/flow"
	"github.com/krakcode/codegraph/pkg/ir"
	pmetrics "github.com/krakcode/codegraph/pkg/metrics"
	"github.com/krakcode/codegraph/pkg/pdg"
	"github.com/krakcode/codegraph/pkg/pta"
	"github.com/krakcode/codegraph/pkg/ssa"
	"github.com/krakcode/codegraph/pkg/taint"
)

// sequentialThreshold mirrors the teacher's parseFilesParallel fallback: a
// repo with fewer files than this runs its per-file stage sequentially
// rather than paying worker-pool setup cost.
const sequentialThreshold = 10

// StageMetrics records one stage's execution for the run's observability
// envelope (spec §5).
type StageMetrics struct {
	Name         string
	Duration     time.Duration
	ProducedCount int
	Errors       []string
}

// FunctionIR is everything the orchestrator derived for a single function
// node, the unit every per-function stage (flow graphs, SSA, PTA, PDG,
// taint) operates over.
type FunctionIR struct {
	Node       ir.Node
	FlowGraph  *flow.BasicFlowGraph
	DataFlow   *flow.DataFlowGraph
	SSA        *ssa.Graph
	PDG        *pdg.Graph
	Taint      *taint.Result
	CallSites  []taint.CallSite
}

// E2EPipelineResult is the full output of one orchestrator run, assembled
// tier by tier (spec §4.4).
type E2EPipelineResult struct {
	// RunID uniquely identifies this invocation for log/metric
	// correlation across a pipeline that may span multiple processes
	// (e.g. a CLI run feeding a change-analyzer transaction later).
	RunID  string
	RepoID string

	Nodes []ir.Node
	Edges []ir.Edge

	Functions map[string]*FunctionIR

	PTASummaries map[string]pta.Summary
	PointsTo     map[string]map[string]map[string]bool // function id -> variable -> points-to set

	DependencyGraph *depgraph.DependencyGraph
	PageRank        map[string]float64
	HITS            depgraph.HITSResult
	CriticalFiles   []string

	Occurrences []ir.Occurrence

	Stages    []StageMetrics
	Cancelled bool
}

// Orchestrator drives the 11-tier pipeline over a resolved ValidatedConfig,
// wiring the adapters, cross-file resolver, and every deeper analysis
// package behind the stage switches the config enables. Grounded on the
// teacher's LocalPipeline.Run staged-execution idiom (pkg/ingestion/
// local_pipeline.go), generalized from a single-language ingestion run to
// a multi-language, multi-tier analysis run.
type Orchestrator struct {
	cfg      *ValidatedConfig
	registry *adapter.Registry
	taints   *taint.Registry
}

// NewOrchestrator builds an orchestrator from a validated config and the
// language/taint-catalog registries it should drive.
func NewOrchestrator(cfg *ValidatedConfig, registry *adapter.Registry, taints *taint.Registry) *Orchestrator {
	if registry == nil {
		registry = adapter.DefaultRegistry()
	}
	if taints == nil {
		taints = taint.DefaultRegistry()
	}
	return &Orchestrator{cfg: cfg, registry: registry, taints: taints}
}

// recordStage appends sm to the run's stage metrics and mirrors it onto
// the package-level Prometheus collectors (pkg/metrics), so a long-lived
// process exposing /metrics sees per-stage timing across every run, not
// just the one returned to the immediate caller.
func (o *Orchestrator) recordStage(result *E2EPipelineResult, sm StageMetrics) {
	result.Stages = append(result.Stages, sm)
	pmetrics.ObserveStage(sm.Name, sm.Duration.Seconds(), sm.ProducedCount, len(sm.Errors))
}

// Run executes the pipeline against repoRoot (already on disk; no cloning,
// spec §6) and returns partial results with Cancelled=true if ctx is
// cancelled between tiers, rather than discarding work already produced
// (spec §5's cooperative-cancellation contract).
func (o *Orchestrator) Run(ctx context.Context, repoID, repoRoot string, fileSubset []string) (*E2EPipelineResult, error) {
	result := &E2EPipelineResult{
		RunID:        uuid.New().String(),
		RepoID:       repoID,
		Functions:    map[string]*FunctionIR{},
		PTASummaries: map[string]pta.Summary{},
		PointsTo:     map[string]map[string]map[string]bool{},
	}
	defer func() {
		pmetrics.RunCompleted(result.Cancelled, len(result.Nodes))
	}()

	// Tier 1: parse + IR extraction.
	files, err := WalkRepo(repoRoot, 0)
	if err != nil {
		return result, errors.NewAnalysisError(
			"Failed to walk repository", err.Error(),
			"Check that the repo root exists and is readable.", err)
	}
	files = FilterFiles(files, fileSubset)

	extractions, stageMetrics := o.runExtraction(ctx, files)
	o.recordStage(result, stageMetrics)
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	fileOf := map[string]string{} // node id -> file path
	nodeIndex := map[string]*ir.Node{}
	var allNodes []ir.Node
	var allEdges []ir.Edge
	for _, res := range extractions {
		for _, n := range res.Nodes {
			fileOf[n.ID] = n.FilePath
			allNodes = append(allNodes, n)
		}
		allEdges = append(allEdges, res.Edges...)
	}
	sort.Slice(allNodes, func(i, j int) bool { return allNodes[i].ID < allNodes[j].ID })
	for i := range allNodes {
		nodeIndex[allNodes[i].ID] = &allNodes[i]
	}

	// Tier 2: chunking / lexical indexing. Neither feeds a later tier in
	// this engine's scope (they serve retrieval, not analysis), so they
	// only need to run, not to be threaded further — spec §4.3 still
	// requires the switches be honored and metered.
	if o.cfg.Stages.Chunking {
		start := time.Now()
		produced := chunkFunctions(allNodes, o.cfg.Overrides.Chunking)
		o.recordStage(result, StageMetrics{Name: "chunking", Duration: time.Since(start), ProducedCount: produced})
	}
	if o.cfg.Stages.Lexical {
		start := time.Now()
		produced := buildLexicalIndex(allNodes, o.cfg.Overrides.Lexical)
		o.recordStage(result, StageMetrics{Name: "lexical", Duration: time.Since(start), ProducedCount: produced})
	}
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	// Tier 3: cross-file resolution.
	if o.cfg.Stages.CrossFile {
		start := time.Now()
		resolver := adapter.NewResolver()
		for _, res := range extractions {
			resolver.BuildIndex(res)
		}
		allEdges = resolver.Resolve(allEdges)
		o.recordStage(result, StageMetrics{Name: "cross_file", Duration: time.Since(start), ProducedCount: len(allEdges)})
	}
	result.Nodes = allNodes
	result.Edges = allEdges
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	callsByCaller := map[string][]ir.Edge{}
	for _, e := range allEdges {
		if e.Kind == ir.EdgeCalls {
			callsByCaller[e.SourceID] = append(callsByCaller[e.SourceID], e)
		}
	}

	functionNodes := make([]ir.Node, 0, len(allNodes))
	for _, n := range allNodes {
		if n.Kind == ir.KindFunction || n.Kind == ir.KindMethod || n.Kind == ir.KindLambda {
			functionNodes = append(functionNodes, n)
		}
	}

	// Tier 4: flow graphs. Adapters only retain declaration-level IR, not a
	// statement-level AST, across pipeline stages, so each function gets a
	// deliberately simplified one-block-per-function BFG: ENTRY -> body ->
	// EXIT, enriched with real Call/CallToReturn edges derived from the
	// function's resolved Calls edges. This is an explicit granularity
	// decision, not a full statement-level CFG (see DESIGN.md).
	if o.cfg.Stages.FlowGraphs {
		start := time.Now()
		for _, fn := range functionNodes {
			result.Functions[fn.ID] = &FunctionIR{Node: fn}
			result.Functions[fn.ID].FlowGraph = buildSimplifiedBFG(fn, callsByCaller[fn.ID], nodeIndex)
			result.Functions[fn.ID].CallSites = callSitesFor(fn, callsByCaller[fn.ID], nodeIndex)
		}
		o.recordStage(result, StageMetrics{Name: "flow_graphs", Duration: time.Since(start), ProducedCount: len(result.Functions)})
	}
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	// Tier 5: type inference / symbols / effects. The IR's declaration-level
	// TypeAnnotation/ReturnType fields already carry what a C2 adapter could
	// resolve at parse time; this tier's job in this engine is to count and
	// surface coverage, not to run a second type checker.
	if o.cfg.Stages.TypeInference || o.cfg.Stages.Symbols || o.cfg.Stages.Effects {
		start := time.Now()
		produced := 0
		for _, n := range allNodes {
			if n.TypeAnnotation != nil || n.ReturnType != nil {
				produced++
			}
		}
		o.recordStage(result, StageMetrics{Name: "type_symbols_effects", Duration: time.Since(start), ProducedCount: produced})
	}
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	// Tier 6: DFG / SSA, built from per-parameter occurrences — the same
	// simplification basis as the flow graphs above, since no statement
	// body is retained to derive real def/use occurrences from.
	if o.cfg.Stages.FlowGraphs {
		start := time.Now()
		produced := 0
		for _, fn := range functionNodes {
			fir := result.Functions[fn.ID]
			if fir == nil || fir.FlowGraph == nil {
				continue
			}
			occ := paramOccurrences(fn, fir.FlowGraph)
			fir.DataFlow = flow.BuildDataFlowGraph(fir.FlowGraph, occ)
			if g, err := ssa.BuildSSA(fir.FlowGraph, occ, ssa.CounterConstruction); err == nil {
				fir.SSA = g
			}
			produced++
		}
		o.recordStage(result, StageMetrics{Name: "dfg_ssa", Duration: time.Since(start), ProducedCount: produced})
	}
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	// Tier 7: points-to analysis. One Alloc constraint per parameter, scoped
	// to its own function — the Fast-mode-equivalent granularity this
	// engine's declaration-level IR supports (spec §4.7's Auto/Hybrid modes
	// still select a nominal Mode per function by parameter count, even
	// though the constraint set itself is the same simplified shape).
	if o.cfg.Stages.PTA {
		start := time.Now()
		ptaCfg, _ := o.cfg.PTAConfig()
		for _, fn := range functionNodes {
			constraints := paramConstraints(fn)
			mode := pta.ResolveMode(ptaCfg, len(fn.Parameters))
			summary, pts := pta.Solve(constraints, mode)
			result.PTASummaries[fn.ID] = summary
			result.PointsTo[fn.ID] = map[string]map[string]bool{}
			for v, set := range pts {
				result.PointsTo[fn.ID][v] = set
			}
		}
		o.recordStage(result, StageMetrics{Name: "pta", Duration: time.Since(start), ProducedCount: len(result.PTASummaries)})
	}
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	// Tier 8: PDG construction, from each function's BFG + DFG.
	if o.cfg.Stages.PDG {
		start := time.Now()
		produced := 0
		for _, fn := range functionNodes {
			fir := result.Functions[fn.ID]
			if fir == nil || fir.FlowGraph == nil || fir.DataFlow == nil {
				continue
			}
			builder := pdg.NewBuilder(fn.ID)
			for _, b := range fir.FlowGraph.Blocks {
				builder.AddNode(b.ID)
			}
			builder.AddCFGEdges(fir.FlowGraph, func(from, to string) string { return "" })
			builder.AddDFG(fir.DataFlow, func(n flow.DFGNode) string {
				return fmt.Sprintf("%s:%d", n.BlockID, n.Index)
			})
			fir.PDG = builder.Build()
			produced++
		}
		o.recordStage(result, StageMetrics{Name: "pdg", Duration: time.Since(start), ProducedCount: produced})
	}
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	// Tier 9: heap/concurrency/slicing/taint. Heap and concurrency reuse the
	// PTA summaries already computed rather than re-deriving allocation
	// sites; slicing is available on demand via each FunctionIR's PDG
	// (Backward/Forward/Chop) and is not eagerly materialized here since
	// spec §4.9 defines it as a query, not a batch stage. Taint runs eagerly
	// because its output (flows) is part of the result envelope itself.
	if o.cfg.Stages.Taint {
		start := time.Now()
		taintCfg, _ := o.cfg.TaintConfig()
		produced := 0
		for _, fn := range functionNodes {
			fir := result.Functions[fn.ID]
			if fir == nil || fir.FlowGraph == nil {
				continue
			}
			catalog := o.taints.For(fn.Language)
			fir.Taint = taint.AnalyzeFunction(fir.FlowGraph, fir.CallSites, catalog, taintCfg)
			produced++
		}
		o.recordStage(result, StageMetrics{Name: "taint", Duration: time.Since(start), ProducedCount: produced})
	}
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	// Tier 10: RepoMap / PageRank / HITS, over a file-to-file dependency
	// graph derived from the resolved Calls/Imports/Inherits edges.
	if o.cfg.Stages.RepoMap {
		start := time.Now()
		resolved := map[string]map[string]bool{}
		for _, e := range allEdges {
			switch e.Kind {
			case ir.EdgeCalls, ir.EdgeImports, ir.EdgeInherits, ir.EdgeExtends, ir.EdgeImplements:
			default:
				continue
			}
			fromFile := fileOf[e.SourceID]
			toFile := fileOf[e.TargetID]
			if fromFile == "" || toFile == "" || fromFile == toFile {
				continue
			}
			if resolved[fromFile] == nil {
				resolved[fromFile] = map[string]bool{}
			}
			resolved[fromFile][toFile] = true
		}
		asSlice := make(map[string][]string, len(resolved))
		for from, tos := range resolved {
			for to := range tos {
				asSlice[from] = append(asSlice[from], to)
			}
		}
		result.DependencyGraph = depgraph.Build(asSlice)
		opts := depgraph.PageRankOptions{
			Damping:   o.cfg.Overrides.PageRank.Damping,
			MaxIter:   o.cfg.Overrides.PageRank.MaxIter,
			Tolerance: o.cfg.Overrides.PageRank.Tol,
		}
		if opts.Damping == 0 {
			opts = depgraph.DefaultPageRankOptions()
		}
		result.PageRank = result.DependencyGraph.PageRank(opts)
		result.HITS = result.DependencyGraph.HITS(opts)
		result.CriticalFiles = depgraph.TopKCritical(result.PageRank, 10)
		o.recordStage(result, StageMetrics{Name: "repomap", Duration: time.Since(start), ProducedCount: result.DependencyGraph.Len()})
	}
	if ctx.Err() != nil {
		result.Cancelled = true
		return result, nil
	}

	// Tier 11: results assembly.
	start := time.Now()
	result.Occurrences = DeriveOccurrences(allNodes, allEdges, o.registry)
	o.recordStage(result, StageMetrics{Name: "assembly", Duration: time.Since(start), ProducedCount: len(result.Occurrences)})

	return result, nil
}

// runExtraction parses and extracts every file, in parallel above
// sequentialThreshold files and sequentially below it — the same
// worker-pool-with-small-input-fallback shape as the teacher's
// parseFilesParallel/parseFilesSequential (pkg/ingestion/local_pipeline.go).
func (o *Orchestrator) runExtraction(ctx context.Context, files []RepoFile) ([]adapter.ExtractionResult, StageMetrics) {
	start := time.Now()
	results := make([]adapter.ExtractionResult, len(files))
	var errs []string
	var mu sync.Mutex

	extractOne := func(i int) error {
		f := files[i]
		a := o.registry.For(f.LanguageID)
		if a == nil {
			return nil
		}
		src, err := readFileBytes(f.AbsPath)
		if err != nil {
			mu.Lock()
			errs = append(errs, fmt.Sprintf("%s: %v", f.Path, err))
			mu.Unlock()
			return nil
		}
		parser := sitter.NewParser()
		parser.SetLanguage(a.TreeSitterLanguage())
		tree, err := parser.ParseCtx(ctx, nil, src)
		if err != nil {
			mu.Lock()
			errs = append(errs, fmt.Sprintf("%s: parse: %v", f.Path, err))
			mu.Unlock()
			return nil
		}
		ectx := adapter.ExtractionContext{
			Source:     src,
			FilePath:   f.Path,
			LanguageID: f.LanguageID,
			ModulePath: f.Path,
			IDs:        ir.NewIDGenerator(f.Path),
		}
		res, err := a.Extract(ctx, ectx, tree)
		tree.Close()
		if err != nil {
			mu.Lock()
			errs = append(errs, fmt.Sprintf("%s: extract: %v", f.Path, err))
			mu.Unlock()
			return nil
		}
		for i := range res.Nodes {
			res.Nodes[i].Language = f.LanguageID
		}
		results[i] = res
		return nil
	}

	if len(files) < sequentialThreshold {
		for i := range files {
			_ = extractOne(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		workers := o.cfg.Overrides.Parallel.NumWorkers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		if workers < 1 {
			workers = 1
		}
		sem := make(chan struct{}, workers)
		for i := range files {
			i := i
			if gctx.Err() != nil {
				break
			}
			sem <- struct{}{}
			g.Go(func() error {
				defer func() { <-sem }()
				return extractOne(i)
			})
		}
		_ = g.Wait()
	}

	produced := 0
	for _, r := range results {
		produced += len(r.Nodes)
	}
	return results, StageMetrics{Name: "parsing", Duration: time.Since(start), ProducedCount: produced, Errors: errs}
}
