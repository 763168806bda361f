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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/krakcode/codegraph/internal/errors"
	"github.com/krakcode/codegraph/internal/output"
	"github.com/krakcode/codegraph/internal/ui"
	"github.com/krakcode/codegraph/pkg/adapter"
	"github.com/krakcode/codegraph/pkg/change"
	"github.com/krakcode/codegraph/pkg/ir"
	"github.com/krakcode/codegraph/pkg/pipeline"
	"github.com/krakcode/codegraph/pkg/taint"
)

// changedResult is the JSON envelope printed by "codegraph changed".
type changedResult struct {
	BaseRev    string                       `json:"base_rev"`
	HeadRev    string                       `json:"head_rev"`
	Touched    []string                     `json:"touched_files"`
	Impact     []string                     `json:"impacted_node_ids"`
	Strategies []change.IndexStrategyResult `json:"index_strategies"`
}

// runChanged executes the "changed" CLI command: it detects the files a
// git revision range touched, re-runs the pipeline over just that subset,
// and feeds the result through the change analyzer's impact BFS and
// per-index strategy selection.
//
// Flags:
//   - --base: base revision (default: HEAD~1)
//   - --head: head revision (default: HEAD)
//   - --wal: path to the change-analyzer WAL (default: .codegraph/change.wal)
//   - --json: emit the result as a JSON envelope instead of colored text
func runChanged(args []string) {
	fs := flag.NewFlagSet("changed", flag.ExitOnError)
	base := fs.String("base", "HEAD~1", "Base git revision")
	head := fs.String("head", "HEAD", "Head git revision")
	walPath := fs.String("wal", "", "Path to the change-analyzer WAL (default: <repo>/.codegraph/change.wal)")
	jsonOut := fs.Bool("json", false, "Emit JSON instead of colored text")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codegraph changed [options] <path>\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	repoRoot := fs.Arg(0)

	ui.InitColors(*jsonOut)

	detector := change.NewGitDeltaDetector(repoRoot)
	delta, err := detector.Detect(*base, *head)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Failed to detect git delta", err.Error(),
			"Check that <path> is a git repository and both revisions exist."), *jsonOut)
	}
	touched := delta.Touched()

	cfg, err := loadConfig("", "balanced")
	if err != nil {
		errors.FatalError(err, *jsonOut)
	}

	orch := pipeline.NewOrchestrator(cfg, adapter.DefaultRegistry(), taint.DefaultRegistry())
	result, err := orch.Run(context.Background(), repoRoot, repoRoot, touched)
	if err != nil {
		errors.FatalError(err, *jsonOut)
	}

	if *walPath == "" {
		*walPath = filepath.Join(repoRoot, ".codegraph", "change.wal")
	}
	stateDir := filepath.Dir(*walPath)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		errors.FatalError(errors.NewInternalError("cannot create WAL directory", err.Error(), "", err), *jsonOut)
	}
	hashPath := filepath.Join(stateDir, "hashes.json")

	touchedSet := make(map[string]bool, len(touched))
	for _, f := range touched {
		touchedSet[f] = true
	}

	current := make(map[string]ir.Node, len(result.Nodes))
	var modified []string
	for _, n := range result.Nodes {
		current[n.ID] = n
		if touchedSet[n.FilePath] {
			modified = append(modified, n.ID)
		}
	}

	an := change.NewAnalyzer(*walPath, "codegraph-cli", change.DefaultIndexes())
	if prior, err := loadHashSnapshot(hashPath); err == nil && prior != nil {
		an.LoadPrior(prior)
	}

	g := change.BuildReverseGraph(result.Edges)
	analysis, err := an.AnalyzeDelta(change.TransactionDelta{ModifiedNodeIDs: modified}, g, current, len(result.Nodes))
	if err != nil {
		errors.FatalError(errors.NewAnalysisError("Failed to analyze change impact", err.Error(), "", err), *jsonOut)
	}

	if err := saveHashSnapshot(hashPath, an.Prior()); err != nil {
		errors.FatalError(errors.NewInternalError("cannot persist hash snapshot", err.Error(), "", err), *jsonOut)
	}

	summary := changedResult{
		BaseRev:    *base,
		HeadRev:    *head,
		Touched:    touched,
		Impact:     analysis.Impact.SortedIDs(),
		Strategies: analysis.Strategies,
	}

	if *jsonOut {
		if err := output.JSON(summary); err != nil {
			errors.FatalError(errors.NewInternalError("failed to encode result", err.Error(), "", err), true)
		}
		return
	}
	printChangedSummary(summary)
}

func printChangedSummary(r changedResult) {
	ui.Header(fmt.Sprintf("Change impact %s..%s", r.BaseRev, r.HeadRev))
	ui.SubHeader("Touched files")
	for _, f := range r.Touched {
		fmt.Printf("  - %s\n", f)
	}
	ui.SubHeader("Impacted nodes")
	fmt.Printf("  %s\n", ui.CountText(len(r.Impact)))
	ui.SubHeader("Index strategies")
	for _, s := range r.Strategies {
		fmt.Printf("  %s: %s\n", s.Index, s.Strategy)
	}
}

func loadHashSnapshot(path string) (map[string]change.NodeHash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m map[string]change.NodeHash
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func saveHashSnapshot(path string, snapshot map[string]change.NodeHash) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
