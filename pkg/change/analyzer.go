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

package change

import (
	"fmt"
	"sync/atomic"

	"github.com/krakcode/codegraph/pkg/ir"
	"github.com/krakcode/codegraph/pkg/metrics"
)

// IndexStrategyResult is one registered index's chosen update strategy
// for the current transaction.
type IndexStrategyResult struct {
	Index    string
	Strategy UpdateStrategy
}

// DeltaAnalysis is the full output of AnalyzeDelta: the bounded impact
// set, per-node hash comparisons for whichever nodes had a prior hash on
// record, and the update strategy each registered index should apply.
type DeltaAnalysis struct {
	Impact      ImpactSet
	Comparisons map[string]HashComparison
	Strategies  []IndexStrategyResult
}

// Analyzer drives incremental multi-index updates: it hashes nodes,
// tracks prior hashes so re-parses can be diffed, runs the bounded impact
// BFS, and persists every analyzed transaction to a durable WAL.
type Analyzer struct {
	indexes  []Index
	wal      *WAL
	prior   map[string]NodeHash
	nextTxn uint64
	agent   string
}

// NewAnalyzer returns an Analyzer that appends transactions to the WAL at
// walPath under agent's name (the caller identity recorded in each
// TXN record).
func NewAnalyzer(walPath, agent string, indexes []Index) *Analyzer {
	return &Analyzer{
		indexes: indexes,
		wal:     NewWAL(walPath),
		prior:   map[string]NodeHash{},
		agent:   agent,
	}
}

// Snapshot records nodes' current hashes as the baseline a future
// AnalyzeDelta call will diff against. Call this once after an initial
// full index, then again after each AnalyzeDelta to roll the baseline
// forward.
func (a *Analyzer) Snapshot(nodes []ir.Node) {
	for _, n := range nodes {
		a.prior[n.ID] = ComputeHash(n)
	}
}

// Prior returns a copy of the current hash baseline, for callers that
// need to persist it across process invocations (e.g. a CLI run that
// exits between analyses and has nowhere else to keep state).
func (a *Analyzer) Prior() map[string]NodeHash {
	out := make(map[string]NodeHash, len(a.prior))
	for id, h := range a.prior {
		out[id] = h
	}
	return out
}

// LoadPrior replaces the hash baseline wholesale, the counterpart to
// Prior() for restoring state a previous process persisted.
func (a *Analyzer) LoadPrior(prior map[string]NodeHash) {
	a.prior = prior
}

// AnalyzeDelta computes the impact set for delta against the reverse
// edge graph g, diffs every node in the impact set against its last-known hash
// (nodes with no prior snapshot are treated as newly added and contribute
// no HashComparison), selects an UpdateStrategy per registered index, and
// durably appends the transaction to the WAL before returning.
func (a *Analyzer) AnalyzeDelta(delta TransactionDelta, g ReverseGraph, current map[string]ir.Node, totalGraphSize int) (DeltaAnalysis, error) {
	impact := ComputeImpact(g, delta)

	comparisons := make(map[string]HashComparison, len(impact))
	var compList []HashComparison
	for _, id := range impact.SortedIDs() {
		n, ok := current[id]
		if !ok {
			continue
		}
		newHash := ComputeHash(n)
		oldHash, hadPrior := a.prior[id]
		if !hadPrior {
			continue
		}
		if oldHash == newHash {
			continue
		}
		cmp, err := CompareHashes(oldHash, newHash)
		if err != nil {
			return DeltaAnalysis{}, fmt.Errorf("change: analyze node %s: %w", id, err)
		}
		comparisons[id] = cmp
		compList = append(compList, cmp)
	}

	th := DefaultStrategyThresholds()
	strategies := make([]IndexStrategyResult, 0, len(a.indexes))
	for _, idx := range a.indexes {
		strategies = append(strategies, IndexStrategyResult{
			Index:    idx.Name,
			Strategy: SelectStrategy(idx, compList, len(impact), totalGraphSize, th),
		})
	}

	txnID := atomic.AddUint64(&a.nextTxn, 1)
	if err := a.wal.Append(TxnRecord{ID: txnID, Agent: a.agent, Changes: len(delta.ModifiedNodeIDs)}); err != nil {
		return DeltaAnalysis{}, err
	}
	metrics.ChangeTransaction(len(impact))
	for _, s := range strategies {
		metrics.ChangeStrategy(s.Index, string(s.Strategy))
	}

	for id, n := range current {
		if _, inImpact := impact[id]; inImpact {
			a.prior[id] = ComputeHash(n)
		}
	}

	return DeltaAnalysis{Impact: impact, Comparisons: comparisons, Strategies: strategies}, nil
}

// DefaultIndexes returns the index registrations this engine drives out
// of the box: a lexical/vector retrieval index (ignores pure format
// changes) and the dependency graph itself (cares about signature changes
// only, since body/doc edits never move an edge).
func DefaultIndexes() []Index {
	return []Index{
		{
			Name: "lexical",
			TouchedBy: func(c HashComparison) bool {
				return c.BodyChanged || c.DocChanged || c.SignatureChanged
			},
		},
		{
			Name: "depgraph",
			TouchedBy: func(c HashComparison) bool {
				return c.SignatureChanged
			},
		},
	}
}
