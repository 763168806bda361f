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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krakcode/codegraph/pkg/ir"
)

func TestAnalyzerAnalyzeDeltaPersistsWALAndSelectsStrategies(t *testing.T) {
	a, err := ir.NewNode("a", ir.KindFunction, "pkg.a", "main.go", ir.Span{StartLine: 1, EndLine: 5}, "go")
	require.NoError(t, err)
	a.Name = "a"

	b, err := ir.NewNode("b", ir.KindFunction, "pkg.b", "main.go", ir.Span{StartLine: 7, EndLine: 12}, "go")
	require.NoError(t, err)
	b.Name = "b"

	edges := []ir.Edge{edge(t, "b", "a", ir.EdgeCalls)}
	g := BuildReverseGraph(edges)

	walPath := filepath.Join(t.TempDir(), "wal.log")
	an := NewAnalyzer(walPath, "test-agent", DefaultIndexes())
	an.Snapshot([]ir.Node{*a, *b})

	renamed := *a
	renamed.Name = "renamed"

	current := map[string]ir.Node{"a": renamed, "b": *b}
	analysis, err := an.AnalyzeDelta(TransactionDelta{ModifiedNodeIDs: []string{"a"}}, g, current, 2)
	require.NoError(t, err)

	require.Contains(t, analysis.Impact, "a")
	require.Contains(t, analysis.Impact, "b")
	require.Equal(t, 0, analysis.Impact["a"])
	require.Equal(t, 1, analysis.Impact["b"])

	cmp, ok := analysis.Comparisons["a"]
	require.True(t, ok)
	require.True(t, cmp.SignatureChanged)

	require.Len(t, analysis.Strategies, 2)

	w := NewWAL(walPath)
	records, err := w.Recover()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "test-agent", records[0].Agent)
}

func TestAnalyzerSkipsUnsnapshottedNodes(t *testing.T) {
	a, err := ir.NewNode("a", ir.KindFunction, "pkg.a", "main.go", ir.Span{StartLine: 1, EndLine: 5}, "go")
	require.NoError(t, err)

	walPath := filepath.Join(t.TempDir(), "wal.log")
	an := NewAnalyzer(walPath, "agent", DefaultIndexes())
	// No Snapshot call: "a" has no prior hash, so it must not produce a
	// HashComparison (it's a newly added node, not a changed one).
	analysis, err := an.AnalyzeDelta(TransactionDelta{ModifiedNodeIDs: []string{"a"}}, ReverseGraph{}, map[string]ir.Node{"a": *a}, 1)
	require.NoError(t, err)
	require.Empty(t, analysis.Comparisons)
}
