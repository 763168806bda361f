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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krakcode/codegraph/pkg/adapter"
	"github.com/krakcode/codegraph/pkg/ir"
)

func mustNode(t *testing.T, id string, kind ir.NodeKind, fqn, file string, name string) ir.Node {
	t.Helper()
	n, err := ir.NewNode(id, kind, fqn, file, ir.Span{StartLine: 1, EndLine: 5}, "go")
	require.NoError(t, err)
	n.Name = name
	return *n
}

func TestDeriveOccurrencesEmitsOneDefinitionPerNode(t *testing.T) {
	caller := mustNode(t, "n1", ir.KindFunction, "pkg.Run", "main.go", "Run")
	callee := mustNode(t, "n2", ir.KindFunction, "pkg.helper", "main.go", "helper")

	edge, err := ir.NewEdge("n1", "n2", ir.EdgeCalls)
	require.NoError(t, err)

	occs := DeriveOccurrences([]ir.Node{caller, callee}, []ir.Edge{*edge}, adapter.DefaultRegistry())

	var defs, refs int
	for _, o := range occs {
		if o.HasRole(ir.RoleDefinition) {
			defs++
		}
		if o.HasRole(ir.RoleReadAccess) {
			refs++
			require.Equal(t, "n2", o.SymbolID)
		}
	}
	require.Equal(t, 2, defs)
	require.Equal(t, 1, refs)
}

func TestDeriveOccurrencesSkipsContainsAndDefines(t *testing.T) {
	parent := mustNode(t, "n1", ir.KindFile, "main.go", "main.go", "main.go")
	child := mustNode(t, "n2", ir.KindFunction, "pkg.Run", "main.go", "Run")

	contains, err := ir.NewEdge("n1", "n2", ir.EdgeContains)
	require.NoError(t, err)
	defines, err := ir.NewEdge("n1", "n2", ir.EdgeDefines)
	require.NoError(t, err)

	occs := DeriveOccurrences([]ir.Node{parent, child}, []ir.Edge{*contains, *defines}, adapter.DefaultRegistry())
	require.Len(t, occs, 2) // one Definition occurrence per node, nothing from Contains/Defines
}

func TestDeriveOccurrencesMapsWritesAndImports(t *testing.T) {
	writer := mustNode(t, "n1", ir.KindFunction, "pkg.Run", "main.go", "Run")
	variable := mustNode(t, "n2", ir.KindVariable, "pkg.x", "main.go", "x")
	imp := mustNode(t, "n3", ir.KindImport, "os", "main.go", "os")

	writes, err := ir.NewEdge("n1", "n2", ir.EdgeWrites)
	require.NoError(t, err)
	imports, err := ir.NewEdge("n1", "n3", ir.EdgeImports)
	require.NoError(t, err)

	occs := DeriveOccurrences([]ir.Node{writer, variable, imp}, []ir.Edge{*writes, *imports}, adapter.DefaultRegistry())

	var sawWrite, sawImport bool
	for _, o := range occs {
		if o.HasRole(ir.RoleWriteAccess) {
			sawWrite = true
		}
		if o.HasRole(ir.RoleImport) {
			sawImport = true
		}
	}
	require.True(t, sawWrite)
	require.True(t, sawImport)
}

func TestImportanceScorePublicDocumentedTopLevelFunctionScoresHighest(t *testing.T) {
	n := mustNode(t, "n1", ir.KindFunction, "pkg.Run", "main.go", "Run")
	n.Docstring = "Runs the thing."

	reg := adapter.DefaultRegistry()
	score := ImportanceScore(n, reg)
	require.Greater(t, score, 0.5)
	require.LessOrEqual(t, score, 1.0)

	private := mustNode(t, "n2", ir.KindFunction, "pkg.run", "main.go", "run")
	privateScore := ImportanceScore(private, reg)
	require.Less(t, privateScore, score)
}

func TestImportanceScoreCapsAtOne(t *testing.T) {
	n := mustNode(t, "n1", ir.KindFunction, "pkg.Run", "main.go", "Run")
	n.Docstring = "Documented."
	score := ImportanceScore(n, adapter.DefaultRegistry())
	require.LessOrEqual(t, score, 1.0)
}
