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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krakcode/codegraph/pkg/ir"
)

func edge(t *testing.T, from, to string, kind ir.EdgeKind) ir.Edge {
	t.Helper()
	e, err := ir.NewEdge(from, to, kind)
	require.NoError(t, err)
	return *e
}

// Chain: b calls a, c calls b, d calls c, e calls d. The reverse graph
// walks callers, so impact from "a" reaches b at depth 1 and c at depth 2,
// and stops before d and e.
func TestComputeImpactRespectsMaxDepth(t *testing.T) {
	edges := []ir.Edge{
		edge(t, "b", "a", ir.EdgeCalls),
		edge(t, "c", "b", ir.EdgeCalls),
		edge(t, "d", "c", ir.EdgeCalls),
		edge(t, "e", "d", ir.EdgeCalls),
	}
	g := BuildReverseGraph(edges)
	impact := ComputeImpact(g, TransactionDelta{ModifiedNodeIDs: []string{"a"}})

	require.Equal(t, 0, impact["a"])
	require.Equal(t, 1, impact["b"])
	require.Equal(t, 2, impact["c"])
	_, reachedD := impact["d"]
	require.False(t, reachedD, "depth 3 must not be visited")
	_, reachedE := impact["e"]
	require.False(t, reachedE)
}

func TestComputeImpactHandlesCycles(t *testing.T) {
	edges := []ir.Edge{
		edge(t, "a", "b", ir.EdgeCalls),
		edge(t, "b", "a", ir.EdgeCalls),
	}
	g := BuildReverseGraph(edges)
	impact := ComputeImpact(g, TransactionDelta{ModifiedNodeIDs: []string{"a"}})
	require.Len(t, impact, 2)
	require.Equal(t, 0, impact["a"])
	require.Equal(t, 1, impact["b"])
}

func TestComputeImpactIsOrderIndependent(t *testing.T) {
	edges := []ir.Edge{
		edge(t, "x", "a", ir.EdgeCalls),
		edge(t, "y", "b", ir.EdgeCalls),
	}
	g := BuildReverseGraph(edges)

	i1 := ComputeImpact(g, TransactionDelta{ModifiedNodeIDs: []string{"a", "b"}})
	i2 := ComputeImpact(g, TransactionDelta{ModifiedNodeIDs: []string{"b", "a"}})
	require.Equal(t, i1, i2)
}

func TestSortedIDsDeterministic(t *testing.T) {
	impact := ImpactSet{"c": 1, "a": 0, "b": 1}
	require.Equal(t, []string{"a", "b", "c"}, impact.SortedIDs())
	require.Equal(t, []string{"a"}, impact.AtDepth(0))
}
