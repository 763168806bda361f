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

package depgraph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelfLoopDropped(t *testing.T) {
	g := New()
	g.AddEdge("a", "a")
	require.Equal(t, []string{"a"}, g.Nodes())
	require.Empty(t, g.Successors("a"))
}

func TestSCCsDetectsCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")
	g.AddEdge("d", "a")

	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	require.ElementsMatch(t, []string{"a", "b", "c"}, cycles[0])
}

func TestTopoOrderLeafFirst(t *testing.T) {
	g := New()
	g.AddEdge("app", "lib")
	g.AddEdge("lib", "core")

	order := g.TopoOrder()
	require.Equal(t, []string{"core", "lib", "app"}, order)
}

func TestTopoOrderWithCycleStillOrdersOutside(t *testing.T) {
	g := New()
	g.AddEdge("d", "c")
	g.AddEdge("c", "b")
	g.AddEdge("b", "a")
	g.AddEdge("a", "b") // a<->b cycle

	order := g.TopoOrder()
	require.Len(t, order, 4)
	posD := indexOf(order, "d")
	posC := indexOf(order, "c")
	require.True(t, posC < posD, "c (a dependency of d) should precede d")
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestPageRankEmptyGraph(t *testing.T) {
	g := New()
	scores := g.PageRank(DefaultPageRankOptions())
	require.Empty(t, scores)
}

func TestPageRankSingleNode(t *testing.T) {
	g := New()
	g.AddNode("only")
	scores := g.PageRank(DefaultPageRankOptions())
	require.InDelta(t, 1.0, scores["only"], 1e-6)
}

func TestPageRankStarTopology(t *testing.T) {
	g := New()
	for _, b := range []string{"b1", "b2", "b3", "b4", "b5"} {
		g.AddEdge(b, "core")
	}
	scores := g.PageRank(DefaultPageRankOptions())

	var sum float64
	for _, s := range scores {
		sum += s
	}
	require.InDelta(t, 1.0, sum, 1e-2)

	for _, b := range []string{"b1", "b2", "b3", "b4", "b5"} {
		require.Greater(t, scores["core"], scores[b])
	}

	top := TopKCritical(scores, 1)
	require.Equal(t, []string{"core"}, top)
}

func TestPageRankBidirectionalCycleEqualScores(t *testing.T) {
	g := New()
	g.AddEdge("x", "y")
	g.AddEdge("y", "x")
	scores := g.PageRank(DefaultPageRankOptions())
	require.InDelta(t, scores["x"], scores["y"], 1e-9)
}

func TestPageRankDeterministic(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")
	g.AddEdge("a", "d")

	s1 := g.PageRank(DefaultPageRankOptions())
	s2 := g.PageRank(DefaultPageRankOptions())
	for id := range s1 {
		require.InDelta(t, s1[id], s2[id], 1e-10)
	}
}

func TestPersonalizedPageRankEmptyContextFallsBackToUniform(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	uniform := g.PageRank(DefaultPageRankOptions())
	ppr := g.PersonalizedPageRank(map[string]float64{}, DefaultPageRankOptions())

	for id := range uniform {
		require.InDelta(t, uniform[id], ppr[id], 1e-9)
	}
}

func TestPersonalizedPageRankBoostsContextNode(t *testing.T) {
	g := New()
	g.AddEdge("a", "c")
	g.AddEdge("b", "c")

	uniform := g.PageRank(DefaultPageRankOptions())
	ppr := g.PersonalizedPageRank(map[string]float64{"c": 1}, DefaultPageRankOptions())

	require.GreaterOrEqual(t, ppr["c"], uniform["c"])
}

func TestHITSNormalizedToMaxOne(t *testing.T) {
	g := New()
	g.AddEdge("a", "hub")
	g.AddEdge("b", "hub")
	g.AddEdge("hub", "authority")

	result := g.HITS(DefaultPageRankOptions())

	maxAuth := 0.0
	for _, v := range result.Authority {
		if v > maxAuth {
			maxAuth = v
		}
	}
	require.True(t, math.Abs(maxAuth-1) < 1e-9 || maxAuth == 0)
}

func TestTransitiveDependenciesAndDependents(t *testing.T) {
	g := New()
	g.AddEdge("app", "lib")
	g.AddEdge("lib", "core")

	require.ElementsMatch(t, []string{"lib", "core"}, g.TransitiveDependencies("app"))
	require.ElementsMatch(t, []string{"app", "lib"}, g.TransitiveDependents("core"))
	require.Nil(t, g.TransitiveDependencies("unknown"))
}

func TestGetFileImportanceUnknownNode(t *testing.T) {
	scores := map[string]float64{"a": 0.5}
	_, ok := GetFileImportance(scores, "missing")
	require.False(t, ok)
}

func TestDeepChainNoStackOverflow(t *testing.T) {
	g := New()
	const depth = 100
	for i := 0; i < depth-1; i++ {
		g.AddEdge(nodeName(i), nodeName(i+1))
	}
	order := g.TopoOrder()
	require.Len(t, order, depth)
	require.Equal(t, nodeName(depth-1), order[0])
}

func nodeName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%26]) + string(rune('0'+i/26))
}
