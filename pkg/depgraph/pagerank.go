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

// PageRankOptions configures the power iteration. Defaults match spec §4.5.
type PageRankOptions struct {
	Damping  float64
	MaxIter  int
	Tolerance float64
}

// DefaultPageRankOptions returns the spec-mandated defaults.
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{Damping: 0.85, MaxIter: 100, Tolerance: 1e-6}
}

// PageRank computes classic PageRank scores via power iteration with
// uniform initial mass and uniform redistribution of dangling mass.
// Grounded on original_source's dep_graph.rs, which factors PageRank/PPR/
// HITS through one iteration helper rather than three independent loops;
// PageRank here is simply iterate with a uniform teleport vector.
func (g *DependencyGraph) PageRank(opts PageRankOptions) map[string]float64 {
	n := len(g.nodes)
	if n == 0 {
		return map[string]float64{}
	}
	teleport := uniformVector(g.Nodes())
	return g.iterate(teleport, opts)
}

// PersonalizedPageRank computes PPR using a normalized context-weight
// teleport vector. If the context sums to zero, it falls back to uniform
// PageRank (spec §4.5).
func (g *DependencyGraph) PersonalizedPageRank(context map[string]float64, opts PageRankOptions) map[string]float64 {
	n := len(g.nodes)
	if n == 0 {
		return map[string]float64{}
	}

	var sum float64
	for id := range g.nodes {
		sum += context[id]
	}

	var teleport map[string]float64
	if sum <= 0 {
		teleport = uniformVector(g.Nodes())
	} else {
		teleport = make(map[string]float64, n)
		for id := range g.nodes {
			teleport[id] = context[id] / sum
		}
	}
	return g.iterate(teleport, opts)
}

func uniformVector(ids []string) map[string]float64 {
	n := len(ids)
	v := make(map[string]float64, n)
	mass := 1.0 / float64(n)
	for _, id := range ids {
		v[id] = mass
	}
	return v
}

// iterate runs the shared PageRank/PPR power-iteration loop: at each step,
// mass flows along outgoing edges, dangling-node mass (nodes with no
// out-edges) is redistributed uniformly across all nodes, and the rest
// teleports according to the teleport vector weighted by (1-damping).
// Convergence is the max per-node delta falling below opts.Tolerance.
func (g *DependencyGraph) iterate(teleport map[string]float64, opts PageRankOptions) map[string]float64 {
	ids := g.Nodes()
	n := len(ids)
	if n == 0 {
		return map[string]float64{}
	}

	scores := uniformVector(ids)
	damping := opts.Damping
	if damping == 0 {
		damping = 0.85
	}
	maxIter := opts.MaxIter
	if maxIter == 0 {
		maxIter = 100
	}
	tol := opts.Tolerance
	if tol == 0 {
		tol = 1e-6
	}

	for iter := 0; iter < maxIter; iter++ {
		next := make(map[string]float64, n)
		var danglingMass float64
		for _, id := range ids {
			if len(g.out[id]) == 0 {
				danglingMass += scores[id]
			}
		}

		for _, id := range ids {
			next[id] = (1 - damping) * teleport[id]
			next[id] += damping * danglingMass / float64(n)
		}

		for _, from := range ids {
			outDeg := len(g.out[from])
			if outDeg == 0 {
				continue
			}
			share := damping * scores[from] / float64(outDeg)
			for to := range g.out[from] {
				next[to] += share
			}
		}

		maxDelta := 0.0
		for _, id := range ids {
			delta := next[id] - scores[id]
			if delta < 0 {
				delta = -delta
			}
			if delta > maxDelta {
				maxDelta = delta
			}
		}
		scores = next
		if maxDelta < tol {
			break
		}
	}

	return scores
}
