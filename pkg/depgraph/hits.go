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

import "math"

// HITSResult holds authority and hub scores, each normalized so the
// maximum score in the vector is 1 (spec §4.5).
type HITSResult struct {
	Authority map[string]float64
	Hub       map[string]float64
}

// HITS runs alternating authority/hub updates with the same
// iteration-count and tolerance discipline as PageRank.
func (g *DependencyGraph) HITS(opts PageRankOptions) HITSResult {
	ids := g.Nodes()
	n := len(ids)
	if n == 0 {
		return HITSResult{Authority: map[string]float64{}, Hub: map[string]float64{}}
	}

	maxIter := opts.MaxIter
	if maxIter == 0 {
		maxIter = 100
	}
	tol := opts.Tolerance
	if tol == 0 {
		tol = 1e-6
	}

	auth := make(map[string]float64, n)
	hub := make(map[string]float64, n)
	for _, id := range ids {
		auth[id] = 1
		hub[id] = 1
	}

	for iter := 0; iter < maxIter; iter++ {
		newAuth := make(map[string]float64, n)
		for _, id := range ids {
			var sum float64
			for pred := range g.in[id] {
				sum += hub[pred]
			}
			newAuth[id] = sum
		}
		normalize(newAuth)

		newHub := make(map[string]float64, n)
		for _, id := range ids {
			var sum float64
			for succ := range g.out[id] {
				sum += newAuth[succ]
			}
			newHub[id] = sum
		}
		normalize(newHub)

		maxDelta := 0.0
		for _, id := range ids {
			if d := math.Abs(newAuth[id] - auth[id]); d > maxDelta {
				maxDelta = d
			}
			if d := math.Abs(newHub[id] - hub[id]); d > maxDelta {
				maxDelta = d
			}
		}

		auth, hub = newAuth, newHub
		if maxDelta < tol {
			break
		}
	}

	return HITSResult{Authority: auth, Hub: hub}
}

// normalize scales a score vector so its maximum value is 1. A zero vector
// (e.g. an isolated node with no in/out edges) is left unchanged.
func normalize(v map[string]float64) {
	max := 0.0
	for _, s := range v {
		if s > max {
			max = s
		}
	}
	if max == 0 {
		return
	}
	for id := range v {
		v[id] /= max
	}
}
