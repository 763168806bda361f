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

// Package depgraph implements the repository-level dependency graph engine:
// strongly connected components, topological ordering, PageRank,
// Personalized PageRank, and HITS, plus the top-k and transitive-closure
// queries the repo map stage consumes.
//
// Vertices are opaque string ids (file paths or symbol ids); an edge A->B
// means "A depends on B". The graph is allowed to be cyclic (spec §9); every
// traversal here uses an explicit visited set and a BFS/iterative
// formulation rather than recursion, so deep chains never risk stack
// exhaustion.
package depgraph
