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

// Package pta implements the points-to analysis skeleton: mode selection
// (Fast/Precise/Hybrid/Auto), a constraint-graph summary, and the
// alias-pair symmetry the core commits to regardless of mode (spec §4.7).
//
// The deep mechanics of Andersen-style constraint solving, SCC compaction
// over the constraint graph, and wave propagation are left to the adapter
// that builds the constraint set; this package owns mode selection, the
// summary shape the pipeline reports, and the alias-set bookkeeping that
// enforces symmetry no matter which mode produced it.
package pta
