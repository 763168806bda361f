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

// Package flow builds the per-function flow graphs: the Basic Flow Graph
// (BFG, a block graph wrapped with synthetic ENTRY/EXIT blocks), its
// control-flow edges (the CFG), and the Data Flow Graph (DFG) of def/use
// nodes connected by reaching-definitions analysis over the BFG.
//
// Block and edge construction is adapter-driven: a language adapter decides
// where blocks split and how control flows between them (via its
// is_control_flow_node / get_match_arms responses, spec §4.2); this package
// supplies the data structures, the ENTRY/EXIT wrapping, the block id
// scheme, and the DFG's reaching-definitions solver.
package flow
