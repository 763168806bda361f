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

// Package ifds implements the sparse IFDS (Interprocedural, Finite,
// Distributive, Subset) tabulation framework used by interprocedural taint
// analysis (spec §4.9): a SparseCFG reduction that collapses runs of
// Irrelevant nodes, and a generic worklist solver over path edges and
// reusable summary edges keyed by (calleeEntry, dIn).
//
// The solver is parameterized over a comparable DataflowFact type so the
// same tabulation logic serves any IFDS instance (taint, reaching
// constants, whatever fits the framework); C10's taint engine is one such
// instance.
package ifds
