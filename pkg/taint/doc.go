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

// Package taint specializes the sparse IFDS framework (pkg/ifds) into a
// source/sink/sanitizer taint analysis: sources classify as Generator
// nodes, sanitizers as Killer, sinks as User, everything else Irrelevant
// (spec §4.10). Catalogs are per-language tables injected at construction;
// budgets cap exploration depth, result count, and wall-clock time, and the
// engine reports partial results with a budget-exhausted marker rather
// than failing outright when a budget is hit.
package taint
