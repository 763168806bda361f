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

// Package ssa builds per-function static single assignment form over a
// flow.BasicFlowGraph: every definition gets a fresh version, and block
// joins where a variable's incoming version disagrees across predecessors
// get a phi node (spec §4.7).
//
// Construction is the plain version-counter algorithm, not Braun's
// on-the-fly SSA with deferred phi resolution: a counter is simpler to keep
// deterministic and is what the spec calls out as the default. Braun-style
// construction remains a named but unimplemented option (BuildMode);
// choosing it returns ErrBraunUnsupported rather than silently falling back.
package ssa
