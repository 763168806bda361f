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

// Package pdg builds the per-function program dependence graph (control
// dependences fused with data dependences) and the slicing operations over
// it: backward, forward, thin, hybrid, and chop, all BFS over the PDG with
// a visited set so deep or cyclic graphs never recurse (spec §4.8).
package pdg
