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

// Package adapter defines the contract every front-end language plugin
// satisfies to turn a parsed source file into pkg/ir nodes and edges
// (spec §4.2), plus a registry for looking adapters up by language id and
// reference adapters for Go, Python, and TypeScript built on tree-sitter.
//
// A LanguageAdapter is deliberately polymorphic over a small capability
// set rather than a single monolithic "parse" method: the pipeline's flow
// graph, slicing, and taint stages all need to ask language-specific
// questions ("is this node control flow?", "what are this switch's arms?")
// without knowing which language they're looking at.
package adapter
