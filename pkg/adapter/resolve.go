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

package adapter

import (
	"path/filepath"
	"strings"

	"github.com/krakcode/codegraph/pkg/ir"
)

// Resolver turns the `ref:<display>` edges adapters emit for cross-module
// references into concrete target ids, once every file in the repository
// has been parsed (C4 stage 3, spec §4.4). It is adapted from the
// teacher's CallResolver (pkg/ingestion/resolver.go): a package index built
// from file paths, a global symbol table keyed by module path, and a
// file-local import-alias table, with the same two-phase
// build-index-then-resolve shape generalized from "Go functions only" to
// any exported Node across the three reference adapters.
type Resolver struct {
	nodeFile    map[string]string            // node id -> file path
	exported    map[string]map[string]string // module path -> simple name -> node id
	fileImports map[string]map[string]string // file path -> alias -> import/module path
	modulePaths map[string]bool              // every module (directory) path seen
}

// NewResolver creates an empty resolver; call BuildIndex with every file's
// extracted nodes before calling Resolve.
func NewResolver() *Resolver {
	return &Resolver{
		nodeFile:    map[string]string{},
		exported:    map[string]map[string]string{},
		fileImports: map[string]map[string]string{},
		modulePaths: map[string]bool{},
	}
}

// BuildIndex folds one file's ExtractionResult into the repository-wide
// index. Call it once per file, in any order; call Resolve only after all
// files have been indexed.
func (r *Resolver) BuildIndex(res ExtractionResult) {
	for _, n := range res.Nodes {
		r.nodeFile[n.ID] = n.FilePath
		module := modulePathOf(n.FilePath)
		r.modulePaths[module] = true

		if n.Kind == ir.KindImport {
			alias := n.Name
			if alias == "" {
				alias = filepath.Base(n.FQN)
			}
			if alias == "" || alias == "_" {
				continue
			}
			if r.fileImports[n.FilePath] == nil {
				r.fileImports[n.FilePath] = map[string]string{}
			}
			r.fileImports[n.FilePath][alias] = n.FQN
			continue
		}

		if n.Name == "" {
			continue
		}
		switch n.Kind {
		case ir.KindFunction, ir.KindMethod, ir.KindClass, ir.KindInterface,
			ir.KindStruct, ir.KindTypeAlias, ir.KindVariable, ir.KindEnum:
			if r.exported[module] == nil {
				r.exported[module] = map[string]string{}
			}
			r.exported[module][n.Name] = n.ID
		}
	}
}

// Resolve rewrites every `ref:` target id in edges that BuildIndex can now
// resolve, leaving edges whose target remains unresolved unchanged (an
// external, out-of-repository reference is not an error — spec §4.2).
func (r *Resolver) Resolve(edges []ir.Edge) []ir.Edge {
	out := make([]ir.Edge, len(edges))
	for i, e := range edges {
		out[i] = e
		if !ir.IsRef(e.TargetID) {
			continue
		}
		display := strings.TrimPrefix(e.TargetID, ir.RefPrefix)
		if target, ok := r.resolveDisplay(display, r.nodeFile[e.SourceID]); ok {
			out[i].TargetID = target
		}
	}
	return out
}

func (r *Resolver) resolveDisplay(display, fromFile string) (string, bool) {
	imports := r.fileImports[fromFile]

	if idx := strings.LastIndex(display, "."); idx >= 0 {
		alias, name := display[:idx], display[idx+1:]
		if importPath, ok := imports[alias]; ok {
			if module := r.findModuleByImportPath(importPath); module != "" {
				if id, ok := r.exported[module][name]; ok {
					return id, true
				}
			}
		}
	}

	// Dot-import / bare-name fallback: check every import this file brought
	// in under the "." alias (mirrors the teacher's "." dot-import handling).
	for alias, importPath := range imports {
		if alias != "." {
			continue
		}
		if module := r.findModuleByImportPath(importPath); module != "" {
			if id, ok := r.exported[module][display]; ok {
				return id, true
			}
		}
	}

	// Same-file / same-module fallback for a bare name with no dot.
	if !strings.Contains(display, ".") {
		if id, ok := r.exported[modulePathOf(fromFile)][display]; ok {
			return id, true
		}
	}

	return "", false
}

// findModuleByImportPath maps an import/module path string (a Go import
// path, a Python dotted module, a relative TypeScript specifier) onto one
// of the directory-based module paths BuildIndex observed, by suffix match
// — the same fallback the teacher's findPackageByImportPath uses.
func (r *Resolver) findModuleByImportPath(importPath string) string {
	cleaned := strings.TrimSuffix(strings.TrimPrefix(importPath, "./"), "/")
	if r.modulePaths[cleaned] {
		return cleaned
	}
	for module := range r.modulePaths {
		if strings.HasSuffix(cleaned, module) {
			return module
		}
	}
	base := filepath.Base(cleaned)
	for module := range r.modulePaths {
		if filepath.Base(module) == base {
			return module
		}
	}
	return ""
}

func modulePathOf(filePath string) string {
	return filepath.ToSlash(filepath.Dir(filePath))
}
