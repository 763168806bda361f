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
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/krakcode/codegraph/pkg/ir"
)

// ControlFlowType classifies a control-flow node the way C6 needs to build
// CFG edges: branch nodes fan out, loop nodes fan out and loop back, and so
// on. Adapters translate grammar-specific node types into this closed set.
type ControlFlowType string

const (
	FlowBranch   ControlFlowType = "Branch"
	FlowLoop     ControlFlowType = "Loop"
	FlowSwitch   ControlFlowType = "Switch"
	FlowTryCatch ControlFlowType = "TryCatch"
	FlowReturn   ControlFlowType = "Return"
	FlowNone     ControlFlowType = "None"
)

// ExtractionContext carries everything an adapter needs to turn one file's
// syntax tree into IR nodes/edges without reaching back into the pipeline
// (spec §4.2).
type ExtractionContext struct {
	Source     []byte
	FilePath   string
	RepoID     string
	LanguageID string
	ParentID   string
	ScopeStack []string
	ModulePath string

	// IDs generates deterministic node ids scoped to (RepoID, FilePath).
	// Adapters call IDs.Next(FilePath) in tree-walk order; never fabricate
	// ids another way, or determinism (spec §3 invariant 6) breaks.
	IDs *ir.IDGenerator
}

// ExtractionResult is the subforest + edges produced for one file, to be
// merged into the pipeline's IR build stage (spec §4.2).
type ExtractionResult struct {
	Nodes []ir.Node
	Edges []ir.Edge
}

// LanguageAdapter is the capability set every front-end plugin implements
// (spec §4.2). Implementations must be deterministic: the same source
// bytes and ExtractionContext always produce byte-identical output.
type LanguageAdapter interface {
	// LanguageID is the key this adapter is registered under (e.g. "go").
	LanguageID() string

	// TreeSitterLanguage returns the grammar this adapter parses with.
	TreeSitterLanguage() *sitter.Language

	// Extract walks tree and builds the ExtractionResult for one file. The
	// adapter emits a File node as root of its subforest and sets ParentID
	// on its immediate children (spec §4.2 contract).
	Extract(ctx context.Context, ectx ExtractionContext, tree *sitter.Tree) (ExtractionResult, error)

	// MapNodeKind translates a grammar node type (e.g. "function_declaration")
	// into the closed ir.NodeKind set, reporting false if the grammar node
	// type has no IR representation.
	MapNodeKind(grammarNodeType string) (ir.NodeKind, bool)

	// MapSyntaxKind returns a stable syntax-kind label used by Occurrence
	// classification and by slicing/taint diagnostics; unlike MapNodeKind
	// this never fails, falling back to the raw grammar node type.
	MapSyntaxKind(grammarNodeType string) string

	// CommentPatterns returns the grammar node types this language's
	// comments appear as (e.g. "comment", "line_comment").
	CommentPatterns() []string

	// IsPublic reports whether a declared name is externally visible under
	// this language's own visibility convention (capitalization for Go,
	// leading underscore for Python, leading "_" or "#" for TypeScript);
	// only the name is available, so no declaration modifiers are seen.
	IsPublic(name string) bool

	// ExtractDocstring returns the best-effort docstring attached to node,
	// or "" if none is found. Absence is never an error (spec §4.2).
	ExtractDocstring(node *sitter.Node, source []byte) string

	// IsStatementNode reports whether a grammar node type denotes a
	// statement (as opposed to an expression or declaration), used by C6
	// to decide basic-block boundaries.
	IsStatementNode(grammarNodeType string) bool

	// IsControlFlowNode reports whether a grammar node type introduces
	// control flow (branches, loops, switches, try/catch).
	IsControlFlowNode(grammarNodeType string) bool

	// GetControlFlowType classifies a control-flow grammar node type.
	GetControlFlowType(grammarNodeType string) ControlFlowType

	// GetMatchArms returns the child nodes representing the arms of a
	// switch/match-like construct, in source order.
	GetMatchArms(node *sitter.Node) []*sitter.Node

	// IsChainedCondition reports whether node is an "else if"-style chained
	// condition rather than a fresh branch, so C6 can avoid double-counting
	// a single if/else-if/else chain as nested branches.
	IsChainedCondition(node *sitter.Node) bool
}

// addContainsEdges synthesizes the Contains edges spec §3 invariant 3
// expects from the ParentID every adapter already sets on each node it
// emits, so a reference adapter only has to track parentage once.
func addContainsEdges(res *ExtractionResult) {
	for _, n := range res.Nodes {
		if n.ParentID == "" {
			continue
		}
		if e, err := ir.NewEdge(n.ParentID, n.ID, ir.EdgeContains); err == nil {
			res.Edges = append(res.Edges, *e)
		}
	}
}

// Registry holds one LanguageAdapter per language id.
type Registry struct {
	adapters map[string]LanguageAdapter
}

// NewRegistry builds an empty registry; use Register to populate it.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]LanguageAdapter{}}
}

// Register installs a as the adapter for its LanguageID, replacing any
// previous adapter registered for that language.
func (r *Registry) Register(a LanguageAdapter) {
	r.adapters[a.LanguageID()] = a
}

// For returns the adapter registered for languageID, or nil if none.
func (r *Registry) For(languageID string) LanguageAdapter {
	return r.adapters[languageID]
}

// LanguageIDs returns the registered language ids, sorted.
func (r *Registry) LanguageIDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultRegistry returns a Registry populated with the reference Go,
// Python, and TypeScript adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewGoAdapter())
	r.Register(NewPythonAdapter())
	r.Register(NewTypeScriptAdapter())
	return r
}
