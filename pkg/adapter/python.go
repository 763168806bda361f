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
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/krakcode/codegraph/pkg/ir"
)

// pythonNodeKinds maps the Python grammar onto the IR's NodeKind set. There
// is no teacher parser for Python in the retrieved slice (only its test
// fixtures survived distillation), so this table generalizes the walking
// idiom the Go and TypeScript adapters share rather than porting a
// language-specific file.
var pythonNodeKinds = map[string]ir.NodeKind{
	"function_definition": ir.KindFunction,
	"class_definition":    ir.KindClass,
	"lambda":              ir.KindLambda,
	"parameter":           ir.KindParameter,
	"import_statement":    ir.KindImport,
	"import_from_statement": ir.KindImport,
	"call":                ir.KindCall,
	"decorator":           ir.KindAnnotationDecl,
}

var pythonControlFlowKinds = map[string]ControlFlowType{
	"if_statement":      FlowBranch,
	"for_statement":     FlowLoop,
	"while_statement":   FlowLoop,
	"match_statement":   FlowSwitch,
	"try_statement":     FlowTryCatch,
	"return_statement":  FlowReturn,
}

// PythonAdapter is the reference tree-sitter adapter for Python source.
type PythonAdapter struct{}

// NewPythonAdapter constructs the Python reference adapter.
func NewPythonAdapter() *PythonAdapter { return &PythonAdapter{} }

func (a *PythonAdapter) LanguageID() string { return "python" }

func (a *PythonAdapter) TreeSitterLanguage() *sitter.Language { return python.GetLanguage() }

func (a *PythonAdapter) MapNodeKind(grammarNodeType string) (ir.NodeKind, bool) {
	k, ok := pythonNodeKinds[grammarNodeType]
	return k, ok
}

func (a *PythonAdapter) MapSyntaxKind(grammarNodeType string) string { return grammarNodeType }

func (a *PythonAdapter) CommentPatterns() []string { return []string{"comment"} }

// IsPublic follows PEP 8: a single leading underscore marks an identifier
// as internal; anything else is public.
func (a *PythonAdapter) IsPublic(name string) bool {
	return !strings.HasPrefix(name, "_")
}

// ExtractDocstring returns a function/class body's leading string literal,
// PEP 257's docstring convention.
func (a *PythonAdapter) ExtractDocstring(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	body := node.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	expr := first.Child(0)
	if expr.Type() != "string" {
		return ""
	}
	raw := string(source[expr.StartByte():expr.EndByte()])
	raw = strings.Trim(raw, `"'`)
	return strings.TrimSpace(raw)
}

func (a *PythonAdapter) IsStatementNode(grammarNodeType string) bool {
	return strings.HasSuffix(grammarNodeType, "_statement")
}

func (a *PythonAdapter) IsControlFlowNode(grammarNodeType string) bool {
	_, ok := pythonControlFlowKinds[grammarNodeType]
	return ok
}

func (a *PythonAdapter) GetControlFlowType(grammarNodeType string) ControlFlowType {
	if t, ok := pythonControlFlowKinds[grammarNodeType]; ok {
		return t
	}
	return FlowNone
}

// GetMatchArms returns a match_statement's case_clause children.
func (a *PythonAdapter) GetMatchArms(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var arms []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == "case_clause" {
			arms = append(arms, child)
		}
	}
	return arms
}

// IsChainedCondition reports whether node is the elif arm of an enclosing
// if_statement: Python's grammar represents each "elif" as an "elif_clause"
// child of the same if_statement, and that node type is what is matched.
func (a *PythonAdapter) IsChainedCondition(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	return node.Type() == "elif_clause"
}

// Extract walks a parsed Python syntax tree and builds the file's IR
// subforest: functions, classes, imports, and intra-file call edges.
func (a *PythonAdapter) Extract(ctx context.Context, ectx ExtractionContext, tree *sitter.Tree) (ExtractionResult, error) {
	if tree == nil {
		return ExtractionResult{}, fmt.Errorf("adapter/python: nil tree")
	}
	root := tree.RootNode()
	res := ExtractionResult{}

	fileID := ectx.IDs.Next(ectx.FilePath)
	fileNode, err := ir.NewNode(fileID, ir.KindFile, ectx.FilePath, ectx.FilePath, spanOf(root), "python")
	if err != nil {
		return res, err
	}
	fileNode.ParentID = ectx.ParentID
	res.Nodes = append(res.Nodes, *fileNode)

	nameToID := map[string]string{}
	classIDs := map[string]bool{}
	type scopeEntry struct {
		id   string
		node *sitter.Node
	}
	var scopes []scopeEntry

	var walk func(n *sitter.Node, parentID string)
	walk = func(n *sitter.Node, parentID string) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition", "class_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := string(ectx.Source[nameNode.StartByte():nameNode.EndByte()])
			kind := ir.KindFunction
			if n.Type() == "class_definition" {
				kind = ir.KindClass
			} else if classIDs[parentID] {
				kind = ir.KindMethod
			}
			id := ectx.IDs.Next(ectx.FilePath)
			node, err := ir.NewNode(id, kind, ectx.ModulePath+"."+name, ectx.FilePath, spanOf(n), "python")
			if err != nil {
				return
			}
			node.Name = name
			node.ParentID = parentID
			node.Docstring = a.ExtractDocstring(n, ectx.Source)
			node.Parameters = extractPythonParameters(n, ectx.Source)
			res.Nodes = append(res.Nodes, *node)
			if kind == ir.KindClass {
				classIDs[node.ID] = true
			} else {
				nameToID[name] = node.ID
				scopes = append(scopes, scopeEntry{id: node.ID, node: n})
			}
			if body := n.ChildByFieldName("body"); body != nil {
				for i := 0; i < int(body.ChildCount()); i++ {
					walk(body.Child(i), node.ID)
				}
			}
			return
		case "import_statement", "import_from_statement":
			for _, imp := range extractPythonImports(ectx, fileID, n) {
				res.Nodes = append(res.Nodes, imp)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), parentID)
		}
	}
	walk(root, fileID)

	for _, s := range scopes {
		res.Edges = append(res.Edges, extractPythonCalls(ectx, s.id, s.node, nameToID)...)
	}

	addContainsEdges(&res)
	return res, nil
}

func extractPythonParameters(node *sitter.Node, source []byte) []ir.Parameter {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var out []ir.Parameter
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		p := paramsNode.Child(i)
		var name string
		switch p.Type() {
		case "identifier":
			name = string(source[p.StartByte():p.EndByte()])
		case "default_parameter", "typed_parameter", "typed_default_parameter":
			if n := p.ChildByFieldName("name"); n != nil {
				name = string(source[n.StartByte():n.EndByte()])
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			if p.ChildCount() > 0 {
				inner := p.Child(int(p.ChildCount()) - 1)
				name = string(source[inner.StartByte():inner.EndByte()])
			}
		default:
			continue
		}
		if name == "" {
			continue
		}
		out = append(out, ir.Parameter{
			Name:       name,
			IsVariadic: p.Type() == "list_splat_pattern" || p.Type() == "dictionary_splat_pattern",
		})
	}
	return out
}

func extractPythonImports(ectx ExtractionContext, fileID string, node *sitter.Node) []ir.Node {
	var out []ir.Node
	raw := string(ectx.Source[node.StartByte():node.EndByte()])
	id := ectx.IDs.Next(ectx.FilePath)
	n, err := ir.NewNode(id, ir.KindImport, strings.TrimSpace(raw), ectx.FilePath, spanOf(node), "python")
	if err != nil {
		return out
	}
	n.ParentID = fileID
	return append(out, *n)
}

func extractPythonCalls(ectx ExtractionContext, callerID string, node *sitter.Node, nameToID map[string]string) []ir.Edge {
	var edges []ir.Edge
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := pythonCalleeName(fn, ectx.Source)
				if name != "" {
					target := nameToID[name]
					if target == "" {
						target = ir.RefPrefix + name
					}
					if e, err := ir.NewEdge(callerID, target, ir.EdgeCalls); err == nil {
						edges = append(edges, *e)
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return edges
}

func pythonCalleeName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier", "attribute":
		return string(source[fn.StartByte():fn.EndByte()])
	default:
		return ""
	}
}
