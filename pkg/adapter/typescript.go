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
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/krakcode/codegraph/pkg/ir"
)

// tsNodeKinds maps the TypeScript grammar onto the IR's NodeKind set.
// Adapted from the teacher's walkTSFunctions/walkTSTypesAST dispatch
// (parser_typescript.go), which distinguishes function_declaration,
// arrow/function-expression variable initializers, method_definition, and
// the TypeScript-only method_signature/function_signature/interface/type
// alias forms.
var tsNodeKinds = map[string]ir.NodeKind{
	"function_declaration":   ir.KindFunction,
	"method_definition":      ir.KindMethod,
	"method_signature":       ir.KindMethod,
	"function_signature":     ir.KindFunction,
	"arrow_function":         ir.KindLambda,
	"function_expression":    ir.KindLambda,
	"interface_declaration":  ir.KindInterface,
	"class_declaration":      ir.KindClass,
	"type_alias_declaration": ir.KindTypeAlias,
	"enum_declaration":       ir.KindEnum,
	"import_statement":       ir.KindImport,
}

var tsControlFlowKinds = map[string]ControlFlowType{
	"if_statement":      FlowBranch,
	"for_statement":     FlowLoop,
	"for_in_statement":  FlowLoop,
	"while_statement":   FlowLoop,
	"switch_statement":  FlowSwitch,
	"try_statement":     FlowTryCatch,
	"return_statement":  FlowReturn,
}

// TypeScriptAdapter is the reference tree-sitter adapter for TypeScript
// source (also handles plain JavaScript, a grammar subset).
type TypeScriptAdapter struct{}

// NewTypeScriptAdapter constructs the TypeScript reference adapter.
func NewTypeScriptAdapter() *TypeScriptAdapter { return &TypeScriptAdapter{} }

func (a *TypeScriptAdapter) LanguageID() string { return "typescript" }

func (a *TypeScriptAdapter) TreeSitterLanguage() *sitter.Language { return typescript.GetLanguage() }

func (a *TypeScriptAdapter) MapNodeKind(grammarNodeType string) (ir.NodeKind, bool) {
	k, ok := tsNodeKinds[grammarNodeType]
	return k, ok
}

func (a *TypeScriptAdapter) MapSyntaxKind(grammarNodeType string) string { return grammarNodeType }

func (a *TypeScriptAdapter) CommentPatterns() []string {
	return []string{"comment"}
}

// IsPublic judges visibility from the name alone: a name starting with "_"
// (the usual informal private marker) or "#" (an ECMAScript private field)
// is private, anything else is public. The "private" modifier and the
// "export" keyword are not consulted.
func (a *TypeScriptAdapter) IsPublic(name string) bool {
	return !strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "#")
}

// ExtractDocstring returns the JSDoc block comment immediately preceding
// node, stripped of its "/**"..."*/" fencing and leading "*" continuations.
func (a *TypeScriptAdapter) ExtractDocstring(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := string(source[prev.StartByte():prev.EndByte()])
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		lines = append(lines, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (a *TypeScriptAdapter) IsStatementNode(grammarNodeType string) bool {
	return strings.HasSuffix(grammarNodeType, "_statement")
}

func (a *TypeScriptAdapter) IsControlFlowNode(grammarNodeType string) bool {
	_, ok := tsControlFlowKinds[grammarNodeType]
	return ok
}

func (a *TypeScriptAdapter) GetControlFlowType(grammarNodeType string) ControlFlowType {
	if t, ok := tsControlFlowKinds[grammarNodeType]; ok {
		return t
	}
	return FlowNone
}

// GetMatchArms returns a switch_statement's switch_case/switch_default
// children from its body, in source order.
func (a *TypeScriptAdapter) GetMatchArms(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var arms []*sitter.Node
	for i := 0; i < int(body.ChildCount()); i++ {
		if child := body.Child(i); child.Type() == "switch_case" || child.Type() == "switch_default" {
			arms = append(arms, child)
		}
	}
	return arms
}

// IsChainedCondition reports whether node is the "else if" alternative of
// an enclosing if_statement.
func (a *TypeScriptAdapter) IsChainedCondition(node *sitter.Node) bool {
	if node == nil || node.Type() != "if_statement" {
		return false
	}
	parent := node.Parent()
	return parent != nil && parent.Type() == "if_statement" && parent.ChildByFieldName("alternative") == node
}

// Extract walks a parsed TypeScript syntax tree, mirroring the teacher's
// walkTSFunctions dispatch (function_declaration, variable_declarator with
// an arrow/function-expression initializer, method_definition, the
// TypeScript-only method_signature/function_signature forms) generalized
// to emit ir.Node/ir.Edge, plus walkTSTypesAST's interface/class/type-alias
// dispatch.
func (a *TypeScriptAdapter) Extract(ctx context.Context, ectx ExtractionContext, tree *sitter.Tree) (ExtractionResult, error) {
	if tree == nil {
		return ExtractionResult{}, fmt.Errorf("adapter/typescript: nil tree")
	}
	root := tree.RootNode()
	res := ExtractionResult{}

	fileID := ectx.IDs.Next(ectx.FilePath)
	fileNode, err := ir.NewNode(fileID, ir.KindFile, ectx.FilePath, ectx.FilePath, spanOf(root), "typescript")
	if err != nil {
		return res, err
	}
	fileNode.ParentID = ectx.ParentID
	res.Nodes = append(res.Nodes, *fileNode)

	nameToID := map[string]string{}
	type scopeEntry struct {
		id   string
		node *sitter.Node
	}
	var scopes []scopeEntry
	anonCounter := 0

	var walkFns func(n *sitter.Node)
	walkFns = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration":
			if fn := a.extractTSNamedFunction(ectx, fileID, n, ir.KindFunction); fn != nil {
				res.Nodes = append(res.Nodes, *fn)
				nameToID[fn.Name] = fn.ID
				scopes = append(scopes, scopeEntry{id: fn.ID, node: n})
			}
		case "variable_declarator":
			nameNode := n.ChildByFieldName("name")
			valueNode := n.ChildByFieldName("value")
			if nameNode != nil && valueNode != nil {
				switch valueNode.Type() {
				case "arrow_function", "function_expression", "function":
					name := string(ectx.Source[nameNode.StartByte():nameNode.EndByte()])
					fn := a.buildTSFunctionNode(ectx, fileID, valueNode, name, ir.KindLambda)
					if fn != nil {
						res.Nodes = append(res.Nodes, *fn)
						nameToID[fn.Name] = fn.ID
						scopes = append(scopes, scopeEntry{id: fn.ID, node: valueNode})
					}
				}
			}
		case "method_definition", "method_signature":
			if fn := a.extractTSNamedFunction(ectx, fileID, n, ir.KindMethod); fn != nil {
				res.Nodes = append(res.Nodes, *fn)
				scopes = append(scopes, scopeEntry{id: fn.ID, node: n})
			}
		case "function_signature":
			if fn := a.extractTSNamedFunction(ectx, fileID, n, ir.KindFunction); fn != nil {
				res.Nodes = append(res.Nodes, *fn)
				nameToID[fn.Name] = fn.ID
			}
		case "arrow_function":
			if parent := n.Parent(); parent == nil || parent.Type() != "variable_declarator" {
				anonCounter++
				name := fmt.Sprintf("<anonymous:%d>", anonCounter)
				fn := a.buildTSFunctionNode(ectx, fileID, n, name, ir.KindLambda)
				if fn != nil {
					res.Nodes = append(res.Nodes, *fn)
					scopes = append(scopes, scopeEntry{id: fn.ID, node: n})
				}
			}
		case "interface_declaration":
			if tn := a.extractTSTypeDecl(ectx, fileID, n, ir.KindInterface); tn != nil {
				res.Nodes = append(res.Nodes, *tn)
			}
		case "class_declaration":
			if tn := a.extractTSTypeDecl(ectx, fileID, n, ir.KindClass); tn != nil {
				res.Nodes = append(res.Nodes, *tn)
			}
		case "type_alias_declaration":
			if tn := a.extractTSTypeDecl(ectx, fileID, n, ir.KindTypeAlias); tn != nil {
				res.Nodes = append(res.Nodes, *tn)
			}
		case "import_statement":
			if imp := a.extractTSImport(ectx, fileID, n); imp != nil {
				res.Nodes = append(res.Nodes, *imp)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walkFns(n.Child(i))
		}
	}
	walkFns(root)

	for _, s := range scopes {
		res.Edges = append(res.Edges, extractTSCalls(ectx, s.id, s.node, nameToID)...)
	}

	addContainsEdges(&res)
	return res, nil
}

func (a *TypeScriptAdapter) extractTSNamedFunction(ectx ExtractionContext, fileID string, node *sitter.Node, kind ir.NodeKind) *ir.Node {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(ectx.Source[nameNode.StartByte():nameNode.EndByte()])
	return a.buildTSFunctionNode(ectx, fileID, node, name, kind)
}

func (a *TypeScriptAdapter) buildTSFunctionNode(ectx ExtractionContext, fileID string, node *sitter.Node, name string, kind ir.NodeKind) *ir.Node {
	id := ectx.IDs.Next(ectx.FilePath)
	n, err := ir.NewNode(id, kind, ectx.ModulePath+"."+name, ectx.FilePath, spanOf(node), "typescript")
	if err != nil {
		return nil
	}
	n.Name = name
	n.ParentID = fileID
	n.Docstring = a.ExtractDocstring(node, ectx.Source)
	n.Parameters = extractTSParameters(node, ectx.Source)
	return n
}

func (a *TypeScriptAdapter) extractTSTypeDecl(ectx ExtractionContext, fileID string, node *sitter.Node, kind ir.NodeKind) *ir.Node {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(ectx.Source[nameNode.StartByte():nameNode.EndByte()])
	id := ectx.IDs.Next(ectx.FilePath)
	n, err := ir.NewNode(id, kind, ectx.ModulePath+"."+name, ectx.FilePath, spanOf(node), "typescript")
	if err != nil {
		return nil
	}
	n.Name = name
	n.ParentID = fileID
	return n
}

func (a *TypeScriptAdapter) extractTSImport(ectx ExtractionContext, fileID string, node *sitter.Node) *ir.Node {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	raw := strings.Trim(string(ectx.Source[sourceNode.StartByte():sourceNode.EndByte()]), `"'`)
	if raw == "" {
		return nil
	}
	id := ectx.IDs.Next(ectx.FilePath)
	n, err := ir.NewNode(id, ir.KindImport, raw, ectx.FilePath, spanOf(node), "typescript")
	if err != nil {
		return nil
	}
	n.ParentID = fileID
	return n
}

func extractTSParameters(node *sitter.Node, source []byte) []ir.Parameter {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var out []ir.Parameter
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		p := paramsNode.Child(i)
		var nameNode *sitter.Node
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			nameNode = p.ChildByFieldName("pattern")
		case "identifier":
			nameNode = p
		default:
			continue
		}
		if nameNode == nil {
			continue
		}
		name := string(source[nameNode.StartByte():nameNode.EndByte()])
		out = append(out, ir.Parameter{Name: name})
	}
	return out
}

func extractTSCalls(ectx ExtractionContext, callerID string, node *sitter.Node, nameToID map[string]string) []ir.Edge {
	var edges []ir.Edge
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := tsCalleeName(fn, ectx.Source)
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

func tsCalleeName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier", "member_expression":
		return string(source[fn.StartByte():fn.EndByte()])
	default:
		return ""
	}
}
