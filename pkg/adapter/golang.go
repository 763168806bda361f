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
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/krakcode/codegraph/pkg/ir"
)

// goNodeKinds maps tree-sitter's Go grammar node types onto the IR's
// closed NodeKind set. Adapted from the teacher's function/method/type
// dispatch in parser_go.go's walkGoAST and determineGoTypeKind, flattened
// into a table since the IR model only needs the final classification.
var goNodeKinds = map[string]ir.NodeKind{
	"function_declaration":       ir.KindFunction,
	"method_declaration":         ir.KindMethod,
	"func_literal":               ir.KindLambda,
	"type_spec":                  ir.KindStruct, // refined in extractGoTypeSpec
	"parameter_declaration":      ir.KindParameter,
	"field_declaration":          ir.KindField,
	"var_spec":                   ir.KindVariable,
	"const_spec":                 ir.KindVariable,
	"import_spec":                ir.KindImport,
	"type_parameter_declaration": ir.KindTypeParameter,
	"call_expression":            ir.KindCall,
}

// goControlFlowKinds classifies the Go grammar's control-flow node types,
// grounded in the adapter capability trait seen in
// original_source/.../plugins/*.rs (is_control_flow_node/get_control_flow_type).
var goControlFlowKinds = map[string]ControlFlowType{
	"if_statement":           FlowBranch,
	"for_statement":          FlowLoop,
	"range_clause":           FlowLoop,
	"expression_switch_statement": FlowSwitch,
	"type_switch_statement":  FlowSwitch,
	"select_statement":       FlowSwitch,
	"go_statement":           FlowNone,
	"defer_statement":        FlowNone,
	"return_statement":       FlowReturn,
}

// GoAdapter is the reference tree-sitter adapter for Go source.
type GoAdapter struct{}

// NewGoAdapter constructs the Go reference adapter.
func NewGoAdapter() *GoAdapter { return &GoAdapter{} }

func (a *GoAdapter) LanguageID() string { return "go" }

func (a *GoAdapter) TreeSitterLanguage() *sitter.Language { return golang.GetLanguage() }

func (a *GoAdapter) MapNodeKind(grammarNodeType string) (ir.NodeKind, bool) {
	k, ok := goNodeKinds[grammarNodeType]
	return k, ok
}

func (a *GoAdapter) MapSyntaxKind(grammarNodeType string) string {
	return grammarNodeType
}

func (a *GoAdapter) CommentPatterns() []string {
	return []string{"comment"}
}

// IsPublic follows Go's own exported-identifier rule: a name starting with
// an uppercase letter is exported (teacher's resolveCall/ExtractGoCalleeName
// use the same ASCII range check).
func (a *GoAdapter) IsPublic(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

// ExtractDocstring returns the contiguous run of line comments immediately
// preceding node, joined and trimmed, mirroring godoc's own convention.
func (a *GoAdapter) ExtractDocstring(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	prev := node.PrevSibling()
	var lines []string
	for prev != nil && prev.Type() == "comment" {
		text := strings.TrimPrefix(string(source[prev.StartByte():prev.EndByte()]), "//")
		lines = append([]string{strings.TrimSpace(text)}, lines...)
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, "\n")
}

func (a *GoAdapter) IsStatementNode(grammarNodeType string) bool {
	return strings.HasSuffix(grammarNodeType, "_statement")
}

func (a *GoAdapter) IsControlFlowNode(grammarNodeType string) bool {
	_, ok := goControlFlowKinds[grammarNodeType]
	return ok
}

func (a *GoAdapter) GetControlFlowType(grammarNodeType string) ControlFlowType {
	if t, ok := goControlFlowKinds[grammarNodeType]; ok {
		return t
	}
	return FlowNone
}

// GetMatchArms returns the communication_case/type_case/expression_case
// children of a select/type-switch/expression-switch body, in source order.
func (a *GoAdapter) GetMatchArms(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var arms []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "communication_case", "type_case", "expression_case", "default_case":
			arms = append(arms, child)
		}
	}
	return arms
}

// IsChainedCondition reports whether node (an if_statement) is the "else if"
// arm of an enclosing if_statement's alternative, rather than a freshly
// nested branch.
func (a *GoAdapter) IsChainedCondition(node *sitter.Node) bool {
	if node == nil || node.Type() != "if_statement" {
		return false
	}
	parent := node.Parent()
	return parent != nil && parent.Type() == "if_statement"
}

// Extract walks a parsed Go syntax tree and builds the file's IR subforest.
// The walk mirrors the teacher's parseGoAST/walkGoAST two-pass structure
// (collect functions/types/imports with node pointers retained, then a
// second pass over each function body for calls) generalized to emit
// ir.Node/ir.Edge instead of the teacher's FunctionEntity/TypeEntity.
func (a *GoAdapter) Extract(ctx context.Context, ectx ExtractionContext, tree *sitter.Tree) (ExtractionResult, error) {
	if tree == nil {
		return ExtractionResult{}, fmt.Errorf("adapter/go: nil tree")
	}
	root := tree.RootNode()
	res := ExtractionResult{}

	fileID := ectx.IDs.Next(ectx.FilePath)
	fileSpan := spanOf(root)
	fileNode, err := ir.NewNode(fileID, ir.KindFile, ectx.FilePath, ectx.FilePath, fileSpan, "go")
	if err != nil {
		return res, err
	}
	fileNode.ParentID = ectx.ParentID
	res.Nodes = append(res.Nodes, *fileNode)

	pkgName := goPackageName(root, ectx.Source)
	_ = pkgName

	funcNameToID := map[string]string{}
	type funcBody struct {
		id   string
		node *sitter.Node
	}
	var funcBodies []funcBody

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration":
			if fn := a.extractGoFunction(ectx, fileID, n, false); fn != nil {
				res.Nodes = append(res.Nodes, *fn)
				funcNameToID[goDeclName(n, ectx.Source)] = fn.ID
				funcBodies = append(funcBodies, funcBody{id: fn.ID, node: n})
			}
			return
		case "method_declaration":
			if fn := a.extractGoFunction(ectx, fileID, n, true); fn != nil {
				res.Nodes = append(res.Nodes, *fn)
				funcBodies = append(funcBodies, funcBody{id: fn.ID, node: n})
			}
			return
		case "type_declaration":
			for i := 0; i < int(n.ChildCount()); i++ {
				if spec := n.Child(i); spec.Type() == "type_spec" {
					if tn := a.extractGoTypeSpec(ectx, fileID, spec); tn != nil {
						res.Nodes = append(res.Nodes, *tn)
					}
				}
			}
			return
		case "import_declaration":
			for _, imp := range a.extractGoImportDeclaration(ectx, fileID, n) {
				res.Nodes = append(res.Nodes, imp)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	// Second pass: call edges within each function's body. A locally
	// resolved callee (a function declared in this same file) gets a
	// direct Calls edge; anything else becomes an unresolved ref: edge
	// for C4's cross-file stage to resolve against imports (spec §4.2).
	for _, fb := range funcBodies {
		body := fb.node.ChildByFieldName("body")
		if body == nil {
			continue
		}
		res.Edges = append(res.Edges, a.extractGoCalls(ectx, fb.id, body, funcNameToID)...)
	}

	addContainsEdges(&res)
	return res, nil
}

func (a *GoAdapter) extractGoCalls(ectx ExtractionContext, callerID string, node *sitter.Node, funcNameToID map[string]string) []ir.Edge {
	var edges []ir.Edge
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := goCalleeName(fn, ectx.Source)
				if name != "" {
					target := funcNameToID[name]
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

// goCalleeName extracts a call expression's callee name: the simple
// identifier for "foo()", or the full "pkg.Foo"/"recv.Method" selector text
// for "pkg.Foo()" and method calls, mirroring the teacher's
// extractGoCalleeName/extractGoCalleeNameFull split.
func goCalleeName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier":
		return string(source[fn.StartByte():fn.EndByte()])
	case "selector_expression":
		return string(source[fn.StartByte():fn.EndByte()])
	default:
		return ""
	}
}

func (a *GoAdapter) extractGoFunction(ectx ExtractionContext, fileID string, node *sitter.Node, isMethod bool) *ir.Node {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(ectx.Source[nameNode.StartByte():nameNode.EndByte()])

	var fqn string
	receiver := ""
	if isMethod {
		if recvNode := node.ChildByFieldName("receiver"); recvNode != nil {
			receiver = extractGoReceiverType(recvNode, ectx.Source)
		}
	}
	if receiver != "" {
		fqn = fmt.Sprintf("%s.%s.%s", ectx.ModulePath, receiver, name)
	} else {
		fqn = fmt.Sprintf("%s.%s", ectx.ModulePath, name)
	}

	id := ectx.IDs.Next(ectx.FilePath)
	kind := ir.KindFunction
	if isMethod {
		kind = ir.KindMethod
	}
	n, err := ir.NewNode(id, kind, fqn, ectx.FilePath, spanOf(node), "go")
	if err != nil {
		return nil
	}
	n.Name = name
	n.ParentID = fileID
	n.Docstring = a.ExtractDocstring(node, ectx.Source)
	n.Parameters = extractGoParameters(node, ectx.Source)
	return n
}

func (a *GoAdapter) extractGoTypeSpec(ectx ExtractionContext, fileID string, node *sitter.Node) *ir.Node {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(ectx.Source[nameNode.StartByte():nameNode.EndByte()])
	typeNode := node.ChildByFieldName("type")
	kind := ir.KindStruct
	if typeNode != nil {
		switch typeNode.Type() {
		case "interface_type":
			kind = ir.KindInterface
		case "struct_type":
			kind = ir.KindStruct
		default:
			kind = ir.KindTypeAlias
		}
	}
	id := ectx.IDs.Next(ectx.FilePath)
	n, err := ir.NewNode(id, kind, fmt.Sprintf("%s.%s", ectx.ModulePath, name), ectx.FilePath, spanOf(node), "go")
	if err != nil {
		return nil
	}
	n.Name = name
	n.ParentID = fileID
	return n
}

func (a *GoAdapter) extractGoImportDeclaration(ectx ExtractionContext, fileID string, node *sitter.Node) []ir.Node {
	var out []ir.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "import_spec" {
			if spec := a.extractGoImportSpec(ectx, fileID, child); spec != nil {
				out = append(out, *spec)
			}
		}
		if child.Type() == "import_spec_list" {
			for j := 0; j < int(child.ChildCount()); j++ {
				if specChild := child.Child(j); specChild.Type() == "import_spec" {
					if spec := a.extractGoImportSpec(ectx, fileID, specChild); spec != nil {
						out = append(out, *spec)
					}
				}
			}
		}
	}
	return out
}

func (a *GoAdapter) extractGoImportSpec(ectx ExtractionContext, fileID string, node *sitter.Node) *ir.Node {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return nil
	}
	raw := string(ectx.Source[pathNode.StartByte():pathNode.EndByte()])
	importPath := strings.Trim(raw, `"`)
	if importPath == "" {
		return nil
	}
	alias := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		alias = string(ectx.Source[nameNode.StartByte():nameNode.EndByte()])
	}

	id := ectx.IDs.Next(ectx.FilePath)
	n, err := ir.NewNode(id, ir.KindImport, importPath, ectx.FilePath, spanOf(node), "go")
	if err != nil {
		return nil
	}
	n.Name = alias
	n.ParentID = fileID
	return n
}

func goPackageName(root *sitter.Node, source []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "package_clause" {
			if id := child.ChildByFieldName("name"); id != nil {
				return string(source[id.StartByte():id.EndByte()])
			}
		}
	}
	return ""
}

func goDeclName(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return string(source[n.StartByte():n.EndByte()])
	}
	return ""
}

// extractGoReceiverType pulls the base type name off a method receiver,
// stripping a leading pointer star and any generic type-parameter list,
// adapted from the teacher's extractReceiverType/extractBaseTypeName.
func extractGoReceiverType(receiverNode *sitter.Node, source []byte) string {
	for i := 0; i < int(receiverNode.ChildCount()); i++ {
		param := receiverNode.Child(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		return extractGoBaseTypeName(typeNode, source)
	}
	return ""
}

func extractGoBaseTypeName(typeNode *sitter.Node, source []byte) string {
	switch typeNode.Type() {
	case "pointer_type":
		inner := typeNode.Child(int(typeNode.ChildCount()) - 1)
		return extractGoBaseTypeName(inner, source)
	case "generic_type":
		if base := typeNode.ChildByFieldName("type"); base != nil {
			return extractGoBaseTypeName(base, source)
		}
	}
	return string(source[typeNode.StartByte():typeNode.EndByte()])
}

func extractGoParameters(node *sitter.Node, source []byte) []ir.Parameter {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var out []ir.Parameter
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		decl := paramsNode.Child(i)
		if decl.Type() != "parameter_declaration" && decl.Type() != "variadic_parameter_declaration" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		name := ""
		if nameNode != nil {
			name = string(source[nameNode.StartByte():nameNode.EndByte()])
		}
		p := ir.Parameter{Name: name, IsVariadic: decl.Type() == "variadic_parameter_declaration"}
		if typeNode := decl.ChildByFieldName("type"); typeNode != nil {
			raw := string(source[typeNode.StartByte():typeNode.EndByte()])
			if te, err := ir.NewTypeEntity(raw, ir.FlavorUnknown, ir.ResolutionUnresolved); err == nil {
				p.Type = te
			}
		}
		out = append(out, p)
	}
	return out
}

func spanOf(n *sitter.Node) ir.Span {
	start := n.StartPoint()
	end := n.EndPoint()
	return ir.Span{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}
