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
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"

	"github.com/krakcode/codegraph/pkg/ir"
)

const tsFixture = `import { Logger } from "./logger";

/**
 * Greets name.
 */
function greet(name: string): string {
  console.log(name);
  return helper(name);
}

function helper(name: string): string {
  return name;
}

class Greeter {
  greet(name: string): string {
    return this.prefix + name;
  }
}

const onClick = () => {
  helper("anon");
};
`

func parseTypeScript(t *testing.T, source string) *sitter.Tree {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(NewTypeScriptAdapter().TreeSitterLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	require.NoError(t, err)
	return tree
}

func TestTypeScriptAdapterExtractFunctionsAndCalls(t *testing.T) {
	tree := parseTypeScript(t, tsFixture)
	defer tree.Close()

	a := NewTypeScriptAdapter()
	ectx := ExtractionContext{
		Source:     []byte(tsFixture),
		FilePath:   "main.ts",
		RepoID:     "repo1",
		LanguageID: "typescript",
		ModulePath: "main",
		IDs:        ir.NewIDGenerator("repo1"),
	}

	res, err := a.Extract(context.Background(), ectx, tree)
	require.NoError(t, err)

	var fileNode, greetFn, helperFn, greeterClass, onClickFn *ir.Node
	for i := range res.Nodes {
		n := &res.Nodes[i]
		switch {
		case n.Kind == ir.KindFile:
			fileNode = n
		case n.Name == "greet" && n.Kind == ir.KindFunction:
			greetFn = n
		case n.Name == "helper":
			helperFn = n
		case n.Name == "Greeter":
			greeterClass = n
		case n.Name == "onClick":
			onClickFn = n
		}
	}

	require.NotNil(t, fileNode)
	require.NotNil(t, greetFn)
	require.NotNil(t, helperFn)
	require.NotNil(t, greeterClass)
	require.NotNil(t, onClickFn)
	require.Equal(t, "Greets name.", greetFn.Docstring)
	require.Equal(t, fileNode.ID, greetFn.ParentID)
	require.Equal(t, ir.KindLambda, onClickFn.Kind)

	foundCallToHelper := false
	for _, e := range res.Edges {
		if e.Kind == ir.EdgeCalls && e.SourceID == greetFn.ID && e.TargetID == helperFn.ID {
			foundCallToHelper = true
		}
	}
	require.True(t, foundCallToHelper, "expected a Calls edge from greet to helper")
}

func TestTypeScriptAdapterExtractIsDeterministic(t *testing.T) {
	a := NewTypeScriptAdapter()

	run := func() ExtractionResult {
		tree := parseTypeScript(t, tsFixture)
		defer tree.Close()
		ectx := ExtractionContext{
			Source:     []byte(tsFixture),
			FilePath:   "main.ts",
			ModulePath: "main",
			IDs:        ir.NewIDGenerator("repo1"),
		}
		res, err := a.Extract(context.Background(), ectx, tree)
		require.NoError(t, err)
		return res
	}

	r1, r2 := run(), run()
	require.Equal(t, len(r1.Nodes), len(r2.Nodes))
	for i := range r1.Nodes {
		require.Equal(t, r1.Nodes[i].ID, r2.Nodes[i].ID)
	}
}

func TestTypeScriptAdapterUnresolvedCallBecomesRef(t *testing.T) {
	src := `function run() {
  external.do();
}
`
	tree := parseTypeScript(t, src)
	defer tree.Close()

	a := NewTypeScriptAdapter()
	ectx := ExtractionContext{
		Source:     []byte(src),
		FilePath:   "main.ts",
		ModulePath: "main",
		IDs:        ir.NewIDGenerator("repo1"),
	}
	res, err := a.Extract(context.Background(), ectx, tree)
	require.NoError(t, err)

	found := false
	for _, e := range res.Edges {
		if e.Kind == ir.EdgeCalls && ir.IsRef(e.TargetID) {
			require.Equal(t, "ref:external.do", e.TargetID)
			found = true
		}
	}
	require.True(t, found)
}
