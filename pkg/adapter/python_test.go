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

const pythonFixture = `import os

def greet(name):
    """Says hello to name."""
    print(name)
    return helper(name)

def helper(name):
    return name

class Greeter:
    def greet(self, name):
        return self.prefix + name

def _private():
    return 1
`

func parsePython(t *testing.T, source string) *sitter.Tree {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(NewPythonAdapter().TreeSitterLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	require.NoError(t, err)
	return tree
}

func TestPythonAdapterExtractFunctionsAndCalls(t *testing.T) {
	tree := parsePython(t, pythonFixture)
	defer tree.Close()

	a := NewPythonAdapter()
	ectx := ExtractionContext{
		Source:     []byte(pythonFixture),
		FilePath:   "main.py",
		RepoID:     "repo1",
		LanguageID: "python",
		ModulePath: "main",
		IDs:        ir.NewIDGenerator("repo1"),
	}

	res, err := a.Extract(context.Background(), ectx, tree)
	require.NoError(t, err)

	var fileNode, greetFn, helperFn, greeterClass, privateFn *ir.Node
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
		case n.Name == "_private":
			privateFn = n
		}
	}

	require.NotNil(t, fileNode)
	require.NotNil(t, greetFn)
	require.NotNil(t, helperFn)
	require.NotNil(t, greeterClass)
	require.NotNil(t, privateFn)
	require.Equal(t, "Says hello to name.", greetFn.Docstring)
	require.Equal(t, fileNode.ID, greetFn.ParentID)
	require.True(t, a.IsPublic(greetFn.Name))
	require.False(t, a.IsPublic(privateFn.Name))

	foundCallToHelper := false
	for _, e := range res.Edges {
		if e.Kind == ir.EdgeCalls && e.SourceID == greetFn.ID && e.TargetID == helperFn.ID {
			foundCallToHelper = true
		}
	}
	require.True(t, foundCallToHelper, "expected a Calls edge from greet to helper")
}

func TestPythonAdapterExtractIsDeterministic(t *testing.T) {
	a := NewPythonAdapter()

	run := func() ExtractionResult {
		tree := parsePython(t, pythonFixture)
		defer tree.Close()
		ectx := ExtractionContext{
			Source:     []byte(pythonFixture),
			FilePath:   "main.py",
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

func TestPythonAdapterUnresolvedCallBecomesRef(t *testing.T) {
	src := `def run():
    external.do()
`
	tree := parsePython(t, src)
	defer tree.Close()

	a := NewPythonAdapter()
	ectx := ExtractionContext{
		Source:     []byte(src),
		FilePath:   "main.py",
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
