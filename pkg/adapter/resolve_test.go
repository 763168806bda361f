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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krakcode/codegraph/pkg/ir"
)

func TestResolverResolvesCrossModuleCall(t *testing.T) {
	r := NewResolver()

	// internal/handlers/user.go defines HandleUser, exported.
	handlerFile := mustNode(t, "f1", ir.KindFile, "internal/handlers/user.go", "internal/handlers/user.go")
	handleUser := mustNode(t, "fn1", ir.KindFunction, "project/internal/handlers.HandleUser", "internal/handlers/user.go")
	handleUser.Name = "HandleUser"

	// internal/routes/auth.go imports the handlers package and calls it.
	routesFile := mustNode(t, "f2", ir.KindFile, "internal/routes/auth.go", "internal/routes/auth.go")
	registerRoutes := mustNode(t, "fn2", ir.KindFunction, "project/internal/routes.RegisterAuthRoutes", "internal/routes/auth.go")
	registerRoutes.Name = "RegisterAuthRoutes"
	importNode := mustNode(t, "imp1", ir.KindImport, "project/internal/handlers", "internal/routes/auth.go")

	r.BuildIndex(ExtractionResult{Nodes: []ir.Node{handlerFile, handleUser}})
	r.BuildIndex(ExtractionResult{Nodes: []ir.Node{routesFile, registerRoutes, importNode}})

	edges := []ir.Edge{
		{SourceID: "fn2", TargetID: "ref:handlers.HandleUser", Kind: ir.EdgeCalls},
	}
	resolved := r.Resolve(edges)
	require.Len(t, resolved, 1)
	require.Equal(t, "fn1", resolved[0].TargetID)
}

func TestResolverLeavesUnresolvableRefUnchanged(t *testing.T) {
	r := NewResolver()
	fileNode := mustNode(t, "f1", ir.KindFile, "main.go", "main.go")
	fnNode := mustNode(t, "fn1", ir.KindFunction, "main.Run", "main.go")
	fnNode.Name = "Run"
	r.BuildIndex(ExtractionResult{Nodes: []ir.Node{fileNode, fnNode}})

	edges := []ir.Edge{{SourceID: "fn1", TargetID: "ref:externalpkg.Do", Kind: ir.EdgeCalls}}
	resolved := r.Resolve(edges)
	require.Equal(t, "ref:externalpkg.Do", resolved[0].TargetID)
}

func TestResolverSameFileBareNameFallback(t *testing.T) {
	r := NewResolver()
	fileNode := mustNode(t, "f1", ir.KindFile, "main.go", "main.go")
	helper := mustNode(t, "fn1", ir.KindFunction, "main.helper", "main.go")
	helper.Name = "helper"
	caller := mustNode(t, "fn2", ir.KindFunction, "main.Run", "main.go")
	caller.Name = "Run"
	r.BuildIndex(ExtractionResult{Nodes: []ir.Node{fileNode, helper, caller}})

	edges := []ir.Edge{{SourceID: "fn2", TargetID: "ref:helper", Kind: ir.EdgeCalls}}
	resolved := r.Resolve(edges)
	require.Equal(t, "fn1", resolved[0].TargetID)
}

func mustNode(t *testing.T, id string, kind ir.NodeKind, fqn, filePath string) ir.Node {
	t.Helper()
	n, err := ir.NewNode(id, kind, fqn, filePath, ir.Span{StartLine: 1, EndLine: 1}, "go")
	require.NoError(t, err)
	return *n
}
