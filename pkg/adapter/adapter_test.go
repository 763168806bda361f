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

func TestDefaultRegistryHasAllThreeLanguages(t *testing.T) {
	r := DefaultRegistry()
	require.Equal(t, []string{"go", "python", "typescript"}, r.LanguageIDs())
}

func TestRegistryForUnknownLanguageReturnsNil(t *testing.T) {
	r := DefaultRegistry()
	require.Nil(t, r.For("cobol"))
}

func TestGoAdapterIsPublic(t *testing.T) {
	a := NewGoAdapter()
	require.True(t, a.IsPublic("HandleUser"))
	require.False(t, a.IsPublic("handleUser"))
}

func TestPythonAdapterIsPublic(t *testing.T) {
	a := NewPythonAdapter()
	require.True(t, a.IsPublic("handle_user"))
	require.False(t, a.IsPublic("_internal"))
}

func TestTypeScriptAdapterIsPublic(t *testing.T) {
	a := NewTypeScriptAdapter()
	require.True(t, a.IsPublic("handleUser"))
	require.False(t, a.IsPublic("_private"))
	require.False(t, a.IsPublic("#field"))
}

func TestGoAdapterControlFlowClassification(t *testing.T) {
	a := NewGoAdapter()
	require.True(t, a.IsControlFlowNode("if_statement"))
	require.Equal(t, FlowBranch, a.GetControlFlowType("if_statement"))
	require.Equal(t, FlowLoop, a.GetControlFlowType("for_statement"))
	require.False(t, a.IsControlFlowNode("assignment_statement"))
	require.Equal(t, FlowNone, a.GetControlFlowType("assignment_statement"))
}

func TestGoAdapterMapNodeKind(t *testing.T) {
	a := NewGoAdapter()
	kind, ok := a.MapNodeKind("function_declaration")
	require.True(t, ok)
	require.Equal(t, ir.KindFunction, kind)

	_, ok = a.MapNodeKind("nonexistent_node_type")
	require.False(t, ok)
}
