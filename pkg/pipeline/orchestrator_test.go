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

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krakcode/codegraph/pkg/adapter"
	"github.com/krakcode/codegraph/pkg/ir"
	"github.com/krakcode/codegraph/pkg/taint"
)

const orchestratorFixture = `package main

import "os"

func run(name string) string {
	v := os.Getenv(name)
	return helper(v)
}

func helper(v string) string {
	return v
}
`

func TestOrchestratorRunThoroughSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root+"/main.go", orchestratorFixture)

	cfg, err := NewPipelineConfig(PresetThorough).Build()
	require.NoError(t, err)

	o := NewOrchestrator(cfg, adapter.DefaultRegistry(), taint.DefaultRegistry())
	result, err := o.Run(context.Background(), "repo1", root, nil)
	require.NoError(t, err)
	require.False(t, result.Cancelled)

	require.NotEmpty(t, result.Nodes)
	require.NotEmpty(t, result.Occurrences)

	var runFn, helperFn *ir.Node
	for i := range result.Nodes {
		n := &result.Nodes[i]
		switch n.Name {
		case "run":
			runFn = n
		case "helper":
			helperFn = n
		}
	}
	require.NotNil(t, runFn)
	require.NotNil(t, helperFn)

	runIR := result.Functions[runFn.ID]
	require.NotNil(t, runIR)
	require.NotNil(t, runIR.FlowGraph)
	require.NotNil(t, runIR.DataFlow)
	require.NotNil(t, runIR.SSA)
	require.NotNil(t, runIR.PDG)
	require.NotNil(t, runIR.Taint)
	require.GreaterOrEqual(t, runIR.Taint.SourcesFound, 1)

	_, ptaOK := result.PTASummaries[runFn.ID]
	require.True(t, ptaOK)

	require.Len(t, result.Stages, 12)
}

func TestOrchestratorRunFastPresetSkipsDeepTiers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root+"/main.go", orchestratorFixture)

	cfg, err := NewPipelineConfig(PresetFast).Build()
	require.NoError(t, err)

	o := NewOrchestrator(cfg, adapter.DefaultRegistry(), taint.DefaultRegistry())
	result, err := o.Run(context.Background(), "repo1", root, nil)
	require.NoError(t, err)

	require.Empty(t, result.Functions)
	require.Nil(t, result.DependencyGraph)
	require.NotEmpty(t, result.Occurrences)
}

func TestOrchestratorRunCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root+"/main.go", orchestratorFixture)

	cfg, err := NewPipelineConfig(PresetThorough).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(cfg, adapter.DefaultRegistry(), taint.DefaultRegistry())
	result, err := o.Run(ctx, "repo1", root, nil)
	require.NoError(t, err)
	require.True(t, result.Cancelled)
}
