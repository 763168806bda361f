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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krakcode/codegraph/pkg/pta"
	"github.com/krakcode/codegraph/pkg/taint"
)

func TestNewPipelineConfigPresets(t *testing.T) {
	fast, err := NewPipelineConfig(PresetFast).Build()
	require.NoError(t, err)
	require.True(t, fast.Stages.Parsing)
	require.False(t, fast.Stages.Taint)

	thorough, err := NewPipelineConfig(PresetThorough).Build()
	require.NoError(t, err)
	require.True(t, thorough.Stages.Taint)
	require.True(t, thorough.Stages.PDG)
	require.True(t, thorough.Stages.Slicing)
}

func TestBuildRejectsInvalidTaintDepth(t *testing.T) {
	c := NewPipelineConfig(PresetBalanced).Taint(func(cfg *taint.Config) {
		cfg.MaxDepth = 5000
	})
	_, err := c.Build()
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "InvalidField", cerr.Kind)
}

func TestBuildCrossStageRequiresPTAForTaintUsePointsTo(t *testing.T) {
	c := NewPipelineConfig(PresetCustom).
		WithStages(func(s *StageSwitches) { s.Taint = true }).
		Taint(func(cfg *taint.Config) { cfg.UsePointsTo = true })
	_, err := c.Build()
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "CrossStageConflict", cerr.Kind)
}

func TestBuildCrossStageSlicingRequiresPDG(t *testing.T) {
	c := NewPipelineConfig(PresetCustom).WithStages(func(s *StageSwitches) { s.Slicing = true })
	_, err := c.Build()
	require.Error(t, err)
}

func TestBuildCrossStagePDGRequiresFlowGraphs(t *testing.T) {
	c := NewPipelineConfig(PresetCustom).WithStages(func(s *StageSwitches) { s.PDG = true })
	_, err := c.Build()
	require.Error(t, err)
}

func TestDisabledStageOverrideStrictVsWarn(t *testing.T) {
	lenient := NewPipelineConfig(PresetFast).Clone(func(c *CloneOverride) { c.MinLines = 3 })
	v, err := lenient.Build()
	require.NoError(t, err)
	require.NotEmpty(t, v.Warnings)

	strict := NewPipelineConfig(PresetFast).StrictMode(true).Clone(func(c *CloneOverride) { c.MinLines = 3 })
	_, err = strict.Build()
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "DisabledStageOverride", cerr.Kind)
}

func TestProvenanceTracksBuilderOverrides(t *testing.T) {
	c := NewPipelineConfig(PresetBalanced).PTA(func(cfg *pta.Config) { cfg.AutoThreshold = 50 })
	v, err := c.Build()
	require.NoError(t, err)
	require.Equal(t, SourceBuilder, v.Provenance["pta.*"])
	require.Equal(t, SourcePreset, v.Provenance["taint.*"])
}

func TestLoadYAMLRoundTrip(t *testing.T) {
	doc := []byte(`
version: 1
preset: thorough
stages:
  taint: false
overrides:
  taint:
    max_depth: 10
`)
	c, err := LoadYAML(doc)
	require.NoError(t, err)
	v, err := c.Build()
	require.NoError(t, err)
	require.False(t, v.Stages.Taint)
	require.True(t, v.Stages.PDG)

	out, err := ExportYAML(v)
	require.NoError(t, err)
	require.Contains(t, string(out), "version: 1")

	reloaded, err := LoadYAML(out)
	require.NoError(t, err)
	v2, err := reloaded.Build()
	require.NoError(t, err)
	require.Equal(t, v.Stages, v2.Stages)
}

func TestLoadYAMLRejectsUnknownTopLevelKey(t *testing.T) {
	_, err := LoadYAML([]byte("version: 1\npreset: fast\nbogus: true\n"))
	require.Error(t, err)
}

func TestLoadYAMLRejectsUnsupportedVersion(t *testing.T) {
	_, err := LoadYAML([]byte("version: 2\npreset: fast\n"))
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "UnsupportedVersion", cerr.Kind)
}

func TestLoadYAMLRejectsUnknownPreset(t *testing.T) {
	_, err := LoadYAML([]byte("version: 1\npreset: ludicrous\n"))
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "UnknownPreset", cerr.Kind)
}
