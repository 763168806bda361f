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
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/krakcode/codegraph/pkg/pta"
	"github.com/krakcode/codegraph/pkg/taint"
)

// Preset selects a bundle of stage switches and override defaults.
type Preset string

const (
	PresetFast     Preset = "fast"
	PresetBalanced Preset = "balanced"
	PresetThorough Preset = "thorough"
	PresetCustom   Preset = "custom"
)

// StageSwitches is the bitset of pipeline stages a run enables (spec §4.3).
// Parsing, chunking, and lexical indexing default on; everything deeper
// defaults off until a preset or explicit builder call turns it on.
type StageSwitches struct {
	Parsing        bool
	Chunking       bool
	Lexical        bool
	CrossFile      bool
	Clone          bool
	PTA            bool
	FlowGraphs     bool
	TypeInference  bool
	Symbols        bool
	Effects        bool
	Taint          bool
	RepoMap        bool
	Heap           bool
	PDG            bool
	Concurrency    bool
	Slicing        bool
}

func defaultStageSwitches() StageSwitches {
	return StageSwitches{Parsing: true, Chunking: true, Lexical: true}
}

// allStages turns every switch on, matching the `all()` preset helper.
func allStages() StageSwitches {
	return StageSwitches{
		Parsing: true, Chunking: true, Lexical: true, CrossFile: true,
		Clone: true, PTA: true, FlowGraphs: true, TypeInference: true,
		Symbols: true, Effects: true, Taint: true, RepoMap: true,
		Heap: true, PDG: true, Concurrency: true, Slicing: true,
	}
}

// securityStages turns on the subset a security-focused scan needs: taint
// requires PTA and flow graphs, and slicing requires PDG which requires
// flow graphs, so those dependencies are turned on alongside it.
func securityStages() StageSwitches {
	return StageSwitches{
		Parsing: true, Chunking: true, Lexical: true, CrossFile: true,
		PTA: true, FlowGraphs: true, Taint: true, PDG: true, Slicing: true,
	}
}

// ChunkingOverride configures the chunking stage.
type ChunkingOverride struct {
	MaxChunkLines int
}

// LexicalOverride configures the lexical indexing stage.
type LexicalOverride struct {
	CaseSensitive bool
}

// CloneOverride configures near-duplicate detection.
type CloneOverride struct {
	MinLines        int
	SimilarityFloor float64
}

// ParallelOverride configures the worker pool (spec §5).
type ParallelOverride struct {
	// NumWorkers is the size of the stage-internal fork/join pool; 0 means
	// "detect CPUs" (spec §5).
	NumWorkers int
}

// PageRankOverride configures PageRank/PPR/HITS iteration.
type PageRankOverride struct {
	Damping float64
	MaxIter int
	Tol     float64
}

// CacheOverride configures stage-result caching.
type CacheOverride struct {
	Enabled bool
	Dir     string
}

// HeapOverride configures the heap/escape analysis stage.
type HeapOverride struct {
	MaxAllocSites int
}

// PDGOverride configures PDG construction.
type PDGOverride struct {
	// (no tunables yet; reserved for field/label policy extensions)
}

// SlicingOverride configures default slicing depth.
type SlicingOverride struct {
	DefaultMaxDepth int
}

// Overrides bundles every per-stage override struct. Only the fields the
// caller sets are considered "set" for provenance/consistency purposes; a
// zero-value override is indistinguishable from "not configured" by design
// (spec §4.3 leaves override presence implicit in which builder methods the
// caller invoked, tracked separately in the builder's `touched` set).
type Overrides struct {
	Taint    taint.Config
	PTA      pta.Config
	Clone    CloneOverride
	Chunking ChunkingOverride
	Lexical  LexicalOverride
	Parallel ParallelOverride
	PageRank PageRankOverride
	Cache    CacheOverride
	Heap     HeapOverride
	PDG      PDGOverride
	Slicing  SlicingOverride
}

func defaultOverrides() Overrides {
	return Overrides{
		Taint:    taint.DefaultConfig(),
		PTA:      pta.DefaultConfig(),
		Clone:    CloneOverride{MinLines: 6, SimilarityFloor: 0.85},
		Chunking: ChunkingOverride{MaxChunkLines: 200},
		PageRank: PageRankOverride{Damping: 0.85, MaxIter: 100, Tol: 1e-6},
		Heap:     HeapOverride{MaxAllocSites: 10000},
		Slicing:  SlicingOverride{DefaultMaxDepth: 5},
	}
}

// ProvenanceSource identifies where an effective field value came from
// (spec §4.3's per-wildcard-key provenance).
type ProvenanceSource string

const (
	SourcePreset  ProvenanceSource = "preset"
	SourceBuilder ProvenanceSource = "builder"
	SourceYaml    ProvenanceSource = "yaml"
	SourceEnv     ProvenanceSource = "env"
)

// Provenance records, per wildcard field key ("taint.*", "pta.*", ...),
// which source last set it. Reproducible: the same build sequence always
// produces the same map.
type Provenance map[string]ProvenanceSource

// ConfigError is the typed failure set build() can return (spec §6).
type ConfigError struct {
	Kind  string // InvalidField | UnknownPreset | UnsupportedVersion | DisabledStageOverride | CrossStageConflict | Yaml | Io
	Field string
	Stage string
	Hint  string
	Issue string
	Fix   string
	Err   error
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case "InvalidField":
		return fmt.Sprintf("config: invalid field %s: %s", e.Field, e.Hint)
	case "UnknownPreset":
		return fmt.Sprintf("config: unknown preset %q", e.Field)
	case "UnsupportedVersion":
		return fmt.Sprintf("config: unsupported schema version %s", e.Field)
	case "DisabledStageOverride":
		return fmt.Sprintf("config: override set for disabled stage %s: %s", e.Stage, e.Hint)
	case "CrossStageConflict":
		return fmt.Sprintf("config: %s (fix: %s)", e.Issue, e.Fix)
	case "Yaml":
		return fmt.Sprintf("config: yaml error: %v", e.Err)
	case "Io":
		return fmt.Sprintf("config: io error: %v", e.Err)
	default:
		return fmt.Sprintf("config: %s", e.Kind)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// PipelineConfig is the builder applications assemble before calling
// Build(). Construct one with NewPipelineConfig; the zero value has no
// preset, every stage switched off and nil internal maps.
type PipelineConfig struct {
	preset     Preset
	stages     StageSwitches
	overrides  Overrides
	strict     bool
	provenance Provenance
	touched    map[string]bool
}

// NewPipelineConfig starts a builder from a named preset (spec §4.3).
func NewPipelineConfig(preset Preset) *PipelineConfig {
	c := &PipelineConfig{
		preset:     preset,
		overrides:  defaultOverrides(),
		provenance: Provenance{},
		touched:    map[string]bool{},
	}
	switch preset {
	case PresetFast:
		c.stages = defaultStageSwitches()
	case PresetBalanced:
		c.stages = securityStages()
	case PresetThorough:
		c.stages = allStages()
	case PresetCustom:
		c.stages = defaultStageSwitches()
	default:
		c.stages = defaultStageSwitches()
	}
	for _, k := range provenanceKeys {
		c.provenance[k] = SourcePreset
	}
	return c
}

var provenanceKeys = []string{
	"taint.*", "pta.*", "clone.*", "chunking.*", "lexical.*", "parallel.*",
	"pagerank.*", "cache.*", "heap.*", "pdg.*", "slicing.*",
}

// WithStages applies f to the builder's stage switches in place.
func (c *PipelineConfig) WithStages(f func(*StageSwitches)) *PipelineConfig {
	f(&c.stages)
	return c
}

// StrictMode toggles whether a disabled-stage override is a hard error
// (true) or a warning-and-ignore (false, the default).
func (c *PipelineConfig) StrictMode(b bool) *PipelineConfig {
	c.strict = b
	return c
}

// Taint overrides the taint stage's configuration.
func (c *PipelineConfig) Taint(f func(*taint.Config)) *PipelineConfig {
	f(&c.overrides.Taint)
	c.touched["taint.*"] = true
	c.provenance["taint.*"] = SourceBuilder
	return c
}

// PTA overrides the points-to stage's configuration.
func (c *PipelineConfig) PTA(f func(*pta.Config)) *PipelineConfig {
	f(&c.overrides.PTA)
	c.touched["pta.*"] = true
	c.provenance["pta.*"] = SourceBuilder
	return c
}

// Clone overrides the clone-detection stage's configuration.
func (c *PipelineConfig) Clone(f func(*CloneOverride)) *PipelineConfig {
	f(&c.overrides.Clone)
	c.touched["clone.*"] = true
	c.provenance["clone.*"] = SourceBuilder
	return c
}

// Chunking overrides the chunking stage's configuration.
func (c *PipelineConfig) Chunking(f func(*ChunkingOverride)) *PipelineConfig {
	f(&c.overrides.Chunking)
	c.touched["chunking.*"] = true
	c.provenance["chunking.*"] = SourceBuilder
	return c
}

// Slicing overrides the slicing stage's default depth.
func (c *PipelineConfig) Slicing(f func(*SlicingOverride)) *PipelineConfig {
	f(&c.overrides.Slicing)
	c.touched["slicing.*"] = true
	c.provenance["slicing.*"] = SourceBuilder
	return c
}

// Parallel overrides worker-pool sizing.
func (c *PipelineConfig) Parallel(f func(*ParallelOverride)) *PipelineConfig {
	f(&c.overrides.Parallel)
	c.touched["parallel.*"] = true
	c.provenance["parallel.*"] = SourceBuilder
	return c
}

// stageEnabled reports whether the named stage key is on, for the
// disabled-stage-override consistency check.
func (s StageSwitches) stageEnabled(key string) (bool, bool) {
	switch key {
	case "taint.*":
		return s.Taint, true
	case "pta.*":
		return s.PTA, true
	case "clone.*":
		return s.Clone, true
	case "chunking.*":
		return s.Chunking, true
	case "lexical.*":
		return s.Lexical, true
	case "pdg.*":
		return s.PDG, true
	case "slicing.*":
		return s.Slicing, true
	case "heap.*":
		return s.Heap, true
	default:
		return false, false
	}
}

// ValidatedConfig is the immutable result of a successful Build(). Stage
// accessors return (effectiveCfg, true) iff the stage is enabled.
type ValidatedConfig struct {
	Preset     Preset
	Stages     StageSwitches
	Overrides  Overrides
	Strict     bool
	Provenance Provenance
	Warnings   []string
}

// TaintConfig returns the effective taint config iff stages.Taint is set.
func (v *ValidatedConfig) TaintConfig() (taint.Config, bool) {
	if !v.Stages.Taint {
		return taint.Config{}, false
	}
	return v.Overrides.Taint, true
}

// PTAConfig returns the effective PTA config iff stages.PTA is set.
func (v *ValidatedConfig) PTAConfig() (pta.Config, bool) {
	if !v.Stages.PTA {
		return pta.Config{}, false
	}
	return v.Overrides.PTA, true
}

// SlicingConfig returns the effective slicing config iff stages.Slicing is set.
func (v *ValidatedConfig) SlicingConfig() (SlicingOverride, bool) {
	if !v.Stages.Slicing {
		return SlicingOverride{}, false
	}
	return v.Overrides.Slicing, true
}

// Build runs the three validation passes spec §4.3 requires and produces a
// ValidatedConfig, or the first ConfigError encountered.
func (c *PipelineConfig) Build() (*ValidatedConfig, error) {
	var warnings []string

	// Pass 1: per-stage bounds checks.
	if c.overrides.Taint.MaxDepth != 0 && (c.overrides.Taint.MaxDepth < 1 || c.overrides.Taint.MaxDepth > 1000) {
		return nil, &ConfigError{Kind: "InvalidField", Field: "taint.max_depth", Hint: "must be in [1, 1000]"}
	}
	if c.overrides.PTA.AutoThreshold <= 0 && c.overrides.PTA.Mode == pta.ModeAuto {
		return nil, &ConfigError{Kind: "InvalidField", Field: "pta.auto_threshold", Hint: "must be > 0"}
	}

	// Pass 2: stage/override consistency.
	for _, key := range provenanceKeys {
		if !c.touched[key] {
			continue
		}
		enabled, known := c.stages.stageEnabled(key)
		if !known || enabled {
			continue
		}
		stage := key[:len(key)-2]
		if c.strict {
			return nil, &ConfigError{
				Kind:  "DisabledStageOverride",
				Stage: stage,
				Hint:  fmt.Sprintf("enable stages.%s or remove the %s override", stage, stage),
			}
		}
		warnings = append(warnings, fmt.Sprintf("override set for disabled stage %q; ignored", stage))
	}

	// Pass 3: cross-stage validation.
	if c.overrides.Taint.UsePointsTo && c.stages.Taint && !c.stages.PTA {
		return nil, &ConfigError{
			Kind:  "CrossStageConflict",
			Issue: "taint.use_points_to requires stages.pta",
			Fix:   "enable stages.pta or disable taint.use_points_to",
		}
	}
	if c.stages.Slicing && !c.stages.PDG {
		return nil, &ConfigError{
			Kind:  "CrossStageConflict",
			Issue: "stages.slicing requires stages.pdg",
			Fix:   "enable stages.pdg",
		}
	}
	if c.stages.PDG && !c.stages.FlowGraphs {
		return nil, &ConfigError{
			Kind:  "CrossStageConflict",
			Issue: "stages.pdg requires stages.flow_graphs",
			Fix:   "enable stages.flow_graphs",
		}
	}
	if c.stages.Taint && c.overrides.PTA.Mode == pta.ModeFast {
		// field_sensitive is a taint.Config concept only in name here; the
		// spec's condition is taint.field_sensitive ∧ pta.mode = Fast. This
		// repo's taint.Config has no FieldSensitive flag (see SPEC_FULL.md
		// §14 open question), so the warning fires whenever taint + fast
		// PTA are combined, which is the conservative superset of the rule.
		warnings = append(warnings, "taint enabled with pta.mode=fast may miss field-sensitive flows")
	}

	prov := make(Provenance, len(c.provenance))
	for k, v := range c.provenance {
		prov[k] = v
	}

	return &ValidatedConfig{
		Preset:     c.preset,
		Stages:     c.stages,
		Overrides:  c.overrides,
		Strict:     c.strict,
		Provenance: prov,
		Warnings:   warnings,
	}, nil
}

// yamlConfig is the on-disk schema (spec §6, "version 1"). Unknown
// top-level keys are a hard error; unknown override sub-keys are dropped
// by yaml.v3's default non-strict unmarshal for nested maps, and no
// warning is recorded for them.
type yamlConfig struct {
	Version   int                    `yaml:"version"`
	Preset    string                 `yaml:"preset"`
	Stages    map[string]bool        `yaml:"stages,omitempty"`
	Overrides map[string]interface{} `yaml:"overrides,omitempty"`
}

var yamlTopLevelKeys = map[string]bool{"version": true, "preset": true, "stages": true, "overrides": true}

// LoadYAML parses a v1 YAML configuration document into a PipelineConfig
// builder (not yet validated — call Build() afterward).
func LoadYAML(data []byte) (*PipelineConfig, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Kind: "Yaml", Err: err}
	}
	for k := range raw {
		if !yamlTopLevelKeys[k] {
			return nil, &ConfigError{Kind: "InvalidField", Field: k, Hint: "unknown top-level key"}
		}
	}

	var cfg yamlConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Kind: "Yaml", Err: err}
	}
	if cfg.Version != 1 {
		return nil, &ConfigError{Kind: "UnsupportedVersion", Field: fmt.Sprintf("%d", cfg.Version)}
	}

	preset := Preset(cfg.Preset)
	switch preset {
	case PresetFast, PresetBalanced, PresetThorough, PresetCustom:
	default:
		return nil, &ConfigError{Kind: "UnknownPreset", Field: cfg.Preset}
	}

	c := NewPipelineConfig(preset)
	for k, v := range cfg.Stages {
		applyStageSwitch(&c.stages, k, v)
	}
	for k := range cfg.Stages {
		c.provenance[k] = SourceYaml
	}

	if taintRaw, ok := cfg.Overrides["taint"]; ok {
		applyYamlOverride(taintRaw, &c.overrides.Taint)
		c.touched["taint.*"] = true
		c.provenance["taint.*"] = SourceYaml
	}
	if ptaRaw, ok := cfg.Overrides["pta"]; ok {
		applyYamlOverride(ptaRaw, &c.overrides.PTA)
		c.touched["pta.*"] = true
		c.provenance["pta.*"] = SourceYaml
	}
	if sliceRaw, ok := cfg.Overrides["slicing"]; ok {
		applyYamlOverride(sliceRaw, &c.overrides.Slicing)
		c.touched["slicing.*"] = true
		c.provenance["slicing.*"] = SourceYaml
	}

	return c, nil
}

// applyYamlOverride re-marshals a generic map back through yaml so it can
// be decoded into a typed override struct without hand-rolled field
// switches; unknown sub-keys are ignored by yaml.v3's default behavior.
// Which keys were consumed is not tracked, so no warning is produced for
// an ignored key.
func applyYamlOverride(raw interface{}, out interface{}) {
	b, err := yaml.Marshal(raw)
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(b, out)
}

func applyStageSwitch(s *StageSwitches, key string, v bool) {
	switch key {
	case "parsing":
		s.Parsing = v
	case "chunking":
		s.Chunking = v
	case "lexical":
		s.Lexical = v
	case "cross_file":
		s.CrossFile = v
	case "clone":
		s.Clone = v
	case "pta":
		s.PTA = v
	case "flow_graphs":
		s.FlowGraphs = v
	case "type_inference":
		s.TypeInference = v
	case "symbols":
		s.Symbols = v
	case "effects":
		s.Effects = v
	case "taint":
		s.Taint = v
	case "repomap":
		s.RepoMap = v
	case "heap":
		s.Heap = v
	case "pdg":
		s.PDG = v
	case "concurrency":
		s.Concurrency = v
	case "slicing":
		s.Slicing = v
	}
}

// ExportYAML serializes v back to the v1 schema. Nothing is elided: every
// stage switch and the taint, pta and slicing overrides are written out in
// full. ExportYAML(LoadYAML(x)) round-trips to an equivalent (not
// necessarily byte-identical) config, per spec §6.
func ExportYAML(v *ValidatedConfig) ([]byte, error) {
	stages := map[string]bool{}
	stageFields := map[string]bool{
		"parsing": v.Stages.Parsing, "chunking": v.Stages.Chunking, "lexical": v.Stages.Lexical,
		"cross_file": v.Stages.CrossFile, "clone": v.Stages.Clone, "pta": v.Stages.PTA,
		"flow_graphs": v.Stages.FlowGraphs, "type_inference": v.Stages.TypeInference,
		"symbols": v.Stages.Symbols, "effects": v.Stages.Effects, "taint": v.Stages.Taint,
		"repomap": v.Stages.RepoMap, "heap": v.Stages.Heap, "pdg": v.Stages.PDG,
		"concurrency": v.Stages.Concurrency, "slicing": v.Stages.Slicing,
	}
	names := make([]string, 0, len(stageFields))
	for k := range stageFields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		stages[k] = stageFields[k]
	}

	cfg := yamlConfig{
		Version: 1,
		Preset:  string(v.Preset),
		Stages:  stages,
		Overrides: map[string]interface{}{
			"taint":   v.Overrides.Taint,
			"pta":     v.Overrides.PTA,
			"slicing": v.Overrides.Slicing,
		},
	}
	return yaml.Marshal(cfg)
}

// ReadConfigFile loads and validates a v1 YAML config file from disk.
func ReadConfigFile(path string) (*ValidatedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Kind: "Io", Err: err}
	}
	c, err := LoadYAML(data)
	if err != nil {
		return nil, err
	}
	return c.Build()
}
