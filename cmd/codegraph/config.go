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

package main

import (
	"fmt"

	"github.com/krakcode/codegraph/internal/errors"
	"github.com/krakcode/codegraph/pkg/pipeline"
)

// loadConfig resolves a ValidatedConfig either from an explicit YAML file
// or from a named preset, mirroring the teacher's LoadConfig/mapEmbeddingProvider
// precedence (explicit file wins over defaults).
func loadConfig(configPath, preset string) (*pipeline.ValidatedConfig, error) {
	if configPath != "" {
		cfg, err := pipeline.ReadConfigFile(configPath)
		if err != nil {
			return nil, errors.NewConfigError(
				"Failed to load pipeline config", err.Error(),
				fmt.Sprintf("Check that %s is a valid v1 pipeline config.", configPath), err)
		}
		return cfg, nil
	}

	p := pipeline.Preset(preset)
	switch p {
	case pipeline.PresetFast, pipeline.PresetBalanced, pipeline.PresetThorough:
	default:
		return nil, errors.NewConfigError(
			"Unknown preset", preset, "Use one of: fast, balanced, thorough", nil)
	}
	cfg, err := pipeline.NewPipelineConfig(p).Build()
	if err != nil {
		return nil, errors.NewConfigError("Failed to build preset config", err.Error(), "", err)
	}
	return cfg, nil
}
