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

	"github.com/krakcode/codegraph/pkg/adapter"
	"github.com/krakcode/codegraph/pkg/ir"
)

// edgeRole maps an edge kind to the Occurrence role its target gains,
// skipping Contains/Defines (structural, not reference, edges) per spec
// §4.11.
func edgeRole(kind ir.EdgeKind) (ir.OccurrenceRole, bool) {
	switch kind {
	case ir.EdgeCalls, ir.EdgeReads, ir.EdgeReferences, ir.EdgeInherits:
		return ir.RoleReadAccess, true
	case ir.EdgeWrites:
		return ir.RoleWriteAccess, true
	case ir.EdgeImports:
		return ir.RoleImport, true
	default:
		return 0, false
	}
}

// DeriveOccurrences produces one Definition occurrence per node and one
// reference occurrence per qualifying edge, the final results-assembly pass
// every pipeline run performs regardless of which deeper stages ran (spec
// §4.11). Grounded on the teacher's LocalPipeline's final IngestionResult
// assembly step (pkg/ingestion/local_pipeline.go), generalized from a
// single occurrence kind to the full Definition/ReadAccess/WriteAccess/
// Import role set this engine's IR supports.
func DeriveOccurrences(nodes []ir.Node, edges []ir.Edge, reg *adapter.Registry) []ir.Occurrence {
	byID := make(map[string]*ir.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	var occurrences []ir.Occurrence
	for _, n := range nodes {
		occurrences = append(occurrences, ir.Occurrence{
			ID:              fmt.Sprintf("%s:occ:def", n.ID),
			SymbolID:        n.ID,
			Span:            n.Span,
			Roles:           ir.RoleDefinition,
			FilePath:        n.FilePath,
			ImportanceScore: ImportanceScore(n, reg),
			ParentSymbolID:  n.ParentID,
			SyntaxKind:      string(n.Kind),
		})
	}

	for i, e := range edges {
		role, ok := edgeRole(e.Kind)
		if !ok {
			continue
		}
		target, ok := byID[e.TargetID]
		if !ok {
			continue // unresolved ref: or cross-repo target, no occurrence to anchor
		}
		span := target.Span
		if e.Span != nil {
			span = *e.Span
		}
		source := byID[e.SourceID]
		parent := ""
		if source != nil {
			parent = source.ID
		}
		occurrences = append(occurrences, ir.Occurrence{
			ID:              fmt.Sprintf("%s:occ:ref:%d", e.SourceID, i),
			SymbolID:        target.ID,
			Span:            span,
			Roles:           role,
			FilePath:        target.FilePath,
			ImportanceScore: ImportanceScore(*target, reg),
			ParentSymbolID:  parent,
			SyntaxKind:      string(target.Kind),
		})
	}

	return occurrences
}

// topLevelKinds are declarations that sit directly under a File/Module
// node in a typical source layout, earning the "top-level" bonus.
var topLevelKinds = map[ir.NodeKind]bool{
	ir.KindFunction: true, ir.KindClass: true, ir.KindInterface: true,
	ir.KindStruct: true, ir.KindEnum: true, ir.KindTypeAlias: true,
}

// kindBonus ranks how central a node kind typically is to a codebase's
// public surface; a File or Import is structural, a Function or Class is
// the thing readers actually care about.
var kindBonus = map[ir.NodeKind]float64{
	ir.KindFunction:  0.15,
	ir.KindMethod:    0.12,
	ir.KindClass:     0.15,
	ir.KindInterface: 0.15,
	ir.KindStruct:    0.12,
	ir.KindEnum:      0.08,
}

// ImportanceScore is the 0.5-base heuristic spec §4.11 defines: a public
// symbol, one with a docstring, a top-level declaration, and certain kinds
// each contribute a bonus, capped at 1.0.
func ImportanceScore(n ir.Node, reg *adapter.Registry) float64 {
	score := 0.5

	if reg != nil {
		if a := reg.For(n.Language); a != nil && a.IsPublic(n.Name) {
			score += 0.15
		}
	}
	if n.Docstring != "" {
		score += 0.1
	}
	if topLevelKinds[n.Kind] {
		score += 0.05
	}
	score += kindBonus[n.Kind]

	if score > 1.0 {
		score = 1.0
	}
	return score
}
