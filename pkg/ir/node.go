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

package ir

// Node is the universal IR vertex. Required fields are validated by
// NewNode; optional fields may be left at their zero value.
type Node struct {
	ID       string
	Kind     NodeKind
	FQN      string
	FilePath string
	Span     Span
	Language string

	// Optional fields.
	Name           string
	ParentID       string
	BodySpan       *Span
	Docstring      string
	Decorators     []string
	Parameters     []Parameter
	ReturnType     *TypeEntity
	BaseClasses    []string
	TypeAnnotation *TypeEntity
	IsAsync        bool
	IsGenerator    bool
	DeclaredTypeID string
	Metadata       map[string]any
}

// Parameter describes one function/method parameter.
type Parameter struct {
	Name         string
	Type         *TypeEntity
	DefaultValue string
	IsVariadic   bool
}

// NewNode validates required fields and constructs a Node. It does not
// assign an id — callers pass one generated by an IDGenerator so that
// adapters retain control over ordering.
func NewNode(id string, kind NodeKind, fqn, filePath string, span Span, language string) (*Node, error) {
	if !validNodeKinds[kind] {
		return nil, ErrUnknownKind
	}
	if fqn == "" {
		return nil, ErrEmptyFQN
	}
	if !span.Valid() {
		return nil, ErrInvalidSpan
	}
	return &Node{
		ID:       id,
		Kind:     kind,
		FQN:      fqn,
		FilePath: filePath,
		Span:     span,
		Language: language,
	}, nil
}

// Edge connects two nodes with a semantic relationship.
type Edge struct {
	SourceID string
	TargetID string
	Kind     EdgeKind
	Span     *Span
	Metadata map[string]any
}

// NewEdge validates required fields and constructs an Edge.
func NewEdge(sourceID, targetID string, kind EdgeKind) (*Edge, error) {
	if !validEdgeKinds[kind] {
		return nil, ErrUnknownKind
	}
	if sourceID == "" || targetID == "" {
		return nil, ErrEmptyName
	}
	return &Edge{SourceID: sourceID, TargetID: targetID, Kind: kind}, nil
}

// TypeEntity records a (possibly unresolved) type reference.
type TypeEntity struct {
	Raw             string
	Flavor          TypeFlavor
	ResolutionLevel ResolutionLevel
	ResolvedTarget  string
	GenericParamIDs []string
}

// NewTypeEntity constructs a TypeEntity; Raw must be non-empty.
func NewTypeEntity(raw string, flavor TypeFlavor, level ResolutionLevel) (*TypeEntity, error) {
	if raw == "" {
		return nil, ErrEmptyName
	}
	return &TypeEntity{Raw: raw, Flavor: flavor, ResolutionLevel: level}, nil
}

// Occurrence is a derived, queryable reference to a symbol at a span.
type Occurrence struct {
	ID              string
	SymbolID        string
	Span            Span
	Roles           OccurrenceRole
	FilePath        string
	ImportanceScore float64
	ParentSymbolID  string
	SyntaxKind      string
}

// HasRole reports whether role is set in the Occurrence's role bitset.
func (o Occurrence) HasRole(role OccurrenceRole) bool {
	return o.Roles&role != 0
}
