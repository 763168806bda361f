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

package pdg

import (
	"sort"

	"github.com/krakcode/codegraph/pkg/flow"
)

// DependencyType classifies a PDG edge (spec §4.8).
type DependencyType string

const (
	Control DependencyType = "control"
	Data    DependencyType = "data"
)

// Edge is a directed dependence: To depends on From.
type Edge struct {
	From  string
	To    string
	Type  DependencyType
	Label string // branch condition (Control) or variable name (Data)
}

// Graph is the per-function program dependence graph.
type Graph struct {
	FunctionID string
	nodes      map[string]bool
	out        map[string][]Edge
	in         map[string][]Edge
}

// Builder assembles a Graph from a function's CFG and DFG.
type Builder struct {
	g *Graph
}

// NewBuilder starts a PDG for functionID.
func NewBuilder(functionID string) *Builder {
	return &Builder{g: &Graph{
		FunctionID: functionID,
		nodes:      map[string]bool{},
		out:        map[string][]Edge{},
		in:         map[string][]Edge{},
	}}
}

// AddNode registers a PDG node id (spec §4.8: PDG nodes are created by this
// stage, distinct from CFG/DFG block or occurrence ids, though typically
// derived from them one-to-one).
func (b *Builder) AddNode(id string) {
	b.g.nodes[id] = true
}

// AddCFGEdges adds a Control edge from -> to whenever the originating CFG
// block branches (more than one successor). label supplies the branch
// condition text for a given (from, to) pair, if known; callers that don't
// track conditions may pass a func returning "".
func (b *Builder) AddCFGEdges(cfg *flow.BasicFlowGraph, label func(from, to string) string) {
	successorCount := map[string]int{}
	for _, e := range cfg.Edges {
		successorCount[e.From]++
	}
	for _, e := range cfg.Edges {
		if successorCount[e.From] < 2 {
			continue
		}
		b.AddNode(e.From)
		b.AddNode(e.To)
		b.addEdge(Edge{From: e.From, To: e.To, Type: Control, Label: label(e.From, e.To)})
	}
}

// AddDFG adds a Data edge for every def-use edge in dfg. nodeID maps a
// flow.DFGNode to the PDG node id representing it (callers that reuse DFG
// node indices directly as PDG ids can pass an identity-style function).
func (b *Builder) AddDFG(dfg *flow.DataFlowGraph, nodeID func(flow.DFGNode) string) {
	for _, e := range dfg.Edges {
		defNode := dfg.Nodes[e.Def]
		useNode := dfg.Nodes[e.Use]
		from, to := nodeID(defNode), nodeID(useNode)
		b.AddNode(from)
		b.AddNode(to)
		b.addEdge(Edge{From: from, To: to, Type: Data, Label: defNode.Variable})
	}
}

func (b *Builder) addEdge(e Edge) {
	b.g.out[e.From] = append(b.g.out[e.From], e)
	b.g.in[e.To] = append(b.g.in[e.To], e)
}

// Build finalizes the graph, sorting adjacency lists for deterministic
// traversal order.
func (b *Builder) Build() *Graph {
	for k := range b.g.out {
		sortEdges(b.g.out[k])
	}
	for k := range b.g.in {
		sortEdges(b.g.in[k])
	}
	return b.g
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].From < edges[j].From
	})
}

// Nodes returns all node ids in sorted order.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasPath reports whether a directed path exists from a to b within depth
// hops (BFS, visited set).
func (g *Graph) HasPath(a, b string, depth int) bool {
	if a == b {
		return true
	}
	visited := map[string]bool{a: true}
	queue := []string{a}
	for d := 0; d < depth && len(queue) > 0; d++ {
		var next []string
		for _, cur := range queue {
			for _, e := range g.out[cur] {
				if e.To == b {
					return true
				}
				if !visited[e.To] {
					visited[e.To] = true
					next = append(next, e.To)
				}
			}
		}
		queue = next
	}
	return false
}
