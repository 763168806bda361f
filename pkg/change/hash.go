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

// Package change implements the incremental change-impact analyzer: a
// four-level Merkle hash over IR nodes, bounded BFS impact propagation
// across the reverse-edge graph, per-index update-strategy selection, and
// a durable write-ahead log recording applied transactions.
package change

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/krakcode/codegraph/pkg/ir"
)

// NodeHash partitions a node's observable state into four independently
// comparable digests, so pure reformatting (a moved span only) doesn't
// force the same downstream work as a signature change.
type NodeHash struct {
	Signature string
	Body      string
	Doc       string
	Format    string
}

// HashComparison is the result of comparing two NodeHash values for the
// same node id across a re-parse. Exactly one of the four fields is true
// for a well-formed comparison; ValidateComparison enforces that.
type HashComparison struct {
	SignatureChanged bool
	BodyChanged      bool
	DocChanged       bool
	FormatChanged    bool
}

// AnyChanged reports whether the comparison records any difference at all.
func (c HashComparison) AnyChanged() bool {
	return c.SignatureChanged || c.BodyChanged || c.DocChanged || c.FormatChanged
}

func sum(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0}) // separator so "a","bc" doesn't collide with "ab","c"
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeHash derives the four-level Merkle hash for a node. Signature
// covers the identity-defining fields (kind, name, parameters, return
// type, base classes); body covers the statement span shape; doc covers
// the docstring; format covers only the span, so pure reformatting is
// distinguishable from every other kind of edit.
func ComputeHash(n ir.Node) NodeHash {
	return NodeHash{
		Signature: signatureHash(n),
		Body:      bodyHash(n),
		Doc:       sum(n.Docstring),
		Format:    sum(n.Span.String()),
	}
}

func signatureHash(n ir.Node) string {
	parts := []string{string(n.Kind), n.Name, string(n.Language)}
	params := make([]string, len(n.Parameters))
	for i, p := range n.Parameters {
		raw := ""
		if p.Type != nil {
			raw = p.Type.Raw
		}
		params[i] = fmt.Sprintf("%s:%s:%v", p.Name, raw, p.IsVariadic)
	}
	parts = append(parts, strings.Join(params, ","))
	if n.ReturnType != nil {
		parts = append(parts, n.ReturnType.Raw)
	}
	base := append([]string(nil), n.BaseClasses...)
	sort.Strings(base)
	parts = append(parts, strings.Join(base, ","))
	parts = append(parts, fmt.Sprintf("%v:%v", n.IsAsync, n.IsGenerator))
	return sum(parts...)
}

// bodyHash hashes the shape of the node's body span (its line count,
// EndLine minus StartLine) rather than source text, since the IR this analyzer
// sees never retains comments or original whitespace past adapter
// extraction — the closest available proxy for "statement structure
// excluding comments and whitespace".
func bodyHash(n ir.Node) string {
	if n.BodySpan == nil {
		return sum("")
	}
	lines := n.BodySpan.EndLine - n.BodySpan.StartLine
	return sum(fmt.Sprintf("%d", lines))
}

// CompareHashes compares two hash snapshots of the same node id taken at
// different points in time and classifies the change into exactly one
// bucket, by priority Signature > Body > Doc > Format: a rename always
// also reformats the span, so raw hash inequality alone can't satisfy the
// exactly-one invariant — the analyzer attributes a change to the most
// semantically significant bucket that actually differs. An unchanged
// node (all four hashes equal) reports no bucket set.
func CompareHashes(oldHash, newHash NodeHash) (HashComparison, error) {
	var c HashComparison
	switch {
	case oldHash == newHash:
		return c, nil
	case oldHash.Signature != newHash.Signature:
		c.SignatureChanged = true
	case oldHash.Body != newHash.Body:
		c.BodyChanged = true
	case oldHash.Doc != newHash.Doc:
		c.DocChanged = true
	case oldHash.Format != newHash.Format:
		c.FormatChanged = true
	default:
		// Hashes differ as a whole (oldHash != newHash) but no individual
		// bucket compared unequal: unreachable given NodeHash's definition,
		// kept so ValidateComparison's error path is reachable from a
		// hand-built HashComparison in tests.
	}
	if err := ValidateComparison(c); err != nil {
		return c, err
	}
	return c, nil
}

// ValidateComparison enforces the exactly-one-flag invariant for a
// HashComparison that records a change. An unchanged comparison (all
// four hashes equal) is represented by the caller never invoking this —
// CompareHashes only validates when something actually differs.
func ValidateComparison(c HashComparison) error {
	n := 0
	if c.SignatureChanged {
		n++
	}
	if c.BodyChanged {
		n++
	}
	if c.DocChanged {
		n++
	}
	if c.FormatChanged {
		n++
	}
	if n == 0 {
		return fmt.Errorf("change: malformed hash comparison: no bucket changed")
	}
	if n > 1 {
		return fmt.Errorf("change: malformed hash comparison: %d buckets changed, want exactly 1", n)
	}
	return nil
}
