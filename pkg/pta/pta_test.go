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

package pta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveModeAuto(t *testing.T) {
	cfg := Config{Mode: ModeAuto, AutoThreshold: 100}
	require.Equal(t, ModeFast, ResolveMode(cfg, 10))
	require.Equal(t, ModePrecise, ResolveMode(cfg, 100))
	require.Equal(t, ModePrecise, ResolveMode(cfg, 500))
}

func TestResolveModeAutoDefaultThreshold(t *testing.T) {
	cfg := Config{Mode: ModeAuto}
	require.Equal(t, ModeFast, ResolveMode(cfg, 1))
}

func TestResolveModePassThrough(t *testing.T) {
	require.Equal(t, ModeHybrid, ResolveMode(Config{Mode: ModeHybrid}, 9999))
	require.Equal(t, ModePrecise, ResolveMode(Config{Mode: ModePrecise}, 1))
}

func TestSolveDirectAssignAliases(t *testing.T) {
	constraints := []Constraint{
		{Kind: Alloc, Target: "x", Loc: "alloc@1"},
		{Kind: Assign, Target: "y", Source: "x"},
	}
	summary, pts := Solve(constraints, ModeFast)

	require.Equal(t, 1, summary.AllocationsCount)
	require.True(t, Aliases(pts, "x", "y"))
	require.Contains(t, summary.AliasPairs, [2]string{"x", "y"})
}

func TestSolveNoSharedAllocationNotAliased(t *testing.T) {
	constraints := []Constraint{
		{Kind: Alloc, Target: "x", Loc: "alloc@1"},
		{Kind: Alloc, Target: "y", Loc: "alloc@2"},
	}
	_, pts := Solve(constraints, ModeFast)
	require.False(t, Aliases(pts, "x", "y"))
}

func TestSolveLoadStoreRoundTrip(t *testing.T) {
	// p points to cellA and y to alloc@y. The store *p = y makes cellA point
	// to alloc@y, so the load z = *p must give z alloc@y.
	constraints := []Constraint{
		{Kind: Alloc, Target: "p", Loc: "cellA"},
		{Kind: Alloc, Target: "y", Loc: "alloc@y"},
		{Kind: Store, Target: "p", Source: "y"},
		{Kind: Load, Target: "z", Source: "p"},
	}
	_, pts := Solve(constraints, ModePrecise)
	require.True(t, pts["z"]["alloc@y"], "z should load what was stored through p")
}

func TestAliasSymmetry(t *testing.T) {
	constraints := []Constraint{
		{Kind: Alloc, Target: "a", Loc: "shared"},
		{Kind: Alloc, Target: "b", Loc: "shared"},
	}
	_, pts := Solve(constraints, ModeFast)
	require.Equal(t, Aliases(pts, "a", "b"), Aliases(pts, "b", "a"))
}

func TestAliasPairsDeterministicOrder(t *testing.T) {
	constraints := []Constraint{
		{Kind: Alloc, Target: "a", Loc: "s"},
		{Kind: Alloc, Target: "b", Loc: "s"},
		{Kind: Alloc, Target: "c", Loc: "s"},
	}
	s1, _ := Solve(constraints, ModeFast)
	s2, _ := Solve(constraints, ModeFast)
	require.Equal(t, s1.AliasPairs, s2.AliasPairs)
}
