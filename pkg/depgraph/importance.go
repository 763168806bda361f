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

package depgraph

import "sort"

// TopKCritical returns the k highest-scoring node ids, ties broken by
// ascending file path (spec §4.5). If k <= 0 or exceeds the number of
// scored nodes, all scored nodes are returned.
func TopKCritical(scores map[string]float64, k int) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if k <= 0 || k > len(ids) {
		return ids
	}
	return ids[:k]
}

// GetFileImportance returns the score for id, or (0, false) if id is not in
// the scored set (spec §4.5: unknown nodes return None, never an error).
func GetFileImportance(scores map[string]float64, id string) (float64, bool) {
	s, ok := scores[id]
	return s, ok
}
