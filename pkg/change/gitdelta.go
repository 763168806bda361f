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

package change

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// FileChangeType classifies one path's status between two git revisions.
type FileChangeType string

const (
	FileAdded    FileChangeType = "Added"
	FileModified FileChangeType = "Modified"
	FileDeleted  FileChangeType = "Deleted"
	FileRenamed  FileChangeType = "Renamed"
)

// FileDelta is the set of file-level changes between two git revisions,
// the unit the pipeline re-parses to produce a TransactionDelta of
// modified node ids. Adapted from the teacher's GitDelta (pkg/ingestion/
// delta.go), trimmed to what the change analyzer actually consumes: the
// embedding-batch/manifest bookkeeping fields that file carried have no
// equivalent here, since this engine has no batched-write backend.
type FileDelta struct {
	BaseRev string
	HeadRev string

	Added    []string
	Modified []string
	Deleted  []string
	Renamed  map[string]string // old path -> new path
}

// Touched returns every path this delta mentions (added, modified, and
// both sides of a rename), sorted and deduplicated, since a rename's old
// path must still be treated as removed from any index keyed by path.
func (d FileDelta) Touched() []string {
	set := map[string]bool{}
	for _, p := range d.Added {
		set[p] = true
	}
	for _, p := range d.Modified {
		set[p] = true
	}
	for old, new := range d.Renamed {
		set[old] = true
		set[new] = true
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ChangeType reports how path changed, or "" if it isn't part of the
// delta at all.
func (d FileDelta) ChangeType(path string) FileChangeType {
	for _, p := range d.Added {
		if p == path {
			return FileAdded
		}
	}
	for _, p := range d.Modified {
		if p == path {
			return FileModified
		}
	}
	for _, p := range d.Deleted {
		if p == path {
			return FileDeleted
		}
	}
	for old, new := range d.Renamed {
		if new == path {
			return FileRenamed
		}
		if old == path {
			return FileDeleted
		}
	}
	return ""
}

// GitDeltaDetector shells out to `git diff` to find changed paths between
// two revisions. Grounded on the teacher's DeltaDetector, generalized to
// return the package's own FileDelta type instead of an ingestion-specific
// one.
type GitDeltaDetector struct {
	repoRoot string
}

// NewGitDeltaDetector returns a detector rooted at repoRoot.
func NewGitDeltaDetector(repoRoot string) *GitDeltaDetector {
	return &GitDeltaDetector{repoRoot: repoRoot}
}

// emptyTreeSHA is git's well-known hash of the empty tree, used as the
// base revision when there is no prior commit to diff against.
const emptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Detect returns the FileDelta between baseRev and headRev. An empty
// baseRev diffs against the empty tree, so every tracked file reports as
// added (the initial-ingestion case).
func (d *GitDeltaDetector) Detect(baseRev, headRev string) (FileDelta, error) {
	if headRev == "" {
		headRev = "HEAD"
	}
	if baseRev == "" {
		baseRev = emptyTreeSHA
	}

	out, err := d.run("diff", "--name-status", "-M", baseRev, headRev)
	if err != nil {
		return FileDelta{}, err
	}

	delta := FileDelta{BaseRev: baseRev, HeadRev: headRev, Renamed: map[string]string{}}
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		status, paths, ok := splitDiffLine(line)
		if !ok {
			continue
		}
		switch status[0] {
		case 'A':
			delta.Added = append(delta.Added, paths[0])
		case 'M':
			delta.Modified = append(delta.Modified, paths[0])
		case 'D':
			delta.Deleted = append(delta.Deleted, paths[0])
		case 'R':
			if len(paths) >= 2 {
				delta.Renamed[paths[0]] = paths[1]
			}
		case 'C':
			if len(paths) >= 2 {
				delta.Added = append(delta.Added, paths[1])
			}
		}
	}
	sort.Strings(delta.Added)
	sort.Strings(delta.Modified)
	sort.Strings(delta.Deleted)
	return delta, nil
}

func splitDiffLine(line string) (status string, paths []string, ok bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

func (d *GitDeltaDetector) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = d.repoRoot
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("change: git %s: %s", strings.Join(args, " "), strings.Trim(string(exitErr.Stderr), "\n"))
		}
		return "", fmt.Errorf("change: git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}
