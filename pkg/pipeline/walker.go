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
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize is the default per-file size ceiling the streaming
// walker enforces (spec §6).
const DefaultMaxFileSize int64 = 1 << 20

// defaultSkipDirs are directory names the walker never descends into,
// matching spec §6's default exclusion set.
var defaultSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "__pycache__": true, "venv": true, ".venv": true,
}

// languageByExt maps a file extension to the C2 language id it's routed to.
// Only extensions with a registered adapter are recognized; everything else
// is silently excluded from the walk (spec §6's "language filter set").
var languageByExt = map[string]string{
	".go":  "go",
	".py":  "python",
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "typescript",
	".jsx": "typescript",
}

// RepoFile is one file the walker selected for analysis.
type RepoFile struct {
	Path       string // relative to repo root, forward-slash separated
	AbsPath    string
	Size       int64
	LanguageID string
}

// WalkRepo lists the files under root that pass the default language and
// size filters, sorted by relative path for deterministic downstream
// processing (spec §4.4's ordering guarantee). Adapted from the teacher's
// RepoLoader.walkRepository, simplified to a local-path-only walk (no git
// clone) since the pipeline's input contract is a repo root already on
// disk (spec §6).
func WalkRepo(root string, maxFileSize int64) ([]RepoFile, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	var files []RepoFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() != "." && defaultSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxFileSize {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, RepoFile{
			Path:       filepath.ToSlash(rel),
			AbsPath:    path,
			Size:       info.Size(),
			LanguageID: lang,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// FilterFiles restricts files to the given relative-path subset, preserving
// sorted order. A nil or empty subset means "no restriction".
func FilterFiles(files []RepoFile, subset []string) []RepoFile {
	if len(subset) == 0 {
		return files
	}
	want := make(map[string]bool, len(subset))
	for _, p := range subset {
		want[filepath.ToSlash(p)] = true
	}
	var out []RepoFile
	for _, f := range files {
		if want[f.Path] {
			out = append(out, f)
		}
	}
	return out
}
