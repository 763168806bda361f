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

// Package main implements the codegraph CLI: a multi-language static
// analysis engine driven over the 11-tier pipeline (pkg/pipeline).
//
// Usage:
//
//	codegraph analyze <path>       Run the full pipeline over a repository
//	codegraph changed <path>       Analyze only the files a git revision range touched
//	codegraph --version            Show version and exit
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `codegraph - multi-language static analysis engine

Usage:
  codegraph <command> [options]

Commands:
  analyze   Run the pipeline over a repository
  changed   Analyze the impact of a git revision range
  version   Show version and exit

Global Options:
  --version   Show version and exit

Examples:
  codegraph analyze .
  codegraph analyze --config .codegraph.yaml --preset thorough ./repo
  codegraph changed --base HEAD~1 --head HEAD .
`)
	}
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]
	switch command {
	case "analyze":
		runAnalyze(cmdArgs)
	case "changed":
		runChanged(cmdArgs)
	case "version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("codegraph version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("built: %s\n", date)
}
