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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krakcode/codegraph/internal/errors"
	"github.com/krakcode/codegraph/internal/output"
	"github.com/krakcode/codegraph/internal/ui"
	"github.com/krakcode/codegraph/pkg/adapter"
	"github.com/krakcode/codegraph/pkg/pipeline"
	"github.com/krakcode/codegraph/pkg/taint"
)

// analyzeResult is the JSON envelope printed by "codegraph analyze"
// (spec §5's run summary, trimmed to what a CLI caller needs rather
// than the full in-memory IR the orchestrator returns).
type analyzeResult struct {
	RunID           string   `json:"run_id"`
	RepoID          string   `json:"repo_id"`
	NodeCount       int      `json:"node_count"`
	EdgeCount       int      `json:"edge_count"`
	FunctionCount   int      `json:"function_count"`
	OccurrenceCount int      `json:"occurrence_count"`
	CriticalFiles   []string `json:"critical_files,omitempty"`
	Cancelled       bool     `json:"cancelled"`
	StageCount      int      `json:"stage_count"`
}

// runAnalyze executes the "analyze" CLI command: it loads a pipeline
// config, walks the target repo, and drives the orchestrator end to end.
//
// Flags:
//   - --config: path to a v1 YAML pipeline config (default: preset only)
//   - --preset: fast|balanced|thorough when --config is not given
//   - --repo-id: identifier stamped onto the run (default: target path)
//   - --json: emit the result as a JSON envelope instead of colored text
//   - --quiet: suppress progress output
//   - --no-color: disable ANSI colors
//   - --debug: enable debug-level logging
//   - --metrics-addr: HTTP listen address for the Prometheus /metrics endpoint
func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a v1 pipeline config YAML file")
	preset := fs.String("preset", "balanced", "Preset when --config is not given: fast|balanced|thorough")
	repoID := fs.String("repo-id", "", "Identifier stamped onto the run (default: target path)")
	jsonOut := fs.Bool("json", false, "Emit JSON instead of colored text")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	noColor := fs.Bool("no-color", false, "Disable ANSI colors")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codegraph analyze [options] <path>\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	repoRoot := fs.Arg(0)

	ui.InitColors(*noColor || *jsonOut)

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath, *preset)
	if err != nil {
		errors.FatalError(err, *jsonOut)
	}

	if *metricsAddr != "" {
		startMetricsServer(logger, *metricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	id := *repoID
	if id == "" {
		id = repoRoot
	}

	progressCfg := NewProgressConfig(*jsonOut || *quiet, *noColor)
	spinnerDone := make(chan struct{})
	if spinner := NewSpinner(progressCfg, "analyzing"); spinner != nil {
		go spinTicker(spinner, spinnerDone)
		defer func() {
			close(spinnerDone)
			_ = spinner.Finish()
		}()
	}

	orch := pipeline.NewOrchestrator(cfg, adapter.DefaultRegistry(), taint.DefaultRegistry())
	result, err := orch.Run(ctx, id, repoRoot, nil)
	if err != nil {
		errors.FatalError(err, *jsonOut)
	}

	summary := analyzeResult{
		RunID:           result.RunID,
		RepoID:          result.RepoID,
		NodeCount:       len(result.Nodes),
		EdgeCount:       len(result.Edges),
		FunctionCount:   len(result.Functions),
		OccurrenceCount: len(result.Occurrences),
		CriticalFiles:   result.CriticalFiles,
		Cancelled:       result.Cancelled,
		StageCount:      len(result.Stages),
	}

	if *jsonOut {
		if err := output.JSON(summary); err != nil {
			errors.FatalError(errors.NewInternalError("failed to encode result", err.Error(), "", err), true)
		}
		return
	}

	printSummary(summary)
}

func printSummary(r analyzeResult) {
	if r.Cancelled {
		ui.Warning("run cancelled before completion; partial results below")
	} else {
		ui.Success("analysis complete")
	}
	ui.Header("Run " + r.RunID)
	fmt.Printf("  %s %s\n", ui.Label("repo:"), r.RepoID)
	fmt.Printf("  %s %s\n", ui.Label("nodes:"), ui.CountText(r.NodeCount))
	fmt.Printf("  %s %s\n", ui.Label("edges:"), ui.CountText(r.EdgeCount))
	fmt.Printf("  %s %s\n", ui.Label("functions:"), ui.CountText(r.FunctionCount))
	fmt.Printf("  %s %s\n", ui.Label("occurrences:"), ui.CountText(r.OccurrenceCount))
	fmt.Printf("  %s %s\n", ui.Label("stages run:"), ui.CountText(r.StageCount))
	if len(r.CriticalFiles) > 0 {
		ui.SubHeader("Most critical files (PageRank)")
		for _, f := range r.CriticalFiles {
			fmt.Printf("  - %s\n", f)
		}
	}
}

func startMetricsServer(logger *slog.Logger, addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}
