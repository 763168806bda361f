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
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines if and how progress should be displayed.
// Adapted from the teacher's cmd/cie ProgressConfig: disabled on --json/
// --quiet or when stderr isn't a TTY, since a spinner writing control
// codes into a pipe or log file is just noise.
type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
	NoColor bool
}

// NewProgressConfig builds a ProgressConfig from the analyze command's
// suppress flag (true when --json or --quiet was passed) and TTY detection.
func NewProgressConfig(suppress, noColor bool) ProgressConfig {
	return ProgressConfig{
		Enabled: !suppress && isatty.IsTerminal(os.Stderr.Fd()),
		Writer:  os.Stderr,
		NoColor: noColor,
	}
}

// NewSpinner creates an indeterminate progress spinner for the single
// long-running orchestrator call. Returns nil if progress is disabled.
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}

// spinTicker advances an indeterminate spinner until done is closed. The
// orchestrator run doesn't report incremental progress, so this is the
// only way to show the spinner animating rather than sitting frozen.
func spinTicker(bar *progressbar.ProgressBar, done <-chan struct{}) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			_ = bar.Add(1)
		}
	}
}
