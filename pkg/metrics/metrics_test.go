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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveStageIncrementsCounters(t *testing.T) {
	ObserveStage("parsing", 0.5, 10, 0)
	ObserveStage("parsing", 0.25, 5, 2)

	require.Equal(t, float64(15), testutil.ToFloat64(m.stageProduced.WithLabelValues("parsing")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.stageErrors.WithLabelValues("parsing")))
}

func TestRunCompletedTracksCancellation(t *testing.T) {
	before := testutil.ToFloat64(m.runsCancelled)
	RunCompleted(true, 3)
	require.Equal(t, before+1, testutil.ToFloat64(m.runsCancelled))
}

func TestChangeTransactionAndStrategyRecorded(t *testing.T) {
	ChangeTransaction(7)
	ChangeStrategy("lexical", "SyncIncremental")
	require.GreaterOrEqual(t, testutil.ToFloat64(m.changeStrategyHits.WithLabelValues("lexical", "SyncIncremental")), float64(1))
}

func TestRegistererReturnsDefault(t *testing.T) {
	require.NotNil(t, Registerer())
}
