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

// Package metrics registers the Prometheus collectors the pipeline
// orchestrator and change analyzer report against, exposed over the
// standard /metrics endpoint by whatever binary enables it.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// pipeline holds the registered collectors. Adapted from the teacher's
// metricsIngestion singleton (pkg/ingestion/metrics.go): a sync.Once
// guards registration so multiple Orchestrator instances in one process
// don't double-register the same collector name with Prometheus.
type pipeline struct {
	once sync.Once

	stageDuration  *prometheus.HistogramVec
	stageProduced  *prometheus.CounterVec
	stageErrors    *prometheus.CounterVec
	runsTotal      prometheus.Counter
	runsCancelled  prometheus.Counter
	nodesExtracted prometheus.Counter

	changeTxnsTotal    prometheus.Counter
	changeImpactSize   prometheus.Histogram
	changeStrategyHits *prometheus.CounterVec
}

var m pipeline

func (p *pipeline) init() {
	p.once.Do(func() {
		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

		p.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codegraph_pipeline_stage_seconds",
			Help:    "Duration of one pipeline stage execution",
			Buckets: buckets,
		}, []string{"stage"})
		p.stageProduced = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codegraph_pipeline_stage_produced_total",
			Help: "Items produced by a pipeline stage",
		}, []string{"stage"})
		p.stageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codegraph_pipeline_stage_errors_total",
			Help: "Errors recorded by a pipeline stage",
		}, []string{"stage"})
		p.runsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_pipeline_runs_total",
			Help: "Completed orchestrator runs",
		})
		p.runsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_pipeline_runs_cancelled_total",
			Help: "Orchestrator runs that returned partial results due to cancellation",
		})
		p.nodesExtracted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_pipeline_nodes_extracted_total",
			Help: "IR nodes extracted across all runs",
		})

		p.changeTxnsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_change_transactions_total",
			Help: "Transactions appended to the change-analyzer WAL",
		})
		p.changeImpactSize = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codegraph_change_impact_nodes",
			Help:    "Size of the bounded impact set per analyzed transaction",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		})
		p.changeStrategyHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codegraph_change_index_strategy_total",
			Help: "Update strategy chosen per registered index",
		}, []string{"index", "strategy"})

		prometheus.MustRegister(
			p.stageDuration, p.stageProduced, p.stageErrors,
			p.runsTotal, p.runsCancelled, p.nodesExtracted,
			p.changeTxnsTotal, p.changeImpactSize, p.changeStrategyHits,
		)
	})
}

// ObserveStage records one StageMetrics-shaped measurement. Callers pass
// primitives rather than the pipeline package's StageMetrics type so this
// package has no import-cycle dependency on pkg/pipeline.
func ObserveStage(stage string, seconds float64, produced int, errCount int) {
	m.init()
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
	m.stageProduced.WithLabelValues(stage).Add(float64(produced))
	if errCount > 0 {
		m.stageErrors.WithLabelValues(stage).Add(float64(errCount))
	}
}

// RunCompleted records one finished orchestrator run.
func RunCompleted(cancelled bool, nodesExtracted int) {
	m.init()
	m.runsTotal.Inc()
	if cancelled {
		m.runsCancelled.Inc()
	}
	m.nodesExtracted.Add(float64(nodesExtracted))
}

// ChangeTransaction records one change-analyzer WAL append and the size
// of the impact set it computed.
func ChangeTransaction(impactSize int) {
	m.init()
	m.changeTxnsTotal.Inc()
	m.changeImpactSize.Observe(float64(impactSize))
}

// ChangeStrategy records the update strategy chosen for one index.
func ChangeStrategy(index, strategy string) {
	m.init()
	m.changeStrategyHits.WithLabelValues(index, strategy).Inc()
}

// Registerer exposes the underlying prometheus.DefaultRegisterer so a
// binary can additionally register its own collectors (e.g. Go runtime
// stats) under the same /metrics endpoint.
func Registerer() prometheus.Registerer {
	m.init()
	return prometheus.DefaultRegisterer
}
