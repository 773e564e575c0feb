// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backchain

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for backward-chaining searches.
var (
	tracer = otel.Tracer("aleutian.backchain")
	meter  = otel.Meter("aleutian.backchain")
)

// Metrics for backward-chaining searches.
var (
	searchLatency  metric.Float64Histogram
	searchTotal    metric.Int64Counter
	solutionSteps  metric.Int64Histogram
	candidateTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		searchLatency, err = meter.Float64Histogram(
			"backchain_search_duration_seconds",
			metric.WithDescription("Duration of backward-chaining searches"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchTotal, err = meter.Int64Counter(
			"backchain_search_total",
			metric.WithDescription("Total number of backward-chaining searches"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		solutionSteps, err = meter.Int64Histogram(
			"backchain_solution_steps",
			metric.WithDescription("Number of lemma applications in a found proof"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		candidateTotal, err = meter.Int64Counter(
			"backchain_candidates_tried_total",
			metric.WithDescription("Total number of candidate lemmas tried"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startOperationSpan creates a span for an engine operation.
func startOperationSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine."+operation,
		trace.WithAttributes(
			attribute.String("backchain.operation", operation),
		),
	)
}

// recordSearchMetrics records metrics for one Prove call.
func recordSearchMetrics(ctx context.Context, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
	)

	searchLatency.Record(ctx, duration.Seconds(), attrs)
	searchTotal.Add(ctx, 1, attrs)
}

// recordSolutionSteps records the size of a found proof.
func recordSolutionSteps(ctx context.Context, steps int) {
	if err := initMetrics(); err != nil {
		return
	}
	solutionSteps.Record(ctx, int64(steps))
}

// recordCandidateTried counts one candidate lemma application attempt.
func recordCandidateTried(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	candidateTotal.Add(ctx, 1)
}
