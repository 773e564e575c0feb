// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prover

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for the prover service.
var (
	tracer = otel.Tracer("aleutian.prover")
	meter  = otel.Meter("aleutian.prover")
)

// Metrics for service operations.
var (
	sessionsActive metric.Int64UpDownCounter
	hypothesisOps  metric.Int64Counter
	lemmaQueries   metric.Int64Counter
	queryResults   metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		sessionsActive, err = meter.Int64UpDownCounter(
			"prover_sessions_active",
			metric.WithDescription("Currently open proof sessions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		hypothesisOps, err = meter.Int64Counter(
			"prover_hypothesis_ops_total",
			metric.WithDescription("Hypothesis inserts and erases across all sessions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		lemmaQueries, err = meter.Int64Counter(
			"prover_lemma_queries_total",
			metric.WithDescription("Lemma lookups served"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryResults, err = meter.Int64Histogram(
			"prover_lemma_query_results",
			metric.WithDescription("Lemmas returned per lookup"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startRequestSpan creates a span for a service operation.
func startRequestSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Prover."+operation,
		trace.WithAttributes(
			attribute.String("prover.operation", operation),
		),
	)
}

// recordSessionChange adjusts the open-session gauge by delta.
func recordSessionChange(ctx context.Context, delta int64) {
	if err := initMetrics(); err != nil {
		return
	}
	sessionsActive.Add(ctx, delta)
}

// recordHypothesisOp counts a hypothesis insert or erase.
func recordHypothesisOp(ctx context.Context, op string) {
	if err := initMetrics(); err != nil {
		return
	}
	hypothesisOps.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// recordLemmaQuery counts a lookup and its result size.
func recordLemmaQuery(ctx context.Context, results int) {
	if err := initMetrics(); err != nil {
		return
	}
	lemmaQueries.Add(ctx, 1)
	queryResults.Record(ctx, int64(results))
}
