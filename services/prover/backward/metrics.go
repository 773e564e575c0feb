// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backward

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for index operations.
var (
	tracer = otel.Tracer("aleutian.backward")
	meter  = otel.Meter("aleutian.backward")
)

// Metrics for index operations.
var (
	operationLatency metric.Float64Histogram
	operationTotal   metric.Int64Counter
	discardTotal     metric.Int64Counter
	indexSize        metric.Int64Gauge
	findResults      metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		operationLatency, err = meter.Float64Histogram(
			"backward_index_operation_duration_seconds",
			metric.WithDescription("Duration of lemma index operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		operationTotal, err = meter.Int64Counter(
			"backward_index_operation_total",
			metric.WithDescription("Total number of lemma index operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		discardTotal, err = meter.Int64Counter(
			"backward_index_discard_total",
			metric.WithDescription("Lemmas discarded because their conclusion head is not indexable"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexSize, err = meter.Int64Gauge(
			"backward_index_size",
			metric.WithDescription("Current number of lemmas in the index"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		findResults, err = meter.Int64Histogram(
			"backward_index_find_results",
			metric.WithDescription("Number of lemmas returned per find"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startOperationSpan creates a span for an index operation.
func startOperationSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "BackwardIndex."+operation,
		trace.WithAttributes(
			attribute.String("backward.operation", operation),
		),
	)
}

// recordOperationMetrics records metrics for an index operation.
func recordOperationMetrics(ctx context.Context, operation string, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	)

	operationLatency.Record(ctx, duration.Seconds(), attrs)
	operationTotal.Add(ctx, 1, attrs)
}

// recordDiscard counts a lemma skipped for an unindexable head.
func recordDiscard(ctx context.Context, phase string) {
	if err := initMetrics(); err != nil {
		return
	}
	discardTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
}

// recordIndexSize records the current lemma count.
func recordIndexSize(ctx context.Context, size int) {
	if err := initMetrics(); err != nil {
		return
	}
	indexSize.Record(ctx, int64(size))
}

// recordFindResults records the number of lemmas returned by a find.
func recordFindResults(ctx context.Context, count int) {
	if err := initMetrics(); err != nil {
		return
	}
	findResults.Record(ctx, int64(count))
}
