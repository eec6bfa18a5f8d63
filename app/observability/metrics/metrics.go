package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	PlanRunsTotal        metric.Int64Counter
	PlanDurationSeconds  metric.Float64Histogram
	StageDurationSeconds metric.Float64Histogram
	StageErrorsTotal     metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("go-travel-planner")
		var err error
		m := &AppMetrics{}

		m.PlanRunsTotal, err = meter.Int64Counter(
			"plan_runs_total",
			metric.WithDescription("Total number of planning runs completed, by outcome"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_runs_total: %v", err)
		}

		m.PlanDurationSeconds, err = meter.Float64Histogram(
			"plan_duration_seconds",
			metric.WithDescription("End to end duration of planning runs in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_duration_seconds: %v", err)
		}

		m.StageDurationSeconds, err = meter.Float64Histogram(
			"stage_duration_seconds",
			metric.WithDescription("Duration of individual pipeline stages in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create stage_duration_seconds: %v", err)
		}

		m.StageErrorsTotal, err = meter.Int64Counter(
			"stage_errors_total",
			metric.WithDescription("Total number of pipeline stage failures, by stage"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create stage_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		// This indicates a programming error - InitAppMetrics must be called at startup.
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

// RecordPlanRun counts one finished planning run and its duration. Safe on a
// nil receiver so tests can run without instruments.
func (m *AppMetrics) RecordPlanRun(ctx context.Context, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.PlanRunsTotal.Add(ctx, 1, attrs)
	m.PlanDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
}

// RecordStage times one pipeline stage and counts its failures. Safe on a
// nil receiver.
func (m *AppMetrics) RecordStage(ctx context.Context, stage string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StageDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
	if err != nil {
		m.StageErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	}
}
