package report

import (
	"context"

	"gitlab.com/yelinaung/club-ledger/internal/cache"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "gitlab.com/yelinaung/club-ledger/internal/report"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	cacheLookups  metric.Int64Counter
	fetchFailures metric.Int64Counter
)

func init() {
	var err error
	cacheLookups, err = meter.Int64Counter("report.cache.lookups",
		metric.WithDescription("Payment status cache lookups by state"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create cache lookup counter")
	}
	fetchFailures, err = meter.Int64Counter("report.fetch.failures",
		metric.WithDescription("Report widget fetch failures by kind"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create fetch failure counter")
	}
}

func recordLookup(ctx context.Context, state cache.State) {
	if cacheLookups == nil {
		return
	}
	cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state.String())))
}

func recordFailure(ctx context.Context, widget string, kind Kind) {
	if fetchFailures == nil {
		return
	}
	fetchFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("widget", widget),
		attribute.String("kind", kind.String()),
	))
}
