package v1

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/filedepot/filedepot/api/v1")

type apiMetrics struct {
	uploads metric.Int64Counter
	deletes metric.Int64Counter
}

func newMetrics(e Engine) apiMetrics {
	uploads, err := meter.Int64Counter("depot_files_uploaded_total",
		metric.WithDescription("Files accepted by the upload endpoint."))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create upload counter")
	}

	deletes, err := meter.Int64Counter("depot_files_deleted_total",
		metric.WithDescription("Files removed through the delete endpoint."))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create delete counter")
	}

	// Usage and file count are observed from the engine on every scrape
	// rather than counted, so restarts and overwrites stay accurate.
	_, err = meter.Int64ObservableGauge("depot_storage_usage_bytes",
		metric.WithDescription("Bytes currently held across all stored files."),
		metric.WithUnit("By"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(e.Analytics().Usage)
			return nil
		}))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create storage usage gauge")
	}

	_, err = meter.Int64ObservableGauge("depot_files_count",
		metric.WithDescription("Number of files currently stored."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(e.Analytics().FileCount))
			return nil
		}))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create file count gauge")
	}

	return apiMetrics{
		uploads: uploads,
		deletes: deletes,
	}
}
