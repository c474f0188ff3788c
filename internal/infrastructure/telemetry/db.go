package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig controls database instrumentation
type DBConfig struct {
	Tracing         bool
	LogFullSQL      bool // include bind variables in spans
	DBName          string
	SlowQueryThresh time.Duration
}

type startKey struct{}

// InstrumentGorm registers otelgorm when tracing is on, and a query duration
// histogram plus slow-query span marking on every operation
func InstrumentGorm(db *gorm.DB, cfg DBConfig, meter metric.Meter, logger *zap.Logger) error {
	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "smarterp_db_query_duration_seconds",
		Description: "Document store query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, startKey{}, time.Now())
		}
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			ctx := tx.Statement.Context
			if ctx == nil {
				return
			}
			start, ok := ctx.Value(startKey{}).(time.Time)
			if !ok {
				return
			}
			elapsed := time.Since(start)
			duration.RecordDuration(ctx, elapsed, AttrDBOperation.String(op), AttrDBTable.String(tx.Statement.Table))

			span := trace.SpanFromContext(ctx)
			if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
				RecordError(span, tx.Error)
			}
			if elapsed > cfg.SlowQueryThresh {
				span.SetAttributes(attribute.Bool("db.slow_query", true))
				logger.Warn("Slow query",
					zap.String("operation", op),
					zap.String("table", tx.Statement.Table),
					zap.Duration("elapsed", elapsed),
				)
			}
		}
	}

	cb := db.Callback()
	err = errors.Join(
		cb.Create().Before("gorm:create").Register("metrics:before_create", before),
		cb.Create().After("gorm:create").Register("metrics:after_create", after("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", before),
		cb.Query().After("gorm:query").Register("metrics:after_query", after("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", before),
		cb.Update().After("gorm:update").Register("metrics:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", before),
		cb.Row().After("gorm:row").Register("metrics:after_row", after("row")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw")),
	)
	if err != nil {
		return err
	}

	logger.Info("Database instrumentation registered",
		zap.Bool("tracing", cfg.Tracing),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}
