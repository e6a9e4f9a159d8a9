package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rates-service/internal/entity"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var (
	psql        = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	ErrNotFound = errors.New("not found")
)

const ratesTable = "currency_rates"

// upsertConflict makes ingestion idempotent: a second write with the same
// (date, currency_code, base_currency_code) updates instead of duplicating,
// atomically at the storage layer.
const upsertConflict = `
    ON CONFLICT (date, currency_code, base_currency_code) DO UPDATE SET
        rate = EXCLUDED.rate,
        nominal = EXCLUDED.nominal,
        updated_at = EXCLUDED.updated_at
`

type RatesRepo struct {
	pool   Pool
	logger *logrus.Logger
}

func NewRatesRepo(pool Pool, logger *logrus.Logger) *RatesRepo {
	return &RatesRepo{
		pool:   pool,
		logger: logger,
	}
}

func (r *RatesRepo) UpsertRate(ctx context.Context, rate entity.CurrencyRate) error {
	query, args, err := insertRate(rate).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert for %s: %w", rate.CurrencyCode, err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"currency_code": rate.CurrencyCode,
			"date":          rate.Date.Format("2006-01-02"),
		}).Error("Failed to upsert rate")
		return fmt.Errorf("upsert rate: %w", err)
	}
	return nil
}

func (r *RatesRepo) UpsertRates(ctx context.Context, rates []entity.CurrencyRate) error {
	if len(rates) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Failed to begin transaction")
		return fmt.Errorf("begin tx: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rate := range rates {
		query, args, err := insertRate(rate).ToSql()
		if err != nil {
			return fmt.Errorf("build upsert for %s: %w", rate.CurrencyCode, err)
		}
		batch.Queue(query, args...)
	}

	br := tx.SendBatch(ctx, batch)

	var batchErrs error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			batchErrs = multierr.Append(batchErrs, err)
			r.logger.WithError(err).Errorf("Failed batch exec for rate %d", i)
		}
	}

	if err := br.Close(); err != nil {
		batchErrs = multierr.Append(batchErrs, err)
		r.logger.WithError(err).Error("Failed to close batch results")
	}

	if batchErrs != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.WithError(rbErr).Error("Failed to rollback tx after batch errors")
		}
		return fmt.Errorf("batch exec/close errors: %w", batchErrs)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithError(err).Error("Failed to commit tx")
		return fmt.Errorf("commit tx: %w", err)
	}

	r.logger.Infof("Stored %d rates", len(rates))
	return nil
}

// GetRate returns the rate stored for the exact composite key.
func (r *RatesRepo) GetRate(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*entity.CurrencyRate, error) {
	query, args, err := psql.
		Select("date", "currency_code", "base_currency_code", "rate", "nominal").
		From(ratesTable).
		Where(sq.Eq{
			"date":               entity.Day(date),
			"currency_code":      strings.ToUpper(currencyCode),
			"base_currency_code": strings.ToUpper(baseCurrencyCode),
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	return r.scanRate(ctx, query, args)
}

// GetLatestBefore returns the newest stored rate strictly before date for
// the currency. Base currency is deliberately not filtered: the table is
// overwhelmingly single-base and the predicate would add nothing to the
// (currency_code, date) index.
func (r *RatesRepo) GetLatestBefore(ctx context.Context, currencyCode string, date time.Time) (*entity.CurrencyRate, error) {
	query, args, err := psql.
		Select("date", "currency_code", "base_currency_code", "rate", "nominal").
		From(ratesTable).
		Where(sq.Eq{"currency_code": strings.ToUpper(currencyCode)}).
		Where(sq.Lt{"date": entity.Day(date)}).
		OrderBy("date DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	return r.scanRate(ctx, query, args)
}

func (r *RatesRepo) scanRate(ctx context.Context, query string, args []any) (*entity.CurrencyRate, error) {
	var rate entity.CurrencyRate
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(
			&rate.Date,
			&rate.CurrencyCode,
			&rate.BaseCurrencyCode,
			&rate.Rate,
			&rate.Nominal,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.WithError(err).Error("Failed to query rate")
		return nil, fmt.Errorf("query rate: %w", err)
	}
	return &rate, nil
}

func insertRate(rate entity.CurrencyRate) sq.InsertBuilder {
	return psql.Insert(ratesTable).
		Columns("date", "currency_code", "base_currency_code", "rate", "nominal", "created_at", "updated_at").
		Values(
			entity.Day(rate.Date),
			strings.ToUpper(rate.CurrencyCode),
			strings.ToUpper(rate.BaseCurrencyCode),
			rate.Rate,
			rate.Nominal,
			rate.CreatedAt,
			rate.UpdatedAt,
		).
		Suffix(upsertConflict)
}
