package postgres

import (
	"context"
	"time"

	"rates-service/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type RatesRepository interface {
	UpsertRate(ctx context.Context, rate entity.CurrencyRate) error
	UpsertRates(ctx context.Context, rates []entity.CurrencyRate) error

	GetRate(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*entity.CurrencyRate, error)
	GetLatestBefore(ctx context.Context, currencyCode string, date time.Time) (*entity.CurrencyRate, error)
}

type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}
