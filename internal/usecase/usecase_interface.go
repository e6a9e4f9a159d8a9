package usecase

import (
	"context"
	"time"
)

type RatesProvider interface {
	GetRates(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*RatesResponse, error)
}

type BackfillScheduler interface {
	ScheduleHistory(currencyCode string, days int) (int, error)
}
