package cbr

import (
	"context"
	"time"
)

type SourceClient interface {
	RatesForDate(ctx context.Context, date time.Time) ([]Rate, error)
	RateForDateAndCode(ctx context.Context, date time.Time, code string) (*Rate, error)
	AvailableCodes(ctx context.Context, date time.Time) (map[string]struct{}, error)
}
