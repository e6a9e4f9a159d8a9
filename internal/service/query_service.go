package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rates-service/internal/adapter/cbr"
	"rates-service/internal/adapter/postgres"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DeltaScale is the rounding scale for rate deltas.
const DeltaScale = 6

// DefaultMaxDaysBack bounds the previous-trading-day walk so a currency
// CBR never quotes cannot trigger unbounded external calls.
const DefaultMaxDaysBack = 365

// RateOnDate is a resolved rate tagged with the date it belongs to. For a
// source hit that is the feed's own reported date, which may differ from
// the requested one.
type RateOnDate struct {
	Date time.Time
	Rate decimal.Decimal
}

// QueryService resolves rates by composing two read-only lookup layers:
// the store first, then the CBR feed. It never writes.
type QueryService struct {
	repo        postgres.RatesRepository
	cbr         cbr.SourceClient
	maxDaysBack int
	logger      *logrus.Logger
}

func NewQueryService(repo postgres.RatesRepository, cbrClient cbr.SourceClient, maxDaysBack int, logger *logrus.Logger) *QueryService {
	if maxDaysBack <= 0 {
		maxDaysBack = DefaultMaxDaysBack
	}
	return &QueryService{
		repo:        repo,
		cbr:         cbrClient,
		maxDaysBack: maxDaysBack,
		logger:      logger,
	}
}

// FindRate returns the rate for the date, or nil when neither the store
// nor the feed has one. A stored rate is tagged with the requested date;
// a feed rate with the feed's own date.
func (s *QueryService) FindRate(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*RateOnDate, error) {
	rec, err := s.repo.GetRate(ctx, date, currencyCode, baseCurrencyCode)
	if err == nil {
		return &RateOnDate{Date: date, Rate: rec.Rate}, nil
	}
	if !errors.Is(err, postgres.ErrNotFound) {
		return nil, fmt.Errorf("query stored rate: %w", err)
	}

	dto, err := s.cbr.RateForDateAndCode(ctx, date, currencyCode)
	if err != nil {
		return nil, fmt.Errorf("query source rate: %w", err)
	}
	if dto == nil {
		return nil, nil
	}
	return &RateOnDate{Date: dto.Date, Rate: dto.Rate}, nil
}

// FindLatestStoredBefore is the indexed tier of the previous-trading-day
// search: one query for the newest stored date before the given one.
func (s *QueryService) FindLatestStoredBefore(ctx context.Context, date time.Time, currencyCode string) (*RateOnDate, error) {
	rec, err := s.repo.GetLatestBefore(ctx, currencyCode, date)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest stored rate: %w", err)
	}
	return &RateOnDate{Date: rec.Date, Rate: rec.Rate}, nil
}

// WalkBack is the serial tier: day-by-day FindRate going backward from
// date, bounded by maxDaysBack. Each day's outcome decides whether the
// next is needed, so the loop cannot be parallelized.
func (s *QueryService) WalkBack(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*RateOnDate, error) {
	for i := 1; i <= s.maxDaysBack; i++ {
		prev := date.AddDate(0, 0, -i)
		found, err := s.FindRate(ctx, prev, currencyCode, baseCurrencyCode)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}

	s.logger.Warnf("No previous trading day for %s within %d days before %s",
		strings.ToUpper(currencyCode), s.maxDaysBack, date.Format("2006-01-02"))
	return nil, nil
}

// FindPreviousTradingDay returns the rate on the last trading day before
// date, or nil when none exists within the lookback bound.
func (s *QueryService) FindPreviousTradingDay(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*RateOnDate, error) {
	stored, err := s.FindLatestStoredBefore(ctx, date, currencyCode)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return stored, nil
	}
	return s.WalkBack(ctx, date, currencyCode, baseCurrencyCode)
}

// Delta is current − previous at fixed-point 6-decimal scale.
func Delta(current, previous decimal.Decimal) decimal.Decimal {
	return current.Sub(previous).Round(DeltaScale)
}
