package service

import (
	"context"
	"fmt"
	"time"

	"rates-service/internal/adapter/cbr"
	"rates-service/internal/adapter/postgres"
	"rates-service/internal/entity"

	"github.com/sirupsen/logrus"
)

// IngestService validates and persists fetched rates. Writes go through
// the storage-level upsert, so re-running any ingestion is a no-op on
// already-stored data.
type IngestService struct {
	checker *CodeChecker
	repo    postgres.RatesRepository
	cbr     cbr.SourceClient
	logger  *logrus.Logger
}

func NewIngestService(checker *CodeChecker, repo postgres.RatesRepository, cbrClient cbr.SourceClient, logger *logrus.Logger) *IngestService {
	return &IngestService{
		checker: checker,
		repo:    repo,
		cbr:     cbrClient,
		logger:  logger,
	}
}

// SaveOrUpdate persists one fetched rate after the admissibility check.
// ErrCodeNotAllowed propagates unchanged.
func (s *IngestService) SaveOrUpdate(ctx context.Context, fetched cbr.Rate) error {
	if err := s.checker.AssertAdmissible(ctx, fetched.CurrencyCode, fetched.Date); err != nil {
		return err
	}

	if err := s.repo.UpsertRate(ctx, toRecord(fetched, time.Now())); err != nil {
		return fmt.Errorf("save rate %s for %s: %w", fetched.CurrencyCode, fetched.Date.Format("2006-01-02"), err)
	}

	s.logger.WithFields(logrus.Fields{
		"currency_code": fetched.CurrencyCode,
		"date":          fetched.Date.Format("2006-01-02"),
	}).Debug("Rate saved")
	return nil
}

// IngestDate fetches the whole feed for a date and upserts every entry.
// An empty feed is a non-trading day, not an error. Admissibility is
// implied: everything here comes straight from the source's own list.
func (s *IngestService) IngestDate(ctx context.Context, date time.Time) error {
	fetched, err := s.cbr.RatesForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("fetch rates for %s: %w", date.Format("2006-01-02"), err)
	}

	if len(fetched) == 0 {
		s.logger.Warnf("No rates published for %s", date.Format("2006-01-02"))
		return nil
	}

	now := time.Now()
	records := make([]entity.CurrencyRate, 0, len(fetched))
	for _, f := range fetched {
		records = append(records, toRecord(f, now))
	}

	if err := s.repo.UpsertRates(ctx, records); err != nil {
		return fmt.Errorf("store rates for %s: %w", date.Format("2006-01-02"), err)
	}

	s.logger.Infof("Ingested %d rates for %s", len(records), date.Format("2006-01-02"))
	return nil
}

func toRecord(fetched cbr.Rate, now time.Time) entity.CurrencyRate {
	return entity.CurrencyRate{
		Date:             entity.Day(fetched.Date),
		CurrencyCode:     fetched.CurrencyCode,
		BaseCurrencyCode: fetched.BaseCurrencyCode,
		Rate:             fetched.Rate,
		Nominal:          fetched.Nominal,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
