package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrInvalidDaysCount = errors.New("days must be at least 1")

// HistoryScheduler enqueues per-day ingestion jobs.
type HistoryScheduler interface {
	EnqueueHistory(currencyCode string, days int) (int, error)
}

type BackfillUsecase struct {
	scheduler HistoryScheduler
	codes     ReferenceChecker
	logger    *logrus.Logger
}

func NewBackfillUsecase(scheduler HistoryScheduler, codes ReferenceChecker, logger *logrus.Logger) *BackfillUsecase {
	return &BackfillUsecase{
		scheduler: scheduler,
		codes:     codes,
		logger:    logger,
	}
}

// ScheduleHistory validates the request and enqueues one ingestion job
// per trailing day. Returns the number of jobs scheduled.
func (uc *BackfillUsecase) ScheduleHistory(currencyCode string, days int) (int, error) {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if !charCodeRegexp.MatchString(code) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, currencyCode)
	}
	if !uc.codes.IsReferenceCode(code) {
		return 0, fmt.Errorf("%w: %s is not an ISO 4217 code", ErrInvalidCurrencyCode, code)
	}
	if days < 1 {
		return 0, ErrInvalidDaysCount
	}

	count, err := uc.scheduler.EnqueueHistory(code, days)
	if err != nil {
		uc.logger.WithError(err).Errorf("Failed to schedule backfill for %s", code)
		return count, err
	}

	uc.logger.Infof("Scheduled %d backfill job(s) for %s (last %d days)", count, code, days)
	return count, nil
}
