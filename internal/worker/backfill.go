package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"rates-service/internal/adapter/cbr"
	"rates-service/internal/entity"
	"rates-service/internal/service"

	"github.com/sirupsen/logrus"
)

// ErrQueueFull means the backfill queue cannot accept more jobs right now.
var ErrQueueFull = errors.New("backfill queue full")

// DefaultBackoff is the retry schedule for transient source failures.
var DefaultBackoff = []time.Duration{time.Minute, 5 * time.Minute}

// Job ingests the CBR rate for one currency on one date. Re-dispatching
// the same job is a no-op on the data: the pipeline upserts.
type Job struct {
	Date         time.Time
	CurrencyCode string
}

type Ingester interface {
	SaveOrUpdate(ctx context.Context, fetched cbr.Rate) error
}

// Backfill runs ingestion jobs from an in-process queue, one at a time.
// Transient source failures are retried per the backoff schedule;
// rejected currency codes are not.
type Backfill struct {
	jobs    chan Job
	source  cbr.SourceClient
	ingest  Ingester
	backoff []time.Duration
	logger  *logrus.Logger
	wg      sync.WaitGroup
}

func NewBackfill(source cbr.SourceClient, ingest Ingester, queueSize int, backoff []time.Duration, logger *logrus.Logger) *Backfill {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}
	return &Backfill{
		jobs:    make(chan Job, queueSize),
		source:  source,
		ingest:  ingest,
		backoff: backoff,
		logger:  logger,
	}
}

// Start launches the worker goroutine. It drains until ctx is cancelled.
func (b *Backfill) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-b.jobs:
				b.process(ctx, job)
			}
		}
	}()
}

// Wait blocks until the worker goroutine has exited.
func (b *Backfill) Wait() {
	b.wg.Wait()
}

func (b *Backfill) Enqueue(job Job) error {
	select {
	case b.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueHistory schedules one job per trailing calendar day, today
// inclusive, walking backward. Returns the number of jobs enqueued.
func (b *Backfill) EnqueueHistory(currencyCode string, days int) (int, error) {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if code == "" {
		return 0, errors.New("currency code cannot be empty")
	}
	if days < 1 {
		return 0, errors.New("days must be at least 1")
	}

	today := entity.Day(time.Now())
	enqueued := 0
	for i := 0; i < days; i++ {
		job := Job{Date: today.AddDate(0, 0, -i), CurrencyCode: code}
		if err := b.Enqueue(job); err != nil {
			return enqueued, fmt.Errorf("enqueue %s for %s: %w", code, job.Date.Format("2006-01-02"), err)
		}
		enqueued++
	}

	b.logger.Infof("Enqueued %d backfill job(s) for %s", enqueued, code)
	return enqueued, nil
}

func (b *Backfill) process(ctx context.Context, job Job) {
	fields := logrus.Fields{
		"currency_code": job.CurrencyCode,
		"date":          job.Date.Format("2006-01-02"),
	}

	for attempt := 0; ; attempt++ {
		err := b.runOnce(ctx, job)
		if err == nil {
			return
		}
		if errors.Is(err, service.ErrCodeNotAllowed) {
			b.logger.WithFields(fields).WithError(err).Error("Backfill job rejected, not retrying")
			return
		}
		if !errors.Is(err, cbr.ErrSourceUnavailable) {
			b.logger.WithFields(fields).WithError(err).Error("Backfill job failed")
			return
		}
		if attempt >= len(b.backoff) {
			b.logger.WithFields(fields).WithError(err).Errorf("Backfill job failed after %d attempts", attempt+1)
			return
		}

		delay := b.backoff[attempt]
		b.logger.WithFields(fields).Warnf("Source unavailable, retrying in %s", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

// runOnce does one attempt: a missing feed entry is a successful no-op,
// since most non-trading days legitimately have none.
func (b *Backfill) runOnce(ctx context.Context, job Job) error {
	fetched, err := b.source.RateForDateAndCode(ctx, job.Date, job.CurrencyCode)
	if err != nil {
		return err
	}
	if fetched == nil {
		b.logger.Debugf("No %s rate published for %s, skipping", job.CurrencyCode, job.Date.Format("2006-01-02"))
		return nil
	}
	return b.ingest.SaveOrUpdate(ctx, *fetched)
}
