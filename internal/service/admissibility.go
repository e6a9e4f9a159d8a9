package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rates-service/internal/adapter/cbr"
	"rates-service/internal/entity"

	"github.com/sirupsen/logrus"
)

// ErrCodeNotAllowed means the currency code is in neither the ISO 4217
// reference nor the CBR list for the date. Never retried.
var ErrCodeNotAllowed = errors.New("currency code not allowed")

// CodeChecker decides whether a currency code may be persisted. A code
// passes if it is in the ISO 4217 reference OR CBR quotes it on the given
// date: a legitimate world currency may be unquoted on a given day, and
// CBR quotes symbols the reference does not carry.
type CodeChecker struct {
	isoCodes map[string]struct{}
	cbr      cbr.SourceClient
	logger   *logrus.Logger
}

func NewCodeChecker(isoCodes map[string]struct{}, cbrClient cbr.SourceClient, logger *logrus.Logger) *CodeChecker {
	return &CodeChecker{
		isoCodes: isoCodes,
		cbr:      cbrClient,
		logger:   logger,
	}
}

func (c *CodeChecker) IsAdmissible(ctx context.Context, code string, date time.Time) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, nil
	}

	if c.IsReferenceCode(code) {
		return true, nil
	}

	published, err := c.cbr.AvailableCodes(ctx, date)
	if err != nil {
		return false, fmt.Errorf("fetch published codes: %w", err)
	}

	if _, ok := published[code]; ok {
		return true, nil
	}
	// the feed quotes the legacy alias, not the modern code
	if code == entity.ModernBaseAlias {
		if _, ok := published[entity.StorageBaseCode]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *CodeChecker) AssertAdmissible(ctx context.Context, code string, date time.Time) error {
	ok, err := c.IsAdmissible(ctx, code, date)
	if err != nil {
		return err
	}
	if !ok {
		c.logger.Warnf("Currency code %s rejected for %s", code, date.Format("2006-01-02"))
		return fmt.Errorf("%w: %s", ErrCodeNotAllowed, strings.ToUpper(strings.TrimSpace(code)))
	}
	return nil
}

// IsReferenceCode checks the static ISO set; the legacy RUR alias is
// accepted alongside RUB.
func (c *CodeChecker) IsReferenceCode(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == entity.StorageBaseCode {
		return true
	}
	_, ok := c.isoCodes[code]
	return ok
}
