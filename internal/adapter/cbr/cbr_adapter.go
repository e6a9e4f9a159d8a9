package cbr

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/sirupsen/logrus"
)

// ErrSourceUnavailable marks a transport-level failure reaching CBR,
// distinct from a day the bank simply published nothing for.
var ErrSourceUnavailable = errors.New("cbr source unavailable")

var encodingLabelRe = regexp.MustCompile(`(?i)encoding\s*=\s*["']windows-1251["']`)

type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *feedCache
	logger     *logrus.Logger
}

func NewClient(baseURL string, timeout, cacheTTL time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				ResponseHeaderTimeout: timeout,
			},
		},
		baseURL: baseURL,
		cache:   newFeedCache(cacheTTL),
		logger:  logger,
	}
}

// RatesForDate returns every rate CBR published for the given date.
// Successful results are cached, an empty day included; fetch and parse
// failures are never cached.
func (c *Client) RatesForDate(ctx context.Context, date time.Time) ([]Rate, error) {
	key := cacheKey(date)
	if rates, ok := c.cache.get(key); ok {
		return rates, nil
	}

	rates, err := c.fetchAndParse(ctx, date)
	if err != nil {
		return nil, err
	}

	c.cache.put(key, rates)
	return rates, nil
}

// RateForDateAndCode returns the feed entry matching code, or nil when the
// date has no entry for it (a non-trading day looks exactly the same).
func (c *Client) RateForDateAndCode(ctx context.Context, date time.Time, code string) (*Rate, error) {
	rates, err := c.RatesForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	for i := range rates {
		if strings.EqualFold(rates[i].CurrencyCode, code) {
			return &rates[i], nil
		}
	}
	return nil, nil
}

// AvailableCodes returns the set of currency codes published for the date.
func (c *Client) AvailableCodes(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	rates, err := c.RatesForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	codes := make(map[string]struct{}, len(rates))
	for _, r := range rates {
		codes[strings.ToUpper(r.CurrencyCode)] = struct{}{}
	}
	return codes, nil
}

func (c *Client) fetchAndParse(ctx context.Context, date time.Time) ([]Rate, error) {
	url := fmt.Sprintf("%s/XML_daily.asp?date_req=%s", c.baseURL, date.Format("02/01/2006"))

	c.logger.Debugf("Fetching rates from URL: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("Failed to fetch from CBR: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warnf("CBR returned status %d for %s, treating as no data", resp.StatusCode, url)
		return []Rate{}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Errorf("Failed to read CBR response body: %v", err)
		return nil, fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}

	doc := decodeBody(body)

	var valCurs ValCurs
	if err := xml.Unmarshal([]byte(doc), &valCurs); err != nil {
		c.logger.Warnf("Failed to parse CBR XML for %s: %v", date.Format("2006-01-02"), err)
		return []Rate{}, nil
	}

	return c.convert(valCurs, date), nil
}

// decodeBody converts the Windows-1251 body to UTF-8, drops bytes invalid
// in the source encoding, and rewrites the declared encoding label so the
// XML decoder does not re-interpret already-converted bytes.
func decodeBody(body []byte) string {
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(body)
	if err != nil {
		decoded = body
	}
	text := strings.ReplaceAll(string(decoded), string(utf8.RuneError), "")
	return encodingLabelRe.ReplaceAllString(text, `encoding="UTF-8"`)
}

// convert turns the parsed document into Rate DTOs, skipping entries
// without a code or value. The feed's own Date attribute wins over the
// requested date when present; CBR republishes non-trading days under
// the previous trading date.
func (c *Client) convert(valCurs ValCurs, requested time.Time) []Rate {
	respDate := requested
	if valCurs.Date != "" {
		if parsed, err := time.Parse("02.01.2006", valCurs.Date); err == nil {
			respDate = parsed
		} else {
			c.logger.Warnf("Unparseable Date attribute %q in CBR response, using requested date", valCurs.Date)
		}
	}

	rates := make([]Rate, 0, len(valCurs.Valutes))
	skipped := 0
	for _, v := range valCurs.Valutes {
		code := strings.TrimSpace(v.CharCode)
		if code == "" || strings.TrimSpace(v.Value) == "" {
			skipped++
			continue
		}
		value, err := v.ParseValue()
		if err != nil {
			c.logger.Debugf("Skipped %s due to value parse error: %v", code, err)
			skipped++
			continue
		}
		if value.IsZero() {
			skipped++
			continue
		}

		rates = append(rates, Rate{
			Date:             respDate,
			CurrencyCode:     strings.ToUpper(code),
			Rate:             value,
			Nominal:          v.ParseNominal(),
			BaseCurrencyCode: "RUR",
			Name:             strings.TrimSpace(v.Name),
			NumCode:          strings.TrimSpace(v.NumCode),
		})
	}

	if skipped > 0 {
		c.logger.Warnf("Skipped %d of %d feed entries for %s", skipped, len(valCurs.Valutes), requested.Format("2006-01-02"))
	}
	return rates
}
