package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/username/hotel-booking-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultCacheTTL    = 5 * time.Minute
)

// HTTPSource implements Source by fetching a JSON array of records from a
// property-management endpoint. The URL template may contain {from} and {to}
// placeholders which are replaced with YYYY-MM-DD dates.
type HTTPSource struct {
	httpClient  *http.Client
	logger      *zap.Logger
	urlTemplate string
	cache       map[string]*cachedTable
	cacheMu     sync.RWMutex
	cacheTTL    time.Duration
}

type cachedTable struct {
	data      *Table
	fetchedAt time.Time
}

// NewHTTPSource creates a new HTTPSource instance
func NewHTTPSource(urlTemplate string, cacheTTL time.Duration, logger *zap.Logger) *HTTPSource {
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &HTTPSource{
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:      logger,
		urlTemplate: urlTemplate,
		cache:       make(map[string]*cachedTable),
		cacheTTL:    cacheTTL,
	}
}

// Availability returns records between from and to, served from cache while fresh
func (s *HTTPSource) Availability(ctx context.Context, from, to time.Time) (*Table, error) {
	cacheKey := dateutil.FormatISODate(from) + ".." + dateutil.FormatISODate(to)

	s.cacheMu.RLock()
	if cached, ok := s.cache[cacheKey]; ok {
		if time.Since(cached.fetchedAt) < s.cacheTTL {
			s.cacheMu.RUnlock()
			s.logger.Debug("Using cached availability",
				zap.String("window", cacheKey))
			return cached.data, nil
		}
	}
	s.cacheMu.RUnlock()

	table, err := s.fetch(ctx, from, to)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[cacheKey] = &cachedTable{
		data:      table,
		fetchedAt: time.Now(),
	}
	s.cacheMu.Unlock()

	return table, nil
}

func (s *HTTPSource) buildURL(from, to time.Time) string {
	url := strings.ReplaceAll(s.urlTemplate, "{from}", dateutil.FormatISODate(from))
	return strings.ReplaceAll(url, "{to}", dateutil.FormatISODate(to))
}

// fetch downloads and parses one availability window
func (s *HTTPSource) fetch(ctx context.Context, from, to time.Time) (*Table, error) {
	url := s.buildURL(from, to)

	s.logger.Debug("Fetching availability",
		zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability API returned status %d", resp.StatusCode)
	}

	var records []DateAvailability
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse availability JSON: %w", err)
	}

	table, err := NewTable(records)
	if err != nil {
		return nil, fmt.Errorf("failed to build availability table: %w", err)
	}

	s.logger.Info("Availability fetched",
		zap.String("from", dateutil.FormatISODate(from)),
		zap.String("to", dateutil.FormatISODate(to)),
		zap.Int("records", table.Len()))

	// Upstream may send more than asked for.
	return table.Window(from, to), nil
}

// ClearCache clears the cache
func (s *HTTPSource) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache = make(map[string]*cachedTable)
	s.logger.Info("Availability cache cleared")
}
