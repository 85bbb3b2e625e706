package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"wealthtrack/internal/utils"
)

// navResponse mirrors the JSON shape of the NAV history endpoint:
// {"meta": {"scheme_category": "..."}, "data": [{"date": "DD-MM-YYYY", "nav": "123.45"}, ...]}
type navResponse struct {
	Meta struct {
		SchemeCategory string `json:"scheme_category"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"`
		NAV  string `json:"nav"`
	} `json:"data"`
}

const navDateLayout = "02-01-2006"

// NAVClient fetches scheme NAV histories and the benchmark series.
// Responses are cached by scheme code for the lifetime of the cache,
// so one analysis run always sees one vintage of each series.
type NAVClient struct {
	baseURL       string
	benchmarkCode string
	httpClient    *http.Client
	logger        utils.Logger

	mu    sync.Mutex
	cache map[string]*SchemeData
}

func NewNAVClient(cfg utils.ProviderConfig, logger utils.Logger) *NAVClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NAVClient{
		baseURL:       cfg.NAVBaseURL,
		benchmarkCode: cfg.BenchmarkCode,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
		cache:         make(map[string]*SchemeData),
	}
}

// FetchSchemeNAV returns the NAV history and category for a scheme code.
func (c *NAVClient) FetchSchemeNAV(code string) (*SchemeData, error) {
	c.mu.Lock()
	if cached, ok := c.cache[code]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	url := fmt.Sprintf("%s/mf/%s", c.baseURL, code)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch NAV history for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NAV endpoint returned status %d for scheme %s", resp.StatusCode, code)
	}

	var payload navResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode NAV response for %s: %w", code, err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("no NAV data for scheme %s", code)
	}

	series := make(PriceSeries, 0, len(payload.Data))
	for _, row := range payload.Data {
		date, err := time.Parse(navDateLayout, row.Date)
		if err != nil {
			continue
		}
		nav, err := strconv.ParseFloat(row.NAV, 64)
		if err != nil || nav <= 0 {
			continue
		}
		series = append(series, PricePoint{Date: date, NAV: nav})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no parseable NAV rows for scheme %s", code)
	}

	data := &SchemeData{
		Series:   series.Normalize(),
		Category: payload.Meta.SchemeCategory,
	}

	c.mu.Lock()
	c.cache[code] = data
	c.mu.Unlock()

	c.logger.Debug("Fetched NAV history for scheme %s (%d rows)", code, len(data.Series))
	return data, nil
}

// FetchBenchmark returns the NAV series of the configured benchmark index.
func (c *NAVClient) FetchBenchmark() (PriceSeries, error) {
	data, err := c.FetchSchemeNAV(c.benchmarkCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch benchmark series: %w", err)
	}
	return data.Series, nil
}

// ClearCache drops all cached series. Called by the daily refresh job
// so long-running servers pick up newly published NAVs.
func (c *NAVClient) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*SchemeData)
}
