package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthtrack/internal/analytics"
	"wealthtrack/internal/parser"
	"wealthtrack/internal/portfolio"
	"wealthtrack/internal/provider"
	"wealthtrack/internal/utils"
)

type stubPrices struct {
	schemes   map[string]*provider.SchemeData
	benchmark provider.PriceSeries
}

func (s stubPrices) FetchSchemeNAV(code string) (*provider.SchemeData, error) {
	data, ok := s.schemes[code]
	if !ok {
		return nil, errors.New("unknown scheme code")
	}
	return data, nil
}

func (s stubPrices) FetchBenchmark() (provider.PriceSeries, error) {
	if len(s.benchmark) == 0 {
		return nil, errors.New("benchmark unavailable")
	}
	return s.benchmark, nil
}

type stubResolver struct {
	details map[string]*provider.SchemeDetails
}

func (s stubResolver) Resolve(isin string) (*provider.SchemeDetails, error) {
	return s.details[isin], nil
}

func flatSeries(start time.Time, n int, nav float64) provider.PriceSeries {
	series := make(provider.PriceSeries, n)
	for i := range series {
		series[i] = provider.PricePoint{Date: start.AddDate(0, 0, i), NAV: nav}
	}
	return series
}

func newTestServer(prices provider.PriceProvider, resolver provider.Resolver) *Server {
	logger := utils.NewAppLogger()
	config := &utils.Config{Server: utils.ServerConfig{Port: "0"}}
	statementParser := parser.NewParser(resolver, logger)
	analyzer := portfolio.NewAnalyzer(prices, resolver, analytics.NewEngine(0.06), logger)
	return NewServer(logger, config, nil, statementParser, analyzer)
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

const sampleStatement = `Folio No: 12345678 / 0
Axis Bluechip Fund - Direct Growth - ISIN: INF846K01EW2 (Demat)
15-Jan-2024  Purchase - Sys. Investment (1)  5,000.00  112.394  44.486  44.486
Closing Unit Balance: 44.486 Total Cost Value: 5,000.00 Market Value as on 30-Jun-2024: INR 5,500.00
`

func TestAnalyzeStatementEndpoint(t *testing.T) {
	start := time.Now().AddDate(0, 0, -400)
	prices := stubPrices{
		schemes: map[string]*provider.SchemeData{
			"120465": {Series: flatSeries(start, 30, 110), Category: "Equity Scheme"},
		},
		benchmark: flatSeries(start, 30, 50),
	}
	resolver := stubResolver{details: map[string]*provider.SchemeDetails{
		"INF846K01EW2": {Name: "Axis Bluechip Fund", Code: "120465"},
	}}
	server := newTestServer(prices, resolver)

	body, contentType := multipartUpload(t, "file", "statement.txt", sampleStatement)
	req := httptest.NewRequest("POST", "/api/portfolio/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result portfolio.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Analyzed (Comprehensive)", result.Status)
	require.Len(t, result.Holdings, 1)
	assert.Equal(t, "Axis Bluechip Fund", result.Holdings[0].SchemeName)
	assert.Equal(t, 5500.0, result.Holdings[0].CurrentValue)
}

func TestAnalyzeStatementMissingFile(t *testing.T) {
	server := newTestServer(stubPrices{}, stubResolver{})

	body, contentType := multipartUpload(t, "wrong_field", "statement.txt", sampleStatement)
	req := httptest.NewRequest("POST", "/api/portfolio/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeStatementEmptyDocument(t *testing.T) {
	server := newTestServer(stubPrices{}, stubResolver{})

	body, contentType := multipartUpload(t, "file", "statement.txt", "   \n  ")
	req := httptest.NewRequest("POST", "/api/portfolio/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotEndpointsWithoutStorage(t *testing.T) {
	server := newTestServer(stubPrices{}, stubResolver{})

	req := httptest.NewRequest("GET", "/api/portfolio", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest("GET", "/api/portfolio/history", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheckWithoutDatabase(t *testing.T) {
	server := newTestServer(stubPrices{}, stubResolver{})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSplitPages(t *testing.T) {
	assert.Equal(t, []string{"one", "two"}, splitPages("one\ftwo"))
	assert.Equal(t, []string{"just one page"}, splitPages("just one page"))
}
