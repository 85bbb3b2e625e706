package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthtrack/internal/utils"
)

const amfiFixture = `Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date
Open Ended Schemes(Equity Scheme - Flexi Cap Fund)
122639;INF879O01027;INF879O01035;Parag Parikh Flexi Cap Fund - Direct Plan - Growth;75.1234;30-Aug-2026
120465;INF846K01EW2;-;Axis Bluechip Fund - Direct Plan - Growth;55.6700;30-Aug-2026
badrow
119551;shortisin;-;Broken Row Fund;10.0000;30-Aug-2026
`

func newTestResolver(url string) *AMFIResolver {
	return NewAMFIResolver(utils.ProviderConfig{
		AMFINavURL: url,
		Timeout:    5,
	}, utils.NewAppLogger())
}

func TestResolveFromSchemeMaster(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(amfiFixture))
	}))
	defer ts.Close()

	resolver := newTestResolver(ts.URL)

	details, err := resolver.Resolve("INF879O01027")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "122639", details.Code)
	// Plan and option suffixes are stripped.
	assert.Equal(t, "Parag Parikh Flexi Cap Fund", details.Name)

	// Both ISIN columns resolve to the same scheme.
	reinvest, err := resolver.Resolve("INF879O01035")
	require.NoError(t, err)
	require.NotNil(t, reinvest)
	assert.Equal(t, "122639", reinvest.Code)

	// The file is fetched once and cached.
	assert.Equal(t, 1, requests)
}

func TestResolveUnknownISIN(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(amfiFixture))
	}))
	defer ts.Close()

	details, err := newTestResolver(ts.URL).Resolve("INF999X99999")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestResolveEmptyISIN(t *testing.T) {
	details, err := newTestResolver("http://unused.invalid").Resolve("  ")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestResolveStaticMappingSkipsFetch(t *testing.T) {
	// The legacy mapping answers without touching the network.
	details, err := newTestResolver("http://unused.invalid").Resolve("INF740K01031")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "122639", details.Code)
}

func TestResolveRefreshRefetches(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(amfiFixture))
	}))
	defer ts.Close()

	resolver := newTestResolver(ts.URL)
	_, err := resolver.Resolve("INF879O01027")
	require.NoError(t, err)

	resolver.Refresh()
	_, err = resolver.Resolve("INF879O01027")
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestResolveSchemeMasterUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newTestResolver(ts.URL).Resolve("INF879O01027")
	assert.Error(t, err)
}

func TestCleanSchemeName(t *testing.T) {
	cases := map[string]string{
		"Parag Parikh Flexi Cap Fund - Direct Plan - Growth":   "Parag Parikh Flexi Cap Fund",
		"Axis Bluechip Fund - Regular Plan - IDCW":             "Axis Bluechip Fund",
		"HDFC Top 100 Fund (erstwhile HDFC Top 200) - Growth":  "HDFC Top 100 Fund",
		"Quant Small Cap Fund":                                 "Quant Small Cap Fund",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanSchemeName(in))
	}
}
