package provider

import (
	"bufio"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"wealthtrack/internal/utils"
)

// staticMapping covers legacy ISINs that have dropped out of the
// current AMFI scheme master.
var staticMapping = map[string]SchemeDetails{
	"INF740K01031": {Name: "Parag Parikh Flexi Cap (Direct)", Code: "122639"},
}

var (
	planSuffixRe   = regexp.MustCompile(`(?i)\s*-\s*(Direct|Regular)\s*(Plan)?.*$`)
	erstwhileRe    = regexp.MustCompile(`(?i)\s*\([^)]*erstwhile[^)]*\)`)
	optionSuffixRe = regexp.MustCompile(`(?i)\s*-\s*(Growth|IDCW|Dividend|Bonus).*$`)
)

// CleanSchemeName strips plan and payout-option suffixes from a scheme
// name so the same scheme reads identically across statements.
func CleanSchemeName(name string) string {
	name = planSuffixRe.ReplaceAllString(name, "")
	name = erstwhileRe.ReplaceAllString(name, "")
	name = optionSuffixRe.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// AMFIResolver resolves ISINs against the AMFI NAVAll scheme master.
// The file is semicolon-separated: SchemeCode;ISIN1;ISIN2;SchemeName;NAV;Date.
// The mapping is fetched once and cached until Refresh is called.
type AMFIResolver struct {
	url        string
	httpClient *http.Client
	logger     utils.Logger

	mu     sync.RWMutex
	loaded bool
	byISIN map[string]SchemeDetails
}

func NewAMFIResolver(cfg utils.ProviderConfig, logger utils.Logger) *AMFIResolver {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AMFIResolver{
		url:        cfg.AMFINavURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		byISIN:     make(map[string]SchemeDetails),
	}
}

// Resolve maps an ISIN to scheme details. Returns nil (no error) when
// the ISIN is not in the scheme master.
func (r *AMFIResolver) Resolve(isin string) (*SchemeDetails, error) {
	isin = strings.ToUpper(strings.TrimSpace(isin))
	if isin == "" {
		return nil, nil
	}

	if details, ok := staticMapping[isin]; ok {
		return &details, nil
	}

	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	details, ok := r.byISIN[isin]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	details.Name = CleanSchemeName(details.Name)
	return &details, nil
}

// Refresh discards the cached mapping so the next lookup re-fetches it.
func (r *AMFIResolver) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.byISIN = make(map[string]SchemeDetails)
}

func (r *AMFIResolver) ensureLoaded() error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	resp, err := r.httpClient.Get(r.url)
	if err != nil {
		return fmt.Errorf("failed to fetch AMFI scheme master: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AMFI scheme master returned status %d", resp.StatusCode)
	}

	mapping := make(map[string]SchemeDetails)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ";")
		if len(parts) < 4 {
			continue
		}
		code := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[3])
		// ISINs appear in columns 1 and 2 (growth vs payout option).
		for _, col := range []int{1, 2} {
			isin := strings.TrimSpace(parts[col])
			if len(isin) == 12 && strings.HasPrefix(isin, "INF") {
				mapping[isin] = SchemeDetails{Name: name, Code: code}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read AMFI scheme master: %w", err)
	}

	r.mu.Lock()
	r.byISIN = mapping
	r.loaded = true
	r.mu.Unlock()

	r.logger.Info("Loaded AMFI scheme master (%d ISINs)", len(mapping))
	return nil
}
