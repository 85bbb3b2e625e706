package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestXIRRDoubling(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []CashFlow{
		{Date: start, Amount: -10000},
		{Date: start.AddDate(0, 0, 365), Amount: 20000},
	}
	assert.InDelta(t, 1.0, XIRR(flows), 0.001)
}

func TestXIRRTwelvePercent(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []CashFlow{
		{Date: start, Amount: -10000},
		{Date: start.AddDate(0, 0, 365), Amount: 11200},
	}
	assert.InDelta(t, 0.12, XIRR(flows), 0.001)
}

func TestXIRRUnsortedInput(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []CashFlow{
		{Date: start.AddDate(0, 0, 365), Amount: 11200},
		{Date: start, Amount: -10000},
	}
	assert.InDelta(t, 0.12, XIRR(flows), 0.001)
}

func TestXIRRDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, XIRR(nil))

	// All flows on the same day: no time axis, no rate.
	d := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []CashFlow{
		{Date: d, Amount: -100},
		{Date: d, Amount: 50},
	}
	assert.Equal(t, 0.0, XIRR(flows))
}
