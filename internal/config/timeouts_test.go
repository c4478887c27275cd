package config

import (
	"testing"
	"time"
)

// TestTimeoutConstants pins the documented timeout values.
func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"EventProcessing", EventProcessing, 90 * time.Second},
		{"DefaultEditWindow", DefaultEditWindow, 300 * time.Second},
		{"HTTPRead", HTTPRead, 10 * time.Second},
		{"HTTPWrite", HTTPWrite, 30 * time.Second},
		{"HTTPIdle", HTTPIdle, 120 * time.Second},
		{"ESIRequest", ESIRequest, 30 * time.Second},
		{"ESIRetryInitial", ESIRetryInitial, 500 * time.Millisecond},
		{"ESIRetryAfterMax", ESIRetryAfterMax, 10 * time.Second},
		{"SpecStaleAfter", SpecStaleAfter, 5 * time.Minute},
		{"SpecRefreshInterval", SpecRefreshInterval, 30 * time.Minute},
		{"StatusCacheTTL", StatusCacheTTL, time.Minute},
		{"DatabaseBusyTimeout", DatabaseBusyTimeout, 30 * time.Second},
		{"RateLimiterCleanup", RateLimiterCleanup, 5 * time.Minute},
		{"GracefulShutdown", GracefulShutdown, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

// TestTimeoutRelationships verifies logical relationships between timeouts
func TestTimeoutRelationships(t *testing.T) {
	if SpecRefreshTimeout >= SpecRefreshInterval {
		t.Errorf("SpecRefreshTimeout (%v) should be less than SpecRefreshInterval (%v)",
			SpecRefreshTimeout, SpecRefreshInterval)
	}
	if SpecStaleAfter >= SpecRefreshInterval {
		t.Errorf("SpecStaleAfter (%v) should be less than SpecRefreshInterval (%v)",
			SpecStaleAfter, SpecRefreshInterval)
	}
	if ESIRequest >= EventProcessing {
		t.Errorf("ESIRequest (%v) should be less than EventProcessing (%v)", ESIRequest, EventProcessing)
	}
	if ReadinessCheckTimeout >= HTTPWrite {
		t.Errorf("ReadinessCheckTimeout (%v) should be less than HTTPWrite (%v)", ReadinessCheckTimeout, HTTPWrite)
	}
}
