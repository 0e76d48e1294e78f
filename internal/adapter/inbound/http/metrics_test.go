package http

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.LoginAttempts.WithLabelValues("declined").Inc()
	m.Verifications.WithLabelValues("authentic").Add(2)
	m.ActiveLoginFlows.Set(3)
	m.RateLimitKeys.Set(1)

	expected := `
# HELP pharmaledger_active_login_flows Number of clients with a live login flow
# TYPE pharmaledger_active_login_flows gauge
pharmaledger_active_login_flows 3
# HELP pharmaledger_login_attempts_total Login attempts by outcome
# TYPE pharmaledger_login_attempts_total counter
pharmaledger_login_attempts_total{outcome="declined"} 1
# HELP pharmaledger_rate_limit_keys Number of active login throttling keys
# TYPE pharmaledger_rate_limit_keys gauge
pharmaledger_rate_limit_keys 1
# HELP pharmaledger_verifications_total Batch verifications by status
# TYPE pharmaledger_verifications_total counter
pharmaledger_verifications_total{status="authentic"} 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"pharmaledger_active_login_flows",
		"pharmaledger_login_attempts_total",
		"pharmaledger_rate_limit_keys",
		"pharmaledger_verifications_total",
	)
	if err != nil {
		t.Error(err)
	}
}

func TestNewMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	NewMetrics(reg)
}
