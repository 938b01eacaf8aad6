package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestManagerRegistersCollectors verifies every collector lands in the
// given registry and counts independently of other managers.
func TestManagerRegistersCollectors(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	other := NewTestManager()

	m.CounterSessionsStarted.Inc()
	m.CounterLoadsRecorded.Add(3)
	m.CounterRequests.WithLabelValues("GET", "/api/v1/workouts", "200").Inc()
	m.HistRequestDuration.WithLabelValues("/api/v1/workouts").Observe(0.02)

	if got := testutil.ToFloat64(m.CounterLoadsRecorded); got != 3 {
		t.Errorf("loads recorded = %v, want 3", got)
	}
	if got := testutil.ToFloat64(other.CounterSessionsStarted); got != 0 {
		t.Errorf("other manager sessions = %v, want 0", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"workoutvault_test_server_requests_total",
		"workoutvault_test_server_sessions_started_total",
		"workoutvault_test_server_loads_recorded_total",
		"workoutvault_test_server_request_duration_seconds",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}
