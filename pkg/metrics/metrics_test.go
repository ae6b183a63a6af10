package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RequestStarted("users")
	if got := testutil.ToFloat64(c.requestsInFlight.WithLabelValues("users")); got != 1 {
		t.Fatalf("expected 1 in flight, got %v", got)
	}

	c.RequestFinished("users", "GET", 200, 20*time.Millisecond)
	if got := testutil.ToFloat64(c.requestsInFlight.WithLabelValues("users")); got != 0 {
		t.Fatalf("expected 0 in flight, got %v", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("users", "GET", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}

	c.Failure("users", "NetworkError")
	c.Failure("users", "NetworkError")
	if got := testutil.ToFloat64(c.failuresTotal.WithLabelValues("users", "NetworkError")); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}

	c.SetRegistered(3)
	if got := testutil.ToFloat64(c.registeredTotal); got != 3 {
		t.Fatalf("expected 3 registered, got %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RequestStarted("x")
	c.RequestFinished("x", "GET", 0, time.Second)
	c.Failure("x", "ParseError")
	c.SetRegistered(1)
}
