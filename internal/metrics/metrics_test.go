package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("swap", nil, 0.01)
	m.ObserveOperation("swap", errors.New("slippage"), 0.01)
	m.ObserveOperation("swap", nil, 0.02)

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("swap", ResultSuccess)); got != 2 {
		t.Fatalf("success count: %v", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("swap", ResultFailure)); got != 1 {
		t.Fatalf("failure count: %v", got)
	}
}

func TestSwapAndSupply(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AddSwap("pool", "token", 1000, 3)
	m.AddSwap("pool", "token", 500, 1)
	m.SetLPSupply("pool", 1500)

	if got := testutil.ToFloat64(m.SwapVolume.WithLabelValues("pool", "token")); got != 1500 {
		t.Fatalf("volume: %v", got)
	}
	if got := testutil.ToFloat64(m.SwapFeesCollected.WithLabelValues("pool", "token")); got != 4 {
		t.Fatalf("fees: %v", got)
	}
	if got := testutil.ToFloat64(m.LPSupply.WithLabelValues("pool")); got != 1500 {
		t.Fatalf("supply: %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("deposit", nil, 0)
	m.SetLPSupply("pool", 1)
	m.AddSwap("pool", "token", 1, 1)
}
