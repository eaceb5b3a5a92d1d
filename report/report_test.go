package report

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	dto "github.com/prometheus/client_model/go"
)

func TestInitialStateUnavailable(t *testing.T) {
	r := NewReport()
	if r.State() != Unavailable {
		t.Errorf("expected Unavailable at construction, got %v", r.State())
	}
}

func TestSetAvailableUnavailable(t *testing.T) {
	r := NewReport()
	r.SetAvailable()
	if r.State() != Available {
		t.Errorf("expected Available, got %v", r.State())
	}
	r.SetUnavailable()
	if r.State() != Unavailable {
		t.Errorf("expected Unavailable, got %v", r.State())
	}
}

func TestIncMetricsLabelsByResponseCode(t *testing.T) {
	r := NewReport()

	r.IncMetrics(nil)
	r.IncMetrics(&jsonrpc.RPCError{Code: int64(-32005), Message: "node is behind"})
	r.IncMetrics(errors.New("boom"))

	cases := map[string]float64{"200": 1, "-32005": 1, "500": 1}
	for code, want := range cases {
		c, err := r.Metrics().GetMetricWithLabelValues(code)
		if err != nil {
			t.Fatalf("GetMetricWithLabelValues(%q): %v", code, err)
		}
		var m dto.Metric
		if err := c.Write(&m); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if got := m.GetCounter().GetValue(); got != want {
			t.Errorf("code %q: got %v, want %v", code, got, want)
		}
	}
}
