package contracts

import (
	"math"
	"testing"
	"time"
)

func TestNewSecurityRecord_AllSlotsPresent(t *testing.T) {
	r := NewSecurityRecord("AAPL", 190.5)

	if len(r.Metrics) != 5 {
		t.Fatalf("Metrics has %d keys, want 5", len(r.Metrics))
	}
	for _, m := range AllMetrics() {
		v, ok := r.Metrics[m]
		if !ok {
			t.Errorf("metric %s key missing", m)
		}
		if v != nil {
			t.Errorf("metric %s = %v, want nil", m, *v)
		}
	}

	if len(r.PriceReturns) != 4 {
		t.Fatalf("PriceReturns has %d keys, want 4", len(r.PriceReturns))
	}
	for _, h := range AllHorizons() {
		if _, ok := r.PriceReturns[h]; !ok {
			t.Errorf("horizon %s key missing", h)
		}
	}
}

func TestSecurityRecord_SetMetric(t *testing.T) {
	r := NewSecurityRecord("MSFT", 400)

	r.SetMetric(MetricPE, Float(32.1))
	if v, ok := r.MetricValue(MetricPE); !ok || v != 32.1 {
		t.Errorf("MetricValue(PE) = %v, %v; want 32.1, true", v, ok)
	}

	// non-finite values are stored as null
	r.SetMetric(MetricPB, Float(math.NaN()))
	r.SetMetric(MetricPS, Float(math.Inf(1)))
	if _, ok := r.MetricValue(MetricPB); ok {
		t.Error("NaN metric should be null")
	}
	if _, ok := r.MetricValue(MetricPS); ok {
		t.Error("Inf metric should be null")
	}
	if _, ok := r.Metrics[MetricPB]; !ok {
		t.Error("null metric must keep its key")
	}

	missing := r.MissingMetrics()
	if len(missing) != 4 {
		t.Errorf("MissingMetrics() = %v, want 4 entries", missing)
	}
}

func TestSecurityRecord_SetMetricCopiesValue(t *testing.T) {
	r := NewSecurityRecord("KO", 60)
	v := 25.0
	r.SetMetric(MetricPE, &v)
	v = 99

	if got, _ := r.MetricValue(MetricPE); got != 25.0 {
		t.Errorf("MetricValue(PE) = %v, want 25 (caller mutation leaked)", got)
	}
}

func TestSecurityRecord_HasAllPercentiles(t *testing.T) {
	r := NewSecurityRecord("T", 17)
	if r.HasAllPercentiles() {
		t.Error("fresh record should not have percentiles")
	}

	for _, m := range AllMetrics() {
		r.Percentiles[m] = 0.5
	}
	if !r.HasAllPercentiles() {
		t.Error("expected all percentiles present")
	}
}

func TestUniverse_OrderAndLookup(t *testing.T) {
	records := []*SecurityRecord{
		NewSecurityRecord("C", 1),
		NewSecurityRecord("A", 2),
		NewSecurityRecord("B", 3),
	}
	u := NewUniverse("run-1", time.Now(), records)

	// mutating the input slice must not reorder the universe
	records[0] = NewSecurityRecord("Z", 9)

	got := u.Tickers()
	want := []string{"C", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tickers() = %v, want %v", got, want)
		}
	}

	if _, ok := u.Get("A"); !ok {
		t.Error("expected to find A")
	}
	if _, ok := u.Get("Z"); ok {
		t.Error("did not expect to find Z")
	}

	var nilUniverse *Universe
	if nilUniverse.Count() != 0 || !nilUniverse.IsEmpty() {
		t.Error("nil universe should be empty")
	}
}

func TestStage_ShortName(t *testing.T) {
	for i, stage := range AllStages() {
		want := "S" + string(rune('0'+i))
		if stage.ShortName() != want {
			t.Errorf("%s.ShortName() = %s, want %s", stage, stage.ShortName(), want)
		}
		if !IsValidStage(string(stage)) {
			t.Errorf("IsValidStage(%s) = false", stage)
		}
	}
	if IsValidStage("S9_UNKNOWN") {
		t.Error("unexpected valid stage")
	}
}
