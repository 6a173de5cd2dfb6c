package scheduling

import (
	"errors"
	"testing"
)

func snapshots() []ServiceSnapshot {
	return []ServiceSnapshot{
		{ID: "svc-cut", DurationMin: 30, PriceCents: 5000, CommissionPercent: 10},
		{ID: "svc-color", DurationMin: 60, PriceCents: 10000, CommissionPercent: 20},
	}
}

func TestAggregateServices_Sums(t *testing.T) {
	agg, err := AggregateServices(snapshots(), AggregateOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.DurationMin != 90 {
		t.Errorf("duration = %d, want 90", agg.DurationMin)
	}
	if agg.PriceCents != 15000 {
		t.Errorf("price = %d, want 15000", agg.PriceCents)
	}
	// per-service commission: 10% of 5000 + 20% of 10000 = 500 + 2000
	if agg.CommissionBaseCents != 2500 {
		t.Errorf("commission = %d, want 2500", agg.CommissionBaseCents)
	}
}

func TestAggregateServices_PriceOverrideWins(t *testing.T) {
	override := int64(12000)
	agg, err := AggregateServices(snapshots(), AggregateOptions{PriceOverrideCents: &override})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.PriceCents != 12000 {
		t.Errorf("price = %d, want override 12000", agg.PriceCents)
	}
	// duration is never overridden
	if agg.DurationMin != 90 {
		t.Errorf("duration = %d, want 90", agg.DurationMin)
	}
}

func TestAggregateServices_CommissionOverrideAppliesToAggregatedPrice(t *testing.T) {
	pct := 15.0
	agg, err := AggregateServices(snapshots(), AggregateOptions{CommissionOverridePercent: &pct})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 15% of 15000
	if agg.CommissionBaseCents != 2250 {
		t.Errorf("commission = %d, want 2250", agg.CommissionBaseCents)
	}
}

func TestAggregateServices_BothOverrides(t *testing.T) {
	price := int64(20000)
	pct := 10.0
	agg, err := AggregateServices(snapshots(), AggregateOptions{
		PriceOverrideCents:        &price,
		CommissionOverridePercent: &pct,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// commission override applies to the overridden price
	if agg.CommissionBaseCents != 2000 {
		t.Errorf("commission = %d, want 2000", agg.CommissionBaseCents)
	}
}

func TestAggregateServices_EmptyList(t *testing.T) {
	if _, err := AggregateServices(nil, AggregateOptions{}); !errors.Is(err, ErrEmptyServiceList) {
		t.Fatalf("expected ErrEmptyServiceList, got %v", err)
	}
}

func TestAggregateServices_InvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		svcs []ServiceSnapshot
		opts AggregateOptions
	}{
		{
			name: "negative duration",
			svcs: []ServiceSnapshot{{ID: "x", DurationMin: -1, PriceCents: 100}},
		},
		{
			name: "negative price",
			svcs: []ServiceSnapshot{{ID: "x", DurationMin: 30, PriceCents: -100}},
		},
		{
			name: "commission over 100",
			svcs: []ServiceSnapshot{{ID: "x", DurationMin: 30, PriceCents: 100, CommissionPercent: 101}},
		},
		{
			name: "negative price override",
			svcs: snapshots(),
			opts: AggregateOptions{PriceOverrideCents: ptrInt64(-1)},
		},
		{
			name: "negative commission override",
			svcs: snapshots(),
			opts: AggregateOptions{CommissionOverridePercent: ptrFloat(-5)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := AggregateServices(tc.svcs, tc.opts); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAggregateServices_ZeroDurationService(t *testing.T) {
	// consultations priced without time are allowed
	svcs := []ServiceSnapshot{{ID: "svc-fee", DurationMin: 0, PriceCents: 1500, CommissionPercent: 50}}
	agg, err := AggregateServices(svcs, AggregateOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.DurationMin != 0 || agg.PriceCents != 1500 || agg.CommissionBaseCents != 750 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
}

func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }
