package scheduling

import "testing"

func TestComputeUsage(t *testing.T) {
	cases := []struct {
		name       string
		monthCount int
		freeLimit  int
		unitPrice  int64
		want       Usage
	}{
		{
			name:       "under the limit",
			monthCount: 120,
			freeLimit:  200,
			unitPrice:  30,
			want:       Usage{MonthCount: 120, ExtraCount: 0, CostCents: 0},
		},
		{
			name:       "exactly at the limit",
			monthCount: 200,
			freeLimit:  200,
			unitPrice:  30,
			want:       Usage{MonthCount: 200, ExtraCount: 0, CostCents: 0},
		},
		{
			name:       "fifty over",
			monthCount: 250,
			freeLimit:  200,
			unitPrice:  30,
			want:       Usage{MonthCount: 250, ExtraCount: 50, CostCents: 1500},
		},
		{
			name:       "zero free limit bills everything",
			monthCount: 10,
			freeLimit:  0,
			unitPrice:  30,
			want:       Usage{MonthCount: 10, ExtraCount: 10, CostCents: 300},
		},
		{
			name:       "no messages",
			monthCount: 0,
			freeLimit:  200,
			unitPrice:  30,
			want:       Usage{MonthCount: 0, ExtraCount: 0, CostCents: 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeUsage(tc.monthCount, tc.freeLimit, tc.unitPrice)
			if got != tc.want {
				t.Fatalf("ComputeUsage = %+v, want %+v", got, tc.want)
			}
		})
	}
}
