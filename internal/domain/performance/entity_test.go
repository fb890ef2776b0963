package performance

import "testing"

func TestRecompute(t *testing.T) {
	tests := []struct {
		name             string
		row              TotalPerformance
		wantTotalActive  int
		wantTotalDormant int
	}{
		{
			"net gain",
			TotalPerformance{Active: 10, Dormant: 5, DormantActive: 3, ActiveDormant: 1, GainLoss: 2},
			12, 3,
		},
		{
			"net loss",
			TotalPerformance{Active: 8, Dormant: 2, DormantActive: 1, ActiveDormant: 4, GainLoss: -3},
			5, 5,
		},
		{
			"no movement",
			TotalPerformance{Active: 6, Dormant: 6},
			6, 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.row.Recompute()
			if tt.row.TotalActive != tt.wantTotalActive {
				t.Errorf("TotalActive = %d, want %d", tt.row.TotalActive, tt.wantTotalActive)
			}
			if tt.row.TotalDormant != tt.wantTotalDormant {
				t.Errorf("TotalDormant = %d, want %d", tt.row.TotalDormant, tt.wantTotalDormant)
			}
		})
	}
}
