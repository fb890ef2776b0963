// internal/domain/performance/entity.go
package performance

import "time"

// Performance is one agent's snapshot for one day: how many customers
// crossed the dormant/active boundary since the previous snapshot.
// Rows are created once per day per agent and never deleted.
type Performance struct {
	ID            int64     `json:"id"`
	AgentName     string    `json:"agent_name"`
	AgentCode     int       `json:"agent_code"`
	Active        int       `json:"active"`
	Dormant       int       `json:"dormant"`
	DormantActive int       `json:"dormant_active"`
	ActiveDormant int       `json:"active_dormant"`
	GainLoss      int       `json:"gain_loss"`
	Date          time.Time `json:"date"`
}

// TotalPerformance is one agent's cumulative row for one ISO week.
// Active/Dormant hold the week's opening balance; TotalActive and
// TotalDormant are recomputed from the week's transition counters:
//
//	totalActive  = active + gainLoss
//	totalDormant = dormant + activeDormant - dormantActive
type TotalPerformance struct {
	ID            int64     `json:"id"`
	AgentCode     int       `json:"agent_code"`
	AgentName     string    `json:"agent_name"`
	Active        int       `json:"active"`
	Dormant       int       `json:"dormant"`
	DormantActive int       `json:"dormant_active"`
	ActiveDormant int       `json:"active_dormant"`
	TotalActive   int       `json:"total_active"`
	TotalDormant  int       `json:"total_dormant"`
	GainLoss      int       `json:"gain_loss"`
	Week          int       `json:"week"`
	Year          int       `json:"year"`
	Date          time.Time `json:"date"`
}

// Recompute refreshes the cumulative columns from the opening balance
// and the transition counters.
func (t *TotalPerformance) Recompute() {
	t.TotalActive = t.Active + t.GainLoss
	t.TotalDormant = t.Dormant + t.ActiveDormant - t.DormantActive
}
