// internal/domain/performance/dto.go
package performance

// WeeklyTotalUpdate carries one agent's rolled-up counters for a week
// window, with the cumulative columns already recomputed by the
// engine. The store applies a batch of these atomically.
type WeeklyTotalUpdate struct {
	AgentCode     int `json:"agent_code"`
	DormantActive int `json:"dormant_active"`
	ActiveDormant int `json:"active_dormant"`
	GainLoss      int `json:"gain_loss"`
	TotalActive   int `json:"total_active"`
	TotalDormant  int `json:"total_dormant"`
}
