// internal/domain/subscriber/entity.go
package subscriber

import "time"

// Status of a prepaid card subscription.
type Status string

const (
	StatusValid      Status = "VALID"
	StatusPunishStop Status = "PUNISHSTOP"
)

// StatusFor derives the subscription status from a days-remaining
// countdown: valid iff there is at least one whole day left.
func StatusFor(daysRemain int) Status {
	if daysRemain > 0 {
		return StatusValid
	}
	return StatusPunishStop
}

// Subscriber is one prepaid card sold by an agent. Card is the natural
// key; ID is a surrogate owned by the store.
type Subscriber struct {
	ID           int64     `json:"id"`
	CustomerName string    `json:"customer_name"`
	AgentName    string    `json:"agent_name"`
	AgentCode    int       `json:"agent_code"`
	Phone        int64     `json:"phone"`
	Card         int64     `json:"card"`
	OpenDate     time.Time `json:"open_date"`
	Status       Status    `json:"status"`
	DaysRemain   int       `json:"days_remain"`
	Duration     int       `json:"duration"`
	ExpireDate   time.Time `json:"expire_date"`
	DateJoined   time.Time `json:"date_joined"`
}
