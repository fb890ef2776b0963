// internal/domain/subscriber/dto.go
package subscriber

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportRow is one row of an imported subscriber sheet.
type ImportRow struct {
	AgentName    string    `json:"agent_name"`
	CustomerName string    `json:"customer_name"`
	AgentCode    int       `json:"agent_code"`
	Phone        int64     `json:"phone"`
	Card         int64     `json:"card"`
	OpenDate     time.Time `json:"open_date"`
	Status       Status    `json:"status"`
	Duration     int       `json:"duration"`
}

// RenewalRow is one row of a renewal payments sheet. The payment
// amount decides the renewed duration.
type RenewalRow struct {
	Card     int64           `json:"card"`
	OpenDate time.Time       `json:"open_date"`
	Amount   decimal.Decimal `json:"amount"`
}

// StatusSum is the table-wide count of valid vs expired cards.
type StatusSum struct {
	Active  int `json:"active"`
	Dormant int `json:"dormant"`
}

// BatchResult reports the outcome of a best-effort batch write. One
// row's failure never aborts its siblings, so all three counters can
// be non-zero at once.
type BatchResult struct {
	BatchRef   string `json:"batch_ref"`
	Processed  int    `json:"processed"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
}
