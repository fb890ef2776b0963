// internal/pkg/aggregate/aggregate.go

// Package aggregate holds the pure reducers of the performance
// pipeline: deterministic, no I/O, safe to re-run on the same input.
package aggregate

import (
	"timesoffice-service/internal/domain/performance"
	"timesoffice-service/internal/domain/subscriber"
)

// Counted is one group produced by CountByKey: the first row seen for
// the key plus the group size.
type Counted[T any] struct {
	Row   T
	Count int
}

// CountByKey groups rows by key, preserving the first row seen per
// group and counting group size. Output order is first-occurrence
// order of keys, so the reduction is stable across re-runs.
func CountByKey[T any, K comparable](rows []T, key func(T) K) []Counted[T] {
	index := make(map[K]int, len(rows))
	var out []Counted[T]
	for _, r := range rows {
		k := key(r)
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, Counted[T]{Row: r, Count: 1})
	}
	return out
}

// StatusCounts partitions subscriber rows by status and sums the group
// sizes. A status with no rows yields zero, never an error.
func StatusCounts(rows []subscriber.Subscriber) subscriber.StatusSum {
	var sum subscriber.StatusSum
	for _, g := range CountByKey(rows, func(s subscriber.Subscriber) subscriber.Status { return s.Status }) {
		switch g.Row.Status {
		case subscriber.StatusValid:
			sum.Active += g.Count
		case subscriber.StatusPunishStop:
			sum.Dormant += g.Count
		}
	}
	return sum
}

// AgentStatusCount is one agent's card counts split by status.
type AgentStatusCount struct {
	AgentName string `json:"agent_name"`
	AgentCode int    `json:"agent_code"`
	Active    int    `json:"active"`
	Dormant   int    `json:"dormant"`
}

// AgentStatusCounts counts each agent's valid and expired cards.
// Agents appear in first-occurrence order; an agent with cards in only
// one status carries zero for the other.
func AgentStatusCounts(rows []subscriber.Subscriber) []AgentStatusCount {
	type key struct {
		code   int
		status subscriber.Status
	}
	groups := CountByKey(rows, func(s subscriber.Subscriber) key {
		return key{s.AgentCode, s.Status}
	})

	index := make(map[int]int, len(groups))
	var out []AgentStatusCount
	for _, g := range groups {
		i, ok := index[g.Row.AgentCode]
		if !ok {
			i = len(out)
			index[g.Row.AgentCode] = i
			out = append(out, AgentStatusCount{
				AgentName: g.Row.AgentName,
				AgentCode: g.Row.AgentCode,
			})
		}
		switch g.Row.Status {
		case subscriber.StatusValid:
			out[i].Active += g.Count
		case subscriber.StatusPunishStop:
			out[i].Dormant += g.Count
		}
	}
	return out
}

// AgentTransition is one agent's daily dormant/active traffic.
type AgentTransition struct {
	AgentName     string `json:"agent_name"`
	AgentCode     int    `json:"agent_code"`
	DormantActive int    `json:"dormant_active"`
	ActiveDormant int    `json:"active_dormant"`
	GainLoss      int    `json:"gain_loss"`
}

// MergeTransitions left-outer-merges the two per-agent groupings of a
// daily snapshot: renewed counts for customers who came back
// (dormant to active) and expired counts for customers who lapsed
// (active to dormant). Agents present on only one side carry zero for
// the other, and GainLoss is the signed difference.
func MergeTransitions(renewed, expired []Counted[subscriber.Subscriber]) []AgentTransition {
	index := make(map[int]int, len(renewed)+len(expired))
	var out []AgentTransition

	at := func(row subscriber.Subscriber) int {
		if i, ok := index[row.AgentCode]; ok {
			return i
		}
		index[row.AgentCode] = len(out)
		out = append(out, AgentTransition{
			AgentName: row.AgentName,
			AgentCode: row.AgentCode,
		})
		return len(out) - 1
	}

	for _, g := range renewed {
		out[at(g.Row)].DormantActive = g.Count
	}
	for _, g := range expired {
		out[at(g.Row)].ActiveDormant = g.Count
	}
	for i := range out {
		out[i].GainLoss = out[i].DormantActive - out[i].ActiveDormant
	}
	return out
}

// SumByAgentIdentity reduces performance rows sharing the same
// (agentCode, agentName) pair by summing the transition counters.
// Returns one row per distinct agent; sums are order-insensitive.
func SumByAgentIdentity(rows []performance.Performance) []performance.Performance {
	type key struct {
		code int
		name string
	}
	index := make(map[key]int, len(rows))
	var out []performance.Performance
	for _, r := range rows {
		k := key{r.AgentCode, r.AgentName}
		if i, ok := index[k]; ok {
			out[i].DormantActive += r.DormantActive
			out[i].ActiveDormant += r.ActiveDormant
			out[i].GainLoss += r.GainLoss
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// SumTotalsByAgentIdentity reduces weekly total rows into one row per
// agent, summing every numeric column. Used for the monthly view.
func SumTotalsByAgentIdentity(rows []performance.TotalPerformance) []performance.TotalPerformance {
	type key struct {
		code int
		name string
	}
	index := make(map[key]int, len(rows))
	var out []performance.TotalPerformance
	for _, r := range rows {
		k := key{r.AgentCode, r.AgentName}
		if i, ok := index[k]; ok {
			out[i].Active += r.Active
			out[i].Dormant += r.Dormant
			out[i].DormantActive += r.DormantActive
			out[i].ActiveDormant += r.ActiveDormant
			out[i].TotalActive += r.TotalActive
			out[i].TotalDormant += r.TotalDormant
			out[i].GainLoss += r.GainLoss
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}
