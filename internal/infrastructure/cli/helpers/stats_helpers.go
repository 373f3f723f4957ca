package helpers

import (
	"sort"

	"github.com/dbankscard/hookguard/internal/domain"
)

// RiskCount is one bucket of the risk distribution.
type RiskCount struct {
	Level domain.RiskLevel
	Count int
}

var riskOrder = map[domain.RiskLevel]int{
	domain.RiskCritical: 0,
	domain.RiskHigh:     1,
	domain.RiskMedium:   2,
	domain.RiskLow:      3,
}

// RiskDistribution flattens the per-risk counters, most severe first.
// Unknown levels sort last, by name.
func RiskDistribution(byRisk map[domain.RiskLevel]int) []RiskCount {
	out := make([]RiskCount, 0, len(byRisk))
	for level, count := range byRisk {
		out = append(out, RiskCount{Level: level, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := riskOrder[out[i].Level]
		oj, jok := riskOrder[out[j].Level]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return out[i].Level < out[j].Level
		}
	})
	return out
}

// Percentage returns part of total in percent, 0 when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}
