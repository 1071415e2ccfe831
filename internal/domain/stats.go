package domain

import "sort"

// TypeDistribution maps a transaction type to its frequency.
type TypeDistribution map[string]int

// Total returns the sum of all counts.
func (d TypeDistribution) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

// TypeCount is one entry of a sorted TypeDistribution.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Sorted returns entries ordered by count DESC, type ASC.
func (d TypeDistribution) Sorted() []TypeCount {
	out := make([]TypeCount, 0, len(d))
	for t, n := range d {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// AggregateStats holds the deterministic statistics of one analysis run.
type AggregateStats struct {
	TotalParsed      int              `json:"totalParsed"`
	SmallTxCount     int              `json:"smallTxCount"`
	TypeDistribution TypeDistribution `json:"typeDistribution"`
}
