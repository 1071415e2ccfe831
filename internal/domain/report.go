package domain

import "time"

// StopReason explains why transaction pagination ended.
type StopReason string

const (
	StopExhausted     StopReason = "exhausted"
	StopTargetReached StopReason = "target_reached"
	StopMissingCursor StopReason = "missing_cursor"
	StopStalledCursor StopReason = "stalled_cursor"
)

// PaginationStats describes a finished history walk.
type PaginationStats struct {
	Pages       int        `json:"pages"`
	Observed    int        `json:"observed"`
	NormalCount int        `json:"normalCount"`
	SmallCount  int        `json:"smallCount"`
	StopReason  StopReason `json:"stopReason"`
}

// Report is the complete output of one address analysis.
type Report struct {
	RunID       string          `json:"runId"`
	Address     string          `json:"address"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Stats       AggregateStats  `json:"stats"`
	Profiles    []AssetProfile  `json:"assetProfiles"`
	Pagination  PaginationStats `json:"pagination"`

	// Narrative is the generator output parsed as a JSON document.
	// Empty (never nil) when generation or parsing failed.
	Narrative      map[string]any `json:"narrative"`
	NarrativeRaw   string         `json:"narrativeRaw,omitempty"`
	NarrativeError string         `json:"narrativeError,omitempty"`
}

// Clone returns a copy that shares no maps or slices with r.
// Narrative values are copied one level deep.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	if r.Profiles != nil {
		c.Profiles = append([]AssetProfile(nil), r.Profiles...)
	}
	if r.Stats.TypeDistribution != nil {
		c.Stats.TypeDistribution = make(TypeDistribution, len(r.Stats.TypeDistribution))
		for k, v := range r.Stats.TypeDistribution {
			c.Stats.TypeDistribution[k] = v
		}
	}
	if r.Narrative != nil {
		c.Narrative = make(map[string]any, len(r.Narrative))
		for k, v := range r.Narrative {
			c.Narrative[k] = v
		}
	}
	return &c
}
