package model

// Variant is a distinct ordered activity sequence shared by Count cases.
type Variant struct {
	Activities []string `json:"variant"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}

// Equal compares the activity sequences element-wise. Variant selection
// toggling relies on this, never on slice identity.
func (v Variant) Equal(other Variant) bool {
	return equalStrings(v.Activities, other.Activities)
}

// Metrics are the aggregate statistics for one session. Durations are in
// seconds.
type Metrics struct {
	TotalCases         int       `json:"total_cases"`
	TotalEvents        int       `json:"total_events"`
	TotalActivities    int       `json:"total_activities"`
	AvgCaseDuration    float64   `json:"avg_case_duration"`
	MedianCaseDuration float64   `json:"median_case_duration"`
	MinCaseDuration    float64   `json:"min_case_duration"`
	MaxCaseDuration    float64   `json:"max_case_duration"`
	TopVariants        []Variant `json:"top_variants"`
}

// Bottleneck is a source->target transition ranked by elapsed-time impact.
type Bottleneck struct {
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	AvgDuration   float64 `json:"avg_duration"`
	TotalDuration float64 `json:"total_duration"`
	Count         int     `json:"count"`
	ImpactScore   float64 `json:"impact_score"`
}

// BottleneckReport is the bottlenecks endpoint payload.
type BottleneckReport struct {
	Bottlenecks []Bottleneck `json:"bottlenecks"`
}
