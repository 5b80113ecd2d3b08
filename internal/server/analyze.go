package server

import (
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"procmap/internal/model"
)

// applyFilters returns the case traces surviving the criteria. Date
// bounds are inclusive on calendar days; excluded activities are removed
// from each trace; the allow-list, when present, keeps only its members.
// Cases left empty by filtering drop out entirely.
func applyFilters(log *eventLog, f model.FilterCriteria) [][]event {
	var start, end time.Time
	if f.DateStart != "" {
		start, _ = time.Parse("2006-01-02", f.DateStart)
	}
	if f.DateEnd != "" {
		if d, err := time.Parse("2006-01-02", f.DateEnd); err == nil {
			end = d.AddDate(0, 0, 1) // inclusive upper bound
		}
	}

	excluded := make(map[string]bool, len(f.ExcludedActivities))
	for _, a := range f.ExcludedActivities {
		excluded[a] = true
	}
	allowed := make(map[string]bool, len(f.Activities))
	for _, a := range f.Activities {
		allowed[a] = true
	}

	var traces [][]event
	for _, id := range log.CaseIDs {
		var trace []event
		for _, e := range log.Cases[id] {
			if !start.IsZero() && e.Timestamp.Before(start) {
				continue
			}
			if !end.IsZero() && !e.Timestamp.Before(end) {
				continue
			}
			if excluded[e.Activity] {
				continue
			}
			if len(allowed) > 0 && !allowed[e.Activity] {
				continue
			}
			trace = append(trace, e)
		}
		if len(trace) > 0 {
			traces = append(traces, trace)
		}
	}
	return traces
}

// discover computes the directly-follows graph over the filtered traces,
// framed by the __start__/__end__ sentinel nodes.
func discover(traces [][]event) model.ProcessGraph {
	freq := make(map[string]int)
	starts := make(map[string]int)
	ends := make(map[string]int)
	follows := make(map[[2]string]int)
	var order []string

	for _, trace := range traces {
		for i, e := range trace {
			if _, seen := freq[e.Activity]; !seen {
				order = append(order, e.Activity)
			}
			freq[e.Activity]++
			if i > 0 {
				follows[[2]string{trace[i-1].Activity, e.Activity}]++
			}
		}
		starts[trace[0].Activity]++
		ends[trace[len(trace)-1].Activity]++
	}

	sort.Strings(order)

	graph := model.ProcessGraph{}
	if len(order) == 0 {
		return graph
	}

	graph.Nodes = append(graph.Nodes,
		model.GraphNode{ID: model.StartNodeID, Label: "Start", Frequency: len(traces), IsSpecial: true},
		model.GraphNode{ID: model.EndNodeID, Label: "End", Frequency: len(traces), IsSpecial: true},
	)
	for _, a := range order {
		graph.Nodes = append(graph.Nodes, model.GraphNode{
			ID:        a,
			Label:     a,
			Frequency: freq[a],
			IsStart:   starts[a] > 0,
			IsEnd:     ends[a] > 0,
		})
	}

	for a, n := range starts {
		graph.Edges = append(graph.Edges, model.GraphEdge{Source: model.StartNodeID, Target: a, Weight: n})
	}
	for pair, n := range follows {
		graph.Edges = append(graph.Edges, model.GraphEdge{Source: pair[0], Target: pair[1], Weight: n})
	}
	for a, n := range ends {
		graph.Edges = append(graph.Edges, model.GraphEdge{Source: a, Target: model.EndNodeID, Weight: n})
	}
	sort.Slice(graph.Edges, func(a, b int) bool {
		if graph.Edges[a].Source != graph.Edges[b].Source {
			return graph.Edges[a].Source < graph.Edges[b].Source
		}
		return graph.Edges[a].Target < graph.Edges[b].Target
	})

	return graph
}

// computeMetrics aggregates case statistics and the top variants.
func computeMetrics(log *eventLog, topN int) model.Metrics {
	m := model.Metrics{
		TotalCases:      len(log.CaseIDs),
		TotalEvents:     log.eventCount(),
		TotalActivities: len(log.activities()),
	}

	var durations []float64
	variantCounts := make(map[string]int)
	variantOrder := []string{}

	for _, id := range log.CaseIDs {
		trace := log.Cases[id]
		durations = append(durations, trace[len(trace)-1].Timestamp.Sub(trace[0].Timestamp).Seconds())

		names := make([]string, len(trace))
		for i, e := range trace {
			names[i] = e.Activity
		}
		key := strings.Join(names, "\x1f")
		if _, seen := variantCounts[key]; !seen {
			variantOrder = append(variantOrder, key)
		}
		variantCounts[key]++
	}

	if len(durations) > 0 {
		m.AvgCaseDuration, _ = stats.Mean(durations)
		m.MedianCaseDuration, _ = stats.Median(durations)
		m.MinCaseDuration, _ = stats.Min(durations)
		m.MaxCaseDuration, _ = stats.Max(durations)
	}

	sort.SliceStable(variantOrder, func(a, b int) bool {
		return variantCounts[variantOrder[a]] > variantCounts[variantOrder[b]]
	})
	if len(variantOrder) > topN {
		variantOrder = variantOrder[:topN]
	}
	for _, key := range variantOrder {
		m.TopVariants = append(m.TopVariants, model.Variant{
			Activities: strings.Split(key, "\x1f"),
			Count:      variantCounts[key],
			Percentage: float64(variantCounts[key]) / float64(m.TotalCases) * 100,
		})
	}

	return m
}

// computeBottlenecks ranks activity transitions by elapsed-time impact.
// A transition's impact score is its share of all waiting time across the
// log, in percent, so scores are comparable between sessions.
func computeBottlenecks(log *eventLog) model.BottleneckReport {
	type acc struct {
		total float64
		count int
	}
	transitions := make(map[[2]string]*acc)
	grandTotal := 0.0

	for _, id := range log.CaseIDs {
		trace := log.Cases[id]
		for i := 1; i < len(trace); i++ {
			pair := [2]string{trace[i-1].Activity, trace[i].Activity}
			elapsed := trace[i].Timestamp.Sub(trace[i-1].Timestamp).Seconds()
			a, ok := transitions[pair]
			if !ok {
				a = &acc{}
				transitions[pair] = a
			}
			a.total += elapsed
			a.count++
			grandTotal += elapsed
		}
	}

	report := model.BottleneckReport{Bottlenecks: []model.Bottleneck{}}
	for pair, a := range transitions {
		b := model.Bottleneck{
			Source:        pair[0],
			Target:        pair[1],
			AvgDuration:   a.total / float64(a.count),
			TotalDuration: a.total,
			Count:         a.count,
		}
		if grandTotal > 0 {
			b.ImpactScore = a.total / grandTotal * 100
		}
		report.Bottlenecks = append(report.Bottlenecks, b)
	}

	sort.Slice(report.Bottlenecks, func(a, b int) bool {
		if report.Bottlenecks[a].ImpactScore != report.Bottlenecks[b].ImpactScore {
			return report.Bottlenecks[a].ImpactScore > report.Bottlenecks[b].ImpactScore
		}
		return report.Bottlenecks[a].Source < report.Bottlenecks[b].Source
	})

	return report
}
