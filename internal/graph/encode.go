package graph

import "procmap/internal/model"

// Visual encoding constants. Domains and pixel ranges are fixed; values
// outside a domain clamp to its endpoints rather than extrapolating.
const (
	freqDomainMin = 1
	freqDomainMax = 100

	nodeWidthMin  = 40.0 // width range is wider than height, keeping a
	nodeWidthMax  = 120.0
	nodeHeightMin = 24.0 // landscape aspect for labels
	nodeHeightMax = 64.0

	weightDomainMin = 1
	weightDomainMax = 50
	strokeMin       = 1.0
	strokeMax       = 6.0

	// Sentinel start/end markers ignore frequency entirely.
	sentinelSize = 28.0
)

// NodeSize maps a node's frequency onto its rendered width and height.
func NodeSize(n model.GraphNode) (w, h float64) {
	if n.IsSpecial {
		return sentinelSize, sentinelSize
	}
	t := normalize(n.Frequency, freqDomainMin, freqDomainMax)
	w = nodeWidthMin + t*(nodeWidthMax-nodeWidthMin)
	h = nodeHeightMin + t*(nodeHeightMax-nodeHeightMin)
	return w, h
}

// EdgeThickness maps an edge weight onto a stroke width in [1, 6].
func EdgeThickness(weight int) float64 {
	t := normalize(weight, weightDomainMin, weightDomainMax)
	return strokeMin + t*(strokeMax-strokeMin)
}

func normalize(v, lo, hi int) float64 {
	if v <= lo {
		return 0
	}
	if v >= hi {
		return 1
	}
	return float64(v-lo) / float64(hi-lo)
}
