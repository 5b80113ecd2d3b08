package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"procmap/internal/mapping"
	"procmap/internal/model"
)

// Analysis bundles everything the one-shot CLI mode reports for a file.
type Analysis struct {
	Session     model.Session          `json:"session"`
	Graph       model.ProcessGraph     `json:"graph"`
	Metrics     model.Metrics          `json:"metrics"`
	Bottlenecks model.BottleneckReport `json:"bottlenecks"`
}

// AnalyzeFile runs the full pipeline on a local file without a server:
// parse, column auto-detection for CSV, discovery, metrics, bottlenecks.
func AnalyzeFile(path string, topVariants int) (Analysis, error) {
	var out Analysis

	content, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	filename := filepath.Base(path)

	var log *eventLog
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".xes"):
		log, err = parseXES(filename, content)
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		columns, _, _, cerr := readColumns(content, 0)
		if cerr != nil {
			return out, cerr
		}
		m := mapping.Detect(columns)
		if !m.Complete() {
			return out, fmt.Errorf("could not detect case id, activity and timestamp columns in %s", filename)
		}
		log, err = parseCSV(filename, content, m)
	default:
		return out, fmt.Errorf("Invalid file format. Only CSV and XES files are supported.")
	}
	if err != nil {
		return out, err
	}

	out.Session = model.Session{
		CaseCount:  len(log.CaseIDs),
		EventCount: log.eventCount(),
		Activities: log.activities(),
	}
	out.Graph = discover(applyFilters(log, model.FilterCriteria{}))
	out.Metrics = computeMetrics(log, topVariants)
	out.Bottlenecks = computeBottlenecks(log)
	return out, nil
}
