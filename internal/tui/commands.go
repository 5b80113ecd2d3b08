package tui

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"procmap/internal/client"
	"procmap/internal/model"
	"procmap/internal/store"
)

// Fetch results carry display-scoped error strings rather than error
// values: every fetch boundary catches its own failure and no error
// crosses into another view.
type msgPreviewReady struct {
	pending model.PendingUpload
	err     string
}

type msgSessionReady struct {
	session model.Session
	err     string
}

type msgGraphFetched struct {
	gen   uint64
	graph model.ProcessGraph
	err   string
}

type msgMetricsFetched struct {
	gen     uint64
	metrics model.Metrics
	err     string
}

type msgBottlenecksFetched struct {
	gen    uint64
	report model.BottleneckReport
	err    string
}

func previewCmd(c *client.Client, activity *store.ActivityLog, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return msgPreviewReady{err: err.Error()}
		}
		defer f.Close()

		pending, err := c.PreviewUpload(context.Background(), filepath.Base(path), f,
			func(pct int) { activity.Logf("upload %d%%", pct) })
		if err != nil {
			return msgPreviewReady{err: err.Error()}
		}
		return msgPreviewReady{pending: pending}
	}
}

func confirmCmd(c *client.Client, tempID string, mapping model.ColumnMapping) tea.Cmd {
	return func() tea.Msg {
		session, err := c.ConfirmMapping(context.Background(), tempID, mapping)
		if err != nil {
			return msgSessionReady{err: err.Error()}
		}
		return msgSessionReady{session: session}
	}
}

func fetchGraphCmd(c *client.Client, sessionID string, filters model.FilterCriteria, gen uint64) tea.Cmd {
	return func() tea.Msg {
		g, err := c.DiscoverGraph(context.Background(), sessionID, filters)
		if err != nil {
			return msgGraphFetched{gen: gen, err: err.Error()}
		}
		return msgGraphFetched{gen: gen, graph: g}
	}
}

func fetchMetricsCmd(c *client.Client, sessionID string, gen uint64) tea.Cmd {
	return func() tea.Msg {
		metrics, err := c.Metrics(context.Background(), sessionID)
		if err != nil {
			return msgMetricsFetched{gen: gen, err: err.Error()}
		}
		return msgMetricsFetched{gen: gen, metrics: metrics}
	}
}

func fetchBottlenecksCmd(c *client.Client, sessionID string, gen uint64) tea.Cmd {
	return func() tea.Msg {
		report, err := c.Bottlenecks(context.Background(), sessionID)
		if err != nil {
			return msgBottlenecksFetched{gen: gen, err: err.Error()}
		}
		return msgBottlenecksFetched{gen: gen, report: report}
	}
}

// fetchAll kicks off every dashboard fetch for the active session.
func (m *AppModel) fetchAll() tea.Cmd {
	session := m.Store.Session()
	if session == nil {
		return nil
	}
	return tea.Batch(
		fetchGraphCmd(m.Client, session.ID, m.Store.Filters(), m.Store.BeginFetch(store.TargetGraph)),
		fetchMetricsCmd(m.Client, session.ID, m.Store.BeginFetch(store.TargetMetrics)),
		fetchBottlenecksCmd(m.Client, session.ID, m.Store.BeginFetch(store.TargetBottlenecks)),
	)
}

// refetchGraph re-runs only the graph fetch, keyed to current filters.
func (m *AppModel) refetchGraph() tea.Cmd {
	session := m.Store.Session()
	if session == nil {
		return nil
	}
	return fetchGraphCmd(m.Client, session.ID, m.Store.Filters(), m.Store.BeginFetch(store.TargetGraph))
}
