package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"procmap/internal/graph"
	"procmap/internal/mapping"
	"procmap/internal/model"
	"procmap/internal/store"
)

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		if m.Viewport != nil {
			m.syncViewport()
		}
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhaseUploading || m.Phase == PhaseSubmitting {
			var cmd tea.Cmd
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case msgPreviewReady:
		return m.handlePreviewReady(msg)

	case msgSessionReady:
		return m.handleSessionReady(msg)

	case msgGraphFetched:
		if !m.Store.Accept(store.TargetGraph, msg.gen) {
			return m, nil // stale response for a superseded fetch
		}
		if msg.err != "" {
			m.GraphErr = msg.err
			return m, nil
		}
		m.GraphErr = ""
		m.Layout = graph.Compute(graph.Build(msg.graph))
		m.Hovered = -1
		m.syncViewport()
		if m.needsFit {
			// Zoom and pan survive filter-driven refreshes; only the
			// first graph of a session is framed automatically.
			m.Viewport.Fit(m.Layout)
			m.needsFit = false
		}
		return m, nil

	case msgMetricsFetched:
		if !m.Store.Accept(store.TargetMetrics, msg.gen) {
			return m, nil
		}
		if msg.err != "" {
			m.MetricsErr = msg.err
			return m, nil
		}
		m.MetricsErr = ""
		metrics := msg.metrics
		m.Metrics = &metrics
		if m.VariantRow >= len(metrics.TopVariants) {
			m.VariantRow = 0
		}
		return m, nil

	case msgBottlenecksFetched:
		if !m.Store.Accept(store.TargetBottlenecks, msg.gen) {
			return m, nil
		}
		if msg.err != "" {
			m.BottleneckErr = msg.err
			return m, nil
		}
		m.BottleneckErr = ""
		report := msg.report
		m.Bottlenecks = &report
		if m.BottleneckRow >= len(report.Bottlenecks) {
			m.BottleneckRow = 0
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.ShowHelp {
			m.ShowHelp = false
			return m, nil
		}
		switch m.Step {
		case StepUpload:
			return m.updateUpload(msg)
		case StepMapping:
			return m.updateMapping(msg)
		default:
			return m.updateDashboard(msg)
		}
	}

	return m, nil
}

func (m AppModel) handlePreviewReady(msg msgPreviewReady) (tea.Model, tea.Cmd) {
	if m.Phase != PhaseUploading {
		return m, nil // upload was cancelled while in flight
	}
	if msg.err != "" {
		m.Phase = PhaseIdle
		m.UploadErr = msg.err
		m.Activity.Logf("upload failed: %s", msg.err)
		return m, nil
	}
	pending := msg.pending
	m.Pending = &pending
	m.Mapping = mapping.Detect(pending.Columns)
	m.MappingRow = 0
	m.Phase = PhasePreviewReady
	m.Step = StepMapping
	m.UploadErr = ""
	m.Activity.Logf("preview ready: %d columns, %d rows", len(pending.Columns), pending.RowCount)
	return m, nil
}

func (m AppModel) handleSessionReady(msg msgSessionReady) (tea.Model, tea.Cmd) {
	if m.Phase != PhaseSubmitting {
		return m, nil
	}
	if msg.err != "" {
		// Stay on the mapping step; column selections are preserved so
		// the user can fix and retry.
		m.Phase = PhasePreviewReady
		m.UploadErr = msg.err
		m.Activity.Logf("mapping rejected: %s", msg.err)
		return m, nil
	}

	m.Activity.Logf("session created: %d cases, %d events", msg.session.CaseCount, msg.session.EventCount)
	m.Store.SetSession(msg.session)
	m.Step = StepDashboard
	m.Tab = TabGraph
	m.Phase = PhaseIdle
	m.Pending = nil
	m.UploadErr = ""
	m.Layout = nil
	m.GraphErr = ""
	m.Hovered = -1
	m.Metrics = nil
	m.MetricsErr = ""
	m.Bottlenecks = nil
	m.BottleneckErr = ""
	m.BottleneckRow = 0
	m.VariantRow = 0
	m.ShowFilters = false
	m.FilterForm.Reset()
	m.DateStart.SetValue("")
	m.DateEnd.SetValue("")
	m.needsFit = true
	m.syncViewport()
	return m, m.fetchAll()
}

func (m AppModel) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.Phase == PhaseIdle {
			return m, tea.Quit
		}
		return m, nil
	case "enter":
		if m.Phase != PhaseIdle {
			return m, nil
		}
		// A drag-drop of several files pastes several paths; only the
		// first one counts.
		path := m.FileInput.Value()
		if fields := strings.Fields(path); len(fields) > 0 {
			path = fields[0]
		}
		if path == "" {
			return m, nil
		}
		m.Phase = PhaseUploading
		m.UploadErr = ""
		m.Activity.Logf("selected %s", path)
		return m, tea.Batch(
			m.Spinner.Tick,
			previewCmd(m.Client, m.Activity, path),
		)
	case "?":
		m.ShowHelp = true
		return m, nil
	}

	var cmd tea.Cmd
	m.FileInput, cmd = m.FileInput.Update(msg)
	return m, cmd
}

func (m AppModel) updateMapping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Phase == PhaseSubmitting {
		return m, nil // ignore input while the confirmation is in flight
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		// Cancel discards the pending upload and the partial activity log.
		m.Pending = nil
		m.Mapping = model.ColumnMapping{}
		m.UploadErr = ""
		m.Phase = PhaseIdle
		m.Step = StepUpload
		m.Activity.Clear()
		m.FileInput.SetValue("")
		m.FileInput.Focus()
		return m, nil
	case "up", "k":
		if m.MappingRow > 0 {
			m.MappingRow--
		}
	case "down", "j":
		if m.MappingRow < 2 {
			m.MappingRow++
		}
	case "left", "h":
		m.cycleMapping(-1)
	case "right", "l":
		m.cycleMapping(1)
	case "enter":
		// Submission stays disabled until all three roles are mapped.
		if !m.Mapping.Complete() || m.Pending == nil {
			return m, nil
		}
		m.Phase = PhaseSubmitting
		m.UploadErr = ""
		m.Activity.Logf("submitting mapping %s / %s / %s", m.Mapping.CaseID, m.Mapping.Activity, m.Mapping.Timestamp)
		return m, tea.Batch(
			m.Spinner.Tick,
			confirmCmd(m.Client, m.Pending.TempID, m.Mapping),
		)
	case "?":
		m.ShowHelp = true
	}
	return m, nil
}

// cycleMapping steps the focused role through "(unset)" plus the pending
// upload's columns.
func (m *AppModel) cycleMapping(delta int) {
	if m.Pending == nil {
		return
	}
	options := append([]string{""}, m.Pending.Columns...)

	target := &m.Mapping.CaseID
	switch m.MappingRow {
	case 1:
		target = &m.Mapping.Activity
	case 2:
		target = &m.Mapping.Timestamp
	}

	current := 0
	for i, opt := range options {
		if opt == *target {
			current = i
			break
		}
	}
	current = (current + delta + len(options)) % len(options)
	*target = options[current]
}

func (m AppModel) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ShowFilters {
		return m.updateFilterPanel(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1", "g":
		m.Tab = TabGraph
		return m, nil
	case "2", "m":
		m.Tab = TabMetrics
		return m, nil
	case "3", "b":
		m.Tab = TabBottlenecks
		return m, nil
	case "4", "v":
		m.Tab = TabVariants
		return m, nil
	case "tab":
		if m.Tab == TabGraph && m.Layout != nil {
			m.hoverNext()
			return m, nil
		}
		m.Tab = (m.Tab + 1) % 4
		return m, nil
	case "n":
		// New analysis destroys the session and everything scoped to it.
		m.resetToUpload()
		return m, nil
	case "f":
		m.ShowFilters = true
		m.FilterForm.Load(m.Store.Filters())
		m.DateStart.SetValue(m.FilterForm.DateStart)
		m.DateEnd.SetValue(m.FilterForm.DateEnd)
		m.FilterRow = 0
		m.syncFilterFocus()
		m.syncViewport()
		return m, nil
	case "?":
		m.ShowHelp = true
		return m, nil
	}

	if m.Tab == TabGraph {
		return m.updateGraphKeys(msg)
	}
	return m.updateListKeys(msg)
}

func (m AppModel) updateGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Layout == nil || m.Viewport == nil {
		return m, nil
	}
	switch msg.String() {
	case "+", "=":
		m.Viewport.ZoomIn()
	case "-", "_":
		m.Viewport.ZoomOut()
	case "left":
		m.Viewport.Pan(-4, 0)
	case "right":
		m.Viewport.Pan(4, 0)
	case "up":
		m.Viewport.Pan(0, -2)
	case "down":
		m.Viewport.Pan(0, 2)
	case "0":
		m.Viewport.Fit(m.Layout)
	case "r":
		// Reset recomputes the layout from scratch, then frames it.
		m.Layout = graph.Compute(m.Layout.Diagram)
		m.Viewport.Fit(m.Layout)
	case "enter":
		if m.Hovered >= 0 && m.Hovered < len(m.Layout.Diagram.Nodes) {
			n := m.Layout.Diagram.Nodes[m.Hovered]
			if graph.Selectable(n) {
				m.Store.SelectNode(model.NodeSelection{ID: n.ID, Label: n.Label, Frequency: n.Frequency})
			}
		}
	}
	return m, nil
}

// hoverNext cycles keyboard hover through selectable nodes.
func (m *AppModel) hoverNext() {
	nodes := m.Layout.Diagram.Nodes
	if len(nodes) == 0 {
		return
	}
	start := m.Hovered
	for i := 1; i <= len(nodes); i++ {
		idx := (start + i + len(nodes)) % len(nodes)
		if graph.Selectable(nodes[idx]) {
			m.Hovered = idx
			return
		}
	}
}

func (m AppModel) updateListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Tab == TabBottlenecks && m.BottleneckRow > 0 {
			m.BottleneckRow--
		}
		if m.Tab == TabVariants && m.VariantRow > 0 {
			m.VariantRow--
		}
	case "down", "j":
		if m.Tab == TabBottlenecks && m.Bottlenecks != nil && m.BottleneckRow < len(m.Bottlenecks.Bottlenecks)-1 {
			m.BottleneckRow++
		}
		if m.Tab == TabVariants && m.Metrics != nil && m.VariantRow < len(m.Metrics.TopVariants)-1 {
			m.VariantRow++
		}
	case "enter":
		if m.Tab == TabBottlenecks && m.Bottlenecks != nil && m.BottleneckRow < len(m.Bottlenecks.Bottlenecks) {
			if m.OnBottleneckSelect != nil {
				m.OnBottleneckSelect(m.Bottlenecks.Bottlenecks[m.BottleneckRow])
			}
		}
		if m.Tab == TabVariants && m.Metrics != nil && m.VariantRow < len(m.Metrics.TopVariants) {
			// Selecting the active variant again clears the selection.
			m.Store.ToggleVariant(m.Metrics.TopVariants[m.VariantRow])
		}
	}
	return m, nil
}

func (m AppModel) updateFilterPanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	session := m.Store.Session()
	activityCount := 0
	if session != nil {
		activityCount = len(session.Activities)
	}
	lastRow := 1 + activityCount

	switch msg.String() {
	case "esc":
		m.ShowFilters = false
		m.DateStart.Blur()
		m.DateEnd.Blur()
		m.syncViewport()
		return m, nil
	case "up":
		if m.FilterRow > 0 {
			m.FilterRow--
		}
		m.syncFilterFocus()
		return m, nil
	case "down", "tab":
		if m.FilterRow < lastRow {
			m.FilterRow++
		} else {
			m.FilterRow = 0
		}
		m.syncFilterFocus()
		return m, nil
	case " ":
		if m.FilterRow >= 2 && session != nil {
			m.FilterForm.ToggleExclusion(session.Activities[m.FilterRow-2])
			return m, nil
		}
	case "enter":
		m.FilterForm.DateStart = m.DateStart.Value()
		m.FilterForm.DateEnd = m.DateEnd.Value()
		if !m.FilterForm.CanApply() {
			return m, nil // Apply stays disabled with nothing to apply
		}
		m.Store.ApplyFilters(m.FilterForm.Criteria())
		m.ShowFilters = false
		m.DateStart.Blur()
		m.DateEnd.Blur()
		m.syncViewport()
		return m, m.refetchGraph()
	case "ctrl+x":
		// Clear is a no-op unless filters were actually applied.
		if !m.Store.HasFilters() {
			return m, nil
		}
		m.Store.ClearFilters()
		m.FilterForm.Reset()
		m.DateStart.SetValue("")
		m.DateEnd.SetValue("")
		return m, m.refetchGraph()
	}

	// Remaining keys edit the focused date input.
	var cmd tea.Cmd
	switch m.FilterRow {
	case 0:
		m.DateStart, cmd = m.DateStart.Update(msg)
	case 1:
		m.DateEnd, cmd = m.DateEnd.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) syncFilterFocus() {
	m.DateStart.Blur()
	m.DateEnd.Blur()
	switch m.FilterRow {
	case 0:
		m.DateStart.Focus()
	case 1:
		m.DateEnd.Focus()
	}
}

func (m *AppModel) resetToUpload() {
	m.Store.ClearSession()
	m.Step = StepUpload
	m.Phase = PhaseIdle
	m.Tab = TabGraph
	m.Pending = nil
	m.Mapping = model.ColumnMapping{}
	m.UploadErr = ""
	m.Layout = nil
	m.GraphErr = ""
	m.Hovered = -1
	m.Metrics = nil
	m.MetricsErr = ""
	m.Bottlenecks = nil
	m.BottleneckErr = ""
	m.BottleneckRow = 0
	m.VariantRow = 0
	m.ShowFilters = false
	m.FilterForm.Reset()
	m.DateStart.SetValue("")
	m.DateEnd.SetValue("")
	m.Activity.Clear()
	m.FileInput.SetValue("")
	m.FileInput.Focus()
}

func (m AppModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	// The step indicator accepts clicks on the completed upload step only,
	// navigating back to a fresh upload. No forward navigation.
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft &&
		msg.Y == 1 && m.Step != StepUpload && msg.X < m.uploadStepWidth() {
		m.resetToUpload()
		return m, nil
	}

	if m.Step != StepDashboard || m.Tab != TabGraph || m.Layout == nil || m.Viewport == nil {
		return m, nil
	}

	top, left, _, _ := m.contentGeometry()
	col := msg.X - left
	row := msg.Y - top

	switch msg.Action {
	case tea.MouseActionMotion:
		// Hit tested against the live transform on every event.
		m.Hovered = m.Viewport.NodeAt(m.Layout, col, row)
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		idx := m.Viewport.NodeAt(m.Layout, col, row)
		if idx >= 0 {
			n := m.Layout.Diagram.Nodes[idx]
			if graph.Selectable(n) {
				m.Store.SelectNode(model.NodeSelection{ID: n.ID, Label: n.Label, Frequency: n.Frequency})
			}
		}
	}
	return m, nil
}
