package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"procmap/internal/graph"
	"procmap/internal/model"
	"procmap/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	stepActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	stepDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	stepPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	tabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)
)

func (m AppModel) View() string {
	if m.WindowSize.Width == 0 {
		return "\n  starting...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("procmap"))
	b.WriteString(dimStyle.Render("  process mining for event logs"))
	b.WriteString("\n")
	b.WriteString(m.renderSteps())
	b.WriteString("\n")

	var body string
	switch m.Step {
	case StepUpload:
		body = m.viewUpload()
	case StepMapping:
		body = m.viewMapping()
	default:
		body = m.viewDashboard()
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.footerHelp()))

	if m.ShowHelp {
		return m.renderHelpDialog()
	}
	return b.String()
}

var stepNames = []string{"1 upload", "2 map columns", "3 explore"}

// renderSteps draws the workflow progress indicator. The upload step is
// clickable once completed; that affordance is the underline.
func (m AppModel) renderSteps() string {
	parts := make([]string, 3)
	current := int(m.Step)
	for i, name := range stepNames {
		switch {
		case i == current:
			parts[i] = stepActiveStyle.Render(model.IconActive + " " + name)
		case i < current:
			label := model.IconOK + " " + name
			if i == 0 {
				parts[i] = stepDoneStyle.Underline(true).Render(label)
			} else {
				parts[i] = stepDoneStyle.Render(label)
			}
		default:
			parts[i] = stepPendingStyle.Render(model.IconPending + " " + name)
		}
	}
	return strings.Join(parts, dimStyle.Render("  ▸  "))
}

// uploadStepWidth is the rendered width of the upload segment in the step
// indicator, which doubles as its click target.
func (m AppModel) uploadStepWidth() int {
	return lipgloss.Width(stepDoneStyle.Underline(true).Render(model.IconOK + " " + stepNames[0]))
}

func (m AppModel) viewUpload() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Event log file"))
	b.WriteString("\n\n  ")
	b.WriteString(m.FileInput.View())
	b.WriteString("\n")

	if m.Phase == PhaseUploading {
		b.WriteString("\n  " + m.Spinner.View() + " uploading...\n")
	}
	if m.UploadErr != "" {
		b.WriteString("\n  " + errorStyle.Render(model.IconError+" "+m.UploadErr) + "\n")
	}

	entries := m.Activity.Entries()
	if len(entries) > 0 {
		b.WriteString("\n" + dimStyle.Render("  activity") + "\n")
		start := 0
		if len(entries) > 6 {
			start = len(entries) - 6
		}
		for _, e := range entries[start:] {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %s  ", e.Time.Format("15:04:05"))))
			b.WriteString(e.Message)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m AppModel) viewMapping() string {
	if m.Pending == nil {
		return "\n  no pending upload\n"
	}
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Data preview"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (%d rows total)", m.Pending.RowCount)))
	b.WriteString("\n\n")
	b.WriteString(m.renderPreviewTable())
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Column mapping"))
	b.WriteString("\n\n")

	roles := []struct {
		name  string
		value string
	}{
		{"case id  ", m.Mapping.CaseID},
		{"activity ", m.Mapping.Activity},
		{"timestamp", m.Mapping.Timestamp},
	}
	for i, role := range roles {
		cursor := "  "
		if i == m.MappingRow {
			cursor = stepActiveStyle.Render("❯ ")
		}
		value := role.value
		if value == "" {
			value = dimStyle.Render("(unset)")
		}
		line := fmt.Sprintf("%s%s  ◂ %s ▸", cursor, role.name, value)
		if i == m.MappingRow {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if dup := m.duplicateMappingColumn(); dup != "" {
		b.WriteString("\n  " + warnStyle.Render(fmt.Sprintf("column %q is mapped to more than one role", dup)) + "\n")
	}
	if m.UploadErr != "" {
		b.WriteString("\n  " + errorStyle.Render(model.IconError+" "+m.UploadErr) + "\n")
	}

	switch {
	case m.Phase == PhaseSubmitting:
		b.WriteString("\n  " + m.Spinner.View() + " creating session...\n")
	case m.Mapping.Complete():
		b.WriteString("\n  " + stepDoneStyle.Render("enter: create session") + "\n")
	default:
		b.WriteString("\n  " + dimStyle.Render("map all three roles to continue") + "\n")
	}
	return b.String()
}

// duplicateMappingColumn returns a column assigned to more than one role,
// or "". Duplicates are allowed, the mapping just gets flagged.
func (m AppModel) duplicateMappingColumn() string {
	seen := map[string]bool{}
	for _, col := range []string{m.Mapping.CaseID, m.Mapping.Activity, m.Mapping.Timestamp} {
		if col == "" {
			continue
		}
		if seen[col] {
			return col
		}
		seen[col] = true
	}
	return ""
}

func (m AppModel) renderPreviewTable() string {
	cols := m.Pending.Columns
	if len(cols) == 0 {
		return dimStyle.Render("  (no columns)") + "\n"
	}

	colWidth := 16
	if avail := (m.WindowSize.Width - 4) / len(cols); avail < colWidth && avail >= 6 {
		colWidth = avail
	}

	var b strings.Builder
	b.WriteString("  ")
	for _, c := range cols {
		b.WriteString(labelStyle.Render(pad(c, colWidth)))
	}
	b.WriteString("\n")

	for _, row := range m.Pending.PreviewRows {
		b.WriteString("  ")
		for _, c := range cols {
			b.WriteString(pad(row[c], colWidth))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-2]) + "… "
	}
	return s + strings.Repeat(" ", width-len(runes))
}

func (m AppModel) viewDashboard() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	var content string
	switch m.Tab {
	case TabGraph:
		content = m.viewGraph()
	case TabMetrics:
		content = m.viewMetrics()
	case TabBottlenecks:
		content = m.viewBottlenecks()
	default:
		content = m.viewVariants()
	}

	if m.ShowFilters {
		_, _, _, height := m.contentGeometry()
		panel := panelStyle.Width(filterPanelWidth - 4).Height(height - 2).Render(m.renderFilterPanel())
		content = lipgloss.JoinHorizontal(lipgloss.Top, panel, content)
	}
	b.WriteString(content)
	return b.String()
}

func (m AppModel) renderTabs() string {
	session := m.Store.Session()
	names := []string{"[1] graph", "[2] metrics", "[3] bottlenecks", "[4] variants"}
	parts := make([]string, 0, len(names)+1)
	for i, name := range names {
		if Tab(i) == m.Tab {
			parts = append(parts, tabActiveStyle.Render(name))
		} else {
			parts = append(parts, tabStyle.Render(name))
		}
	}

	var status string
	if session != nil {
		status = dimStyle.Render(fmt.Sprintf("  %d cases · %d events", session.CaseCount, session.EventCount))
		if m.Store.HasFilters() {
			status += warnStyle.Render("  " + model.IconFiltered + " filtered")
		}
		if sel := m.Store.SelectedNode(); sel != nil {
			status += labelStyle.Render(fmt.Sprintf("  %s (%d)", sel.Label, sel.Frequency))
		}
	}
	return strings.Join(parts, "") + status
}

func (m AppModel) viewGraph() string {
	switch {
	case m.Store.Loading(store.TargetGraph):
		return "\n  discovering process graph...\n"
	case m.GraphErr != "":
		return "\n  " + errorStyle.Render(model.IconError+" "+m.GraphErr) + "\n"
	case m.Layout == nil:
		return "\n  " + dimStyle.Render("no graph yet") + "\n"
	}

	// Sentinel framing is optional, so emptiness means no real activities,
	// not "two nodes or fewer".
	activities := 0
	for _, n := range m.Layout.Diagram.Nodes {
		if !n.IsSpecial {
			activities++
		}
	}
	if activities == 0 {
		return "\n  " + dimStyle.Render("No events match the current filters.") + "\n"
	}

	var selectedID string
	if sel := m.Store.SelectedNode(); sel != nil {
		selectedID = sel.ID
	}
	lines := graph.RenderFrame(m.Layout, m.Viewport, selectedID, m.Hovered)

	status := fmt.Sprintf("%s layout · zoom %.0f%% · %d activities · %d transitions",
		m.Layout.Method, m.Viewport.Zoom*100,
		activities, len(m.Layout.Diagram.Edges))
	if m.Layout.Diagram.DroppedEdges > 0 {
		status += fmt.Sprintf(" · %d dangling dropped", m.Layout.Diagram.DroppedEdges)
	}

	return strings.Join(lines, "\n") + "\n" + dimStyle.Render(" "+status)
}

func (m AppModel) viewMetrics() string {
	switch {
	case m.Store.Loading(store.TargetMetrics):
		return "\n  computing metrics...\n"
	case m.MetricsErr != "":
		return "\n  " + errorStyle.Render(model.IconError+" "+m.MetricsErr) + "\n"
	case m.Metrics == nil:
		return "\n  " + dimStyle.Render("no metrics yet") + "\n"
	}

	mt := m.Metrics
	var b strings.Builder
	b.WriteString("\n")
	rows := []struct {
		name  string
		value string
	}{
		{"total cases", fmt.Sprintf("%d", mt.TotalCases)},
		{"total events", fmt.Sprintf("%d", mt.TotalEvents)},
		{"distinct activities", fmt.Sprintf("%d", mt.TotalActivities)},
		{"avg case duration", formatDuration(mt.AvgCaseDuration)},
		{"median case duration", formatDuration(mt.MedianCaseDuration)},
		{"min case duration", formatDuration(mt.MinCaseDuration)},
		{"max case duration", formatDuration(mt.MaxCaseDuration)},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %-22s %s\n", row.name, labelStyle.Render(row.value)))
	}
	return b.String()
}

func (m AppModel) viewBottlenecks() string {
	switch {
	case m.Store.Loading(store.TargetBottlenecks):
		return "\n  analyzing transitions...\n"
	case m.BottleneckErr != "":
		return "\n  " + errorStyle.Render(model.IconError+" "+m.BottleneckErr) + "\n"
	case m.Bottlenecks == nil:
		return "\n  " + dimStyle.Render("no analysis yet") + "\n"
	case len(m.Bottlenecks.Bottlenecks) == 0:
		return "\n  " + dimStyle.Render("No bottlenecks found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-40s %12s %10s %8s\n", "transition", "avg wait", "impact", "count")))
	for i, bn := range m.Bottlenecks.Bottlenecks {
		line := fmt.Sprintf("  %-40s %12s %9.1f%% %8d",
			pad(bn.Source+" "+model.IconStartAct+" "+bn.Target, 40),
			formatDuration(bn.AvgDuration), bn.ImpactScore, bn.Count)
		if i == m.BottleneckRow {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m AppModel) viewVariants() string {
	switch {
	case m.Store.Loading(store.TargetMetrics):
		return "\n  computing variants...\n"
	case m.MetricsErr != "":
		return "\n  " + errorStyle.Render(model.IconError+" "+m.MetricsErr) + "\n"
	case m.Metrics == nil || len(m.Metrics.TopVariants) == 0:
		return "\n  " + dimStyle.Render("no variants yet") + "\n"
	}

	selected := m.Store.SelectedVariant()
	var b strings.Builder
	b.WriteString("\n")
	for i, v := range m.Metrics.TopVariants {
		marker := "  "
		if selected != nil && selected.Equal(v) {
			marker = stepDoneStyle.Render(model.IconOK + " ")
		}
		line := fmt.Sprintf("%s#%-2d %5.1f%%  %4d cases  %s",
			marker, i+1, v.Percentage, v.Count, strings.Join(v.Activities, " "+model.IconStartAct+" "))
		if i == m.VariantRow {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m AppModel) renderFilterPanel() string {
	session := m.Store.Session()
	var b strings.Builder
	b.WriteString(labelStyle.Render("Filters"))
	b.WriteString("\n\n")

	cursor := func(row int) string {
		if m.FilterRow == row {
			return stepActiveStyle.Render("❯ ")
		}
		return "  "
	}
	b.WriteString(cursor(0) + "from " + m.DateStart.View() + "\n")
	b.WriteString(cursor(1) + "to   " + m.DateEnd.View() + "\n\n")
	b.WriteString(dimStyle.Render("  exclude activities") + "\n")

	if session != nil {
		for i, a := range session.Activities {
			mark := "☐"
			if m.FilterForm.Excluded(a) {
				mark = warnStyle.Render(model.IconFiltered)
			}
			line := cursor(2+i) + mark + " " + a
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n")
	if m.FilterForm.CanApply() || m.DateStart.Value() != "" || m.DateEnd.Value() != "" {
		b.WriteString(stepDoneStyle.Render("enter apply"))
	} else {
		b.WriteString(dimStyle.Render("enter apply"))
	}
	if m.Store.HasFilters() {
		b.WriteString(dimStyle.Render(" · ctrl+x clear"))
	}
	b.WriteString(dimStyle.Render(" · esc close"))
	return b.String()
}

func (m AppModel) footerHelp() string {
	switch {
	case m.ShowFilters:
		return " ↑/↓ move · space toggle · enter apply · ctrl+x clear · esc close"
	case m.Step == StepUpload:
		return " type or drop a file path · enter upload · ? help · esc quit"
	case m.Step == StepMapping:
		return " ↑/↓ role · ←/→ column · enter confirm · esc cancel · q quit"
	case m.Tab == TabGraph:
		return " +/- zoom · arrows pan · 0 fit · r reset · tab hover · enter select · f filters · n new · q quit"
	default:
		return " ↑/↓ move · enter select · 1-4 tabs · f filters · n new analysis · q quit"
	}
}

// formatDuration renders a duration in seconds at a human scale.
func formatDuration(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0s"
	case seconds < 60:
		return fmt.Sprintf("%.0fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%.1fh", seconds/3600)
	default:
		return fmt.Sprintf("%.1fd", seconds/86400)
	}
}

func (m AppModel) renderHelpDialog() string {
	w, h := m.WindowSize.Width, m.WindowSize.Height
	if w < 20 || h < 10 {
		return "Window too small"
	}

	helpWidth := w * 60 / 100
	if helpWidth < 44 {
		helpWidth = 44
	}
	if helpWidth > w-4 {
		helpWidth = w - 4
	}

	content := strings.Join([]string{
		titleStyle.Render("procmap keys"),
		"",
		"upload     enter upload · esc quit",
		"mapping    ↑/↓ role · ←/→ column · enter confirm · esc cancel",
		"dashboard  1-4 or g/m/b/v tabs · n new analysis",
		"graph      +/- zoom · arrows pan · 0 fit · r reset layout",
		"           tab cycle hover · enter or click select",
		"filters    f open · space toggle · enter apply · ctrl+x clear",
		"",
		"any key closes this help",
	}, "\n")

	dialog := lipgloss.NewStyle().
		Width(helpWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1).
		Render(content)

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dialog)
}
