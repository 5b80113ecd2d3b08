package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"procmap/internal/client"
	"procmap/internal/graph"
	"procmap/internal/model"
	"procmap/internal/store"
)

// Step is the coarse workflow position: upload until a file previews,
// mapping until a session exists, dashboard afterwards.
type Step int

const (
	StepUpload Step = iota
	StepMapping
	StepDashboard
)

// Tab selects the visible dashboard view. Tabs are only reachable while a
// session is active.
type Tab int

const (
	TabGraph Tab = iota
	TabMetrics
	TabBottlenecks
	TabVariants
)

// UploadPhase is the upload orchestrator state machine. SessionReady has
// no phase of its own: reaching it switches Step to StepDashboard.
type UploadPhase int

const (
	PhaseIdle UploadPhase = iota
	PhaseUploading
	PhasePreviewReady
	PhaseSubmitting
)

// AppModel holds the TUI state.
type AppModel struct {
	Client   *client.Client
	Store    *store.Store
	Activity *store.ActivityLog

	// OnBottleneckSelect is an optional event sink invoked when a
	// bottleneck row is chosen. Hosts may leave it nil.
	OnBottleneckSelect func(model.Bottleneck)

	Step  Step
	Phase UploadPhase

	// Upload / mapping state
	FileInput  textinput.Model
	Spinner    spinner.Model
	UploadErr  string
	Pending    *model.PendingUpload
	Mapping    model.ColumnMapping
	MappingRow int // 0 case id, 1 activity, 2 timestamp

	// Dashboard state
	Tab         Tab
	ShowFilters bool
	FilterForm  store.FilterForm
	FilterRow   int // 0 date start, 1 date end, 2.. activity exclusions
	DateStart   textinput.Model
	DateEnd     textinput.Model

	// Graph view
	Layout   *graph.Layout
	Viewport *graph.Viewport
	GraphErr string
	Hovered  int // node index under the mouse, -1 for none
	needsFit bool

	// Metrics / bottlenecks / variants views
	Metrics       *model.Metrics
	MetricsErr    string
	Bottlenecks   *model.BottleneckReport
	BottleneckErr string
	BottleneckRow int
	VariantRow    int

	ShowHelp   bool
	WindowSize tea.WindowSizeMsg
}

// InitialModel returns the initial state.
func InitialModel(c *client.Client, activityLogPath string) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Path to event log (.csv or .xes)..."
	ti.CharLimit = 512
	ti.Width = 48
	ti.Focus()

	ds := textinput.New()
	ds.Placeholder = "YYYY-MM-DD"
	ds.CharLimit = 10
	ds.Width = 12
	de := textinput.New()
	de.Placeholder = "YYYY-MM-DD"
	de.CharLimit = 10
	de.Width = 12

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return AppModel{
		Client:    c,
		Store:     store.New(),
		Activity:  store.NewActivityLog(activityLogPath),
		FileInput: ti,
		DateStart: ds,
		DateEnd:   de,
		Spinner:   sp,
		Hovered:   -1,
	}
}

func (m AppModel) Init() tea.Cmd {
	return textinput.Blink
}

// Geometry of the dashboard content area: rows above it hold the title,
// step indicator and tab bar; rows below hold the footer. The filter
// panel, when open, claims a fixed left column.
const (
	headerRows       = 3
	footerRows       = 2
	filterPanelWidth = 34
)

func (m *AppModel) contentGeometry() (top, left, width, height int) {
	top = headerRows
	left = 0
	if m.ShowFilters {
		left = filterPanelWidth
	}
	width = m.WindowSize.Width - left
	height = m.WindowSize.Height - headerRows - footerRows
	if width < 10 {
		width = 10
	}
	if height < 4 {
		height = 4
	}
	return top, left, width, height
}

// syncViewport sizes the graph viewport to the current content area.
func (m *AppModel) syncViewport() {
	_, _, width, height := m.contentGeometry()
	// One row is reserved for the graph status line.
	height--
	if height < 3 {
		height = 3
	}
	if m.Viewport == nil {
		m.Viewport = graph.NewViewport(width, height)
		return
	}
	m.Viewport.Cols = width
	m.Viewport.Rows = height
}
