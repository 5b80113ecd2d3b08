package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procmap/internal/model"
	"procmap/internal/store"
)

func testModel() AppModel {
	m := InitialModel(nil, "")
	m.WindowSize = tea.WindowSizeMsg{Width: 100, Height: 40}
	return m
}

func apply(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(AppModel)
	require.True(t, ok)
	return out, cmd
}

func testPending() model.PendingUpload {
	return model.PendingUpload{
		TempID:   "tmp-1",
		Columns:  []string{"case_id", "activity", "timestamp"},
		RowCount: 3,
	}
}

func testSession() model.Session {
	return model.Session{
		ID:         "s-1",
		CaseCount:  2,
		EventCount: 5,
		Activities: []string{"Approve", "Register", "Ship"},
	}
}

func testGraph() model.ProcessGraph {
	return model.ProcessGraph{
		Nodes: []model.GraphNode{
			{ID: model.StartNodeID, Label: "Start", IsSpecial: true},
			{ID: "Register", Label: "Register", Frequency: 2},
			{ID: model.EndNodeID, Label: "End", IsSpecial: true},
		},
		Edges: []model.GraphEdge{
			{Source: model.StartNodeID, Target: "Register", Weight: 2},
			{Source: "Register", Target: model.EndNodeID, Weight: 2},
		},
	}
}

func TestPreviewReadyMovesToMappingWithDetectedColumns(t *testing.T) {
	m := testModel()
	m.Phase = PhaseUploading

	m, _ = apply(t, m, msgPreviewReady{pending: testPending()})

	assert.Equal(t, StepMapping, m.Step)
	assert.Equal(t, PhasePreviewReady, m.Phase)
	require.NotNil(t, m.Pending)
	assert.Equal(t, "case_id", m.Mapping.CaseID)
	assert.Equal(t, "activity", m.Mapping.Activity)
	assert.Equal(t, "timestamp", m.Mapping.Timestamp)
	assert.True(t, m.Mapping.Complete())
}

func TestPreviewReadyIgnoredWhenNotUploading(t *testing.T) {
	m := testModel()

	m, _ = apply(t, m, msgPreviewReady{pending: testPending()})

	assert.Equal(t, StepUpload, m.Step)
	assert.Nil(t, m.Pending)
}

func TestPreviewErrorStaysOnUpload(t *testing.T) {
	m := testModel()
	m.Phase = PhaseUploading

	m, _ = apply(t, m, msgPreviewReady{err: "boom"})

	assert.Equal(t, StepUpload, m.Step)
	assert.Equal(t, PhaseIdle, m.Phase)
	assert.Equal(t, "boom", m.UploadErr)
}

func TestSessionReadyEntersDashboardAndFetches(t *testing.T) {
	m := testModel()
	m.Phase = PhaseSubmitting
	m.Pending = &model.PendingUpload{TempID: "tmp-1"}

	m, cmd := apply(t, m, msgSessionReady{session: testSession()})

	assert.Equal(t, StepDashboard, m.Step)
	assert.Equal(t, TabGraph, m.Tab)
	assert.Nil(t, m.Pending)
	require.NotNil(t, m.Store.Session())
	assert.Equal(t, "s-1", m.Store.Session().ID)
	assert.True(t, m.Store.Loading(store.TargetGraph))
	assert.True(t, m.Store.Loading(store.TargetMetrics))
	assert.True(t, m.Store.Loading(store.TargetBottlenecks))
	assert.NotNil(t, cmd)
}

func TestSessionErrorPreservesMappingForRetry(t *testing.T) {
	m := testModel()
	m.Phase = PhaseSubmitting
	m.Step = StepMapping
	pending := testPending()
	m.Pending = &pending
	m.Mapping = model.ColumnMapping{CaseID: "case_id", Activity: "activity", Timestamp: "timestamp"}

	m, _ = apply(t, m, msgSessionReady{err: "missing required columns"})

	assert.Equal(t, StepMapping, m.Step)
	assert.Equal(t, PhasePreviewReady, m.Phase)
	assert.Equal(t, "case_id", m.Mapping.CaseID)
	assert.Equal(t, "missing required columns", m.UploadErr)
}

func TestStaleGraphResponseIsDiscarded(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	m.Step = StepDashboard

	gen1 := m.Store.BeginFetch(store.TargetGraph)
	gen2 := m.Store.BeginFetch(store.TargetGraph)

	m, _ = apply(t, m, msgGraphFetched{gen: gen1, graph: testGraph()})
	assert.Nil(t, m.Layout)
	assert.True(t, m.Store.Loading(store.TargetGraph))

	m, _ = apply(t, m, msgGraphFetched{gen: gen2, graph: testGraph()})
	require.NotNil(t, m.Layout)
	assert.False(t, m.Store.Loading(store.TargetGraph))
}

func TestGraphErrorScopedToGraphView(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	gen := m.Store.BeginFetch(store.TargetGraph)

	m, _ = apply(t, m, msgGraphFetched{gen: gen, err: "backend unreachable"})

	assert.Equal(t, "backend unreachable", m.GraphErr)
	assert.Empty(t, m.MetricsErr)
	assert.Empty(t, m.BottleneckErr)
}

func TestMappingCycleWrapsThroughUnset(t *testing.T) {
	m := testModel()
	pending := testPending()
	m.Pending = &pending
	m.Mapping = model.ColumnMapping{}
	m.MappingRow = 0

	m.cycleMapping(1)
	assert.Equal(t, "case_id", m.Mapping.CaseID)
	m.cycleMapping(-1)
	assert.Equal(t, "", m.Mapping.CaseID)
	m.cycleMapping(-1)
	assert.Equal(t, "timestamp", m.Mapping.CaseID)
}

func TestMappingEnterGatedOnCompleteness(t *testing.T) {
	m := testModel()
	m.Step = StepMapping
	m.Phase = PhasePreviewReady
	pending := testPending()
	m.Pending = &pending
	m.Mapping = model.ColumnMapping{CaseID: "case_id"} // incomplete

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, PhasePreviewReady, m.Phase)
}

func TestVariantToggleFromKeyboard(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	m.Step = StepDashboard
	m.Tab = TabVariants
	m.Metrics = &model.Metrics{
		TopVariants: []model.Variant{
			{Activities: []string{"Register", "Ship"}, Count: 1, Percentage: 50},
			{Activities: []string{"Register", "Approve", "Ship"}, Count: 1, Percentage: 50},
		},
	}

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.Store.SelectedVariant())
	assert.Equal(t, []string{"Register", "Ship"}, m.Store.SelectedVariant().Activities)

	// Same variant again clears the selection.
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.Store.SelectedVariant())
}

func TestGraphViewWithoutSentinels(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	m.Step = StepDashboard

	// A backend may serve a graph without the synthetic endpoints; two
	// real activities are a populated graph, not an empty one.
	g := model.ProcessGraph{
		Nodes: []model.GraphNode{
			{ID: "A", Label: "A", Frequency: 2},
			{ID: "B", Label: "B", Frequency: 2},
		},
		Edges: []model.GraphEdge{{Source: "A", Target: "B", Weight: 2}},
	}
	gen := m.Store.BeginFetch(store.TargetGraph)
	m, _ = apply(t, m, msgGraphFetched{gen: gen, graph: g})

	view := m.viewGraph()
	assert.NotContains(t, view, "No events match")
	assert.Contains(t, view, "2 activities")
}

func TestGraphViewEmptyWhenOnlySentinelsRemain(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	m.Step = StepDashboard

	g := model.ProcessGraph{
		Nodes: []model.GraphNode{
			{ID: model.StartNodeID, Label: "Start", IsSpecial: true},
			{ID: model.EndNodeID, Label: "End", IsSpecial: true},
		},
	}
	gen := m.Store.BeginFetch(store.TargetGraph)
	m, _ = apply(t, m, msgGraphFetched{gen: gen, graph: g})

	assert.Contains(t, m.viewGraph(), "No events match")
}

func TestStepIndicatorClickZoneMatchesLabel(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	m.Step = StepDashboard

	width := m.uploadStepWidth()
	require.Greater(t, width, 0)

	outside := tea.MouseMsg{X: width + 3, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m, _ = apply(t, m, outside)
	assert.Equal(t, StepDashboard, m.Step)

	inside := tea.MouseMsg{X: width - 1, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m, _ = apply(t, m, inside)
	assert.Equal(t, StepUpload, m.Step)
	assert.Nil(t, m.Store.Session())
}

func TestNewAnalysisResetsEverything(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	m.Step = StepDashboard
	m.Metrics = &model.Metrics{TotalCases: 2}
	m.Store.SelectNode(model.NodeSelection{ID: "Register"})
	m.Activity.Logf("old entry")

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.Equal(t, StepUpload, m.Step)
	assert.Nil(t, m.Store.Session())
	assert.Nil(t, m.Store.SelectedNode())
	assert.Nil(t, m.Metrics)
	assert.Empty(t, m.Activity.Entries())
}

func TestFilterApplyRefetchesGraph(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	m.Step = StepDashboard

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	require.True(t, m.ShowFilters)

	// Move to the first activity row and exclude it.
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	assert.True(t, m.FilterForm.Excluded("Approve"))

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.ShowFilters)
	assert.True(t, m.Store.HasFilters())
	assert.Equal(t, []string{"Approve"}, m.Store.Filters().ExcludedActivities)
	assert.NotNil(t, cmd)
	assert.True(t, m.Store.Loading(store.TargetGraph))
}

func TestFilterApplyDisabledWhenEmpty(t *testing.T) {
	m := testModel()
	m.Store.SetSession(testSession())
	m.Step = StepDashboard
	m.ShowFilters = true

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.ShowFilters)
	assert.Nil(t, cmd)
	assert.False(t, m.Store.HasFilters())
}
