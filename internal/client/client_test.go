package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procmap/internal/model"
)

func TestPreviewUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/preview", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "events.csv", hdr.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"temp_id":"t-1","columns":["CaseID","Activity","Time"],"preview_rows":[{"CaseID":"1"}],"row_count":42}`))
	}))
	defer srv.Close()

	var milestones []int
	c := New(srv.URL)
	pending, err := c.PreviewUpload(context.Background(), "events.csv",
		strings.NewReader("CaseID,Activity,Time\n1,a,2024-01-01\n"),
		func(pct int) { milestones = append(milestones, pct) })

	require.NoError(t, err)
	assert.Equal(t, "t-1", pending.TempID)
	assert.Equal(t, []string{"CaseID", "Activity", "Time"}, pending.Columns)
	assert.Equal(t, 42, pending.RowCount)
	require.NotEmpty(t, milestones)
	assert.Equal(t, 100, milestones[len(milestones)-1])
}

func TestConfirmMappingSendsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/confirm", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "t-1", q.Get("temp_id"))
		assert.Equal(t, "CaseID", q.Get("case_id_column"))
		assert.Equal(t, "Activity", q.Get("activity_column"))
		assert.Equal(t, "Time", q.Get("timestamp_column"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_id":"s-1","case_count":3,"event_count":9,"activities":["a","b"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	session, err := c.ConfirmMapping(context.Background(), "t-1", model.ColumnMapping{
		CaseID: "CaseID", Activity: "Activity", Timestamp: "Time",
	})

	require.NoError(t, err)
	assert.Equal(t, "s-1", session.ID)
	assert.Equal(t, 3, session.CaseCount)
	assert.Equal(t, 9, session.EventCount)
}

func TestDiscoverGraphEncodesFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/discover/s-1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2024-01-01", q.Get("date_start"))
		assert.Equal(t, "2024-02-01", q.Get("date_end"))
		assert.Equal(t, []string{"Ship", "Refund"}, q["excluded_activities"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"nodes":[{"id":"a","label":"a","frequency":5}],"edges":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	graph, err := c.DiscoverGraph(context.Background(), "s-1", model.FilterCriteria{
		DateStart:          "2024-01-01",
		DateEnd:            "2024-02-01",
		ExcludedActivities: []string{"Ship", "Refund"},
	})

	require.NoError(t, err)
	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, 5, graph.Nodes[0].Frequency)
}

func TestErrorDetailExtracted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"CSV file missing required columns: case_id"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Metrics(context.Background(), "s-1")

	require.Error(t, err)
	assert.Equal(t, "CSV file missing required columns: case_id", err.Error())
}

func TestErrorWithoutDetailFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Bottlenecks(context.Background(), "s-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
