package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"procmap/internal/model"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "procmap analysis server is running"})
}

// readUpload pulls the multipart file out of the request and validates
// its extension. Malformed content is caught later by the parsers.
func (s *Server) readUpload(c *gin.Context) (filename string, content []byte, ok bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "no file provided"})
		return "", nil, false
	}
	filename = strings.ToLower(file.Filename)
	if !strings.HasSuffix(filename, ".csv") && !strings.HasSuffix(filename, ".xes") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid file format. Only CSV and XES files are supported."})
		return "", nil, false
	}
	if file.Size > int64(s.cfg.MaxUploadMB)<<20 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file exceeds the upload size limit"})
		return "", nil, false
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return "", nil, false
	}
	defer f.Close()
	content, err = io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return "", nil, false
	}
	return filename, content, true
}

// handleUpload ingests a file whose columns already use the canonical
// names (case_id, activity, timestamp) and creates a session directly.
func (s *Server) handleUpload(c *gin.Context) {
	filename, content, ok := s.readUpload(c)
	if !ok {
		return
	}

	var (
		log *eventLog
		err error
	)
	if strings.HasSuffix(filename, ".xes") {
		log, err = parseXES(filename, content)
	} else {
		log, err = parseCSV(filename, content, model.ColumnMapping{
			CaseID: "case_id", Activity: "activity", Timestamp: "timestamp",
		})
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.respondSession(c, log)
}

// handlePreview stores the raw file under a temp id and returns its
// columns and a few rows for the mapping step. XES files skip mapping, so
// preview applies to CSV only.
func (s *Server) handlePreview(c *gin.Context) {
	filename, content, ok := s.readUpload(c)
	if !ok {
		return
	}

	if strings.HasSuffix(filename, ".xes") {
		// XES names its own fields; confirm immediately with an empty
		// column set so the front-end can proceed without a mapping.
		log, err := parseXES(filename, content)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		tempID := s.storePending(pendingFile{Filename: filename, Content: content})
		c.JSON(http.StatusOK, model.PendingUpload{
			TempID:      tempID,
			Columns:     []string{"case_id", "activity", "timestamp"},
			PreviewRows: []map[string]string{},
			RowCount:    log.eventCount(),
		})
		return
	}

	columns, rows, total, err := readColumns(content, s.cfg.PreviewRows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	tempID := s.storePending(pendingFile{Filename: filename, Content: content})
	c.JSON(http.StatusOK, model.PendingUpload{
		TempID:      tempID,
		Columns:     columns,
		PreviewRows: rows,
		RowCount:    total,
	})
}

// handleConfirm applies the confirmed column mapping to a previewed file
// and creates the session. The pending file is consumed only on success,
// so the user can fix the mapping and retry.
func (s *Server) handleConfirm(c *gin.Context) {
	tempID := c.Query("temp_id")
	m := model.ColumnMapping{
		CaseID:    c.Query("case_id_column"),
		Activity:  c.Query("activity_column"),
		Timestamp: c.Query("timestamp_column"),
	}
	if !m.Complete() {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "case_id_column, activity_column and timestamp_column are required"})
		return
	}

	pending, ok := s.lookupPending(tempID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "unknown or expired temp_id"})
		return
	}

	var (
		log *eventLog
		err error
	)
	if strings.HasSuffix(pending.Filename, ".xes") {
		log, err = parseXES(pending.Filename, pending.Content)
	} else {
		log, err = parseCSV(pending.Filename, pending.Content, m)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.consumePending(tempID)
	s.respondSession(c, log)
}

func (s *Server) respondSession(c *gin.Context, log *eventLog) {
	id := s.storeSession(log)
	c.JSON(http.StatusOK, model.Session{
		ID:         id,
		CaseCount:  len(log.CaseIDs),
		EventCount: log.eventCount(),
		Activities: log.activities(),
	})
}

func (s *Server) session(c *gin.Context) (*eventLog, bool) {
	log, ok := s.lookupSession(c.Param("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "unknown session_id"})
		return nil, false
	}
	return log, true
}

func (s *Server) handleDiscover(c *gin.Context) {
	log, ok := s.session(c)
	if !ok {
		return
	}

	filters := model.FilterCriteria{
		DateStart:          c.Query("date_start"),
		DateEnd:            c.Query("date_end"),
		ExcludedActivities: c.QueryArray("excluded_activities"),
		Activities:         c.QueryArray("activities"),
	}

	c.JSON(http.StatusOK, discover(applyFilters(log, filters)))
}

func (s *Server) handleMetrics(c *gin.Context) {
	log, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, computeMetrics(log, s.cfg.TopVariants))
}

func (s *Server) handleBottlenecks(c *gin.Context) {
	log, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, computeBottlenecks(log))
}
