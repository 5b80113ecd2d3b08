// Package server is the bundled process-mining backend: upload, preview,
// mapping confirmation, DFG discovery, metrics and bottleneck endpoints
// over in-memory sessions.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"procmap/internal/config"
)

// pendingFile is an uploaded-but-unconfirmed file awaiting its mapping.
type pendingFile struct {
	Filename string
	Content  []byte
}

// Server holds the session and pending-upload stores. Sessions live for
// the process lifetime only. gin runs handlers on concurrent goroutines,
// so both maps are guarded; an eventLog is immutable once stored.
type Server struct {
	cfg config.ServeConfig

	mu       sync.RWMutex
	sessions map[string]*eventLog
	pending  map[string]pendingFile
}

func New(cfg config.ServeConfig) *Server {
	return &Server{
		cfg:      cfg,
		sessions: make(map[string]*eventLog),
		pending:  make(map[string]pendingFile),
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	if s.cfg.AllowOrigins {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			MaxAge:          12 * time.Hour,
		}))
	}

	r.GET("/", s.handleHealth)
	r.POST("/upload", s.handleUpload)
	r.POST("/upload/preview", s.handlePreview)
	r.POST("/upload/confirm", s.handleConfirm)
	r.GET("/discover/:session_id", s.handleDiscover)
	r.GET("/metrics/:session_id", s.handleMetrics)
	r.GET("/bottlenecks/:session_id", s.handleBottlenecks)

	return r
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Router()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Printf("Starting procmap analysis server on %s\n", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) storeSession(log *eventLog) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = log
	s.mu.Unlock()
	return id
}

func (s *Server) lookupSession(id string) (*eventLog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.sessions[id]
	return log, ok
}

func (s *Server) storePending(f pendingFile) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.pending[id] = f
	s.mu.Unlock()
	return id
}

func (s *Server) lookupPending(id string) (pendingFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.pending[id]
	return f, ok
}

func (s *Server) consumePending(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}
