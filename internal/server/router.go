package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/warden/internal/store"
	"github.com/loykin/warden/internal/supervisor"
)

// Router provides embeddable HTTP handlers for the supervisor control surface.
// Endpoints:
//   GET  {basePath}/status        current supervisor snapshot
//   POST {basePath}/restart       terminate and relaunch the worker
//   POST {basePath}/stop          shut the supervisor down
//   GET  {basePath}/events        query: limit=50 (requires a configured store)
// basePath may be empty or start with '/'; no trailing slash.

// Controller is the subset of supervisor behavior the HTTP surface needs.
type Controller interface {
	Status() supervisor.Status
	Restart() error
	Shutdown()
}

type Router struct {
	ctl      Controller
	events   store.Store
	basePath string
}

// NewRouter constructs a Router with configurable basePath. events may be nil
// when event persistence is disabled.
func NewRouter(ctl Controller, events store.Store, basePath string) *Router {
	return &Router{ctl: ctl, events: events, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.POST("/restart", r.handleRestart)
	group.POST("/stop", r.handleStop)
	group.GET("/events", r.handleEvents)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Call Close or Shutdown on the returned server to stop it.
func NewServer(addr, basePath string, ctl Controller, events store.Store) (*http.Server, error) {
	r := NewRouter(ctl, events, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.ctl.Status())
}

func (r *Router) handleRestart(c *gin.Context) {
	if err := r.ctl.Restart(); err != nil {
		writeJSON(c, http.StatusConflict, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	// Shutdown is idempotent; a second stop is still OK.
	r.ctl.Shutdown()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleEvents(c *gin.Context) {
	if r.events == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "event store not configured"})
		return
	}
	limit := 50
	if ls := c.Query("limit"); ls != "" {
		if n, err := strconv.Atoi(ls); err == nil && n > 0 {
			limit = n
		}
	}
	name := c.Query("name")
	if name == "" {
		name = r.ctl.Status().Name
	}
	recs, err := r.events.Recent(c.Request.Context(), name, limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, recs)
}
