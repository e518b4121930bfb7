package control

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsx/domain"
	"newsx/internal/api"
	"newsx/internal/logger"
)

var ErrAlreadyRunning = errors.New("already running")

// TryListen tries to bind the control address. If it's already in use, we assume an instance is running.
func TryListen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ErrAlreadyRunning
	}
	return ln, nil
}

type Server struct {
	sched domain.Scheduler
	api   *api.Handler
	log   logger.Interface
}

// NewServer builds the control server. apiHandler may be nil, in which case
// the read API is not mounted.
func NewServer(sched domain.Scheduler, apiHandler *api.Handler, log logger.Interface) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{sched: sched, api: apiHandler, log: log}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(s.log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/crawl", s.handleCrawl)
	router.POST("/set-interval", s.handleSetInterval)
	router.POST("/set-concurrency", s.handleSetConcurrency)

	if s.api != nil {
		s.api.Register(router.Group("/api/v1"))
	}
	return router
}

// HTTPServer wraps the router for serving on a listener from TryListen.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// handleCrawl acknowledges at once; the cycle outcome only reaches logs and
// metrics.
func (s *Server) handleCrawl(c *gin.Context) {
	s.sched.Trigger()
	s.log.Info("crawl triggered", "client_ip", c.ClientIP())
	c.JSON(http.StatusAccepted, gin.H{"status": "initiated"})
}

func (s *Server) handleSetInterval(c *gin.Context) {
	var req struct {
		Duration string `json:"duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil || d <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid duration %q", req.Duration)})
		return
	}

	old := s.sched.CurrentInterval()
	s.sched.SetInterval(d)
	s.log.Info("interval changed", "old", old, "new", d)
	c.JSON(http.StatusOK, gin.H{"ok": true, "old": old.String(), "new": d.String()})
}

type concurrency struct {
	Feeds int `json:"feeds"`
	Items int `json:"items"`
}

func (s *Server) handleSetConcurrency(c *gin.Context) {
	var req concurrency
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	oldFeeds, oldItems := s.sched.CurrentConcurrency()
	if err := s.sched.SetConcurrency(req.Feeds, req.Items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("concurrency changed", "feeds", req.Feeds, "items", req.Items)
	c.JSON(http.StatusOK, gin.H{
		"ok":  true,
		"old": concurrency{Feeds: oldFeeds, Items: oldItems},
		"new": req,
	})
}

func ginLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Debug("HTTP request",
			"method", method,
			"path", path,
			"status_code", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"duration", time.Since(start),
		)
	}
}
