// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockbackend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
)

// Route paths, matching the client's default endpoints.
const (
	PathLogin       = "/bank/auth/login"
	PathIncidents   = "/bank/incidents"
	PathLogIncident = "/bank/log-incident"
	PathChat        = "/bank/chat"
)

// MaxRequestBodySize caps request bodies (64KB).
const MaxRequestBodySize = 64 * 1024

// Server is the stand-in webhook service.
type Server struct {
	cfg    Config
	store  *Store
	log    *slog.Logger
	now    func() time.Time
	engine *gin.Engine
}

// New builds the server and its routes.
func New(cfg Config, store *Store, log *slog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		log:   logging.OrDiscard(log).With("component", "socmock"),
		now:   time.Now,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), securityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	r.POST(PathLogin, s.handleLogin)
	api := r.Group("/bank", s.requireToken())
	api.GET("/incidents", s.handleListIncidents)
	api.POST("/log-incident", s.handleLogIncident)
	api.POST("/chat", s.handleChat)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.cfg.Addr, "db", s.cfg.Database.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		s.log.Info("server stopped")
		return nil
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", c.GetHeader("X-Request-ID"),
			"duration", time.Since(start),
		)
	}
}

// securityHeaders sets the response headers every route shares and caps the
// request body.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize)
		}
		c.Next()
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req backend.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	u, err := s.authenticate(c.Request.Context(), strings.TrimSpace(req.Username), req.Password, req.OTP)
	switch {
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrOTPRequired), errors.Is(err, ErrOTPInvalid):
		s.log.Warn("login.failed", "username", req.Username, "reason", err)
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	case err != nil:
		s.log.Error("login.error", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login unavailable"})
		return
	}

	token, err := s.issueToken(u)
	if err != nil {
		s.log.Error("login.token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login unavailable"})
		return
	}
	s.log.Info("login.ok", "username", u.Username, "role", u.Role)
	c.JSON(http.StatusOK, backend.LoginResponse{
		Token: token,
		User:  &backend.UserRecord{ID: backend.FlexString(u.Username), Name: u.Name, Role: u.Role},
	})
}

func (s *Server) handleListIncidents(c *gin.Context) {
	list, err := s.store.ListIncidents(c.Request.Context())
	if err != nil {
		s.log.Error("incidents.list", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "feed unavailable"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleLogIncident(c *gin.Context) {
	var req backend.IncidentReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title is required"})
		return
	}

	inc, err := s.store.AddIncident(c.Request.Context(), Incident{
		Title:     strings.TrimSpace(req.Title),
		Severity:  req.Severity,
		Status:    req.Status,
		CreatedAt: timestamp(s.now()),
	})
	if err != nil {
		s.log.Error("incidents.add", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "log failed"})
		return
	}
	s.log.Info("incidents.add", "id", inc.ID, "severity", inc.Severity, "by", c.GetString("user"))
	c.JSON(http.StatusCreated, inc)
}

func (s *Server) handleChat(c *gin.Context) {
	var req backend.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "message is required"})
		return
	}
	s.log.Info("chat", "event", req.Event, "user", req.User, "role", req.Role)

	if s.cfg.Reply == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, backend.ChatReply{Reply: strings.ReplaceAll(s.cfg.Reply, "{user}", req.User)})
}
