// Package api exposes the run history over HTTP so dashboards can pull
// past benchmark results.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/2719104587/MESBench/internal/config"
	"github.com/2719104587/MESBench/internal/history"
)

type Server struct {
	router *gin.Engine
	config *config.Config
	runs   *history.Store
}

func NewServer(cfg *config.Config, runs *history.Store) (*Server, error) {
	r := gin.New()
	s := &Server{
		router: r,
		config: cfg,
		runs:   runs,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
