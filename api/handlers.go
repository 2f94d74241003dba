package api

import (
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.runs == nil {
		respondError(c, http.StatusInternalServerError, errors.New("run store not configured"))
		return
	}

	limit := 20
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	runs, err := s.runs.List(c.Request.Context(), c.Query("model"), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s == nil || s.runs == nil {
		respondError(c, http.StatusInternalServerError, errors.New("run store not configured"))
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, errors.New("invalid run id"))
		return
	}

	run, err := s.runs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, errors.New("run not found"))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// handleGetScores serves the score table from the latest scoring pass.
func (s *Server) handleGetScores(c *gin.Context) {
	if s == nil || s.config == nil {
		respondError(c, http.StatusInternalServerError, errors.New("config not loaded"))
		return
	}

	path := filepath.Join(s.config.ResultOutputPath, "scores.csv")
	if _, err := os.Stat(path); err != nil {
		respondError(c, http.StatusNotFound, errors.New("no score table yet"))
		return
	}
	c.FileAttachment(path, "scores.csv")
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
