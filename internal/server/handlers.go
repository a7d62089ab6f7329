package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/repaso/internal/ingest"
	"github.com/abhisek/repaso/internal/store"
	"github.com/abhisek/repaso/internal/study"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"model_loaded": s.svc.ModelLoaded(),
	})
}

func (s *Server) uploadMaterial(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(c, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Errorf("file exceeds %d bytes", tooBig.Limit))
			return
		}
		s.fail(c, &study.InputError{Field: "file", Message: "a multipart file field is required", Err: err})
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := s.svc.IngestFile(c.Request.Context(), ingest.Source{
		Filename: fh.Filename,
		MIME:     fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res.Material)
}

func (s *Server) listMaterials(c *gin.Context) {
	ms, err := s.svc.Materials(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ms)
}

func (s *Server) getMaterial(c *gin.Context) {
	m, err := s.svc.Material(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) deleteMaterial(c *gin.Context) {
	if err := s.svc.DeleteMaterial(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) generateQuestions(c *gin.Context) {
	var req study.GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			s.fail(c, &study.InputError{Message: "invalid JSON body", Err: err})
			return
		}
	}
	report, err := s.svc.GenerateQuestions(c.Request.Context(), c.Param("id"), req, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) listQuestions(c *gin.Context) {
	qs, err := s.svc.Questions(c.Request.Context(), store.QuestionFilter{
		MaterialID: c.Query("material_id"),
		Type:       c.Query("type"),
		Difficulty: c.Query("difficulty"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, qs)
}

func (s *Server) validateAnswer(c *gin.Context) {
	var req study.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, &study.InputError{Message: "invalid JSON body", Err: err})
		return
	}
	res, err := s.svc.ValidateAnswer(c.Request.Context(), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type reviewRequest struct {
	QuestionID string `json:"question_id"`
	Quality    *int   `json:"quality"`
}

func (s *Server) recordReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, &study.InputError{Message: "invalid JSON body", Err: err})
		return
	}
	if req.Quality == nil {
		s.fail(c, &study.InputError{Field: "quality", Message: "is required"})
		return
	}
	rs, err := s.svc.RecordReview(c.Request.Context(), userID(c), req.QuestionID, *req.Quality)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (s *Server) dueReviews(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.fail(c, &study.InputError{Field: "limit", Message: "must be an integer", Err: err})
			return
		}
		limit = n
	}
	due, err := s.svc.Due(c.Request.Context(), userID(c), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, due)
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.svc.Stats(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
