package server

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/repaso/internal/llm"
	"github.com/abhisek/repaso/internal/store"
	"github.com/abhisek/repaso/internal/study"
)

// APIError is the body of an error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps every error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// fail maps err to a status code and writes the envelope. Internal errors
// are logged and their message replaced.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	var rl *llm.ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
		if status == http.StatusInternalServerError {
			err = errors.New("internal server error")
		}
	}
	_ = c.Error(err)
	respondError(c, status, code, err)
}

func classify(err error) (int, string) {
	var (
		ierr *study.InputError
		rl   *llm.ErrRateLimit
		auth *llm.ErrAuth
		down *llm.ErrProviderUnavailable
		bad  *llm.ErrInvalidResponse
		req  *llm.ErrBadRequest
	)
	switch {
	case errors.As(err, &ierr):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &rl):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.As(err, &auth):
		return http.StatusBadGateway, "llm_auth"
	case errors.As(err, &req):
		return http.StatusBadGateway, "llm_rejected"
	case errors.As(err, &down), errors.As(err, &bad):
		return http.StatusBadGateway, "llm_unavailable"
	case errors.Is(err, study.ErrGenerationDisabled):
		return http.StatusServiceUnavailable, "generation_disabled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
