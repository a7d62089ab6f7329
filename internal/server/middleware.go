package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/repaso/internal/study"
)

const userKey = "user_id"

func userID(c *gin.Context) string {
	return c.GetString(userKey)
}

// authenticate requires an HS256 bearer token when a secret is
// configured. The token subject becomes the user id.
func (s *Server) authenticate() gin.HandlerFunc {
	secret := []byte(s.cfg.JWTSecret)
	return func(c *gin.Context) {
		if len(secret) == 0 {
			c.Set(userKey, study.LocalUser)
			c.Next()
			return
		}
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing bearer token"))
			return
		}
		parsed, err := jwt.Parse(tok, func(*jwt.Token) (any, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			respondError(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid token"))
			return
		}
		sub, err := parsed.Claims.GetSubject()
		if err != nil || sub == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", errors.New("token has no subject"))
			return
		}
		c.Set(userKey, sub)
		c.Next()
	}
}

func bearerToken(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// SignToken issues an HS256 token for subject, for clients and tests.
func SignToken(subject string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if u := userID(c); u != "" {
			kv = append(kv, "user_id", u)
		}
		switch {
		case status >= 500:
			s.log.Error("http request", kv...)
		case status >= 400:
			s.log.Warn("http request", kv...)
		default:
			s.log.Info("http request", kv...)
		}
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status())
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.log.Error("panic in handler", "path", c.Request.URL.Path, "panic", fmt.Sprint(rec))
		respondError(c, http.StatusInternalServerError, "internal", errors.New("internal server error"))
	})
}
