package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/repaso/internal/config"
	"github.com/abhisek/repaso/internal/embedding"
	"github.com/abhisek/repaso/internal/grading"
	"github.com/abhisek/repaso/internal/ingest"
	"github.com/abhisek/repaso/internal/llm"
	"github.com/abhisek/repaso/internal/metrics"
	"github.com/abhisek/repaso/internal/questiongen"
	"github.com/abhisek/repaso/internal/spacedrep"
	"github.com/abhisek/repaso/internal/store"
	"github.com/abhisek/repaso/internal/study"
)

const passage = "La fotosíntesis es el proceso por el cual las plantas transforman la luz solar en energía química. " +
	"Ocurre en los cloroplastos y utiliza dióxido de carbono y agua para producir glucosa y liberar oxígeno."

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	handler http.Handler
	store   *store.Store
	token   string
}

func setup(t *testing.T, secret string, gen questiongen.Generator) *testEnv {
	t.Helper()
	st, err := store.Open(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	emb := embedding.NewHashingEncoder()
	v, err := grading.NewValidator(emb, grading.DefaultConfig())
	require.NoError(t, err)
	qcfg := questiongen.DefaultConfig()
	qcfg.Delay = 0

	m := metrics.New()
	svc := study.New(study.Deps{
		Store:     st,
		Embedder:  emb,
		Validator: v,
		Ingest:    ingest.New(emb, st, ingest.DefaultConfig(), nil),
		Generator: gen,
		Questions: qcfg,
		Metrics:   m,
	})
	cfg := config.Default().HTTP
	cfg.JWTSecret = secret
	env := &testEnv{handler: New(cfg, svc, m, nil).Handler(), store: st}
	if secret != "" {
		env.token, err = SignToken("ana", []byte(secret), time.Hour)
		require.NoError(t, err)
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case *http.Request:
		r = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(raw))
		r.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" && r.Header.Get("Authorization") == "" {
		r.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, "/api/materials/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func (e *testEnv) upload(t *testing.T) store.Material {
	t.Helper()
	w := e.do(t, http.MethodPost, "", uploadRequest(t, "fotosintesis.txt", passage))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var m store.Material
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Error
}

func TestHealth(t *testing.T) {
	e := setup(t, "", nil)
	w := e.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "model_loaded")
	assert.Contains(t, body, "timestamp")
}

func TestMaterials(t *testing.T) {
	e := setup(t, "", nil)
	m := e.upload(t)
	assert.Equal(t, "Fotosintesis", m.Title)
	assert.Equal(t, 1, m.TotalChunks)

	w := e.do(t, http.MethodGet, "/api/materials", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []store.Material
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = e.do(t, http.MethodGet, "/api/materials/"+m.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodDelete, "/api/materials/"+m.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, "/api/materials/"+m.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)
}

func TestUpload_Rejected(t *testing.T) {
	e := setup(t, "", nil)

	w := e.do(t, http.MethodPost, "", uploadRequest(t, "notas.docx", passage))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decodeError(t, w).Code)

	r := httptest.NewRequest(http.MethodPost, "/api/materials/upload", strings.NewReader("{}"))
	r.Header.Set("Content-Type", "application/json")
	w = e.do(t, http.MethodPost, "", r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateAnswer(t *testing.T) {
	e := setup(t, "", nil)
	m := e.upload(t)

	w := e.do(t, http.MethodPost, "/api/validate-answer", map[string]string{
		"material_id": m.ID,
		"question":    "¿Qué es la fotosíntesis?",
		"user_answer": passage,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		IsValid  bool   `json:"is_valid"`
		Category string `json:"category"`
		Top3     []any  `json:"top_3_scores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.IsValid)
	assert.Equal(t, "excellent", res.Category)
	assert.Len(t, res.Top3, 1)

	w = e.do(t, http.MethodPost, "/api/validate-answer", map[string]string{"question": "¿Qué?", "user_answer": passage})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/validate-answer", map[string]string{"material_id": "nope", "question": "¿Qué?", "user_answer": passage})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviews(t *testing.T) {
	e := setup(t, "", nil)
	m := e.upload(t)
	qs := []store.Question{{MaterialID: m.ID, Text: "¿Qué es la fotosíntesis?", Type: "literal", Difficulty: "low"}}
	require.NoError(t, e.store.CreateQuestions(context.Background(), qs))

	w := e.do(t, http.MethodPost, "/api/reviews", map[string]any{"question_id": qs[0].ID, "quality": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rs struct {
		UserID       string `json:"user_id"`
		IntervalDays int    `json:"interval_days"`
		Repetitions  int    `json:"repetition_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rs))
	assert.Equal(t, study.LocalUser, rs.UserID)
	assert.Equal(t, 1, rs.IntervalDays)
	assert.Equal(t, 1, rs.Repetitions)

	w = e.do(t, http.MethodPost, "/api/reviews", map[string]any{"question_id": qs[0].ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodPost, "/api/reviews", map[string]any{"question_id": qs[0].ID, "quality": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodGet, "/api/reviews/due?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/reviews/due?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = e.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Reviews)
	assert.Equal(t, 1, st.Materials)
}

func TestDueReviewsPayload(t *testing.T) {
	e := setup(t, "", nil)
	m := e.upload(t)
	ctx := context.Background()
	qs := []store.Question{{MaterialID: m.ID, Text: "¿Dónde ocurre la fotosíntesis?", Type: "literal", Difficulty: "low"}}
	require.NoError(t, e.store.CreateQuestions(ctx, qs))
	today := spacedrep.Day(time.Now())
	require.NoError(t, e.store.UpsertReview(ctx, spacedrep.ReviewState{
		UserID:       study.LocalUser,
		QuestionID:   qs[0].ID,
		EF:           spacedrep.InitialEF,
		Repetitions:  2,
		IntervalDays: 6,
		NextReview:   today.AddDate(0, 0, -5),
		LastReview:   today.AddDate(0, 0, -11),
		LastQuality:  4,
	}))

	w := e.do(t, http.MethodGet, "/api/reviews/due", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var due []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &due))
	require.Len(t, due, 1)
	assert.Equal(t, qs[0].ID, due[0]["question_id"])
	assert.Equal(t, "overdue", due[0]["status"])
	assert.EqualValues(t, 5, due[0]["days_overdue"])
	assert.Equal(t, m.ID, due[0]["material_id"])
}

func TestGenerateQuestions(t *testing.T) {
	e := setup(t, "", nil)
	m := e.upload(t)
	w := e.do(t, http.MethodPost, "/api/materials/"+m.ID+"/questions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	raw, _ := json.Marshal(map[string][]string{"questions": {"¿Por qué las plantas liberan oxígeno?"}})
	e = setup(t, "", questiongen.New(llm.NewMockProvider(llm.MockResponse{Content: raw}), questiongen.DefaultConfig()))
	m = e.upload(t)
	w = e.do(t, http.MethodPost, "/api/materials/"+m.ID+"/questions", map[string]int{"per_chunk": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report questiongen.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.QuestionsCreated)
	assert.Equal(t, store.JobCompleted, report.Status)

	w = e.do(t, http.MethodGet, "/api/questions?material_id="+m.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var qs []store.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &qs))
	require.Len(t, qs, 1)
	assert.Equal(t, "inferential", qs[0].Type)

	w = e.do(t, http.MethodGet, "/api/questions?type=essay", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth(t *testing.T) {
	e := setup(t, "s3cret", nil)

	w := e.do(t, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	r.Header.Set("Authorization", "Basic abc")
	w = e.do(t, "", "", r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Code)

	forged, err := SignToken("ana", []byte("other"), time.Hour)
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	r.Header.Set("Authorization", "Bearer "+forged)
	w = e.do(t, "", "", r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := SignToken("ana", []byte("s3cret"), -time.Minute)
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	r.Header.Set("Authorization", "Bearer "+expired)
	w = e.do(t, "", "", r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("Authorization", "Bearer junk")
	w = e.do(t, "", "", r)
	assert.Equal(t, http.StatusOK, w.Code, "health is public")
}

func TestMetricsEndpoint(t *testing.T) {
	e := setup(t, "", nil)
	e.do(t, http.MethodGet, "/api/health", nil)
	e.do(t, http.MethodGet, "/nowhere", nil)

	w := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `repaso_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
	assert.Contains(t, body, `route="unmatched",status="404"`)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&study.InputError{Message: "bad"}, http.StatusBadRequest},
		{fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("chunk 3: %w", &llm.ErrRateLimit{RetryAfter: time.Second}), http.StatusTooManyRequests},
		{&llm.ErrAuth{StatusCode: 401}, http.StatusBadGateway},
		{&llm.ErrProviderUnavailable{}, http.StatusBadGateway},
		{&llm.ErrBadRequest{StatusCode: 404}, http.StatusBadGateway},
		{study.ErrGenerationDisabled, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := classify(tt.err)
		assert.Equal(t, tt.want, got, "%v", tt.err)
	}
}

func TestFail_RetryAfterAndMasking(t *testing.T) {
	s := New(config.Default().HTTP, nil, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	s.fail(c, &llm.ErrRateLimit{RetryAfter: 1500 * time.Millisecond})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	s.fail(c, errors.New("database password leaked"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Message)
}
