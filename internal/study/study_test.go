package study

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/repaso/internal/embedding"
	"github.com/abhisek/repaso/internal/grading"
	"github.com/abhisek/repaso/internal/ingest"
	"github.com/abhisek/repaso/internal/llm"
	"github.com/abhisek/repaso/internal/metrics"
	"github.com/abhisek/repaso/internal/questiongen"
	"github.com/abhisek/repaso/internal/spacedrep"
	"github.com/abhisek/repaso/internal/store"
)

const passage = "La fotosíntesis es el proceso por el cual las plantas transforman la luz solar en energía química. " +
	"Ocurre en los cloroplastos y utiliza dióxido de carbono y agua para producir glucosa y liberar oxígeno."

type fixture struct {
	svc     *Service
	store   *store.Store
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, gen questiongen.Generator) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	emb := embedding.NewHashingEncoder()
	v, err := grading.NewValidator(emb, grading.DefaultConfig())
	require.NoError(t, err)

	qcfg := questiongen.DefaultConfig()
	qcfg.Delay = 0
	m := metrics.New()
	svc := New(Deps{
		Store:     st,
		Embedder:  emb,
		Validator: v,
		Ingest:    ingest.New(emb, st, ingest.DefaultConfig(), nil),
		Generator: gen,
		Questions: qcfg,
		Metrics:   m,
	})
	return &fixture{svc: svc, store: st, metrics: m}
}

func (f *fixture) count(t *testing.T, name string) int {
	t.Helper()
	n, err := testutil.GatherAndCount(f.metrics.Registry(), name)
	require.NoError(t, err)
	return n
}

func (f *fixture) ingest(t *testing.T) *store.Material {
	t.Helper()
	res, err := f.svc.IngestFile(context.Background(), ingest.Source{Filename: "biologia.txt", Data: []byte(passage)}, nil)
	require.NoError(t, err)
	return res.Material
}

func (f *fixture) question(t *testing.T, materialID string) store.Question {
	t.Helper()
	q := store.Question{MaterialID: materialID, Text: "¿Qué es la fotosíntesis?", Type: questiongen.TypeLiteral, Difficulty: questiongen.DifficultyLow}
	qs := []store.Question{q}
	require.NoError(t, f.store.CreateQuestions(context.Background(), qs))
	return qs[0]
}

func TestIngestFile(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)

	assert.Equal(t, "Biologia", m.Title)
	assert.Equal(t, 1, m.TotalChunks)
	assert.Equal(t, 1, f.count(t, "repaso_ingest_duration_seconds"))

	ms, err := f.svc.Materials(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, m.ID, ms[0].ID)
}

func TestIngestFile_InputErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []ingest.Source{
		{Filename: "", Data: []byte(passage)},
		{Filename: "notas.docx", Data: []byte(passage)},
		{Filename: "vacio.txt"},
		{Filename: "blanco.txt", Data: []byte("   \n\n  ")},
	}
	for _, src := range tests {
		_, err := f.svc.IngestFile(ctx, src, nil)
		var ierr *InputError
		assert.ErrorAs(t, err, &ierr, "source %q", src.Filename)
	}
}

func TestValidateAnswer(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	ctx := context.Background()

	res, err := f.svc.ValidateAnswer(ctx, "", AnswerRequest{
		MaterialID: m.ID,
		Question:   "¿Qué es la fotosíntesis?",
		Answer:     passage,
	})
	require.NoError(t, err)
	assert.Equal(t, grading.Excellent, res.Category)
	assert.True(t, res.IsValid)
	assert.Nil(t, res.Review, "no review without question_id")
	assert.Equal(t, 1, f.count(t, "repaso_grading_total"))

	short, err := f.svc.ValidateAnswer(ctx, "", AnswerRequest{MaterialID: m.ID, Question: "¿Qué?", Answer: "luz"})
	require.NoError(t, err)
	assert.Equal(t, grading.Error, short.Category)
}

func TestValidateAnswer_RecordsReview(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	q := f.question(t, m.ID)
	day := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return day }

	res, err := f.svc.ValidateAnswer(context.Background(), "ana", AnswerRequest{
		MaterialID: m.ID,
		QuestionID: q.ID,
		Answer:     passage,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Review)
	require.NotNil(t, res.Quality)
	assert.Equal(t, 5, *res.Quality)
	assert.Equal(t, 1, res.Review.IntervalDays)
	assert.Equal(t, "ana", res.Review.UserID)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"category":"excellent"`)
	assert.Contains(t, string(raw), `"review":{`)
}

func TestValidateAnswer_RejectedAnswerKeepsReview(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	q := f.question(t, m.ID)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := range 3 {
		f.svc.now = func() time.Time { return day.AddDate(0, 0, i*10) }
		_, err := f.svc.RecordReview(ctx, "ana", q.ID, 5)
		require.NoError(t, err)
	}
	before, err := f.store.GetReview(ctx, "ana", q.ID)
	require.NoError(t, err)
	require.Equal(t, 3, before.Repetitions)

	res, err := f.svc.ValidateAnswer(ctx, "ana", AnswerRequest{MaterialID: m.ID, QuestionID: q.ID, Answer: "no sé"})
	require.NoError(t, err)
	assert.Equal(t, grading.Error, res.Category)
	assert.Nil(t, res.Quality)
	assert.Nil(t, res.Review)

	after, err := f.store.GetReview(ctx, "ana", q.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Repetitions, after.Repetitions)
	assert.Equal(t, before.IntervalDays, after.IntervalDays)
	assert.Equal(t, before.EF, after.EF)
}

func TestValidateAnswer_Errors(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	other := f.ingest(t)
	q := f.question(t, other.ID)
	ctx := context.Background()

	_, err := f.svc.ValidateAnswer(ctx, "", AnswerRequest{Question: "¿Qué?", Answer: passage})
	var ierr *InputError
	assert.ErrorAs(t, err, &ierr)

	_, err = f.svc.ValidateAnswer(ctx, "", AnswerRequest{MaterialID: m.ID, QuestionID: q.ID, Answer: passage})
	assert.ErrorAs(t, err, &ierr)

	_, err = f.svc.ValidateAnswer(ctx, "", AnswerRequest{MaterialID: "missing", Question: "¿Qué?", Answer: passage})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordReview_AndDue(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	q := f.question(t, m.ID)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return day }

	rs, err := f.svc.RecordReview(ctx, "", q.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, LocalUser, rs.UserID)
	assert.Equal(t, 1, rs.IntervalDays)

	due, err := f.svc.Due(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	f.svc.now = func() time.Time { return day.AddDate(0, 0, 1) }
	due, err = f.svc.Due(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, q.Text, due[0].Question)
	assert.Equal(t, spacedrep.ReviewDue, due[0].ReviewStatus)
	assert.Zero(t, due[0].DaysOverdue)

	f.svc.now = func() time.Time { return day.AddDate(0, 0, 3) }
	due, err = f.svc.Due(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, spacedrep.ReviewOverdue, due[0].ReviewStatus)
	assert.Equal(t, 2, due[0].DaysOverdue)

	f.svc.now = func() time.Time { return day.AddDate(0, 0, 1) }
	rs, err = f.svc.RecordReview(ctx, "", q.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, rs.IntervalDays)
	assert.Equal(t, 2, rs.Repetitions)

	stats, err := f.svc.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Questions)
	assert.Equal(t, 1, stats.Reviews)
}

func TestRecordReview_Errors(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	q := f.question(t, m.ID)
	ctx := context.Background()

	var ierr *InputError
	_, err := f.svc.RecordReview(ctx, "", q.ID, 6)
	assert.ErrorAs(t, err, &ierr)
	_, err = f.svc.RecordReview(ctx, "", "", 3)
	assert.ErrorAs(t, err, &ierr)
	_, err = f.svc.RecordReview(ctx, "", "nope", 3)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.svc.Due(ctx, "", -1)
	assert.ErrorAs(t, err, &ierr)
}

func TestGenerateQuestions(t *testing.T) {
	raw, _ := json.Marshal(map[string][]string{"questions": {
		"¿Por qué las plantas liberan oxígeno durante la fotosíntesis?",
		"¿Dónde ocurre la fotosíntesis?",
	}})
	mock := llm.NewMockProvider(llm.MockResponse{Content: raw})
	f := newFixture(t, questiongen.New(mock, questiongen.DefaultConfig()))
	m := f.ingest(t)
	ctx := context.Background()

	var outcomes int
	report, err := f.svc.GenerateQuestions(ctx, m.ID, GenerateRequest{}, func(questiongen.ChunkOutcome) { outcomes++ })
	require.NoError(t, err)
	assert.Equal(t, store.JobCompleted, report.Status)
	assert.Equal(t, 2, report.QuestionsCreated)
	assert.Equal(t, 1, outcomes)

	qs, err := f.svc.Questions(ctx, store.QuestionFilter{MaterialID: m.ID, Type: questiongen.TypeInferential})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Contains(t, qs[0].Text, "oxígeno")

	assert.Equal(t, 1, f.count(t, "repaso_questions_generated_total"))
}

func TestGenerateQuestions_Errors(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	ctx := context.Background()

	_, err := f.svc.GenerateQuestions(ctx, m.ID, GenerateRequest{}, nil)
	assert.ErrorIs(t, err, ErrGenerationDisabled)

	var ierr *InputError
	_, err = f.svc.GenerateQuestions(ctx, m.ID, GenerateRequest{PerChunk: 11}, nil)
	assert.ErrorAs(t, err, &ierr)
	_, err = f.svc.GenerateQuestions(ctx, "", GenerateRequest{}, nil)
	assert.ErrorAs(t, err, &ierr)
	_, err = f.svc.Questions(ctx, store.QuestionFilter{Difficulty: "extreme"})
	assert.ErrorAs(t, err, &ierr)
}

func TestReindex(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	ctx := context.Background()
	require.NoError(t, f.store.UpdateMaterialTotals(ctx, m.ID, 42, m.TotalCharacters))

	entries, err := f.svc.Reindex(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Updated)
	assert.Equal(t, 1, entries[0].Chunks)
	assert.Empty(t, entries[0].BadVectors)

	got, err := f.svc.Material(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalChunks)

	entries, err = f.svc.Reindex(ctx)
	require.NoError(t, err)
	assert.False(t, entries[0].Updated)
}

func TestDeleteMaterial(t *testing.T) {
	f := newFixture(t, nil)
	m := f.ingest(t)
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteMaterial(ctx, m.ID))
	_, err := f.svc.Material(ctx, m.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.ErrorIs(t, f.svc.DeleteMaterial(ctx, m.ID), store.ErrNotFound)
}

func TestInputError(t *testing.T) {
	err := invalid("quality", "must be between %d and %d", 0, 5)
	assert.Equal(t, "quality: must be between 0 and 5", err.Error())
	wrapped := &InputError{Message: "bad", Err: ingest.ErrEmptyText}
	assert.ErrorIs(t, wrapped, ingest.ErrEmptyText)
}
