package spacedrep

import (
	"math"
	"testing"
	"time"

	"github.com/abhisek/repaso/internal/grading"
)

var day0 = time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)

func run(t *testing.T, qs []int) []ReviewState {
	t.Helper()
	s := NewState("u", "q", day0)
	var out []ReviewState
	today := day0
	for _, q := range qs {
		s = Update(s, q, today)
		out = append(out, s)
		today = s.NextReview
	}
	return out
}

func TestUpdate_PerfectProgression(t *testing.T) {
	got := run(t, []int{5, 5, 5, 5})
	wantIntervals := []int{1, 6, 16, 45}
	wantEF := []float64{2.6, 2.7, 2.8, 2.9}
	for i, s := range got {
		if s.IntervalDays != wantIntervals[i] {
			t.Errorf("step %d interval = %d, want %d", i+1, s.IntervalDays, wantIntervals[i])
		}
		if math.Abs(s.EF-wantEF[i]) > 1e-9 {
			t.Errorf("step %d EF = %f, want %f", i+1, s.EF, wantEF[i])
		}
		if s.Repetitions != i+1 {
			t.Errorf("step %d n = %d, want %d", i+1, s.Repetitions, i+1)
		}
	}
}

func TestUpdate_MixedTrajectory(t *testing.T) {
	got := run(t, []int{4, 4, 5, 3, 2, 4})
	wantIntervals := []int{1, 6, 15, 39, 1, 6}
	wantN := []int{1, 2, 3, 4, 1, 2}
	wantEF := []float64{2.5, 2.5, 2.6, 2.46, 2.14, 2.14}
	for i, s := range got {
		if s.IntervalDays != wantIntervals[i] {
			t.Errorf("step %d interval = %d, want %d", i+1, s.IntervalDays, wantIntervals[i])
		}
		if s.Repetitions != wantN[i] {
			t.Errorf("step %d n = %d, want %d", i+1, s.Repetitions, wantN[i])
		}
		if math.Abs(s.EF-wantEF[i]) > 1e-9 {
			t.Errorf("step %d EF = %f, want %f", i+1, s.EF, wantEF[i])
		}
	}
}

func TestUpdate_BorderlineAdvancesFailResets(t *testing.T) {
	base := run(t, []int{4, 4, 5})[2]

	pass := Update(base, 3, day0)
	if pass.Repetitions != 4 || pass.IntervalDays != 39 {
		t.Errorf("q=3: n=%d interval=%d, want 4/39", pass.Repetitions, pass.IntervalDays)
	}
	fail := Update(base, 2, day0)
	if fail.Repetitions != 1 || fail.IntervalDays != 1 {
		t.Errorf("q=2: n=%d interval=%d, want 1/1", fail.Repetitions, fail.IntervalDays)
	}
}

func TestUpdate_EFFloor(t *testing.T) {
	s := NewState("u", "q", day0)
	for range 20 {
		s = Update(s, 0, day0)
		if s.EF < MinEF {
			t.Fatalf("EF dropped to %f", s.EF)
		}
		if s.Repetitions != 1 || s.IntervalDays != 1 {
			t.Fatalf("q=0 should reset: n=%d interval=%d", s.Repetitions, s.IntervalDays)
		}
	}
	if s.EF != MinEF {
		t.Errorf("EF = %f, want floor %f", s.EF, MinEF)
	}
}

func TestUpdate_EFDeltas(t *testing.T) {
	want := map[int]float64{5: 2.6, 4: 2.5, 3: 2.36, 2: 2.18, 1: 1.96, 0: 1.7}
	for q, ef := range want {
		got := Update(NewState("u", "q", day0), q, day0).EF
		if math.Abs(got-ef) > 1e-9 {
			t.Errorf("q=%d EF = %f, want %f", q, got, ef)
		}
	}
}

func TestUpdate_PureAndDated(t *testing.T) {
	s := NewState("u", "q", day0)
	a := Update(s, 4, day0)
	b := Update(s, 4, day0)
	if a != b {
		t.Error("Update is not deterministic")
	}
	if s.Repetitions != 0 || s.EF != InitialEF {
		t.Error("Update mutated its input")
	}
	want := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	if !a.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", a.NextReview, want)
	}
	if !a.LastReview.Equal(Day(day0)) || a.LastQuality != 4 {
		t.Errorf("LastReview/LastQuality = %v/%d", a.LastReview, a.LastQuality)
	}
}

func TestUpdate_ClampsQuality(t *testing.T) {
	s := NewState("u", "q", day0)
	if Update(s, 9, day0) != Update(s, 5, day0) {
		t.Error("q above 5 should clamp to 5")
	}
	if Update(s, -3, day0) != Update(s, 0, day0) {
		t.Error("q below 0 should clamp to 0")
	}
}

func TestQualityFor(t *testing.T) {
	tests := map[grading.Category]int{
		grading.Excellent:  5,
		grading.Good:       4,
		grading.Acceptable: 3,
		grading.Partial:    2,
		grading.Incorrect:  1,
		grading.Error:      0,
		"bogus":            0,
	}
	for c, want := range tests {
		if got := QualityFor(c); got != want {
			t.Errorf("QualityFor(%s) = %d, want %d", c, got, want)
		}
	}
}
