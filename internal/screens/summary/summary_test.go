package summary

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/repaso/internal/grading"
	"github.com/abhisek/repaso/internal/router"
)

func TestSummarize(t *testing.T) {
	tot := Summarize([]Outcome{
		{Category: grading.Excellent, Confidence: 90},
		{Category: grading.Partial, Confidence: 40},
		{Category: grading.Good, Confidence: 80},
	})
	if tot.Reviewed != 3 || tot.Passed != 2 {
		t.Errorf("reviewed/passed = %d/%d, want 3/2", tot.Reviewed, tot.Passed)
	}
	if tot.MeanConfidence != 70 {
		t.Errorf("mean confidence = %v, want 70", tot.MeanConfidence)
	}
	if tot.ByCategory[grading.Partial] != 1 {
		t.Errorf("ByCategory = %v", tot.ByCategory)
	}

	if empty := Summarize(nil); empty.MeanConfidence != 0 || empty.Reviewed != 0 {
		t.Errorf("empty totals = %+v", empty)
	}
}

func TestView(t *testing.T) {
	s := New([]Outcome{{Question: "¿Qué es un puntero?", Category: grading.Good, Confidence: 80}})
	out := s.View(80, 20)
	if !strings.Contains(out, "1 de 1") || !strings.Contains(out, "¿Qué es un puntero?") {
		t.Errorf("unexpected view:\n%s", out)
	}
	if !strings.Contains(New(nil).View(80, 20), "ninguna") {
		t.Error("empty summary should say nothing was answered")
	}
}

func TestEnterPops(t *testing.T) {
	_, cmd := New(nil).Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("enter should pop the summary")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
