package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestChunk_Empty(t *testing.T) {
	if got := Chunk("   ", Default); got != nil {
		t.Fatalf("Chunk(blank) = %v, want nil", got)
	}
}

func TestChunk_ShorterThanMin(t *testing.T) {
	in := "Un puntero es una variable que almacena la dirección de memoria de otra variable."
	got := Chunk(in, Default)
	if len(got) != 1 {
		t.Fatalf("got %d passages, want 1", len(got))
	}
	if got[0].Text != in {
		t.Errorf("Text = %q, want input unchanged", got[0].Text)
	}
	if got[0].Words != 14 {
		t.Errorf("Words = %d, want 14", got[0].Words)
	}
}

func TestChunk_AccumulatesAndOverlaps(t *testing.T) {
	in := "Uno dos tres cuatro. Cinco seis siete. Ocho nueve diez once doce. Trece catorce."
	got := Chunk(in, Options{MinWords: 2, MaxWords: 10, OverlapWords: 2})

	want := []Passage{
		{Index: 0, Text: "Uno dos tres cuatro. Cinco seis siete.", Words: 7, StartWord: 0},
		{Index: 1, Text: "seis siete. Ocho nueve diez once doce. Trece catorce.", Words: 9, StartWord: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chunk =\n%+v\nwant\n%+v", got, want)
	}
}

func TestChunk_OversizeSentence(t *testing.T) {
	in := "Corta frase aquí. Esta es una oración mucho más larga que el máximo permitido. Fin."
	got := Chunk(in, Options{MinWords: 1, MaxWords: 5, OverlapWords: 2})

	if len(got) != 3 {
		t.Fatalf("got %d passages, want 3: %+v", len(got), got)
	}
	if got[1].Text != "Esta es una oración mucho más larga que el máximo permitido." {
		t.Errorf("oversize passage = %q", got[1].Text)
	}
	if got[1].Words != 11 || got[1].StartWord != 3 {
		t.Errorf("oversize passage words/start = %d/%d, want 11/3", got[1].Words, got[1].StartWord)
	}
	if got[2].Text != "máximo permitido. Fin." {
		t.Errorf("passage after oversize = %q", got[2].Text)
	}
	for _, p := range got {
		if p.Words > 5 && p.Index != 1 {
			t.Errorf("passage %d has %d words, only the oversize one may exceed max", p.Index, p.Words)
		}
	}
}

func TestChunk_ParagraphBoundary(t *testing.T) {
	in := "Primer párrafo con varias palabras aquí.\n\nSegundo párrafo también con palabras."
	got := Chunk(in, Options{MinWords: 3, MaxWords: 50, OverlapWords: 2})

	if len(got) != 2 {
		t.Fatalf("got %d passages, want 2: %+v", len(got), got)
	}
	if !strings.HasPrefix(got[1].Text, "Segundo") {
		t.Errorf("overlap crossed the paragraph boundary: %q", got[1].Text)
	}
	if got[1].StartWord != 6 {
		t.Errorf("StartWord = %d, want 6", got[1].StartWord)
	}
}

func TestChunk_ShortParagraphJoinsNext(t *testing.T) {
	in := "Capítulo uno\n\nEste es el cuerpo del capítulo con bastante texto."
	got := Chunk(in, Options{MinWords: 3, MaxWords: 50, OverlapWords: 2})

	if len(got) != 1 {
		t.Fatalf("got %d passages, want 1: %+v", len(got), got)
	}
	if got[0].Text != "Capítulo uno Este es el cuerpo del capítulo con bastante texto." {
		t.Errorf("Text = %q", got[0].Text)
	}
}

func longText() string {
	var b strings.Builder
	for i := range 60 {
		fmt.Fprintf(&b, "La oración número %d habla del tema %d con detalle suficiente. ", i, i%7)
		if i%10 == 9 {
			b.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func TestChunk_CoversSource(t *testing.T) {
	in := longText()
	src := strings.Fields(in)
	got := Chunk(in, Default)
	if len(got) < 2 {
		t.Fatalf("expected several passages, got %d", len(got))
	}

	covered := 0
	for i, p := range got {
		if p.Index != i {
			t.Errorf("passage %d has Index %d", i, p.Index)
		}
		if p.Text == "" {
			t.Errorf("passage %d is empty", i)
		}
		if p.StartWord > covered {
			t.Fatalf("gap before passage %d: starts at %d, covered up to %d", i, p.StartWord, covered)
		}
		words := strings.Fields(p.Text)
		if !reflect.DeepEqual(words, src[p.StartWord:p.StartWord+p.Words]) {
			t.Fatalf("passage %d does not match source words at %d", i, p.StartWord)
		}
		covered = max(covered, p.StartWord+p.Words)
	}
	if covered != len(src) {
		t.Errorf("covered %d of %d words", covered, len(src))
	}
}

func TestChunk_OverlapWithinParagraph(t *testing.T) {
	got := Chunk(longText(), Default)
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		overlap := prev.StartWord + prev.Words - cur.StartWord
		if overlap != 0 && overlap != Default.OverlapWords {
			t.Errorf("passages %d/%d overlap by %d words", i-1, i, overlap)
		}
	}
}

func TestChunk_Deterministic(t *testing.T) {
	in := longText()
	a := Chunk(in, Semantic)
	b := Chunk(in, Semantic)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("Chunk is not deterministic")
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("¿Qué es esto? ¡Un ejemplo! Termina aquí… Y sigue «así». Fin")
	want := []string{"¿Qué es esto?", "¡Un ejemplo!", "Termina aquí…", "Y sigue «así».", "Fin"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences = %q, want %q", got, want)
	}
}

func TestForProfile(t *testing.T) {
	tests := []struct {
		name  string
		pages int
		want  Options
	}{
		{"", 0, Default},
		{"default", 10, Default},
		{"semantic", 10, Semantic},
		{"adaptive", 20, Options{80, 180, 20}},
		{"adaptive", 120, Options{150, 350, 30}},
		{"adaptive", 800, Options{250, 600, 50}},
		{"adaptive", 5000, Options{400, 1000, 80}},
	}
	for _, tt := range tests {
		got, err := ForProfile(tt.name, tt.pages)
		if err != nil {
			t.Fatalf("ForProfile(%q, %d): %v", tt.name, tt.pages, err)
		}
		if got != tt.want {
			t.Errorf("ForProfile(%q, %d) = %+v, want %+v", tt.name, tt.pages, got, tt.want)
		}
	}
	if _, err := ForProfile("huge", 1); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestOptionsValidate(t *testing.T) {
	bad := []Options{
		{MinWords: 10, MaxWords: 0},
		{MinWords: 90, MaxWords: 80},
		{MinWords: 10, MaxWords: 80, OverlapWords: 80},
	}
	for _, o := range bad {
		if o.Validate() == nil {
			t.Errorf("Validate(%+v) = nil, want error", o)
		}
	}
	if err := Default.Validate(); err != nil {
		t.Errorf("Default.Validate() = %v", err)
	}
}

func TestEstimatePage(t *testing.T) {
	tests := []struct{ start, total, pages, want int }{
		{0, 1000, 10, 1},
		{999, 1000, 10, 10},
		{500, 1000, 10, 6},
		{10, 0, 10, 1},
		{10, 100, 1, 1},
	}
	for _, tt := range tests {
		if got := EstimatePage(tt.start, tt.total, tt.pages); got != tt.want {
			t.Errorf("EstimatePage(%d, %d, %d) = %d, want %d", tt.start, tt.total, tt.pages, got, tt.want)
		}
	}
}
