package textnorm

import "testing"

func TestRepairOCR(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"fo to sín te sis", "fotosíntesis"},
		{"la habi tación", "la habitación"},
		{"H enriette", "Henriette"},
		{"¿Qué es la fo to sín te sis?", "¿Qué es la fotosíntesis?"},
		{"el sol y la luz", "el sol y la luz"},
		{"la ONU y la OEA", "la ONU y la OEA"},
		{"b establece que", "b establece que"},
		{"fo to\nsín te", "fo to\nsín te"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RepairOCR(tt.in); got != tt.want {
			t.Errorf("RepairOCR(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectOCRErrors(t *testing.T) {
	clean := DetectOCRErrors("Un puntero es una variable que almacena direcciones.")
	if clean.HasErrors {
		t.Errorf("clean text flagged: %+v", clean)
	}

	dirty := DetectOCRErrors("La habi tación y la trans-\nformación , con  espacios.")
	if dirty.FragmentedWords != 1 {
		t.Errorf("FragmentedWords = %d, want 1", dirty.FragmentedWords)
	}
	if dirty.HyphenBreaks != 1 {
		t.Errorf("HyphenBreaks = %d, want 1", dirty.HyphenBreaks)
	}
	if dirty.MultipleSpaces != 1 {
		t.Errorf("MultipleSpaces = %d, want 1", dirty.MultipleSpaces)
	}
	if dirty.PunctuationSpacing != 1 {
		t.Errorf("PunctuationSpacing = %d, want 1", dirty.PunctuationSpacing)
	}
	if !dirty.HasErrors {
		t.Error("HasErrors = false, want true")
	}
}
