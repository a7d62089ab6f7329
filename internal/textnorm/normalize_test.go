package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t \n", ""},
		{"collapses spaces", "  hola   mundo  ", "hola mundo"},
		{"single newline joins lines", "línea uno\nlínea dos", "línea uno línea dos"},
		{"blank lines become paragraph break", "párrafo uno.\n\n\n  párrafo dos.", "párrafo uno.\n\npárrafo dos."},
		{"hyphenated line break", "la trans-\nformación del agua", "la transformación del agua"},
		{"space before punctuation", "Hola , mundo .", "Hola, mundo."},
		{"missing space after period", "fin.Inicio de algo", "fin. Inicio de algo"},
		{"opening question mark", "¿ Qué es ?", "¿Qué es?"},
		{"control and format characters", "a\x00b\u200bc\ufffd", "abc"},
		{"tab and nbsp", "uno\tdos\u00a0tres", "uno dos tres"},
		{"nfc", "cafe\u0301", "café"},
		{"ocr short run", "La fo to sín te sis ocurre en las hojas.", "La fotosíntesis ocurre en las hojas."},
		{"ocr detached suffix", "La habi tación es amplia.", "La habitación es amplia."},
		{"ocr detached capital", "H enriette llegó tarde.", "Henriette llegó tarde."},
		{"common words kept", "el sol y la luz de la tarde", "el sol y la luz de la tarde"},
		{"roman numerals kept", "en el siglo XX y XXI durante años", "en el siglo XX y XXI durante años"},
		{"adjective before noun kept", "una gran ciudad moderna", "una gran ciudad moderna"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Un puntero es una variable que almacena la dirección de memoria de otra variable.",
		"fo to sín te sis  ,y   la habi tación.\n\n\nH enriette",
		"¿ Qué  es ?¡Nada !\r\nOtra línea\u00a0aquí.",
		"trans-\n\nformación a . b ,c",
		"uno\n\n\n\ndos\n \ntres",
		"x y z w v u",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\n once  %q\n twice %q", in, once, twice)
		}
	}
}

func TestParagraphs(t *testing.T) {
	got := Paragraphs("uno dos.\n\ntres.\n\n")
	if len(got) != 2 || got[0] != "uno dos." || got[1] != "tres." {
		t.Fatalf("Paragraphs = %q", got)
	}
	if Paragraphs("") != nil {
		t.Error("Paragraphs(\"\") should be nil")
	}
}
