package questiongen

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		q    string
		want string
	}{
		{"¿Por qué el autor compara la memoria con un archivo?", TypeInferential},
		{"¿Por que el autor compara la memoria con un archivo?", TypeInferential},
		{"¿Cómo se relaciona el puntero con la lista?", TypeInferential},
		{"¿Qué tipo de estructura describe el texto?", TypeInferential},
		{"¿Qué consecuencias tiene liberar la memoria dos veces?", TypeInferential},
		{"¿Es importante inicializar un puntero?", TypeInferential},
		{"¿Quién propuso el modelo de memoria?", TypeLiteral},
		{"¿Quienes participaron en el proyecto?", TypeLiteral},
		{"¿En qué año se publicó el lenguaje C?", TypeLiteral},
		{"¿En que ano se publico el lenguaje C?", TypeLiteral},
		{"¿Cuántos bytes ocupa un puntero?", TypeLiteral},
		{"¿Cómo se llama la función que reserva memoria?", TypeLiteral},
		{"¿Cuándo ocurre una fuga de memoria y por qué importa?", TypeInferential},
		{"Describe la pila de llamadas.", TypeOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.q); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestStoredType(t *testing.T) {
	if StoredType(TypeOther) != TypeInferential {
		t.Error("other should be stored as inferential")
	}
	if StoredType(TypeLiteral) != TypeLiteral {
		t.Error("literal should stay literal")
	}
}

func TestDifficulty(t *testing.T) {
	tests := []struct {
		q, kind, want string
	}{
		{"¿Quién propuso el modelo?", TypeLiteral, DifficultyLow},
		{"¿Por qué se usa un puntero?", TypeInferential, DifficultyMedium},
		{"¿Qué ocurre?", TypeOther, DifficultyMedium},
		{"Explica por qué un puntero nulo provoca un fallo.", TypeInferential, DifficultyHigh},
		{"¿Quién analiza el código?", TypeLiteral, DifficultyHigh},
		{"¿Por qué el texto sostiene que la gestión manual de memoria, a pesar de sus riesgos evidentes, sigue siendo una herramienta valiosa en sistemas embebidos con recursos muy limitados y requisitos estrictos?", TypeInferential, DifficultyHigh},
	}
	for _, tt := range tests {
		if got := Difficulty(tt.q, tt.kind); got != tt.want {
			t.Errorf("Difficulty(%q, %q) = %q, want %q", tt.q, tt.kind, got, tt.want)
		}
	}
}
