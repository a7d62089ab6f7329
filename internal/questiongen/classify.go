package questiongen

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Patterns are matched against the lower-cased question with accents
// removed, so "por qué" and "por que" hit the same entry.
var inferentialPatterns = []string{
	"por que",
	"que sugiere", "que podemos inferir", "que se puede inferir", "que puede inferirse",
	"puede inferirse", "puede deducirse", "se puede inferir", "se puede deducir",
	"como se relaciona", "como se explica", "como se comporto", "como se conecta",
	"como se vincula", "como se manifiesta", "como se refleja", "como se evidencia",
	"como se caracteriza", "como se desarrolla", "como se transforma", "como se presenta",
	"como se describe", "como se percibe", "como se representa", "como se expresa",
	"como se construye", "como se articula", "como se plantea", "como se estructura",
	"como se organiza", "como se define", "como se ejemplifica", "como se aplica",
	"como se usa", "como se utiliza",
	"como reacciono", "como actuo", "como logro", "como influyo", "como interpretas",
	"que intencion", "que consecuencias", "que implicaciones",
	"que crees", "que piensas", "que opinas",
	"que significa", "que relacion", "como influye", "que motiva",
	"cual es la causa", "cual es el motivo", "que efecto", "como afecta",
	"que podria", "que hubiera", "que habria",
	"de que manera", "en que sentido", "que nos dice esto sobre",
	"que revela", "como demuestra", "que demuestra", "que indica", "que evidencia",
	"que refleja", "que nos permite", "sobre su comprension", "sobre su entendimiento",
	"la idea de",
	"que papel juega", "que rol cumple", "que funcion tiene", "que importancia",
	"que ventaja", "que desventaja", "que beneficio", "que diferencia", "que similitud",
	"que aspecto", "que caracteristica", "que elemento", "que factor", "que rasgo",
	"que cualidad", "que tipo de",
	"es importante", "son importantes", "es significativo", "son significativos",
	"es relevante", "son relevantes",
}

var literalPatterns = []string{
	"quien ", "quienes",
	"que hizo", "que paso", "que ocurrio", "que sucedio",
	"donde ", "cuando", "cuantos", "cuantas",
	"en que ano", "en que lugar", "en que ciudad", "en que pais",
	"que recibio", "que encontro", "que dijo", "que respondio",
	"cual es el nombre", "como se llama", "a quien", "de quien",
	"que objeto", "que color", "cual fue", "que edad",
	"cuanto tiempo", "cuanto dinero", "que cantidad",
}

// analysisVerbs mark questions that ask for higher-order work.
var analysisVerbs = []string{"explica", "analiza", "compara", "relaciona"}

// highDifficultyWords is the length above which a question is rated high.
const highDifficultyWords = 25

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Classify labels a question literal, inferential or other. Inferential
// patterns are checked first since they are the more specific ones.
func Classify(question string) string {
	q := fold(question)
	switch {
	case containsAny(q, inferentialPatterns):
		return TypeInferential
	case containsAny(q, literalPatterns):
		return TypeLiteral
	default:
		return TypeOther
	}
}

// StoredType maps a classification to the type persisted with the
// question.
func StoredType(kind string) string {
	if kind == TypeLiteral {
		return TypeLiteral
	}
	return TypeInferential
}

// Difficulty rates a question. Analysis verbs or more than 25 words make
// it high regardless of type.
func Difficulty(question, kind string) string {
	q := fold(question)
	if containsAny(q, analysisVerbs) || len(strings.Fields(q)) > highDifficultyWords {
		return DifficultyHigh
	}
	if kind == TypeLiteral {
		return DifficultyLow
	}
	return DifficultyMedium
}
