package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// muscleAliases maps folded alternate spellings to canonical baseline keys.
var muscleAliases = map[string]string{
	"pectoralis":        "Pectoralis",
	"pectoralismajor":   "Pectoralis",
	"pectorals":         "Pectoralis",
	"pecs":              "Pectoralis",
	"chest":             "Pectoralis",
	"anteriordeltoids":  "AnteriorDeltoids",
	"anteriordeltoid":   "AnteriorDeltoids",
	"deltoidsanterior":  "AnteriorDeltoids",
	"deltoidanterior":   "AnteriorDeltoids",
	"frontdelts":        "AnteriorDeltoids",
	"frontdeltoids":     "AnteriorDeltoids",
	"medialdeltoids":    "MedialDeltoids",
	"deltoidsmedial":    "MedialDeltoids",
	"deltoidslateral":   "MedialDeltoids",
	"lateraldeltoids":   "MedialDeltoids",
	"sidedelts":         "MedialDeltoids",
	"posteriordeltoids": "PosteriorDeltoids",
	"posteriordeltoid":  "PosteriorDeltoids",
	"deltoidsposterior": "PosteriorDeltoids",
	"reardelts":         "PosteriorDeltoids",
	"triceps":           "Triceps",
	"tricepsbrachii":    "Triceps",
	"biceps":            "Biceps",
	"bicepsbrachii":     "Biceps",
	"forearms":          "Forearms",
	"lats":              "Lats",
	"latissimusdorsi":   "Lats",
	"rhomboids":         "Rhomboids",
	"trapezius":         "Trapezius",
	"traps":             "Trapezius",
	"lowerback":         "LowerBack",
	"erectorspinae":     "LowerBack",
	"spinalerectors":    "LowerBack",
	"core":              "Core",
	"abdominals":        "Core",
	"abs":               "Core",
	"rectusabdominis":   "Core",
	"obliques":          "Core",
	"quadriceps":        "Quadriceps",
	"quads":             "Quadriceps",
	"glutes":            "Glutes",
	"gluteusmaximus":    "Glutes",
	"hamstrings":        "Hamstrings",
	"calves":            "Calves",
	"gastrocnemius":     "Calves",
}

// NormalizeMuscle maps a muscle name onto its canonical baseline key, e.g.
// "Deltoids (Anterior)" -> "AnteriorDeltoids". Unknown names follow the
// same convention: a parenthesised qualifier moves to the front and the words
// are joined in PascalCase.
func NormalizeMuscle(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if canonical, ok := muscleAliases[fold(name)]; ok {
		return canonical
	}

	if open := strings.Index(name, "("); open > 0 && strings.HasSuffix(name, ")") {
		qualifier := name[open+1 : len(name)-1]
		name = qualifier + " " + name[:open]
	}
	return pascal(name)
}

// fold lowercases and drops everything but letters and digits.
func fold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func pascal(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}
	return b.String()
}
