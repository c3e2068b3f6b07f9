// Package classify extracts geographic and problem signals from free text.
// The vocabularies are fixed; this is a keyword heuristic, not a classifier.
package classify

import (
	"strings"
	"unicode"
)

// BrazilStates holds the 27 state/federal-district codes recognized as
// location signals.
var BrazilStates = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO", "MA",
	"MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI", "RJ", "RN",
	"RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

var stateSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(BrazilStates))
	for _, uf := range BrazilStates {
		set[uf] = struct{}{}
	}
	return set
}()

// categoryKeywords maps each problem category to its trigger keywords.
// Order matters: the first category with a matching keyword wins, so text
// mentioning both a pest and a disease classifies as Praga.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Praga", []string{"praga", "inseto", "lagarta", "bicho", "mosca", "pulgão"}},
	{"Doença", []string{"doença", "fungo", "bactéria", "virus", "vírus", "ferrugem", "mancha"}},
	{"Clima", []string{"clima", "chuva", "seca", "sol", "geada", "granizo", "tempo"}},
	{"Nutrição", []string{"nutrição", "adubo", "fertilizante", "calcário", "deficiência", "amarelando"}},
	{"Plantio", []string{"plantio", "semear", "semeadura", "espaçamento", "semente"}},
	{"Colheita", []string{"colheita", "colher", "produção", "produtividade", "safra"}},
}

// DetectState returns the first standalone two-letter UF code found in the
// text, or "" when none is present.
func DetectState(text string) string {
	words := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if len(w) != 2 {
			continue
		}
		if _, ok := stateSet[w]; ok {
			return w
		}
	}
	return ""
}

// DetectCategory returns the first category whose keyword list matches the
// text, or "" when nothing matches.
func DetectCategory(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, k := range entry.keywords {
			if strings.Contains(lower, k) {
				return entry.category
			}
		}
	}
	return ""
}

// Extract runs state and category detection over the text and merges the
// result with the conversation's current values. A detection only replaces a
// stored value when it differs; no detection never clears one. The changed
// flag reports whether either value was replaced.
func Extract(text, currentState, currentCategory string) (state, category string, changed bool) {
	state = currentState
	category = currentCategory
	if text == "" {
		return state, category, false
	}

	if found := DetectState(text); found != "" && found != currentState {
		state = found
		changed = true
	}
	if found := DetectCategory(text); found != "" && found != currentCategory {
		category = found
		changed = true
	}
	return state, category, changed
}
