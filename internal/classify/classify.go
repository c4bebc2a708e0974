// Package classify maps the output of a worker run to an Outcome.
//
// The heuristic is a keyword search over the lower-cased stdout. Rules are
// evaluated in order and the first match wins:
//
//  1. the process did not succeed: Error
//  2. "infected", "malware" or "threat": Threat
//  3. "clean:" or "safe": Clean
//  4. "no" appears before "found": Clean
//  5. "suspicious" or "warning:": Warning
//  6. "no" without "warning": Clean
//  7. anything else: Uncertain
//
// Matching is on substrings, so "normal" or "unknown" satisfy rule 6.
package classify

import (
	"strings"

	"github.com/usb-cleaner-box/ucb/internal/model"
)

var threatWords = []string{"infected", "malware", "threat"}

// Classify is pure and safe for concurrent use.
func Classify(res model.RunResult) model.Outcome {
	if !res.Succeeded {
		return model.OutcomeError
	}

	out := strings.ToLower(res.Stdout)
	switch {
	case containsAny(out, threatWords...):
		return model.OutcomeThreat
	case containsAny(out, "clean:", "safe"):
		return model.OutcomeClean
	case noBeforeFound(out):
		return model.OutcomeClean
	case containsAny(out, "suspicious", "warning:"):
		return model.OutcomeWarning
	case strings.Contains(out, "no") && !strings.Contains(out, "warning"):
		return model.OutcomeClean
	default:
		return model.OutcomeUncertain
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func noBeforeFound(s string) bool {
	found := strings.Index(s, "found")
	if found < 0 {
		return false
	}
	no := strings.Index(s, "no")
	return no >= 0 && no < found
}
