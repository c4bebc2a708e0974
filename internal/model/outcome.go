package model

// Outcome is the semantic classification of a worker result.
type Outcome int

const (
	OutcomeUncertain Outcome = iota
	OutcomeClean
	OutcomeWarning
	OutcomeThreat
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "CLEAN"
	case OutcomeWarning:
		return "WARNING"
	case OutcomeThreat:
		return "THREAT"
	case OutcomeError:
		return "ERROR"
	default:
		return "UNCERTAIN"
	}
}

// CleanOrUncertain reports whether o gets the "completed" feedback.
// Uncertain is kept apart from Clean only for reporting.
func (o Outcome) CleanOrUncertain() bool {
	return o == OutcomeClean || o == OutcomeUncertain
}
