package data

import "fmt"

// Outcome is the verdict of a single check on a dependency.
//
// The zero value is OutcomeIgnore: a dependency that has not been evaluated
// (or is exempt) never blocks a run.
type Outcome int

const (
	OutcomeIgnore Outcome = iota
	OutcomePass
	OutcomeFail
)

// OutcomeFromBool maps true to OutcomePass and false to OutcomeFail.
func OutcomeFromBool(b bool) Outcome {
	if b {
		return OutcomePass
	}
	return OutcomeFail
}

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "PASS"
	case OutcomeFail:
		return "FAIL"
	case OutcomeIgnore:
		return "IGNORE"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Passed combines a score and a license outcome. Only OutcomeFail blocks.
func Passed(score, license Outcome) bool {
	return score != OutcomeFail && license != OutcomeFail
}
