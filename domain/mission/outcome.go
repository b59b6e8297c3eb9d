package mission

import (
	"fmt"
	"strings"

	"github.com/emberline/guildhall/internal/domain"
)

// Outcome is how a mission ended.
type Outcome string

// Outcome values.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomePending Outcome = "pending"
)

// outcomes is the match order used by ParseOutcome.
var outcomes = []Outcome{OutcomeSuccess, OutcomeFailure, OutcomePending}

// ParseOutcome reads an outcome out of free text. The first keyword found,
// in the order success, failure, pending, wins. Anything else is pending.
func ParseOutcome(text string) Outcome {
	lower := strings.ToLower(text)
	for _, o := range outcomes {
		if strings.Contains(lower, string(o)) {
			return o
		}
	}
	return OutcomePending
}

// ValidateOutcome accepts only an exact outcome value.
func ValidateOutcome(s string) (Outcome, error) {
	for _, o := range outcomes {
		if Outcome(s) == o {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: outcome must be success, failure or pending", domain.ErrValidation)
}
