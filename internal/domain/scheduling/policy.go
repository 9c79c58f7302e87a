package scheduling

import "fmt"

// Policy decides which status changes SetStatus accepts.
type Policy string

const (
	// PolicyPermissive accepts any known status from any state.
	PolicyPermissive Policy = "permissive"
	// PolicyStrict only follows the booking lifecycle:
	// pending -> approved | cancelled, approved -> completed | cancelled.
	PolicyStrict Policy = "strict"
)

var strictTransitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyPermissive, "":
		return PolicyPermissive, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown status policy %q", s)
	}
}

// Allows reports whether an appointment in from may move to to.
func (p Policy) Allows(from, to string) bool {
	if p != PolicyStrict {
		return true
	}
	for _, next := range strictTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
