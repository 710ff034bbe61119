package specialist

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HandoffDirective is the planner's request to delegate the query to a
// narrower specialist. It travels through the error return of Handle; the
// router decides whether to honor it.
type HandoffDirective struct {
	Target string `json:"handoff"`
	Reason string `json:"reason,omitempty"`
}

// Error implements the error interface.
func (d *HandoffDirective) Error() string {
	if d.Reason == "" {
		return fmt.Sprintf("handoff requested to %s", d.Target)
	}
	return fmt.Sprintf("handoff requested to %s: %s", d.Target, d.Reason)
}

// AsHandoffDirective extracts a handoff directive from an error chain.
func AsHandoffDirective(err error) (*HandoffDirective, bool) {
	var d *HandoffDirective
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// parseDirective decodes a completion payload as a handoff directive.
// Returns nil when the payload is anything else, including a regular
// travel plan.
func parseDirective(payload string) *HandoffDirective {
	var d HandoffDirective
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil
	}
	if d.Target == "" {
		return nil
	}
	return &d
}
