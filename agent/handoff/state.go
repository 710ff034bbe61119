package handoff

import (
	"time"

	"github.com/BaSui01/tripflow/types"
)

// State identifies where a routed query is in its lifecycle.
type State string

const (
	StateReceived            State = "received"
	StateClassified          State = "classified"
	StateDispatched          State = "dispatched"
	StateSpecialistExecuting State = "specialist_executing"
	StateResolved            State = "resolved"
	StateRedelegated         State = "redelegated"
	StateFailed              State = "failed"
)

// transitionTable lists the legal successor states. resolved and failed
// are terminal. Every non-terminal state may fail.
var transitionTable = map[State][]State{
	StateReceived:            {StateClassified, StateFailed},
	StateClassified:          {StateDispatched, StateFailed},
	StateDispatched:          {StateSpecialistExecuting, StateFailed},
	StateSpecialistExecuting: {StateResolved, StateRedelegated, StateFailed},
	StateRedelegated:         {StateDispatched, StateFailed},
	StateResolved:            {},
	StateFailed:              {},
}

// CanTransition reports whether from → to is a legal transition.
func CanTransition(from, to State) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state has no successors.
func (s State) Terminal() bool {
	return len(transitionTable[s]) == 0
}

// Outcome is the terminal record of one routed query, handed to the
// envelope builder. State is resolved or failed; exactly one of Result
// and Err is set.
type Outcome struct {
	// QueryID is the routing run identifier, used in logs and history.
	QueryID string
	// State the query terminated in.
	State State
	// ResponseType of the result; empty on failure.
	ResponseType types.ResponseType
	// Result that passed schema validation; nil on failure.
	Result *types.StructuredResult
	// Err describes the failure; nil on success.
	Err error
	// AgentID is the last agent that executed, empty when none ran.
	AgentID string
	// Redelegated is true when the planner handed the query off.
	Redelegated bool
	// Elapsed is the total routing duration.
	Elapsed time.Duration
}

// Resolved reports whether the query produced a validated result.
func (o *Outcome) Resolved() bool {
	return o.State == StateResolved && o.Result != nil
}

// ErrorCode returns the failure code, or "" for resolved outcomes.
func (o *Outcome) ErrorCode() types.ErrorCode {
	if o.Err == nil {
		return ""
	}
	if code := types.GetErrorCode(o.Err); code != "" {
		return code
	}
	return types.ErrInternalError
}
