package handoff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/tripflow/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"received to classified", StateReceived, StateClassified, true},
		{"received to failed", StateReceived, StateFailed, true},
		{"classified to dispatched", StateClassified, StateDispatched, true},
		{"dispatched to executing", StateDispatched, StateSpecialistExecuting, true},
		{"executing to resolved", StateSpecialistExecuting, StateResolved, true},
		{"executing to redelegated", StateSpecialistExecuting, StateRedelegated, true},
		{"redelegated to dispatched", StateRedelegated, StateDispatched, true},
		{"redelegated to failed", StateRedelegated, StateFailed, true},

		// 跳过中间状态的捷径都不合法
		{"received skips to dispatched", StateReceived, StateDispatched, false},
		{"classified skips to executing", StateClassified, StateSpecialistExecuting, false},
		{"executing back to classified", StateSpecialistExecuting, StateClassified, false},
		{"redelegated straight to resolved", StateRedelegated, StateResolved, false},

		// 终态不再迁移
		{"resolved to failed", StateResolved, StateFailed, false},
		{"resolved to received", StateResolved, StateReceived, false},
		{"failed to received", StateFailed, StateReceived, false},
		{"failed to resolved", StateFailed, StateResolved, false},

		{"unknown state has no successors", State("draft"), StateClassified, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestEveryNonTerminalStateCanFail(t *testing.T) {
	for state := range transitionTable {
		if state.Terminal() {
			continue
		}
		assert.True(t, CanTransition(state, StateFailed), "state %s cannot fail", state)
	}
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateResolved.Terminal())
	assert.True(t, StateFailed.Terminal())

	assert.False(t, StateReceived.Terminal())
	assert.False(t, StateClassified.Terminal())
	assert.False(t, StateDispatched.Terminal())
	assert.False(t, StateSpecialistExecuting.Terminal())
	assert.False(t, StateRedelegated.Terminal())
}

func TestOutcomeResolved(t *testing.T) {
	result := types.NewPlanResult(&types.TravelPlan{
		Destination:  "Tokyo",
		DurationDays: 5,
		Budget:       2000,
		Activities:   []string{"Visit Senso-ji"},
		Notes:        "Get a rail pass.",
	})

	resolved := &Outcome{State: StateResolved, Result: result}
	assert.True(t, resolved.Resolved())

	// resolved 状态但缺少结果不算成功
	hollow := &Outcome{State: StateResolved}
	assert.False(t, hollow.Resolved())

	failed := &Outcome{State: StateFailed, Err: types.NewError(types.ErrCompletion, "boom")}
	assert.False(t, failed.Resolved())
}

func TestOutcomeErrorCode(t *testing.T) {
	ok := &Outcome{State: StateResolved}
	assert.Equal(t, types.ErrorCode(""), ok.ErrorCode())

	typed := &Outcome{State: StateFailed, Err: types.NewError(types.ErrGuardrailsViolated, "blocked")}
	assert.Equal(t, types.ErrGuardrailsViolated, typed.ErrorCode())

	// 未分类错误一律归入 INTERNAL_ERROR
	untyped := &Outcome{State: StateFailed, Err: assert.AnError}
	assert.Equal(t, types.ErrInternalError, untyped.ErrorCode())
}
