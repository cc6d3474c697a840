package feedback

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMachineAIFlow(t *testing.T) {
	m := NewMachine(ChoosingMode)

	require.NoError(t, m.Fire(RequestAI))
	require.Equal(t, AIPending, m.State())
	require.False(t, m.Editable())

	require.NoError(t, m.Fire(AISucceeded))
	require.NoError(t, m.Fire(StartEdit))
	require.True(t, m.Editable())

	require.NoError(t, m.Fire(FinishEdit))
	require.Equal(t, AIGenerated, m.State())

	require.NoError(t, m.Fire(Saved))
	require.Equal(t, ChoosingMode, m.State())
}

func TestMachineRejectsUndefinedTransitions(t *testing.T) {
	m := NewMachine(AIPending)

	err := m.Fire(StartEdit)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, AIPending, m.State())

	require.NoError(t, m.Fire(AIFailed))
	require.Equal(t, ChoosingMode, m.State())

	require.ErrorIs(t, m.Fire(Saved), ErrInvalidTransition)
}

func TestAllowedEvents(t *testing.T) {
	require.Equal(t, []Event{ChooseManual, RequestAI}, Allowed(ChoosingMode))
	require.Equal(t, []Event{FinishEdit, CancelEdit, Clear, Saved}, Allowed(AIEditing))
}

func TestInitialState(t *testing.T) {
	require.Equal(t, ChoosingMode, InitialState(ChoosingMode, false, false))
	require.Equal(t, ManualEditing, InitialState(ChoosingMode, true, false))
	require.Equal(t, AIGenerated, InitialState(ChoosingMode, true, true))
	require.Equal(t, ChoosingMode, InitialState(AIPending, false, false))
	require.Equal(t, AIGenerated, InitialState(AIPending, true, true))
	require.Equal(t, AIEditing, InitialState(AIEditing, true, true))
}

func TestParseEventAndState(t *testing.T) {
	e, err := ParseEvent(" Request_AI ")
	require.NoError(t, err)
	require.Equal(t, RequestAI, e)

	_, err = ParseEvent("explode")
	require.Error(t, err)

	require.Equal(t, ChoosingMode, ParseState(""))
	require.Equal(t, AIEditing, ParseState("ai_editing"))
}

func TestFenceInvalidatesOlderRequests(t *testing.T) {
	fence := NewFence()

	first := fence.Begin("sq-1")
	second := fence.Begin("sq-1")
	other := fence.Begin("sq-2")

	require.False(t, fence.Valid("sq-1", first))
	require.True(t, fence.Valid("sq-1", second))
	require.True(t, fence.Valid("sq-2", other))

	fence.Bump("sq-1")
	require.False(t, fence.Valid("sq-1", second))
}

func TestFenceConcurrentBegin(t *testing.T) {
	fence := NewFence()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fence.Begin("key")
		}()
	}
	wg.Wait()
	require.Equal(t, uint64(50), fence.Current("key"))
}
