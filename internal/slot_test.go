package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotStore(t *testing.T) {
	t.Run("allocates on the first pass then reuses", func(t *testing.T) {
		s := &SlotStore{}

		a, fresh, f := s.Next(1, SlotState)
		require.Nil(t, f)
		assert.True(t, fresh)
		b, fresh, f := s.Next(1, SlotEffect)
		require.Nil(t, f)
		assert.True(t, fresh)
		require.Nil(t, s.Finish(1))

		s.Reset()
		a2, fresh, f := s.Next(1, SlotState)
		require.Nil(t, f)
		assert.False(t, fresh)
		b2, _, f := s.Next(1, SlotEffect)
		require.Nil(t, f)
		require.Nil(t, s.Finish(1))

		assert.Same(t, a, a2)
		assert.Same(t, b, b2)
		assert.Equal(t, 1, b2.Position())
	})

	t.Run("kind mismatch", func(t *testing.T) {
		s := &SlotStore{}
		s.Next(1, SlotState)
		s.Finish(1)

		s.Reset()
		_, _, f := s.Next(1, SlotMemo)
		require.NotNil(t, f)
		assert.Equal(t, FaultHookOrder, f.Kind)
		assert.Equal(t, 0, f.Position)
	})

	t.Run("count mismatch", func(t *testing.T) {
		s := &SlotStore{}
		s.Next(1, SlotState)
		s.Next(1, SlotState)
		s.Finish(1)

		s.Reset()
		s.Next(1, SlotState)
		f := s.Finish(1)
		require.NotNil(t, f)
		assert.Equal(t, FaultHookCount, f.Kind)

		s.Reset()
		s.Next(1, SlotState)
		s.Next(1, SlotState)
		_, _, f = s.Next(1, SlotState)
		require.NotNil(t, f)
		assert.Equal(t, FaultHookCount, f.Kind)
	})

	t.Run("rollback before establishment", func(t *testing.T) {
		s := &SlotStore{}
		s.Next(1, SlotState)
		s.Rollback()
		assert.Equal(t, 0, s.Len())

		s.Next(1, SlotMemo)
		s.Finish(1)
		s.Reset()
		s.Rollback()
		assert.Equal(t, 1, s.Len())
	})
}

func TestFault(t *testing.T) {
	f := newFault(FaultHookOrder, 7, 2, "expected %s hook, got %s", SlotState, SlotMemo)

	assert.Equal(t, "hook: HOOK_ORDER_VIOLATION: instance 7 slot 2: expected state hook, got memo", f.Error())
	assert.ErrorIs(t, f, ErrHookOrderViolation)
	assert.NotErrorIs(t, f, ErrHookCountViolation)
	assert.True(t, f.Kind.Fatal())
	assert.False(t, FaultEffect.Fatal())

	wrapped := faultFromPanic(FaultEffect, 7, NoPosition, "boom")
	assert.Equal(t, "hook: EFFECT_FAULT: instance 7: panic: boom", wrapped.Error())

	same := faultFromPanic(FaultEffect, 7, 0, f)
	assert.Same(t, f, same)
}
