package hook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	t.Run("chained functional updates fold into one pass", func(t *testing.T) {
		r := &renderer{}
		d := NewDispatcher(r)

		var count int
		var setCount Setter[int]
		render := func(p *Pass) { count, setCount = UseState(p, 0) }

		require.NoError(t, d.Render(1, render))
		assert.Equal(t, 0, count)

		for range 3 {
			setCount.Update(func(prev int) int { return prev + 1 })
		}
		assert.Equal(t, []InstanceID{1}, r.scheduled())

		require.NoError(t, d.Render(1, render))
		assert.Equal(t, 3, count)
	})

	t.Run("set then update", func(t *testing.T) {
		d := NewDispatcher(nil)

		var value string
		var set Setter[string]
		render := func(p *Pass) { value, set = UseState(p, "a") }

		require.NoError(t, d.Render(1, render))

		set.Set("b")
		set.Update(func(prev string) string { return prev + "c" })
		set.Update(func(prev string) string { return prev + "d" })

		require.NoError(t, d.Render(1, render))
		assert.Equal(t, "bcd", value)
	})

	t.Run("writes during a pass apply on the next pass", func(t *testing.T) {
		d := NewDispatcher(nil)

		log := []int{}
		render := func(p *Pass) {
			count, setCount := UseState(p, 0)
			if count == 0 {
				setCount.Set(5)
			}
			log = append(log, count)
		}

		require.NoError(t, d.Render(1, render))
		require.NoError(t, d.Render(1, render))
		require.NoError(t, d.Render(1, render))

		assert.Equal(t, []int{0, 5, 5}, log)
	})

	t.Run("setter is stable", func(t *testing.T) {
		d := NewDispatcher(nil)

		setters := []Setter[int]{}
		render := func(p *Pass) {
			_, set := UseState(p, 0)
			setters = append(setters, set)
		}

		require.NoError(t, d.Render(1, render))
		setters[0].Set(1)
		require.NoError(t, d.Render(1, render))

		assert.Equal(t, setters[0], setters[1])
		assert.True(t, Identical(setters[0], setters[1]))
	})

	t.Run("lazy initializer runs once", func(t *testing.T) {
		d := NewDispatcher(nil)

		calls := 0
		var value []int
		render := func(p *Pass) {
			value, _ = UseLazyState(p, func() []int {
				calls++
				return []int{1, 2, 3}
			})
		}

		for range 3 {
			require.NoError(t, d.Render(1, render))
		}

		assert.Equal(t, 1, calls)
		assert.Equal(t, []int{1, 2, 3}, value)
	})

	t.Run("several writes schedule one pass", func(t *testing.T) {
		r := &renderer{}
		d := NewDispatcher(r)

		var setA, setB Setter[int]
		render := func(p *Pass) {
			_, setA = UseState(p, 0)
			_, setB = UseState(p, 0)
		}
		require.NoError(t, d.Render(1, render))

		setA.Set(1)
		setB.Set(2)
		setA.Set(3)
		assert.Equal(t, []InstanceID{1}, r.scheduled())

		require.NoError(t, d.Render(1, render))
		setB.Set(4)
		assert.Equal(t, []InstanceID{1, 1}, r.scheduled())
	})

	t.Run("writes after unmount are ignored", func(t *testing.T) {
		r := &renderer{}
		d := NewDispatcher(r)

		var set Setter[int]
		require.NoError(t, d.Render(1, func(p *Pass) { _, set = UseState(p, 0) }))
		require.NoError(t, d.Unmount(1))

		set.Set(1)
		assert.Empty(t, r.scheduled())
	})

	t.Run("updater panic fails the pass and keeps the committed value", func(t *testing.T) {
		d := NewDispatcher(nil)

		var count int
		var set Setter[int]
		render := func(p *Pass) { count, set = UseState(p, 1) }
		require.NoError(t, d.Render(1, render))

		set.Update(func(int) int { panic(errors.New("bad updater")) })

		err := d.Render(1, render)
		assert.ErrorIs(t, err, ErrReducerFault)
		assert.EqualError(t, errors.Unwrap(err), "bad updater")
		assert.Equal(t, 1, count)
	})

	t.Run("faulting updater is dropped, not folded again", func(t *testing.T) {
		d := NewDispatcher(nil)

		var count int
		var set Setter[int]
		render := func(p *Pass) { count, set = UseState(p, 1) }
		require.NoError(t, d.Render(1, render))

		calls := 0
		set.Update(func(n int) int { return n + 1 })
		set.Update(func(int) int {
			calls++
			panic("bad updater")
		})
		set.Update(func(n int) int { return n * 10 })

		assert.ErrorIs(t, d.Render(1, render), ErrReducerFault)
		assert.Equal(t, 1, count)

		// transitions before the fault go with it; the ones after still apply
		for range 2 {
			require.NoError(t, d.Render(1, render))
		}
		assert.Equal(t, 1, calls)
		assert.Equal(t, 10, count)
	})
}

func TestEqualWrites(t *testing.T) {
	t.Run("scheduled by default", func(t *testing.T) {
		r := &renderer{}
		d := NewDispatcher(r)

		var set Setter[int]
		require.NoError(t, d.Render(1, func(p *Pass) { _, set = UseState(p, 7) }))

		set.Set(7)
		assert.Equal(t, []InstanceID{1}, r.scheduled())
	})

	t.Run("skipped when configured", func(t *testing.T) {
		r := &renderer{}
		d := NewDispatcher(r, WithSkipEqualWrites(true))

		var set Setter[int]
		require.NoError(t, d.Render(1, func(p *Pass) { _, set = UseState(p, 7) }))

		set.Set(7)
		set.Update(func(prev int) int { return prev })
		assert.Empty(t, r.scheduled())

		set.Set(8)
		assert.Equal(t, []InstanceID{1}, r.scheduled())
	})

	t.Run("not skipped when other state is pending", func(t *testing.T) {
		r := &renderer{}
		d := NewDispatcher(r, WithSkipEqualWrites(true))

		var a, b int
		var setA, setB Setter[int]
		render := func(p *Pass) {
			a, setA = UseState(p, 0)
			b, setB = UseState(p, 0)
		}
		require.NoError(t, d.Render(1, render))

		setA.Set(1)
		setB.Set(0)
		setA.Set(0)

		require.NoError(t, d.Render(1, render))
		assert.Equal(t, 0, a)
		assert.Equal(t, 0, b)
		assert.Equal(t, []InstanceID{1}, r.scheduled())
	})

	t.Run("eager value feeds the fold", func(t *testing.T) {
		d := NewDispatcher(nil, WithSkipEqualWrites(true))

		calls := 0
		var count int
		var set Setter[int]
		render := func(p *Pass) { count, set = UseState(p, 0) }
		require.NoError(t, d.Render(1, render))

		set.Update(func(prev int) int {
			calls++
			return prev + 1
		})
		require.NoError(t, d.Render(1, render))

		assert.Equal(t, 1, count)
		assert.Equal(t, 1, calls)
	})

	t.Run("reducer equal result", func(t *testing.T) {
		r := &renderer{}
		d := NewDispatcher(r, WithSkipEqualWrites(true))

		var send Dispatch[string]
		require.NoError(t, d.Render(1, func(p *Pass) {
			_, send = UseReducer(p, counterReducer, 0)
		}))

		send.Send("noop")
		assert.Empty(t, r.scheduled())

		send.Send("inc")
		assert.Equal(t, []InstanceID{1}, r.scheduled())
	})
}

func counterReducer(state int, action string) int {
	switch action {
	case "inc":
		return state + 1
	case "dec":
		return state - 1
	}
	return state
}

type action struct {
	Type string
}

func TestReducer(t *testing.T) {
	t.Run("unhandled actions leave state unchanged", func(t *testing.T) {
		d := NewDispatcher(nil)

		reducer := func(s int, a action) int {
			if a.Type == "inc" {
				return s + 1
			}
			return s
		}

		var state int
		var send Dispatch[action]
		render := func(p *Pass) { state, send = UseReducer(p, reducer, 0) }
		require.NoError(t, d.Render(1, render))

		send.Send(action{Type: "inc"})
		send.Send(action{Type: "inc"})
		send.Send(action{Type: "dec"})

		require.NoError(t, d.Render(1, render))
		assert.Equal(t, 2, state)
	})

	t.Run("uses the reducer of the folding pass", func(t *testing.T) {
		d := NewDispatcher(nil)

		step := 1
		var state int
		var send Dispatch[string]
		render := func(p *Pass) {
			state, send = UseReducer(p, func(s int, a string) int {
				return s + step
			}, 0)
		}
		require.NoError(t, d.Render(1, render))

		send.Send("inc")
		step = 10
		require.NoError(t, d.Render(1, render))

		assert.Equal(t, 10, state)
	})

	t.Run("reducer panic keeps the committed state", func(t *testing.T) {
		d := NewDispatcher(nil)

		fail := false
		var state int
		var send Dispatch[string]
		render := func(p *Pass) {
			state, send = UseReducer(p, func(s int, a string) int {
				if fail {
					panic("reducer exploded")
				}
				return counterReducer(s, a)
			}, 0)
		}
		require.NoError(t, d.Render(1, render))

		send.Send("inc")
		require.NoError(t, d.Render(1, render))
		assert.Equal(t, 1, state)

		fail = true
		send.Send("inc")
		err := d.Render(1, render)
		assert.ErrorIs(t, err, ErrReducerFault)

		var perr *PanicError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "reducer exploded", perr.Value)

		// the fault is not fatal; the faulting action is dropped, later ones fold
		fail = false
		require.NoError(t, d.Render(1, render))
		assert.Equal(t, 1, state)

		send.Send("inc")
		require.NoError(t, d.Render(1, render))
		assert.Equal(t, 2, state)
	})

	t.Run("batched dispatch across instances", func(t *testing.T) {
		r := &renderer{}
		d := NewDispatcher(r)

		sends := map[InstanceID]Dispatch[string]{}
		for _, id := range []InstanceID{1, 2} {
			require.NoError(t, d.Render(id, func(p *Pass) {
				_, sends[id] = UseReducer(p, counterReducer, 0)
			}))
		}

		d.Batch(func() {
			sends[2].Send("inc")
			d.Batch(func() {
				sends[1].Send("inc")
				sends[2].Send("inc")
			})
			assert.Empty(t, r.scheduled())
		})

		assert.Equal(t, []InstanceID{2, 1}, r.scheduled())
	})
}
