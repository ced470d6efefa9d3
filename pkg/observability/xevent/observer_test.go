package xevent

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoop(t *testing.T) {
	// Noop 对任意事件不 panic
	var o Observer = Noop{}
	assert.NotPanics(t, func() {
		o.OperationOutcome(OutcomeEvent{Key: "k", Outcome: OutcomeSuccess, At: time.Now()})
		o.BreakerTransition(TransitionEvent{Key: "k", From: "closed", To: "open"})
		o.RetryAttempt(RetryEvent{Key: "k", Attempt: 1})
		o.CacheAccess(CacheEvent{Cache: "memory", Key: "k", Hit: true})
	})
}

func TestFuncs(t *testing.T) {
	t.Run("设置的回调被调用", func(t *testing.T) {
		var outcomes []OutcomeEvent
		var transitions []TransitionEvent
		var retries []RetryEvent
		var caches []CacheEvent

		o := Funcs{
			OnOutcome:    func(e OutcomeEvent) { outcomes = append(outcomes, e) },
			OnTransition: func(e TransitionEvent) { transitions = append(transitions, e) },
			OnRetry:      func(e RetryEvent) { retries = append(retries, e) },
			OnCache:      func(e CacheEvent) { caches = append(caches, e) },
		}

		cause := errors.New("boom")
		o.OperationOutcome(OutcomeEvent{Key: "weather", Outcome: OutcomeFailure, Err: cause})
		o.BreakerTransition(TransitionEvent{Key: "weather", From: "closed", To: "open"})
		o.RetryAttempt(RetryEvent{Key: "weather", Attempt: 2, Err: cause})
		o.CacheAccess(CacheEvent{Cache: "redis", Key: "weather", Hit: false})

		assert.Len(t, outcomes, 1)
		assert.Equal(t, OutcomeFailure, outcomes[0].Outcome)
		assert.Len(t, transitions, 1)
		assert.Equal(t, "open", transitions[0].To)
		assert.Len(t, retries, 1)
		assert.Equal(t, 2, retries[0].Attempt)
		assert.Len(t, caches, 1)
		assert.False(t, caches[0].Hit)
	})

	t.Run("未设置的回调被忽略", func(t *testing.T) {
		o := Funcs{}
		assert.NotPanics(t, func() {
			o.OperationOutcome(OutcomeEvent{})
			o.BreakerTransition(TransitionEvent{})
			o.RetryAttempt(RetryEvent{})
			o.CacheAccess(CacheEvent{})
		})
	})
}

func TestMulti(t *testing.T) {
	t.Run("扇出到所有子观察者", func(t *testing.T) {
		var a, b int
		o := Multi(
			Funcs{OnOutcome: func(OutcomeEvent) { a++ }},
			Funcs{OnOutcome: func(OutcomeEvent) { b++ }},
		)

		o.OperationOutcome(OutcomeEvent{Key: "k"})
		o.OperationOutcome(OutcomeEvent{Key: "k"})

		assert.Equal(t, 2, a)
		assert.Equal(t, 2, b)
	})

	t.Run("事件类型各自扇出", func(t *testing.T) {
		var transitions, retries, caches int
		o := Multi(
			Funcs{
				OnTransition: func(TransitionEvent) { transitions++ },
				OnRetry:      func(RetryEvent) { retries++ },
				OnCache:      func(CacheEvent) { caches++ },
			},
			Noop{},
		)

		o.BreakerTransition(TransitionEvent{})
		o.RetryAttempt(RetryEvent{})
		o.CacheAccess(CacheEvent{})

		assert.Equal(t, 1, transitions)
		assert.Equal(t, 1, retries)
		assert.Equal(t, 1, caches)
	})

	t.Run("nil子观察者被跳过", func(t *testing.T) {
		var n int
		o := Multi(nil, Funcs{OnOutcome: func(OutcomeEvent) { n++ }}, nil)
		o.OperationOutcome(OutcomeEvent{})
		assert.Equal(t, 1, n)
	})

	t.Run("空Multi退化为Noop", func(t *testing.T) {
		o := Multi()
		assert.IsType(t, Noop{}, o)
		assert.NotPanics(t, func() { o.OperationOutcome(OutcomeEvent{}) })
	})

	t.Run("单观察者直接返回自身", func(t *testing.T) {
		f := Funcs{}
		assert.IsType(t, Funcs{}, Multi(f))
	})
}
