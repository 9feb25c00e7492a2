package link

import "time"

// TimerHandle is the handle returned by Timer.Schedule, per the
// scheduler/timer collaborator contract: the engine only ever cancels,
// resets, or extends it, never inspects its internals.
type TimerHandle interface {
	Cancel()
	Reset()
	Delay(dt time.Duration)
}

// Timer schedules a single callback after a delay. The client and
// server engines use exactly one Timer per connection, to implement the
// inactivity timeout: armed on every send, reset on every receive.
type Timer interface {
	Schedule(delay time.Duration, callback func()) TimerHandle
}

// StdTimer implements Timer on top of time.AfterFunc. It is the default
// collaborator; engines may be given an alternative Timer in tests to
// control expiry deterministically.
type StdTimer struct{}

func (StdTimer) Schedule(delay time.Duration, callback func()) TimerHandle {
	t := time.AfterFunc(delay, callback)
	return &stdTimerHandle{timer: t, delay: delay}
}

type stdTimerHandle struct {
	timer *time.Timer
	delay time.Duration
}

func (h *stdTimerHandle) Cancel() {
	h.timer.Stop()
}

func (h *stdTimerHandle) Reset() {
	h.timer.Stop()
	h.timer.Reset(h.delay)
}

func (h *stdTimerHandle) Delay(dt time.Duration) {
	h.delay = dt
	h.timer.Stop()
	h.timer.Reset(dt)
}
