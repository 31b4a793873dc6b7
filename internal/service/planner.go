package service

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock time and one-shot timers so the reminder path
// can be driven by a virtual clock in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the cancellable half of Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }

// Handle identifies one armed timer.
type Handle uint64

// Planner owns the set of armed one-shot callbacks. Arming a time that is not
// strictly in the future is a no-op: a negative delay means "already missed",
// not "fire immediately".
type Planner struct {
	clock Clock

	mu     sync.Mutex
	next   Handle
	timers map[Handle]Timer
}

// NewPlanner builds a planner; a nil clock means real time.
func NewPlanner(clock Clock) *Planner {
	if clock == nil {
		clock = realClock{}
	}
	return &Planner{clock: clock, timers: make(map[Handle]Timer)}
}

func (p *Planner) Clock() Clock { return p.clock }

// Arm schedules fn to run once at the given instant, invoked with the same
// handle Arm returns. The handle is assigned before the timer is created, so
// fn sees it even when the timer fires before Arm returns to the caller.
// The second return is false when at is not in the future.
func (p *Planner) Arm(at time.Time, fn func(Handle)) (Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := at.Sub(p.clock.Now())
	if d <= 0 {
		return 0, false
	}

	p.next++
	h := p.next
	p.timers[h] = p.clock.AfterFunc(d, func() {
		p.drop(h)
		fn(h)
	})
	return h, true
}

// Cancel stops the timer behind h if it is still pending.
func (p *Planner) Cancel(h Handle) {
	p.mu.Lock()
	t, ok := p.timers[h]
	delete(p.timers, h)
	p.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// Clear cancels every pending timer; used by the full re-plan pass.
func (p *Planner) Clear() {
	p.mu.Lock()
	timers := p.timers
	p.timers = make(map[Handle]Timer)
	p.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

// Len reports how many timers are currently armed.
func (p *Planner) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

func (p *Planner) drop(h Handle) {
	p.mu.Lock()
	delete(p.timers, h)
	p.mu.Unlock()
}
