package session

import (
	"sync"
	"time"
)

// PollState guards the single refresh timer of a view. At most one timer is
// live. Every Arm and Disarm bumps the generation, so work started under an
// older generation can tell it has been superseded.
type PollState struct {
	mu     sync.Mutex
	active bool
	handle *time.Timer
	gen    uint64
}

// Arm starts the timer unless one is already live. fire runs on the timer's
// goroutine with the generation it was armed under.
func (p *PollState) Arm(d time.Duration, fire func(gen uint64)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return false
	}
	p.start(d, fire)
	return true
}

// Disarm stops the live timer, if any.
func (p *PollState) Disarm() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return false
	}
	p.handle.Stop()
	p.handle = nil
	p.active = false
	p.gen++
	return true
}

// Rearm restarts the timer for another round if gen is still current.
func (p *PollState) Rearm(gen uint64, d time.Duration, fire func(gen uint64)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || p.gen != gen {
		return false
	}
	p.start(d, fire)
	return true
}

// Live reports whether gen is the current armed generation.
func (p *PollState) Live(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active && p.gen == gen
}

// Settle ends the round started under gen. It returns false when the round
// was superseded, in which case its results must be discarded.
func (p *PollState) Settle(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || p.gen != gen {
		return false
	}
	p.active = false
	p.handle = nil
	return true
}

// Active reports whether a timer is armed.
func (p *PollState) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *PollState) start(d time.Duration, fire func(gen uint64)) {
	p.gen++
	gen := p.gen
	p.active = true
	p.handle = time.AfterFunc(d, func() { fire(gen) })
}
