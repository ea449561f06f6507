package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollArmFiresOnce(t *testing.T) {
	var p PollState
	fired := make(chan uint64, 2)

	require.True(t, p.Arm(time.Millisecond, func(gen uint64) { fired <- gen }))
	assert.False(t, p.Arm(time.Millisecond, func(gen uint64) { fired <- gen }), "second arm while live")

	select {
	case gen := <-fired:
		assert.True(t, p.Live(gen))
		assert.True(t, p.Settle(gen))
		assert.False(t, p.Active())
		assert.False(t, p.Settle(gen), "settle twice")
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	select {
	case <-fired:
		t.Fatal("fired twice")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPollDisarmSupersedesRound(t *testing.T) {
	var p PollState
	fired := make(chan uint64, 1)
	p.Arm(time.Millisecond, func(gen uint64) { fired <- gen })

	gen := <-fired
	require.True(t, p.Disarm())
	assert.False(t, p.Live(gen))
	assert.False(t, p.Settle(gen))
	assert.False(t, p.Rearm(gen, time.Millisecond, func(uint64) {}))
	assert.False(t, p.Disarm(), "already disarmed")
}

func TestPollDisarmStopsPendingTimer(t *testing.T) {
	var p PollState
	fired := make(chan uint64, 1)
	p.Arm(50*time.Millisecond, func(gen uint64) { fired <- gen })
	require.True(t, p.Disarm())

	select {
	case <-fired:
		t.Fatal("disarmed timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPollRearm(t *testing.T) {
	var p PollState
	fired := make(chan uint64, 4)
	var fire func(uint64)
	fire = func(gen uint64) { fired <- gen }

	p.Arm(time.Millisecond, fire)
	first := <-fired
	require.True(t, p.Rearm(first, time.Millisecond, fire))
	assert.False(t, p.Live(first), "rearm starts a new generation")

	second := <-fired
	assert.Greater(t, second, first)
	assert.True(t, p.Settle(second))
}
