package registry

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChannelLock(t *testing.T) {
	r := New(time.Second)

	assert.True(t, r.TryLockChannel(1))
	assert.False(t, r.TryLockChannel(1), "second acquisition must fail, not block")
	assert.True(t, r.TryLockChannel(2), "other channels are independent")

	r.UnlockChannel(1)
	assert.True(t, r.TryLockChannel(1))
}

func TestChannelLockMutualExclusion(t *testing.T) {
	r := New(time.Second)

	// hammer one channel from several goroutines; at no point may two of them
	// hold the lock at once, including right after an unlock
	var inside int32
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if !r.TryLockChannel(1) {
					continue
				}
				n := atomic.AddInt32(&inside, 1)
				assert.EqualValues(t, 1, n, "two holders inside the critical section")
				atomic.AddInt32(&inside, -1)
				r.UnlockChannel(1)
			}
		}()
	}
	wg.Wait()
}

func TestEventLock(t *testing.T) {
	r := New(time.Second)

	var inside int32
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				r.LockEvent(7)
				n := atomic.AddInt32(&inside, 1)
				assert.EqualValues(t, 1, n, "event lock admitted two holders")
				atomic.AddInt32(&inside, -1)
				r.UnlockEvent(7)
			}
		}()
	}
	wg.Wait()
}

func TestGuildLock(t *testing.T) {
	r := New(time.Second)

	assert.True(t, r.TryLockGuild(10))
	assert.False(t, r.TryLockGuild(10))
	r.UnlockGuild(10)
	assert.True(t, r.TryLockGuild(10))
}

func TestPromptCooldown(t *testing.T) {
	r := New(50 * time.Millisecond)

	assert.True(t, r.PromptCooldownPassed(1), "first claim goes through")
	assert.False(t, r.PromptCooldownPassed(1), "claim inside the window is refused")
	assert.True(t, r.PromptCooldownPassed(2), "channels do not share cooldowns")

	time.Sleep(80 * time.Millisecond)
	assert.True(t, r.PromptCooldownPassed(1), "window expired")
}

func TestClearPromptCooldown(t *testing.T) {
	r := New(time.Minute)
	assert.True(t, r.PromptCooldownPassed(1))
	r.ClearPromptCooldown(1)
	assert.True(t, r.PromptCooldownPassed(1))
}

func TestScheduleClose(t *testing.T) {
	r := New(time.Second)

	fired := make(chan struct{}, 1)
	r.ScheduleClose(1, 10*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestScheduleCloseRearm(t *testing.T) {
	r := New(time.Second)

	fired := make(chan string, 2)
	r.ScheduleClose(1, 20*time.Millisecond, func() { fired <- "old" })
	r.ScheduleClose(1, 40*time.Millisecond, func() { fired <- "new" })

	select {
	case v := <-fired:
		assert.Equal(t, "new", v, "re-arming must cancel the previous timer")
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	select {
	case <-fired:
		t.Fatal("old timer fired as well")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestCancelClose(t *testing.T) {
	r := New(time.Second)

	fired := make(chan struct{}, 1)
	r.ScheduleClose(1, 20*time.Millisecond, func() { fired <- struct{}{} })
	r.CancelClose(1)

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}
