// Package registry is the process-local state that used to live in scattered
// globals: advisory locks, prompt cooldowns and scheduled close timers. None
// of it is durable; timers are rebuilt from the store at startup.
package registry

import (
	"strconv"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// Registry is created once in main and passed by reference.
type Registry struct {
	mu           sync.Mutex
	channelLocks map[int64]*sync.Mutex
	guildLocks   map[int64]*sync.Mutex
	eventLocks   map[int64]*sync.Mutex
	closeTimers  map[int64]*time.Timer

	cooldowns *cache.Cache
	cooldown  time.Duration
}

func New(promptCooldown time.Duration) *Registry {
	return &Registry{
		channelLocks: make(map[int64]*sync.Mutex),
		guildLocks:   make(map[int64]*sync.Mutex),
		eventLocks:   make(map[int64]*sync.Mutex),
		closeTimers:  make(map[int64]*time.Timer),
		cooldowns:    cache.New(promptCooldown, 2*promptCooldown),
		cooldown:     promptCooldown,
	}
}

// TryLockChannel acquires the channel's decision lock without blocking.
// A false return means another moderator is mid-processing.
func (r *Registry) TryLockChannel(channelID int64) bool {
	return r.lockFor(r.channelLocks, channelID).TryLock()
}

// UnlockChannel releases the channel's decision lock. The map entry stays:
// removing it would let a waiter holding the old mutex race a newcomer that
// gets a fresh one.
func (r *Registry) UnlockChannel(channelID int64) {
	r.mu.Lock()
	lock := r.channelLocks[channelID]
	r.mu.Unlock()
	if lock != nil {
		lock.Unlock()
	}
}

// TryLockGuild gates RSVP creation, one wizard per guild at a time.
func (r *Registry) TryLockGuild(guildID int64) bool {
	return r.lockFor(r.guildLocks, guildID).TryLock()
}

func (r *Registry) UnlockGuild(guildID int64) {
	r.mu.Lock()
	lock := r.guildLocks[guildID]
	r.mu.Unlock()
	if lock != nil {
		lock.Unlock()
	}
}

// LockEvent serializes the RSVP capacity check with its write. Handlers run
// in separate goroutines, so this one blocks instead of failing fast: a button
// press should wait its turn, not bounce.
func (r *Registry) LockEvent(messageID int64) {
	r.lockFor(r.eventLocks, messageID).Lock()
}

func (r *Registry) UnlockEvent(messageID int64) {
	r.mu.Lock()
	lock := r.eventLocks[messageID]
	r.mu.Unlock()
	if lock != nil {
		lock.Unlock()
	}
}

func (r *Registry) lockFor(m map[int64]*sync.Mutex, id int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock := m[id]
	if lock == nil {
		lock = &sync.Mutex{}
		m[id] = lock
	}
	return lock
}

// PromptCooldownPassed atomically claims the channel's cooldown slot. It
// returns false while a previous claim is still inside the window.
func (r *Registry) PromptCooldownPassed(channelID int64) bool {
	err := r.cooldowns.Add(strconv.FormatInt(channelID, 10), struct{}{}, r.cooldown)
	return err == nil
}

// ClearPromptCooldown forgets the channel's cooldown (ticket closed).
func (r *Registry) ClearPromptCooldown(channelID int64) {
	r.cooldowns.Delete(strconv.FormatInt(channelID, 10))
}

// ScheduleClose arms (or re-arms) the auto-close timer for an event message.
// fn runs once, after d; a d <= 0 fires almost immediately.
func (r *Registry) ScheduleClose(messageID int64, d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old := r.closeTimers[messageID]; old != nil {
		old.Stop()
	}
	r.closeTimers[messageID] = time.AfterFunc(d, fn)
}

// CancelClose stops the timer for the event, if armed.
func (r *Registry) CancelClose(messageID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.closeTimers[messageID]; t != nil {
		t.Stop()
		delete(r.closeTimers, messageID)
	}
}

// Shutdown cancels every outstanding timer, best effort.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.closeTimers {
		t.Stop()
		delete(r.closeTimers, id)
	}
}
