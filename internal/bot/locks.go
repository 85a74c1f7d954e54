package bot

import "sync"

// userLocks serializes update handling per user. The affordability check and
// the debit that follows are separate ledger calls, so two updates from the
// same user must never interleave between them; updates from different users
// still run concurrently.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock blocks until the user's lock is held and returns the unlock func.
func (u *userLocks) lock(userID int64) func() {
	u.mu.Lock()
	l, ok := u.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		u.locks[userID] = l
	}
	u.mu.Unlock()
	l.Lock()
	return l.Unlock
}
