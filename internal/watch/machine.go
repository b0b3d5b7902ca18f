package watch

import "time"

// Observation is what a probe saw for one path during a sweep.
type Observation int

const (
	ObservedUnlocked Observation = iota
	ObservedLocked
	ObservedMissing
)

func (o Observation) String() string {
	switch o {
	case ObservedLocked:
		return "locked"
	case ObservedMissing:
		return "missing"
	default:
		return "unlocked"
	}
}

// Action tells the caller what to do after applying a transition.
type Action int

const (
	ActionNone Action = iota
	ActionArchive
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionArchive:
		return "archive"
	case ActionRemove:
		return "remove"
	default:
		return "none"
	}
}

// Transition is the result of Advance.
type Transition struct {
	Next   Entry
	Action Action
}

// Changed reports whether the state moved.
func (t Transition) Changed(prev Entry) bool {
	return t.Next.State != prev.State
}

// Advance computes the next entry for one observation.
//
// AwaitingLock waits for the first lock and drops a file that disappears
// before it was ever opened. Locked clears any pending settle timer while the
// lock is held; once released (or missing) it archives immediately when delay
// is zero, otherwise after the file has stayed unlocked for delay. A missing
// Locked file still triggers an archive so the archiver can report the vanished
// source. Archiving retries on an unlocked or missing observation; a file that
// was reopened between attempts goes back to Locked and keeps its attempt count
// and partial destination. The caller bounds retries.
func Advance(e Entry, obs Observation, now time.Time, delay time.Duration) Transition {
	next := e
	next.LastCheckedAt = now

	switch e.State {
	case StateAwaitingLock:
		switch obs {
		case ObservedMissing:
			return Transition{Next: next, Action: ActionRemove}
		case ObservedLocked:
			next.State = StateLocked
			next.UnlockedSince = time.Time{}
		}
		return Transition{Next: next, Action: ActionNone}

	case StateLocked:
		if obs == ObservedLocked {
			next.UnlockedSince = time.Time{}
			return Transition{Next: next, Action: ActionNone}
		}
		if delay <= 0 {
			next.State = StateArchiving
			next.UnlockedSince = time.Time{}
			return Transition{Next: next, Action: ActionArchive}
		}
		if next.UnlockedSince.IsZero() {
			next.UnlockedSince = now
			return Transition{Next: next, Action: ActionNone}
		}
		if now.Sub(next.UnlockedSince) >= delay {
			next.State = StateArchiving
			next.UnlockedSince = time.Time{}
			return Transition{Next: next, Action: ActionArchive}
		}
		return Transition{Next: next, Action: ActionNone}

	case StateArchiving:
		if obs == ObservedLocked {
			next.State = StateLocked
			next.UnlockedSince = time.Time{}
			return Transition{Next: next, Action: ActionNone}
		}
		return Transition{Next: next, Action: ActionArchive}
	}

	// Unknown states restart observation.
	next.State = StateAwaitingLock
	return Transition{Next: next, Action: ActionNone}
}
