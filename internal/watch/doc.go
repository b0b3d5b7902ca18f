// Package watch holds the in-memory set of documents under observation and the
// pure transition function that moves each one through its lifecycle:
// AwaitingLock until an editor first locks it, Locked while it is held open,
// and Archiving once it has been released.
//
// Registry is safe for concurrent use. Advance has no side effects; callers
// apply the returned entry through Registry.Update and act on the returned
// Action.
package watch
