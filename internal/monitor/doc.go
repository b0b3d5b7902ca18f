// Package monitor runs the poll loop that drives watched documents through
// their lifecycle. Each tick it snapshots the registry, probes every idle path
// on its own goroutine (bounded by a semaphore), applies watch.Advance, and
// hands released documents to the archiver.
//
// Archive work runs detached from the loop context so Stop never interrupts a
// move that has started; Stop waits for in-flight tasks instead.
package monitor
