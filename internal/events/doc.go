// Package events provides the runtime Event value, the two-priority
// internal/external queue pair, and the delayed-send Scheduler (spec §4.2,
// §4.3). Queue consumers are single-threaded (the interpreter); producers
// may be concurrent (the interpreter itself, the scheduler's timer worker,
// I/O processors, invoked children) per the MPSC discipline required by
// spec §5.
package events
