// Package scheduler provides the cooperative event loop the engine runs on.
//
// Engine state is only touched from tasks executed by one [Scheduler]. The
// three kinds of deferred continuation the engine needs map to:
//
//   - [Scheduler.Post]: run as soon as possible (results of network loads)
//   - [Scheduler.RequestFrame]: run on the next animation frame (camera restore)
//   - [Scheduler.After]: run after a fixed delay (settle timers, readiness polling)
//
// [Loop] is the real-time implementation. [Manual] advances only when told
// to and is used by tests and by hosts that already own a frame clock, such
// as the terminal explorer.
package scheduler
