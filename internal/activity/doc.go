// Package activity manages the lifecycle of simulated activities.
//
// An Activity is a named unit of work with a stable id, an optional start
// condition and a body. Registration compiles the start condition, inserts the
// activity into the run's Directory under its name and id, and schedules the
// body as a process. When a start condition is present the body is wrapped in
// a delayed process that logs a WAIT interval until the condition fires.
//
// Every body is bracketed by the activity's plugin pipeline and by START/STOP
// log entries:
//
//	[WAIT_START ... WAIT_STOP]  pre-process hooks  START  body  STOP  post-process hooks
//
// Activities constructed with PostponeStart are dormant until Register is
// called, and their completion is signalled explicitly with End. This is how
// groups drive their children: Sequential and Parallel rewrite the children's
// start conditions before any of them register.
package activity
