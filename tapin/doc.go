// Package tapin drives a lens through a TAP-in style console over a framed
// serial link.
//
// # Session Lifecycle
//
// A [Session] walks the console and the attached lens through a fixed
// sequence of commands. Entering a state issues exactly one command; the
// matching reply moves the session on:
//
//	GettingConsoleStatus     → (console, GET_STATUS)
//	WaitingForLensAttachment → (console, IS_ATTACHED)    waits for attached flag ≠ 0
//	PoweringOnLens           → (console, POWER_ON 0x00)
//	GettingLensStatus        → (lens, GET_STATUS)        decodes the model string
//	GettingLensSetting       → (lens, GET_SETTINGS)
//	PoweringOffLens          → (console, POWER_OFF)      terminal once acknowledged
//
// With loop mode enabled, GettingLensSetting is followed by LoopingLensStatus,
// which keeps polling the lens status instead of powering it off.
//
// An ERROR reply in any state forces PoweringOffLens. Replies that do not match
// the current state are logged and ignored.
//
// # Timeouts
//
// When no byte has been received for the configured timeout, the command of
// the current state is issued again with a fresh sequence number. Retries are
// unbounded unless a retry limit is configured.
//
// # Driving a Session
//
// A Session does no I/O on its own apart from writing commands. [Driver] owns
// the poll loop: it reads available bytes from a [Port], feeds them to the
// session, checks the timeout and sleeps between iterations. All session state
// is owned by that single loop; Session is NOT goroutine-safe.
package tapin
