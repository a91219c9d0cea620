// Package stream consumes the tagged event stream of one external AI
// invocation and resolves it to exactly one outcome.
//
// The process host is reached through two narrow contracts: [Launcher]
// starts and cancels a command under a correlation id, and [Events] delivers
// lifecycle and content events for every running command to all
// subscribers. A [Session] subscribes, filters by its own correlation id,
// accumulates output and diagnostics, and finalizes once as completed,
// failed or cancelled. [Bus] is an in-process implementation of [Events].
package stream
