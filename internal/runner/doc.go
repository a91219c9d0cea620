// Package runner hosts AI provider commands as local child processes.
//
// A [Host] implements stream.Launcher: each Start spawns one process under a
// correlation id, pipes the prompt to its stdin and publishes what the
// process produces to a stream publisher. stdout is read to the end and
// converted to text deltas by [ExtractText]; stderr is forwarded line by
// line. Exactly one terminal event is published per process unless it was
// cancelled, in which case Cancel publishes the cancelled event itself.
package runner
