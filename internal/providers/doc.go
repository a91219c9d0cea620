// Package providers describes the AI command line tools a review can run.
//
// Built-in profiles cover the claude and codex CLIs; additional commands can
// be configured by name. A provider only knows how to build a stream.Command
// for a prompt and whether its executable is installed. Running the command
// is the process host's job.
package providers
