// Package review turns AI provider output into a normalized review result
// and drives one review from prompt to finished result.
//
// [Extract] recovers a candidate JSON object from free-form, possibly fenced
// or truncated model text. [Normalize] maps the candidate onto a [Result]
// and never fails: missing or broken structure degrades to a summary-only
// completed result. Comment and suggestion ids are derived from the result
// id and their array position.
//
// [Engine] builds the prompt (optionally redacted, with language hints),
// runs a stream.Session against a provider command, and resolves the
// session's outcome to a completed or failed result.
//
// Rules packs (rules.go) allow callers to override comment severities by
// category, specify focus areas, and declare required checks.
package review
