// Package redact removes secrets from diff text before it is piped to an AI
// provider command.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS credentials, bearer tokens, URLs with inline
// credentials, and provider-specific tokens (Anthropic, OpenAI, GitHub,
// Slack).
//
// Path-based redaction is also supported: file sections of a diff whose
// paths match configured doublestar patterns keep their header and lose
// their body.
package redact
