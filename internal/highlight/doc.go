// Package highlight caches tokenized source lines for diff rendering.
//
// A [Cache] is keyed by file path and a 32-bit FNV-1a [Fingerprint] of the
// content, holds at most a fixed number of entries, and evicts the least
// recently accessed entry before inserting into a full cache. Tokenization is
// injected; [ChromaTokenizer] is the default used by the CLI.
package highlight
