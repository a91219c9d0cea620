// Package github provides a minimal GitHub REST API client for reading pull
// requests and posting lyon review results as pull-request reviews.
//
// Existing review comments implement anchor.Anchored so they can be placed
// under their diff lines. Rate-limited calls are retried with exponential
// back-off; authentication failures are reported immediately.
package github
