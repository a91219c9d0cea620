// Package store keeps a local history of review results in sqlite.
//
// Results are stored whole as JSON next to a few indexed columns used for
// listing. A review saved with a diff key can be reused for an identical
// provider, model and diff through [Store.FindByKey].
package store
