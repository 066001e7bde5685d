// Package git fetches the posts repository with go-git.
//
// Clones are shallow and single-branch by default. Transient failures
// (timeouts, reset connections, rate limits) are retried according to the
// repository's backoff settings; authentication and not-found errors fail
// immediately.
package git
