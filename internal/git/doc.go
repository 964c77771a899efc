// Package git clones project repositories for the project page generator.
//
// Clones are always fresh: an existing checkout directory is removed first.
// Failures are translated into classified errors so transient network faults
// can be retried under the configured backoff policy while auth and
// not-found failures stop immediately.
package git
