// Package workspace manages the scratch directory project repositories are
// checked out into during a build.
//
// Each Manager creates one uniquely named directory below its base (the OS
// temp dir by default) and removes it again on Cleanup, so concurrent builds
// never share checkouts.
package workspace
