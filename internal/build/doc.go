// Package build runs a complete site build: load the site, collect template
// functions, run the generator plugins in priority order, render and write.
//
// All execution paths (the build command, watch rebuilds, tests) go through
// Runner.
package build
