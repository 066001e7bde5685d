// Package build runs the index pipeline end to end: optional repository
// clone, index build, index and feed artifacts, metrics export and the
// build notification. All execution paths (CLI commands, tests) route
// through BuildService.
package build
