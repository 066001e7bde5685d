// Package workspace manages the directory a posts repository is cloned into.
//
// Ephemeral managers create a fresh postbuilder-<timestamp>-* directory per
// build and remove it on Cleanup. Persistent managers reuse a fixed path and
// leave it in place so the last clone can be inspected.
package workspace
