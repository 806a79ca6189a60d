// Package preflight provides readiness checks for the binaries, directories
// and hosted APIs a reelgen run depends on.
//
// The run command calls RunAll before spending any API quota and aborts when
// a required check fails. The doctor command prints every check, including
// the network probes that RunAll skips.
package preflight
