// Command reelgen produces the daily captioned reel and inspects its history.
//
// The run subcommand executes the full pipeline. segment, history, doctor,
// config and test-notify are operator utilities around it.
package main
