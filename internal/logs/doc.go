// Package logs reads the daily reelgen log files for the `reelgen logs`
// command.
//
// Latest finds the newest log in the log directory, Tail returns its last N
// lines with the byte offset reached, and Follow polls from that offset until
// the context ends. Memory stays bounded by the requested line count.
package logs
