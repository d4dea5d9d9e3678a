// Package main provides the clipxfer command-line tool.
//
// clipxfer moves files between two machines whose only shared channel is a
// text buffer, normally the system clipboard of a remote desktop session.
//
//	clipxfer send ./outbox --recursive --chunk 4m
//	clipxfer recv --out-dir ./inbox --timeout 10m
//
// Both sides default to an aligned cadence: the sender writes a frame on every
// 10 second tick and the receiver reads 5 seconds later. With --cadence manual
// each step waits for a key press instead, and q quits.
//
// Exit status is 0 on success or when the operator quits, 1 on configuration
// errors and 2 when a transfer fails.
package main
