// Package main provides the entry point for the fileingest CLI.
//
// fileingest runs every file of one or more directories through an ordered
// pipeline of analysis modules and records the artifacts they post in a case
// database.
//
// Usage:
//
//	fileingest ingest <dir>...
//	fileingest history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
