// Package riskgate provides the command-line interface for the riskgate
// tool. It configures subcommands (scan, rules), parses flags, and executes
// the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/riskgate/riskgate/cmd/riskgate"
//	func main() { riskgate.Execute() }
package riskgate
