// Package main is the entry point for the soillog CLI.
package main

import "github.com/soillog/soillog-go/cmd/soillog/commands"

func main() {
	commands.Execute()
}
