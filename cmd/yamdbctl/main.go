// Package main provides yamdbctl, the YaMDb administration tool.
package main

import "github.com/yamdb/yamdb-server/cmd/yamdbctl/commands"

func main() {
	commands.Execute()
}
