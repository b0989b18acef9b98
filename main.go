package main

import (
	"os"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/cmd"
)

// main is the entry point for the designspec MCP server and CLI.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
