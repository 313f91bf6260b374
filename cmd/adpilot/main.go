package main

import (
	"os"

	"github.com/wonny/adpilot/cmd/adpilot/commands"
)

// main is the entry point for the adpilot CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/adpilot [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
