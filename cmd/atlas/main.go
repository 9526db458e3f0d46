package main

import (
	"os"

	"github.com/wonny/mfatlas/cmd/atlas/commands"
)

// main is the entry point for the MF Atlas CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/atlas [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
