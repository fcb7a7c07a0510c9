package main

import (
	"os"

	"github.com/jenkins-x-plugins/jx-sealed-secrets/pkg/cmd"
)

// Entrypoint for the command
func main() {
	if err := cmd.Main().Execute(); err != nil {
		os.Exit(1)
	}
}
