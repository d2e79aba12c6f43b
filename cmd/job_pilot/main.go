// Package main provides the entry point for the JobPilot HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_pilot",
	Short: "JobPilot job application tracker",
	Long:  "JobPilot tracks job applications through their full lifecycle, manages the career profile behind them, and generates tailored resume variants via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
