// Package main provides the entry point for the Resume Builder enhancement server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "resume_builder",
	Short:        "Resume Builder AI enhancement server",
	Long:         "Resume Builder rewrites resume sections with a generative model, failing over from a primary to a secondary API key, and serves the enhancement pipeline over HTTP.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
