// Package main is the company intelligence API service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/api-service/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "api-service",
	Short:         "Company intelligence API service",
	Long:          "Resolves company names against stored analyses, generates new analyses with Gemini and runs background searches.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	def := os.Getenv("API_SERVICE_CONFIG_PATH")
	if def == "" {
		def = defaultConfigPath
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", def, "Path to configuration file")

	rootCmd.AddCommand(serveCmd, migrateCmd, sweepTokensCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
