package main

import (
	"github.com/spf13/cobra"

	"github.com/planora/planora/internal/api"
	"github.com/planora/planora/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "planora",
	Short: "Travel document extraction pipeline for tour plans",
	Long: `Planora extracts structured tour plans from travel agency documents.

Upload a DOCX or PDF itinerary and Planora turns it into a structured
plan: destination, duration, day-by-day itinerary, hotel tiers and
optional upgrades.

The pipeline includes:
  - DOCX and PDF text extraction with fallback readers
  - AI-assisted extraction with schema validation
  - A heuristic line classifier that works without any API key
  - NDJSON progress streaming with heartbeats for long AI calls`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.planora/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "planora home directory (default: ~/.planora)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
