// ABOUTME: CLI command to search indexed documents
// ABOUTME: Runs the tiered hybrid search from the command line
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/flowbrave/copilot/internal/search"
)

var (
	searchTenant string
	searchLimit  int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents",
		Long: `Search indexed documents using the tiered hybrid search:
exact title match, tag match, then vector similarity.

Examples:
  copilot search --tenant acme "expense approval"
  copilot search --tenant acme --limit 10 "onboarding"
  copilot search --tenant acme --format json "vacation policy"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().StringVar(&searchTenant, "tenant", "", "Tenant to search in (required)")
	cmd.Flags().IntVar(&searchLimit, "limit", search.DefaultLimit, "Maximum results to return")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	query := args[0]

	logger := newLogger()
	eng, err := buildEngines(logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	results, err := eng.search.Search(cmd.Context(), query, searchTenant, "", search.RoleAdmin, searchLimit)
	if err != nil {
		return fmt.Errorf("searching documents: %w", err)
	}

	if len(results) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No documents found for query: %s\n", query)
		}
		return nil
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "SCORE\tTIER\tTITLE\tTAGS\n")
		fmt.Fprintf(w, "-----\t----\t-----\t----\n")

		for _, result := range results {
			tags := "(none)"
			if len(result.Tags) > 0 {
				tags = fmt.Sprintf("%v", result.Tags)
			}
			fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
				result.RelevanceScore,
				result.SearchTier,
				truncate(result.Title, 40),
				truncate(tags, 30))
		}
		w.Flush()

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s)\n", len(results))
		}
	}

	return nil
}
