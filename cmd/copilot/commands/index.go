// ABOUTME: Index command ingests a document file into the store with embeddings
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/flowbrave/copilot/internal/models"
)

var (
	indexTitle  string
	indexTenant string
	indexTags   []string
	indexID     string
)

// NewIndexCmd creates the index command.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Index a document",
		Long: `Index a document file into the store. Long documents are split into
chunks and each chunk gets its own embedding.

Examples:
  copilot index --tenant acme onboarding.md
  copilot index --tenant acme --title "Expense Policy" --tags finance policy.html
  copilot index --tenant acme --id 42 updated-policy.md`,
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}

	cmd.Flags().StringVar(&indexTitle, "title", "", "Document title (default: file name)")
	cmd.Flags().StringVar(&indexTenant, "tenant", "", "Tenant the document belongs to (required)")
	cmd.Flags().StringSliceVar(&indexTags, "tags", nil, "Tags for the document")
	cmd.Flags().StringVar(&indexID, "id", "", "Existing document id to reindex")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	title := indexTitle
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	logger := newLogger()
	eng, err := buildEngines(logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	doc, err := eng.indexer.Index(cmd.Context(), models.Document{
		ID:       indexID,
		Title:    title,
		Content:  string(content),
		Tags:     indexTags,
		TenantID: indexTenant,
	})
	if err != nil {
		return fmt.Errorf("indexing document: %w", err)
	}

	if !quiet {
		if doc.ChunkCount > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %q as %d chunks (id: %s)\n", doc.Title, doc.ChunkCount, doc.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %q (id: %s)\n", doc.Title, doc.ID)
		}
	}
	return nil
}
