package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

var (
	docTitle       string
	docDescription string
	docContent     string
	docContentFile string
	docCategory    string
	docFileURL     string
	docImage       string
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage individual documents",
	Long: `Write, fetch or delete a single document directly in both indices,
outside of any connection sync.`,
}

var documentPutCmd = &cobra.Command{
	Use:   "put [tenant] [doc-id]",
	Short: "Write a document to both indices",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentPut,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [tenant] [doc-id]",
	Short: "Show a document from the primary index",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [tenant] [doc-id]",
	Short: "Delete a document from both indices",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentDelete,
}

func init() {
	f := documentPutCmd.Flags()
	f.StringVar(&docTitle, "title", "", "document title")
	f.StringVar(&docDescription, "description", "", "short description")
	f.StringVar(&docContent, "content", "", "document body")
	f.StringVar(&docContentFile, "content-file", "", "read the body from a file")
	f.StringVar(&docCategory, "category", "", "category the document belongs to")
	f.StringVar(&docFileURL, "url", "", "link to the original file")
	f.StringVar(&docImage, "image", "", "preview image URL")
	_ = documentPutCmd.MarkFlagRequired("category")

	documentCmd.AddCommand(documentPutCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentPut(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	content := docContent
	if docContentFile != "" {
		data, err := os.ReadFile(docContentFile)
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		content = string(data)
	}

	doc := &domain.Document{
		ID:          args[1],
		TenantID:    args[0],
		Title:       docTitle,
		Description: docDescription,
		Content:     content,
		Category:    docCategory,
		FileURL:     docFileURL,
		Image:       docImage,
		UploadedAt:  time.Now().UTC(),
	}
	if docContentFile != "" {
		if info, err := os.Stat(docContentFile); err == nil {
			doc.FileSizeMB = float64(info.Size()) / (1024 * 1024)
		}
	}

	result, err := documentService.Put(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	cmd.Printf("Document %s: %s%s\n", result.DocumentID, result.Outcome, skippedNote(result))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	doc, err := documentService.Get(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID:       %s\n", doc.ID)
	cmd.Printf("Title:    %s\n", doc.Title)
	cmd.Printf("Category: %s\n", doc.Category)
	if doc.ConnectionID != "" {
		cmd.Printf("Source:   %s (record %s, chunk %d)\n", doc.ConnectionID, doc.RecordID, doc.ChunkIndex)
	}
	if doc.FileURL != "" {
		cmd.Printf("URL:      %s\n", doc.FileURL)
	}
	if !doc.UploadedAt.IsZero() {
		cmd.Printf("Uploaded: %s\n", doc.UploadedAt.Local().Format("2006-01-02 15:04:05"))
	}
	cmd.Println()
	cmd.Println(doc.Content)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	result, err := documentService.Delete(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Document %s deleted: %s%s\n", result.DocumentID, result.Outcome, skippedNote(result))
	return nil
}

func skippedNote(result domain.WriteResult) string {
	if result.SecondarySkipped {
		return " (no secondary index)"
	}
	return ""
}
