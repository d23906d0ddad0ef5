package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

var (
	searchLimit    int
	searchOffset   int
	searchSemantic bool
	searchJSON     bool
	historyLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search [tenant] [user] [query]",
	Short: "Search a tenant's documents as a user",
	Long: `Runs a keyword search over the tenant's primary index, restricted to
the categories the user is a member of. With --semantic the secondary
index is queried instead.`,
	Args: cobra.ExactArgs(3),
	RunE: runSearch,
}

var searchHistoryCmd = &cobra.Command{
	Use:   "history [tenant]",
	Short: "Show recent search queries for a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchHistory,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of results to skip")
	searchCmd.Flags().BoolVar(&searchSemantic, "semantic", false, "query the secondary index")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of queries")
	rootCmd.AddCommand(searchHistoryCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}

	req := domain.SearchRequest{
		TenantID: args[0],
		UserID:   args[1],
		Query:    args[2],
		Limit:    searchLimit,
		Offset:   searchOffset,
		Semantic: searchSemantic,
	}
	results, err := searchService.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

type searchResultJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	FileURL     string   `json:"file_url,omitempty"`
	Score       float64  `json:"score"`
	Highlights  []string `json:"highlights,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, 0, len(results))
	for i := range results {
		doc := &results[i].Document
		out = append(out, searchResultJSON{
			ID:          doc.ID,
			Title:       doc.Title,
			Description: doc.Description,
			Category:    doc.Category,
			FileURL:     doc.FileURL,
			Score:       results[i].Score,
			Highlights:  results[i].Highlights,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		doc := &results[i].Document
		title := doc.Title
		if title == "" {
			title = doc.ID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1+searchOffset, title, results[i].Score)
		cmd.Printf("      Category: %s\n", doc.Category)
		if doc.FileURL != "" {
			cmd.Printf("      %s\n", doc.FileURL)
		}
		if len(results[i].Highlights) > 0 {
			cmd.Printf("      %s\n", results[i].Highlights[0])
		}
		cmd.Println()
	}
	return nil
}

func runSearchHistory(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}

	logs, err := searchService.RecentQueries(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(logs) == 0 {
		cmd.Println("No queries recorded.")
		return nil
	}
	for _, l := range logs {
		mode := "keyword"
		if l.Semantic {
			mode = "semantic"
		}
		cmd.Printf("  %s  %-12s %-8s %3d  %s\n",
			l.CreatedAt.Local().Format("2006-01-02 15:04"), l.UserID, mode, l.Results, l.Query)
	}
	return nil
}
