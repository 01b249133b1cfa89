package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// SearchHit represents a single retrieval result.
type SearchHit struct {
	RecordID       string  `json:"record_id"`
	Title          string  `json:"title"`
	Summary        string  `json:"summary,omitempty"`
	RelevanceNote  string  `json:"relevance_note,omitempty"`
	SourceURL      string  `json:"source_url,omitempty"`
	Similarity     float32 `json:"similarity"`
	Score          float64 `json:"score"`
	HasFullContent bool    `json:"has_full_content"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Query string      `json:"query"`
	Mode  string      `json:"mode"`
	Hits  []SearchHit `json:"hits"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long:  "Searches indexed records with hybrid semantic and keyword retrieval.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(args[0], mode, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "standard", "Retrieval mode (standard or deep)")

	return cmd
}

func runSearch(query, mode string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("q", query)
	if mode != "" {
		params.Set("mode", mode)
	}

	resp, err := api.Get("/search?" + params.Encode())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results (%s mode):\n\n", len(searchResp.Hits), searchResp.Mode)
	for i, hit := range searchResp.Hits {
		fmt.Printf("%d. %s (%.3f)\n", i+1, hit.Title, hit.Score)
		if hit.Summary != "" {
			summary := hit.Summary
			if len(summary) > 100 {
				summary = summary[:97] + "..."
			}
			fmt.Printf("   %s\n", summary)
		}
		if hit.SourceURL != "" {
			fmt.Printf("   Source: %s\n", hit.SourceURL)
		}
		fmt.Printf("   ID: %s\n", hit.RecordID)
		if i < len(searchResp.Hits)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
