package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// ListResponse represents the record list API response.
type ListResponse struct {
	Items   []Record `json:"items"`
	Cursor  string   `json:"cursor,omitempty"`
	HasMore bool     `json:"has_more"`
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge records",
		Long:  "Lists knowledge records, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runList(limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := "/records"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp ListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	// Human-readable output
	if len(listResp.Items) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	fmt.Printf("Found %d records:\n\n", len(listResp.Items))
	for i, item := range listResp.Items {
		fmt.Printf("%d. %s [%s]\n", i+1, item.Title, item.Status)
		if item.SourceURL != "" {
			fmt.Printf("   Source: %s\n", item.SourceURL)
		}
		if item.Summary != "" {
			summary := item.Summary
			if len(summary) > 100 {
				summary = summary[:97] + "..."
			}
			fmt.Printf("   %s\n", summary)
		}
		fmt.Printf("   Created: %s\n", item.CreatedAt)
		fmt.Printf("   ID: %s\n", item.ID)
		if i < len(listResp.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}
