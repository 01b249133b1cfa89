package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// CaptureRequest represents the record capture API request.
type CaptureRequest struct {
	SourceURL   string `json:"source_url,omitempty"`
	DocumentKey string `json:"document_key,omitempty"`
	Title       string `json:"title,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Record represents a knowledge record from the API.
type Record struct {
	ID             string   `json:"id"`
	SourceURL      string   `json:"source_url,omitempty"`
	DocumentKey    string   `json:"document_key,omitempty"`
	Status         string   `json:"status"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary,omitempty"`
	RelevanceNote  string   `json:"relevance_note,omitempty"`
	Excerpts       []string `json:"excerpts,omitempty"`
	ContentType    string   `json:"content_type,omitempty"`
	Credibility    string   `json:"credibility,omitempty"`
	Actionability  string   `json:"actionability,omitempty"`
	Note           string   `json:"note,omitempty"`
	HasFullContent bool     `json:"has_full_content"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	Findings       []struct {
		Label  string `json:"label"`
		Detail string `json:"detail"`
	} `json:"findings,omitempty"`
	Tags struct {
		Topics     []string `json:"topics,omitempty"`
		Methods    []string `json:"methods,omitempty"`
		Industries []string `json:"industries,omitempty"`
		Audiences  []string `json:"audiences,omitempty"`
	} `json:"tags"`
}

// CaptureCmd creates the capture command.
func CaptureCmd() *cobra.Command {
	var (
		title       string
		note        string
		documentKey string
	)

	cmd := &cobra.Command{
		Use:   "capture [url]",
		Short: "Capture a source into the knowledge base",
		Long: `Capture a URL or an uploaded document as a pending knowledge record.

Examples:
  # Capture an article
  curio capture https://example.com/post --note "worth a read"

  # Capture an uploaded document by its storage key
  curio capture --document-key owner-1/asset-2/report.pdf --title "Q3 Report"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			sourceURL := ""
			if len(args) > 0 {
				sourceURL = args[0]
			}
			return runCapture(sourceURL, documentKey, title, note, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title for the record")
	cmd.Flags().StringVar(&note, "note", "", "Personal note to attach")
	cmd.Flags().StringVar(&documentKey, "document-key", "", "Storage key of an uploaded document")

	return cmd
}

func runCapture(sourceURL, documentKey, title, note string, outputJSON bool) error {
	if sourceURL == "" && documentKey == "" {
		return fmt.Errorf("a URL argument or --document-key is required")
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := CaptureRequest{
		SourceURL:   sourceURL,
		DocumentKey: documentKey,
		Title:       title,
		Note:        note,
	}

	resp, err := api.Post("/records", req)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	var record Record
	if err := json.Unmarshal(resp.Data, &record); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Captured record: %s\n", record.ID)
		fmt.Printf("Status: %s\n", record.Status)
		if record.Title != "" {
			fmt.Printf("Title: %s\n", record.Title)
		}
		fmt.Println("Run 'curio ingest process' to extract and index pending records.")
	}

	return nil
}

func printRecord(record *Record) {
	fmt.Printf("Title: %s\n", record.Title)
	fmt.Printf("Status: %s\n", record.Status)
	if record.SourceURL != "" {
		fmt.Printf("Source: %s\n", record.SourceURL)
	}
	if record.ContentType != "" {
		fmt.Printf("Type: %s (credibility: %s, actionability: %s)\n",
			record.ContentType, record.Credibility, record.Actionability)
	}
	if record.Summary != "" {
		fmt.Printf("\n%s\n", record.Summary)
	}
	if len(record.Findings) > 0 {
		fmt.Println("\nFindings:")
		for _, f := range record.Findings {
			fmt.Printf("  - %s: %s\n", f.Label, f.Detail)
		}
	}
	if record.RelevanceNote != "" {
		fmt.Printf("\nWhy it matters: %s\n", record.RelevanceNote)
	}
	if len(record.Tags.Topics) > 0 {
		fmt.Printf("\nTopics: %s\n", strings.Join(record.Tags.Topics, ", "))
	}
	if record.Note != "" {
		fmt.Printf("Note: %s\n", record.Note)
	}
	fmt.Printf("\nCreated: %s\n", record.CreatedAt)
	fmt.Printf("ID: %s\n", record.ID)
}
