package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AnnotateRequest represents the annotation API request.
type AnnotateRequest struct {
	Note       string `json:"note"`
	Highlights []int  `json:"highlights,omitempty"`
}

// ArchiveCmd creates the archive command.
func ArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <record_id>",
		Short: "Archive a record",
		Long:  "Moves a record out of active circulation. Archived records stay searchable.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatusChange(args[0], "archive", outputJSON)
		},
	}

	return cmd
}

// DiscardCmd creates the discard command.
func DiscardCmd() *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "discard <record_id>",
		Short: "Discard a record",
		Long:  "Marks a record as discarded, removing it from retrieval.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runDiscard(args[0], idempotencyKey, outputJSON)
		},
	}

	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")

	return cmd
}

// AnnotateCmd creates the annotate command.
func AnnotateCmd() *cobra.Command {
	var (
		note       string
		highlights string
	)

	cmd := &cobra.Command{
		Use:   "annotate <record_id>",
		Short: "Attach a note and highlights to a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			var hl []int
			if highlights != "" {
				for _, part := range strings.Split(highlights, ",") {
					var n int
					if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &n); err != nil {
						return fmt.Errorf("invalid highlight index: %s", part)
					}
					hl = append(hl, n)
				}
			}

			return runAnnotate(args[0], note, hl, outputJSON)
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Personal note")
	cmd.Flags().StringVar(&highlights, "highlights", "", "Comma-separated finding indexes to highlight")

	return cmd
}

func runStatusChange(recordID, action string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post(fmt.Sprintf("/records/%s/%s", recordID, action), nil)
	if err != nil {
		return fmt.Errorf("failed to %s record: %w", action, err)
	}

	return printStatusResult(resp.Data, outputJSON)
}

func runDiscard(recordID, idempotencyKey string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	opts := RequestOptions{IdempotencyKey: idempotencyKey}
	resp, err := api.PostWithOptions(fmt.Sprintf("/records/%s/discard", recordID), nil, opts)
	if err != nil {
		return fmt.Errorf("failed to discard record: %w", err)
	}

	return printStatusResult(resp.Data, outputJSON)
}

func runAnnotate(recordID, note string, highlights []int, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := AnnotateRequest{
		Note:       note,
		Highlights: highlights,
	}

	resp, err := api.Put(fmt.Sprintf("/records/%s/annotations", recordID), req)
	if err != nil {
		return fmt.Errorf("failed to annotate record: %w", err)
	}

	return printStatusResult(resp.Data, outputJSON)
}

func printStatusResult(data json.RawMessage, outputJSON bool) error {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Record %s is now %s\n", record.ID, record.Status)
	if record.Title != "" {
		fmt.Printf("Title: %s\n", record.Title)
	}

	return nil
}
