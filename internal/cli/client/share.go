package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ShareRequest represents the distribution API request.
type ShareRequest struct {
	Channel      string `json:"channel"`
	IncludeImage bool   `json:"include_image,omitempty"`
}

// ShareResponse represents the distribution API response.
type ShareResponse struct {
	Message struct {
		Title    string `json:"Title"`
		ImageURL string `json:"ImageURL"`
		Body     string `json:"Body"`
		LinkURL  string `json:"LinkURL"`
		Text     string `json:"Text"`
	} `json:"message"`
	Validation struct {
		Valid      bool     `json:"valid"`
		Violations []string `json:"violations,omitempty"`
	} `json:"validation"`
	Delivered bool `json:"delivered"`
}

// ShareCmd creates the share command.
func ShareCmd() *cobra.Command {
	var (
		channel      string
		includeImage bool
	)

	cmd := &cobra.Command{
		Use:   "share <record_id>",
		Short: "Share a record to a distribution channel",
		Long: `Renders a record's distribution message and shares it.

The team channel delivers immediately via webhook; digest and newsletter
shares flag the record for downstream delivery.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runShare(args[0], channel, includeImage, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "c", "team", "Channel (team, digest, or newsletter)")
	cmd.Flags().BoolVar(&includeImage, "image", false, "Include the record's image in the message")

	return cmd
}

func runShare(recordID, channel string, includeImage, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := ShareRequest{
		Channel:      channel,
		IncludeImage: includeImage,
	}

	resp, err := api.Post(fmt.Sprintf("/records/%s/distribute", recordID), req)
	if err != nil {
		return fmt.Errorf("share failed: %w", err)
	}

	var shareResp ShareResponse
	if err := json.Unmarshal(resp.Data, &shareResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(shareResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if shareResp.Delivered {
		fmt.Printf("Shared to %s channel\n", channel)
	} else {
		fmt.Printf("Flagged for %s distribution\n", channel)
	}

	if !shareResp.Validation.Valid {
		fmt.Println("\nCompliance warnings:")
		for _, v := range shareResp.Validation.Violations {
			fmt.Printf("  - %s\n", v)
		}
	}

	fmt.Println("\n--- Message ---")
	fmt.Println(shareResp.Message.Text)

	return nil
}
