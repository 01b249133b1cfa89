package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// AskRequest represents the answer API request.
type AskRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode,omitempty"`
}

// AskSource is one cited source in an answer.
type AskSource struct {
	Number     int     `json:"number"`
	RecordID   string  `json:"record_id"`
	Title      string  `json:"title"`
	Link       string  `json:"link,omitempty"`
	Similarity float32 `json:"similarity"`
	HasFull    bool    `json:"has_full_content"`
}

// AskResponse represents the answer API response.
type AskResponse struct {
	Answer  string      `json:"answer"`
	Sources []AskSource `json:"sources"`
	Stats   struct {
		Searched        int `json:"searched"`
		WithFullContent int `json:"with_full_content"`
	} `json:"stats"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question over the knowledge base",
		Long:  "Synthesizes a cited answer from indexed records.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(args[0], mode, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "standard", "Retrieval mode (standard or deep)")

	return cmd
}

func runAsk(question, mode string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := AskRequest{
		Question: question,
		Mode:     mode,
	}

	resp, err := api.Post("/ask", req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)

	if len(askResp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range askResp.Sources {
			line := fmt.Sprintf("  [%d] %s", src.Number, src.Title)
			if src.Link != "" {
				line += " (" + src.Link + ")"
			}
			fmt.Println(line)
		}
	}

	return nil
}
