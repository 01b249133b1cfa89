package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <record_id>",
		Short:   "Get a knowledge record by ID",
		Long:    "Retrieves a knowledge record by its ID and displays the extracted fields.",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(recordID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/records/%s", recordID))
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(resp.Data, &record); err != nil {
		return fmt.Errorf("failed to parse record: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(output))
	} else {
		printRecord(&record)
	}

	return nil
}
