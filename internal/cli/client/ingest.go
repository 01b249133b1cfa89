package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ProcessBatchRequest represents the batch ingestion API request.
type ProcessBatchRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ProcessBatchResponse represents the batch ingestion API response.
type ProcessBatchResponse struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// IngestJob represents a process-all job from the API.
type IngestJob struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Total       int    `json:"total"`
	Processed   int    `json:"processed"`
	Failed      int    `json:"failed"`
	LastError   string `json:"last_error,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// IngestCmd creates the ingest command group.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run the ingestion pipeline",
		Long:  "Process pending records through fetch, extraction, and indexing.",
	}

	cmd.AddCommand(IngestProcessCmd())
	cmd.AddCommand(IngestProcessAllCmd())
	cmd.AddCommand(IngestJobCmd())

	return cmd
}

// IngestProcessCmd creates the ingest process command.
func IngestProcessCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a batch of pending records",
		Long:  "Synchronously processes pending records, oldest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngestProcess(limit, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum records to process (0 = server default)")

	return cmd
}

func runIngestProcess(limit int, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/ingest/process", ProcessBatchRequest{Limit: limit})
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	var batch ProcessBatchResponse
	if err := json.Unmarshal(resp.Data, &batch); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(batch, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Processed %d records (%d failed)\n", batch.Processed, batch.Failed)
	for _, e := range batch.Errors {
		fmt.Printf("  error: %s\n", e)
	}

	return nil
}

// IngestProcessAllCmd creates the ingest process-all command.
func IngestProcessAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-all",
		Short: "Start a background job over all pending records",
		Long:  "Enqueues a detached job that processes every pending record. Poll it with 'curio ingest job <id>'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngestProcessAll(outputJSON)
		},
	}

	return cmd
}

func runIngestProcessAll(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/ingest/process-all", nil)
	if err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}

	var job IngestJob
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Started job %s (%d records)\n", job.ID, job.Total)
	fmt.Printf("Check progress with: curio ingest job %s\n", job.ID)

	return nil
}

// IngestJobCmd creates the ingest job command.
func IngestJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job <job_id>",
		Short: "Show the status of a process-all job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngestJob(args[0], outputJSON)
		},
	}

	return cmd
}

func runIngestJob(jobID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/ingest/jobs/%s", jobID))
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	var job IngestJob
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Job %s: %s\n", job.ID, job.Status)
	fmt.Printf("Progress: %d/%d (%d failed)\n", job.Processed, job.Total, job.Failed)
	if job.LastError != "" {
		fmt.Printf("Last error: %s\n", job.LastError)
	}
	if job.CompletedAt != "" {
		fmt.Printf("Completed: %s\n", job.CompletedAt)
	}

	return nil
}
