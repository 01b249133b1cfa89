package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// DownloadURLResponse represents the download URL API response.
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

// InitUploadRequest represents the init upload API request.
type InitUploadRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// InitUploadResponse represents the init upload API response.
type InitUploadResponse struct {
	AssetID    string `json:"asset_id"`
	StorageKey string `json:"storage_key"`
	UploadURL  string `json:"upload_url"`
}

// CompleteUploadRequest represents the complete upload API request.
type CompleteUploadRequest struct {
	AssetID    string `json:"asset_id"`
	StorageKey string `json:"storage_key"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	SHA256     string `json:"sha256"`
	RecordID   string `json:"record_id,omitempty"`
}

// AssetResponse represents the asset API response.
type AssetResponse struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Filename    string   `json:"filename"`
	MimeType    string   `json:"mime_type"`
	SHA256      string   `json:"sha256"`
	Keywords    []string `json:"keywords,omitempty"`
	Description string   `json:"description,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// AssetCmd creates the asset command group.
func AssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Asset management commands",
		Long:  "Commands for managing uploaded files (documents and images).",
	}

	cmd.AddCommand(AssetAddCmd())
	cmd.AddCommand(AssetGetCmd())
	cmd.AddCommand(AssetSummaryCmd())
	cmd.AddCommand(AssetDeleteCmd())

	return cmd
}

// AssetAddCmd creates the asset add command.
func AssetAddCmd() *cobra.Command {
	var recordID string

	cmd := &cobra.Command{
		Use:   "add <filepath>",
		Short: "Upload a file",
		Long: `Upload a file (document or image) for use in the knowledge base.

Examples:
  # Upload a document, then capture it as a record
  curio asset add report.pdf

  # Upload an image and attach it to an existing record
  curio asset add chart.png --record-id abc123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAssetAdd(args[0], recordID, outputJSON)
		},
	}

	cmd.Flags().StringVar(&recordID, "record-id", "", "Attach the asset to an existing record")

	return cmd
}

func runAssetAdd(filePath, recordID string, outputJSON bool) error {
	// Open file and get info
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	filename := filepath.Base(filePath)

	// Detect MIME type
	mimeType := mime.TypeByExtension(filepath.Ext(filePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	// Calculate SHA256
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to calculate hash: %w", err)
	}
	sha256Hash := hex.EncodeToString(hash.Sum(nil))

	// Reset file for upload
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	// Create API client
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	// Step 1: Init upload
	initReq := InitUploadRequest{
		Filename: filename,
		MimeType: mimeType,
	}

	initResp, err := api.Post("/assets/init", initReq)
	if err != nil {
		return fmt.Errorf("failed to init upload: %w", err)
	}

	var uploadInfo InitUploadResponse
	if err := json.Unmarshal(initResp.Data, &uploadInfo); err != nil {
		return fmt.Errorf("failed to parse init response: %w", err)
	}

	// Step 2: Upload to presigned URL
	if err := api.UploadFile(uploadInfo.UploadURL, filePath, mimeType); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	// Step 3: Complete upload
	completeReq := CompleteUploadRequest{
		AssetID:    uploadInfo.AssetID,
		StorageKey: uploadInfo.StorageKey,
		Filename:   filename,
		MimeType:   mimeType,
		SHA256:     sha256Hash,
		RecordID:   recordID,
	}

	completeResp, err := api.Post("/assets/complete", completeReq)
	if err != nil {
		return fmt.Errorf("failed to complete upload: %w", err)
	}

	var asset AssetResponse
	if err := json.Unmarshal(completeResp.Data, &asset); err != nil {
		return fmt.Errorf("failed to parse complete response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(asset, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Uploaded asset: %s\n", asset.ID)
		fmt.Printf("Filename: %s\n", asset.Filename)
		fmt.Printf("Storage key: %s\n", uploadInfo.StorageKey)
		if strings.HasPrefix(mimeType, "image/") {
			fmt.Println("Run 'curio asset summary' to generate a searchable description.")
		} else {
			fmt.Println("Capture it with: curio capture --document-key " + uploadInfo.StorageKey)
		}
	}

	return nil
}

// AssetGetCmd creates the asset get command.
func AssetGetCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "get <asset_id>",
		Short: "Download an asset by ID",
		Long:  "Downloads an asset by its ID.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAssetGet(args[0], outputPath, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "dest", "o", "", "Output file path (default: current directory with original filename)")

	return cmd
}

func runAssetGet(assetID, outputPath string, outputJSON bool) error {
	// Create API client
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	// Get download URL
	resp, err := api.Get(fmt.Sprintf("/assets/%s/download", assetID))
	if err != nil {
		return fmt.Errorf("failed to get download URL: %w", err)
	}

	// Parse response
	var downloadResp DownloadURLResponse
	if err := json.Unmarshal(resp.Data, &downloadResp); err != nil {
		return fmt.Errorf("failed to parse download URL response: %w", err)
	}

	if downloadResp.DownloadURL == "" {
		return fmt.Errorf("no download URL returned")
	}

	// Determine output path
	if outputPath == "" {
		// Extract filename from URL or use asset ID
		outputPath = extractFilenameFromURL(downloadResp.DownloadURL)
		if outputPath == "" {
			outputPath = assetID
		}
	}

	// Download file
	if err := api.DownloadFile(downloadResp.DownloadURL, outputPath); err != nil {
		return fmt.Errorf("failed to download asset: %w", err)
	}

	if outputJSON {
		result := map[string]interface{}{
			"success":  true,
			"asset_id": assetID,
			"path":     outputPath,
		}
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Downloaded asset to %s\n", outputPath)
	}

	return nil
}

// AssetSummaryCmd creates the asset summary command.
func AssetSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <asset_id>",
		Short: "Generate an AI description for an image asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAssetSummary(args[0], outputJSON)
		},
	}

	return cmd
}

func runAssetSummary(assetID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post(fmt.Sprintf("/assets/%s/summary", assetID), nil)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}

	var asset AssetResponse
	if err := json.Unmarshal(resp.Data, &asset); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(asset, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Summarized asset: %s\n", asset.ID)
		if asset.Description != "" {
			fmt.Printf("Description: %s\n", asset.Description)
		}
		if len(asset.Keywords) > 0 {
			fmt.Printf("Keywords: %s\n", strings.Join(asset.Keywords, ", "))
		}
	}

	return nil
}

// AssetDeleteCmd creates the asset delete command.
func AssetDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <asset_id>",
		Short: "Delete an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssetDelete(args[0])
		},
	}

	return cmd
}

func runAssetDelete(assetID string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	if _, err := api.Delete(fmt.Sprintf("/assets/%s", assetID)); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	fmt.Printf("Deleted asset %s\n", assetID)
	return nil
}

// extractFilenameFromURL extracts the filename from a URL path.
func extractFilenameFromURL(url string) string {
	// Simple extraction - get the last path component before any query params
	path := url
	if idx := indexOf(path, '?'); idx != -1 {
		path = path[:idx]
	}
	return filepath.Base(path)
}

func indexOf(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
