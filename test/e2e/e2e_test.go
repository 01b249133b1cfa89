//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordJSON struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	SourceURL string `json:"source_url"`
	Status    string `json:"status"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Findings  []struct {
		Label  string `json:"label"`
		Detail string `json:"detail"`
	} `json:"findings"`
	RelevanceNote  string `json:"relevance_note"`
	Note           string `json:"note"`
	Highlights     []int  `json:"highlights"`
	ImageKey       string `json:"image_key"`
	HasFullContent bool   `json:"has_full_content"`
	Distributed    struct {
		SharedTeam   bool `json:"shared_team"`
		SharedDigest bool `json:"shared_digest"`
	} `json:"distributed"`
}

type recordListJSON struct {
	Items   []recordJSON `json:"items"`
	Cursor  string       `json:"cursor"`
	HasMore bool         `json:"has_more"`
}

type ingestJobJSON struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Total       int32  `json:"total"`
	Processed   int32  `json:"processed"`
	Failed      int32  `json:"failed"`
	CompletedAt string `json:"completed_at"`
}

func captureRecord(t *testing.T, env *E2ETestEnv, sourceURL, title string) recordJSON {
	t.Helper()

	resp, err := env.Post("/records", map[string]string{
		"source_url": sourceURL,
		"title":      title,
	}, env.AuthToken)
	require.NoError(t, err)

	var rec recordJSON
	require.NoError(t, json.Unmarshal(resp.Data, &rec))
	return rec
}

func processBatch(t *testing.T, env *E2ETestEnv, limit int) {
	t.Helper()

	resp, err := env.Post("/ingest/process", map[string]int{"limit": limit}, env.AuthToken)
	require.NoError(t, err)

	var result struct {
		Processed int      `json:"processed"`
		Failed    int      `json:"failed"`
		Errors    []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	require.Zero(t, result.Failed, "batch had failures: %v", result.Errors)
}

func TestE2E_BootstrapAndAuth(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.Bootstrap()
	assert.NotEmpty(t, env.OwnerID)
	assert.NotEmpty(t, env.AuthToken)

	_, err := env.Get("/records", env.AuthToken)
	assert.NoError(t, err)

	_, err = env.Get("/records", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = env.Get("/records", "cur_not_a_real_token")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	t.Run("revoked key stops working", func(t *testing.T) {
		keyResp, err := env.Post("/apikeys", map[string]string{
			"owner_id": env.OwnerID,
			"name":     "disposable",
		}, "")
		require.NoError(t, err)

		var key struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(keyResp.Data, &key))

		_, err = env.Get("/records", key.Token)
		require.NoError(t, err)

		listResp, err := env.Get("/apikeys", env.AuthToken)
		require.NoError(t, err)

		var keys []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(listResp.Data, &keys))

		var disposableID string
		for _, k := range keys {
			if k.Name == "disposable" {
				disposableID = k.ID
			}
		}
		require.NotEmpty(t, disposableID)

		_, err = env.Delete("/apikeys/"+disposableID, env.AuthToken)
		require.NoError(t, err)

		_, err = env.Get("/records", key.Token)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

func TestE2E_RecordLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	rec := captureRecord(t, env, "https://example.com/lifecycle", "Lifecycle article")
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, env.OwnerID, rec.OwnerID)
	assert.Equal(t, "pending", rec.Status)
	assert.Equal(t, "Lifecycle article", rec.Title)

	t.Run("get by id", func(t *testing.T) {
		resp, err := env.Get("/records/"+rec.ID, env.AuthToken)
		require.NoError(t, err)

		var got recordJSON
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, "https://example.com/lifecycle", got.SourceURL)
	})

	t.Run("get unknown id returns 404", func(t *testing.T) {
		_, err := env.Get("/records/00000000-0000-0000-0000-000000000000", env.AuthToken)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("list newest first", func(t *testing.T) {
		second := captureRecord(t, env, "https://example.com/second", "Second article")

		resp, err := env.Get("/records?limit=10", env.AuthToken)
		require.NoError(t, err)

		var list recordListJSON
		require.NoError(t, json.Unmarshal(resp.Data, &list))
		require.Len(t, list.Items, 2)
		assert.Equal(t, second.ID, list.Items[0].ID)
		assert.Equal(t, rec.ID, list.Items[1].ID)
		assert.False(t, list.HasMore)
	})

	t.Run("annotate", func(t *testing.T) {
		resp, err := env.Put("/records/"+rec.ID+"/annotations", map[string]interface{}{
			"note":       "revisit for the quarterly report",
			"highlights": []int{0, 2},
		}, env.AuthToken)
		require.NoError(t, err)

		var got recordJSON
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, "revisit for the quarterly report", got.Note)
		assert.Equal(t, []int{0, 2}, got.Highlights)
	})

	t.Run("archive", func(t *testing.T) {
		resp, err := env.Post("/records/"+rec.ID+"/archive", map[string]string{}, env.AuthToken)
		require.NoError(t, err)

		var got recordJSON
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, "archived", got.Status)
	})

	t.Run("discard", func(t *testing.T) {
		victim := captureRecord(t, env, "https://example.com/discard-me", "Discard me")

		resp, err := env.Post("/records/"+victim.ID+"/discard", map[string]string{}, env.AuthToken)
		require.NoError(t, err)

		var got recordJSON
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, "discarded", got.Status)
	})
}

func TestE2E_IngestSearchAsk(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	quantum := captureRecord(t, env, "https://example.com/quantum", "Quantum computing survey")
	pricing := captureRecord(t, env, "https://example.com/pricing", "Subscription pricing benchmarks")

	processBatch(t, env, 10)

	t.Run("records become extracted", func(t *testing.T) {
		for _, id := range []string{quantum.ID, pricing.ID} {
			resp, err := env.Get("/records/"+id, env.AuthToken)
			require.NoError(t, err)

			var got recordJSON
			require.NoError(t, json.Unmarshal(resp.Data, &got))
			assert.Equal(t, "extracted", got.Status)
			assert.NotEmpty(t, got.Summary)
			assert.Len(t, got.Findings, 5)
			assert.True(t, got.HasFullContent)
		}
	})

	t.Run("search finds the matching record first", func(t *testing.T) {
		resp, err := env.Get("/search?q=quantum+computing", env.AuthToken)
		require.NoError(t, err)

		var result struct {
			Query string `json:"query"`
			Mode  string `json:"mode"`
			Hits  []struct {
				RecordID       string  `json:"record_id"`
				Title          string  `json:"title"`
				Score          float32 `json:"score"`
				HasFullContent bool    `json:"has_full_content"`
			} `json:"hits"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, "standard", result.Mode)
		require.NotEmpty(t, result.Hits)
		assert.Equal(t, quantum.ID, result.Hits[0].RecordID)
		assert.Equal(t, "Quantum computing survey", result.Hits[0].Title)
		assert.True(t, result.Hits[0].HasFullContent)
		assert.Greater(t, result.Hits[0].Score, float32(0))
	})

	t.Run("search excludes archived records", func(t *testing.T) {
		_, err := env.Post("/records/"+pricing.ID+"/archive", map[string]string{}, env.AuthToken)
		require.NoError(t, err)

		resp, err := env.Get("/search?q=pricing+benchmarks&mode=deep", env.AuthToken)
		require.NoError(t, err)

		var result struct {
			Hits []struct {
				RecordID string `json:"record_id"`
			} `json:"hits"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		for _, hit := range result.Hits {
			assert.NotEqual(t, pricing.ID, hit.RecordID)
		}
	})

	t.Run("ask returns a cited answer", func(t *testing.T) {
		resp, err := env.Post("/ask", map[string]string{
			"question": "What does the quantum computing survey say?",
		}, env.AuthToken)
		require.NoError(t, err)

		var result struct {
			Answer  string `json:"answer"`
			Sources []struct {
				Number   int    `json:"number"`
				RecordID string `json:"record_id"`
				Title    string `json:"title"`
			} `json:"sources"`
			Stats struct {
				Searched int `json:"searched"`
			} `json:"stats"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Contains(t, result.Answer, "[1]")
		require.NotEmpty(t, result.Sources)
		assert.Equal(t, 1, result.Sources[0].Number)
		assert.Equal(t, quantum.ID, result.Sources[0].RecordID)
		assert.Greater(t, result.Stats.Searched, 0)
	})
}

func TestE2E_ProcessAllJob(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		rec := captureRecord(t, env, fmt.Sprintf("https://example.com/bulk-%d", i), fmt.Sprintf("Bulk article %d", i))
		ids = append(ids, rec.ID)
	}

	resp, err := env.Post("/ingest/process-all", map[string]string{}, env.AuthToken)
	require.NoError(t, err)

	var job ingestJobJSON
	require.NoError(t, json.Unmarshal(resp.Data, &job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, int32(3), job.Total)

	deadline := time.Now().Add(30 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "job %s did not complete in time (status %s)", job.ID, job.Status)

		jobResp, err := env.Get("/ingest/jobs/"+job.ID, env.AuthToken)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(jobResp.Data, &job))

		if job.Status == "completed" || job.Status == "failed" {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}

	assert.Equal(t, "completed", job.Status)
	assert.Equal(t, int32(3), job.Processed)
	assert.Equal(t, int32(0), job.Failed)
	assert.NotEmpty(t, job.CompletedAt)

	for _, id := range ids {
		recResp, err := env.Get("/records/"+id, env.AuthToken)
		require.NoError(t, err)

		var got recordJSON
		require.NoError(t, json.Unmarshal(recResp.Data, &got))
		assert.Equal(t, "extracted", got.Status)
	}
}

func TestE2E_AssetUploadAttachDownload(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	rec := captureRecord(t, env, "https://example.com/with-image", "Article with chart")
	content := []byte("pretend this is chart pixel data")

	initResp, err := env.Post("/assets/init", map[string]string{
		"filename":  "chart.png",
		"mime_type": "image/png",
	}, env.AuthToken)
	require.NoError(t, err)

	var initResult struct {
		AssetID    string `json:"asset_id"`
		StorageKey string `json:"storage_key"`
		UploadURL  string `json:"upload_url"`
	}
	require.NoError(t, json.Unmarshal(initResp.Data, &initResult))
	require.NotEmpty(t, initResult.UploadURL)

	require.NoError(t, env.UploadFile(initResult.UploadURL, content, "image/png"))

	completeResp, err := env.Post("/assets/complete", map[string]string{
		"asset_id":    initResult.AssetID,
		"storage_key": initResult.StorageKey,
		"filename":    "chart.png",
		"mime_type":   "image/png",
		"sha256":      SHA256Sum(content),
		"record_id":   rec.ID,
	}, env.AuthToken)
	require.NoError(t, err)

	var asset struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		SHA256   string `json:"sha256"`
	}
	require.NoError(t, json.Unmarshal(completeResp.Data, &asset))
	assert.Equal(t, initResult.AssetID, asset.ID)
	assert.Equal(t, SHA256Sum(content), asset.SHA256)

	t.Run("image key attached to record", func(t *testing.T) {
		resp, err := env.Get("/records/"+rec.ID, env.AuthToken)
		require.NoError(t, err)

		var got recordJSON
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, initResult.StorageKey, got.ImageKey)
	})

	t.Run("download round trip", func(t *testing.T) {
		resp, err := env.Get("/assets/"+asset.ID+"/download", env.AuthToken)
		require.NoError(t, err)

		var dl struct {
			DownloadURL string `json:"download_url"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &dl))

		downloaded, err := env.DownloadFile(dl.DownloadURL)
		require.NoError(t, err)
		assert.Equal(t, content, downloaded)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := env.Delete("/assets/"+asset.ID, env.AuthToken)
		require.NoError(t, err)

		_, err = env.Get("/assets/"+asset.ID+"/download", env.AuthToken)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestE2E_Distribute(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	rec := captureRecord(t, env, "https://example.com/share-me", "Shareable insight")

	t.Run("pending record cannot be shared", func(t *testing.T) {
		_, err := env.Post("/records/"+rec.ID+"/distribute", map[string]interface{}{
			"channel": "team",
		}, env.AuthToken)
		assert.Error(t, err)
	})

	processBatch(t, env, 10)

	t.Run("team share delivers the message", func(t *testing.T) {
		resp, err := env.Post("/records/"+rec.ID+"/distribute", map[string]interface{}{
			"channel": "team",
		}, env.AuthToken)
		require.NoError(t, err)

		var result struct {
			Message struct {
				Title string `json:"Title"`
				Text  string `json:"Text"`
			} `json:"message"`
			Validation struct {
				Valid bool `json:"valid"`
			} `json:"validation"`
			Delivered bool `json:"delivered"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.True(t, result.Delivered)
		assert.NotEmpty(t, result.Message.Text)

		require.Len(t, env.Deliverer.Messages, 1)
		assert.Contains(t, env.Deliverer.Messages[0].Text, "Shareable insight")
	})

	t.Run("digest share flags without delivering", func(t *testing.T) {
		resp, err := env.Post("/records/"+rec.ID+"/distribute", map[string]interface{}{
			"channel": "digest",
		}, env.AuthToken)
		require.NoError(t, err)

		var result struct {
			Delivered bool `json:"delivered"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.False(t, result.Delivered)
		assert.Len(t, env.Deliverer.Messages, 1)

		recResp, err := env.Get("/records/"+rec.ID, env.AuthToken)
		require.NoError(t, err)

		var got recordJSON
		require.NoError(t, json.Unmarshal(recResp.Data, &got))
		assert.True(t, got.Distributed.SharedTeam)
		assert.True(t, got.Distributed.SharedDigest)
	})

	t.Run("unknown channel rejected", func(t *testing.T) {
		_, err := env.Post("/records/"+rec.ID+"/distribute", map[string]interface{}{
			"channel": "carrier-pigeon",
		}, env.AuthToken)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})
}
