package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/service"
)

// MediaProviderClient creates direct-upload transcoding jobs with the
// external video provider. The passthrough field is echoed back in every
// lifecycle event the provider emits, which is how the reconciler correlates
// them to our asset record.
type MediaProviderClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewMediaProviderClient(baseURL, token string) *MediaProviderClient {
	return &MediaProviderClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type createUploadRequest struct {
	CORSOrigin  string            `json:"cors_origin"`
	NewAssetReq createUploadAsset `json:"new_asset_settings"`
}

type createUploadAsset struct {
	PlaybackPolicy []string `json:"playback_policy"`
	Passthrough    string   `json:"passthrough"`
}

type createUploadResponse struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
}

// CreateJob asks the provider for an async job and a client-facing upload URL.
func (c *MediaProviderClient) CreateJob(ctx context.Context, req service.CreateJobRequest) (*service.MediaJob, error) {
	body, err := json.Marshal(createUploadRequest{
		CORSOrigin: req.CORSOrigin,
		NewAssetReq: createUploadAsset{
			PlaybackPolicy: []string{req.PlaybackPolicy},
			Passthrough:    req.Passthrough,
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/video/v1/uploads", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media provider returned %d", resp.StatusCode)
	}

	var out createUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &service.MediaJob{
		UploadID:  out.Data.ID,
		UploadURL: out.Data.URL,
	}, nil
}
