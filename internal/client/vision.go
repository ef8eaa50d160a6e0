// Package client holds HTTP clients for the external collaborators: the
// visual classifier, the LLM text classifier and the video transcoding
// provider.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

// VisionClient calls the external label/text detection service.
type VisionClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewVisionClient(baseURL string) *VisionClient {
	return &VisionClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type detectLabelsRequest struct {
	Image         string  `json:"image"` // base64
	MinConfidence float64 `json:"minConfidence"`
}

type detectLabelsResponse struct {
	Labels []model.LabelFinding `json:"labels"`
}

// DetectLabels submits image bytes for label detection.
func (c *VisionClient) DetectLabels(ctx context.Context, image []byte, minConfidence float64) ([]model.LabelFinding, error) {
	var resp detectLabelsResponse
	err := c.post(ctx, "/v1/labels", detectLabelsRequest{
		Image:         base64.StdEncoding.EncodeToString(image),
		MinConfidence: minConfidence,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

type detectTextRequest struct {
	Image string `json:"image"`
}

type detectTextResponse struct {
	Detections []model.TextFinding `json:"detections"`
}

// DetectText submits image bytes for text detection (OCR).
func (c *VisionClient) DetectText(ctx context.Context, image []byte) ([]model.TextFinding, error) {
	var resp detectTextResponse
	err := c.post(ctx, "/v1/text", detectTextRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Detections, nil
}

func (c *VisionClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vision service %s returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
