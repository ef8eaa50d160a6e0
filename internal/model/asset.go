package model

import (
	"fmt"
	"time"
)

// AssetKind discriminates the two asset variants. It is parsed once at the
// boundary (profile config or event payload), never re-derived downstream.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// ParseAssetKind validates an asset kind tag.
func ParseAssetKind(s string) (AssetKind, error) {
	switch AssetKind(s) {
	case AssetKindImage, AssetKindVideo:
		return AssetKind(s), nil
	}
	return "", fmt.Errorf("unknown asset kind %q", s)
}

// AssetStatus mirrors the provider lifecycle for video assets. Image assets
// are created directly in AssetReady.
type AssetStatus string

const (
	AssetPreparing AssetStatus = "preparing"
	AssetReady     AssetStatus = "ready"
	AssetErrored   AssetStatus = "errored"
	AssetDeleted   AssetStatus = "deleted"
)

// Asset is a stored media record. Exactly one of Image/Video is set,
// matching Kind.
type Asset struct {
	ID               string      `json:"assetId"`
	Kind             AssetKind   `json:"kind"`
	UserID           string      `json:"userId"`
	Profile          string      `json:"profile"`
	ClaimID          *string     `json:"claimId,omitempty"`
	OriginalFilename string      `json:"originalFilename,omitempty"`
	Status           AssetStatus `json:"status"`
	Image            *ImageData  `json:"image,omitempty"`
	Video            *VideoData  `json:"video,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// ImageData holds the derived image payload: the primary object plus named
// resolution variants.
type ImageData struct {
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Format    string            `json:"format"`
	SizeBytes int64             `json:"sizeBytes"`
	URL       string            `json:"url"`
	Variants  map[string]string `json:"variants,omitempty"`
}

// VideoData holds provider identifiers and derived playback URLs for a video
// asset processed by the external transcoding provider.
type VideoData struct {
	ProviderAssetID  string  `json:"providerAssetId,omitempty"`
	ProviderUploadID string  `json:"providerUploadId,omitempty"`
	PlaybackID       string  `json:"playbackId,omitempty"`
	Duration         float64 `json:"duration,omitempty"`
	AspectRatio      string  `json:"aspectRatio,omitempty"`
	PlaybackURL      string  `json:"playbackUrl,omitempty"`
	PreviewURL       string  `json:"previewUrl,omitempty"`
	ErrorMessage     string  `json:"errorMessage,omitempty"`
}
