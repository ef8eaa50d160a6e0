package service

import (
	"context"
	"time"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/repository"
)

// ClaimStore is the persistence capability the claim lifecycle depends on.
// UpdateStatus must be a single atomic conditional update returning the
// pre-update status; it is what makes once-only side effects enforceable.
type ClaimStore interface {
	Create(ctx context.Context, c *model.Claim) error
	Find(ctx context.Context, claimID string) (*model.Claim, error)
	UpdateStatus(ctx context.Context, claimID string, upd model.ClaimUpdate) (model.ClaimStatus, *model.Claim, error)
}

// AssetStore is the persistence capability for assets. The Mark* operations
// are atomic find-and-updates with status preconditions; they return
// (nil, nil) when the precondition did not match.
type AssetStore interface {
	Create(ctx context.Context, a *model.Asset) error
	Find(ctx context.Context, assetID string) (*model.Asset, error)
	MarkProcessing(ctx context.Context, assetID, providerAssetID string) (*model.Asset, error)
	MarkReady(ctx context.Context, assetID string, upd repository.VideoReadyUpdate) (*model.Asset, error)
	MarkErrored(ctx context.Context, assetID, message string) (*model.Asset, error)
	MarkDeleted(ctx context.Context, assetID string) (*model.Asset, error)
}

// StatsStore records and reads per-(user, profile) upload timestamps.
type StatsStore interface {
	AppendUsage(ctx context.Context, userID, profile string) error
	GetTimestamps(ctx context.Context, userID, profile string) ([]time.Time, error)
}

// BlobStore is the opaque object-storage collaborator.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// DeletePrefix removes every object under the prefix. Best-effort from
	// the pipeline's perspective; per-upload prefixes are never reused.
	DeletePrefix(ctx context.Context, prefix string) error
}

// VisualClassifier labels and reads text out of image bytes.
type VisualClassifier interface {
	DetectLabels(ctx context.Context, image []byte, minConfidence float64) ([]model.LabelFinding, error)
	DetectText(ctx context.Context, image []byte) ([]model.TextFinding, error)
}

// TextCompleter is a deterministic, low-token LLM completion call.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CreateJobRequest asks the external processor for an async transcoding job.
type CreateJobRequest struct {
	CORSOrigin     string
	PlaybackPolicy string
	// Passthrough is echoed back in every lifecycle event and is how the
	// reconciler correlates provider events to our asset record.
	Passthrough string
}

// MediaJob is the provider's handle for a direct upload.
type MediaJob struct {
	UploadID  string
	UploadURL string
}

// MediaJobClient is the external async video-processing provider.
type MediaJobClient interface {
	CreateJob(ctx context.Context, req CreateJobRequest) (*MediaJob, error)
}

// DeadLetterer is the escape hatch for events that cannot be processed.
type DeadLetterer interface {
	SendToDeadLetter(ctx context.Context, original []byte, reason string) error
}
