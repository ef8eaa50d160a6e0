package model

import "time"

// ClaimStatus is the lifecycle state of an upload claim.
type ClaimStatus string

const (
	ClaimPending            ClaimStatus = "pending"
	ClaimProcessing         ClaimStatus = "processing"
	ClaimUploaded           ClaimStatus = "uploaded" // terminal success, image flow
	ClaimReady              ClaimStatus = "ready"    // terminal success, video flow
	ClaimFailed             ClaimStatus = "failed"
	ClaimModerationRejected ClaimStatus = "moderation_rejected"
)

// TerminalSuccess reports whether the status is a terminal success state.
func (s ClaimStatus) TerminalSuccess() bool {
	return s == ClaimUploaded || s == ClaimReady
}

// Claim is a reservation token authorizing one upload attempt against a
// profile. It is the single source of truth for the upload's outcome and is
// never hard-deleted (kept for audit and retry idempotency).
type Claim struct {
	ID                string        `json:"claimId"`
	UserID            string        `json:"userId"`
	Profile           string        `json:"profile"`
	Status            ClaimStatus   `json:"status"`
	Retryable         bool          `json:"retryable"`
	Reason            *string       `json:"reason,omitempty"`
	ResultURL         *string       `json:"resultUrl,omitempty"`
	ModerationMessage *string       `json:"moderationMessage,omitempty"`
	Metadata          *FileMetadata `json:"metadata,omitempty"`
	ExpiresAt         time.Time     `json:"expiresAt"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// Expired reports whether the claim has passed its expiry at the given time.
func (c *Claim) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ClaimUpdate is the set of fields applied by a status transition. Nil
// pointers leave the stored value untouched.
type ClaimUpdate struct {
	Status            ClaimStatus
	Retryable         bool
	Reason            *string
	ResultURL         *string
	ModerationMessage *string
	Metadata          *FileMetadata
}

// FileMetadata is the structured outcome of a processed upload, embedded into
// the claim record on terminal success.
type FileMetadata struct {
	Width       int               `json:"width,omitempty"`
	Height      int               `json:"height,omitempty"`
	SizeBytes   int64             `json:"sizeBytes,omitempty"`
	Format      string            `json:"format,omitempty"`
	Duration    float64           `json:"duration,omitempty"`
	AspectRatio string            `json:"aspectRatio,omitempty"`
	URL         string            `json:"url,omitempty"`
	Resolutions map[string]string `json:"resolutions,omitempty"`
}

// RateLimitInfo is the derived read model for a user's remaining upload quota
// on a profile.
type RateLimitInfo struct {
	Limited    bool       `json:"limited"`
	MaxUploads int        `json:"maxUploads,omitempty"`
	PeriodDays int        `json:"periodDays,omitempty"`
	Remaining  int        `json:"remaining,omitempty"`
	ResetAt    *time.Time `json:"resetAt,omitempty"`
}
