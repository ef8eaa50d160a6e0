package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

type ClaimRepo struct {
	pool *pgxpool.Pool
}

func NewClaimRepo(pool *pgxpool.Pool) *ClaimRepo {
	return &ClaimRepo{pool: pool}
}

const claimColumns = `claim_id, user_id, profile, status, retryable, reason,
	result_url, moderation_message, metadata, expires_at, created_at, updated_at`

// Create inserts a new claim in its initial state.
func (r *ClaimRepo) Create(ctx context.Context, c *model.Claim) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO claims (claim_id, user_id, profile, status, retryable, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, false, $5, now(), now())`,
		c.ID, c.UserID, c.Profile, c.Status, c.ExpiresAt)
	return err
}

// Find returns a claim by id. Returns pgx.ErrNoRows if absent.
func (r *ClaimRepo) Find(ctx context.Context, claimID string) (*model.Claim, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+claimColumns+`
		FROM claims
		WHERE claim_id = $1`, claimID)
	return scanClaim(row)
}

// UpdateStatus applies a transition as a single atomic statement and returns
// the pre-update status alongside the updated claim. The self-join snapshot
// (FROM claims old) reads the row as it was before the UPDATE, which is what
// lets the caller guard once-only side effects on the previous status without
// a separate read.
func (r *ClaimRepo) UpdateStatus(ctx context.Context, claimID string, upd model.ClaimUpdate) (model.ClaimStatus, *model.Claim, error) {
	var metadata []byte
	if upd.Metadata != nil {
		b, err := json.Marshal(upd.Metadata)
		if err != nil {
			return "", nil, fmt.Errorf("marshal claim metadata: %w", err)
		}
		metadata = b
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE claims c SET
			status             = $2,
			retryable          = $3,
			reason             = COALESCE($4, c.reason),
			result_url         = COALESCE($5, c.result_url),
			moderation_message = COALESCE($6, c.moderation_message),
			metadata           = COALESCE($7, c.metadata),
			updated_at         = now()
		FROM claims old
		WHERE c.claim_id = $1 AND old.claim_id = c.claim_id
		RETURNING old.status,
			c.claim_id, c.user_id, c.profile, c.status, c.retryable, c.reason,
			c.result_url, c.moderation_message, c.metadata, c.expires_at, c.created_at, c.updated_at`,
		claimID, upd.Status, upd.Retryable, upd.Reason, upd.ResultURL, upd.ModerationMessage, metadata)

	var prev model.ClaimStatus
	var c model.Claim
	var metaRaw []byte
	err := row.Scan(
		&prev,
		&c.ID, &c.UserID, &c.Profile, &c.Status, &c.Retryable, &c.Reason,
		&c.ResultURL, &c.ModerationMessage, &metaRaw, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return "", nil, err
	}
	if len(metaRaw) > 0 {
		var meta model.FileMetadata
		if err := json.Unmarshal(metaRaw, &meta); err == nil {
			c.Metadata = &meta
		}
	}
	return prev, &c, nil
}

type claimRow interface {
	Scan(dest ...any) error
}

func scanClaim(row claimRow) (*model.Claim, error) {
	var c model.Claim
	var metaRaw []byte
	err := row.Scan(
		&c.ID, &c.UserID, &c.Profile, &c.Status, &c.Retryable, &c.Reason,
		&c.ResultURL, &c.ModerationMessage, &metaRaw, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metaRaw) > 0 {
		var meta model.FileMetadata
		if err := json.Unmarshal(metaRaw, &meta); err == nil {
			c.Metadata = &meta
		}
	}
	return &c, nil
}
