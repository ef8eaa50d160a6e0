package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

type AssetRepo struct {
	pool *pgxpool.Pool
}

func NewAssetRepo(pool *pgxpool.Pool) *AssetRepo {
	return &AssetRepo{pool: pool}
}

const assetColumns = `asset_id, kind, user_id, profile, claim_id, original_filename, status,
	width, height, format, size_bytes, url, variants,
	provider_asset_id, provider_upload_id, playback_id, playback_url, preview_url,
	duration, aspect_ratio, error_message, created_at, updated_at`

// Create inserts a new asset of either kind.
func (r *AssetRepo) Create(ctx context.Context, a *model.Asset) error {
	img := a.Image
	if img == nil {
		img = &model.ImageData{}
	}
	vid := a.Video
	if vid == nil {
		vid = &model.VideoData{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO assets (asset_id, kind, user_id, profile, claim_id, original_filename, status,
			width, height, format, size_bytes, url, variants,
			provider_asset_id, provider_upload_id, playback_id, playback_url, preview_url,
			duration, aspect_ratio, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, $20, $21, now(), now())`,
		a.ID, a.Kind, a.UserID, a.Profile, a.ClaimID, a.OriginalFilename, a.Status,
		img.Width, img.Height, img.Format, img.SizeBytes, img.URL, img.Variants,
		vid.ProviderAssetID, vid.ProviderUploadID, vid.PlaybackID, vid.PlaybackURL, vid.PreviewURL,
		vid.Duration, vid.AspectRatio, vid.ErrorMessage)
	return err
}

// Find returns an asset by id. Returns pgx.ErrNoRows if absent.
func (r *AssetRepo) Find(ctx context.Context, assetID string) (*model.Asset, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE asset_id = $1`, assetID)
	a, err := scanAsset(row)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// MarkProcessing records the provider asset id while the asset is still
// preparing. The status guard makes the update a no-op against replayed or
// out-of-order events: an already-ready asset never regresses.
// Returns (nil, nil) when no row matched the precondition.
func (r *AssetRepo) MarkProcessing(ctx context.Context, assetID, providerAssetID string) (*model.Asset, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE assets SET
			provider_asset_id = COALESCE(NULLIF($2, ''), provider_asset_id),
			updated_at        = now()
		WHERE asset_id = $1 AND status NOT IN ('ready', 'errored', 'deleted')
		RETURNING `+assetColumns,
		assetID, providerAssetID)
	return scanConditional(row)
}

// VideoReadyUpdate carries the provider-derived metadata applied when a video
// becomes ready.
type VideoReadyUpdate struct {
	ProviderAssetID string
	PlaybackID      string
	PlaybackURL     string
	PreviewURL      string
	Duration        float64
	AspectRatio     string
}

// MarkReady applies final video metadata and moves the asset to ready.
// Replays are absorbed by the status guard. Returns (nil, nil) when no row
// matched.
func (r *AssetRepo) MarkReady(ctx context.Context, assetID string, upd VideoReadyUpdate) (*model.Asset, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE assets SET
			status            = 'ready',
			provider_asset_id = COALESCE(NULLIF($2, ''), provider_asset_id),
			playback_id       = $3,
			playback_url      = $4,
			preview_url       = $5,
			duration          = $6,
			aspect_ratio      = $7,
			updated_at        = now()
		WHERE asset_id = $1 AND status NOT IN ('ready', 'deleted')
		RETURNING `+assetColumns,
		assetID, upd.ProviderAssetID, upd.PlaybackID, upd.PlaybackURL, upd.PreviewURL,
		upd.Duration, upd.AspectRatio)
	return scanConditional(row)
}

// MarkErrored records the provider's error message. The status guard keeps
// ready terminal: a late or replayed errored event never regresses a ready
// asset. Returns (nil, nil) when no row matched.
func (r *AssetRepo) MarkErrored(ctx context.Context, assetID, message string) (*model.Asset, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE assets SET
			status        = 'errored',
			error_message = $2,
			updated_at    = now()
		WHERE asset_id = $1 AND status NOT IN ('ready', 'deleted')
		RETURNING `+assetColumns,
		assetID, message)
	return scanConditional(row)
}

// MarkDeleted mirrors a provider-side deletion. The linked claim is left
// untouched by design. Returns (nil, nil) when no row matched.
func (r *AssetRepo) MarkDeleted(ctx context.Context, assetID string) (*model.Asset, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE assets SET
			status     = 'deleted',
			updated_at = now()
		WHERE asset_id = $1 AND status <> 'deleted'
		RETURNING `+assetColumns,
		assetID)
	return scanConditional(row)
}

func scanConditional(row pgx.Row) (*model.Asset, error) {
	a, err := scanAsset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAsset(row pgx.Row) (*model.Asset, error) {
	var a model.Asset
	var kind string
	var img model.ImageData
	var vid model.VideoData
	err := row.Scan(
		&a.ID, &kind, &a.UserID, &a.Profile, &a.ClaimID, &a.OriginalFilename, &a.Status,
		&img.Width, &img.Height, &img.Format, &img.SizeBytes, &img.URL, &img.Variants,
		&vid.ProviderAssetID, &vid.ProviderUploadID, &vid.PlaybackID, &vid.PlaybackURL, &vid.PreviewURL,
		&vid.Duration, &vid.AspectRatio, &vid.ErrorMessage, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// The kind tag is parsed once here at the storage boundary; everything
	// downstream trusts it.
	a.Kind, err = model.ParseAssetKind(kind)
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case model.AssetKindImage:
		a.Image = &img
	case model.AssetKindVideo:
		a.Video = &vid
	}
	return &a, nil
}
