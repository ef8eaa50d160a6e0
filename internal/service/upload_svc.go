package service

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/apperr"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/config"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

const moderationFailedReason = "moderation failed"

// UploadService is the upload orchestration pipeline: it validates the claim,
// fans out moderation and derivative work concurrently, joins the results and
// either commits the asset or rolls the storage prefix back.
type UploadService struct {
	claims     *ClaimService
	assets     AssetStore
	blobs      BlobStore
	moderation *ModerationService
	jobs       MediaJobClient
	profiles   config.Profiles
	corsOrigin string
}

func NewUploadService(
	claims *ClaimService,
	assets AssetStore,
	blobs BlobStore,
	moderation *ModerationService,
	jobs MediaJobClient,
	profiles config.Profiles,
	corsOrigin string,
) *UploadService {
	return &UploadService{
		claims:     claims,
		assets:     assets,
		blobs:      blobs,
		moderation: moderation,
		jobs:       jobs,
		profiles:   profiles,
		corsOrigin: corsOrigin,
	}
}

// ProcessUpload runs the synchronous image flow for a claim.
//
// Decode and constraint checks happen up front: an input that cannot satisfy
// the profile fails before any blob store or moderation call is made. After
// that, branch results join at an all-or-nothing barrier. An infrastructure
// failure in any derivative branch wins over moderation: the moderation
// result is discarded, the claim is marked failed and the per-upload storage
// prefix is deleted best-effort.
func (s *UploadService) ProcessUpload(ctx context.Context, claimID, actingUserID, filename string, data []byte) (*model.UploadResult, error) {
	claim, profile, err := s.admit(ctx, claimID, actingUserID, model.AssetKindImage)
	if err != nil {
		return nil, err
	}

	src, width, height, err := decodeChecked(data, profile)
	if err != nil {
		s.markFailed(ctx, claimID, err)
		return nil, err
	}

	// The prefix is the unit of rollback: fresh per attempt, never reused.
	prefix := path.Join(profile.PathPrefix, uuid.NewString())

	if _, err := s.claims.UpdateStatus(ctx, claimID, model.ClaimUpdate{Status: model.ClaimProcessing}); err != nil {
		return nil, err
	}

	var (
		verdict model.ModerationVerdict
		primary *derivedImage

		mu       sync.Mutex
		variants = make(map[string]string, len(profile.ExtraResolutions))
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Moderation never errors; failures degrade inside the engine.
		verdict = s.moderation.ScreenImage(gctx, data, filename)
		return nil
	})

	g.Go(func() error {
		d, err := derivePrimary(src, width, height, profile)
		if err != nil {
			return err
		}
		url, err := s.blobs.Put(gctx, prefix+"/original."+d.ext, d.bytes, d.contentType)
		if err != nil {
			return apperr.Wrap(apperr.KindInfrastructure, "upload primary derivative", err)
		}
		d.url = url
		primary = d
		return nil
	})

	for _, res := range profile.ExtraResolutions {
		res := res
		g.Go(func() error {
			d, err := deriveResolution(src, profile, res)
			if err != nil {
				return err
			}
			url, err := s.blobs.Put(gctx, fmt.Sprintf("%s/%s.%s", prefix, res.Name, d.ext), d.bytes, d.contentType)
			if err != nil {
				return apperr.Wrap(apperr.KindInfrastructure, "upload "+res.Name+" derivative", err)
			}
			mu.Lock()
			variants[res.Name] = url
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Transform or upload failed; moderation's outcome is irrelevant.
		s.markFailed(ctx, claimID, err)
		s.cleanupPrefix(ctx, prefix)
		return nil, err
	}

	if verdict.Inappropriate {
		// Rollback, then record the rejection as a retryable failure so the
		// user may try again with different content.
		s.cleanupPrefix(ctx, prefix)
		reason := moderationFailedReason
		if _, err := s.claims.UpdateStatus(ctx, claimID, model.ClaimUpdate{
			Status:            model.ClaimFailed,
			Retryable:         true,
			Reason:            &reason,
			ModerationMessage: &verdict.Message,
		}); err != nil {
			log.Error().Err(err).Str("claim_id", claimID).Msg("mark claim rejected failed")
		}
		return nil, apperr.New(apperr.KindPolicyRejection, verdict.Message)
	}

	return s.commit(ctx, claim, profile, filename, primary, variants, verdict)
}

// CreateDirectUpload runs the asynchronous video flow: it requests an
// external transcoding job and records a pre-ready asset, leaving the claim
// in processing until the reconciler observes a terminal provider event.
// Video moderation happens downstream of transcoding, not inline.
func (s *UploadService) CreateDirectUpload(ctx context.Context, claimID, actingUserID, filename string) (*model.DirectUpload, error) {
	claim, _, err := s.admit(ctx, claimID, actingUserID, model.AssetKindVideo)
	if err != nil {
		return nil, err
	}

	if _, err := s.claims.UpdateStatus(ctx, claimID, model.ClaimUpdate{Status: model.ClaimProcessing}); err != nil {
		return nil, err
	}

	assetID := uuid.NewString()
	job, err := s.jobs.CreateJob(ctx, CreateJobRequest{
		CORSOrigin:     s.corsOrigin,
		PlaybackPolicy: "public",
		Passthrough:    assetID,
	})
	if err != nil {
		wrapped := apperr.Wrap(apperr.KindInfrastructure, "create transcoding job", err)
		s.markFailed(ctx, claimID, wrapped)
		return nil, wrapped
	}

	asset := &model.Asset{
		ID:               assetID,
		Kind:             model.AssetKindVideo,
		UserID:           claim.UserID,
		Profile:          claim.Profile,
		ClaimID:          &claim.ID,
		OriginalFilename: filename,
		Status:           model.AssetPreparing,
		Video:            &model.VideoData{ProviderUploadID: job.UploadID},
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		wrapped := apperr.Wrap(apperr.KindInfrastructure, "persist video asset", err)
		s.markFailed(ctx, claimID, wrapped)
		return nil, wrapped
	}

	log.Info().
		Str("claim_id", claimID).
		Str("asset_id", assetID).
		Str("upload_id", job.UploadID).
		Msg("direct upload created")

	return &model.DirectUpload{
		ClaimID:   claim.ID,
		AssetID:   assetID,
		UploadID:  job.UploadID,
		UploadURL: job.UploadURL,
	}, nil
}

// admit validates the claim, the requestor and the profile kind. An
// authorization mismatch leaves the claim untouched (no transition).
func (s *UploadService) admit(ctx context.Context, claimID, actingUserID string, kind model.AssetKind) (*model.Claim, config.Profile, error) {
	claim, err := s.claims.ValidateForUpload(ctx, claimID)
	if err != nil {
		return nil, config.Profile{}, err
	}
	if claim.UserID != actingUserID {
		return nil, config.Profile{}, apperr.Newf(apperr.KindAuthorization,
			"claim %s does not belong to the acting user", claimID)
	}

	profile, ok := s.profiles.Get(claim.Profile)
	if !ok {
		return nil, config.Profile{}, apperr.Newf(apperr.KindValidation, "unknown profile %q", claim.Profile)
	}
	if profile.Kind != kind {
		return nil, config.Profile{}, apperr.Newf(apperr.KindValidation,
			"profile %q does not accept %s uploads", claim.Profile, kind)
	}
	return claim, profile, nil
}

func (s *UploadService) commit(
	ctx context.Context,
	claim *model.Claim,
	profile config.Profile,
	filename string,
	primary *derivedImage,
	variants map[string]string,
	verdict model.ModerationVerdict,
) (*model.UploadResult, error) {
	asset := &model.Asset{
		ID:               uuid.NewString(),
		Kind:             model.AssetKindImage,
		UserID:           claim.UserID,
		Profile:          claim.Profile,
		ClaimID:          &claim.ID,
		OriginalFilename: filename,
		Status:           model.AssetReady,
		Image: &model.ImageData{
			Width:     primary.width,
			Height:    primary.height,
			Format:    profile.TargetFormat,
			SizeBytes: int64(len(primary.bytes)),
			URL:       primary.url,
			Variants:  variants,
		},
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		wrapped := apperr.Wrap(apperr.KindInfrastructure, "persist image asset", err)
		s.markFailed(ctx, claim.ID, wrapped)
		return nil, wrapped
	}

	meta := &model.FileMetadata{
		Width:       primary.width,
		Height:      primary.height,
		SizeBytes:   int64(len(primary.bytes)),
		Format:      profile.TargetFormat,
		URL:         primary.url,
		Resolutions: variants,
	}
	if _, err := s.claims.UpdateStatus(ctx, claim.ID, model.ClaimUpdate{
		Status:            model.ClaimUploaded,
		ResultURL:         &primary.url,
		ModerationMessage: &verdict.Message,
		Metadata:          meta,
	}); err != nil {
		return nil, err
	}

	return &model.UploadResult{
		URL:         primary.url,
		Width:       primary.width,
		Height:      primary.height,
		SizeBytes:   int64(len(primary.bytes)),
		Format:      profile.TargetFormat,
		Resolutions: variants,
	}, nil
}

// markFailed records the failure on the claim so the record stays the source
// of truth even if the caller never sees the response. Infrastructure
// failures stay retryable; validation failures burn the claim.
func (s *UploadService) markFailed(ctx context.Context, claimID string, cause error) {
	reason := cause.Error()
	retryable := apperr.KindOf(cause) != apperr.KindValidation
	if _, err := s.claims.UpdateStatus(ctx, claimID, model.ClaimUpdate{
		Status:    model.ClaimFailed,
		Retryable: retryable,
		Reason:    &reason,
	}); err != nil {
		log.Error().Err(err).Str("claim_id", claimID).Msg("mark claim failed failed")
	}
}

// cleanupPrefix is advisory: the prefix is unique per attempt, so a failed
// delete leaves garbage, not corruption.
func (s *UploadService) cleanupPrefix(ctx context.Context, prefix string) {
	if err := s.blobs.DeletePrefix(ctx, prefix); err != nil {
		log.Warn().Err(err).Str("prefix", prefix).Msg("storage prefix cleanup failed")
	}
}
