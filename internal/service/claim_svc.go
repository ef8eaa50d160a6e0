package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/apperr"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/config"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

// ClaimTTL is the fixed lifetime of a claim from creation.
const ClaimTTL = 24 * time.Hour

// ClaimService is the claim lifecycle manager. It is the only component that
// transitions a claim's status.
type ClaimService struct {
	claims   ClaimStore
	rates    *RateLimitService
	profiles config.Profiles
	cache    *CacheService
	now      func() time.Time
}

func NewClaimService(claims ClaimStore, rates *RateLimitService, profiles config.Profiles, cache *CacheService) *ClaimService {
	return &ClaimService{
		claims:   claims,
		rates:    rates,
		profiles: profiles,
		cache:    cache,
		now:      time.Now,
	}
}

// CreateClaim validates the profile, applies the quota gate and persists a
// new pending claim. No side effects beyond the claim record.
func (s *ClaimService) CreateClaim(ctx context.Context, userID, profileName string) (*model.Claim, error) {
	profile, ok := s.profiles.Get(profileName)
	if !ok {
		return nil, apperr.Newf(apperr.KindValidation, "unknown profile %q", profileName)
	}

	if profile.RateLimit != nil {
		reached, err := s.rates.HasReachedLimit(ctx, userID, profileName)
		if err != nil {
			return nil, err
		}
		if reached {
			return nil, apperr.Newf(apperr.KindQuotaExceeded,
				"upload limit reached for profile %q (%d per %d days)",
				profileName, profile.RateLimit.MaxUploads, profile.RateLimit.PeriodDays)
		}
	}

	now := s.now()
	claim := &model.Claim{
		ID:        uuid.NewString(),
		UserID:    userID,
		Profile:   profileName,
		Status:    model.ClaimPending,
		ExpiresAt: now.Add(ClaimTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "create claim", err)
	}
	return claim, nil
}

// GetClaim returns a claim, going through the read cache when available.
func (s *ClaimService) GetClaim(ctx context.Context, claimID string) (*model.Claim, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetClaim(ctx, claimID); err == nil && cached != nil {
			return cached, nil
		}
	}

	claim, err := s.claims.Find(ctx, claimID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Newf(apperr.KindNotFound, "claim %s not found", claimID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "load claim", err)
	}

	if s.cache != nil {
		if err := s.cache.SetClaim(ctx, claim); err != nil {
			log.Warn().Err(err).Str("claim_id", claimID).Msg("claim cache set failed")
		}
	}
	return claim, nil
}

// ValidateForUpload is the sole gate before orchestration begins. It does not
// check requestor identity; the upload pipeline compares the claim's stored
// user id against the acting user separately.
func (s *ClaimService) ValidateForUpload(ctx context.Context, claimID string) (*model.Claim, error) {
	claim, err := s.claims.Find(ctx, claimID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Newf(apperr.KindNotFound, "claim %s not found", claimID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "load claim", err)
	}

	if claim.Expired(s.now()) {
		return nil, apperr.Newf(apperr.KindAuthorization, "claim %s has expired", claimID)
	}

	switch claim.Status {
	case model.ClaimPending:
		return claim, nil
	case model.ClaimFailed:
		if claim.Retryable {
			return claim, nil
		}
		return nil, apperr.Newf(apperr.KindAuthorization, "claim %s failed and is not retryable", claimID)
	default:
		return nil, apperr.Newf(apperr.KindAuthorization, "claim %s is in state %s and cannot accept an upload", claimID, claim.Status)
	}
}

// UpdateStatus applies a lifecycle transition. On the first transition into a
// terminal success state it records rate-limit usage exactly once, guarded by
// the pre-update status returned from the atomic update — replayed events
// that re-apply the same terminal status do not double-count.
func (s *ClaimService) UpdateStatus(ctx context.Context, claimID string, upd model.ClaimUpdate) (*model.Claim, error) {
	prev, claim, err := s.claims.UpdateStatus(ctx, claimID, upd)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Newf(apperr.KindNotFound, "claim %s not found", claimID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "update claim status", err)
	}

	if upd.Status.TerminalSuccess() && !prev.TerminalSuccess() {
		if err := s.rates.RecordUsage(ctx, claim.UserID, claim.Profile); err != nil {
			// The claim transition already happened; losing one usage entry
			// under-counts the quota rather than blocking the upload.
			log.Error().Err(err).
				Str("claim_id", claimID).
				Str("profile", claim.Profile).
				Msg("record usage failed after successful claim")
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateClaim(ctx, claimID); err != nil {
			log.Warn().Err(err).Str("claim_id", claimID).Msg("claim cache invalidate failed")
		}
	}

	log.Info().
		Str("claim_id", claimID).
		Str("from", string(prev)).
		Str("to", string(upd.Status)).
		Msg("claim transition")
	return claim, nil
}
