package service

import (
	"context"
	"time"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/apperr"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/config"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

// RateLimitService computes sliding-window upload quotas per (user, profile).
// Timestamps are stored append-only; the window is applied at read time, so
// stale entries cost nothing but storage until an external compaction runs.
type RateLimitService struct {
	stats    StatsStore
	profiles config.Profiles
	now      func() time.Time
}

func NewRateLimitService(stats StatsStore, profiles config.Profiles) *RateLimitService {
	return &RateLimitService{stats: stats, profiles: profiles, now: time.Now}
}

// HasReachedLimit reports whether the user has exhausted the profile's quota.
// A profile without a configured limit never limits; a missing stats record
// means zero uploads.
func (s *RateLimitService) HasReachedLimit(ctx context.Context, userID, profileName string) (bool, error) {
	profile, ok := s.profiles.Get(profileName)
	if !ok {
		return false, apperr.Newf(apperr.KindValidation, "unknown profile %q", profileName)
	}
	if profile.RateLimit == nil {
		return false, nil
	}

	recent, err := s.recentTimestamps(ctx, userID, profile)
	if err != nil {
		return false, err
	}
	return len(recent) >= profile.RateLimit.MaxUploads, nil
}

// RecordUsage appends one usage timestamp. Exactly-once per successful claim
// is enforced by the caller's previous-status guard, not here.
func (s *RateLimitService) RecordUsage(ctx context.Context, userID, profileName string) error {
	if err := s.stats.AppendUsage(ctx, userID, profileName); err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, "record upload usage", err)
	}
	return nil
}

// GetInfo returns the remaining quota and, when exhausted, the instant the
// oldest counted upload ages out of the window.
func (s *RateLimitService) GetInfo(ctx context.Context, userID, profileName string) (*model.RateLimitInfo, error) {
	profile, ok := s.profiles.Get(profileName)
	if !ok {
		return nil, apperr.Newf(apperr.KindValidation, "unknown profile %q", profileName)
	}
	if profile.RateLimit == nil {
		return &model.RateLimitInfo{Limited: false}, nil
	}

	recent, err := s.recentTimestamps(ctx, userID, profile)
	if err != nil {
		return nil, err
	}

	info := &model.RateLimitInfo{
		Limited:    true,
		MaxUploads: profile.RateLimit.MaxUploads,
		PeriodDays: profile.RateLimit.PeriodDays,
		Remaining:  max(profile.RateLimit.MaxUploads-len(recent), 0),
	}
	if info.Remaining == 0 && len(recent) > 0 {
		oldest := recent[0]
		for _, t := range recent[1:] {
			if t.Before(oldest) {
				oldest = t
			}
		}
		reset := oldest.Add(period(profile.RateLimit.PeriodDays))
		info.ResetAt = &reset
	}
	return info, nil
}

func (s *RateLimitService) recentTimestamps(ctx context.Context, userID string, profile config.Profile) ([]time.Time, error) {
	all, err := s.stats.GetTimestamps(ctx, userID, profile.Name)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "load upload stats", err)
	}

	cutoff := s.now().Add(-period(profile.RateLimit.PeriodDays))
	recent := make([]time.Time, 0, len(all))
	for _, t := range all {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent, nil
}

func period(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
