package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/events"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/repository"
)

// ReconcileService folds asynchronous provider lifecycle events back into
// asset and claim state. Events arrive at-least-once and possibly out of
// order; every asset update is an atomic conditional update keyed by the
// passthrough correlation id, so replays and stale events converge instead
// of racing.
type ReconcileService struct {
	assets AssetStore
	claims *ClaimService
	dlq    DeadLetterer

	streamBaseURL  string
	previewBaseURL string
}

func NewReconcileService(assets AssetStore, claims *ClaimService, dlq DeadLetterer, streamBaseURL, previewBaseURL string) *ReconcileService {
	return &ReconcileService{
		assets:         assets,
		claims:         claims,
		dlq:            dlq,
		streamBaseURL:  streamBaseURL,
		previewBaseURL: previewBaseURL,
	}
}

// HandleEvent processes one raw event. It never returns an error and never
// panics outward: parse failures and dispatch failures escalate to the
// dead-letter channel and the stream continues.
func (s *ReconcileService) HandleEvent(ctx context.Context, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.deadLetter(ctx, raw, fmt.Sprintf("panic in event handler: %v", r))
		}
	}()

	env, err := events.Parse(raw)
	if err != nil {
		s.deadLetter(ctx, raw, err.Error())
		return
	}

	if err := s.dispatch(ctx, env); err != nil {
		s.deadLetter(ctx, raw, fmt.Sprintf("%s: %v", env.Type, err))
	}
}

func (s *ReconcileService) dispatch(ctx context.Context, env *events.Envelope) error {
	switch env.Type {
	case events.TypeAssetCreated:
		return s.onCreated(ctx, env)
	case events.TypeAssetReady:
		return s.onReady(ctx, env)
	case events.TypeAssetErrored:
		return s.onErrored(ctx, env)
	case events.TypeAssetDeleted:
		return s.onDeleted(ctx, env)
	default:
		// Providers add event types over time; unknown ones are not ours to
		// handle.
		log.Debug().Str("type", env.Type).Msg("ignoring unhandled event type")
		return nil
	}
}

func (s *ReconcileService) onCreated(ctx context.Context, env *events.Envelope) error {
	ev, err := events.ParseAssetEvent(env)
	if err != nil {
		return err
	}
	if ev.Passthrough == "" {
		return s.skip(env.Type, "no passthrough")
	}

	asset, err := s.assets.MarkProcessing(ctx, ev.Passthrough, ev.ProviderAssetID)
	if err != nil {
		return err
	}
	if asset == nil {
		// Unknown asset, or one already past preparing: both are fine.
		return s.skip(env.Type, ev.Passthrough)
	}

	log.Info().Str("asset_id", asset.ID).Str("provider_asset_id", ev.ProviderAssetID).Msg("asset processing started")
	return nil
}

func (s *ReconcileService) onReady(ctx context.Context, env *events.Envelope) error {
	ev, err := events.ParseAssetEvent(env)
	if err != nil {
		return err
	}
	if ev.Passthrough == "" {
		return s.skip(env.Type, "no passthrough")
	}

	var playbackID string
	if len(ev.PlaybackIDs) > 0 {
		playbackID = ev.PlaybackIDs[0].ID
	}
	playbackURL := fmt.Sprintf("%s/%s.m3u8", s.streamBaseURL, playbackID)
	previewURL := fmt.Sprintf("%s/%s/thumbnail.jpg", s.previewBaseURL, playbackID)

	asset, err := s.assets.MarkReady(ctx, ev.Passthrough, repository.VideoReadyUpdate{
		ProviderAssetID: ev.ProviderAssetID,
		PlaybackID:      playbackID,
		PlaybackURL:     playbackURL,
		PreviewURL:      previewURL,
		Duration:        ev.Duration,
		AspectRatio:     ev.AspectRatio,
	})
	if err != nil {
		return err
	}
	if asset == nil {
		// Already ready (replay) or not ours; either way nothing to do.
		return s.skip(env.Type, ev.Passthrough)
	}

	if asset.ClaimID != nil {
		meta := &model.FileMetadata{
			Duration:    ev.Duration,
			AspectRatio: ev.AspectRatio,
			URL:         playbackURL,
		}
		if _, err := s.claims.UpdateStatus(ctx, *asset.ClaimID, model.ClaimUpdate{
			Status:    model.ClaimReady,
			ResultURL: &playbackURL,
			Metadata:  meta,
		}); err != nil {
			return err
		}
	}

	log.Info().Str("asset_id", asset.ID).Str("playback_id", playbackID).Msg("asset ready")
	return nil
}

func (s *ReconcileService) onErrored(ctx context.Context, env *events.Envelope) error {
	ev, err := events.ParseAssetEvent(env)
	if err != nil {
		return err
	}
	if ev.Passthrough == "" {
		return s.skip(env.Type, "no passthrough")
	}

	message := ev.Errors.Message()
	asset, err := s.assets.MarkErrored(ctx, ev.Passthrough, message)
	if err != nil {
		return err
	}
	if asset == nil {
		return s.skip(env.Type, ev.Passthrough)
	}

	if asset.ClaimID != nil {
		if _, err := s.claims.UpdateStatus(ctx, *asset.ClaimID, model.ClaimUpdate{
			Status:    model.ClaimFailed,
			Retryable: true,
			Reason:    &message,
		}); err != nil {
			return err
		}
	}

	log.Warn().Str("asset_id", asset.ID).Str("error", message).Msg("asset errored")
	return nil
}

func (s *ReconcileService) onDeleted(ctx context.Context, env *events.Envelope) error {
	ev, err := events.ParseAssetEvent(env)
	if err != nil {
		return err
	}
	if ev.Passthrough == "" {
		return s.skip(env.Type, "no passthrough")
	}

	// Deletion is independent of claim history; the claim is left untouched.
	asset, err := s.assets.MarkDeleted(ctx, ev.Passthrough)
	if err != nil {
		return err
	}
	if asset == nil {
		return s.skip(env.Type, ev.Passthrough)
	}

	log.Info().Str("asset_id", asset.ID).Msg("asset deleted by provider")
	return nil
}

// skip logs a tolerated no-op: events for assets outside our ownership, for
// already-cleaned-up assets, or stale replays. Success, not an error.
func (s *ReconcileService) skip(eventType, detail string) error {
	log.Info().Str("type", eventType).Str("detail", detail).Msg("event skipped")
	return nil
}

// deadLetter escalates an unprocessable event. A failure to escalate is
// logged and swallowed: inability to report a failure must not stop the
// stream.
func (s *ReconcileService) deadLetter(ctx context.Context, raw []byte, reason string) {
	log.Error().Str("reason", reason).Msg("event escalated to dead-letter")
	if s.dlq == nil {
		return
	}
	if err := s.dlq.SendToDeadLetter(ctx, raw, reason); err != nil {
		log.Error().Err(err).Msg("dead-letter write failed")
	}
}
