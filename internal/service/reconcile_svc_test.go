package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

type reconcileFixture struct {
	svc    *ReconcileService
	claims *fakeClaimStore
	assets *fakeAssetStore
	stats  *fakeStatsStore
	dlq    *fakeDeadLetterer
	now    time.Time
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	profiles := uploadTestProfiles()

	claims := newFakeClaimStore()
	stats := newFakeStatsStore()
	rates := NewRateLimitService(stats, profiles)
	rates.now = func() time.Time { return now }
	claimSvc := NewClaimService(claims, rates, profiles, nil)
	claimSvc.now = func() time.Time { return now }

	assets := newFakeAssetStore()
	dlq := &fakeDeadLetterer{}
	svc := NewReconcileService(assets, claimSvc, dlq, "https://stream.test", "https://image.test")
	return &reconcileFixture{svc: svc, claims: claims, assets: assets, stats: stats, dlq: dlq, now: now}
}

func (f *reconcileFixture) seedVideoAsset(assetID, claimID string, status model.AssetStatus) {
	cid := claimID
	f.assets.assets[assetID] = &model.Asset{
		ID:      assetID,
		Kind:    model.AssetKindVideo,
		UserID:  "u1",
		Profile: "clip",
		ClaimID: &cid,
		Status:  status,
		Video:   &model.VideoData{ProviderUploadID: "up-1"},
	}
	f.claims.claims[claimID] = &model.Claim{
		ID:        claimID,
		UserID:    "u1",
		Profile:   "clip",
		Status:    model.ClaimProcessing,
		ExpiresAt: f.now.Add(time.Hour),
	}
}

const readyEvent = `{"type":"video.asset.ready","data":{"id":"prov-1","passthrough":"a1","duration":12.5,"aspect_ratio":"16:9","playback_ids":[{"id":"pb-1","policy":"public"}]}}`

func TestHandleEventReady(t *testing.T) {
	t.Run("settles asset and claim", func(t *testing.T) {
		f := newReconcileFixture(t)
		f.seedVideoAsset("a1", "c1", model.AssetPreparing)

		f.svc.HandleEvent(context.Background(), []byte(readyEvent))

		asset := f.assets.get("a1")
		if asset.Status != model.AssetReady {
			t.Errorf("asset status = %s, want ready", asset.Status)
		}
		if asset.Video.PlaybackID != "pb-1" || asset.Video.Duration != 12.5 {
			t.Errorf("asset video = %+v", asset.Video)
		}
		if asset.Video.PlaybackURL != "https://stream.test/pb-1.m3u8" {
			t.Errorf("playback URL = %q", asset.Video.PlaybackURL)
		}

		claim := f.claims.get("c1")
		if claim.Status != model.ClaimReady {
			t.Errorf("claim status = %s, want ready", claim.Status)
		}
		if claim.ResultURL == nil || *claim.ResultURL != "https://stream.test/pb-1.m3u8" {
			t.Errorf("claim result URL = %v", claim.ResultURL)
		}
		if claim.Metadata == nil || claim.Metadata.Duration != 12.5 || claim.Metadata.AspectRatio != "16:9" {
			t.Errorf("claim metadata = %+v", claim.Metadata)
		}
		if n := f.stats.count("u1", "clip"); n != 1 {
			t.Errorf("usage count = %d, want 1", n)
		}
		if f.dlq.count() != 0 {
			t.Errorf("dead letters = %d, want 0", f.dlq.count())
		}
	})

	t.Run("replay converges without double-counting", func(t *testing.T) {
		f := newReconcileFixture(t)
		f.seedVideoAsset("a1", "c1", model.AssetPreparing)

		for i := 0; i < 3; i++ {
			f.svc.HandleEvent(context.Background(), []byte(readyEvent))
		}

		if claim := f.claims.get("c1"); claim.Status != model.ClaimReady {
			t.Errorf("claim status = %s, want ready", claim.Status)
		}
		if n := f.stats.count("u1", "clip"); n != 1 {
			t.Errorf("usage count = %d, want 1", n)
		}
		if f.dlq.count() != 0 {
			t.Errorf("dead letters = %d, want 0", f.dlq.count())
		}
	})

	t.Run("unknown passthrough is a tolerated no-op", func(t *testing.T) {
		f := newReconcileFixture(t)

		f.svc.HandleEvent(context.Background(), []byte(readyEvent))

		if f.dlq.count() != 0 {
			t.Errorf("dead letters = %d, want 0", f.dlq.count())
		}
	})
}

func TestHandleEventCreated(t *testing.T) {
	const createdEvent = `{"type":"video.asset.created","data":{"id":"prov-1","passthrough":"a1"}}`

	t.Run("records provider asset id", func(t *testing.T) {
		f := newReconcileFixture(t)
		f.seedVideoAsset("a1", "c1", model.AssetPreparing)

		f.svc.HandleEvent(context.Background(), []byte(createdEvent))

		asset := f.assets.get("a1")
		if asset.Video.ProviderAssetID != "prov-1" {
			t.Errorf("provider asset id = %q, want prov-1", asset.Video.ProviderAssetID)
		}
		if asset.Status != model.AssetPreparing {
			t.Errorf("asset status = %s, want preparing", asset.Status)
		}
	})

	t.Run("stale created after ready does not regress", func(t *testing.T) {
		f := newReconcileFixture(t)
		f.seedVideoAsset("a1", "c1", model.AssetPreparing)

		f.svc.HandleEvent(context.Background(), []byte(readyEvent))
		f.svc.HandleEvent(context.Background(), []byte(createdEvent))

		asset := f.assets.get("a1")
		if asset.Status != model.AssetReady {
			t.Errorf("asset status = %s, want ready", asset.Status)
		}
		if f.dlq.count() != 0 {
			t.Errorf("dead letters = %d, want 0", f.dlq.count())
		}
	})
}

func TestHandleEventErrored(t *testing.T) {
	const erroredEvent = `{"type":"video.asset.errored","data":{"id":"prov-1","passthrough":"a1","errors":{"type":"invalid_input","messages":["unsupported codec"]}}}`

	t.Run("fails asset and claim", func(t *testing.T) {
		f := newReconcileFixture(t)
		f.seedVideoAsset("a1", "c1", model.AssetPreparing)

		f.svc.HandleEvent(context.Background(), []byte(erroredEvent))

		asset := f.assets.get("a1")
		if asset.Status != model.AssetErrored {
			t.Errorf("asset status = %s, want errored", asset.Status)
		}
		if !strings.Contains(asset.Video.ErrorMessage, "unsupported codec") {
			t.Errorf("error message = %q", asset.Video.ErrorMessage)
		}

		claim := f.claims.get("c1")
		if claim.Status != model.ClaimFailed || !claim.Retryable {
			t.Errorf("claim = %s retryable=%v, want failed/retryable", claim.Status, claim.Retryable)
		}
		if n := f.stats.count("u1", "clip"); n != 0 {
			t.Errorf("usage count = %d, want 0", n)
		}
	})

	t.Run("stale errored after ready does not regress", func(t *testing.T) {
		f := newReconcileFixture(t)
		f.seedVideoAsset("a1", "c1", model.AssetPreparing)

		f.svc.HandleEvent(context.Background(), []byte(readyEvent))
		f.svc.HandleEvent(context.Background(), []byte(erroredEvent))

		if asset := f.assets.get("a1"); asset.Status != model.AssetReady {
			t.Errorf("asset status = %s, want ready", asset.Status)
		}
		if claim := f.claims.get("c1"); claim.Status != model.ClaimReady {
			t.Errorf("claim status = %s, want ready", claim.Status)
		}
		if f.dlq.count() != 0 {
			t.Errorf("dead letters = %d, want 0", f.dlq.count())
		}
	})
}

func TestHandleEventDeleted(t *testing.T) {
	const deletedEvent = `{"type":"video.asset.deleted","data":{"id":"prov-1","passthrough":"a1"}}`

	f := newReconcileFixture(t)
	f.seedVideoAsset("a1", "c1", model.AssetPreparing)

	f.svc.HandleEvent(context.Background(), []byte(deletedEvent))

	if asset := f.assets.get("a1"); asset.Status != model.AssetDeleted {
		t.Errorf("asset status = %s, want deleted", asset.Status)
	}
	// Deletion is independent of claim history.
	if claim := f.claims.get("c1"); claim.Status != model.ClaimProcessing {
		t.Errorf("claim status = %s, want untouched processing", claim.Status)
	}
}

func TestHandleEventEscalation(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantDLQ    bool
		wantReason string
	}{
		{"malformed json", `{"type": "video.asset.ready", "data":`, true, "malformed event envelope"},
		{"missing type", `{"data":{"passthrough":"a1"}}`, true, "missing type"},
		{"missing payload", `{"type":"video.asset.ready"}`, true, "missing payload"},
		{"unknown type ignored", `{"type":"video.delivery.report","data":{}}`, false, ""},
		{"missing passthrough tolerated", `{"type":"video.asset.ready","data":{"id":"prov-1"}}`, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReconcileFixture(t)

			f.svc.HandleEvent(context.Background(), []byte(tt.raw))

			if tt.wantDLQ {
				if f.dlq.count() != 1 {
					t.Fatalf("dead letters = %d, want 1", f.dlq.count())
				}
				if !strings.Contains(f.dlq.entries[0].reason, tt.wantReason) {
					t.Errorf("reason = %q, want substring %q", f.dlq.entries[0].reason, tt.wantReason)
				}
				if string(f.dlq.entries[0].raw) != tt.raw {
					t.Error("dead letter must carry the original payload")
				}
				return
			}
			if f.dlq.count() != 0 {
				t.Errorf("dead letters = %d, want 0", f.dlq.count())
			}
		})
	}

	t.Run("store failure escalates with the event type", func(t *testing.T) {
		f := newReconcileFixture(t)
		f.seedVideoAsset("a1", "c1", model.AssetPreparing)
		f.assets.markErr = errors.New("db down")

		f.svc.HandleEvent(context.Background(), []byte(readyEvent))

		if f.dlq.count() != 1 {
			t.Fatalf("dead letters = %d, want 1", f.dlq.count())
		}
		if !strings.Contains(f.dlq.entries[0].reason, "video.asset.ready") {
			t.Errorf("reason = %q, want the event type", f.dlq.entries[0].reason)
		}
	})
}
