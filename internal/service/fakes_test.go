package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/repository"
)

// In-memory fakes mirroring the repository semantics: pgx.ErrNoRows for
// missing claims, (nil, nil) for asset updates whose precondition failed.

type fakeClaimStore struct {
	mu        sync.Mutex
	claims    map[string]*model.Claim
	createErr error
	findErr   error
	updateErr error
}

func newFakeClaimStore() *fakeClaimStore {
	return &fakeClaimStore{claims: make(map[string]*model.Claim)}
}

func (f *fakeClaimStore) Create(ctx context.Context, c *model.Claim) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.claims[c.ID] = &cp
	return nil
}

func (f *fakeClaimStore) Find(ctx context.Context, claimID string) (*model.Claim, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[claimID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClaimStore) UpdateStatus(ctx context.Context, claimID string, upd model.ClaimUpdate) (model.ClaimStatus, *model.Claim, error) {
	if f.updateErr != nil {
		return "", nil, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[claimID]
	if !ok {
		return "", nil, pgx.ErrNoRows
	}
	prev := c.Status
	c.Status = upd.Status
	c.Retryable = upd.Retryable
	if upd.Reason != nil {
		c.Reason = upd.Reason
	}
	if upd.ResultURL != nil {
		c.ResultURL = upd.ResultURL
	}
	if upd.ModerationMessage != nil {
		c.ModerationMessage = upd.ModerationMessage
	}
	if upd.Metadata != nil {
		c.Metadata = upd.Metadata
	}
	c.UpdatedAt = time.Now()
	cp := *c
	return prev, &cp, nil
}

// get returns the stored claim without copy semantics, for assertions only.
func (f *fakeClaimStore) get(claimID string) *model.Claim {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[claimID]
}

type fakeAssetStore struct {
	mu        sync.Mutex
	assets    map[string]*model.Asset
	createErr error
	markErr   error
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{assets: make(map[string]*model.Asset)}
}

func (f *fakeAssetStore) Create(ctx context.Context, a *model.Asset) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.assets[a.ID] = &cp
	return nil
}

func (f *fakeAssetStore) Find(ctx context.Context, assetID string) (*model.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[assetID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssetStore) MarkProcessing(ctx context.Context, assetID, providerAssetID string) (*model.Asset, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[assetID]
	if !ok || a.Status == model.AssetReady || a.Status == model.AssetErrored || a.Status == model.AssetDeleted {
		return nil, nil
	}
	if providerAssetID != "" {
		if a.Video == nil {
			a.Video = &model.VideoData{}
		}
		a.Video.ProviderAssetID = providerAssetID
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssetStore) MarkReady(ctx context.Context, assetID string, upd repository.VideoReadyUpdate) (*model.Asset, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[assetID]
	if !ok || a.Status == model.AssetReady || a.Status == model.AssetDeleted {
		return nil, nil
	}
	a.Status = model.AssetReady
	if a.Video == nil {
		a.Video = &model.VideoData{}
	}
	if upd.ProviderAssetID != "" {
		a.Video.ProviderAssetID = upd.ProviderAssetID
	}
	a.Video.PlaybackID = upd.PlaybackID
	a.Video.PlaybackURL = upd.PlaybackURL
	a.Video.PreviewURL = upd.PreviewURL
	a.Video.Duration = upd.Duration
	a.Video.AspectRatio = upd.AspectRatio
	cp := *a
	return &cp, nil
}

func (f *fakeAssetStore) MarkErrored(ctx context.Context, assetID, message string) (*model.Asset, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[assetID]
	if !ok || a.Status == model.AssetReady || a.Status == model.AssetDeleted {
		return nil, nil
	}
	a.Status = model.AssetErrored
	if a.Video == nil {
		a.Video = &model.VideoData{}
	}
	a.Video.ErrorMessage = message
	cp := *a
	return &cp, nil
}

func (f *fakeAssetStore) MarkDeleted(ctx context.Context, assetID string) (*model.Asset, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[assetID]
	if !ok || a.Status == model.AssetDeleted {
		return nil, nil
	}
	a.Status = model.AssetDeleted
	cp := *a
	return &cp, nil
}

func (f *fakeAssetStore) get(assetID string) *model.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assets[assetID]
}

type fakeStatsStore struct {
	mu        sync.Mutex
	usage     map[string][]time.Time
	appendErr error
	getErr    error
	now       func() time.Time
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{usage: make(map[string][]time.Time), now: time.Now}
}

func statsKey(userID, profile string) string {
	return userID + "/" + profile
}

func (f *fakeStatsStore) AppendUsage(ctx context.Context, userID, profile string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := statsKey(userID, profile)
	f.usage[k] = append(f.usage[k], f.now())
	return nil
}

func (f *fakeStatsStore) GetTimestamps(ctx context.Context, userID, profile string) ([]time.Time, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage[statsKey(userID, profile)], nil
}

func (f *fakeStatsStore) count(userID, profile string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.usage[statsKey(userID, profile)])
}

type fakeBlobStore struct {
	mu              sync.Mutex
	objects         map[string][]byte
	putErr          error
	putCalls        int
	deletedPrefixes []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return "", f.putErr
	}
	f.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (f *fakeBlobStore) DeletePrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedPrefixes = append(f.deletedPrefixes, prefix)
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			delete(f.objects, k)
		}
	}
	return nil
}

func (f *fakeBlobStore) objectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeVisual struct {
	mu         sync.Mutex
	labels     []model.LabelFinding
	labelsErr  error
	text       []model.TextFinding
	textErr    error
	labelCalls int
	textCalls  int
}

func (f *fakeVisual) DetectLabels(ctx context.Context, image []byte, minConfidence float64) ([]model.LabelFinding, error) {
	f.mu.Lock()
	f.labelCalls++
	f.mu.Unlock()
	return f.labels, f.labelsErr
}

func (f *fakeVisual) DetectText(ctx context.Context, image []byte) ([]model.TextFinding, error) {
	f.mu.Lock()
	f.textCalls++
	f.mu.Unlock()
	return f.text, f.textErr
}

type fakeLLM struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  int
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.answer, f.err
}

type fakeJobClient struct {
	job     *MediaJob
	err     error
	lastReq CreateJobRequest
}

func (f *fakeJobClient) CreateJob(ctx context.Context, req CreateJobRequest) (*MediaJob, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

type deadLetterEntry struct {
	raw    []byte
	reason string
}

type fakeDeadLetterer struct {
	mu      sync.Mutex
	err     error
	entries []deadLetterEntry
}

func (f *fakeDeadLetterer) SendToDeadLetter(ctx context.Context, original []byte, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, deadLetterEntry{raw: original, reason: reason})
	return nil
}

func (f *fakeDeadLetterer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
