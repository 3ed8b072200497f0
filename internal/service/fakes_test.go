package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/transfer"
)

// --- in-memory repository fakes ---

type fakePostRepo struct {
	mu          sync.Mutex
	posts       map[string]*models.ScheduledPost
	createOrder []string
	createErr   error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.ScheduledPost)}
}

func clonePost(p *models.ScheduledPost) *models.ScheduledPost {
	c := *p
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	if p.NextRetryAt != nil {
		t := *p.NextRetryAt
		c.NextRetryAt = &t
	}
	return &c
}

func (f *fakePostRepo) Create(_ context.Context, _ *sql.Tx, post *models.ScheduledPost) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.posts[post.ID] = clonePost(post)
	f.createOrder = append(f.createOrder, post.ID)
	return post.ID, nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id string) (*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(post), nil
}

func (f *fakePostRepo) List(_ context.Context) ([]*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var posts []*models.ScheduledPost
	for _, id := range f.createOrder {
		if p, ok := f.posts[id]; ok {
			posts = append(posts, clonePost(p))
		}
	}
	return posts, nil
}

func (f *fakePostRepo) ListDue(_ context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*models.ScheduledPost
	for _, p := range f.posts {
		pendingDue := p.Status == models.PostStatusPending && !p.ScheduledFor.After(now)
		retryDue := p.Status == models.PostStatusRetrying && p.NextRetryAt != nil && !p.NextRetryAt.After(now)
		if pendingDue || retryDue {
			due = append(due, clonePost(p))
		}
	}
	return due, nil
}

func (f *fakePostRepo) Update(_ context.Context, post *models.ScheduledPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[post.ID]; !ok {
		return &models.NotFoundError{Entity: "post", ID: post.ID}
	}
	f.posts[post.ID] = clonePost(post)
	return nil
}

func (f *fakePostRepo) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) add(post *models.ScheduledPost) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = clonePost(post)
	f.createOrder = append(f.createOrder, post.ID)
}

func (f *fakePostRepo) get(id string) *models.ScheduledPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		return clonePost(p)
	}
	return nil
}

func (f *fakePostRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

type fakeAssetRepo struct {
	mu      sync.Mutex
	assets  map[string]*models.MediaAsset
	order   []string
	created []*models.MediaAsset

	// When set, usage is derived from the post records the way the
	// real store does it: a post carrying the asset's id or its URL.
	posts *fakePostRepo
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: make(map[string]*models.MediaAsset)}
}

func (f *fakeAssetRepo) Create(_ context.Context, _ *sql.Tx, ma *models.MediaAsset) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[ma.ID] = ma
	f.order = append(f.order, ma.ID)
	f.created = append(f.created, ma)
	return ma.ID, nil
}

func (f *fakeAssetRepo) GetByID(_ context.Context, id string) (*models.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	asset, ok := f.assets[id]
	if !ok {
		return nil, nil
	}
	return asset, nil
}

func (f *fakeAssetRepo) List(_ context.Context) ([]*models.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var assets []*models.MediaAsset
	for _, id := range f.order {
		assets = append(assets, f.assets[id])
	}
	return assets, nil
}

func (f *fakeAssetRepo) ListUnused(_ context.Context) ([]*models.MediaAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var assets []*models.MediaAsset
	for _, id := range f.order {
		if a := f.assets[id]; !f.inUse(a) {
			assets = append(assets, a)
		}
	}
	return assets, nil
}

func (f *fakeAssetRepo) inUse(a *models.MediaAsset) bool {
	if a.IsUsed {
		return true
	}
	if f.posts == nil {
		return false
	}
	f.posts.mu.Lock()
	defer f.posts.mu.Unlock()
	for _, p := range f.posts.posts {
		if p.AssetID == a.ID || p.ImageURL == a.FileURL {
			return true
		}
	}
	return false
}

func (f *fakeAssetRepo) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, id)
	return nil
}

func (f *fakeAssetRepo) add(asset *models.MediaAsset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[asset.ID] = asset
	f.order = append(f.order, asset.ID)
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []*models.PublishAttempt
}

func (f *fakeAttemptRepo) Create(_ context.Context, attempt *models.PublishAttempt) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
	return int64(len(f.attempts)), nil
}

func (f *fakeAttemptRepo) ListByPostID(_ context.Context, postID string) ([]*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PublishAttempt
	for _, a := range f.attempts {
		if a.PostID == postID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- boundary service fakes ---

type fakePublisher struct {
	mu           sync.Mutex
	calls        int
	failFirst    int // fail this many calls before succeeding
	inFlight     int
	maxInFlight  int
	callDuration time.Duration
	statusErr    error
	accountName  string
}

func (f *fakePublisher) Publish(_ context.Context, imageURL, caption string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.callDuration > 0 {
		time.Sleep(f.callDuration)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if call <= f.failFirst {
		return "", &models.ExternalServiceError{Service: "instagram", Reason: "simulated failure"}
	}
	return fmt.Sprintf("ext-%d", call), nil
}

func (f *fakePublisher) ConnectionStatus(_ context.Context) (*transfer.ConnectionStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &transfer.ConnectionStatus{Connected: true, AccountName: f.accountName}, nil
}

type fakeCaptionService struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCaptionService) Generate(_ context.Context, description, toneHint string) (*transfer.CaptionResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &transfer.CaptionResult{
		Caption:  "Generated caption for " + description,
		Hashtags: "#generated",
	}, nil
}

type fakeTransformService struct {
	mu        sync.Mutex
	calls     []string // "assetID/model" in call order
	failAsset map[string]bool
	failModel map[string]bool
	onCall    func()
}

func (f *fakeTransformService) Transform(_ context.Context, asset *models.MediaAsset, style, prompt, model string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, asset.ID+"/"+model)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall()
	}

	if f.failAsset[asset.ID] || f.failModel[model] {
		return "", &models.ExternalServiceError{Service: "transform", Reason: "simulated transform failure"}
	}
	return fmt.Sprintf("https://cdn.example.com/out/%s-%s", asset.ID, model), nil
}

type fakeIngestor struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]bool
}

func (f *fakeIngestor) Ingest(_ context.Context, sourceURL string) (*IngestedObject, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sourceURL)
	n := len(f.calls)
	f.mu.Unlock()

	if f.failFor[sourceURL] {
		return nil, &models.ExternalServiceError{Service: "transform", Reason: "simulated ingest failure"}
	}

	key := fmt.Sprintf("transformed/t%d", n)
	return &IngestedObject{
		Key:       key,
		PublicURL: "https://cdn.example.com/" + key,
		MimeType:  "image/jpeg",
	}, nil
}

type fakeStager struct {
	mu       sync.Mutex
	failFor  map[string]bool
	stageLog []string
}

func (f *fakeStager) Stage(_ context.Context, asset *models.MediaAsset) (string, error) {
	f.mu.Lock()
	f.stageLog = append(f.stageLog, asset.ID)
	f.mu.Unlock()
	if f.failFor[asset.ID] {
		return "", fmt.Errorf("stage failed for %s", asset.ID)
	}
	return "https://cdn.example.com/scheduled/" + asset.ID, nil
}
