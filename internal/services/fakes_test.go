package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/hirematch/internal/models"
)

type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	return f.GenerateText(ctx, prompt, temperature)
}

type fakeProvider struct {
	values []float32
	err    error
	calls  int
	texts  []string
}

func (f *fakeProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	f.texts = append(f.texts, text)
	return f.values, f.err
}

// unitVector returns a vector of n values with a single 1 at index i.
func unitVector(n, i int) []float32 {
	v := make([]float32, n)
	v[i] = 1
	return v
}

type fakeListingRepo struct {
	mu          sync.Mutex
	expiredJobs int64
	expiring    []models.ExpiringListing
	expireErr   error
	warned      []uuid.UUID
	reaperRuns  int
	lastNow     time.Time
	lastWindow  time.Duration
}

func (f *fakeListingRepo) ExpireJobs(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reaperRuns++
	f.lastNow = now
	return f.expiredJobs, f.expireErr
}

func (f *fakeListingRepo) ExpireProfiles(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeListingRepo) FindExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]models.ExpiringListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastWindow = window
	return f.expiring, nil
}

func (f *fakeListingRepo) MarkWarningSent(ctx context.Context, kind models.ListingKind, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warned = append(f.warned, id)
	return nil
}

func (f *fakeListingRepo) ListActiveJobs(ctx context.Context, limit, offset int) ([]models.JobPosting, error) {
	return nil, nil
}

func (f *fakeListingRepo) ListActiveProfiles(ctx context.Context, limit, offset int) ([]models.SeekerProfile, error) {
	return nil, nil
}

func (f *fakeListingRepo) runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reaperRuns
}

type fakeApplicationRepo struct {
	mu     sync.Mutex
	cutoff time.Time
	runs   int
}

func (f *fakeApplicationRepo) FlagStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = cutoff
	f.runs++
	return 1, nil
}

type fakeMailer struct {
	mu      sync.Mutex
	failFor map[uuid.UUID]bool
	sent    []models.ExpiringListing
}

func (f *fakeMailer) SendExpiryWarning(ctx context.Context, listing models.ExpiringListing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[listing.ID] {
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, listing)
	return nil
}
