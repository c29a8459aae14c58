package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/models"
)

func newTestScheduler(listings *fakeListingRepo, apps *fakeApplicationRepo, mailer Mailer, opts SchedulerOptions, now time.Time) *scheduler {
	s := NewScheduler(listings, apps, mailer, opts, zap.NewNop()).(*scheduler)
	s.now = func() time.Time { return now }
	return s
}

func TestRunReaper_WarnsOwnersAndStampsListings(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	jobID, profileID, orphanID := uuid.New(), uuid.New(), uuid.New()

	listings := &fakeListingRepo{
		expiredJobs: 2,
		expiring: []models.ExpiringListing{
			{Kind: models.KindJob, ID: jobID, Title: "Go Engineer", OwnerEmail: "hr@acme.io", ExpiresAt: now.Add(24 * time.Hour)},
			{Kind: models.KindProfile, ID: profileID, Title: "Backend dev", OwnerEmail: "me@mail.com", ExpiresAt: now.Add(48 * time.Hour)},
			{Kind: models.KindJob, ID: orphanID, Title: "No owner"},
		},
	}
	// The profile owner's email fails: it must stay unstamped for the next run.
	mailer := &fakeMailer{failFor: map[uuid.UUID]bool{profileID: true}}
	s := newTestScheduler(listings, &fakeApplicationRepo{}, mailer, SchedulerOptions{WarningWindow: 72 * time.Hour}, now)

	err := s.RunReaper(context.Background())

	require.NoError(t, err)
	assert.Equal(t, now, listings.lastNow)
	assert.Equal(t, 72*time.Hour, listings.lastWindow)
	assert.Equal(t, []uuid.UUID{jobID}, listings.warned)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "hr@acme.io", mailer.sent[0].OwnerEmail)
}

func TestRunReaper_ExpireFailure(t *testing.T) {
	listings := &fakeListingRepo{expireErr: assert.AnError}
	s := newTestScheduler(listings, &fakeApplicationRepo{}, &fakeMailer{}, SchedulerOptions{}, time.Now())

	assert.ErrorIs(t, s.RunReaper(context.Background()), assert.AnError)
}

func TestRunStaleFlagger_Cutoff(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	apps := &fakeApplicationRepo{}
	s := newTestScheduler(&fakeListingRepo{}, apps, &fakeMailer{}, SchedulerOptions{StaleAfter: 14 * 24 * time.Hour}, now)

	require.NoError(t, s.RunStaleFlagger(context.Background()))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), apps.cutoff)
}

func TestScheduler_StartStop(t *testing.T) {
	listings := &fakeListingRepo{}
	s := NewScheduler(listings, &fakeApplicationRepo{}, &fakeMailer{}, SchedulerOptions{
		ReaperInterval: 10 * time.Millisecond,
		StaleInterval:  time.Hour,
		WarningWindow:  time.Hour,
	}, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return listings.runs() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	runs := listings.runs()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, runs, listings.runs(), "no runs after Stop")

	// Stop is idempotent.
	s.Stop()
}
